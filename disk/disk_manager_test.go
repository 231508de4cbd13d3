package disk

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskManager_Should_Round_Trip_Pages(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), uuid.NewString()+".strata")
	d, err := NewDiskManager(dbFile, nil)
	require.NoError(t, err)
	defer d.Close()

	written := make([]byte, PageSize)
	rand.Read(written)
	require.NoError(t, d.WritePage(3, written))

	read := make([]byte, PageSize)
	require.NoError(t, d.ReadPage(3, read))
	assert.Equal(t, written, read)
}

func TestDiskManager_Read_Should_Fail_Past_End_Of_File(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), uuid.NewString()+".strata")
	d, err := NewDiskManager(dbFile, nil)
	require.NoError(t, err)
	defer d.Close()

	dest := make([]byte, PageSize)
	assert.Error(t, d.ReadPage(0, dest))

	require.NoError(t, d.WritePage(0, make([]byte, PageSize)))
	assert.NoError(t, d.ReadPage(0, dest))
	assert.Error(t, d.ReadPage(1, dest))
}

func TestDiskManager_Should_Panic_On_Invalid_Arguments(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), uuid.NewString()+".strata")
	d, err := NewDiskManager(dbFile, nil)
	require.NoError(t, err)
	defer d.Close()

	assert.Panics(t, func() { _ = d.ReadPage(InvalidPageID, make([]byte, PageSize)) })
	assert.Panics(t, func() { _ = d.ReadPage(0, make([]byte, 10)) })
}

func TestMemManager_Should_Behave_Like_The_File_Manager(t *testing.T) {
	d := NewMemManager()

	dest := make([]byte, PageSize)
	assert.Error(t, d.ReadPage(7, dest), "reading a page that was never written fails")

	written := make([]byte, PageSize)
	rand.Read(written)
	require.NoError(t, d.WritePage(7, written))
	require.NoError(t, d.ReadPage(7, dest))
	assert.Equal(t, written, dest)

	// writes are copied, not aliased
	written[0]++
	require.NoError(t, d.ReadPage(7, dest))
	assert.NotEqual(t, written[0], dest[0])
}
