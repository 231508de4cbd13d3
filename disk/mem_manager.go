package disk

import (
	"fmt"
	"io"
	"sync"
)

var _ IDiskManager = &MemManager{}

// MemManager is an in-memory IDiskManager. It mirrors Manager's contract,
// including the read failure for pages that were never written, and is mostly
// useful in tests and for fully in-memory databases.
type MemManager struct {
	mu    sync.Mutex
	pages map[PageID][]byte
}

func NewMemManager() *MemManager {
	return &MemManager{pages: map[PageID][]byte{}}
}

func (d *MemManager) ReadPage(pageID PageID, dest []byte) error {
	if pageID < 0 {
		panic(fmt.Sprintf("read with an invalid page id: %v", pageID))
	}
	if len(dest) < PageSize {
		panic(fmt.Sprintf("destination buffer is smaller than page size: %v", len(dest)))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	data, ok := d.pages[pageID]
	if !ok {
		return fmt.Errorf("page %v cannot be read: %w", pageID, io.EOF)
	}

	copy(dest[:PageSize], data)
	return nil
}

func (d *MemManager) WritePage(pageID PageID, data []byte) error {
	if pageID < 0 {
		panic(fmt.Sprintf("write with an invalid page id: %v", pageID))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pages[pageID]
	if !ok {
		p = make([]byte, PageSize)
		d.pages[pageID] = p
	}

	copy(p, data[:PageSize])
	return nil
}

func (d *MemManager) Sync() error {
	return nil
}

func (d *MemManager) Close() error {
	return nil
}
