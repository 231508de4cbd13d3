package disk

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
)

// IDiskManager is the page-granular block device the buffer pool sits on. It
// reads and writes whole pages addressed by page id. Allocation of page ids
// is not its concern.
type IDiskManager interface {
	// ReadPage fills dest with the content of the physical page. dest must be
	// at least PageSize long. On error dest's content is undefined.
	ReadPage(pageID PageID, dest []byte) error

	// WritePage persists PageSize bytes as the content of the physical page.
	WritePage(pageID PageID, data []byte) error

	Sync() error
	Close() error
}

// FlushInstantly should normally be set to true. If it is false then data might
// be lost even after a successful write operation when power loss occurs before
// os flushes its io buffers. But when it is false, one thread tests runs faster
// thanks to io scheduling of os, so for development it could be set to false.
const FlushInstantly bool = false

var _ IDiskManager = &Manager{}

type Manager struct {
	file     *os.File
	filename string
	mu       sync.Mutex
	logger   *zap.Logger
}

func NewDiskManager(file string, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_RDWR, os.ModePerm)
	if err != nil {
		return nil, err
	}

	stats, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	logger.Info("db file is opened", zap.String("file", file), zap.Int64("size", stats.Size()))
	return &Manager{file: f, filename: file, logger: logger}, nil
}

func (d *Manager) ReadPage(pageID PageID, dest []byte) error {
	if pageID < 0 {
		panic(fmt.Sprintf("read with an invalid page id: %v", pageID))
	}
	if len(dest) < PageSize {
		panic(fmt.Sprintf("destination buffer is smaller than page size: %v", len(dest)))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.file.Seek(int64(PageSize)*int64(pageID), io.SeekStart); err != nil {
		return err
	}

	n, err := d.file.Read(dest[:PageSize])
	if err != nil {
		return fmt.Errorf("page %v cannot be read: %w", pageID, err)
	}
	if n != PageSize {
		return fmt.Errorf("partial page encountered, page id: %v, read: %v", pageID, n)
	}

	return nil
}

func (d *Manager) WritePage(pageID PageID, data []byte) error {
	if pageID < 0 {
		panic(fmt.Sprintf("write with an invalid page id: %v", pageID))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.file.Seek(int64(PageSize)*int64(pageID), io.SeekStart); err != nil {
		return err
	}

	n, err := d.file.Write(data[:PageSize])
	if err != nil {
		return fmt.Errorf("page %v cannot be written: %w", pageID, err)
	}
	if n != PageSize {
		panic("written bytes are not equal to page size")
	}

	if FlushInstantly {
		if err := d.file.Sync(); err != nil {
			return err
		}
	}

	return nil
}

func (d *Manager) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.file.Sync()
}

func (d *Manager) Close() error {
	d.logger.Info("db file is closing", zap.String("file", d.filename))
	return d.file.Close()
}
