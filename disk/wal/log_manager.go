package wal

import (
	"strata/disk/pages"
)

// LogManager is the wal sink consumed by the buffer pool. The pool never
// appends records itself; it only enforces the write-ahead rule by forcing a
// flush before a dirty page whose pageLSN is beyond the flushed LSN goes to
// disk.
type LogManager interface {
	// GetFlushedLSN returns the lsn of the last log record that is known to be
	// on stable storage.
	GetFlushedLSN() pages.LSN

	// Flush blocks until every appended log record is persisted.
	Flush() error
}

var NoopLM LogManager = &noopLM{}

type noopLM struct{}

func (n *noopLM) GetFlushedLSN() pages.LSN {
	return pages.ZeroLSN
}

func (n *noopLM) Flush() error {
	return nil
}
