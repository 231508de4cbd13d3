package pages

// LSN orders log records. The buffer pool compares a frame's pageLSN against
// the log manager's flushed LSN to enforce write-ahead ordering.
type LSN uint64

const ZeroLSN = 0
