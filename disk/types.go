package disk

// PageID addresses a fixed-size physical page in the database file. Page ids
// are non-negative; negative values are sentinels.
type PageID int32

// InvalidPageID marks a frame that does not hold any physical page.
const InvalidPageID PageID = -1

const PageSize int = 4096
