package pages

import (
	"strata/disk"
	"sync"
)

// IPage is a wrapper for actual physical pages in the file system. It can
// provide the actual content of the physical page as a byte array. It also
// keeps some useful information about the page for buffer pool.
type IPage interface {
	GetData() []byte

	// GetPageID returns the page_id of the physical page.
	GetPageID() disk.PageID
	GetPinCount() int
	IsDirty() bool
	SetDirty()
	SetClean()
	GetPageLSN() LSN
	SetPageLSN(lsn LSN)
	WLatch()
	WUnlatch()
	RLatch()
	RUnLatch()
	IncrPinCount()
	DecrPinCount()
}

var _ IPage = &RawPage{}

// RawPage is a frame-sized in-memory copy of a physical page. The buffer
// pool's latch protects its metadata; the page latch protects its data.
type RawPage struct {
	pageID   disk.PageID
	isDirty  bool
	pageLSN  LSN
	rwLatch  sync.RWMutex
	pinCount int
	data     []byte
}

func NewRawPage(pageID disk.PageID) *RawPage {
	return &RawPage{
		pageID: pageID,
		data:   make([]byte, disk.PageSize),
	}
}

func (p *RawPage) IncrPinCount() {
	p.pinCount++
}

func (p *RawPage) DecrPinCount() {
	p.pinCount--
}

func (p *RawPage) GetData() []byte {
	return p.data
}

func (p *RawPage) GetPageID() disk.PageID {
	return p.pageID
}

func (p *RawPage) SetPageID(pageID disk.PageID) {
	p.pageID = pageID
}

func (p *RawPage) GetPinCount() int {
	return p.pinCount
}

func (p *RawPage) IsDirty() bool {
	return p.isDirty
}

func (p *RawPage) SetDirty() {
	p.isDirty = true
}

func (p *RawPage) SetClean() {
	p.isDirty = false
}

func (p *RawPage) GetPageLSN() LSN {
	return p.pageLSN
}

func (p *RawPage) SetPageLSN(lsn LSN) {
	p.pageLSN = lsn
}

// Reset zeroes the page's content and clears its dirty state so that the
// frame can hold another physical page.
func (p *RawPage) Reset() {
	for i := range p.data {
		p.data[i] = 0
	}
	p.isDirty = false
	p.pageLSN = ZeroLSN
}

func (p *RawPage) WLatch() {
	p.rwLatch.Lock()
}

func (p *RawPage) WUnlatch() {
	p.rwLatch.Unlock()
}

func (p *RawPage) RLatch() {
	p.rwLatch.RLock()
}

func (p *RawPage) RUnLatch() {
	p.rwLatch.RUnlock()
}
