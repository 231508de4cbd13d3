package buffer

import (
	"strata/disk"
	"strata/disk/pages"
)

const (
	Read = iota
	Write
)

// PageReleaser is a pinned, latched page. Release drops the latch and the pin
// in one call so a borrow cannot outlive its pin.
type PageReleaser interface {
	pages.IPage
	Release(isDirty bool)
}

func (b *BufferPool) GetPageReleaser(pageID disk.PageID, mode int) (PageReleaser, error) {
	p, err := b.FetchPage(pageID)
	if err != nil {
		return nil, err
	}
	if mode == Read {
		p.RLatch()
		return &readPageReleaser{p, b}, nil
	}
	p.WLatch()
	return &writePageReleaser{p, b}, nil
}

func (b *BufferPool) NewPageWithReleaser() (PageReleaser, error) {
	p, err := b.NewPage()
	if err != nil {
		return nil, err
	}
	p.WLatch()
	return &writePageReleaser{p, b}, nil
}

type readPageReleaser struct {
	pages.IPage
	pool *BufferPool
}

func (n *readPageReleaser) Release(bool) {
	n.RUnLatch()
	n.pool.UnpinPage(n.GetPageID(), false)
}

type writePageReleaser struct {
	pages.IPage
	pool *BufferPool
}

func (n *writePageReleaser) Release(isDirty bool) {
	n.WUnlatch()
	n.pool.UnpinPage(n.GetPageID(), isDirty)
}
