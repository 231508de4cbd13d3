package buffer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"strata/common"
	hashtable "strata/container/hash"
	"strata/disk"
	"strata/disk/pages"
	"strata/disk/wal"
)

var ErrNoAvailableFrame = errors.New("every frame in the pool is pinned")
var ErrPageNotFound = errors.New("page cannot be found in the page table")
var ErrPagePinned = errors.New("page is pinned")

// PageTableBucketSize is the capacity of the page table's hash buckets.
const PageTableBucketSize = 4

type Pool interface {
	// NewPage allocates a fresh page id, places it in a frame and returns the
	// frame pinned. ErrNoAvailableFrame is returned when every frame is
	// pinned.
	NewPage() (*pages.RawPage, error)

	// FetchPage returns the frame holding the page, reading it from disk if it
	// is not resident. The returned frame is pinned; release it with
	// UnpinPage.
	FetchPage(pageID disk.PageID) (*pages.RawPage, error)

	// UnpinPage drops one pin from the page. isDirty marks the page modified;
	// the dirty bit is sticky and never cleared by an unpin. Returns false if
	// the page is not resident or not pinned.
	UnpinPage(pageID disk.PageID, isDirty bool) bool

	// FlushPage writes the page to disk regardless of its dirty bit and clears
	// it. Pin count and evictability are untouched.
	FlushPage(pageID disk.PageID) error

	// FlushAll flushes every resident page.
	FlushAll() error

	// DeletePage drops the page from the pool and returns its frame to the
	// free list. Deleting a non-resident page is a no-op; deleting a pinned
	// page fails with ErrPagePinned. The page id is not recycled.
	DeletePage(pageID disk.PageID) error

	// EmptyFrameSize returns the number of frames which do not hold data of
	// any physical page.
	EmptyFrameSize() int
}

var _ Pool = &BufferPool{}

// BufferPool caches physical pages in a fixed set of frames. A single latch
// serializes all public operations, disk io included; pinned frames are never
// reclaimed.
type BufferPool struct {
	poolSize    int
	frames      []*pages.RawPage
	pageTable   *hashtable.ExtendibleHashTable[disk.PageID, int]
	replacer    Replacer
	freeList    []int
	nextPageID  atomic.Int32
	diskManager disk.IDiskManager
	logManager  wal.LogManager
	metrics     *PoolMetrics
	logger      *zap.Logger
	lock        sync.Mutex
}

func NewBufferPool(poolSize, replacerK int, dm disk.IDiskManager, logManager wal.LogManager, logger *zap.Logger) *BufferPool {
	if poolSize < 1 {
		panic(fmt.Sprintf("pool size must be positive: %v", poolSize))
	}
	if logManager == nil {
		logManager = wal.NoopLM
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	frames := make([]*pages.RawPage, poolSize)
	freeList := make([]int, poolSize)
	for i := 0; i < poolSize; i++ {
		frames[i] = pages.NewRawPage(disk.InvalidPageID)
		freeList[i] = i
	}

	pageIDHasher := func(pageID disk.PageID) uint64 {
		return hashtable.Int32Hasher(int32(pageID))
	}

	return &BufferPool{
		poolSize:    poolSize,
		frames:      frames,
		pageTable:   hashtable.NewExtendibleHashTable[disk.PageID, int](PageTableBucketSize, pageIDHasher),
		replacer:    NewLRUKReplacer(poolSize, replacerK),
		freeList:    freeList,
		diskManager: dm,
		logManager:  logManager,
		metrics:     NewPoolMetrics(),
		logger:      logger,
	}
}

func (b *BufferPool) NewPage() (*pages.RawPage, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	frameID, err := b.reserveFrame()
	if err != nil {
		return nil, err
	}

	pageID := b.allocatePage()
	frame := b.frames[frameID]
	frame.SetPageID(pageID)
	frame.IncrPinCount()

	common.PanicIfErr(b.pageTable.Insert(pageID, frameID))
	b.replacer.RecordAccess(frameID)
	b.replacer.SetEvictable(frameID, false)

	b.logger.Debug("new page is placed in a frame", zap.Int32("pageID", int32(pageID)), zap.Int("frame", frameID))
	return frame, nil
}

func (b *BufferPool) FetchPage(pageID disk.PageID) (*pages.RawPage, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if frameID, ok := b.pageTable.Find(pageID); ok {
		frame := b.frames[frameID]
		frame.IncrPinCount()
		b.replacer.RecordAccess(frameID)
		b.replacer.SetEvictable(frameID, false)
		b.metrics.Hits.Inc()
		return frame, nil
	}

	b.metrics.Misses.Inc()

	frameID, err := b.reserveFrame()
	if err != nil {
		return nil, err
	}

	frame := b.frames[frameID]
	if err := b.diskManager.ReadPage(pageID, frame.GetData()); err != nil {
		// the frame holds no page yet, hand it back untouched except for its
		// now undefined content.
		frame.Reset()
		b.freeList = append(b.freeList, frameID)
		return nil, fmt.Errorf("fetch of page %v failed: %w", pageID, err)
	}

	frame.SetPageID(pageID)
	frame.IncrPinCount()

	common.PanicIfErr(b.pageTable.Insert(pageID, frameID))
	b.replacer.RecordAccess(frameID)
	b.replacer.SetEvictable(frameID, false)

	b.logger.Debug("page is read into a frame", zap.Int32("pageID", int32(pageID)), zap.Int("frame", frameID))
	return frame, nil
}

func (b *BufferPool) UnpinPage(pageID disk.PageID, isDirty bool) bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	frameID, ok := b.pageTable.Find(pageID)
	if !ok {
		return false
	}

	frame := b.frames[frameID]
	if frame.GetPinCount() <= 0 {
		return false
	}

	if isDirty {
		frame.SetDirty()
	}

	frame.DecrPinCount()
	if frame.GetPinCount() == 0 {
		b.replacer.SetEvictable(frameID, true)
	}

	return true
}

func (b *BufferPool) FlushPage(pageID disk.PageID) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.flushPage(pageID)
}

func (b *BufferPool) FlushAll() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	for _, frame := range b.frames {
		if frame.GetPageID() == disk.InvalidPageID {
			continue
		}
		if err := b.flushPage(frame.GetPageID()); err != nil {
			return err
		}
	}

	return nil
}

func (b *BufferPool) DeletePage(pageID disk.PageID) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	frameID, ok := b.pageTable.Find(pageID)
	if !ok {
		// not resident means there is nothing to delete.
		return nil
	}

	frame := b.frames[frameID]
	if frame.GetPinCount() > 0 {
		return ErrPagePinned
	}

	if frame.IsDirty() {
		if err := b.syncFrame(frame); err != nil {
			return err
		}
		b.metrics.WriteBacks.Inc()
	}

	frame.Reset()
	frame.SetPageID(disk.InvalidPageID)
	b.freeList = append(b.freeList, frameID)
	b.pageTable.Remove(pageID)
	b.replacer.Remove(frameID)

	b.logger.Debug("page is dropped from the pool", zap.Int32("pageID", int32(pageID)), zap.Int("frame", frameID))
	return nil
}

func (b *BufferPool) EmptyFrameSize() int {
	b.lock.Lock()
	defer b.lock.Unlock()

	return len(b.freeList)
}

func (b *BufferPool) allocatePage() disk.PageID {
	return disk.PageID(b.nextPageID.Add(1) - 1)
}

// reserveFrame claims a frame for a new resident page: the free list first,
// the replacer second. An evicted frame comes back reset, its old page written
// back if dirty and removed from the page table. Caller must hold b.lock.
func (b *BufferPool) reserveFrame() (int, error) {
	if len(b.freeList) > 0 {
		frameID := b.freeList[0]
		b.freeList = b.freeList[1:]
		return frameID, nil
	}

	frameID, ok := b.replacer.Evict()
	if !ok {
		return 0, ErrNoAvailableFrame
	}

	victim := b.frames[frameID]
	if victim.GetPinCount() != 0 {
		panic(fmt.Sprintf("a page is chosen as victim while its pin count is not zero. pin count: %v, page_id: %v", victim.GetPinCount(), victim.GetPageID()))
	}

	victimPageID := victim.GetPageID()
	if victim.IsDirty() {
		if err := b.syncFrame(victim); err != nil {
			// the frame stays resident; put it back so the replacer can offer
			// it again.
			b.replacer.RecordAccess(frameID)
			b.replacer.SetEvictable(frameID, true)
			return 0, err
		}
		b.metrics.WriteBacks.Inc()
	}

	b.pageTable.Remove(victimPageID)
	victim.Reset()
	victim.SetPageID(disk.InvalidPageID)
	b.metrics.Evictions.Inc()

	b.logger.Debug("frame is reclaimed", zap.Int32("evictedPageID", int32(victimPageID)), zap.Int("frame", frameID))
	return frameID, nil
}

// flushPage force-writes a resident page and clears its dirty bit. Caller must
// hold b.lock.
func (b *BufferPool) flushPage(pageID disk.PageID) error {
	frameID, ok := b.pageTable.Find(pageID)
	if !ok {
		return ErrPageNotFound
	}

	if err := b.syncFrame(b.frames[frameID]); err != nil {
		return err
	}

	b.metrics.Flushes.Inc()
	return nil
}

// syncFrame writes the frame's bytes to disk and clears its dirty bit,
// honoring the write-ahead rule first: log records covering the page must be
// on stable storage before the page itself.
func (b *BufferPool) syncFrame(frame *pages.RawPage) error {
	if frame.GetPageLSN() > b.logManager.GetFlushedLSN() {
		if err := b.logManager.Flush(); err != nil {
			return err
		}
	}

	if err := b.diskManager.WritePage(frame.GetPageID(), frame.GetData()); err != nil {
		return fmt.Errorf("write back of page %v failed: %w", frame.GetPageID(), err)
	}

	frame.SetClean()
	return nil
}

// Metrics exposes the pool's counters so the embedding process can register
// them.
func (b *BufferPool) Metrics() *PoolMetrics {
	return b.metrics
}
