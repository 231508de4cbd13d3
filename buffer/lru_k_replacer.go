package buffer

import (
	"container/list"
	"fmt"
	"sync"
)

var _ Replacer = &LRUKReplacer{}

// LRUKReplacer is an LRU-K style replacer. Frames with fewer than k recorded
// accesses live on the history list and are always preferred over frames on
// the cache list: a page that never reached k accesses leaves before any page
// that did, regardless of timestamps. Every access moves a frame to the tail
// of its list, so within each list the frame whose most recent access is
// oldest leaves first; the k-th most recent access is not tracked.
type LRUKReplacer struct {
	k            int
	replacerSize int
	currSize     int

	// historyList keeps frames with fewer than k accesses, cacheList frames
	// with at least k. Both are ordered front-to-back from eviction candidate
	// to most recently refreshed. elems indexes the lists by frame id.
	historyList *list.List
	cacheList   *list.List
	elems       map[int]*list.Element
	accessCount map[int]int
	evictable   map[int]bool

	lock sync.Mutex
}

func NewLRUKReplacer(numFrames, k int) *LRUKReplacer {
	if k < 1 {
		panic(fmt.Sprintf("k must be positive: %v", k))
	}

	return &LRUKReplacer{
		k:            k,
		replacerSize: numFrames,
		historyList:  list.New(),
		cacheList:    list.New(),
		elems:        map[int]*list.Element{},
		accessCount:  map[int]int{},
		evictable:    map[int]bool{},
	}
}

func (r *LRUKReplacer) RecordAccess(frameID int) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.checkFrame(frameID)

	r.accessCount[frameID]++

	c := r.accessCount[frameID]
	switch {
	case c < r.k:
		if c == 1 {
			r.elems[frameID] = r.historyList.PushBack(frameID)
		} else {
			r.historyList.MoveToBack(r.elems[frameID])
		}
	case c == r.k:
		// graduate from history to cache. With k == 1 the frame was never on
		// the history list to begin with.
		if el, ok := r.elems[frameID]; ok {
			r.historyList.Remove(el)
		}
		r.elems[frameID] = r.cacheList.PushBack(frameID)
	default:
		r.cacheList.MoveToBack(r.elems[frameID])
	}
}

func (r *LRUKReplacer) SetEvictable(frameID int, evictable bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.checkFrame(frameID)

	prev, known := r.evictable[frameID]
	r.evictable[frameID] = evictable

	if !known {
		if evictable {
			r.currSize++
		}
		return
	}

	if !prev && evictable {
		r.currSize++
	} else if prev && !evictable {
		r.currSize--
	}
}

func (r *LRUKReplacer) Evict() (int, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.currSize == 0 {
		return 0, false
	}

	for _, l := range []*list.List{r.historyList, r.cacheList} {
		for e := l.Front(); e != nil; e = e.Next() {
			frameID := e.Value.(int)
			if !r.evictable[frameID] {
				continue
			}

			l.Remove(e)
			r.drop(frameID)
			return frameID, true
		}
	}

	return 0, false
}

func (r *LRUKReplacer) Remove(frameID int) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.checkFrame(frameID)

	if !r.evictable[frameID] {
		return
	}

	if el, ok := r.elems[frameID]; ok {
		if r.accessCount[frameID] < r.k {
			r.historyList.Remove(el)
		} else {
			r.cacheList.Remove(el)
		}
	}

	r.drop(frameID)
}

func (r *LRUKReplacer) Size() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.currSize
}

// drop erases the frame's bookkeeping. The caller already unlinked its list
// element.
func (r *LRUKReplacer) drop(frameID int) {
	delete(r.elems, frameID)
	delete(r.accessCount, frameID)
	delete(r.evictable, frameID)
	r.currSize--
}

func (r *LRUKReplacer) checkFrame(frameID int) {
	if frameID < 0 || frameID >= r.replacerSize {
		panic(fmt.Sprintf("frame id is out of replacer's range: %v", frameID))
	}
}
