package hash

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// hashWidth bounds bucket depth. A bucket at depth 64 holds keys that agree
// on every hash bit; splitting it further can never separate them, so the
// insert gives up instead of doubling the directory forever.
const hashWidth = 64

var ErrCapacityExceeded = errors.New("bucket cannot be split further, keys collide on all hash bits")

// Hasher maps a key to the bit string the directory is indexed by.
type Hasher[K comparable] func(K) uint64

// Int32Hasher hashes fixed-width integer keys such as page ids.
func Int32Hasher(k int32) uint64 {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(k))
	return xxhash.Sum64(buf[:])
}

func Int64Hasher(k int64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(k))
	return xxhash.Sum64(buf[:])
}

type entry[K comparable, V any] struct {
	key K
	val V
}

// bucket holds up to the directory's bucketSize entries whose hashes agree on
// the low depth bits. Buckets are shared by reference: while a bucket's depth
// is less than the global depth, more than one directory slot points at it.
type bucket[K comparable, V any] struct {
	depth int
	items []entry[K, V]
}

func newBucket[K comparable, V any](size, depth int) *bucket[K, V] {
	return &bucket[K, V]{depth: depth, items: make([]entry[K, V], 0, size)}
}

func (b *bucket[K, V]) find(key K) (V, bool) {
	for _, item := range b.items {
		if item.key == key {
			return item.val, true
		}
	}

	var zero V
	return zero, false
}

func (b *bucket[K, V]) remove(key K) bool {
	for i, item := range b.items {
		if item.key == key {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

// ExtendibleHashTable is an in-memory extendible hash map. The directory
// doubles on demand while buckets split one depth bit at a time, so a burst of
// inserts into one bucket never rehashes the whole table. All operations are
// linearizable under an internal mutex.
type ExtendibleHashTable[K comparable, V any] struct {
	globalDepth int
	bucketSize  int
	numBuckets  int
	dir         []*bucket[K, V]
	hasher      Hasher[K]
	lock        sync.Mutex
}

func NewExtendibleHashTable[K comparable, V any](bucketSize int, hasher Hasher[K]) *ExtendibleHashTable[K, V] {
	if bucketSize < 1 {
		panic("bucket size must be positive")
	}
	if hasher == nil {
		panic("hasher must not be nil")
	}

	return &ExtendibleHashTable[K, V]{
		bucketSize: bucketSize,
		numBuckets: 1,
		dir:        []*bucket[K, V]{newBucket[K, V](bucketSize, 0)},
		hasher:     hasher,
	}
}

// indexOf masks the key's hash by the global depth to find its directory slot.
func (t *ExtendibleHashTable[K, V]) indexOf(key K) uint64 {
	mask := (uint64(1) << uint(t.globalDepth)) - 1
	return t.hasher(key) & mask
}

func (t *ExtendibleHashTable[K, V]) Find(key K) (V, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.dir[t.indexOf(key)].find(key)
}

// Insert puts the key into its bucket, splitting full buckets as needed. An
// existing key is overwritten in place.
func (t *ExtendibleHashTable[K, V]) Insert(key K, value V) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	existing := t.dir[t.indexOf(key)]
	for i := range existing.items {
		if existing.items[i].key == key {
			existing.items[i].val = value
			return nil
		}
	}

	for len(t.dir[t.indexOf(key)].items) >= t.bucketSize {
		target := t.dir[t.indexOf(key)]
		if target.depth >= hashWidth {
			return ErrCapacityExceeded
		}

		// Double the directory when the full bucket is maximally specific
		// already. Appending the directory to itself keeps every alias: slot
		// i+2^G points to the same bucket as slot i.
		if target.depth == t.globalDepth {
			t.globalDepth++
			t.dir = append(t.dir, t.dir...)
		}

		// Redistribute the full bucket over one more hash bit.
		b0 := newBucket[K, V](t.bucketSize, target.depth+1)
		b1 := newBucket[K, V](t.bucketSize, target.depth+1)
		mask := uint64(1) << uint(target.depth)

		for _, item := range target.items {
			if t.hasher(item.key)&mask == 0 {
				b0.items = append(b0.items, item)
			} else {
				b1.items = append(b1.items, item)
			}
		}

		t.numBuckets++

		for i := range t.dir {
			if t.dir[i] == target {
				if uint64(i)&mask == 0 {
					t.dir[i] = b0
				} else {
					t.dir[i] = b1
				}
			}
		}
	}

	target := t.dir[t.indexOf(key)]
	target.items = append(target.items, entry[K, V]{key: key, val: value})
	return nil
}

// Remove deletes the key and reports whether it was present. Buckets are never
// coalesced.
func (t *ExtendibleHashTable[K, V]) Remove(key K) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.dir[t.indexOf(key)].remove(key)
}

func (t *ExtendibleHashTable[K, V]) GetGlobalDepth() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.globalDepth
}

// GetLocalDepth returns the depth of the bucket referenced by the given
// directory slot.
func (t *ExtendibleHashTable[K, V]) GetLocalDepth(dirIndex int) int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.dir[dirIndex].depth
}

func (t *ExtendibleHashTable[K, V]) GetNumBuckets() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.numBuckets
}
