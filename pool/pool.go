// pool.go implements a pool of byte slices bucketed by capacity.

// Package pool recycles the backing memory of short-lived buffers.
package pool

import (
	"math/bits"
	"sync"
)

const (
	// MinBucketBits is the log2 of the smallest pooled capacity.
	MinBucketBits = 6

	// MaxBucketBits is the log2 of the largest pooled capacity; larger
	// slices are neither pooled nor kept.
	MaxBucketBits = 26
)

// Bytes hands out zeroed byte slices of a requested length. Every slice
// has a power-of-two capacity and is returned to the bucket of it by Put.
type Bytes struct {
	buckets [MaxBucketBits - MinBucketBits + 1]sync.Pool
}

func NewBytes() *Bytes {
	p := &Bytes{}
	for idx := range p.buckets {
		capacity := 1 << (MinBucketBits + idx)
		p.buckets[idx].New = func() any {
			b := make([]byte, capacity)
			return &b
		}
	}
	return p
}

func bucketOf(size uint64) (int, bool) {
	if size <= 1<<MinBucketBits {
		return 0, true
	}
	bucketBits := bits.Len64(size - 1)
	if bucketBits > MaxBucketBits {
		return 0, false
	}
	return bucketBits - MinBucketBits, true
}

// Get returns a zeroed slice of the given length.
func (p *Bytes) Get(size uint64) []byte {
	idx, ok := bucketOf(size)
	if !ok {
		return make([]byte, size)
	}
	b := *p.buckets[idx].Get().(*[]byte)
	b = b[:size]
	clear(b)
	return b
}

// Put takes back a slice returned by Get. Slices of a capacity Get never
// returns are dropped.
func (p *Bytes) Put(b []byte) {
	capacity := uint64(cap(b))
	if capacity == 0 || capacity&(capacity-1) != 0 {
		return
	}
	idx, ok := bucketOf(capacity)
	if !ok || capacity != 1<<(MinBucketBits+idx) {
		return
	}
	b = b[:capacity]
	p.buckets[idx].Put(&b)
}
