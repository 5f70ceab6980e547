// heap.go implements the fixed-capacity object heap behind every VA handle.

// Package handle maps opaque VA IDs onto object records stored in
// fixed-capacity slot heaps.
//
// A Heap is not safe for concurrent use; the driver serializes access.
package handle

import (
	"fmt"
)

// ID is an opaque VA object identifier.
type ID uint32

// Invalid is the VA_INVALID_ID sentinel.
const Invalid = ID(0xffffffff)

// ID offsets of the object families, so that an ID of one family never
// resolves in the heap of another family.
const (
	OffsetConfig  = ID(0x01000000)
	OffsetContext = ID(0x02000000)
	OffsetSurface = ID(0x04000000)
	OffsetBuffer  = ID(0x08000000)
	OffsetOutput  = ID(0x10000000)
)

// ErrExhausted is returned by Allocate when every slot is in use.
type ErrExhausted struct {
	Capacity int
}

func (e ErrExhausted) Error() string {
	return fmt.Sprintf("all %d handle slots are in use", e.Capacity)
}

type slot[T any] struct {
	live   bool
	object T
}

// Heap is a fixed-capacity allocator of object records of type T.
type Heap[T any] struct {
	idOffset ID
	slots    []slot[T]
	free     []int
	count    int
}

func NewHeap[T any](idOffset ID, capacity int) *Heap[T] {
	if capacity <= 0 {
		panic(fmt.Errorf("invalid heap capacity: %d", capacity))
	}
	h := &Heap[T]{
		idOffset: idOffset,
		slots:    make([]slot[T], capacity),
		free:     make([]int, 0, capacity),
	}
	for idx := capacity - 1; idx >= 0; idx-- {
		h.free = append(h.free, idx)
	}
	return h
}

// Allocate reserves a slot and returns its ID together with a zeroed record.
// The record pointer stays valid until Free is called on the ID.
func (h *Heap[T]) Allocate() (ID, *T, error) {
	if len(h.free) == 0 {
		return Invalid, nil, ErrExhausted{Capacity: len(h.slots)}
	}
	idx := h.free[len(h.free)-1]
	h.free = h.free[:len(h.free)-1]

	s := &h.slots[idx]
	var zero T
	s.object = zero
	s.live = true
	h.count++
	return h.idOffset + ID(idx), &s.object, nil
}

func (h *Heap[T]) index(id ID) (int, bool) {
	if id < h.idOffset {
		return 0, false
	}
	idx := int(id - h.idOffset)
	if idx >= len(h.slots) {
		return 0, false
	}
	return idx, h.slots[idx].live
}

// Lookup resolves an ID; it returns false for IDs that are not live.
func (h *Heap[T]) Lookup(id ID) (*T, bool) {
	idx, ok := h.index(id)
	if !ok {
		return nil, false
	}
	return &h.slots[idx].object, true
}

// Free releases the slot of the ID for reuse. Freeing an ID that is not
// live is a no-op and reports false.
func (h *Heap[T]) Free(id ID) bool {
	idx, ok := h.index(id)
	if !ok {
		return false
	}
	s := &h.slots[idx]
	var zero T
	s.object = zero
	s.live = false
	h.free = append(h.free, idx)
	h.count--
	return true
}

// Len returns the amount of live objects.
func (h *Heap[T]) Len() int {
	return h.count
}

func (h *Heap[T]) Cap() int {
	return len(h.slots)
}

// Range calls fn for every live object in ID order, stopping when fn
// returns false. fn may Free the visited ID.
func (h *Heap[T]) Range(fn func(ID, *T) bool) {
	for idx := range h.slots {
		if !h.slots[idx].live {
			continue
		}
		if !fn(h.idOffset+ID(idx), &h.slots[idx].object) {
			return
		}
	}
}

// IDs returns the live IDs in ascending order.
func (h *Heap[T]) IDs() []ID {
	result := make([]ID, 0, h.count)
	h.Range(func(id ID, _ *T) bool {
		result = append(result, id)
		return true
	})
	return result
}
