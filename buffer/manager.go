// manager.go implements the lifecycle of VA buffer objects.

// Package buffer owns the command/parameter buffers (picture parameters,
// slice data, ...) that the application fills through VA buffer handles.
package buffer

import (
	"context"
	"fmt"
	"math"

	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/rexxster/vdpau-driver/deadlist"
	"github.com/rexxster/vdpau-driver/handle"
	"github.com/rexxster/vdpau-driver/internal"
	"github.com/rexxster/vdpau-driver/logger"
	"github.com/rexxster/vdpau-driver/vastatus"
)

// ContextResolver resolves the dead-list of the context owning a buffer.
// Buffers only reference their context by ID; they never own it.
type ContextResolver interface {
	DeadBuffers(contextID handle.ID) (*deadlist.List, bool)
}

type ManagerParams struct {
	// Capacity is the amount of buffer handles available.
	Capacity int

	// MaxSize bounds the byte size of a single buffer; 0 means no bound.
	MaxSize uint64

	// Allocate returns the zeroed backing memory of a buffer, or nil if it
	// cannot be allocated. Defaults to make.
	Allocate func(size uint64) []byte

	// Release, if set, takes back the memory of a destroyed buffer.
	Release func(data []byte)
}

func DefaultManagerParams() ManagerParams {
	return ManagerParams{
		Capacity: 4096,
		MaxSize:  64 << 20,
	}
}

// Manager is not safe for concurrent use.
type Manager struct {
	ManagerParams
	heap      *handle.Heap[Object]
	contexts  ContextResolver
	liveBytes uint64
}

func NewManager(
	params ManagerParams,
	contexts ContextResolver,
) *Manager {
	if params.Capacity <= 0 {
		params.Capacity = DefaultManagerParams().Capacity
	}
	if params.Allocate == nil {
		params.Allocate = func(size uint64) []byte {
			return make([]byte, size)
		}
	}
	return &Manager{
		ManagerParams: params,
		heap:          handle.NewHeap[Object](handle.OffsetBuffer, params.Capacity),
		contexts:      contexts,
	}
}

// Create allocates a buffer of numElements elements of elementSize bytes
// owned by contextID. If data is not nil, it is copied in: a shorter data
// is zero-padded and bytes beyond the buffer size are ignored.
func (m *Manager) Create(
	ctx context.Context,
	contextID handle.ID,
	bufType Type,
	elementSize uint32,
	numElements uint32,
	data []byte,
) (_ret handle.ID, _err error) {
	logger.Debugf(ctx, "Create(%#x, %s, %d, %d)", contextID, bufType, elementSize, numElements)
	defer func() { logger.Debugf(ctx, "/Create: %#x %v", _ret, _err) }()

	if !bufType.IsSupported() {
		return handle.Invalid, vastatus.ErrUnsupportedBufferType{Type: bufType}
	}

	size := uint64(elementSize) * uint64(numElements)
	if size > math.MaxInt || (m.MaxSize > 0 && size > m.MaxSize) {
		return handle.Invalid, fmt.Errorf("%s buffer of %s is too large: %w", bufType, humanize.IBytes(size), vastatus.ErrAllocationFailed{})
	}

	id, obj, err := m.heap.Allocate()
	if err != nil {
		return handle.Invalid, fmt.Errorf("unable to allocate a buffer handle: %w: %w", vastatus.ErrAllocationFailed{}, err)
	}

	obj.ID = id
	obj.Context = contextID
	obj.Type = bufType
	obj.ElementSize = elementSize
	obj.NumElements = numElements
	obj.MaxNumElements = numElements
	obj.Size = size
	obj.Data = m.Allocate(size)
	obj.MTime = 0
	if obj.Data == nil || uint64(len(obj.Data)) != size {
		obj.Data = nil
		m.destroy(ctx, obj)
		return handle.Invalid, fmt.Errorf("unable to allocate %s for a %s buffer: %w", humanize.IBytes(size), bufType, vastatus.ErrAllocationFailed{})
	}
	m.liveBytes += size

	if data != nil {
		copy(obj.Data, data)
	}

	if logger.TraceEnabled {
		logger.Tracef(ctx, "created buffer: %s", spew.Sdump(*obj))
	}
	return id, nil
}

// Lookup resolves a live buffer.
func (m *Manager) Lookup(id handle.ID) (*Object, bool) {
	return m.heap.Lookup(id)
}

// Destroy frees the buffer immediately. Destroying an absent ID is a no-op.
//
// The caller guarantees no mapped view of the buffer is still in use.
func (m *Manager) Destroy(ctx context.Context, id handle.ID) {
	obj, ok := m.heap.Lookup(id)
	if !ok {
		logger.Tracef(ctx, "Destroy(%#x): no such buffer", id)
		return
	}
	m.destroy(ctx, obj)
}

func (m *Manager) destroy(ctx context.Context, obj *Object) {
	id := obj.ID
	ctx = belt.WithField(ctx, "buffer_id", id)
	logger.Tracef(ctx, "destroying a %s buffer of %s", obj.Type, humanize.IBytes(obj.Size))
	if obj.Data != nil {
		m.liveBytes -= uint64(len(obj.Data))
		if m.Release != nil {
			m.Release(obj.Data)
		}
		obj.Data = nil
	}
	freed := m.heap.Free(id)
	internal.Assert(ctx, freed, id)
}

// ScheduleDestroy marks the buffer for destruction on the dead-list of its
// owning context. The memory and the handle are released by the next flush
// of that list. If the buffer or its context cannot be resolved, it is a
// silent no-op, since the callers are destruction paths with no recovery.
func (m *Manager) ScheduleDestroy(ctx context.Context, id handle.ID) {
	obj, ok := m.heap.Lookup(id)
	if !ok {
		logger.Debugf(ctx, "ScheduleDestroy(%#x): no such buffer", id)
		return
	}

	deadBuffers, ok := m.contexts.DeadBuffers(obj.Context)
	if !ok {
		logger.Debugf(ctx, "ScheduleDestroy(%#x): unable to resolve context %#x", id, obj.Context)
		return
	}
	deadBuffers.Append(id)
}

// SetNumElements shrinks (or restores) the logical length of the buffer
// without reallocating it. The count cannot exceed the allocated capacity.
func (m *Manager) SetNumElements(
	ctx context.Context,
	id handle.ID,
	numElements uint32,
) error {
	obj, ok := m.heap.Lookup(id)
	if !ok {
		return vastatus.ErrInvalidBuffer{}
	}

	// numElements is unsigned, so only the upper bound can be violated.
	if numElements > obj.MaxNumElements {
		return vastatus.ErrRange{Requested: numElements, Max: obj.MaxNumElements}
	}

	obj.NumElements = numElements
	return nil
}

// Map exposes the whole allocation of the buffer without copying it,
// regardless of the current element count.
//
// The returned slice aliases the buffer: it is valid until the next
// Destroy, flush of a ScheduleDestroy, SetNumElements or Unmap on the same
// ID. Outstanding mappings are not tracked.
func (m *Manager) Map(ctx context.Context, id handle.ID) ([]byte, error) {
	obj, ok := m.heap.Lookup(id)
	if !ok {
		return nil, vastatus.ErrInvalidBuffer{}
	}

	if obj.Data == nil {
		return nil, vastatus.ErrUnknown{Reason: fmt.Sprintf("buffer %#x has no backing memory", id)}
	}

	obj.MTime++
	return obj.Data, nil
}

// Unmap closes a mapping window opened by Map.
func (m *Manager) Unmap(ctx context.Context, id handle.ID) error {
	obj, ok := m.heap.Lookup(id)
	if !ok {
		return vastatus.ErrInvalidBuffer{}
	}

	obj.MTime++
	return nil
}

// DestroyAll frees every buffer still alive, returning the amount freed.
func (m *Manager) DestroyAll(ctx context.Context) int {
	count := 0
	m.heap.Range(func(_ handle.ID, obj *Object) bool {
		m.destroy(ctx, obj)
		count++
		return true
	})
	return count
}

// DestroyOwnedBy frees every buffer owned by the context.
func (m *Manager) DestroyOwnedBy(ctx context.Context, contextID handle.ID) int {
	count := 0
	m.heap.Range(func(_ handle.ID, obj *Object) bool {
		if obj.Context != contextID {
			return true
		}
		m.destroy(ctx, obj)
		count++
		return true
	})
	return count
}

type Stats struct {
	Live      int    `json:"live"`
	LiveBytes uint64 `json:"live_bytes"`
	Capacity  int    `json:"capacity"`
}

func (m *Manager) Stats() Stats {
	return Stats{
		Live:      m.heap.Len(),
		LiveBytes: m.liveBytes,
		Capacity:  m.heap.Cap(),
	}
}
