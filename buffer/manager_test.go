package buffer

import (
	"bytes"
	"context"
	"testing"
	"unsafe"

	"github.com/rexxster/vdpau-driver/deadlist"
	"github.com/rexxster/vdpau-driver/handle"
	"github.com/rexxster/vdpau-driver/vastatus"
	"github.com/stretchr/testify/require"
)

const testContext = handle.OffsetContext + 3

type dummyResolver struct {
	lists        map[handle.ID]*deadlist.List
	ResolveCount int
}

func newDummyResolver(contextIDs ...handle.ID) *dummyResolver {
	r := &dummyResolver{lists: map[handle.ID]*deadlist.List{}}
	for _, id := range contextIDs {
		r.lists[id] = &deadlist.List{}
	}
	return r
}

func (r *dummyResolver) DeadBuffers(contextID handle.ID) (*deadlist.List, bool) {
	r.ResolveCount++
	l, ok := r.lists[contextID]
	return l, ok
}

func newTestManager(t *testing.T, resolver ContextResolver) *Manager {
	t.Helper()
	params := DefaultManagerParams()
	params.Capacity = 8
	return NewManager(params, resolver)
}

func TestCreateDestroyReleasesEverything(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	types := []Type{
		TypePictureParameter,
		TypeIQMatrix,
		TypeSliceParameter,
		TypeSliceData,
		TypeBitPlane,
		TypeImage,
	}
	for _, bufType := range types {
		bufType := bufType
		t.Run(bufType.String(), func(t *testing.T) {
			t.Parallel()
			m := newTestManager(t, newDummyResolver(testContext))

			id, err := m.Create(ctx, testContext, bufType, 16, 3, nil)
			require.NoError(t, err)
			require.Equal(t, Stats{Live: 1, LiveBytes: 48, Capacity: 8}, m.Stats())

			m.Destroy(ctx, id)
			require.Equal(t, Stats{Live: 0, LiveBytes: 0, Capacity: 8}, m.Stats())

			reused, err := m.Create(ctx, testContext, bufType, 1, 1, nil)
			require.NoError(t, err)
			require.Equal(t, id, reused, "the slot must be reusable")
		})
	}
}

func TestCreateUnsupportedType(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTestManager(t, newDummyResolver())

	for _, bufType := range []Type{TypeSliceGroupMap, TypeMacroblockParam, TypeResidualData, TypeDeblockingParam, Type(42)} {
		id, err := m.Create(ctx, testContext, bufType, 4, 4, nil)
		require.ErrorIs(t, err, vastatus.ErrUnsupportedBufferType{}, bufType)
		require.Equal(t, handle.Invalid, id)
	}
	require.Zero(t, m.Stats().Live)
}

func TestCreateCopiesInitialData(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTestManager(t, newDummyResolver(testContext))

	id, err := m.Create(ctx, testContext, TypeSliceData, 2, 3, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)
	obj, ok := m.Lookup(id)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, obj.Data)

	id, err = m.Create(ctx, testContext, TypeSliceData, 2, 3, []byte{9})
	require.NoError(t, err)
	obj, ok = m.Lookup(id)
	require.True(t, ok)
	require.Equal(t, []byte{9, 0, 0, 0, 0, 0}, obj.Data)
}

func TestCreateAllocationFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("heap exhausted", func(t *testing.T) {
		t.Parallel()
		m := newTestManager(t, newDummyResolver(testContext))
		for i := 0; i < 8; i++ {
			_, err := m.Create(ctx, testContext, TypeSliceData, 1, 1, nil)
			require.NoError(t, err)
		}
		_, err := m.Create(ctx, testContext, TypeSliceData, 1, 1, nil)
		require.ErrorIs(t, err, vastatus.ErrAllocationFailed{})
		require.ErrorAs(t, err, &handle.ErrExhausted{})
	})

	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		params := DefaultManagerParams()
		params.Capacity = 1
		params.Allocate = func(uint64) []byte { return nil }
		m := NewManager(params, newDummyResolver(testContext))

		_, err := m.Create(ctx, testContext, TypeSliceData, 4096, 1, nil)
		require.ErrorIs(t, err, vastatus.ErrAllocationFailed{})
		require.Equal(t, Stats{Capacity: 1}, m.Stats(), "the handle must be released")
	})

	t.Run("too large", func(t *testing.T) {
		t.Parallel()
		params := DefaultManagerParams()
		params.MaxSize = 1024
		m := NewManager(params, newDummyResolver(testContext))

		_, err := m.Create(ctx, testContext, TypeSliceData, 1025, 1, nil)
		require.ErrorIs(t, err, vastatus.ErrAllocationFailed{})
		require.Zero(t, m.Stats().Live)
	})
}

func TestDestroyAbsentIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTestManager(t, newDummyResolver())

	m.Destroy(ctx, handle.Invalid)
	m.Destroy(ctx, handle.OffsetBuffer)
	require.Zero(t, m.Stats().Live)
}

func TestSetNumElements(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTestManager(t, newDummyResolver(testContext))

	id, err := m.Create(ctx, testContext, TypeSliceData, 4096, 1, nil)
	require.NoError(t, err)
	obj, _ := m.Lookup(id)
	dataPtr := unsafe.SliceData(obj.Data)

	err = m.SetNumElements(ctx, id, 2)
	require.ErrorIs(t, err, vastatus.ErrRange{})
	require.Equal(t, uint32(1), obj.NumElements)

	require.NoError(t, m.SetNumElements(ctx, id, 1))
	require.NoError(t, m.SetNumElements(ctx, id, 0))
	require.Equal(t, uint32(0), obj.NumElements)
	require.Empty(t, obj.Payload())

	require.NoError(t, m.SetNumElements(ctx, id, 1))
	require.Equal(t, uint64(4096), obj.Size)
	require.Len(t, obj.Data, 4096)
	require.Equal(t, dataPtr, unsafe.SliceData(obj.Data), "must not reallocate")

	require.ErrorIs(t, m.SetNumElements(ctx, handle.OffsetBuffer+7, 0), vastatus.ErrInvalidBuffer{})
}

func TestMapUnmapModificationCounter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTestManager(t, newDummyResolver(testContext))

	id, err := m.Create(ctx, testContext, TypePictureParameter, 8, 4, nil)
	require.NoError(t, err)
	require.NoError(t, m.SetNumElements(ctx, id, 1))
	obj, _ := m.Lookup(id)

	view, err := m.Map(ctx, id)
	require.NoError(t, err)
	require.Len(t, view, 32, "the whole allocation is exposed")
	require.Equal(t, uint64(1), obj.MTime)

	copy(view, bytes.Repeat([]byte{0xab}, 8))
	require.Equal(t, bytes.Repeat([]byte{0xab}, 8), obj.Payload(), "no copy is made")

	require.NoError(t, m.Unmap(ctx, id))
	require.Equal(t, uint64(2), obj.MTime)

	// unbalanced orderings still count once per call
	require.NoError(t, m.Unmap(ctx, id))
	_, err = m.Map(ctx, id)
	require.NoError(t, err)
	_, err = m.Map(ctx, id)
	require.NoError(t, err)
	require.Equal(t, uint64(5), obj.MTime)

	_, err = m.Map(ctx, handle.Invalid)
	require.ErrorIs(t, err, vastatus.ErrInvalidBuffer{})
	require.ErrorIs(t, m.Unmap(ctx, handle.Invalid), vastatus.ErrInvalidBuffer{})
}

func TestMapWithoutBackingMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTestManager(t, newDummyResolver(testContext))

	id, err := m.Create(ctx, testContext, TypeImage, 4, 4, nil)
	require.NoError(t, err)
	obj, _ := m.Lookup(id)
	obj.Data = nil

	_, err = m.Map(ctx, id)
	require.ErrorIs(t, err, vastatus.ErrUnknown{})
	require.Zero(t, obj.MTime)
}

func TestScheduleDestroy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	resolver := newDummyResolver(testContext)
	m := newTestManager(t, resolver)

	var ids []handle.ID
	for i := 0; i < 5; i++ {
		id, err := m.Create(ctx, testContext, TypeSliceData, 16, 1, nil)
		require.NoError(t, err)
		ids = append(ids, id)
		m.ScheduleDestroy(ctx, id)
	}

	deadBuffers := resolver.lists[testContext]
	require.Equal(t, ids, deadBuffers.IDs())
	require.Equal(t, 5, m.Stats().Live, "nothing is freed until the flush")

	deadBuffers.Flush(ctx, m.Destroy)
	require.Zero(t, m.Stats().Live)
	require.Zero(t, m.Stats().LiveBytes)
	require.Zero(t, deadBuffers.Len())
}

func TestScheduleDestroyUnresolvableContext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	resolver := newDummyResolver()
	m := newTestManager(t, resolver)

	id, err := m.Create(ctx, testContext, TypeSliceData, 16, 1, nil)
	require.NoError(t, err)

	m.ScheduleDestroy(ctx, id)
	require.Equal(t, 1, resolver.ResolveCount)
	_, ok := m.Lookup(id)
	require.True(t, ok, "must stay alive")

	m.ScheduleDestroy(ctx, handle.Invalid)
	require.Equal(t, 1, resolver.ResolveCount, "absent buffers never reach the resolver")
}

func TestDestroyOwnedBy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	other := testContext + 1
	m := newTestManager(t, newDummyResolver(testContext, other))

	for _, contextID := range []handle.ID{testContext, other, testContext} {
		_, err := m.Create(ctx, contextID, TypeSliceData, 1, 1, nil)
		require.NoError(t, err)
	}
	require.Equal(t, 2, m.DestroyOwnedBy(ctx, testContext))
	require.Equal(t, 1, m.Stats().Live)
	require.Equal(t, 1, m.DestroyAll(ctx))
}

func TestReleaseOnDestroy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var released [][]byte
	params := DefaultManagerParams()
	params.Capacity = 4
	params.Release = func(data []byte) { released = append(released, data) }
	m := NewManager(params, newDummyResolver(testContext))

	a, err := m.Create(ctx, testContext, TypeSliceData, 16, 2, nil)
	require.NoError(t, err)
	b, err := m.Create(ctx, testContext, TypeIQMatrix, 8, 1, nil)
	require.NoError(t, err)
	dataA, err := m.Map(ctx, a)
	require.NoError(t, err)

	m.Destroy(ctx, a)
	require.Len(t, released, 1)
	require.Equal(t, unsafe.SliceData(dataA), unsafe.SliceData(released[0]))
	require.Len(t, released[0], 32)

	m.ScheduleDestroy(ctx, b)
	require.Len(t, released, 1, "scheduling does not release memory")
	require.Equal(t, 1, m.DestroyAll(ctx))
	require.Len(t, released, 2)
	require.Zero(t, m.Stats().LiveBytes)
}
