package handle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type record struct {
	Value int
}

func TestHeapAllocateFree(t *testing.T) {
	t.Parallel()

	h := NewHeap[record](OffsetBuffer, 2)

	id0, r0, err := h.Allocate()
	require.NoError(t, err)
	require.Equal(t, OffsetBuffer, id0)
	r0.Value = 42

	id1, _, err := h.Allocate()
	require.NoError(t, err)
	require.Equal(t, OffsetBuffer+1, id1)

	_, _, err = h.Allocate()
	require.ErrorAs(t, err, &ErrExhausted{})
	require.Equal(t, 2, h.Len())

	got, ok := h.Lookup(id0)
	require.True(t, ok)
	require.Equal(t, 42, got.Value)

	require.True(t, h.Free(id0))
	require.False(t, h.Free(id0))
	_, ok = h.Lookup(id0)
	require.False(t, ok)

	id2, r2, err := h.Allocate()
	require.NoError(t, err)
	require.Equal(t, id0, id2, "freed slot must be reusable")
	require.Zero(t, r2.Value, "reused slot must be zeroed")
}

func TestHeapLookupForeignID(t *testing.T) {
	t.Parallel()

	h := NewHeap[record](OffsetSurface, 4)
	id, _, err := h.Allocate()
	require.NoError(t, err)

	for _, foreign := range []ID{Invalid, 0, OffsetSurface - 1, OffsetSurface + 4, OffsetBuffer} {
		_, ok := h.Lookup(foreign)
		require.False(t, ok, "%#x", foreign)
	}
	_, ok := h.Lookup(id)
	require.True(t, ok)
}

func TestHeapRange(t *testing.T) {
	t.Parallel()

	h := NewHeap[record](OffsetContext, 4)
	for i := 0; i < 3; i++ {
		_, r, err := h.Allocate()
		require.NoError(t, err)
		r.Value = i
	}
	h.Free(OffsetContext + 1)

	require.Equal(t, []ID{OffsetContext, OffsetContext + 2}, h.IDs())

	h.Range(func(id ID, _ *record) bool {
		h.Free(id)
		return true
	})
	require.Zero(t, h.Len())
}
