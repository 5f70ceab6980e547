package deadlist

import (
	"context"
	"testing"

	"github.com/rexxster/vdpau-driver/handle"
	"github.com/stretchr/testify/require"
)

func TestListGrowsBySixteen(t *testing.T) {
	t.Parallel()

	for _, k := range []int{0, 1, 15, 16, 17, 33, 100} {
		var l List
		var caps []int
		for i := 0; i < k; i++ {
			before := l.Cap()
			l.Append(handle.OffsetBuffer + handle.ID(i))
			if l.Cap() != before {
				require.Equal(t, before+GrowStep, l.Cap(), "k=%d i=%d", k, i)
				caps = append(caps, l.Cap())
			}
		}
		require.Equal(t, k, l.Len())
		require.Equal(t, (k+GrowStep-1)/GrowStep, len(caps))

		ids := l.IDs()
		for i, id := range ids {
			require.Equal(t, handle.OffsetBuffer+handle.ID(i), id, "entry lost across growth")
		}
	}
}

func TestListFlush(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var l List
	for i := 0; i < 20; i++ {
		l.Append(handle.ID(i))
	}
	require.True(t, l.Contains(5))
	require.False(t, l.Contains(21))

	var freed []handle.ID
	n := l.Flush(ctx, func(_ context.Context, id handle.ID) {
		freed = append(freed, id)
	})
	require.Equal(t, 20, n)
	require.Len(t, freed, 20)
	for i, id := range freed {
		require.Equal(t, handle.ID(i), id)
	}
	require.Zero(t, l.Len())
	require.Equal(t, 2*GrowStep, l.Cap())

	require.Zero(t, l.Flush(ctx, func(context.Context, handle.ID) {
		t.Fatal("nothing is pending")
	}))
}
