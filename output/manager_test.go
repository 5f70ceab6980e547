package output

import (
	"context"
	"testing"

	"github.com/rexxster/vdpau-driver/handle"
	"github.com/rexxster/vdpau-driver/vastatus"
	"github.com/rexxster/vdpau-driver/vdpau"
	"github.com/rexxster/vdpau-driver/vdpau/fakedevice"
	"github.com/rexxster/vdpau-driver/x11"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, ringSize int) (*Manager, *fakedevice.Device, *x11.Static) {
	t.Helper()
	device := fakedevice.New()
	display := x11.NewStatic(x11.Size{Width: 1920, Height: 1080})
	params := DefaultManagerParams()
	params.Capacity = 4
	params.RingSize = ringSize
	return NewManager(params, device, display), device, display
}

func TestCreateSizesToDisplay(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name         string
		hintW, hintH uint32
		wantW, wantH uint32
	}{
		{"smaller_than_screen", 640, 480, 1920, 1080},
		{"wider_than_screen", 4096, 480, 4096, 1080},
		{"larger_than_screen", 3840, 2160, 3840, 2160},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			m, device, _ := newTestManager(t, 3)

			id, err := m.Create(ctx, tc.hintW, tc.hintH)
			require.NoError(t, err)
			require.Equal(t, handle.OffsetOutput, id&0xff000000)

			out, ok := m.Lookup(id)
			require.True(t, ok)
			require.Equal(t, tc.wantW, out.SurfaceWidth)
			require.Equal(t, tc.wantH, out.SurfaceHeight)
			require.Len(t, out.Ring, 3)
			require.Zero(t, out.Cursor)
			require.False(t, out.HasFlipQueue())
			require.False(t, out.Drawable.IsSet())
			require.Equal(t, 3, device.Live(fakedevice.KindOutputSurface))

			for _, call := range device.CallsOf(fakedevice.OpOutputSurfaceCreate) {
				require.Equal(t, tc.wantW, call.Width)
				require.Equal(t, tc.wantH, call.Height)
			}
		})
	}
}

func TestCreateRollsBackOnSurfaceFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, device, _ := newTestManager(t, 4)

	created := 0
	device.FailFn = func(call fakedevice.Call) vdpau.Status {
		if call.Op != fakedevice.OpOutputSurfaceCreate {
			return vdpau.StatusOK
		}
		created++
		if created == 3 {
			return vdpau.StatusResources
		}
		return vdpau.StatusOK
	}

	id, err := m.Create(ctx, 640, 480)
	require.Error(t, err)
	require.Equal(t, handle.Invalid, id)
	require.ErrorIs(t, err, vastatus.ErrAllocationFailed{})
	require.Equal(t, vastatus.ErrorAllocationFailed, vastatus.FromError(err))
	require.Zero(t, device.LiveTotal())
	require.Len(t, device.CallsOf(fakedevice.OpOutputSurfaceDestroy), 2)
	require.Zero(t, m.Len())
}

func TestCreateExhausted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _, _ := newTestManager(t, 1)
	for range m.Capacity {
		_, err := m.Create(ctx, 16, 16)
		require.NoError(t, err)
	}
	_, err := m.Create(ctx, 16, 16)
	require.ErrorIs(t, err, vastatus.ErrAllocationFailed{})
}

func TestBindDrawable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, device, _ := newTestManager(t, 2)

	id, err := m.Create(ctx, 640, 480)
	require.NoError(t, err)
	out, _ := m.Lookup(id)

	require.NoError(t, m.BindDrawable(ctx, out, 0x100))
	require.True(t, out.HasFlipQueue())
	require.True(t, out.IsBoundTo(0x100))
	drawable, ok := device.TargetDrawable(out.FlipTarget)
	require.True(t, ok)
	require.Equal(t, vdpau.Drawable(0x100), drawable)

	device.ResetCalls()
	require.NoError(t, m.BindDrawable(ctx, out, 0x100))
	require.Empty(t, device.Calls(), "same drawable must not rebuild the flip queue")

	oldQueue, oldTarget := out.FlipQueue, out.FlipTarget
	require.NoError(t, m.BindDrawable(ctx, out, 0x200))
	calls := device.CallsOf(
		fakedevice.OpQueueDestroy,
		fakedevice.OpTargetDestroy,
		fakedevice.OpTargetCreate,
		fakedevice.OpQueueCreate,
	)
	require.Len(t, calls, 4)
	require.Equal(t, fakedevice.OpQueueDestroy, calls[0].Op)
	require.Equal(t, oldQueue, calls[0].Handle)
	require.Equal(t, fakedevice.OpTargetDestroy, calls[1].Op)
	require.Equal(t, oldTarget, calls[1].Handle)
	require.Equal(t, fakedevice.OpTargetCreate, calls[2].Op)
	require.Equal(t, vdpau.Drawable(0x200), calls[2].Drawable)
	require.Equal(t, fakedevice.OpQueueCreate, calls[3].Op)
	require.Equal(t, 1, device.Live(fakedevice.KindQueue))
	require.Equal(t, 1, device.Live(fakedevice.KindTarget))
}

func TestBindDrawableRollsBackTarget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, device, _ := newTestManager(t, 2)

	id, err := m.Create(ctx, 640, 480)
	require.NoError(t, err)
	out, _ := m.Lookup(id)

	device.FailFn = func(call fakedevice.Call) vdpau.Status {
		if call.Op == fakedevice.OpQueueCreate {
			return vdpau.StatusResources
		}
		return vdpau.StatusOK
	}
	err = m.BindDrawable(ctx, out, 0x100)
	require.ErrorIs(t, err, vastatus.ErrNativeLayer{})
	require.Equal(t, vastatus.ErrorAllocationFailed, vastatus.FromError(err))
	require.False(t, out.HasFlipQueue())
	require.Zero(t, device.Live(fakedevice.KindTarget))
	require.Zero(t, device.Live(fakedevice.KindQueue))

	device.FailFn = nil
	require.NoError(t, m.BindDrawable(ctx, out, 0x100))
	require.True(t, out.HasFlipQueue())
}

func TestDestroyOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, device, _ := newTestManager(t, 2)

	id, err := m.Create(ctx, 640, 480)
	require.NoError(t, err)
	out, _ := m.Lookup(id)
	require.NoError(t, m.BindDrawable(ctx, out, 0x100))
	queue, target := out.FlipQueue, out.FlipTarget

	device.ResetCalls()
	m.Destroy(ctx, id)
	calls := device.Calls()
	require.Len(t, calls, 4)
	require.Equal(t, fakedevice.OpQueueDestroy, calls[0].Op)
	require.Equal(t, queue, calls[0].Handle)
	require.Equal(t, fakedevice.OpTargetDestroy, calls[1].Op)
	require.Equal(t, target, calls[1].Handle)
	require.Equal(t, fakedevice.OpOutputSurfaceDestroy, calls[2].Op)
	require.Equal(t, fakedevice.OpOutputSurfaceDestroy, calls[3].Op)
	require.Zero(t, device.LiveTotal())

	_, ok := m.Lookup(id)
	require.False(t, ok)

	device.ResetCalls()
	m.Destroy(ctx, id)
	m.Destroy(ctx, handle.Invalid)
	require.Empty(t, device.Calls())
}

func TestPresentCycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, device, _ := newTestManager(t, 3)

	id, err := m.Create(ctx, 320, 240)
	require.NoError(t, err)
	out, _ := m.Lookup(id)
	require.NoError(t, m.BindDrawable(ctx, out, 0x42))

	ring := append([]vdpau.OutputSurface{}, out.Ring...)
	for frame := 0; frame < 7; frame++ {
		surface, err := m.AcquireSlot(ctx, out)
		require.NoError(t, err)
		require.Equal(t, ring[frame%3], surface)
		require.NoError(t, m.Display(ctx, out, surface, 4000, 100))
		require.True(t, device.IsQueued(surface))
		m.Advance(out)
	}
	require.Equal(t, 7%3, out.Cursor)

	for _, call := range device.CallsOf(fakedevice.OpDisplay) {
		require.Equal(t, uint32(1920), call.Width)
		require.Equal(t, uint32(100), call.Height)
	}
}

func TestUpdateGeometry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, device, _ := newTestManager(t, 2)

	id, err := m.Create(ctx, 320, 240)
	require.NoError(t, err)
	out, _ := m.Lookup(id)

	require.True(t, m.UpdateGeometry(ctx, out, 800, 600))
	require.False(t, m.UpdateGeometry(ctx, out, 800, 600))
	device.ResetCalls()
	require.True(t, m.UpdateGeometry(ctx, out, 2560, 1440))
	require.Empty(t, device.Calls(), "resizing must not reallocate the ring")
	w, h := out.ClipSize(out.Width, out.Height)
	require.Equal(t, uint32(1920), w)
	require.Equal(t, uint32(1080), h)
}

func TestDestroyAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, device, _ := newTestManager(t, 2)
	for range 3 {
		id, err := m.Create(ctx, 16, 16)
		require.NoError(t, err)
		out, _ := m.Lookup(id)
		require.NoError(t, m.BindDrawable(ctx, out, vdpau.Drawable(id)))
	}
	require.Equal(t, 3, m.DestroyAll(ctx))
	require.Zero(t, m.Len())
	require.Zero(t, device.LiveTotal())
}
