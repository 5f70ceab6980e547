// manager.go implements creation, binding and teardown of output targets.

// Package output manages the rings of VDPAU output surfaces that decoded
// pictures are composited into, and the presentation queue ("flip queue")
// that shows them on a drawable.
package output

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt"
	"github.com/rexxster/vdpau-driver/handle"
	"github.com/rexxster/vdpau-driver/internal"
	"github.com/rexxster/vdpau-driver/logger"
	"github.com/rexxster/vdpau-driver/vastatus"
	"github.com/rexxster/vdpau-driver/vdpau"
	"github.com/rexxster/vdpau-driver/x11"
)

type ManagerParams struct {
	// Capacity is the amount of output target handles available.
	Capacity int

	// RingSize is the amount of output surfaces of every target.
	RingSize int

	Format vdpau.RGBAFormat
}

func DefaultManagerParams() ManagerParams {
	return ManagerParams{
		Capacity: 32,
		RingSize: 2,
		Format:   vdpau.RGBAFormatB8G8R8A8,
	}
}

// Manager is not safe for concurrent use.
type Manager struct {
	ManagerParams
	device  vdpau.Device
	display x11.Display
	heap    *handle.Heap[Target]
}

func NewManager(
	params ManagerParams,
	device vdpau.Device,
	display x11.Display,
) *Manager {
	def := DefaultManagerParams()
	if params.Capacity <= 0 {
		params.Capacity = def.Capacity
	}
	if params.RingSize <= 0 {
		params.RingSize = def.RingSize
	}
	return &Manager{
		ManagerParams: params,
		device:        device,
		display:       display,
		heap:          handle.NewHeap[Target](handle.OffsetOutput, params.Capacity),
	}
}

// Create allocates an output target whose ring slots are at least as large
// as both the hint and the physical display. Construction is all or nothing.
func (m *Manager) Create(
	ctx context.Context,
	hintWidth uint32,
	hintHeight uint32,
) (_ret handle.ID, _err error) {
	logger.Debugf(ctx, "Create(%d, %d)", hintWidth, hintHeight)
	defer func() { logger.Debugf(ctx, "/Create: %#x %v", _ret, _err) }()

	id, t, err := m.heap.Allocate()
	if err != nil {
		return handle.Invalid, fmt.Errorf("unable to allocate an output handle: %w: %w", vastatus.ErrAllocationFailed{}, err)
	}
	ctx = belt.WithField(ctx, "output_id", id)

	screen := m.display.DisplaySize()
	t.ID = id
	t.SurfaceWidth = max(hintWidth, screen.Width)
	t.SurfaceHeight = max(hintHeight, screen.Height)
	t.Cursor = 0
	t.FlipQueue = vdpau.InvalidHandle
	t.FlipTarget = vdpau.InvalidHandle
	t.Ring = make([]vdpau.OutputSurface, m.RingSize)
	for idx := range t.Ring {
		t.Ring[idx] = vdpau.InvalidHandle
	}

	for idx := range t.Ring {
		surface, status := m.device.OutputSurfaceCreate(m.Format, t.SurfaceWidth, t.SurfaceHeight)
		if status != vdpau.StatusOK {
			logger.Errorf(ctx, "unable to create output surface #%d of %dx%d: %s", idx, t.SurfaceWidth, t.SurfaceHeight, m.device.GetErrorString(status))
			m.destroy(ctx, t)
			return handle.Invalid, fmt.Errorf("output surface #%d: %w: %w", idx, vastatus.ErrAllocationFailed{}, vastatus.Native("VdpOutputSurfaceCreate", status))
		}
		t.Ring[idx] = surface
	}

	return id, nil
}

// Lookup resolves a live output target.
func (m *Manager) Lookup(id handle.ID) (*Target, bool) {
	return m.heap.Lookup(id)
}

// Destroy tears down the flip queue, the ring and the handle. Absent IDs
// are a no-op.
func (m *Manager) Destroy(ctx context.Context, id handle.ID) {
	if id == handle.Invalid {
		return
	}
	t, ok := m.heap.Lookup(id)
	if !ok {
		logger.Debugf(ctx, "Destroy(%#x): no such output target", id)
		return
	}
	m.destroy(belt.WithField(ctx, "output_id", id), t)
}

func (m *Manager) destroy(ctx context.Context, t *Target) {
	id := t.ID
	m.destroyFlipQueue(ctx, t)
	for idx, surface := range t.Ring {
		if !surface.IsValid() {
			continue
		}
		if status := m.device.OutputSurfaceDestroy(surface); status != vdpau.StatusOK {
			logger.Warnf(ctx, "unable to destroy output surface #%d (%s): %s", idx, surface, m.device.GetErrorString(status))
		}
		t.Ring[idx] = vdpau.InvalidHandle
	}
	freed := m.heap.Free(id)
	internal.Assert(ctx, freed, id)
}

func (m *Manager) destroyFlipQueue(ctx context.Context, t *Target) {
	if t.FlipQueue.IsValid() {
		if status := m.device.PresentationQueueDestroy(t.FlipQueue); status != vdpau.StatusOK {
			logger.Warnf(ctx, "unable to destroy presentation queue %s: %s", t.FlipQueue, m.device.GetErrorString(status))
		}
		t.FlipQueue = vdpau.InvalidHandle
	}
	if t.FlipTarget.IsValid() {
		if status := m.device.PresentationQueueTargetDestroy(t.FlipTarget); status != vdpau.StatusOK {
			logger.Warnf(ctx, "unable to destroy presentation queue target %s: %s", t.FlipTarget, m.device.GetErrorString(status))
		}
		t.FlipTarget = vdpau.InvalidHandle
	}
}

func (m *Manager) createFlipQueue(ctx context.Context, t *Target) error {
	drawable := t.Drawable.Get()

	flipTarget, status := m.device.PresentationQueueTargetCreateX11(drawable)
	if status != vdpau.StatusOK {
		return vastatus.Native("VdpPresentationQueueTargetCreateX11", status)
	}

	flipQueue, status := m.device.PresentationQueueCreate(flipTarget)
	if status != vdpau.StatusOK {
		if destroyStatus := m.device.PresentationQueueTargetDestroy(flipTarget); destroyStatus != vdpau.StatusOK {
			logger.Warnf(ctx, "unable to destroy presentation queue target %s: %s", flipTarget, m.device.GetErrorString(destroyStatus))
		}
		return vastatus.Native("VdpPresentationQueueCreate", status)
	}

	t.FlipQueue = flipQueue
	t.FlipTarget = flipTarget
	return nil
}

// BindDrawable makes the flip queue of the target present to the drawable.
// It only rebuilds the queue when the drawable identity changes; the old
// queue and target are destroyed before the new ones are created.
func (m *Manager) BindDrawable(
	ctx context.Context,
	t *Target,
	drawable vdpau.Drawable,
) (_err error) {
	if t.IsBoundTo(drawable) && t.HasFlipQueue() {
		return nil
	}
	ctx = belt.WithField(ctx, "output_id", t.ID)
	logger.Debugf(ctx, "BindDrawable(0x%x)", uint64(drawable))
	defer func() { logger.Debugf(ctx, "/BindDrawable(0x%x): %v", uint64(drawable), _err) }()

	m.destroyFlipQueue(ctx, t)
	t.Drawable.Set(drawable)
	if err := m.createFlipQueue(ctx, t); err != nil {
		return fmt.Errorf("unable to create the flip queue for drawable 0x%x: %w", uint64(drawable), err)
	}
	return nil
}

// UpdateGeometry records the drawable geometry and reports whether it
// changed. The ring is never reallocated: a drawable larger than the ring
// slots is shown clipped to them.
func (m *Manager) UpdateGeometry(
	ctx context.Context,
	t *Target,
	width uint32,
	height uint32,
) bool {
	if t.Width == width && t.Height == height {
		return false
	}
	logger.Debugf(ctx, "output %#x: drawable geometry %dx%d -> %dx%d", t.ID, t.Width, t.Height, width, height)
	t.Width = width
	t.Height = height
	// TODO: regrow the ring slots incrementally once a drawable outgrows them.
	return true
}

// AcquireSlot blocks until the current ring slot is no longer used by the
// flip queue and returns it.
func (m *Manager) AcquireSlot(
	ctx context.Context,
	t *Target,
) (vdpau.OutputSurface, error) {
	internal.Assert(ctx, t.HasFlipQueue(), t.ID)
	surface := t.Current()
	logger.Tracef(ctx, "waiting for output surface #%d (%s) to become idle", t.Cursor, surface)
	if _, status := m.device.PresentationQueueBlockUntilSurfaceIdle(t.FlipQueue, surface); status != vdpau.StatusOK {
		return vdpau.InvalidHandle, vastatus.Native("VdpPresentationQueueBlockUntilSurfaceIdle", status)
	}
	return surface, nil
}

// Display queues the surface on the flip queue, clipped to the smaller of
// the ring slot and the drawable.
func (m *Manager) Display(
	ctx context.Context,
	t *Target,
	surface vdpau.OutputSurface,
	drawableWidth uint32,
	drawableHeight uint32,
) error {
	clipWidth, clipHeight := t.ClipSize(drawableWidth, drawableHeight)
	if status := m.device.PresentationQueueDisplay(t.FlipQueue, surface, clipWidth, clipHeight, 0); status != vdpau.StatusOK {
		return vastatus.Native("VdpPresentationQueueDisplay", status)
	}
	return nil
}

// Advance moves the ring cursor to the next slot.
func (m *Manager) Advance(t *Target) {
	t.Cursor = (t.Cursor + 1) % len(t.Ring)
}

// DestroyAll tears down every live output target.
func (m *Manager) DestroyAll(ctx context.Context) int {
	count := 0
	m.heap.Range(func(_ handle.ID, t *Target) bool {
		m.destroy(ctx, t)
		count++
		return true
	})
	return count
}

func (m *Manager) Len() int {
	return m.heap.Len()
}
