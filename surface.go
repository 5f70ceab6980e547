// surface.go implements the decoded surfaces: the render targets of
// decoding and the sources of presentation.

package vdpaudriver

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt"
	"github.com/rexxster/vdpau-driver/handle"
	"github.com/rexxster/vdpau-driver/internal"
	"github.com/rexxster/vdpau-driver/logger"
	"github.com/rexxster/vdpau-driver/vastatus"
	"github.com/rexxster/vdpau-driver/vdpau"
	"github.com/xaionaro-go/xsync"
)

// SurfaceStatus is VASurfaceStatus.
type SurfaceStatus uint32

const (
	SurfaceStatusRendering  = SurfaceStatus(1)
	SurfaceStatusDisplaying = SurfaceStatus(2)
	SurfaceStatusReady      = SurfaceStatus(4)
	SurfaceStatusSkipped    = SurfaceStatus(8)
)

func (s SurfaceStatus) String() string {
	switch s {
	case SurfaceStatusRendering:
		return "rendering"
	case SurfaceStatusDisplaying:
		return "displaying"
	case SurfaceStatusReady:
		return "ready"
	case SurfaceStatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("<unexpected_%d>", uint32(s))
	}
}

// Surface is the record of a decoded surface.
type Surface struct {
	ID SurfaceID

	// Context is the context the surface is a render target of, or
	// handle.Invalid.
	Context ContextID

	Width  uint32
	Height uint32

	VideoSurface vdpau.VideoSurface
	Status       SurfaceStatus

	// OutputSurface is the ring slot the surface was last presented with,
	// or vdpau.InvalidHandle.
	OutputSurface vdpau.OutputSurface
}

// CreateSurfaces creates count 4:2:0 surfaces of the given size. Either
// all of them are created or none.
func (d *Driver) CreateSurfaces(
	ctx context.Context,
	width uint32,
	height uint32,
	count int,
) ([]SurfaceID, error) {
	return xsync.DoR2(ctx, &d.locker, func() ([]SurfaceID, error) {
		return d.createSurfacesLocked(ctx, width, height, count)
	})
}

func (d *Driver) createSurfacesLocked(
	ctx context.Context,
	width uint32,
	height uint32,
	count int,
) (_ret []SurfaceID, _err error) {
	logger.Debugf(ctx, "CreateSurfaces(%dx%d, %d)", width, height, count)
	defer func() { logger.Debugf(ctx, "/CreateSurfaces: %v %v", _ret, _err) }()

	if count <= 0 || width == 0 || height == 0 {
		return nil, fmt.Errorf("unable to create %d surfaces of %dx%d: %w", count, width, height, vastatus.ErrInvalidParameter{})
	}

	ids := make([]SurfaceID, 0, count)
	rollback := func() {
		for _, id := range ids {
			s, ok := d.surfaces.Lookup(id)
			internal.Assert(ctx, ok, id)
			d.destroySurfaceLocked(ctx, s)
		}
	}

	for idx := 0; idx < count; idx++ {
		id, s, err := d.surfaces.Allocate()
		if err != nil {
			rollback()
			return nil, fmt.Errorf("unable to allocate surface #%d: %w: %w", idx, vastatus.ErrAllocationFailed{}, err)
		}
		*s = Surface{
			ID:            id,
			Context:       handle.Invalid,
			Width:         width,
			Height:        height,
			VideoSurface:  vdpau.InvalidHandle,
			Status:        SurfaceStatusReady,
			OutputSurface: vdpau.InvalidHandle,
		}
		ids = append(ids, id)

		videoSurface, status := d.Device.VideoSurfaceCreate(vdpau.ChromaType420, width, height)
		if status != vdpau.StatusOK {
			rollback()
			return nil, fmt.Errorf("unable to create video surface #%d: %w", idx, vastatus.Native("VdpVideoSurfaceCreate", status))
		}
		s.VideoSurface = videoSurface
	}
	return ids, nil
}

// DestroySurfaces destroys the surfaces. Nothing is destroyed if any of the
// IDs does not resolve.
func (d *Driver) DestroySurfaces(
	ctx context.Context,
	ids ...SurfaceID,
) error {
	return xsync.DoA2R1(ctx, &d.locker, d.destroySurfacesLocked, ctx, ids)
}

func (d *Driver) destroySurfacesLocked(
	ctx context.Context,
	ids []SurfaceID,
) (_err error) {
	logger.Debugf(ctx, "DestroySurfaces(%v)", ids)
	defer func() { logger.Debugf(ctx, "/DestroySurfaces: %v", _err) }()

	surfaces := make([]*Surface, 0, len(ids))
	for _, id := range ids {
		s, ok := d.surfaces.Lookup(id)
		if !ok {
			return fmt.Errorf("surface %#x: %w", id, vastatus.ErrInvalidSurface{})
		}
		surfaces = append(surfaces, s)
	}
	for _, s := range surfaces {
		d.destroySurfaceLocked(ctx, s)
	}
	return nil
}

func (d *Driver) destroySurfaceLocked(ctx context.Context, s *Surface) {
	id := s.ID
	ctx = belt.WithField(ctx, "surface_id", id)
	if s.VideoSurface.IsValid() {
		if status := d.Device.VideoSurfaceDestroy(s.VideoSurface); status != vdpau.StatusOK {
			logger.Warnf(ctx, "unable to destroy video surface %s: %s", s.VideoSurface, d.Device.GetErrorString(status))
		}
	}
	freed := d.surfaces.Free(id)
	internal.Assert(ctx, freed, id)
}

// SyncSurface waits until the surface may be reused as a render target.
// Decoding is synchronous, so only a displayed surface may block: until the
// ring slot it was presented with is idle.
func (d *Driver) SyncSurface(
	ctx context.Context,
	id SurfaceID,
) error {
	return xsync.DoA2R1(ctx, &d.locker, d.syncSurfaceLocked, ctx, id)
}

func (d *Driver) syncSurfaceLocked(
	ctx context.Context,
	id SurfaceID,
) (_err error) {
	ctx = belt.WithField(ctx, "surface_id", id)
	logger.Tracef(ctx, "SyncSurface")
	defer func() { logger.Tracef(ctx, "/SyncSurface: %v", _err) }()

	s, ok := d.surfaces.Lookup(id)
	if !ok {
		return fmt.Errorf("surface %#x: %w", id, vastatus.ErrInvalidSurface{})
	}
	if s.Status != SurfaceStatusDisplaying {
		return nil
	}

	if queue, ok := d.flipQueueOfLocked(s); ok && s.OutputSurface.IsValid() {
		if _, status := d.Device.PresentationQueueBlockUntilSurfaceIdle(queue, s.OutputSurface); status != vdpau.StatusOK {
			return fmt.Errorf("unable to wait for output surface %s: %w", s.OutputSurface, vastatus.Native("VdpPresentationQueueBlockUntilSurfaceIdle", status))
		}
	}
	s.Status = SurfaceStatusReady
	s.OutputSurface = vdpau.InvalidHandle
	return nil
}

func (d *Driver) flipQueueOfLocked(s *Surface) (vdpau.PresentationQueue, bool) {
	c, ok := d.contexts.Lookup(s.Context)
	if !ok {
		return vdpau.InvalidHandle, false
	}
	t, ok := d.outputs.Lookup(c.OutputTarget)
	if !ok || !t.HasFlipQueue() {
		return vdpau.InvalidHandle, false
	}
	return t.FlipQueue, true
}

// QuerySurfaceStatus reports the status of the surface.
func (d *Driver) QuerySurfaceStatus(
	ctx context.Context,
	id SurfaceID,
) (SurfaceStatus, error) {
	return xsync.DoR2(ctx, &d.locker, func() (SurfaceStatus, error) {
		s, ok := d.surfaces.Lookup(id)
		if !ok {
			return 0, fmt.Errorf("surface %#x: %w", id, vastatus.ErrInvalidSurface{})
		}
		return s.Status, nil
	})
}

// Surface returns a copy of the record of the surface.
func (d *Driver) Surface(
	ctx context.Context,
	id SurfaceID,
) (Surface, bool) {
	return xsync.DoR2(ctx, &d.locker, func() (Surface, bool) {
		s, ok := d.surfaces.Lookup(id)
		if !ok {
			return Surface{}, false
		}
		return *s, true
	})
}
