// put_surface.go implements the presentation of a decoded surface onto a
// drawable through the ring of output surfaces of its context.

package vdpaudriver

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/rexxster/vdpau-driver/handle"
	"github.com/rexxster/vdpau-driver/internal"
	"github.com/rexxster/vdpau-driver/logger"
	"github.com/rexxster/vdpau-driver/output"
	"github.com/rexxster/vdpau-driver/vastatus"
	"github.com/rexxster/vdpau-driver/vdpau"
	"github.com/rexxster/vdpau-driver/x11"
	"github.com/xaionaro-go/xsync"
)

// FrameDisplayed describes a frame queued for display.
type FrameDisplayed struct {
	Surface  SurfaceID
	Output   handle.ID
	Drawable vdpau.Drawable

	// Slot is the index of the ring slot used; OutputSurface is its handle.
	Slot          int
	OutputSurface vdpau.OutputSurface
}

type FrameDisplayedFunc func(ctx context.Context, frame FrameDisplayed)

// PutSurface composites the surface into the next ring slot of the output
// target of its context and queues the slot for display on the drawable.
//
// Clip rectangles and flags are not supported. The call blocks until the
// ring slot it is about to overwrite is no longer displayed.
func (d *Driver) PutSurface(
	ctx context.Context,
	surfaceID SurfaceID,
	drawable vdpau.Drawable,
	src Rectangle,
	dst Rectangle,
	clipRects []Rectangle,
	flags PutSurfaceFlags,
) (_err error) {
	ctx = belt.WithField(ctx, "surface_id", surfaceID)
	logger.Tracef(ctx, "PutSurface(0x%x, %s, %s, %d, %#x)", uint64(drawable), src, dst, len(clipRects), uint32(flags))
	defer func() { logger.Tracef(ctx, "/PutSurface: %v", _err) }()

	if len(clipRects) > 0 {
		return fmt.Errorf("%d clip rectangles: %w", len(clipRects), vastatus.ErrInvalidParameter{})
	}
	if flags != 0 {
		return vastatus.ErrFlagNotSupported{Flags: uint32(flags)}
	}

	frame, err := xsync.DoR2(ctx, &d.locker, func() (FrameDisplayed, error) {
		return d.putSurfaceLocked(ctx, surfaceID, drawable, src.toVDPAU(), dst.toVDPAU())
	})
	if err != nil {
		d.stats.PresentFailures.Inc()
		if _, ok := vastatus.NativeStatus(err); ok {
			errmon.ObserveErrorCtx(ctx, err)
		}
		return err
	}
	d.stats.FramesDisplayed.Inc()
	d.notifyFrameDisplayed(ctx, frame)
	return nil
}

func (d *Driver) putSurfaceLocked(
	ctx context.Context,
	surfaceID SurfaceID,
	drawable vdpau.Drawable,
	srcRect vdpau.Rect,
	dstRect vdpau.Rect,
) (FrameDisplayed, error) {
	size, err := d.Display.DrawableSize(drawable)
	if err != nil {
		return FrameDisplayed{}, fmt.Errorf("unable to get the geometry of drawable 0x%x: %w", uint64(drawable), err)
	}

	s, ok := d.surfaces.Lookup(surfaceID)
	if !ok {
		return FrameDisplayed{}, fmt.Errorf("surface %#x: %w", surfaceID, vastatus.ErrInvalidSurface{})
	}
	c, ok := d.contexts.Lookup(s.Context)
	if !ok {
		return FrameDisplayed{}, fmt.Errorf("context %#x of surface %#x: %w", s.Context, surfaceID, vastatus.ErrInvalidContext{})
	}
	t, ok := d.outputs.Lookup(c.OutputTarget)
	if !ok {
		return FrameDisplayed{}, fmt.Errorf("output target %#x of context %#x: %w", c.OutputTarget, c.ID, vastatus.ErrInvalidSurface{})
	}

	return d.present(ctx, s, c, t, drawable, size, srcRect, dstRect)
}

func (d *Driver) present(
	ctx context.Context,
	s *Surface,
	c *Context,
	t *output.Target,
	drawable vdpau.Drawable,
	size x11.Size,
	srcRect vdpau.Rect,
	dstRect vdpau.Rect,
) (FrameDisplayed, error) {
	s.Status = SurfaceStatusReady
	s.OutputSurface = vdpau.InvalidHandle

	if err := d.outputs.BindDrawable(ctx, t, drawable); err != nil {
		return FrameDisplayed{}, err
	}
	d.outputs.UpdateGeometry(ctx, t, size.Width, size.Height)
	internal.Assert(ctx, t.IsBoundTo(drawable) && t.HasFlipQueue(), t.ID, drawable)

	slot := t.Cursor
	outputSurface, err := d.outputs.AcquireSlot(ctx, t)
	if err != nil {
		return FrameDisplayed{}, fmt.Errorf("output slot #%d: %w", slot, err)
	}

	status := d.Device.VideoMixerRender(vdpau.VideoMixerRenderParams{
		Mixer:                c.VideoMixer,
		BackgroundSurface:    vdpau.InvalidHandle,
		PictureStructure:     vdpau.PictureStructureFrame,
		Current:              s.VideoSurface,
		VideoSourceRect:      &srcRect,
		Destination:          outputSurface,
		DestinationVideoRect: &dstRect,
	})
	if status != vdpau.StatusOK {
		return FrameDisplayed{}, fmt.Errorf("unable to render into output slot #%d: %w", slot, vastatus.Native("VdpVideoMixerRender", status))
	}

	if err := d.outputs.Display(ctx, t, outputSurface, size.Width, size.Height); err != nil {
		return FrameDisplayed{}, fmt.Errorf("output slot #%d: %w", slot, err)
	}

	s.Status = SurfaceStatusDisplaying
	s.OutputSurface = outputSurface
	d.outputs.Advance(t)

	return FrameDisplayed{
		Surface:       s.ID,
		Output:        t.ID,
		Drawable:      drawable,
		Slot:          slot,
		OutputSurface: outputSurface,
	}, nil
}
