// context.go implements the decode contexts.

package vdpaudriver

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt"
	"github.com/rexxster/vdpau-driver/deadlist"
	"github.com/rexxster/vdpau-driver/handle"
	"github.com/rexxster/vdpau-driver/internal"
	"github.com/rexxster/vdpau-driver/logger"
	"github.com/rexxster/vdpau-driver/vastatus"
	"github.com/rexxster/vdpau-driver/vdpau"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"
)

// Context is the record of a decode context.
type Context struct {
	ID       ContextID
	ConfigID ConfigID

	Width  uint32
	Height uint32

	RenderTargets []SurfaceID

	// OutputTarget is the output target frames decoded within the context
	// are presented with.
	OutputTarget handle.ID

	VideoMixer vdpau.VideoMixer

	// DeadBuffers are the buffers rendered into the current picture; they
	// are destroyed once the picture is submitted.
	DeadBuffers deadlist.List

	// CurrentRenderTarget is set between BeginPicture and EndPicture.
	CurrentRenderTarget SurfaceID
}

// CreateContext creates a decode context rendering into renderTargets. The
// config is negotiated by the caller and is only recorded.
func (d *Driver) CreateContext(
	ctx context.Context,
	configID ConfigID,
	width uint32,
	height uint32,
	renderTargets ...SurfaceID,
) (ContextID, error) {
	return xsync.DoR2(ctx, &d.locker, func() (ContextID, error) {
		return d.createContextLocked(ctx, configID, width, height, renderTargets)
	})
}

func (d *Driver) createContextLocked(
	ctx context.Context,
	configID ConfigID,
	width uint32,
	height uint32,
	renderTargets []SurfaceID,
) (_ret ContextID, _err error) {
	logger.Debugf(ctx, "CreateContext(%#x, %dx%d, %v)", configID, width, height, renderTargets)
	defer func() { logger.Debugf(ctx, "/CreateContext: %#x %v", _ret, _err) }()

	if width == 0 || height == 0 {
		return handle.Invalid, fmt.Errorf("picture size %dx%d: %w", width, height, vastatus.ErrInvalidParameter{})
	}
	for _, surfaceID := range renderTargets {
		if _, ok := d.surfaces.Lookup(surfaceID); !ok {
			return handle.Invalid, fmt.Errorf("render target %#x: %w", surfaceID, vastatus.ErrInvalidSurface{})
		}
	}

	id, c, err := d.contexts.Allocate()
	if err != nil {
		return handle.Invalid, fmt.Errorf("unable to allocate a context handle: %w: %w", vastatus.ErrAllocationFailed{}, err)
	}
	ctx = belt.WithField(ctx, "context_id", id)
	*c = Context{
		ID:                  id,
		ConfigID:            configID,
		Width:               width,
		Height:              height,
		RenderTargets:       append([]SurfaceID(nil), renderTargets...),
		OutputTarget:        handle.Invalid,
		VideoMixer:          vdpau.InvalidHandle,
		CurrentRenderTarget: handle.Invalid,
	}

	mixer, status := d.Device.VideoMixerCreate(width, height, vdpau.ChromaType420)
	if status != vdpau.StatusOK {
		d.destroyContextLocked(ctx, id)
		return handle.Invalid, fmt.Errorf("unable to create the video mixer: %w", vastatus.Native("VdpVideoMixerCreate", status))
	}
	c.VideoMixer = mixer

	outputID, err := d.outputs.Create(ctx, width, height)
	if err != nil {
		d.destroyContextLocked(ctx, id)
		return handle.Invalid, fmt.Errorf("unable to create the output target: %w", err)
	}
	c.OutputTarget = outputID

	for _, surfaceID := range c.RenderTargets {
		s, _ := d.surfaces.Lookup(surfaceID)
		s.Context = id
	}
	return id, nil
}

// DestroyContext submits the pending destruction of the buffers of the
// context and destroys the context with its output target and video mixer.
// It is not interrupted by a cancellation of ctx.
func (d *Driver) DestroyContext(
	ctx context.Context,
	id ContextID,
) error {
	ctx = xcontext.DetachDone(ctx)
	return xsync.DoA2R1(ctx, &d.locker, d.destroyContextLockedChecked, ctx, id)
}

func (d *Driver) destroyContextLockedChecked(
	ctx context.Context,
	id ContextID,
) error {
	if _, ok := d.contexts.Lookup(id); !ok {
		return fmt.Errorf("context %#x: %w", id, vastatus.ErrInvalidContext{})
	}
	d.destroyContextLocked(ctx, id)
	return nil
}

func (d *Driver) destroyContextLocked(
	ctx context.Context,
	id ContextID,
) {
	ctx = belt.WithField(ctx, "context_id", id)
	logger.Debugf(ctx, "DestroyContext")
	defer func() { logger.Debugf(ctx, "/DestroyContext") }()

	c, ok := d.contexts.Lookup(id)
	internal.Assert(ctx, ok, id)

	if n := c.DeadBuffers.Flush(ctx, d.buffers.Destroy); n > 0 {
		logger.Debugf(ctx, "destroyed %d pending buffers", n)
	}

	d.outputs.Destroy(ctx, c.OutputTarget)
	c.OutputTarget = handle.Invalid

	if c.VideoMixer.IsValid() {
		if status := d.Device.VideoMixerDestroy(c.VideoMixer); status != vdpau.StatusOK {
			logger.Warnf(ctx, "unable to destroy video mixer %s: %s", c.VideoMixer, d.Device.GetErrorString(status))
		}
		c.VideoMixer = vdpau.InvalidHandle
	}

	for _, surfaceID := range c.RenderTargets {
		s, ok := d.surfaces.Lookup(surfaceID)
		if !ok || s.Context != id {
			continue
		}
		// the ring slots are gone together with the output target
		s.Context = handle.Invalid
		s.Status = SurfaceStatusReady
		s.OutputSurface = vdpau.InvalidHandle
	}

	freed := d.contexts.Free(id)
	internal.Assert(ctx, freed, id)
}

// Context returns a copy of the record of the context.
func (d *Driver) Context(
	ctx context.Context,
	id ContextID,
) (Context, bool) {
	return xsync.DoR2(ctx, &d.locker, func() (Context, bool) {
		c, ok := d.contexts.Lookup(id)
		if !ok {
			return Context{}, false
		}
		result := *c
		result.RenderTargets = append([]SurfaceID(nil), c.RenderTargets...)
		return result, true
	})
}
