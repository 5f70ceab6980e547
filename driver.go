// driver.go implements the Driver: the owner of every VA object heap.

// Package vdpaudriver implements the resource manager of a VA-API driver on
// top of VDPAU: handle-backed buffers with deferred destruction, decode
// contexts, decoded surfaces and the multi-buffered presentation of decoded
// frames onto X11 drawables.
package vdpaudriver

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt"
	"github.com/go-ng/xatomic"
	"github.com/rexxster/vdpau-driver/buffer"
	"github.com/rexxster/vdpau-driver/deadlist"
	"github.com/rexxster/vdpau-driver/handle"
	"github.com/rexxster/vdpau-driver/logger"
	"github.com/rexxster/vdpau-driver/output"
	"github.com/rexxster/vdpau-driver/pool"
	"github.com/rexxster/vdpau-driver/vdpau"
	"github.com/rexxster/vdpau-driver/x11"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"
)

type Driver struct {
	Config  Config
	Device  vdpau.Device
	Display x11.Display
	Decoder PictureDecoder

	locker   xsync.Mutex
	contexts *handle.Heap[Context]
	surfaces *handle.Heap[Surface]
	buffers  *buffer.Manager
	outputs  *output.Manager
	stats    stats

	onFrameDisplayed *FrameDisplayedFunc
}

// NewDriver returns a Driver over the given native device and display.
// decoder may be nil, then picture data is accepted and dropped.
func NewDriver(
	ctx context.Context,
	device vdpau.Device,
	display x11.Display,
	decoder PictureDecoder,
	cfg Config,
) (_ret *Driver, _err error) {
	logger.Debugf(ctx, "NewDriver(%s)", cfg)
	defer func() { logger.Debugf(ctx, "/NewDriver: %v", _err) }()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if device == nil {
		return nil, fmt.Errorf("no VDPAU device")
	}
	if display == nil {
		return nil, fmt.Errorf("no display")
	}

	d := &Driver{
		Config:   cfg,
		Device:   device,
		Display:  display,
		Decoder:  decoder,
		contexts: handle.NewHeap[Context](handle.OffsetContext, cfg.MaxContexts),
		surfaces: handle.NewHeap[Surface](handle.OffsetSurface, cfg.MaxSurfaces),
		outputs: output.NewManager(output.ManagerParams{
			Capacity: cfg.MaxOutputTargets,
			RingSize: cfg.MaxOutputSurfaces,
			Format:   vdpau.RGBAFormatB8G8R8A8,
		}, device, display),
	}
	bufferParams := buffer.ManagerParams{
		Capacity: cfg.MaxBuffers,
		MaxSize:  cfg.MaxBufferSize,
	}
	if cfg.ReuseBufferMemory {
		memory := pool.NewBytes()
		bufferParams.Allocate = memory.Get
		bufferParams.Release = memory.Put
	}
	d.buffers = buffer.NewManager(bufferParams, contextResolver{d})
	return d, nil
}

// contextResolver gives the buffer manager access to the dead-lists without
// exposing DeadBuffers on the Driver. It is only called under Driver.locker.
type contextResolver struct {
	*Driver
}

func (r contextResolver) DeadBuffers(contextID ContextID) (*deadlist.List, bool) {
	c, ok := r.contexts.Lookup(contextID)
	if !ok {
		return nil, false
	}
	return &c.DeadBuffers, true
}

// Terminate destroys every object of the driver: contexts (with their
// output targets and mixers), then surfaces, then the buffers and output
// targets left. It is not interrupted by a cancellation of ctx.
func (d *Driver) Terminate(ctx context.Context) {
	ctx = xcontext.DetachDone(ctx)
	logger.Debugf(ctx, "Terminate")
	defer func() { logger.Debugf(ctx, "/Terminate") }()
	d.locker.Do(ctx, func() {
		d.terminateLocked(ctx)
	})
}

func (d *Driver) terminateLocked(ctx context.Context) {
	var contexts, surfaces int
	d.contexts.Range(func(id ContextID, _ *Context) bool {
		d.destroyContextLocked(ctx, id)
		contexts++
		return true
	})
	d.surfaces.Range(func(_ SurfaceID, s *Surface) bool {
		d.destroySurfaceLocked(ctx, s)
		surfaces++
		return true
	})
	buffers := d.buffers.DestroyAll(ctx)
	outputs := d.outputs.DestroyAll(ctx)
	logger.Debugf(ctx, "terminated: contexts:%d surfaces:%d buffers:%d outputs:%d", contexts, surfaces, buffers, outputs)
}

// SetOnFrameDisplayed installs the callback invoked after every
// successfully presented frame; nil removes it. The callback runs outside
// of the driver lock and may call the Driver.
func (d *Driver) SetOnFrameDisplayed(fn FrameDisplayedFunc) {
	if fn == nil {
		xatomic.StorePointer(&d.onFrameDisplayed, nil)
		return
	}
	xatomic.StorePointer(&d.onFrameDisplayed, &fn)
}

func (d *Driver) notifyFrameDisplayed(ctx context.Context, frame FrameDisplayed) {
	fn := xatomic.LoadPointer(&d.onFrameDisplayed)
	if fn == nil {
		return
	}
	(*fn)(belt.WithField(ctx, "surface_id", frame.Surface), frame)
}
