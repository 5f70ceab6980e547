// fake_device.go implements an in-memory vdpau.Device that records every call.

// Package fakedevice provides a vdpau.Device without any GPU behind it.
//
// Every native object is a counter-issued handle (never reused), every call
// is appended to the call log, and failures are injected through FailFn.
package fakedevice

import (
	"fmt"
	"sync"

	"github.com/rexxster/vdpau-driver/vdpau"
)

type Op string

const (
	OpVideoSurfaceCreate    = Op("VideoSurfaceCreate")
	OpVideoSurfaceDestroy   = Op("VideoSurfaceDestroy")
	OpOutputSurfaceCreate   = Op("OutputSurfaceCreate")
	OpOutputSurfaceDestroy  = Op("OutputSurfaceDestroy")
	OpVideoMixerCreate      = Op("VideoMixerCreate")
	OpVideoMixerDestroy     = Op("VideoMixerDestroy")
	OpVideoMixerRender      = Op("VideoMixerRender")
	OpTargetCreate          = Op("PresentationQueueTargetCreateX11")
	OpTargetDestroy         = Op("PresentationQueueTargetDestroy")
	OpQueueCreate           = Op("PresentationQueueCreate")
	OpQueueDestroy          = Op("PresentationQueueDestroy")
	OpBlockUntilSurfaceIdle = Op("PresentationQueueBlockUntilSurfaceIdle")
	OpDisplay               = Op("PresentationQueueDisplay")
)

type Kind int

const (
	KindVideoSurface = Kind(iota)
	KindOutputSurface
	KindVideoMixer
	KindTarget
	KindQueue
)

func (k Kind) String() string {
	switch k {
	case KindVideoSurface:
		return "video_surface"
	case KindOutputSurface:
		return "output_surface"
	case KindVideoMixer:
		return "video_mixer"
	case KindTarget:
		return "presentation_queue_target"
	case KindQueue:
		return "presentation_queue"
	default:
		return fmt.Sprintf("<unexpected_%d>", int(k))
	}
}

// Call is one recorded native call.
type Call struct {
	Op Op

	// Handle is the object created by or acted upon by the call.
	Handle vdpau.Handle

	// Peer is the secondary object: the target of a queue, the destination
	// of a render, the surface of a queue operation.
	Peer vdpau.Handle

	Width, Height uint32
	Drawable      vdpau.Drawable
	Render        *vdpau.VideoMixerRenderParams
	Status        vdpau.Status
}

type Device struct {
	// FailFn, if set, is consulted before a call takes effect; a non-OK
	// status makes the call fail without side effects.
	FailFn func(call Call) vdpau.Status

	// BlockFn, if set, replaces the idle wait of
	// PresentationQueueBlockUntilSurfaceIdle. It runs without the device lock.
	BlockFn func(queue vdpau.PresentationQueue, surface vdpau.OutputSurface) (vdpau.Time, vdpau.Status)

	locker     sync.Mutex
	nextHandle vdpau.Handle
	live       map[vdpau.Handle]Kind
	queued     map[vdpau.OutputSurface]bool
	targets    map[vdpau.PresentationQueueTarget]vdpau.Drawable
	calls      []Call
	now        vdpau.Time
}

var _ vdpau.Device = (*Device)(nil)

func New() *Device {
	return &Device{
		nextHandle: 1,
		live:       map[vdpau.Handle]Kind{},
		queued:     map[vdpau.OutputSurface]bool{},
		targets:    map[vdpau.PresentationQueueTarget]vdpau.Drawable{},
	}
}

func (d *Device) record(call Call) vdpau.Status {
	if d.FailFn != nil {
		call.Status = d.FailFn(call)
	}
	d.calls = append(d.calls, call)
	return call.Status
}

func (d *Device) create(kind Kind, call Call) (vdpau.Handle, vdpau.Status) {
	d.locker.Lock()
	defer d.locker.Unlock()

	if status := d.record(call); status != vdpau.StatusOK {
		return vdpau.InvalidHandle, status
	}
	h := d.nextHandle
	d.nextHandle++
	d.live[h] = kind
	d.calls[len(d.calls)-1].Handle = h
	return h, vdpau.StatusOK
}

func (d *Device) destroy(kind Kind, call Call) vdpau.Status {
	d.locker.Lock()
	defer d.locker.Unlock()

	if got, ok := d.live[call.Handle]; !ok || got != kind {
		call.Status = vdpau.StatusInvalidHandle
		d.calls = append(d.calls, call)
		return call.Status
	}
	if status := d.record(call); status != vdpau.StatusOK {
		return status
	}
	delete(d.live, call.Handle)
	delete(d.queued, call.Handle)
	delete(d.targets, call.Handle)
	return vdpau.StatusOK
}

func (d *Device) isLive(h vdpau.Handle, kind Kind) bool {
	got, ok := d.live[h]
	return ok && got == kind
}

func (d *Device) GetErrorString(status vdpau.Status) string {
	return status.String()
}

func (d *Device) VideoSurfaceCreate(chroma vdpau.ChromaType, width, height uint32) (vdpau.VideoSurface, vdpau.Status) {
	return d.create(KindVideoSurface, Call{Op: OpVideoSurfaceCreate, Width: width, Height: height})
}

func (d *Device) VideoSurfaceDestroy(surface vdpau.VideoSurface) vdpau.Status {
	return d.destroy(KindVideoSurface, Call{Op: OpVideoSurfaceDestroy, Handle: surface})
}

func (d *Device) OutputSurfaceCreate(format vdpau.RGBAFormat, width, height uint32) (vdpau.OutputSurface, vdpau.Status) {
	return d.create(KindOutputSurface, Call{Op: OpOutputSurfaceCreate, Width: width, Height: height})
}

func (d *Device) OutputSurfaceDestroy(surface vdpau.OutputSurface) vdpau.Status {
	return d.destroy(KindOutputSurface, Call{Op: OpOutputSurfaceDestroy, Handle: surface})
}

func (d *Device) VideoMixerCreate(width, height uint32, chroma vdpau.ChromaType) (vdpau.VideoMixer, vdpau.Status) {
	return d.create(KindVideoMixer, Call{Op: OpVideoMixerCreate, Width: width, Height: height})
}

func (d *Device) VideoMixerDestroy(mixer vdpau.VideoMixer) vdpau.Status {
	return d.destroy(KindVideoMixer, Call{Op: OpVideoMixerDestroy, Handle: mixer})
}

func (d *Device) VideoMixerRender(params vdpau.VideoMixerRenderParams) vdpau.Status {
	d.locker.Lock()
	defer d.locker.Unlock()

	call := Call{Op: OpVideoMixerRender, Handle: params.Mixer, Peer: params.Destination, Render: &params}
	switch {
	case !d.isLive(params.Mixer, KindVideoMixer),
		!d.isLive(params.Current, KindVideoSurface),
		!d.isLive(params.Destination, KindOutputSurface):
		call.Status = vdpau.StatusInvalidHandle
		d.calls = append(d.calls, call)
		return call.Status
	}
	return d.record(call)
}

func (d *Device) PresentationQueueTargetCreateX11(drawable vdpau.Drawable) (vdpau.PresentationQueueTarget, vdpau.Status) {
	h, status := d.create(KindTarget, Call{Op: OpTargetCreate, Drawable: drawable})
	if status == vdpau.StatusOK {
		d.locker.Lock()
		d.targets[h] = drawable
		d.locker.Unlock()
	}
	return h, status
}

func (d *Device) PresentationQueueTargetDestroy(target vdpau.PresentationQueueTarget) vdpau.Status {
	return d.destroy(KindTarget, Call{Op: OpTargetDestroy, Handle: target})
}

func (d *Device) PresentationQueueCreate(target vdpau.PresentationQueueTarget) (vdpau.PresentationQueue, vdpau.Status) {
	d.locker.Lock()
	valid := d.isLive(target, KindTarget)
	d.locker.Unlock()
	if !valid {
		d.locker.Lock()
		defer d.locker.Unlock()
		call := Call{Op: OpQueueCreate, Peer: target, Status: vdpau.StatusInvalidHandle}
		d.calls = append(d.calls, call)
		return vdpau.InvalidHandle, call.Status
	}
	return d.create(KindQueue, Call{Op: OpQueueCreate, Peer: target})
}

func (d *Device) PresentationQueueDestroy(queue vdpau.PresentationQueue) vdpau.Status {
	return d.destroy(KindQueue, Call{Op: OpQueueDestroy, Handle: queue})
}

func (d *Device) PresentationQueueBlockUntilSurfaceIdle(
	queue vdpau.PresentationQueue,
	surface vdpau.OutputSurface,
) (vdpau.Time, vdpau.Status) {
	d.locker.Lock()
	call := Call{Op: OpBlockUntilSurfaceIdle, Handle: queue, Peer: surface}
	if !d.isLive(queue, KindQueue) || !d.isLive(surface, KindOutputSurface) {
		call.Status = vdpau.StatusInvalidHandle
		d.calls = append(d.calls, call)
		d.locker.Unlock()
		return 0, call.Status
	}
	status := d.record(call)
	blockFn := d.BlockFn
	d.locker.Unlock()
	if status != vdpau.StatusOK {
		return 0, status
	}

	var ts vdpau.Time
	if blockFn != nil {
		ts, status = blockFn(queue, surface)
		if status != vdpau.StatusOK {
			return 0, status
		}
	}

	d.locker.Lock()
	defer d.locker.Unlock()
	delete(d.queued, surface)
	if ts == 0 {
		ts = d.now
	}
	return ts, vdpau.StatusOK
}

func (d *Device) PresentationQueueDisplay(
	queue vdpau.PresentationQueue,
	surface vdpau.OutputSurface,
	clipWidth, clipHeight uint32,
	earliest vdpau.Time,
) vdpau.Status {
	d.locker.Lock()
	defer d.locker.Unlock()

	call := Call{Op: OpDisplay, Handle: queue, Peer: surface, Width: clipWidth, Height: clipHeight}
	if !d.isLive(queue, KindQueue) || !d.isLive(surface, KindOutputSurface) {
		call.Status = vdpau.StatusInvalidHandle
		d.calls = append(d.calls, call)
		return call.Status
	}
	if status := d.record(call); status != vdpau.StatusOK {
		return status
	}
	d.queued[surface] = true
	d.now += 16_666_667
	return vdpau.StatusOK
}

// Calls returns a copy of the call log.
func (d *Device) Calls() []Call {
	d.locker.Lock()
	defer d.locker.Unlock()
	result := make([]Call, len(d.calls))
	copy(result, d.calls)
	return result
}

// CallsOf returns the logged calls of the given operations, in order.
func (d *Device) CallsOf(ops ...Op) []Call {
	var result []Call
	for _, call := range d.Calls() {
		for _, op := range ops {
			if call.Op == op {
				result = append(result, call)
				break
			}
		}
	}
	return result
}

func (d *Device) ResetCalls() {
	d.locker.Lock()
	defer d.locker.Unlock()
	d.calls = d.calls[:0]
}

// Live returns the amount of live objects of the kind.
func (d *Device) Live(kind Kind) int {
	d.locker.Lock()
	defer d.locker.Unlock()
	count := 0
	for _, k := range d.live {
		if k == kind {
			count++
		}
	}
	return count
}

// LiveTotal returns the amount of live objects of any kind.
func (d *Device) LiveTotal() int {
	d.locker.Lock()
	defer d.locker.Unlock()
	return len(d.live)
}

func (d *Device) IsLive(h vdpau.Handle) bool {
	d.locker.Lock()
	defer d.locker.Unlock()
	_, ok := d.live[h]
	return ok
}

// IsQueued reports whether the surface was displayed and not waited idle since.
func (d *Device) IsQueued(surface vdpau.OutputSurface) bool {
	d.locker.Lock()
	defer d.locker.Unlock()
	return d.queued[surface]
}

// TargetDrawable returns the drawable a live presentation queue target is bound to.
func (d *Device) TargetDrawable(target vdpau.PresentationQueueTarget) (vdpau.Drawable, bool) {
	d.locker.Lock()
	defer d.locker.Unlock()
	drawable, ok := d.targets[target]
	return drawable, ok
}
