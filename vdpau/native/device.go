//go:build linux

// device.go implements vdpau.Device on top of libvdpau loaded through purego.

// Package native talks to the VDPAU implementation of the system.
//
// libvdpau.so.1 is loaded at runtime (no cgo). vdp_device_create_x11 is the
// only exported symbol used; every other entry point is resolved through
// VdpGetProcAddress and bound with purego.RegisterFunc.
package native

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/rexxster/vdpau-driver/logger"
	"github.com/rexxster/vdpau-driver/vdpau"
)

var (
	libVDPAUOnce    sync.Once
	libVDPAUHandle  uintptr
	libVDPAUInitErr error

	vdpDeviceCreateX11 func(display uintptr, screen int32, device uintptr, getProcAddress uintptr) uint32
)

func loadLibVDPAU() error {
	libVDPAUOnce.Do(func() {
		libVDPAUInitErr = loadLibVDPAULib()
	})
	return libVDPAUInitErr
}

func libVDPAUPaths() []string {
	var paths []string
	if envPath := os.Getenv("VDPAU_DRIVER_LIBVDPAU_PATH"); envPath != "" {
		paths = append(paths, envPath)
	}
	return append(paths,
		"libvdpau.so.1",
		"libvdpau.so",
		"/usr/lib/x86_64-linux-gnu/libvdpau.so.1",
		"/usr/lib/aarch64-linux-gnu/libvdpau.so.1",
		"/usr/lib64/libvdpau.so.1",
		"/usr/lib/libvdpau.so.1",
	)
}

func loadLibVDPAULib() error {
	var lastErr error
	for _, path := range libVDPAUPaths() {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		if _, err := purego.Dlsym(handle, "vdp_device_create_x11"); err != nil {
			purego.Dlclose(handle)
			lastErr = err
			continue
		}
		libVDPAUHandle = handle
		purego.RegisterLibFunc(&vdpDeviceCreateX11, handle, "vdp_device_create_x11")
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to load libvdpau: %w", lastErr)
	}
	return errors.New("libvdpau not found in any standard location")
}

// IsAvailable reports whether libvdpau can be loaded.
func IsAvailable() bool {
	return loadLibVDPAU() == nil
}

// deviceCreateResult holds the out-parameters of vdp_device_create_x11 and
// VdpGetProcAddress; heap allocated for the same reason as all purego
// out-parameters.
type deviceCreateResult struct {
	Device         uint32
	GetProcAddress uintptr
}

type procAddressResult struct {
	Func uintptr
}

type handleResult struct {
	Handle uint32
}

type timeResult struct {
	Time uint64
}

// Device is a VDPAU device bound to an X11 screen.
type Device struct {
	device uint32

	getProcAddress  func(device uint32, id uint32, fn uintptr) uint32
	getErrorString  func(status uint32) uintptr
	deviceDestroy   func(device uint32) uint32
	videoSurfCreate func(device uint32, chroma uint32, width, height uint32, surface uintptr) uint32
	videoSurfDestr  func(surface uint32) uint32
	outSurfCreate   func(device uint32, format uint32, width, height uint32, surface uintptr) uint32
	outSurfDestroy  func(surface uint32) uint32
	mixerCreate     func(device uint32, featureCount uint32, features uintptr, paramCount uint32, params uintptr, paramValues uintptr, mixer uintptr) uint32
	mixerDestroy    func(mixer uint32) uint32
	mixerRender     func(
		mixer uint32,
		backgroundSurface uint32,
		backgroundSourceRect uintptr,
		pictureStructure uint32,
		pastCount uint32,
		past uintptr,
		current uint32,
		futureCount uint32,
		future uintptr,
		videoSourceRect uintptr,
		destinationSurface uint32,
		destinationRect uintptr,
		destinationVideoRect uintptr,
		layerCount uint32,
		layers uintptr,
	) uint32
	targetCreateX11 func(device uint32, drawable uint64, target uintptr) uint32
	targetDestroy   func(target uint32) uint32
	queueCreate     func(device uint32, target uint32, queue uintptr) uint32
	queueDestroy    func(queue uint32) uint32
	queueDisplay    func(queue uint32, surface uint32, clipWidth, clipHeight uint32, earliest uint64) uint32
	queueBlockIdle  func(queue uint32, surface uint32, firstPresentationTime uintptr) uint32
}

var _ vdpau.Device = (*Device)(nil)

// NewDeviceX11 creates a VDPAU device on the given `Display *` and screen.
func NewDeviceX11(
	ctx context.Context,
	display uintptr,
	screen int,
) (_ret *Device, _err error) {
	logger.Debugf(ctx, "NewDeviceX11(%#x, %d)", display, screen)
	defer func() { logger.Debugf(ctx, "/NewDeviceX11: %v", _err) }()

	if err := loadLibVDPAU(); err != nil {
		return nil, err
	}

	result := new(deviceCreateResult)
	status := vdpau.Status(vdpDeviceCreateX11(
		display,
		int32(screen),
		uintptr(unsafe.Pointer(&result.Device)),
		uintptr(unsafe.Pointer(&result.GetProcAddress)),
	))
	if status != vdpau.StatusOK {
		return nil, fmt.Errorf("vdp_device_create_x11: %w", status.Err())
	}
	if result.GetProcAddress == 0 {
		return nil, errors.New("vdp_device_create_x11 returned no VdpGetProcAddress")
	}

	d := &Device{device: result.Device}
	purego.RegisterFunc(&d.getProcAddress, result.GetProcAddress)

	bindings := []struct {
		id  funcID
		ptr any
	}{
		{funcIDGetErrorString, &d.getErrorString},
		{funcIDDeviceDestroy, &d.deviceDestroy},
		{funcIDVideoSurfaceCreate, &d.videoSurfCreate},
		{funcIDVideoSurfaceDestroy, &d.videoSurfDestr},
		{funcIDOutputSurfaceCreate, &d.outSurfCreate},
		{funcIDOutputSurfaceDestroy, &d.outSurfDestroy},
		{funcIDVideoMixerCreate, &d.mixerCreate},
		{funcIDVideoMixerDestroy, &d.mixerDestroy},
		{funcIDVideoMixerRender, &d.mixerRender},
		{funcIDPresentationQueueTargetCreateX11, &d.targetCreateX11},
		{funcIDPresentationQueueTargetDestroy, &d.targetDestroy},
		{funcIDPresentationQueueCreate, &d.queueCreate},
		{funcIDPresentationQueueDestroy, &d.queueDestroy},
		{funcIDPresentationQueueDisplay, &d.queueDisplay},
		{funcIDPresentationQueueBlockUntilSurfaceIdle, &d.queueBlockIdle},
	}
	for _, b := range bindings {
		fn, err := d.procAddress(b.id)
		if err != nil {
			if d.deviceDestroy != nil {
				d.deviceDestroy(d.device)
			}
			return nil, err
		}
		purego.RegisterFunc(b.ptr, fn)
	}

	return d, nil
}

func (d *Device) procAddress(id funcID) (uintptr, error) {
	result := new(procAddressResult)
	status := vdpau.Status(d.getProcAddress(d.device, uint32(id), uintptr(unsafe.Pointer(&result.Func))))
	if status != vdpau.StatusOK {
		return 0, fmt.Errorf("VdpGetProcAddress(%d): %w", id, status.Err())
	}
	if result.Func == 0 {
		return 0, fmt.Errorf("VdpGetProcAddress(%d) returned NULL", id)
	}
	return result.Func, nil
}

// Close destroys the VDPAU device.
func (d *Device) Close() error {
	if d.deviceDestroy == nil {
		return nil
	}
	status := vdpau.Status(d.deviceDestroy(d.device))
	d.deviceDestroy = nil
	return status.Err()
}

func (d *Device) GetErrorString(status vdpau.Status) string {
	return goStringFromPtr(d.getErrorString(uint32(status)))
}

func (d *Device) VideoSurfaceCreate(chroma vdpau.ChromaType, width, height uint32) (vdpau.VideoSurface, vdpau.Status) {
	result := &handleResult{Handle: uint32(vdpau.InvalidHandle)}
	status := vdpau.Status(d.videoSurfCreate(d.device, uint32(chroma), width, height, uintptr(unsafe.Pointer(&result.Handle))))
	return vdpau.VideoSurface(result.Handle), status
}

func (d *Device) VideoSurfaceDestroy(surface vdpau.VideoSurface) vdpau.Status {
	return vdpau.Status(d.videoSurfDestr(uint32(surface)))
}

func (d *Device) OutputSurfaceCreate(format vdpau.RGBAFormat, width, height uint32) (vdpau.OutputSurface, vdpau.Status) {
	result := &handleResult{Handle: uint32(vdpau.InvalidHandle)}
	status := vdpau.Status(d.outSurfCreate(d.device, uint32(format), width, height, uintptr(unsafe.Pointer(&result.Handle))))
	return vdpau.OutputSurface(result.Handle), status
}

func (d *Device) OutputSurfaceDestroy(surface vdpau.OutputSurface) vdpau.Status {
	return vdpau.Status(d.outSurfDestroy(uint32(surface)))
}

// mixerCreateArgs keeps the parameter arrays of VdpVideoMixerCreate on the heap.
type mixerCreateArgs struct {
	Params [3]uint32
	Width  uint32
	Height uint32
	Chroma uint32
	Values [3]uintptr
	Mixer  uint32
}

func (d *Device) VideoMixerCreate(width, height uint32, chroma vdpau.ChromaType) (vdpau.VideoMixer, vdpau.Status) {
	args := &mixerCreateArgs{
		Params: [3]uint32{
			videoMixerParameterVideoSurfaceWidth,
			videoMixerParameterVideoSurfaceHeight,
			videoMixerParameterChromaType,
		},
		Width:  width,
		Height: height,
		Chroma: uint32(chroma),
		Mixer:  uint32(vdpau.InvalidHandle),
	}
	args.Values = [3]uintptr{
		uintptr(unsafe.Pointer(&args.Width)),
		uintptr(unsafe.Pointer(&args.Height)),
		uintptr(unsafe.Pointer(&args.Chroma)),
	}
	status := vdpau.Status(d.mixerCreate(
		d.device,
		0, 0,
		uint32(len(args.Params)),
		uintptr(unsafe.Pointer(&args.Params[0])),
		uintptr(unsafe.Pointer(&args.Values[0])),
		uintptr(unsafe.Pointer(&args.Mixer)),
	))
	mixer := vdpau.VideoMixer(args.Mixer)
	runtime.KeepAlive(args)
	return mixer, status
}

func (d *Device) VideoMixerDestroy(mixer vdpau.VideoMixer) vdpau.Status {
	return vdpau.Status(d.mixerDestroy(uint32(mixer)))
}

func rectPtr(r *vdpau.Rect) (*vdpau.Rect, uintptr) {
	if r == nil {
		return nil, 0
	}
	heapCopy := new(vdpau.Rect)
	*heapCopy = *r
	return heapCopy, uintptr(unsafe.Pointer(heapCopy))
}

func (d *Device) VideoMixerRender(params vdpau.VideoMixerRenderParams) vdpau.Status {
	srcRect, srcPtr := rectPtr(params.VideoSourceRect)
	dstRect, dstPtr := rectPtr(params.DestinationRect)
	dstVideoRect, dstVideoPtr := rectPtr(params.DestinationVideoRect)
	status := vdpau.Status(d.mixerRender(
		uint32(params.Mixer),
		uint32(params.BackgroundSurface),
		0,
		uint32(params.PictureStructure),
		0, 0,
		uint32(params.Current),
		0, 0,
		srcPtr,
		uint32(params.Destination),
		dstPtr,
		dstVideoPtr,
		0, 0,
	))
	runtime.KeepAlive(srcRect)
	runtime.KeepAlive(dstRect)
	runtime.KeepAlive(dstVideoRect)
	return status
}

func (d *Device) PresentationQueueTargetCreateX11(drawable vdpau.Drawable) (vdpau.PresentationQueueTarget, vdpau.Status) {
	result := &handleResult{Handle: uint32(vdpau.InvalidHandle)}
	status := vdpau.Status(d.targetCreateX11(d.device, uint64(drawable), uintptr(unsafe.Pointer(&result.Handle))))
	return vdpau.PresentationQueueTarget(result.Handle), status
}

func (d *Device) PresentationQueueTargetDestroy(target vdpau.PresentationQueueTarget) vdpau.Status {
	return vdpau.Status(d.targetDestroy(uint32(target)))
}

func (d *Device) PresentationQueueCreate(target vdpau.PresentationQueueTarget) (vdpau.PresentationQueue, vdpau.Status) {
	result := &handleResult{Handle: uint32(vdpau.InvalidHandle)}
	status := vdpau.Status(d.queueCreate(d.device, uint32(target), uintptr(unsafe.Pointer(&result.Handle))))
	return vdpau.PresentationQueue(result.Handle), status
}

func (d *Device) PresentationQueueDestroy(queue vdpau.PresentationQueue) vdpau.Status {
	return vdpau.Status(d.queueDestroy(uint32(queue)))
}

func (d *Device) PresentationQueueBlockUntilSurfaceIdle(
	queue vdpau.PresentationQueue,
	surface vdpau.OutputSurface,
) (vdpau.Time, vdpau.Status) {
	result := new(timeResult)
	status := vdpau.Status(d.queueBlockIdle(uint32(queue), uint32(surface), uintptr(unsafe.Pointer(&result.Time))))
	return vdpau.Time(result.Time), status
}

func (d *Device) PresentationQueueDisplay(
	queue vdpau.PresentationQueue,
	surface vdpau.OutputSurface,
	clipWidth, clipHeight uint32,
	earliest vdpau.Time,
) vdpau.Status {
	return vdpau.Status(d.queueDisplay(uint32(queue), uint32(surface), clipWidth, clipHeight, uint64(earliest)))
}
