//go:build linux

// xlib_purego.go binds the few libX11 entry points the driver needs using purego.

package x11

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/rexxster/vdpau-driver/vdpau"
)

var (
	libX11Once    sync.Once
	libX11Handle  uintptr
	libX11InitErr error
)

// libX11 function pointers
var (
	xOpenDisplay   func(name string) uintptr
	xCloseDisplay  func(display uintptr) int32
	xDefaultScreen func(display uintptr) int32
	xDisplayWidth  func(display uintptr, screen int32) int32
	xDisplayHeight func(display uintptr, screen int32) int32
	xGetGeometry   func(display uintptr, drawable uint64, root, x, y, width, height, border, depth uintptr) int32
)

// xGeometryResult holds the out-parameters of XGetGeometry. It is heap
// allocated: purego out-pointers into a moving goroutine stack are unsafe.
type xGeometryResult struct {
	Root   uint64
	X, Y   int32
	Width  uint32
	Height uint32
	Border uint32
	Depth  uint32
}

func loadLibX11() error {
	libX11Once.Do(func() {
		libX11InitErr = loadLibX11Lib()
	})
	return libX11InitErr
}

func libX11Paths() []string {
	var paths []string
	if envPath := os.Getenv("VDPAU_DRIVER_LIBX11_PATH"); envPath != "" {
		paths = append(paths, envPath)
	}
	return append(paths,
		"libX11.so.6",
		"libX11.so",
		"/usr/lib/x86_64-linux-gnu/libX11.so.6",
		"/usr/lib/aarch64-linux-gnu/libX11.so.6",
		"/usr/lib64/libX11.so.6",
		"/usr/lib/libX11.so.6",
	)
}

func loadLibX11Lib() error {
	var lastErr error
	for _, path := range libX11Paths() {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		libX11Handle = handle
		purego.RegisterLibFunc(&xOpenDisplay, handle, "XOpenDisplay")
		purego.RegisterLibFunc(&xCloseDisplay, handle, "XCloseDisplay")
		purego.RegisterLibFunc(&xDefaultScreen, handle, "XDefaultScreen")
		purego.RegisterLibFunc(&xDisplayWidth, handle, "XDisplayWidth")
		purego.RegisterLibFunc(&xDisplayHeight, handle, "XDisplayHeight")
		purego.RegisterLibFunc(&xGetGeometry, handle, "XGetGeometry")
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to load libX11: %w", lastErr)
	}
	return errors.New("libX11 not found in any standard location")
}

// IsXlibAvailable reports whether libX11 can be loaded.
func IsXlibAvailable() bool {
	return loadLibX11() == nil
}

// Xlib is a Display backed by a libX11 connection. It is not safe for
// concurrent use.
type Xlib struct {
	display uintptr
	screen  int32
	owned   bool
}

var _ Display = (*Xlib)(nil)

// OpenXlib connects to the X server; an empty name means $DISPLAY.
func OpenXlib(name string) (*Xlib, error) {
	if err := loadLibX11(); err != nil {
		return nil, err
	}
	display := xOpenDisplay(name)
	if display == 0 {
		return nil, fmt.Errorf("unable to open X display '%s'", name)
	}
	return &Xlib{
		display: display,
		screen:  xDefaultScreen(display),
		owned:   true,
	}, nil
}

// WrapXlib uses an already open `Display *` owned by the caller.
func WrapXlib(display unsafe.Pointer, screen int) (*Xlib, error) {
	if err := loadLibX11(); err != nil {
		return nil, err
	}
	if display == nil {
		return nil, errors.New("display is nil")
	}
	return &Xlib{
		display: uintptr(display),
		screen:  int32(screen),
	}, nil
}

// Pointer returns the `Display *` of the connection.
func (x *Xlib) Pointer() uintptr {
	return x.display
}

func (x *Xlib) Screen() int {
	return int(x.screen)
}

func (x *Xlib) DisplaySize() Size {
	return Size{
		Width:  uint32(xDisplayWidth(x.display, x.screen)),
		Height: uint32(xDisplayHeight(x.display, x.screen)),
	}
}

func (x *Xlib) DrawableSize(drawable vdpau.Drawable) (Size, error) {
	result := new(xGeometryResult)
	ok := xGetGeometry(
		x.display,
		uint64(drawable),
		uintptr(unsafe.Pointer(&result.Root)),
		uintptr(unsafe.Pointer(&result.X)),
		uintptr(unsafe.Pointer(&result.Y)),
		uintptr(unsafe.Pointer(&result.Width)),
		uintptr(unsafe.Pointer(&result.Height)),
		uintptr(unsafe.Pointer(&result.Border)),
		uintptr(unsafe.Pointer(&result.Depth)),
	)
	if ok == 0 {
		return Size{}, ErrUnknownDrawable{Drawable: drawable}
	}
	return Size{Width: result.Width, Height: result.Height}, nil
}

// Close closes the connection if it was opened by OpenXlib.
func (x *Xlib) Close() error {
	if x.display == 0 || !x.owned {
		return nil
	}
	xCloseDisplay(x.display)
	x.display = 0
	return nil
}
