// types.go defines the VA-level identifiers and parameters of the driver.

package vdpaudriver

import (
	"fmt"

	"github.com/rexxster/vdpau-driver/handle"
	"github.com/rexxster/vdpau-driver/vdpau"
)

type (
	ConfigID  = handle.ID
	ContextID = handle.ID
	SurfaceID = handle.ID
	BufferID  = handle.ID
)

// Rectangle is VARectangle.
type Rectangle struct {
	X      int16
	Y      int16
	Width  uint16
	Height uint16
}

func (r Rectangle) String() string {
	return fmt.Sprintf("%dx%d%+d%+d", r.Width, r.Height, r.X, r.Y)
}

func (r Rectangle) toVDPAU() vdpau.Rect {
	return vdpau.RectFromXYWH(r.X, r.Y, r.Width, r.Height)
}

// PutSurfaceFlags are the VA_* flags of vaPutSurface. Only a zero value
// (a whole frame) is supported.
type PutSurfaceFlags uint32

const (
	PutSurfaceFlagTopField      = PutSurfaceFlags(0x00000001)
	PutSurfaceFlagBottomField   = PutSurfaceFlags(0x00000002)
	PutSurfaceFlagClearDrawable = PutSurfaceFlags(0x00000008)
)
