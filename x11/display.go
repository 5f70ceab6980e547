// display.go defines the windowing collaborator of the presentation pipeline.

// Package x11 answers the only windowing questions the driver asks: the
// physical resolution of the screen and the current size of a drawable.
package x11

import (
	"fmt"

	"github.com/rexxster/vdpau-driver/vdpau"
)

type Size struct {
	Width  uint32
	Height uint32
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Display is read-only and external to the driver core.
type Display interface {
	// DisplaySize returns the physical resolution of the default screen.
	DisplaySize() Size

	// DrawableSize returns the current pixel size of the drawable.
	DrawableSize(drawable vdpau.Drawable) (Size, error)
}

// ErrUnknownDrawable is returned when a drawable cannot be queried.
type ErrUnknownDrawable struct {
	Drawable vdpau.Drawable
}

func (e ErrUnknownDrawable) Error() string {
	return fmt.Sprintf("unable to query the geometry of drawable 0x%x", uint64(e.Drawable))
}
