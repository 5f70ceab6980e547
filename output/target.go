// target.go defines the output target: a ring of presentation surfaces
// bound to one drawable.

package output

import (
	"github.com/rexxster/vdpau-driver/handle"
	"github.com/rexxster/vdpau-driver/vdpau"
	"github.com/xaionaro-go/typing"
)

// Target is the record of an output target.
//
// FlipQueue and FlipTarget are either both valid or both invalid, Cursor is
// always below len(Ring) and every ring entry is either a live native
// surface or vdpau.InvalidHandle.
type Target struct {
	ID handle.ID

	// Drawable is unset until the first presentation.
	Drawable typing.Optional[vdpau.Drawable]

	// Width and Height are the last observed drawable geometry.
	Width  uint32
	Height uint32

	// SurfaceWidth and SurfaceHeight are the allocation size of every ring
	// slot, fixed at creation.
	SurfaceWidth  uint32
	SurfaceHeight uint32

	Ring   []vdpau.OutputSurface
	Cursor int

	FlipQueue  vdpau.PresentationQueue
	FlipTarget vdpau.PresentationQueueTarget
}

// IsBoundTo reports whether the flip queue presents to the drawable.
func (t *Target) IsBoundTo(drawable vdpau.Drawable) bool {
	return t.Drawable.IsSet() && t.Drawable.Get() == drawable
}

// HasFlipQueue reports whether the flip queue and its target exist.
func (t *Target) HasFlipQueue() bool {
	return t.FlipQueue.IsValid() && t.FlipTarget.IsValid()
}

// Current returns the ring slot the next frame goes to.
func (t *Target) Current() vdpau.OutputSurface {
	return t.Ring[t.Cursor]
}

// ClipSize is the part of a ring slot shown on a drawable of the given size.
func (t *Target) ClipSize(drawableWidth, drawableHeight uint32) (uint32, uint32) {
	return min(t.SurfaceWidth, drawableWidth), min(t.SurfaceHeight, drawableHeight)
}
