// static.go implements a Display with a fixed screen and settable drawables.

package x11

import (
	"sync"

	"github.com/rexxster/vdpau-driver/vdpau"
)

// Static is a Display whose geometry is set by the caller. Drawables not
// explicitly sized report DefaultDrawableSize if it is non-zero.
type Static struct {
	Screen              Size
	DefaultDrawableSize Size

	locker    sync.Mutex
	drawables map[vdpau.Drawable]Size
	queries   int
}

var _ Display = (*Static)(nil)

func NewStatic(screen Size) *Static {
	return &Static{
		Screen:    screen,
		drawables: map[vdpau.Drawable]Size{},
	}
}

func (d *Static) SetDrawableSize(drawable vdpau.Drawable, size Size) {
	d.locker.Lock()
	defer d.locker.Unlock()
	d.drawables[drawable] = size
}

func (d *Static) DisplaySize() Size {
	return d.Screen
}

func (d *Static) DrawableSize(drawable vdpau.Drawable) (Size, error) {
	d.locker.Lock()
	defer d.locker.Unlock()
	d.queries++
	if size, ok := d.drawables[drawable]; ok {
		return size, nil
	}
	if d.DefaultDrawableSize != (Size{}) {
		return d.DefaultDrawableSize, nil
	}
	return Size{}, ErrUnknownDrawable{Drawable: drawable}
}

// Queries returns how many times DrawableSize was called.
func (d *Static) Queries() int {
	d.locker.Lock()
	defer d.locker.Unlock()
	return d.queries
}
