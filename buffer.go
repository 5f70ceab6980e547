// buffer.go exposes the buffer objects through the Driver.

package vdpaudriver

import (
	"context"
	"fmt"

	"github.com/rexxster/vdpau-driver/buffer"
	"github.com/xaionaro-go/xsync"
)

// CreateBuffer creates a buffer of numElements elements of elementSize
// bytes for the context, initialized from data if it is not nil.
//
// The context is only referenced: it is resolved when the buffer is
// scheduled for destruction and is not required to exist at creation.
func (d *Driver) CreateBuffer(
	ctx context.Context,
	contextID ContextID,
	bufType buffer.Type,
	elementSize uint32,
	numElements uint32,
	data []byte,
) (BufferID, error) {
	return xsync.DoR2(ctx, &d.locker, func() (BufferID, error) {
		return d.buffers.Create(ctx, contextID, bufType, elementSize, numElements, data)
	})
}

// DestroyBuffer destroys the buffer immediately. Unknown IDs are ignored.
func (d *Driver) DestroyBuffer(
	ctx context.Context,
	id BufferID,
) error {
	d.locker.Do(ctx, func() {
		d.buffers.Destroy(ctx, id)
	})
	return nil
}

func (d *Driver) BufferSetNumElements(
	ctx context.Context,
	id BufferID,
	numElements uint32,
) error {
	err := xsync.DoA3R1(ctx, &d.locker, d.buffers.SetNumElements, ctx, id, numElements)
	if err != nil {
		return fmt.Errorf("buffer %#x: %w", id, err)
	}
	return nil
}

// MapBuffer returns the whole backing memory of the buffer without copying.
// The slice is valid until the buffer is destroyed; writes through it are
// seen by the decoder.
func (d *Driver) MapBuffer(
	ctx context.Context,
	id BufferID,
) ([]byte, error) {
	data, err := xsync.DoA2R2(ctx, &d.locker, d.buffers.Map, ctx, id)
	if err != nil {
		return nil, fmt.Errorf("buffer %#x: %w", id, err)
	}
	return data, nil
}

func (d *Driver) UnmapBuffer(
	ctx context.Context,
	id BufferID,
) error {
	err := xsync.DoA2R1(ctx, &d.locker, d.buffers.Unmap, ctx, id)
	if err != nil {
		return fmt.Errorf("buffer %#x: %w", id, err)
	}
	return nil
}

// Buffer returns a copy of the record of the buffer; Data is shared.
func (d *Driver) Buffer(
	ctx context.Context,
	id BufferID,
) (buffer.Object, bool) {
	return xsync.DoR2(ctx, &d.locker, func() (buffer.Object, bool) {
		obj, ok := d.buffers.Lookup(id)
		if !ok {
			return buffer.Object{}, false
		}
		return *obj, true
	})
}
