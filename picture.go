// picture.go implements the picture submission cycle:
// BeginPicture, RenderPicture, EndPicture.

package vdpaudriver

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt"
	"github.com/rexxster/vdpau-driver/buffer"
	"github.com/rexxster/vdpau-driver/handle"
	"github.com/rexxster/vdpau-driver/logger"
	"github.com/rexxster/vdpau-driver/vastatus"
	"github.com/rexxster/vdpau-driver/vdpau"
	"github.com/xaionaro-go/xsync"
)

// Picture describes the picture being decoded.
type Picture struct {
	Context ContextID
	Config  ConfigID
	Width   uint32
	Height  uint32
	Surface SurfaceID
	Target  vdpau.VideoSurface
}

// PictureDecoder turns the buffers of a picture into native decode calls.
//
// It is called with the driver lock held and must not call the Driver.
// The buffers passed to DecodeBuffer are destroyed after EndPicture
// returns; the decoder must not retain them.
type PictureDecoder interface {
	BeginPicture(ctx context.Context, pic Picture) error
	DecodeBuffer(ctx context.Context, pic Picture, buf *buffer.Object) error
	EndPicture(ctx context.Context, pic Picture) error
}

func (d *Driver) pictureLocked(
	contextID ContextID,
	surfaceID SurfaceID,
) (*Context, *Surface, Picture, error) {
	c, ok := d.contexts.Lookup(contextID)
	if !ok {
		return nil, nil, Picture{}, fmt.Errorf("context %#x: %w", contextID, vastatus.ErrInvalidContext{})
	}
	s, ok := d.surfaces.Lookup(surfaceID)
	if !ok {
		return nil, nil, Picture{}, fmt.Errorf("render target %#x: %w", surfaceID, vastatus.ErrInvalidSurface{})
	}
	return c, s, Picture{
		Context: c.ID,
		Config:  c.ConfigID,
		Width:   c.Width,
		Height:  c.Height,
		Surface: s.ID,
		Target:  s.VideoSurface,
	}, nil
}

// BeginPicture starts decoding a picture into the surface.
func (d *Driver) BeginPicture(
	ctx context.Context,
	contextID ContextID,
	surfaceID SurfaceID,
) error {
	return xsync.DoA3R1(ctx, &d.locker, d.beginPictureLocked, ctx, contextID, surfaceID)
}

func (d *Driver) beginPictureLocked(
	ctx context.Context,
	contextID ContextID,
	surfaceID SurfaceID,
) (_err error) {
	ctx = belt.WithField(ctx, "context_id", contextID)
	logger.Tracef(ctx, "BeginPicture(%#x)", surfaceID)
	defer func() { logger.Tracef(ctx, "/BeginPicture(%#x): %v", surfaceID, _err) }()

	c, s, pic, err := d.pictureLocked(contextID, surfaceID)
	if err != nil {
		return err
	}

	if d.Decoder != nil {
		if err := d.Decoder.BeginPicture(ctx, pic); err != nil {
			return fmt.Errorf("unable to begin the picture: %w", err)
		}
	}
	c.CurrentRenderTarget = surfaceID
	s.Status = SurfaceStatusRendering
	return nil
}

// RenderPicture passes the buffers to the decoder and schedules them for
// destruction at EndPicture.
func (d *Driver) RenderPicture(
	ctx context.Context,
	contextID ContextID,
	bufferIDs ...BufferID,
) error {
	return xsync.DoA3R1(ctx, &d.locker, d.renderPictureLocked, ctx, contextID, bufferIDs)
}

func (d *Driver) renderPictureLocked(
	ctx context.Context,
	contextID ContextID,
	bufferIDs []BufferID,
) (_err error) {
	ctx = belt.WithField(ctx, "context_id", contextID)
	logger.Tracef(ctx, "RenderPicture(%v)", bufferIDs)
	defer func() { logger.Tracef(ctx, "/RenderPicture(%v): %v", bufferIDs, _err) }()

	c, ok := d.contexts.Lookup(contextID)
	if !ok {
		return fmt.Errorf("context %#x: %w", contextID, vastatus.ErrInvalidContext{})
	}
	_, _, pic, err := d.pictureLocked(contextID, c.CurrentRenderTarget)
	if err != nil {
		return err
	}

	buffers := make([]*buffer.Object, 0, len(bufferIDs))
	for _, id := range bufferIDs {
		obj, ok := d.buffers.Lookup(id)
		if !ok {
			return fmt.Errorf("buffer %#x: %w", id, vastatus.ErrInvalidBuffer{})
		}
		buffers = append(buffers, obj)
	}

	for _, obj := range buffers {
		if d.Decoder != nil {
			if err := d.Decoder.DecodeBuffer(ctx, pic, obj); err != nil {
				return fmt.Errorf("unable to decode %s buffer %#x: %w", obj.Type, obj.ID, err)
			}
		}
		d.buffers.ScheduleDestroy(ctx, obj.ID)
		d.stats.BuffersRendered.Inc()
	}
	return nil
}

// EndPicture submits the picture and destroys the buffers rendered into it.
func (d *Driver) EndPicture(
	ctx context.Context,
	contextID ContextID,
) error {
	return xsync.DoA2R1(ctx, &d.locker, d.endPictureLocked, ctx, contextID)
}

func (d *Driver) endPictureLocked(
	ctx context.Context,
	contextID ContextID,
) (_err error) {
	ctx = belt.WithField(ctx, "context_id", contextID)
	logger.Tracef(ctx, "EndPicture")
	defer func() { logger.Tracef(ctx, "/EndPicture: %v", _err) }()

	c, ok := d.contexts.Lookup(contextID)
	if !ok {
		return fmt.Errorf("context %#x: %w", contextID, vastatus.ErrInvalidContext{})
	}
	_, s, pic, err := d.pictureLocked(contextID, c.CurrentRenderTarget)
	if err != nil {
		return err
	}

	var decodeErr error
	if d.Decoder != nil {
		decodeErr = d.Decoder.EndPicture(ctx, pic)
	}

	// the native decode call has returned, nothing references the buffers anymore
	c.DeadBuffers.Flush(ctx, d.buffers.Destroy)
	c.CurrentRenderTarget = handle.Invalid
	s.Status = SurfaceStatusReady

	if decodeErr != nil {
		return fmt.Errorf("unable to end the picture: %w", decodeErr)
	}
	d.stats.PicturesDecoded.Inc()
	return nil
}
