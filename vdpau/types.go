// types.go defines the VDPAU object handles and plain data types.

// Package vdpau describes the subset of the VDPAU API the driver relies on.
//
// The driver never talks to libvdpau directly: it consumes the Device
// interface, which is implemented by package native (libvdpau loaded at
// runtime) and by package fakedevice (in-memory, for tests).
package vdpau

import (
	"fmt"
)

// Handle is a VDPAU object handle (VdpDevice, VdpOutputSurface, ...).
type Handle uint32

// InvalidHandle is VDP_INVALID_HANDLE.
const InvalidHandle = Handle(0xffffffff)

func (h Handle) IsValid() bool {
	return h != InvalidHandle
}

func (h Handle) String() string {
	if h == InvalidHandle {
		return "<invalid>"
	}
	return fmt.Sprintf("0x%x", uint32(h))
}

type (
	OutputSurface           = Handle
	VideoSurface            = Handle
	VideoMixer              = Handle
	PresentationQueue       = Handle
	PresentationQueueTarget = Handle
)

// Drawable is an X11 drawable XID.
type Drawable uint64

// Time is VdpTime, nanoseconds of the presentation queue clock.
type Time uint64

// Rect is VdpRect; (X1, Y1) is exclusive.
type Rect struct {
	X0, Y0, X1, Y1 uint32
}

// RectFromXYWH builds the rectangle the way vaPutSurface arguments map on it.
func RectFromXYWH(x, y int16, w, h uint16) Rect {
	return Rect{
		X0: uint32(x),
		Y0: uint32(y),
		X1: uint32(int32(x) + int32(w)),
		Y1: uint32(int32(y) + int32(h)),
	}
}

func (r Rect) Width() uint32 {
	return r.X1 - r.X0
}

func (r Rect) Height() uint32 {
	return r.Y1 - r.Y0
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X0, r.Y0, r.X1, r.Y1)
}

// RGBAFormat is VdpRGBAFormat.
type RGBAFormat uint32

const (
	RGBAFormatB8G8R8A8 = RGBAFormat(iota)
	RGBAFormatR8G8B8A8
	RGBAFormatR10G10B10A2
	RGBAFormatB10G10R10A2
	RGBAFormatA8
)

// ChromaType is VdpChromaType.
type ChromaType uint32

const (
	ChromaType420 = ChromaType(iota)
	ChromaType422
	ChromaType444
)

// PictureStructure is VdpVideoMixerPictureStructure.
type PictureStructure uint32

const (
	PictureStructureTopField = PictureStructure(iota)
	PictureStructureBottomField
	PictureStructureFrame
)

func (s PictureStructure) String() string {
	switch s {
	case PictureStructureTopField:
		return "top_field"
	case PictureStructureBottomField:
		return "bottom_field"
	case PictureStructureFrame:
		return "frame"
	default:
		return fmt.Sprintf("<unexpected_%d>", uint32(s))
	}
}

// VideoMixerRenderParams carries the arguments of VdpVideoMixerRender that
// the presentation pipeline sets. Past/future reference fields and layers
// are never used (no deinterlacing).
type VideoMixerRenderParams struct {
	Mixer                VideoMixer
	BackgroundSurface    OutputSurface
	PictureStructure     PictureStructure
	Current              VideoSurface
	VideoSourceRect      *Rect
	Destination          OutputSurface
	DestinationRect      *Rect
	DestinationVideoRect *Rect
}
