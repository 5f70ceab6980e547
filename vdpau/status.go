// status.go defines VdpStatus and its error form.

package vdpau

import (
	"fmt"
)

// Status is VdpStatus.
type Status uint32

const (
	StatusOK = Status(iota)
	StatusNoImplementation
	StatusDisplayPreempted
	StatusInvalidHandle
	StatusInvalidPointer
	StatusInvalidChromaType
	StatusInvalidYCbCrFormat
	StatusInvalidRGBAFormat
	StatusInvalidIndexedFormat
	StatusInvalidColorStandard
	StatusInvalidColorTableFormat
	StatusInvalidBlendFactor
	StatusInvalidBlendEquation
	StatusInvalidFlag
	StatusInvalidDecoderProfile
	StatusInvalidVideoMixerFeature
	StatusInvalidVideoMixerParameter
	StatusInvalidVideoMixerAttribute
	StatusInvalidVideoMixerPictureStructure
	StatusInvalidFuncID
	StatusInvalidSize
	StatusInvalidValue
	StatusInvalidStructVersion
	StatusResources
	StatusHandleDeviceMismatch
	StatusError
)

var statusNames = [...]string{
	StatusOK:                                "OK",
	StatusNoImplementation:                  "NO_IMPLEMENTATION",
	StatusDisplayPreempted:                  "DISPLAY_PREEMPTED",
	StatusInvalidHandle:                     "INVALID_HANDLE",
	StatusInvalidPointer:                    "INVALID_POINTER",
	StatusInvalidChromaType:                 "INVALID_CHROMA_TYPE",
	StatusInvalidYCbCrFormat:                "INVALID_Y_CB_CR_FORMAT",
	StatusInvalidRGBAFormat:                 "INVALID_RGBA_FORMAT",
	StatusInvalidIndexedFormat:              "INVALID_INDEXED_FORMAT",
	StatusInvalidColorStandard:              "INVALID_COLOR_STANDARD",
	StatusInvalidColorTableFormat:           "INVALID_COLOR_TABLE_FORMAT",
	StatusInvalidBlendFactor:                "INVALID_BLEND_FACTOR",
	StatusInvalidBlendEquation:              "INVALID_BLEND_EQUATION",
	StatusInvalidFlag:                       "INVALID_FLAG",
	StatusInvalidDecoderProfile:             "INVALID_DECODER_PROFILE",
	StatusInvalidVideoMixerFeature:          "INVALID_VIDEO_MIXER_FEATURE",
	StatusInvalidVideoMixerParameter:        "INVALID_VIDEO_MIXER_PARAMETER",
	StatusInvalidVideoMixerAttribute:        "INVALID_VIDEO_MIXER_ATTRIBUTE",
	StatusInvalidVideoMixerPictureStructure: "INVALID_VIDEO_MIXER_PICTURE_STRUCTURE",
	StatusInvalidFuncID:                     "INVALID_FUNC_ID",
	StatusInvalidSize:                       "INVALID_SIZE",
	StatusInvalidValue:                      "INVALID_VALUE",
	StatusInvalidStructVersion:              "INVALID_STRUCT_VERSION",
	StatusResources:                         "RESOURCES",
	StatusHandleDeviceMismatch:              "HANDLE_DEVICE_MISMATCH",
	StatusError:                             "ERROR",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("<unexpected_%d>", uint32(s))
}

// Err returns nil for StatusOK and an ErrStatus otherwise.
func (s Status) Err() error {
	if s == StatusOK {
		return nil
	}
	return ErrStatus{Status: s}
}

// ErrStatus is a non-OK VdpStatus returned by a native call.
type ErrStatus struct {
	Status Status
}

func (e ErrStatus) Error() string {
	return fmt.Sprintf("VDPAU status %s (%d)", e.Status, uint32(e.Status))
}
