// code.go translates driver errors into numeric VA status codes.

// Package vastatus is the error taxonomy of the driver and its translation
// to VAStatus values at the VA API boundary.
package vastatus

import (
	"errors"
	"fmt"

	"github.com/rexxster/vdpau-driver/vdpau"
)

// Code is VAStatus.
type Code uint32

const (
	Success                     = Code(0x00000000)
	ErrorOperationFailed        = Code(0x00000001)
	ErrorAllocationFailed       = Code(0x00000002)
	ErrorInvalidDisplay         = Code(0x00000003)
	ErrorInvalidConfig          = Code(0x00000004)
	ErrorInvalidContext         = Code(0x00000005)
	ErrorInvalidSurface         = Code(0x00000006)
	ErrorInvalidBuffer          = Code(0x00000007)
	ErrorInvalidImage           = Code(0x00000008)
	ErrorInvalidSubpicture      = Code(0x00000009)
	ErrorAttrNotSupported       = Code(0x0000000a)
	ErrorMaxNumExceeded         = Code(0x0000000b)
	ErrorUnsupportedProfile     = Code(0x0000000c)
	ErrorUnsupportedEntrypoint  = Code(0x0000000d)
	ErrorUnsupportedRTFormat    = Code(0x0000000e)
	ErrorUnsupportedBufferType  = Code(0x0000000f)
	ErrorSurfaceBusy            = Code(0x00000010)
	ErrorFlagNotSupported       = Code(0x00000011)
	ErrorInvalidParameter       = Code(0x00000012)
	ErrorResolutionNotSupported = Code(0x00000013)
	ErrorUnimplemented          = Code(0x00000014)
	ErrorSurfaceInDisplaying    = Code(0x00000015)
	ErrorUnknown                = Code(0xffffffff)
)

func (c Code) String() string {
	switch c {
	case Success:
		return "success"
	case ErrorOperationFailed:
		return "operation_failed"
	case ErrorAllocationFailed:
		return "allocation_failed"
	case ErrorInvalidDisplay:
		return "invalid_display"
	case ErrorInvalidConfig:
		return "invalid_config"
	case ErrorInvalidContext:
		return "invalid_context"
	case ErrorInvalidSurface:
		return "invalid_surface"
	case ErrorInvalidBuffer:
		return "invalid_buffer"
	case ErrorInvalidImage:
		return "invalid_image"
	case ErrorInvalidSubpicture:
		return "invalid_subpicture"
	case ErrorAttrNotSupported:
		return "attr_not_supported"
	case ErrorMaxNumExceeded:
		return "max_num_exceeded"
	case ErrorUnsupportedProfile:
		return "unsupported_profile"
	case ErrorUnsupportedEntrypoint:
		return "unsupported_entrypoint"
	case ErrorUnsupportedRTFormat:
		return "unsupported_rt_format"
	case ErrorUnsupportedBufferType:
		return "unsupported_buffertype"
	case ErrorSurfaceBusy:
		return "surface_busy"
	case ErrorFlagNotSupported:
		return "flag_not_supported"
	case ErrorInvalidParameter:
		return "invalid_parameter"
	case ErrorResolutionNotSupported:
		return "resolution_not_supported"
	case ErrorUnimplemented:
		return "unimplemented"
	case ErrorSurfaceInDisplaying:
		return "surface_in_displaying"
	case ErrorUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("<unexpected_0x%x>", uint32(c))
	}
}

// FromNative translates a VDPAU status into the closest VA status.
func FromNative(status vdpau.Status) Code {
	switch status {
	case vdpau.StatusOK:
		return Success
	case vdpau.StatusNoImplementation:
		return ErrorUnimplemented
	case vdpau.StatusInvalidChromaType:
		return ErrorUnsupportedRTFormat
	case vdpau.StatusInvalidDecoderProfile:
		return ErrorUnsupportedProfile
	case vdpau.StatusResources:
		return ErrorAllocationFailed
	default:
		return ErrorUnknown
	}
}

// FromError translates an error returned by the driver into a VA status.
// Errors that carry no driver kind map to ErrorUnknown.
func FromError(err error) Code {
	if err == nil {
		return Success
	}

	// ErrFlagNotSupported also matches ErrInvalidParameter, so it goes first.
	switch {
	case errors.Is(err, ErrFlagNotSupported{}):
		return ErrorFlagNotSupported
	case errors.Is(err, ErrInvalidParameter{}):
		return ErrorInvalidParameter
	case errors.Is(err, ErrUnsupportedBufferType{}):
		return ErrorUnsupportedBufferType
	case errors.Is(err, ErrAllocationFailed{}):
		return ErrorAllocationFailed
	case errors.Is(err, ErrInvalidBuffer{}):
		return ErrorInvalidBuffer
	case errors.Is(err, ErrInvalidSurface{}):
		return ErrorInvalidSurface
	case errors.Is(err, ErrInvalidContext{}):
		return ErrorInvalidContext
	case errors.Is(err, ErrInvalidConfig{}):
		return ErrorInvalidConfig
	case errors.Is(err, ErrRange{}):
		return ErrorUnknown
	case errors.Is(err, ErrUnknown{}):
		return ErrorUnknown
	}

	if status, ok := NativeStatus(err); ok {
		return FromNative(status)
	}
	return ErrorUnknown
}
