// errors.go defines the API-level error kinds returned by the driver.

package vastatus

import (
	"errors"
	"fmt"

	"github.com/rexxster/vdpau-driver/vdpau"
)

type ErrUnsupportedBufferType struct {
	Type fmt.Stringer
}

func (e ErrUnsupportedBufferType) Error() string {
	if e.Type == nil {
		return "unsupported buffer type"
	}
	return fmt.Sprintf("unsupported buffer type %s", e.Type)
}

func (e ErrUnsupportedBufferType) Is(target error) bool {
	_, ok := target.(ErrUnsupportedBufferType)
	return ok
}

// ErrAllocationFailed means a handle heap is exhausted or memory (host or
// device) could not be allocated.
type ErrAllocationFailed struct{}

func (ErrAllocationFailed) Error() string {
	return "allocation failed"
}

type ErrInvalidBuffer struct{}

func (ErrInvalidBuffer) Error() string {
	return "invalid buffer"
}

type ErrInvalidSurface struct{}

func (ErrInvalidSurface) Error() string {
	return "invalid surface"
}

type ErrInvalidContext struct{}

func (ErrInvalidContext) Error() string {
	return "invalid context"
}

type ErrInvalidConfig struct{}

func (ErrInvalidConfig) Error() string {
	return "invalid config"
}

// ErrRange means an element count exceeds the buffer capacity.
type ErrRange struct {
	Requested uint32
	Max       uint32
}

func (e ErrRange) Error() string {
	return fmt.Sprintf("element count %d exceeds the capacity of %d", e.Requested, e.Max)
}

func (e ErrRange) Is(target error) bool {
	_, ok := target.(ErrRange)
	return ok
}

type ErrInvalidParameter struct{}

func (ErrInvalidParameter) Error() string {
	return "invalid parameter"
}

// ErrFlagNotSupported is a parameter error specific to unsupported flags.
type ErrFlagNotSupported struct {
	Flags uint32
}

func (e ErrFlagNotSupported) Error() string {
	return fmt.Sprintf("flags 0x%x are not supported", e.Flags)
}

func (e ErrFlagNotSupported) Is(target error) bool {
	switch target.(type) {
	case ErrFlagNotSupported, ErrInvalidParameter:
		return true
	}
	return false
}

// ErrUnknown reports a broken internal-consistency expectation.
type ErrUnknown struct {
	Reason string
}

func (e ErrUnknown) Error() string {
	if e.Reason == "" {
		return "unknown error"
	}
	return "unknown error: " + e.Reason
}

func (e ErrUnknown) Is(target error) bool {
	_, ok := target.(ErrUnknown)
	return ok
}

// ErrNativeLayer wraps a failure surfaced verbatim by a VDPAU entry point.
type ErrNativeLayer struct {
	Op     string
	Status vdpau.Status
}

func (e ErrNativeLayer) Error() string {
	return fmt.Sprintf("%s: VDPAU status %s", e.Op, e.Status)
}

func (e ErrNativeLayer) Is(target error) bool {
	_, ok := target.(ErrNativeLayer)
	return ok
}

func (e ErrNativeLayer) Unwrap() error {
	return vdpau.ErrStatus{Status: e.Status}
}

// Native converts the status of the native call op into an error, or nil
// on StatusOK.
func Native(op string, status vdpau.Status) error {
	if status == vdpau.StatusOK {
		return nil
	}
	return ErrNativeLayer{Op: op, Status: status}
}

// NativeStatus extracts the VDPAU status carried by err, if any.
func NativeStatus(err error) (vdpau.Status, bool) {
	var native ErrNativeLayer
	if errors.As(err, &native) {
		return native.Status, true
	}
	var status vdpau.ErrStatus
	if errors.As(err, &status) {
		return status.Status, true
	}
	return vdpau.StatusOK, false
}
