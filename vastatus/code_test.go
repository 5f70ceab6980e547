package vastatus

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rexxster/vdpau-driver/vdpau"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "nil", err: nil, want: Success},
		{name: "unsupported type", err: ErrUnsupportedBufferType{}, want: ErrorUnsupportedBufferType},
		{name: "allocation", err: fmt.Errorf("heap: %w", ErrAllocationFailed{}), want: ErrorAllocationFailed},
		{name: "invalid buffer", err: ErrInvalidBuffer{}, want: ErrorInvalidBuffer},
		{name: "invalid surface", err: ErrInvalidSurface{}, want: ErrorInvalidSurface},
		{name: "invalid context", err: ErrInvalidContext{}, want: ErrorInvalidContext},
		{name: "range", err: ErrRange{Requested: 2, Max: 1}, want: ErrorUnknown},
		{name: "parameter", err: ErrInvalidParameter{}, want: ErrorInvalidParameter},
		{name: "flags", err: ErrFlagNotSupported{Flags: 1}, want: ErrorFlagNotSupported},
		{name: "unknown", err: ErrUnknown{Reason: "no data"}, want: ErrorUnknown},
		{name: "native resources", err: Native("create", vdpau.StatusResources), want: ErrorAllocationFailed},
		{name: "native unimplemented", err: Native("create", vdpau.StatusNoImplementation), want: ErrorUnimplemented},
		{name: "native chroma", err: Native("create", vdpau.StatusInvalidChromaType), want: ErrorUnsupportedRTFormat},
		{name: "native profile", err: Native("create", vdpau.StatusInvalidDecoderProfile), want: ErrorUnsupportedProfile},
		{name: "native other", err: Native("display", vdpau.StatusInvalidHandle), want: ErrorUnknown},
		{name: "bare vdpau status", err: vdpau.StatusResources.Err(), want: ErrorAllocationFailed},
		{name: "foreign", err: errors.New("boom"), want: ErrorUnknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, FromError(tt.err))
		})
	}
}

func TestFlagNotSupportedIsParameterError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("put surface: %w", ErrFlagNotSupported{Flags: 4})
	require.ErrorIs(t, err, ErrInvalidParameter{})
	require.ErrorIs(t, err, ErrFlagNotSupported{})
	require.NotErrorIs(t, ErrInvalidParameter{}, ErrFlagNotSupported{})
}

func TestNativeWrapsStatus(t *testing.T) {
	t.Parallel()

	require.NoError(t, Native("display", vdpau.StatusOK))

	err := fmt.Errorf("present: %w", Native("display", vdpau.StatusDisplayPreempted))
	require.ErrorIs(t, err, ErrNativeLayer{})

	status, ok := NativeStatus(err)
	require.True(t, ok)
	require.Equal(t, vdpau.StatusDisplayPreempted, status)

	var statusErr vdpau.ErrStatus
	require.ErrorAs(t, err, &statusErr)
}
