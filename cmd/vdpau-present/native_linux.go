//go:build linux

package main

import (
	"context"
	"fmt"

	"github.com/rexxster/vdpau-driver/vdpau/native"
	"github.com/rexxster/vdpau-driver/x11"
)

func newNativeBackend(ctx context.Context) (*backend, error) {
	xlib, err := x11.OpenXlib("")
	if err != nil {
		return nil, fmt.Errorf("unable to open the X11 display: %w", err)
	}
	device, err := native.NewDeviceX11(ctx, xlib.Pointer(), xlib.Screen())
	if err != nil {
		_ = xlib.Close()
		return nil, fmt.Errorf("unable to create the VDPAU device: %w", err)
	}
	return &backend{
		Device:  device,
		Display: xlib,
		closers: []func() error{xlib.Close, device.Close},
	}, nil
}
