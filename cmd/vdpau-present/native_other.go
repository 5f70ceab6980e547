//go:build !linux

package main

import (
	"context"
	"fmt"
	"runtime"
)

func newNativeBackend(ctx context.Context) (*backend, error) {
	return nil, fmt.Errorf("VDPAU is not available on %s, use --fake", runtime.GOOS)
}
