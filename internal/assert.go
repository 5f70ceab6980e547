// assert.go provides the internal-consistency check used across the driver.

// Package internal holds helpers shared by the driver packages.
package internal

import (
	"context"

	"github.com/rexxster/vdpau-driver/logger"
)

// Assert panics through the context logger if mustBeTrue does not hold.
// It guards invariants that only a driver bug can break (never user input).
func Assert(
	ctx context.Context,
	mustBeTrue bool,
	extraArgs ...any,
) {
	if mustBeTrue {
		return
	}

	logger.Panic(ctx, "assertion failed", extraArgs)
}
