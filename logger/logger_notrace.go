//go:build !debug_trace
// +build !debug_trace

// logger_notrace.go compiles trace logging out unless the debug_trace tag is set.

package logger

import (
	"context"

	"github.com/facebookincubator/go-belt/pkg/field"
)

func TraceFields(ctx context.Context, message string, fields field.AbstractFields) {}

func Trace(ctx context.Context, values ...any) {}

func Tracef(ctx context.Context, format string, args ...any) {}

// TraceEnabled lets callers skip building expensive trace arguments (dumps).
const TraceEnabled = false
