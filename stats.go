// stats.go implements the counters reported by Driver.Stats.

package vdpaudriver

import (
	"context"

	"github.com/rexxster/vdpau-driver/buffer"
	"go.uber.org/atomic"
)

type stats struct {
	FramesDisplayed atomic.Uint64
	PresentFailures atomic.Uint64
	PicturesDecoded atomic.Uint64
	BuffersRendered atomic.Uint64
}

type Stats struct {
	FramesDisplayed uint64 `json:"frames_displayed"`
	PresentFailures uint64 `json:"present_failures"`
	PicturesDecoded uint64 `json:"pictures_decoded"`
	BuffersRendered uint64 `json:"buffers_rendered"`

	Contexts      int          `json:"contexts"`
	Surfaces      int          `json:"surfaces"`
	OutputTargets int          `json:"output_targets"`
	Buffers       buffer.Stats `json:"buffers"`
}

func (d *Driver) Stats(ctx context.Context) Stats {
	result := Stats{
		FramesDisplayed: d.stats.FramesDisplayed.Load(),
		PresentFailures: d.stats.PresentFailures.Load(),
		PicturesDecoded: d.stats.PicturesDecoded.Load(),
		BuffersRendered: d.stats.BuffersRendered.Load(),
	}
	d.locker.Do(ctx, func() {
		result.Contexts = d.contexts.Len()
		result.Surfaces = d.surfaces.Len()
		result.OutputTargets = d.outputs.Len()
		result.Buffers = d.buffers.Stats()
	})
	return result
}
