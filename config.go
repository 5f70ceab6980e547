// config.go defines the tunables of a Driver.

package vdpaudriver

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// MaxOutputSurfacesLimit bounds Config.MaxOutputSurfaces.
const MaxOutputSurfacesLimit = 16

type Config struct {
	// MaxOutputSurfaces is the amount of ring slots of every output target.
	MaxOutputSurfaces int

	MaxBuffers       int
	MaxContexts      int
	MaxSurfaces      int
	MaxOutputTargets int

	// MaxBufferSize bounds the byte size of a single buffer; 0 means no bound.
	MaxBufferSize uint64

	// ReuseBufferMemory makes destroyed buffers give their memory to the
	// next created ones instead of the garbage collector.
	ReuseBufferMemory bool
}

func DefaultConfig() Config {
	return Config{
		MaxOutputSurfaces: 2,
		MaxBuffers:        4096,
		MaxContexts:       64,
		MaxSurfaces:       1024,
		MaxOutputTargets:  64,
		MaxBufferSize:     64 << 20,
		ReuseBufferMemory: true,
	}
}

func (cfg Config) Validate() error {
	if cfg.MaxOutputSurfaces < 1 || cfg.MaxOutputSurfaces > MaxOutputSurfacesLimit {
		return fmt.Errorf("the amount of output surfaces must be within [1, %d], but is %d", MaxOutputSurfacesLimit, cfg.MaxOutputSurfaces)
	}
	for _, limit := range []struct {
		Name  string
		Value int
	}{
		{"buffers", cfg.MaxBuffers},
		{"contexts", cfg.MaxContexts},
		{"surfaces", cfg.MaxSurfaces},
		{"output targets", cfg.MaxOutputTargets},
	} {
		if limit.Value <= 0 {
			return fmt.Errorf("the maximal amount of %s must be positive, but is %d", limit.Name, limit.Value)
		}
	}
	return nil
}

func (cfg Config) String() string {
	maxBufferSize := "unbounded"
	if cfg.MaxBufferSize > 0 {
		maxBufferSize = humanize.IBytes(cfg.MaxBufferSize)
	}
	return fmt.Sprintf(
		"ring:%d buffers:%d contexts:%d surfaces:%d outputs:%d max_buffer_size:%s reuse_buffer_memory:%t",
		cfg.MaxOutputSurfaces, cfg.MaxBuffers, cfg.MaxContexts, cfg.MaxSurfaces, cfg.MaxOutputTargets, maxBufferSize, cfg.ReuseBufferMemory,
	)
}
