package vdpaudriver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, DefaultConfig().Validate())
	require.Equal(t, 2, DefaultConfig().MaxOutputSurfaces)

	for _, tc := range []struct {
		name   string
		modify func(*Config)
	}{
		{"no_output_surfaces", func(cfg *Config) { cfg.MaxOutputSurfaces = 0 }},
		{"too_many_output_surfaces", func(cfg *Config) { cfg.MaxOutputSurfaces = MaxOutputSurfacesLimit + 1 }},
		{"no_buffers", func(cfg *Config) { cfg.MaxBuffers = 0 }},
		{"no_contexts", func(cfg *Config) { cfg.MaxContexts = -1 }},
		{"no_surfaces", func(cfg *Config) { cfg.MaxSurfaces = 0 }},
		{"no_output_targets", func(cfg *Config) { cfg.MaxOutputTargets = 0 }},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tc.modify(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	cfg.MaxBufferSize = 0
	require.NoError(t, cfg.Validate())
	require.Contains(t, cfg.String(), "max_buffer_size:unbounded")
	require.Contains(t, DefaultConfig().String(), "max_buffer_size:64 MiB")
}
