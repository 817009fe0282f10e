package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log_level: -4
target: drums
save_dir: /tmp/chunks
split: test
transform:
  chunk_duration: 3.0
  n_fft: 1024
  hop_length: 256
augment:
  enabled: true
  time_mask_param: 20
encoder:
  workers: 4
  dtype: float16
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, -4, cfg.LogLevel)
	assert.Equal(t, "drums", cfg.Target)
	assert.Equal(t, "/tmp/chunks", cfg.SaveDir)
	assert.Equal(t, "test", cfg.Split)
	assert.Equal(t, 44100, cfg.Transform.SampleRate)
	assert.Equal(t, 3.0, cfg.Transform.ChunkDuration)
	assert.Equal(t, 1024, cfg.Transform.NFFT)
	assert.Equal(t, 256, cfg.Transform.HopLength)
	assert.True(t, cfg.Augment.Enabled)
	assert.Equal(t, 20, cfg.Augment.TimeMaskParam)
	assert.Equal(t, 10, cfg.Augment.FreqMaskParam)
	assert.Equal(t, 4, cfg.Encoder.Workers)
	assert.Equal(t, "float16", cfg.Encoder.DType)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log_level: 0\n"))

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("non_existent_file.yaml")

	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadInvalidYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "target: [vocals\n"))

	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadInvalidCombination(t *testing.T) {
	cfg, err := Load(writeConfig(t, "transform:\n  n_fft: 512\n  hop_length: 1024\n"))

	assert.ErrorIs(t, err, ErrInvalid)
	assert.Nil(t, cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"target mixture", func(c *Config) { c.Target = "mixture" }},
		{"target phase", func(c *Config) { c.Target = "phase" }},
		{"odd n_fft", func(c *Config) { c.Transform.NFFT = 1023 }},
		{"zero hop", func(c *Config) { c.Transform.HopLength = -1 }},
		{"hop wider than window", func(c *Config) { c.Transform.HopLength = 4096 }},
		{"chunk without samples", func(c *Config) { c.Transform.ChunkDuration = 1e-6 }},
		{"negative sample rate", func(c *Config) { c.Transform.SampleRate = -1 }},
		{"time mask too small", func(c *Config) { c.Augment.TimeMaskParam = 1 }},
		{"freq mask too small", func(c *Config) { c.Augment.FreqMaskParam = 1 }},
		{"no workers", func(c *Config) { c.Encoder.Workers = 0 }},
		{"bad dtype", func(c *Config) { c.Encoder.DType = "int8" }},
	}

	assert.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestLoadExplicitZeroIsRejected(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"hop length", "transform:\n  hop_length: 0\n"},
		{"n_fft", "transform:\n  n_fft: 0\n"},
		{"time mask", "augment:\n  time_mask_param: 0\n"},
		{"freq mask", "augment:\n  freq_mask_param: 0\n"},
		{"workers", "encoder:\n  workers: 0\n"},
		{"target", "target: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.content))

			assert.ErrorIs(t, err, ErrInvalid)
			assert.Nil(t, cfg)
		})
	}
}

func TestChunkShorterThanWindow(t *testing.T) {
	cfg := Default()
	cfg.Transform.ChunkDuration = 0.01

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 441, cfg.Transform.ChunkSamples())
	assert.Equal(t, 1, cfg.Transform.TimeFrames())
}

func TestTransformDerived(t *testing.T) {
	tc := Default().Transform

	assert.Equal(t, 264600, tc.ChunkSamples())
	assert.Equal(t, 1025, tc.FreqBins())
	assert.Equal(t, 259, tc.TimeFrames())

	tc.ChunkDuration = 1.0
	assert.Equal(t, 1025, tc.FreqBins())
}
