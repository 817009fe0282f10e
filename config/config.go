package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for configuration faults. They are never clamped.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	LogLevel int `yaml:"log_level"`

	// Target is the isolated stem name, also used as the persisted kind directory.
	Target string `yaml:"target"`

	// SourceDir holds the decoded tracks, SaveDir the persisted chunk tree.
	SourceDir string `yaml:"source_dir"`
	SaveDir   string `yaml:"save_dir"`
	Split     string `yaml:"split"`

	Transform TransformConfig `yaml:"transform"`
	Augment   AugmentConfig   `yaml:"augment"`
	Encoder   EncoderConfig   `yaml:"encoder"`
}

type TransformConfig struct {
	SampleRate    int     `yaml:"sample_rate"`
	ChunkDuration float64 `yaml:"chunk_duration"`
	NFFT          int     `yaml:"n_fft"`
	HopLength     int     `yaml:"hop_length"`
}

type AugmentConfig struct {
	Enabled       bool   `yaml:"enabled"`
	TimeMaskParam int    `yaml:"time_mask_param"`
	FreqMaskParam int    `yaml:"freq_mask_param"`
	Seed          uint64 `yaml:"seed"`
}

type EncoderConfig struct {
	// Workers bounds how many tracks are encoded at once.
	Workers int `yaml:"workers"`
	// DType is the persisted element type: "float32" or "float16".
	DType string `yaml:"dtype"`
}

// Default returns the configuration used for keys left out of a file.
func Default() *Config {
	return &Config{
		Target:    "vocals",
		SourceDir: "musdb18hq",
		SaveDir:   "data",
		Split:     "train",
		Transform: TransformConfig{
			SampleRate:    44100,
			ChunkDuration: 6.0,
			NFFT:          2048,
			HopLength:     1024,
		},
		Augment: AugmentConfig{
			TimeMaskParam: 15,
			FreqMaskParam: 10,
		},
		Encoder: EncoderConfig{
			Workers: 1,
			DType:   "float32",
		},
	}
}

// Load decodes path over Default, so omitted keys keep their defaults while explicit
// values, zeros included, are validated as written.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Default()

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate reports the first configuration fault found.
func (c *Config) Validate() error {
	switch c.Target {
	case "":
		return fmt.Errorf("%w: target must be set", ErrInvalid)
	case "mixture", "phase":
		return fmt.Errorf("%w: target %q collides with a persisted kind", ErrInvalid, c.Target)
	}
	if err := c.Transform.Validate(); err != nil {
		return err
	}
	if c.Augment.TimeMaskParam < 2 || c.Augment.FreqMaskParam < 2 {
		return fmt.Errorf("%w: mask params must be at least 2 (time %d, freq %d)",
			ErrInvalid, c.Augment.TimeMaskParam, c.Augment.FreqMaskParam)
	}
	if c.Encoder.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalid, c.Encoder.Workers)
	}
	switch c.Encoder.DType {
	case "float32", "float16":
	default:
		return fmt.Errorf("%w: unsupported dtype %q", ErrInvalid, c.Encoder.DType)
	}
	return nil
}

// Validate checks the sample rate, chunk length and n_fft/hop_length combination.
func (t TransformConfig) Validate() error {
	if t.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalid, t.SampleRate)
	}
	if t.ChunkDuration <= 0 {
		return fmt.Errorf("%w: chunk duration must be positive, got %g", ErrInvalid, t.ChunkDuration)
	}
	if t.NFFT < 2 || t.NFFT%2 != 0 {
		return fmt.Errorf("%w: n_fft must be a positive even number, got %d", ErrInvalid, t.NFFT)
	}
	if t.HopLength <= 0 || t.HopLength > t.NFFT {
		return fmt.Errorf("%w: hop_length must be in [1, n_fft], got %d with n_fft %d", ErrInvalid, t.HopLength, t.NFFT)
	}
	if t.ChunkSamples() < 1 {
		return fmt.Errorf("%w: chunk of %gs at %d Hz holds no samples", ErrInvalid, t.ChunkDuration, t.SampleRate)
	}
	return nil
}

// ChunkSamples is chunk_duration*sample_rate, truncated.
func (t TransformConfig) ChunkSamples() int {
	return int(t.ChunkDuration * float64(t.SampleRate))
}

// FreqBins is the number of one-sided frequency bins, n_fft/2+1.
func (t TransformConfig) FreqBins() int {
	return t.NFFT/2 + 1
}

// TimeFrames is the number of centered STFT frames for one chunk.
func (t TransformConfig) TimeFrames() int {
	return 1 + t.ChunkSamples()/t.HopLength
}
