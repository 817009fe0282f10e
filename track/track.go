package track

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotLoaded      = errors.New("stem file not loaded")
	ErrUnsupportedFormat  = errors.New("unsupported audio format")
	ErrInterleavedChannel = errors.New("interleaved sample count is not a multiple of the channel count")
)

// Waveform is a multichannel signal indexed [channel][sample].
type Waveform [][]float64

// Channels is the number of channels.
func (w Waveform) Channels() int {
	return len(w)
}

// Len is the sample count of channel 0, or 0 for an empty waveform.
func (w Waveform) Len() int {
	if len(w) == 0 {
		return 0
	}
	return len(w[0])
}

// Ragged reports whether channels have different lengths.
func (w Waveform) Ragged() bool {
	for _, ch := range w {
		if len(ch) != w.Len() {
			return true
		}
	}
	return false
}

// Slice returns samples [start, end) of every channel, sharing storage.
func (w Waveform) Slice(start, end int) Waveform {
	out := make(Waveform, len(w))
	for c, ch := range w {
		out[c] = ch[start:end]
	}
	return out
}

// FromFrames orients frame-major stereo frames into channels; only the first channels columns are kept.
func FromFrames(frames [][2]float64, channels int) Waveform {
	if channels < 1 || channels > 2 {
		channels = 2
	}
	out := make(Waveform, channels)
	for c := range out {
		out[c] = make([]float64, len(frames))
		for i, f := range frames {
			out[c][i] = f[c]
		}
	}
	return out
}

// FromInterleaved orients interleaved samples into channels.
func FromInterleaved(samples []float64, channels int) (Waveform, error) {
	if channels < 1 || len(samples)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples, %d channels", ErrInterleavedChannel, len(samples), channels)
	}
	n := len(samples) / channels
	out := make(Waveform, channels)
	for c := range out {
		out[c] = make([]float64, n)
		for i := range out[c] {
			out[c][i] = samples[i*channels+c]
		}
	}
	return out, nil
}

// Track is one song of a split with its mixture and one isolated target stem.
type Track struct {
	ID         string
	SampleRate int
	Mixture    Waveform
	Target     Waveform
}

// Provider enumerates and loads the tracks of one split.
type Provider interface {
	Tracks() ([]string, error)
	Load(id string) (*Track, error)
}
