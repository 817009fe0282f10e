package spectral

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/neurlang/gostem/tensor"
	"github.com/r9y9/gossp/stft"
)

var (
	ErrParams      = errors.New("invalid transform parameters")
	ErrShortSignal = errors.New("signal too short")
)

// Spectrogram is the one-sided complex STFT of a single channel, indexed [frame][bin].
type Spectrogram [][]complex128

// Transform holds the STFT configuration.
type Transform struct {
	NFFT      int
	HopLength int

	stft *stft.STFT
}

// New creates a Transform with window size nfft and hop size hop.
func New(nfft, hop int) (*Transform, error) {
	if nfft < 2 || nfft%2 != 0 {
		return nil, fmt.Errorf("%w: n_fft must be a positive even number, got %d", ErrParams, nfft)
	}
	if hop <= 0 || hop > nfft {
		return nil, fmt.Errorf("%w: hop_length must be in [1, %d], got %d", ErrParams, nfft, hop)
	}

	s := stft.New(hop, nfft)
	s.Window = hann(nfft)

	return &Transform{NFFT: nfft, HopLength: hop, stft: s}, nil
}

// hann is the periodic Hann window.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// FreqBins is n_fft/2 + 1.
func (t *Transform) FreqBins() int {
	return t.NFFT/2 + 1
}

// Frames is the number of frames produced for a signal of n samples.
func (t *Transform) Frames(n int) int {
	return 1 + n/t.HopLength
}

// STFT computes the centered one-sided spectrogram of signal.
func (t *Transform) STFT(signal []float64) (Spectrogram, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("%w: empty signal", ErrShortSignal)
	}

	pad := t.NFFT / 2
	padded := make([]float64, len(signal)+2*pad)
	copy(padded[pad:], signal)

	frames := t.Frames(len(signal))
	spectrum := t.stft.STFT(padded)
	if len(spectrum) < frames {
		return nil, fmt.Errorf("%w: %d frames, expected %d", ErrShortSignal, len(spectrum), frames)
	}

	bins := t.FreqBins()
	out := make(Spectrogram, frames)
	for i := range out {
		out[i] = spectrum[i][:bins]
	}
	return out, nil
}

// Analyze computes one spectrogram per channel. All channels must have equal length.
func (t *Transform) Analyze(channels [][]float64) ([]Spectrogram, error) {
	specs := make([]Spectrogram, len(channels))
	for c, ch := range channels {
		if len(ch) != len(channels[0]) {
			return nil, fmt.Errorf("channel %d has %d samples, channel 0 has %d", c, len(ch), len(channels[0]))
		}
		spec, err := t.STFT(ch)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", c, err)
		}
		specs[c] = spec
	}
	return specs, nil
}

func shapeOf(specs []Spectrogram) tensor.Shape {
	s := tensor.Shape{Channels: len(specs)}
	if len(specs) > 0 && len(specs[0]) > 0 {
		s.Time = len(specs[0])
		s.Freq = len(specs[0][0])
	}
	return s
}

func planes(specs []Spectrogram, f func(complex128) float32) *tensor.Tensor {
	out := tensor.New(shapeOf(specs))
	for c, spec := range specs {
		for frame, bins := range spec {
			for bin, v := range bins {
				out.Set(c, bin, frame, f(v))
			}
		}
	}
	return out
}

// LogMagnitude stacks log(1 + |X|) of every channel into a (channels, freq, time) tensor.
func LogMagnitude(specs []Spectrogram) *tensor.Tensor {
	return planes(specs, func(v complex128) float32 {
		return float32(math.Log1p(cmplx.Abs(v)))
	})
}

// Phase stacks the angle of every channel into a (channels, freq, time) tensor.
func Phase(specs []Spectrogram) *tensor.Tensor {
	return planes(specs, func(v complex128) float32 {
		return wrap(cmplx.Phase(v))
	})
}

// wrap maps an angle onto (-π, π] after float32 rounding.
func wrap(phi float64) float32 {
	p := float32(phi)
	if p <= -float32(math.Pi) {
		return float32(math.Pi)
	}
	return p
}

// Inverse reconstructs length samples per channel from a log-magnitude and phase tensor pair
// by inverse FFT and window-normalised overlap-add.
func (t *Transform) Inverse(logMag, phase *tensor.Tensor, length int) ([][]float64, error) {
	if logMag.Shape != phase.Shape {
		return nil, fmt.Errorf("%w: magnitude %v and phase %v differ", tensor.ErrShape, logMag.Shape, phase.Shape)
	}
	if logMag.Shape.Freq != t.FreqBins() {
		return nil, fmt.Errorf("%w: %d bins, transform has %d", tensor.ErrShape, logMag.Shape.Freq, t.FreqBins())
	}

	frames := logMag.Shape.Time
	pad := t.NFFT / 2
	total := t.NFFT + (frames-1)*t.HopLength
	if length <= 0 || length > total-2*pad {
		length = total - 2*pad
	}

	window := t.stft.Window
	out := make([][]float64, logMag.Shape.Channels)

	for c := range out {
		signal := make([]float64, total)
		windowSum := make([]float64, total)
		spectrum := make([]complex128, t.NFFT)

		for frame := 0; frame < frames; frame++ {
			for bin := 0; bin < t.FreqBins(); bin++ {
				mag := math.Expm1(float64(logMag.At(c, bin, frame)))
				spectrum[bin] = cmplx.Rect(mag, float64(phase.At(c, bin, frame)))
			}
			for bin := 1; bin < t.NFFT/2; bin++ {
				spectrum[t.NFFT-bin] = cmplx.Conj(spectrum[bin])
			}

			buf := fft.IFFT(spectrum)
			for j := 0; j < t.NFFT; j++ {
				pos := frame*t.HopLength + j
				signal[pos] += real(buf[j]) * window[j]
				windowSum[pos] += window[j] * window[j]
			}
		}

		for i := range signal {
			if windowSum[i] > 1e-10 {
				signal[i] /= windowSum[i]
			}
		}

		out[c] = signal[pad : pad+length]
	}

	return out, nil
}
