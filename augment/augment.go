// Package augment implements SpecAugment-style masking of spectrogram tensors.
package augment

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/neurlang/gostem/tensor"
)

// ErrMaskParam is returned when a mask parameter cannot produce a valid draw for the tensor.
var ErrMaskParam = errors.New("invalid mask parameter")

// SpecAugment zeroes one random time band and one random frequency band per channel.
type SpecAugment struct {
	// TimeMaskParam bounds the time mask: width in [1, TimeMaskParam), start in [0, T-TimeMaskParam).
	TimeMaskParam int
	// FreqMaskParam bounds the frequency mask the same way along the frequency axis.
	FreqMaskParam int
}

func Default() SpecAugment {
	return SpecAugment{TimeMaskParam: 15, FreqMaskParam: 10}
}

// Band is a half-open range [Start, Start+Width).
type Band struct {
	Start int
	Width int
}

func (b Band) End() int {
	return b.Start + b.Width
}

func (b Band) Contains(i int) bool {
	return i >= b.Start && i < b.End()
}

// Mask is the pair of bands drawn for one channel.
type Mask struct {
	Time Band
	Freq Band
}

// Check validates the parameters against a tensor shape.
func (s SpecAugment) Check(shape tensor.Shape) error {
	if s.TimeMaskParam < 2 {
		return fmt.Errorf("%w: time_mask_param %d leaves no width to draw", ErrMaskParam, s.TimeMaskParam)
	}
	if s.FreqMaskParam < 2 {
		return fmt.Errorf("%w: freq_mask_param %d leaves no width to draw", ErrMaskParam, s.FreqMaskParam)
	}
	if shape.Time <= s.TimeMaskParam {
		return fmt.Errorf("%w: time_mask_param %d needs more than %d frames", ErrMaskParam, s.TimeMaskParam, shape.Time)
	}
	if shape.Freq <= s.FreqMaskParam {
		return fmt.Errorf("%w: freq_mask_param %d needs more than %d bins", ErrMaskParam, s.FreqMaskParam, shape.Freq)
	}
	return nil
}

func draw(r *rand.Rand, n, param int) Band {
	return Band{
		Start: r.IntN(n - param),
		Width: 1 + r.IntN(param-1),
	}
}

// Draw picks independent masks for every channel of shape.
func (s SpecAugment) Draw(r *rand.Rand, shape tensor.Shape) ([]Mask, error) {
	if err := s.Check(shape); err != nil {
		return nil, err
	}

	masks := make([]Mask, shape.Channels)
	for c := range masks {
		masks[c].Time = draw(r, shape.Time, s.TimeMaskParam)
		masks[c].Freq = draw(r, shape.Freq, s.FreqMaskParam)
	}
	return masks, nil
}

// Zero applies previously drawn masks to t in place.
func Zero(t *tensor.Tensor, masks []Mask) {
	for c, m := range masks {
		for f := 0; f < t.Shape.Freq; f++ {
			row := t.Row(c, f)
			if m.Freq.Contains(f) {
				clear(row)
				continue
			}
			clear(row[m.Time.Start:m.Time.End()])
		}
	}
}

// Apply masks t in place and returns the masks it used.
func (s SpecAugment) Apply(r *rand.Rand, t *tensor.Tensor) ([]Mask, error) {
	masks, err := s.Draw(r, t.Shape)
	if err != nil {
		return nil, err
	}
	Zero(t, masks)
	return masks, nil
}
