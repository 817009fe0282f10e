// Package preview renders chunk tensors as PNG images for visual inspection.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/neurlang/gostem/tensor"
)

// Image maps a (channels, freq, time) tensor to an RGBA image with time on the x axis.
// Channel 0 drives red, channel 1 (or channel 0 again for mono) drives green, blue is their mean.
// Each channel is min-max normalised independently. With reverse, low frequencies are at the bottom.
func Image(t *tensor.Tensor, reverse bool) (*image.RGBA, error) {
	if t.Shape.Channels < 1 || t.Shape.Freq < 1 || t.Shape.Time < 1 {
		return nil, fmt.Errorf("%w: cannot render %v", tensor.ErrShape, t.Shape)
	}

	second := 0
	if t.Shape.Channels > 1 {
		second = 1
	}
	chans := [2]int{0, second}

	var lo, hi [2]float64
	for l, c := range chans {
		lo[l], hi[l] = math.Inf(1), math.Inf(-1)
		for _, v := range t.Channel(c) {
			lo[l] = math.Min(lo[l], float64(v))
			hi[l] = math.Max(hi[l], float64(v))
		}
	}

	norm := func(l int, v float32) float64 {
		if hi[l] == lo[l] {
			return 0
		}
		return (float64(v) - lo[l]) / (hi[l] - lo[l])
	}

	img := image.NewRGBA(image.Rect(0, 0, t.Shape.Time, t.Shape.Freq))
	for x := 0; x < t.Shape.Time; x++ {
		for y := 0; y < t.Shape.Freq; y++ {
			val0 := norm(0, t.At(chans[0], y, x))
			val1 := norm(1, t.At(chans[1], y, x))
			col := color.RGBA{
				R: uint8(255 * val0),
				G: uint8(255 * val1),
				B: uint8(255 * (val0 + val1) * 0.5),
				A: 255,
			}
			if reverse {
				img.SetRGBA(x, t.Shape.Freq-y-1, col)
			} else {
				img.SetRGBA(x, y, col)
			}
		}
	}
	return img, nil
}

// Encode writes the PNG rendering of t to w.
func Encode(w io.Writer, t *tensor.Tensor, reverse bool) error {
	img, err := Image(t, reverse)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Save writes the PNG rendering of t to name.
func Save(name string, t *tensor.Tensor, reverse bool) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}

	if err := Encode(f, t, reverse); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
