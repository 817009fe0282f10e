// Package tensor holds the (channels, freq, time) float32 arrays exchanged between
// the encoder, the persisted files and the dataset.
package tensor

import (
	"errors"
	"fmt"
	"os"

	"github.com/neurlang/gostem/npy"
)

var ErrShape = errors.New("unexpected tensor shape")

// Shape is (channels, frequency bins, time frames).
type Shape struct {
	Channels int
	Freq     int
	Time     int
}

func (s Shape) Len() int {
	return s.Channels * s.Freq * s.Time
}

func (s Shape) Dims() []int {
	return []int{s.Channels, s.Freq, s.Time}
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d, %d)", s.Channels, s.Freq, s.Time)
}

// Tensor is a dense, C-ordered 3-D array.
type Tensor struct {
	Shape Shape
	Data  []float32
}

// New allocates a zeroed tensor.
func New(shape Shape) *Tensor {
	return &Tensor{Shape: shape, Data: make([]float32, shape.Len())}
}

func (t *Tensor) index(c, f, tt int) int {
	return (c*t.Shape.Freq+f)*t.Shape.Time + tt
}

func (t *Tensor) At(c, f, tt int) float32 {
	return t.Data[t.index(c, f, tt)]
}

func (t *Tensor) Set(c, f, tt int, v float32) {
	t.Data[t.index(c, f, tt)] = v
}

// Channel returns the (freq, time) plane of channel c, sharing storage.
func (t *Tensor) Channel(c int) []float32 {
	n := t.Shape.Freq * t.Shape.Time
	return t.Data[c*n : (c+1)*n]
}

// Row returns frequency bin f of channel c across all frames, sharing storage.
func (t *Tensor) Row(c, f int) []float32 {
	start := t.index(c, f, 0)
	return t.Data[start : start+t.Shape.Time]
}

func (t *Tensor) Clone() *Tensor {
	data := make([]float32, len(t.Data))
	copy(data, t.Data)
	return &Tensor{Shape: t.Shape, Data: data}
}

// Equal reports bit-identical contents and shape.
func (t *Tensor) Equal(o *Tensor) bool {
	if t.Shape != o.Shape || len(t.Data) != len(o.Data) {
		return false
	}
	for i := range t.Data {
		if t.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

// Save writes t as an .npy file, truncating any existing file.
func (t *Tensor) Save(path string, dtype npy.DType) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := npy.Write(f, dtype, t.Shape.Dims(), t.Data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return f.Close()
}

// Load reads a 3-D .npy file.
func Load(path string) (*Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, data, err := npy.Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(h.Shape) != 3 {
		return nil, fmt.Errorf("%w: %s has shape %v", ErrShape, path, h.Shape)
	}

	shape := Shape{Channels: h.Shape[0], Freq: h.Shape[1], Time: h.Shape[2]}
	if shape.Len() != len(data) {
		return nil, fmt.Errorf("%w: %s has shape %v but %d values", ErrShape, path, shape, len(data))
	}

	return &Tensor{Shape: shape, Data: data}, nil
}
