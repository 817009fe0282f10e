package dataset

import (
	"fmt"
	"math"

	"github.com/neurlang/gostem/chunk"
	"github.com/neurlang/gostem/tensor"
	"gonum.org/v1/gonum/stat"
)

// Scaler holds per-frequency-bin statistics of mixture log-magnitudes.
type Scaler struct {
	Mean  []float64
	Std   []float64
	Count int
}

// FitScaler accumulates the mean and standard deviation of every frequency bin over the
// first limit mixtures of d (all of them when limit <= 0). Augmentation is not applied.
func FitScaler(d *Dataset, limit int) (*Scaler, error) {
	n := d.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: empty dataset", ErrIndexOutOfRange)
	}

	var (
		mean, m2 []float64
		count    int
		buf      []float64
	)

	for i := 0; i < n; i++ {
		path := d.layout.Path(d.refs[i], chunk.KindMixture)
		mix, err := tensor.Load(path)
		if err != nil {
			return nil, err
		}

		if mean == nil {
			mean = make([]float64, mix.Shape.Freq)
			m2 = make([]float64, mix.Shape.Freq)
		} else if len(mean) != mix.Shape.Freq {
			return nil, fmt.Errorf("%w: %s has %d bins, expected %d", ErrShapeMismatch, path, mix.Shape.Freq, len(mean))
		}

		nb := mix.Shape.Channels * mix.Shape.Time
		for f := 0; f < mix.Shape.Freq; f++ {
			buf = buf[:0]
			for c := 0; c < mix.Shape.Channels; c++ {
				for _, v := range mix.Row(c, f) {
					buf = append(buf, float64(v))
				}
			}
			bm, bv := stat.MeanVariance(buf, nil)
			if nb < 2 {
				bv = 0
			}
			mean[f], m2[f] = merge(mean[f], m2[f], count, bm, bv*float64(nb-1), nb)
		}
		count += nb
	}

	s := &Scaler{Mean: mean, Std: make([]float64, len(mean)), Count: count}
	for f := range m2 {
		if count > 1 {
			s.Std[f] = math.Sqrt(m2[f] / float64(count-1))
		}
	}
	return s, nil
}

// merge combines two partial (mean, sum of squared deviations) pairs.
func merge(meanA, m2A float64, nA int, meanB, m2B float64, nB int) (float64, float64) {
	if nA == 0 {
		return meanB, m2B
	}
	n := float64(nA + nB)
	delta := meanB - meanA
	mean := meanA + delta*float64(nB)/n
	m2 := m2A + m2B + delta*delta*float64(nA)*float64(nB)/n
	return mean, m2
}

// Apply standardises t in place, bin by bin.
func (s *Scaler) Apply(t *tensor.Tensor) error {
	if t.Shape.Freq != len(s.Mean) {
		return fmt.Errorf("%w: tensor has %d bins, scaler %d", ErrShapeMismatch, t.Shape.Freq, len(s.Mean))
	}
	for c := 0; c < t.Shape.Channels; c++ {
		for f := 0; f < t.Shape.Freq; f++ {
			row := t.Row(c, f)
			for i, v := range row {
				x := float64(v) - s.Mean[f]
				if s.Std[f] > 0 {
					x /= s.Std[f]
				}
				row[i] = float32(x)
			}
		}
	}
	return nil
}
