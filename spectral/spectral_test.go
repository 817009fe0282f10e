package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n int, freq, rate float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/rate)
	}
	return out
}

func noise(n int, seed uint32) []float64 {
	out := make([]float64, n)
	x := seed
	for i := range out {
		x = x*1664525 + 1013904223
		out[i] = float64(x)/float64(math.MaxUint32)*2 - 1
	}
	return out
}

func TestNewRejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name      string
		nfft, hop int
	}{
		{"zero n_fft", 0, 1},
		{"odd n_fft", 1025, 256},
		{"zero hop", 2048, 0},
		{"hop wider than window", 512, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.nfft, tt.hop)
			assert.ErrorIs(t, err, ErrParams)
		})
	}
}

func TestShape(t *testing.T) {
	tests := []struct {
		name      string
		nfft, hop int
		samples   int
		bins      int
		frames    int
	}{
		{"defaults, 6 second chunk", 2048, 1024, 264600, 1025, 259},
		{"defaults, 1 second chunk", 2048, 1024, 44100, 1025, 44},
		{"small window", 256, 64, 1000, 129, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.nfft, tt.hop)
			require.NoError(t, err)

			specs, err := tr.Analyze([][]float64{noise(tt.samples, 1), noise(tt.samples, 2)})
			require.NoError(t, err)

			mag := LogMagnitude(specs)
			phase := Phase(specs)

			assert.Equal(t, tt.bins, tr.FreqBins())
			assert.Equal(t, 2, mag.Shape.Channels)
			assert.Equal(t, tt.bins, mag.Shape.Freq)
			assert.Equal(t, tt.frames, mag.Shape.Time)
			assert.Equal(t, mag.Shape, phase.Shape)
		})
	}
}

func TestRanges(t *testing.T) {
	tr, err := New(512, 128)
	require.NoError(t, err)

	silence := make([]float64, 4096)
	specs, err := tr.Analyze([][]float64{noise(4096, 7), silence})
	require.NoError(t, err)

	for _, v := range LogMagnitude(specs).Data {
		assert.GreaterOrEqual(t, v, float32(0))
	}
	for _, v := range Phase(specs).Data {
		assert.Greater(t, v, -float32(math.Pi))
		assert.LessOrEqual(t, v, float32(math.Pi))
	}
}

func TestWrap(t *testing.T) {
	assert.Equal(t, float32(math.Pi), wrap(-math.Pi))
	assert.Equal(t, float32(math.Pi), wrap(math.Pi))
	assert.Equal(t, float32(0), wrap(0))
	assert.Equal(t, float32(-1), wrap(-1))
}

func TestSinePeakBin(t *testing.T) {
	const rate = 8000.0
	tr, err := New(256, 64)
	require.NoError(t, err)

	// 1000 Hz lands exactly on bin 1000 / (8000 / 256) = 32.
	specs, err := tr.Analyze([][]float64{sine(2048, 1000, rate)})
	require.NoError(t, err)
	mag := LogMagnitude(specs)

	frame := mag.Shape.Time / 2
	peak := 0
	for bin := 1; bin < mag.Shape.Freq; bin++ {
		if mag.At(0, bin, frame) > mag.At(0, peak, frame) {
			peak = bin
		}
	}
	assert.Equal(t, 32, peak)
}

func TestAnalyzeDeterministic(t *testing.T) {
	tr, err := New(256, 128)
	require.NoError(t, err)
	in := [][]float64{noise(3000, 3), noise(3000, 4)}

	a, err := tr.Analyze(in)
	require.NoError(t, err)
	b, err := tr.Analyze(in)
	require.NoError(t, err)

	assert.True(t, LogMagnitude(a).Equal(LogMagnitude(b)))
	assert.True(t, Phase(a).Equal(Phase(b)))
}

func TestAnalyzeRejectsRaggedChannels(t *testing.T) {
	tr, err := New(256, 128)
	require.NoError(t, err)

	_, err = tr.Analyze([][]float64{noise(1000, 1), noise(999, 2)})
	assert.Error(t, err)

	_, err = tr.Analyze([][]float64{{}})
	assert.ErrorIs(t, err, ErrShortSignal)
}

func TestSignalShorterThanWindow(t *testing.T) {
	tr, err := New(256, 128)
	require.NoError(t, err)

	specs, err := tr.Analyze([][]float64{noise(100, 1), noise(100, 2)})
	require.NoError(t, err)

	mag := LogMagnitude(specs)
	assert.Equal(t, 2, mag.Shape.Channels)
	assert.Equal(t, 129, mag.Shape.Freq)
	assert.Equal(t, 1, mag.Shape.Time)
}

func TestInverseReconstructs(t *testing.T) {
	tr, err := New(512, 128)
	require.NoError(t, err)

	in := [][]float64{sine(4096, 440, 8000), sine(4096, 1250, 8000)}
	specs, err := tr.Analyze(in)
	require.NoError(t, err)

	out, err := tr.Inverse(LogMagnitude(specs), Phase(specs), len(in[0]))
	require.NoError(t, err)
	require.Len(t, out, 2)

	for c := range in {
		require.Len(t, out[c], len(in[c]))
		for i := 0; i < len(in[c]); i += 97 {
			assert.InDelta(t, in[c][i], out[c][i], 1e-3, "channel %d sample %d", c, i)
		}
	}
}

func TestInverseShapeMismatch(t *testing.T) {
	tr, err := New(256, 128)
	require.NoError(t, err)
	specs, err := tr.Analyze([][]float64{noise(1000, 1)})
	require.NoError(t, err)

	other, err := New(512, 128)
	require.NoError(t, err)

	_, err = other.Inverse(LogMagnitude(specs), Phase(specs), 1000)
	assert.Error(t, err)
}
