package tensor

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/neurlang/gostem/npy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(shape Shape) *Tensor {
	t := New(shape)
	for i := range t.Data {
		t.Data[i] = float32(i)
	}
	return t
}

func TestIndexing(t *testing.T) {
	tt := ramp(Shape{Channels: 2, Freq: 3, Time: 4})

	assert.Equal(t, float32(0), tt.At(0, 0, 0))
	assert.Equal(t, float32(4), tt.At(0, 1, 0))
	assert.Equal(t, float32(12), tt.At(1, 0, 0))
	assert.Equal(t, float32(23), tt.At(1, 2, 3))
	assert.Equal(t, []float32{16, 17, 18, 19}, tt.Row(1, 1))
	assert.Len(t, tt.Channel(1), 12)

	tt.Set(1, 2, 3, -1)
	assert.Equal(t, float32(-1), tt.Channel(1)[11])
}

func TestCloneEqual(t *testing.T) {
	a := ramp(Shape{Channels: 1, Freq: 2, Time: 2})
	b := a.Clone()

	assert.True(t, a.Equal(b))
	b.Data[0] = 7
	assert.False(t, a.Equal(b))
	assert.Equal(t, float32(0), a.Data[0])

	c := ramp(Shape{Channels: 1, Freq: 4, Time: 1})
	assert.False(t, a.Equal(c))
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0.npy")
	want := ramp(Shape{Channels: 2, Freq: 5, Time: 3})

	require.NoError(t, want.Save(path, npy.Float32))
	got, err := Load(path)

	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0.npy")

	require.NoError(t, ramp(Shape{Channels: 2, Freq: 50, Time: 30}).Save(path, npy.Float32))
	small := ramp(Shape{Channels: 1, Freq: 1, Time: 2})
	require.NoError(t, small.Save(path, npy.Float32))

	got, err := Load(path)
	require.NoError(t, err)
	assert.True(t, small.Equal(got))
}

func TestLoadRejectsWrongRank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flat.npy")
	var buf bytes.Buffer
	require.NoError(t, npy.Write(&buf, npy.Float32, []int{4}, []float32{1, 2, 3, 4}))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	_, err := Load(path)

	assert.ErrorIs(t, err, ErrShape)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.npy"))

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRejectsOverflowingShape(t *testing.T) {
	dict := "{'descr': '<f4', 'fortran_order': False, 'shape': (4611686018427387904, 4, 1), }\n"
	raw := append([]byte("\x93NUMPY\x01\x00"), byte(len(dict)), 0)
	raw = append(raw, dict...)
	raw = append(raw, 0, 0, 0, 0)
	path := filepath.Join(t.TempDir(), "0.npy")
	require.NoError(t, os.WriteFile(path, raw, 0644))

	got, err := Load(path)

	assert.ErrorIs(t, err, npy.ErrFormat)
	assert.Nil(t, got)
}
