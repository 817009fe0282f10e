package npy

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteHeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Float32, []int{2, 3, 4}, make([]float32, 24)))

	raw := buf.Bytes()
	assert.Equal(t, "\x93NUMPY", string(raw[:6]))
	assert.Equal(t, []byte{1, 0}, raw[6:8])

	hlen := int(binary.LittleEndian.Uint16(raw[8:10]))
	assert.Zero(t, (10+hlen)%64)
	assert.Equal(t, byte('\n'), raw[10+hlen-1])
	assert.Contains(t, string(raw[10:10+hlen]), "'descr': '<f4'")
	assert.Contains(t, string(raw[10:10+hlen]), "'shape': (2, 3, 4)")
	assert.Len(t, raw, 10+hlen+24*4)
}

func TestReadWrite(t *testing.T) {
	data := []float32{0, 1, -1, 0.5, float32(math.Pi), -2.25}

	tests := []struct {
		dtype DType
		delta float64
	}{
		{Float32, 0},
		{Float64, 0},
		{Float16, 2e-3},
	}

	for _, tt := range tests {
		t.Run(string(tt.dtype), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, tt.dtype, []int{2, 3}, data))

			h, got, err := Read(&buf)
			require.NoError(t, err)
			assert.Equal(t, tt.dtype, h.DType)
			assert.Equal(t, []int{2, 3}, h.Shape)
			require.Len(t, got, len(data))
			for i := range data {
				assert.InDelta(t, data[i], got[i], tt.delta)
			}
		})
	}
}

func TestWriteDeterministic(t *testing.T) {
	data := []float32{1, 2, 3, 4}
	var a, b bytes.Buffer

	require.NoError(t, Write(&a, Float32, []int{4}, data))
	require.NoError(t, Write(&b, Float32, []int{4}, data))

	assert.Equal(t, a.Bytes(), b.Bytes())
	assert.Contains(t, a.String(), "'shape': (4,)")
}

func TestWriteShapeMismatch(t *testing.T) {
	err := Write(&bytes.Buffer{}, Float32, []int{2, 2}, []float32{1, 2, 3})

	assert.ErrorIs(t, err, ErrFormat)
}

func rawNpy(dict string, payload int) []byte {
	dict += "\n"
	b := append([]byte("\x93NUMPY\x01\x00"), byte(len(dict)), 0)
	b = append(b, dict...)
	return append(b, make([]byte, payload)...)
}

func TestHeaderLen(t *testing.T) {
	n, err := Header{Shape: []int{2, 1025, 259}}.Len()
	require.NoError(t, err)
	assert.Equal(t, 2*1025*259, n)

	n, err = Header{Shape: []int{3, 0, 7}}.Len()
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = Header{Shape: []int{1 << 62, 4}}.Len()
	assert.ErrorIs(t, err, ErrFormat)

	_, err = Header{Shape: []int{2, -1}}.Len()
	assert.ErrorIs(t, err, ErrFormat)
}

func TestReadRejects(t *testing.T) {
	fortran := rawNpy("{'descr': '<f4', 'fortran_order': True, 'shape': (1,), }", 4)
	intArray := rawNpy("{'descr': '<i4', 'fortran_order': False, 'shape': (1,), }", 4)
	// 2^62 * 4 wraps to 0 in int arithmetic.
	overflow := rawNpy("{'descr': '<f4', 'fortran_order': False, 'shape': (4611686018427387904, 4, 1), }", 4)
	oversized := rawNpy("{'descr': '<f4', 'fortran_order': False, 'shape': (2, 1025, 259), }", 64)
	var truncated bytes.Buffer
	require.NoError(t, Write(&truncated, Float32, []int{4}, []float32{1, 2, 3, 4}))

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", []byte("NOTNUMPY\x01\x00\x00\x00")},
		{"fortran order", fortran},
		{"integer dtype", intArray},
		{"truncated", truncated.Bytes()[:truncated.Len()-3]},
		{"overflowing shape", overflow},
		{"shape beyond data", oversized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Read(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestParseDType(t *testing.T) {
	d, err := ParseDType("float16")
	require.NoError(t, err)
	assert.Equal(t, Float16, d)

	d, err = ParseDType("float32")
	require.NoError(t, err)
	assert.Equal(t, Float32, d)

	_, err = ParseDType("int8")
	assert.ErrorIs(t, err, ErrFormat)
}
