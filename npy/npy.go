// Package npy reads and writes little-endian, C-ordered NumPy .npy (format 1.0) arrays.
//
// Decoding goes through github.com/sbinet/npyio. Encoding emits the header itself since
// npyio derives the shape from the Go value (a flat slice is always written as (len,)),
// while chunks are stored as flat buffers with an explicit N-D shape. Half precision is
// carried as raw IEEE 754 binary16 bits through x448/float16.
package npy

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/sbinet/npyio"
	"github.com/x448/float16"
)

// DType is a NumPy descr string.
type DType string

const (
	Float16 DType = "<f2"
	Float32 DType = "<f4"
	Float64 DType = "<f8"
)

var ErrFormat = errors.New("malformed npy data")

var magic = []byte("\x93NUMPY")

const headerAlign = 64

// halfBits stands in for Float16 while npyio decodes, it has no binary16 type.
const halfBits = "<u2"

// ParseDType maps a config name ("float32", "float16") to its descr.
func ParseDType(name string) (DType, error) {
	switch name {
	case "float32", "":
		return Float32, nil
	case "float16":
		return Float16, nil
	case "float64":
		return Float64, nil
	}
	return "", fmt.Errorf("%w: unsupported dtype %q", ErrFormat, name)
}

// Size is the width in bytes of one element.
func (d DType) Size() int {
	switch d {
	case Float16:
		return 2
	case Float32:
		return 4
	case Float64:
		return 8
	}
	return 0
}

// Header describes the array that follows it.
type Header struct {
	DType DType
	Shape []int
}

// Len is the element count implied by the shape. Negative dimensions and
// products that overflow int are errors.
func (h Header) Len() (int, error) {
	n := 1
	for _, d := range h.Shape {
		if d < 0 {
			return 0, fmt.Errorf("%w: negative dimension in shape %v", ErrFormat, h.Shape)
		}
		if d != 0 && n > math.MaxInt/d {
			return 0, fmt.Errorf("%w: shape %v overflows", ErrFormat, h.Shape)
		}
		n *= d
	}
	return n, nil
}

func (h Header) encode() []byte {
	dims := make([]string, len(h.Shape))
	for i, d := range h.Shape {
		dims[i] = strconv.Itoa(d)
	}
	shape := strings.Join(dims, ", ")
	if len(h.Shape) == 1 {
		shape += ","
	}
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", h.DType, shape)

	// magic(6) + version(2) + header length(2) + dict + padding + '\n'
	total := len(magic) + 4 + len(dict) + 1
	pad := (headerAlign - total%headerAlign) % headerAlign

	return []byte(dict + strings.Repeat(" ", pad) + "\n")
}

// Write stores data with the given shape converted to dtype.
func Write(w io.Writer, dtype DType, shape []int, data []float32) error {
	h := Header{DType: dtype, Shape: shape}
	n, err := h.Len()
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("%w: shape %v holds %d elements, got %d", ErrFormat, shape, n, len(data))
	}
	if dtype.Size() == 0 {
		return fmt.Errorf("%w: unsupported dtype %q", ErrFormat, dtype)
	}

	bw := bufio.NewWriter(w)

	dict := h.encode()
	prefix := make([]byte, 0, len(magic)+4)
	prefix = append(prefix, magic...)
	prefix = append(prefix, 1, 0)
	prefix = binary.LittleEndian.AppendUint16(prefix, uint16(len(dict)))
	if _, err := bw.Write(prefix); err != nil {
		return err
	}
	if _, err := bw.Write(dict); err != nil {
		return err
	}

	switch dtype {
	case Float16:
		bits := make([]uint16, len(data))
		for i, v := range data {
			bits[i] = float16.Fromfloat32(v).Bits()
		}
		err = binary.Write(bw, binary.LittleEndian, bits)
	case Float32:
		err = binary.Write(bw, binary.LittleEndian, data)
	case Float64:
		wide := make([]float64, len(data))
		for i, v := range data {
			wide[i] = float64(v)
		}
		err = binary.Write(bw, binary.LittleEndian, wide)
	}
	if err != nil {
		return err
	}

	return bw.Flush()
}

// halfToBits rewrites a '<f2' descr in the header line of raw to '<u2' in place.
// Both descrs are the same width so the header length and padding are unchanged.
func halfToBits(raw []byte) bool {
	end := bytes.IndexByte(raw, '\n')
	if end < 0 {
		return false
	}
	from := []byte("'" + string(Float16) + "'")
	i := bytes.Index(raw[:end], from)
	if i < 0 {
		return false
	}
	copy(raw[i:], "'"+halfBits+"'")
	return true
}

// Read decodes an .npy stream into float32 values.
func Read(r io.Reader) (Header, []float32, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Header{}, nil, err
	}
	if !bytes.HasPrefix(raw, magic) {
		return Header{}, nil, fmt.Errorf("%w: bad magic", ErrFormat)
	}
	half := halfToBits(raw)

	nr, err := npyio.NewReader(bytes.NewReader(raw))
	if err != nil {
		return Header{}, nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	descr := nr.Header.Descr
	if descr.Fortran {
		return Header{}, nil, fmt.Errorf("%w: only C-ordered arrays are supported", ErrFormat)
	}

	h := Header{DType: DType(descr.Type), Shape: descr.Shape}
	if half {
		h.DType = Float16
	}
	if h.DType.Size() == 0 {
		return Header{}, nil, fmt.Errorf("%w: unsupported dtype %q", ErrFormat, descr.Type)
	}
	n, err := h.Len()
	if err != nil {
		return Header{}, nil, err
	}
	if n > len(raw)/h.DType.Size() {
		return Header{}, nil, fmt.Errorf("%w: shape %v exceeds %d bytes of data", ErrFormat, h.Shape, len(raw))
	}

	data := make([]float32, n)
	switch h.DType {
	case Float16:
		bits := make([]uint16, n)
		err = nr.Read(&bits)
		for i, b := range bits {
			data[i] = float16.Frombits(b).Float32()
		}
	case Float32:
		err = nr.Read(&data)
	case Float64:
		wide := make([]float64, n)
		err = nr.Read(&wide)
		for i, v := range wide {
			data[i] = float32(v)
		}
	}
	if err != nil {
		return Header{}, nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if len(data) != n {
		return Header{}, nil, fmt.Errorf("%w: read %d elements, shape %v holds %d", ErrFormat, len(data), h.Shape, n)
	}

	return h, data, nil
}
