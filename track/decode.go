package track

import (
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/faiface/beep/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// Audio is a decoded file.
type Audio struct {
	SampleRate int
	Samples    Waveform
}

// Decoder turns an encoded stream into samples in [-1, 1].
type Decoder interface {
	Decode(r io.Reader) (*Audio, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(r io.Reader) (*Audio, error)

func (f DecoderFunc) Decode(r io.Reader) (*Audio, error) {
	return f(r)
}

// Registry maps file extensions (without the dot) to decoders.
type Registry struct {
	codecs map[string]Decoder

	mtx sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

// DefaultRegistry knows wav, flac, mp3 and ogg.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("wav", DecoderFunc(decodeWav))
	r.Register("flac", DecoderFunc(decodeFlac))
	r.Register("mp3", DecoderFunc(decodeMp3))
	r.Register("ogg", DecoderFunc(decodeOgg))
	return r
}

func (r *Registry) Register(ext string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[strings.ToLower(ext)] = d
}

func (r *Registry) Get(ext string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[strings.ToLower(ext)]
	return d, ok
}

// Extensions lists registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	exts := make([]string, 0, len(r.codecs))
	for ext := range r.codecs {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ForPath picks the decoder for a file name.
func (r *Registry) ForPath(path string) (Decoder, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	d, ok := r.Get(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return d, nil
}

func decodeWav(r io.Reader) (*Audio, error) {
	stream, format, err := wav.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}

	rescale := wavRescale(format.Precision)
	frames := make([][2]float64, 0, stream.Len())
	buf := make([][2]float64, 4096)
	for {
		n, ok := stream.Stream(buf)
		for _, f := range buf[:n] {
			frames = append(frames, [2]float64{rescale(f[0]), rescale(f[1])})
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}

	return &Audio{
		SampleRate: int(format.SampleRate),
		Samples:    FromFrames(frames, format.NumChannels),
	}, nil
}

// wavRescale maps beep's output back to the PCM full-scale convention shared by the
// other decoders (sample / 2^(bits-1), unsigned 8-bit centred on 128). beep divides
// signed samples by 2^bits-1 and stretches 8-bit data over [-1, 1] by 255.
func wavRescale(precision int) func(float64) float64 {
	switch precision {
	case 1:
		return func(v float64) float64 {
			return ((v+1)*255/2 - 128) / 128
		}
	case 2, 3:
		bits := uint(8 * precision)
		k := float64(uint64(1)<<bits-1) / float64(uint64(1)<<(bits-1))
		return func(v float64) float64 {
			return v * k
		}
	}
	return func(v float64) float64 { return v }
}

func decodeFlac(r io.Reader) (*Audio, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("flac: %w", err)
	}

	channels := int(stream.Info.NChannels)
	scale := float64(int64(1) << (stream.Info.BitsPerSample - 1))

	out := make(Waveform, channels)
	for c := range out {
		out[c] = make([]float64, 0, stream.Info.NSamples)
	}

	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("flac: %w", err)
		}
		for c := range out {
			for _, s := range frame.Subframes[c].Samples {
				out[c] = append(out[c], float64(s)/scale)
			}
		}
	}

	return &Audio{SampleRate: int(stream.Info.SampleRate), Samples: out}, nil
}

func decodeMp3(r io.Reader) (*Audio, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}

	// go-mp3 always produces 16-bit little-endian interleaved stereo.
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	samples := make([]float64, len(raw)/2)
	for i := range samples {
		samples[i] = float64(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768.0
	}

	w, err := FromInterleaved(samples[:len(samples)/2*2], 2)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	return &Audio{SampleRate: dec.SampleRate(), Samples: w}, nil
}

func decodeOgg(r io.Reader) (*Audio, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ogg: %w", err)
	}

	samples := make([]float64, len(data))
	for i, v := range data {
		samples[i] = float64(v)
	}

	w, err := FromInterleaved(samples, format.Channels)
	if err != nil {
		return nil, fmt.Errorf("ogg: %w", err)
	}
	return &Audio{SampleRate: format.SampleRate, Samples: w}, nil
}
