package track

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SaveWav writes w as 16-bit PCM, clipping samples to [-1, 1].
func SaveWav(path string, w Waveform, sampleRate int) error {
	if w.Channels() == 0 || w.Ragged() {
		return fmt.Errorf("cannot write %d-channel ragged=%v waveform", w.Channels(), w.Ragged())
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	channels := w.Channels()
	data := make([]int, w.Len()*channels)
	for i := 0; i < w.Len(); i++ {
		for c := 0; c < channels; c++ {
			v := math.Max(-1, math.Min(1, w[c][i]))
			data[i*channels+c] = int(math.Round(v * math.MaxInt16))
		}
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}

	return f.Close()
}
