// Package encoder slices tracks into fixed-duration chunks, transforms every chunk and
// persists mixture log-magnitude, target log-magnitude and mixture phase per chunk.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/neurlang/gostem/chunk"
	"github.com/neurlang/gostem/config"
	"github.com/neurlang/gostem/npy"
	"github.com/neurlang/gostem/spectral"
	"github.com/neurlang/gostem/tensor"
	"github.com/neurlang/gostem/track"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrAlignment marks a track whose mixture and target differ in length or channel count.
	ErrAlignment = errors.New("mixture and target are not aligned")
	// ErrSampleRate marks a track recorded at a rate other than the configured one.
	ErrSampleRate = errors.New("sample rate does not match configuration")
)

// Result is the outcome of encoding one track.
type Result struct {
	TrackID string
	Chunks  int
	Err     error
}

// Report collects per-track results in provider order.
type Report struct {
	Results []Result
}

// Encoded counts tracks that were processed without error, including short ones.
func (r *Report) Encoded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Skipped returns the failed results.
func (r *Report) Skipped() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Chunks is the total number of chunks written.
func (r *Report) Chunks() int {
	n := 0
	for _, res := range r.Results {
		n += res.Chunks
	}
	return n
}

type Encoder struct {
	transform    config.TransformConfig
	split        string
	layout       chunk.Layout
	stft         *spectral.Transform
	dtype        npy.DType
	workers      int
	progressFunc func(Result)
}

type Option func(*Encoder)

// WithProgress registers fn to be called after every track. It may be called concurrently.
func WithProgress(fn func(Result)) Option {
	return func(e *Encoder) {
		e.progressFunc = fn
	}
}

// WithWorkers overrides the number of tracks encoded at once.
func WithWorkers(n int) Option {
	return func(e *Encoder) {
		e.workers = n
	}
}

// New builds an Encoder writing cfg.Split under cfg.SaveDir.
func New(cfg *config.Config, opts ...Option) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dtype, err := npy.ParseDType(cfg.Encoder.DType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}

	stft, err := spectral.New(cfg.Transform.NFFT, cfg.Transform.HopLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}

	e := &Encoder{
		transform: cfg.Transform,
		split:     cfg.Split,
		layout:    chunk.Layout{Root: cfg.SaveDir, Target: cfg.Target},
		stft:      stft,
		dtype:     dtype,
		workers:   cfg.Encoder.Workers,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		slog.Warn("invalid workers, defaulting to 1", "workers", e.workers)
		e.workers = 1
	}

	return e, nil
}

// Layout is the chunk layout the encoder writes.
func (e *Encoder) Layout() chunk.Layout {
	return e.layout
}

// NumChunks is the number of whole chunks in a track of the given sample count.
func (e *Encoder) NumChunks(samples int) int {
	return samples / e.transform.ChunkSamples()
}

func checkAlignment(t *track.Track) error {
	mix, target := t.Mixture, t.Target
	switch {
	case mix.Channels() == 0:
		return fmt.Errorf("%w: track %q has no mixture channels", ErrAlignment, t.ID)
	case mix.Channels() != target.Channels():
		return fmt.Errorf("%w: track %q has %d mixture channels and %d target channels",
			ErrAlignment, t.ID, mix.Channels(), target.Channels())
	case mix.Ragged() || target.Ragged():
		return fmt.Errorf("%w: track %q has channels of different lengths", ErrAlignment, t.ID)
	case mix.Len() != target.Len():
		return fmt.Errorf("%w: track %q has %d mixture samples and %d target samples",
			ErrAlignment, t.ID, mix.Len(), target.Len())
	}
	return nil
}

// EncodeTrack writes every whole chunk of t and returns how many were written.
// A track shorter than one chunk writes nothing and is not an error. Existing files
// for the same chunks are overwritten.
func (e *Encoder) EncodeTrack(t *track.Track) (int, error) {
	if err := checkAlignment(t); err != nil {
		return 0, err
	}
	if t.SampleRate != e.transform.SampleRate {
		return 0, fmt.Errorf("%w: track %q at %d Hz, configured %d Hz",
			ErrSampleRate, t.ID, t.SampleRate, e.transform.SampleRate)
	}

	size := e.transform.ChunkSamples()
	n := e.NumChunks(t.Mixture.Len())
	if n == 0 {
		return 0, nil
	}

	if err := e.layout.MkdirAll(e.split, t.ID); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		ref := chunk.Ref{Split: e.split, TrackID: t.ID, Index: i}
		start := i * size

		if err := e.encodeChunk(ref, t.Mixture.Slice(start, start+size), t.Target.Slice(start, start+size)); err != nil {
			return i, fmt.Errorf("track %q chunk %d: %w", t.ID, i, err)
		}
	}

	return n, nil
}

func (e *Encoder) encodeChunk(ref chunk.Ref, mix, target track.Waveform) error {
	mixSpecs, err := e.stft.Analyze(mix)
	if err != nil {
		return err
	}
	targetSpecs, err := e.stft.Analyze(target)
	if err != nil {
		return err
	}

	arrays := [3]*tensor.Tensor{
		spectral.LogMagnitude(mixSpecs),
		spectral.LogMagnitude(targetSpecs),
		spectral.Phase(mixSpecs),
	}

	for i, kind := range e.layout.Kinds() {
		if err := arrays[i].Save(e.layout.Path(ref, kind), e.dtype); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeID(p track.Provider, id string) Result {
	res := Result{TrackID: id}

	t, err := p.Load(id)
	if err != nil {
		res.Err = fmt.Errorf("load: %w", err)
		return res
	}
	if t.ID == "" {
		t.ID = id
	}

	res.Chunks, res.Err = e.EncodeTrack(t)
	return res
}

// EncodeAll encodes every track the provider lists. A track that fails is reported and
// skipped; the remaining tracks are still encoded. The returned error is non-nil only when
// the tracks cannot be listed or ctx is done.
func (e *Encoder) EncodeAll(ctx context.Context, p track.Provider) (*Report, error) {
	ids, err := p.Tracks()
	if err != nil {
		return nil, err
	}

	report := &Report{Results: make([]Result, len(ids))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, id := range ids {
		report.Results[i] = Result{TrackID: id}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				report.Results[i].Err = err
				return err
			}

			res := e.encodeID(p, id)
			if res.Err != nil {
				slog.Warn("track skipped", "split", e.split, "track", id, "chunks", res.Chunks, "reason", res.Err)
			} else {
				slog.Info("track encoded", "split", e.split, "track", id, "chunks", res.Chunks)
			}

			report.Results[i] = res
			if e.progressFunc != nil {
				e.progressFunc(res)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	slog.Info("split encoded", "split", e.split, "tracks", len(ids),
		"encoded", report.Encoded(), "skipped", len(report.Skipped()), "chunks", report.Chunks())

	return report, nil
}
