// Package dataset exposes persisted chunks as a fixed-size, randomly addressable collection
// of (mixture, target, phase) tensor triples.
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"sync"

	"github.com/neurlang/gostem/augment"
	"github.com/neurlang/gostem/chunk"
	"github.com/neurlang/gostem/config"
	"github.com/neurlang/gostem/tensor"
)

var (
	// ErrMissingSibling marks an index whose persisted files are incomplete.
	ErrMissingSibling  = errors.New("chunk file missing")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrShapeMismatch   = errors.New("chunk arrays differ in shape")
)

// Sample is one training example. Only Mixture is ever augmented.
type Sample struct {
	Mixture *tensor.Tensor
	Target  *tensor.Tensor
	Phase   *tensor.Tensor
}

type Dataset struct {
	layout chunk.Layout
	split  string
	refs   []chunk.Ref

	augment *augment.SpecAugment
	seed    *uint64

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Dataset)

// WithAugment enables masking of the mixture on every access.
func WithAugment(s augment.SpecAugment) Option {
	return func(d *Dataset) {
		d.augment = &s
	}
}

// WithSeed fixes the seed of the random source used by Get.
func WithSeed(seed uint64) Option {
	return func(d *Dataset) {
		d.seed = &seed
	}
}

// New indexes every mixture chunk of split under root. Sibling files are not checked here;
// a missing target or phase file surfaces from Get for that index.
func New(root, split, target string, opts ...Option) (*Dataset, error) {
	if target == "" || target == string(chunk.KindMixture) || target == string(chunk.KindPhase) {
		return nil, fmt.Errorf("%w: bad target %q", config.ErrInvalid, target)
	}

	d := &Dataset{
		layout: chunk.Layout{Root: root, Target: target},
		split:  split,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.augment != nil && (d.augment.TimeMaskParam < 2 || d.augment.FreqMaskParam < 2) {
		return nil, fmt.Errorf("%w: mask params must be at least 2 (time %d, freq %d)",
			config.ErrInvalid, d.augment.TimeMaskParam, d.augment.FreqMaskParam)
	}

	if d.seed != nil {
		d.rng = rand.New(rand.NewPCG(*d.seed, *d.seed))
	} else {
		d.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	refs, err := d.layout.Discover(split)
	if err != nil {
		return nil, err
	}
	d.refs = refs

	slog.Info("dataset loaded",
		"samples", len(refs),
		"mixture", filepath.Join(split, string(chunk.KindMixture)),
		"target", filepath.Join(split, target),
		"phase", filepath.Join(split, string(chunk.KindPhase)),
		"augment", d.augment != nil,
	)

	return d, nil
}

// FromConfig opens cfg.Split under cfg.SaveDir with the configured augmentation.
func FromConfig(cfg *config.Config) (*Dataset, error) {
	var opts []Option
	if cfg.Augment.Enabled {
		opts = append(opts, WithAugment(augment.SpecAugment{
			TimeMaskParam: cfg.Augment.TimeMaskParam,
			FreqMaskParam: cfg.Augment.FreqMaskParam,
		}))
		if cfg.Augment.Seed != 0 {
			opts = append(opts, WithSeed(cfg.Augment.Seed))
		}
	}
	return New(cfg.SaveDir, cfg.Split, cfg.Target, opts...)
}

func (d *Dataset) Len() int {
	return len(d.refs)
}

func (d *Dataset) bounds(i int) error {
	if i < 0 || i >= len(d.refs) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(d.refs))
	}
	return nil
}

// Ref is the chunk stored at position i.
func (d *Dataset) Ref(i int) (chunk.Ref, error) {
	if err := d.bounds(i); err != nil {
		return chunk.Ref{}, err
	}
	return d.refs[i], nil
}

// Paths returns the three files of position i.
func (d *Dataset) Paths(i int) (mixture, target, phase string, err error) {
	if err := d.bounds(i); err != nil {
		return "", "", "", err
	}
	mixture, target, phase = d.layout.Paths(d.refs[i])
	return mixture, target, phase, nil
}

// Get loads position i, masking the mixture when augmentation is enabled.
// It is safe for concurrent use.
func (d *Dataset) Get(i int) (*Sample, error) {
	s, err := d.load(i)
	if err != nil {
		return nil, err
	}
	if d.augment == nil {
		return s, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.augment.Apply(d.rng, s.Mixture); err != nil {
		return nil, fmt.Errorf("index %d: %w", i, err)
	}
	return s, nil
}

// GetRand is Get with an explicit random source, for callers running their own workers.
func (d *Dataset) GetRand(i int, r *rand.Rand) (*Sample, error) {
	s, err := d.load(i)
	if err != nil {
		return nil, err
	}
	if d.augment == nil {
		return s, nil
	}

	if _, err := d.augment.Apply(r, s.Mixture); err != nil {
		return nil, fmt.Errorf("index %d: %w", i, err)
	}
	return s, nil
}

func (d *Dataset) load(i int) (*Sample, error) {
	if err := d.bounds(i); err != nil {
		return nil, err
	}
	ref := d.refs[i]

	var arrays [3]*tensor.Tensor
	for k, kind := range d.layout.Kinds() {
		path := d.layout.Path(ref, kind)
		t, err := tensor.Load(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s of %s (%s)", ErrMissingSibling, kind, ref, path)
		}
		if err != nil {
			return nil, fmt.Errorf("%s of %s: %w", kind, ref, err)
		}
		arrays[k] = t
	}

	if arrays[0].Shape != arrays[1].Shape || arrays[0].Shape != arrays[2].Shape {
		return nil, fmt.Errorf("%w: %s has mixture %v, target %v, phase %v",
			ErrShapeMismatch, ref, arrays[0].Shape, arrays[1].Shape, arrays[2].Shape)
	}

	return &Sample{Mixture: arrays[0], Target: arrays[1], Phase: arrays[2]}, nil
}
