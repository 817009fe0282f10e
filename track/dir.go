package track

import (
	"fmt"
	"os"
	"path/filepath"
)

const mixtureStem = "mixture"

// Dir loads tracks from {Root}/{Split}/{track}/mixture.{ext} and {Target}.{ext}.
type Dir struct {
	Root     string
	Split    string
	Target   string
	Registry *Registry
}

func NewDir(root, split, target string) *Dir {
	return &Dir{
		Root:     root,
		Split:    split,
		Target:   target,
		Registry: DefaultRegistry(),
	}
}

// Tracks lists the track directories of the split in name order.
func (d *Dir) Tracks() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(d.Root, d.Split))
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// stemPath finds the first file of stem with a registered extension.
func (d *Dir) stemPath(id, stem string) (string, error) {
	for _, ext := range d.Registry.Extensions() {
		path := filepath.Join(d.Root, d.Split, id, stem+"."+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no %s stem for track %q", ErrFileNotLoaded, stem, id)
}

func (d *Dir) loadStem(id, stem string) (*Audio, error) {
	path, err := d.stemPath(id, stem)
	if err != nil {
		return nil, err
	}
	return d.Registry.DecodeFile(path)
}

// Load decodes the mixture and target stems of track id.
func (d *Dir) Load(id string) (*Track, error) {
	mix, err := d.loadStem(id, mixtureStem)
	if err != nil {
		return nil, err
	}
	target, err := d.loadStem(id, d.Target)
	if err != nil {
		return nil, err
	}
	if mix.SampleRate != target.SampleRate {
		return nil, fmt.Errorf("track %q: mixture at %d Hz, %s at %d Hz", id, mix.SampleRate, d.Target, target.SampleRate)
	}

	return &Track{
		ID:         id,
		SampleRate: mix.SampleRate,
		Mixture:    mix.Samples,
		Target:     target.Samples,
	}, nil
}

// DecodeFile opens and decodes path with the decoder registered for its extension.
func (r *Registry) DecodeFile(path string) (*Audio, error) {
	dec, err := r.ForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := dec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if a.Samples.Len() == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrFileNotLoaded, path)
	}
	return a, nil
}
