// Package chunk defines the persisted chunk layout shared by the encoder and the dataset.
//
// Every chunk is addressed by a Ref (split, track id, chunk index). A Layout resolves a
// Ref to the three sibling array files:
//
//	{root}/{split}/mixture/{track}/{index}.npy
//	{root}/{split}/{target}/{track}/{index}.npy
//	{root}/{split}/phase/{track}/{index}.npy
package chunk

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Ext is the file extension of every persisted array.
const Ext = ".npy"

// Kind names one of the three parallel directory trees.
type Kind string

const (
	KindMixture Kind = "mixture"
	KindPhase   Kind = "phase"
)

var ErrBadPath = errors.New("not a chunk path")

// Ref identifies one chunk of one track within a split.
type Ref struct {
	Split   string
	TrackID string
	Index   int
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s/%d", r.Split, r.TrackID, r.Index)
}

// Layout resolves chunk references under Root for a single target stem.
type Layout struct {
	Root   string
	Target string
}

// TargetKind is the kind directory of the configured target stem.
func (l Layout) TargetKind() Kind {
	return Kind(l.Target)
}

// Kinds lists the three kinds in (mixture, target, phase) order.
func (l Layout) Kinds() [3]Kind {
	return [3]Kind{KindMixture, l.TargetKind(), KindPhase}
}

// Dir is the directory holding every chunk of one track for one kind.
func (l Layout) Dir(split string, kind Kind, trackID string) string {
	return filepath.Join(l.Root, split, string(kind), trackID)
}

// Path is the file of one chunk for one kind.
func (l Layout) Path(ref Ref, kind Kind) string {
	return filepath.Join(l.Dir(ref.Split, kind, ref.TrackID), strconv.Itoa(ref.Index)+Ext)
}

// Paths returns the mixture, target and phase files of ref.
func (l Layout) Paths(ref Ref) (mixture, target, phase string) {
	return l.Path(ref, KindMixture), l.Path(ref, l.TargetKind()), l.Path(ref, KindPhase)
}

// MkdirAll creates the three kind directories of a track. It is idempotent.
func (l Layout) MkdirAll(split, trackID string) error {
	for _, kind := range l.Kinds() {
		dir := l.Dir(split, kind, trackID)
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Parse turns a mixture file path below Root back into its reference.
func (l Layout) Parse(path string) (Ref, error) {
	rel, err := filepath.Rel(l.Root, path)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %s: %v", ErrBadPath, path, err)
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 4 || parts[1] != string(KindMixture) {
		return Ref{}, fmt.Errorf("%w: %s", ErrBadPath, path)
	}
	name, ok := strings.CutSuffix(parts[3], Ext)
	if !ok {
		return Ref{}, fmt.Errorf("%w: %s", ErrBadPath, path)
	}
	index, err := strconv.Atoi(name)
	if err != nil || index < 0 {
		return Ref{}, fmt.Errorf("%w: %s", ErrBadPath, path)
	}
	return Ref{Split: parts[0], TrackID: parts[2], Index: index}, nil
}

// Discover lists every mixture chunk of split, sorted lexicographically by full path.
// Files whose names do not parse as chunk indices are skipped.
func (l Layout) Discover(split string) ([]Ref, error) {
	pattern := filepath.Join(l.Root, split, string(KindMixture), "*", "*"+Ext)
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", pattern, err)
	}
	sort.Strings(paths)

	refs := make([]Ref, 0, len(paths))
	for _, path := range paths {
		ref, err := l.Parse(path)
		if err != nil {
			slog.Warn("skipping unexpected file", "path", path, "error", err)
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
