package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/neurlang/gostem/chunk"
	"github.com/neurlang/gostem/config"
	"github.com/neurlang/gostem/spectral"
	"github.com/neurlang/gostem/tensor"
	"github.com/neurlang/gostem/track"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	kind := flag.String("kind", "mixture", "Magnitude to invert: mixture or target")
	trackID := flag.String("track", "", "Track id")
	index := flag.Int("index", 0, "Chunk index")
	flag.Parse()

	if flag.NArg() < 1 || *trackID == "" {
		fmt.Println("Usage: fromchunk [-config config.yaml] [-kind mixture|target] -track <id> -index <i> <out.wav>")
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}
	}

	layout := chunk.Layout{Root: cfg.SaveDir, Target: cfg.Target}
	ref := chunk.Ref{Split: cfg.Split, TrackID: *trackID, Index: *index}

	magKind := chunk.KindMixture
	if *kind == "target" {
		magKind = layout.TargetKind()
	}

	mag, err := tensor.Load(layout.Path(ref, magKind))
	if err != nil {
		fmt.Printf("Error loading magnitude: %v\n", err)
		os.Exit(1)
	}
	phase, err := tensor.Load(layout.Path(ref, chunk.KindPhase))
	if err != nil {
		fmt.Printf("Error loading phase: %v\n", err)
		os.Exit(1)
	}

	stft, err := spectral.New(cfg.Transform.NFFT, cfg.Transform.HopLength)
	if err != nil {
		fmt.Printf("Error creating transform: %v\n", err)
		os.Exit(1)
	}

	wave, err := stft.Inverse(mag, phase, cfg.Transform.ChunkSamples())
	if err != nil {
		fmt.Printf("Error reconstructing %s: %v\n", ref, err)
		os.Exit(1)
	}

	if err := track.SaveWav(flag.Arg(0), wave, cfg.Transform.SampleRate); err != nil {
		fmt.Printf("Error writing wave: %v\n", err)
		os.Exit(1)
	}
}
