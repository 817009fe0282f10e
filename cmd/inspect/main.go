package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/neurlang/gostem/config"
	"github.com/neurlang/gostem/dataset"
	"github.com/neurlang/gostem/preview"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	split := flag.String("split", "", "Split to open (overrides config)")
	index := flag.Int("index", 0, "Sample to load")
	pngPath := flag.String("png", "", "Write the sample's mixture as a PNG image")
	scalerLimit := flag.Int("scaler", -1, "Fit normalisation statistics over the first n samples (0 for all)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
	}
	if *split != "" {
		cfg.Split = *split
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)})))

	ds, err := dataset.FromConfig(cfg)
	if err != nil {
		slog.Error("Failed to open dataset", "error", err)
		os.Exit(1)
	}
	fmt.Printf("%d samples in %s/%s\n", ds.Len(), cfg.SaveDir, cfg.Split)
	if ds.Len() == 0 {
		return
	}

	ref, err := ds.Ref(*index)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	sample, err := ds.Get(*index)
	if err != nil {
		fmt.Printf("Error loading sample %d: %v\n", *index, err)
		os.Exit(1)
	}
	fmt.Printf("sample %d (%s): mixture %v, %s %v, phase %v\n",
		*index, ref, sample.Mixture.Shape, cfg.Target, sample.Target.Shape, sample.Phase.Shape)

	if *pngPath != "" {
		if err := preview.Save(*pngPath, sample.Mixture, true); err != nil {
			fmt.Printf("Error writing preview: %v\n", err)
			os.Exit(1)
		}
	}

	if *scalerLimit >= 0 {
		scaler, err := dataset.FitScaler(ds, *scalerLimit)
		if err != nil {
			fmt.Printf("Error fitting scaler: %v\n", err)
			os.Exit(1)
		}
		last := len(scaler.Mean) - 1
		fmt.Printf("scaler over %d values: bin 0 mean %.4f std %.4f, bin %d mean %.4f std %.4f\n",
			scaler.Count, scaler.Mean[0], scaler.Std[0], last, scaler.Mean[last], scaler.Std[last])
	}
}
