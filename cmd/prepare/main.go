package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/k0kubun/go-ansi"
	"github.com/neurlang/gostem/config"
	"github.com/neurlang/gostem/encoder"
	"github.com/neurlang/gostem/track"
	"github.com/schollz/progressbar/v3"
)

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	split := flag.String("split", "", "Split to encode (overrides config)")
	source := flag.String("source", "", "Directory of decoded stems (overrides config)")
	out := flag.String("out", "", "Output directory (overrides config)")
	workers := flag.Int("workers", 0, "Tracks encoded in parallel (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *split != "" {
		cfg.Split = *split
	}
	if *source != "" {
		cfg.SourceDir = *source
	}
	if *out != "" {
		cfg.SaveDir = *out
	}
	if *workers > 0 {
		cfg.Encoder.Workers = *workers
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	provider := track.NewDir(cfg.SourceDir, cfg.Split, cfg.Target)
	ids, err := provider.Tracks()
	if err != nil {
		slog.Error("Failed to list tracks", "source", cfg.SourceDir, "split", cfg.Split, "error", err)
		os.Exit(1)
	}

	bar := progressbar.NewOptions(
		len(ids),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset] Encoding tracks...", cfg.Split)),
	)

	enc, err := encoder.New(cfg, encoder.WithProgress(func(encoder.Result) {
		bar.Add(1)
	}))
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := enc.EncodeAll(ctx, provider)
	bar.Finish()
	fmt.Println()
	if err != nil {
		slog.Error("Encoding interrupted", "error", err)
		os.Exit(1)
	}

	for _, res := range report.Skipped() {
		fmt.Printf("skipped %s: %v\n", res.TrackID, res.Err)
	}
	fmt.Printf("%d/%d tracks encoded, %d chunks written to %s\n",
		report.Encoded(), len(report.Results), report.Chunks(), cfg.SaveDir)
}
