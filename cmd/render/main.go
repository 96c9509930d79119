package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"cone-renderer/internal/config"
	"cone-renderer/internal/engine"
	"cone-renderer/internal/gles"
	"cone-renderer/internal/host"
	"cone-renderer/internal/record"
	"cone-renderer/internal/softgl"

	"golang.org/x/term"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to a .json or .yaml config file")
	engineName := flag.String("engine", "", "Rendering engine: fixed or shader (default: shader)")
	width := flag.Int("width", 0, "Output width in pixels (default: 320)")
	height := flag.Int("height", 0, "Output height in pixels (default: 480)")
	frames := flag.Int("frames", 0, "Number of frames (default: until the script settles)")
	fps := flag.Float64("fps", 0, "Frames per second of script time (default: 30)")
	outputDir := flag.String("output", "", "Output directory (default: frames)")
	format := flag.String("format", "", "Image format: webp or tga (default: webp)")
	workers := flag.Int("workers", 0, "Number of encoder goroutines (default: NumCPU)")
	script := flag.String("script", "", `Orientation cues, e.g. "0:portrait,0.5:landscape-left"`)
	annotate := flag.Bool("annotate", false, "Stamp time and orientation onto each frame")
	verbose := flag.Bool("v", false, "Debug logging")

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	err := cfg.Resolve(config.Flags{
		Engine:    *engineName,
		Width:     *width,
		Height:    *height,
		Frames:    *frames,
		FPS:       *fps,
		OutputDir: *outputDir,
		Format:    *format,
		Workers:   *workers,
		Script:    *script,
		Annotate:  *annotate,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	variant, _ := cfg.Variant()
	shaders, err := cfg.LoadShaders()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Engine on the software device
	dev := softgl.New(logger)
	eng, err := engine.New(variant, dev, engine.Config{
		Logger:   logger,
		Duration: cfg.Duration,
		Shaders:  shaders,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	rw, rh := cfg.RenderSize()
	if err := eng.Initialize(rw, rh); err != nil {
		var se *engine.ShaderError
		if errors.As(err, &se) {
			fmt.Fprintf(os.Stderr, "Shader %s failed:\n%s\n", se.Stage, se.Log)
		} else {
			fmt.Fprintf(os.Stderr, "Error initializing engine: %v\n", err)
		}
		os.Exit(1)
	}
	defer eng.Close()

	driver, err := host.NewDriver(eng, cfg.Script, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := record.Options{
		OutputDir: cfg.OutputDir,
		Format:    record.Format(cfg.Format),
		Width:     cfg.Width,
		Height:    cfg.Height,
		Workers:   cfg.Workers,
		Annotate:  cfg.Annotate,
		Total:     cfg.Frames,
		Logger:    logger,
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		opts.Progress = os.Stderr
	}
	rec, err := record.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Print summary
	fmt.Printf("Cone renderer (%s engine) → %s\n", variant, cfg.Format)
	fmt.Printf("Frames: %d at %g fps, %dx%d (x%d supersample), Workers: %d\n",
		cfg.Frames, cfg.FPS, cfg.Width, cfg.Height, cfg.Supersample, cfg.Workers)
	fmt.Printf("Script: %s\n", cfg.Script)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	runErr := driver.RunFixed(ctx, cfg.Frames, cfg.FPS, func(f host.Frame) error {
		if code := dev.GetError(); code != gles.NoError {
			logger.Warn("gl error", "frame", f.Index, "error", gles.ErrorString(code))
		}
		return rec.Submit(ctx, record.Frame{Frame: f, Image: dev.Snapshot()})
	})
	results := rec.Close()

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Stopped early: %v\n", runErr)
	}

	failed := record.Failed(results)
	fmt.Printf("Rendered: %d/%d\n", len(results)-len(failed), cfg.Frames)

	if len(failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failed))
		limit := 20
		if len(failed) < limit {
			limit = len(failed)
		}
		for _, r := range failed[:limit] {
			fmt.Printf("  frame %d: %v\n", r.Index, r.Err)
		}
	}

	// Write manifest
	manifest := record.Manifest{
		Engine: variant.String(),
		Width:  cfg.Width,
		Height: cfg.Height,
		FPS:    cfg.FPS,
		Script: cfg.Script.String(),
		Format: record.Format(cfg.Format),
	}
	manifest.AddResults(results)
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := record.WriteManifest(manifestPath, manifest); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if len(failed) > 0 || runErr != nil {
		eng.Close()
		os.Exit(1)
	}
}
