// Command view shows an engine live in a desktop window, playing the
// orientation script on a loop.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"cone-renderer/internal/config"
	"cone-renderer/internal/engine"
	"cone-renderer/internal/host"
	"cone-renderer/internal/postprocess"
	"cone-renderer/internal/softgl"

	"github.com/hajimehoshi/ebiten/v2"
)

const tps = 60

type viewer struct {
	cfg    config.Config
	dev    *softgl.Context
	eng    engine.RenderingEngine
	driver *host.Driver
	log    *slog.Logger
	loop   bool

	frame host.Frame
	img   *ebiten.Image
}

func (v *viewer) restart() error {
	d, err := host.NewDriver(v.eng, v.cfg.Script, v.log)
	if err != nil {
		return err
	}
	v.driver = d
	return nil
}

func (v *viewer) Update() error {
	if v.loop && v.driver.Clock() > v.cfg.Script.End()+v.cfg.Duration+1 {
		if err := v.restart(); err != nil {
			return err
		}
	}
	v.frame = v.driver.Step(1.0 / tps)
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	snap := v.dev.Snapshot()
	if snap == nil {
		return
	}
	if v.cfg.Annotate {
		snap = postprocess.Annotate(snap,
			fmt.Sprintf("t=%.2fs %v", v.frame.Time, v.frame.Orientation),
			fmt.Sprintf("%v %3.0f%%", v.frame.State, v.frame.Progress*100),
		)
	}
	b := snap.Bounds()
	if v.img == nil || v.img.Bounds().Dx() != b.Dx() || v.img.Bounds().Dy() != b.Dy() {
		if v.img != nil {
			v.img.Deallocate()
		}
		v.img = ebiten.NewImage(b.Dx(), b.Dy())
	}
	// Frames are opaque, so straight and premultiplied alpha agree.
	v.img.WritePixels(snap.Pix)
	screen.DrawImage(v.img, nil)
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.cfg.RenderSize()
}

func main() {
	configFile := flag.String("config", "", "Path to a .json or .yaml config file")
	engineName := flag.String("engine", "", "Rendering engine: fixed or shader (default: shader)")
	width := flag.Int("width", 0, "Surface width in pixels (default: 320)")
	height := flag.Int("height", 0, "Surface height in pixels (default: 480)")
	script := flag.String("script", "", `Orientation cues, e.g. "0:portrait,0.5:landscape-left"`)
	annotate := flag.Bool("annotate", false, "Overlay time and orientation")
	loop := flag.Bool("loop", true, "Replay the script after it settles")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	err := cfg.Resolve(config.Flags{
		Engine:   *engineName,
		Width:    *width,
		Height:   *height,
		Script:   *script,
		Annotate: *annotate,
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

	dev := softgl.New(logger)
	eng, err := engine.New(variant, dev, engine.Config{Logger: logger, Duration: cfg.Duration, Shaders: shaders})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	rw, rh := cfg.RenderSize()
	if err := eng.Initialize(rw, rh); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing engine: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	v := &viewer{cfg: cfg, dev: dev, eng: eng, log: logger, loop: *loop}
	if err := v.restart(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ebiten.SetWindowTitle(fmt.Sprintf("Cone (%s engine)", variant))
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetTPS(tps)
	if err := ebiten.RunGame(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
