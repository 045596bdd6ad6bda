// Field dump tool - runs the fluid effect on the CPU solver and writes the
// dye field as a heatmap and the composited card as PNG files.
//
// Usage: go run ./cmd/fielddump -frames 120 -out-dir dump
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pthm-cable/cardfx/config"
	"github.com/pthm-cable/cardfx/fluid"
	"github.com/pthm-cable/cardfx/gallery"
	"github.com/pthm-cable/cardfx/motion"
	"github.com/pthm-cable/cardfx/viewport"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	video := flag.String("video", "noise:1", "Frame directory or noise:<seed>")
	frames := flag.Int("frames", 120, "Frames to simulate")
	every := flag.Int("every", 0, "Also dump every N frames (0 = final frame only)")
	outDir := flag.String("out-dir", "dump", "Output directory")
	width := flag.Int("width", 360, "Card width")
	height := flag.Int("height", 480, "Card height")
	workers := flag.Int("workers", runtime.GOMAXPROCS(0), "Solver worker goroutines (1 = serial)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	sc := cfg.Source
	sc.BufferFrames = 0
	src, err := gallery.OpenSource(*video, sc)
	if err != nil {
		slog.Error("failed to open video", "error", err)
		os.Exit(1)
	}

	opts := cfg.Fluid
	if opts.Seed == 0 {
		opts.Seed = motion.SeedFor(*video, "")
	}
	solver := fluid.NewSolver()
	solver.SetWorkers(*workers)
	vp := viewport.New(viewport.Rect{W: float32(*width), H: float32(*height)}, 1)
	engine, err := fluid.New(opts, src, vp, solver)
	if err != nil {
		slog.Error("failed to create fluid engine", "error", err)
		os.Exit(1)
	}
	defer engine.Dispose()

	size := engine.Size()
	slog.Info("fluid engine ready",
		"seed", engine.Seed(),
		"sim", fmt.Sprintf("%dx%d", size.SimW, size.SimH),
		"canvas", fmt.Sprintf("%dx%d", size.CanvasW, size.CanvasH),
	)

	dt := cfg.Derived.DT
	for i := 1; i <= *frames; i++ {
		src.Advance(dt)
		if err := engine.Step(dt); err != nil {
			slog.Error("frame failed", "frame", i, "error", err)
			os.Exit(1)
		}
		if i == *frames || (*every > 0 && i%*every == 0) {
			if err := dump(*outDir, i, solver); err != nil {
				slog.Error("failed to dump frame", "frame", i, "error", err)
				os.Exit(1)
			}
		}
	}

	slog.Info("fluid run complete",
		"frames", engine.Frames(),
		"splats", len(solver.Splats),
		"dye_energy", solver.DyeEnergy(),
		"dye_max", solver.DyeMax(),
		"velocity_energy", solver.VelocityEnergy(),
		"max_divergence", solver.MaxAbsDivergence(),
	)
}

// dump writes dye_NNNN.png and composite_NNNN.png for the current state.
func dump(dir string, frame int, s *fluid.Solver) error {
	scale := s.DyeMax()
	if err := writePNG(filepath.Join(dir, fmt.Sprintf("dye_%04d.png", frame)), Heatmap(s.Dye(), 0, scale)); err != nil {
		return err
	}
	return writePNG(filepath.Join(dir, fmt.Sprintf("composite_%04d.png", frame)), s.Canvas())
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
