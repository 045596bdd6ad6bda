// Shader debug tool - runs one effect on the GPU for a number of frames and
// writes its canvas to a PNG file for inspection.
//
// Usage: go run ./cmd/shaderdebug -effect fluid -frames 90 -out debug.png
package main

import (
	"flag"
	"fmt"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cardfx/config"
	"github.com/pthm-cable/cardfx/fluid"
	"github.com/pthm-cable/cardfx/gallery"
	"github.com/pthm-cable/cardfx/motion"
	"github.com/pthm-cable/cardfx/renderer"
	"github.com/pthm-cable/cardfx/spring"
	"github.com/pthm-cable/cardfx/viewport"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	effect := flag.String("effect", "fluid", "Effect to render: fluid, stretch or edge")
	video := flag.String("video", "noise:1", "Frame directory or noise:<seed>")
	frames := flag.Int("frames", 90, "Frames to simulate before capturing")
	outPath := flag.String("out", "debug.png", "Output PNG path")
	width := flag.Int("width", 360, "Card width")
	height := flag.Int("height", 480, "Card height")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize raylib with hidden window
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(int32(*width), int32(*height), "Shader Debug")
	defer rl.CloseWindow()

	// Frames are captured from the first step, with no buffering delay.
	sc := cfg.Source
	sc.BufferFrames = 0
	src, err := gallery.OpenSource(*video, sc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open video: %v\n", err)
		os.Exit(1)
	}
	vp := viewport.New(viewport.Rect{W: float32(*width), H: float32(*height)}, 1)

	var (
		step    func(dt float64) error
		capture func() *rl.Image
		dispose func()
	)
	switch config.EffectKind(*effect) {
	case config.EffectFluid:
		backend, err := renderer.NewFluidGPU()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Fluid backend unavailable: %v\n", err)
			os.Exit(1)
		}
		opts := cfg.Fluid
		if opts.Seed == 0 {
			opts.Seed = motion.SeedFor(*video, "")
		}
		engine, err := fluid.New(opts, src, vp, backend)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create fluid engine: %v\n", err)
			os.Exit(1)
		}
		step, dispose = engine.Step, engine.Dispose
		capture = func() *rl.Image { return rl.NewImageFromImage(backend.Snapshot()) }

	case config.EffectStretch, config.EffectEdge:
		opts, _ := cfg.SpringOptions(config.EffectKind(*effect))
		mesh := renderer.NewSpringMesh(src, vp, 1)
		engine, err := spring.New(opts, src, vp, mesh)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create spring engine: %v\n", err)
			os.Exit(1)
		}
		step, dispose = engine.Step, engine.Dispose
		capture = func() *rl.Image {
			img := rl.LoadImageFromTexture(mesh.Canvas())
			rl.ImageFlipVertical(img)
			return img
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown effect %q\n", *effect)
		os.Exit(1)
	}
	defer dispose()

	dt := cfg.Derived.DT
	for i := 0; i < *frames; i++ {
		src.Advance(dt)
		if err := step(dt); err != nil {
			fmt.Fprintf(os.Stderr, "Frame %d failed: %v\n", i, err)
			os.Exit(1)
		}
	}

	img := capture()
	success := rl.ExportImage(*img, *outPath)
	rl.UnloadImage(img)

	if success {
		fmt.Printf("%s rendered to: %s (%dx%d, %d frames)\n", *effect, *outPath, *width, *height, *frames)
	} else {
		fmt.Fprintf(os.Stderr, "Failed to export image\n")
		os.Exit(1)
	}
}
