package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cardfx/config"
	"github.com/pthm-cable/cardfx/gallery"
	"github.com/pthm-cable/cardfx/renderer"
	"github.com/pthm-cable/cardfx/telemetry"
	"github.com/pthm-cable/cardfx/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics (CPU fluid solver, no mesh drawing)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")
	dev := flag.Bool("dev", false, "Start with the developer overlay shown")
	logEvents := flag.Bool("log-events", false, "Log every lifecycle event")
	workers := flag.Int("workers", 0, "Headless fluid solver workers per card (0 or 1 = serial)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	opts := gallery.Options{
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
	}
	if *logEvents {
		opts.OnEvent = func(ev telemetry.LifecycleEvent) {
			slog.Info("lifecycle", "event", ev)
		}
	}

	if *headless {
		runHeadless(cfg, opts, *maxFrames, *workers)
		return
	}
	runWindow(cfg, opts, *maxFrames, *dev)
}

// runHeadless steps the gallery at the configured frame rate with CPU
// backends and no window.
func runHeadless(cfg *config.Config, opts gallery.Options, maxFrames, workers int) {
	opts.Backends = gallery.HeadlessBackends{Workers: workers}
	g, err := gallery.New(cfg, opts)
	if err != nil {
		slog.Error("failed to create gallery", "error", err)
		os.Exit(1)
	}
	defer g.Unload()

	slog.Info("starting headless gallery",
		"cards", len(cfg.Gallery.Cards),
		"dt", cfg.Derived.DT,
		"max_frames", maxFrames,
		"workers", workers,
	)

	for {
		g.Update(cfg.Derived.DT, gallery.Input{})

		if maxFrames > 0 && int(g.Tick()) >= maxFrames {
			slog.Info("max frames reached", "frame", g.Tick())
			return
		}
	}
}

// runWindow opens the raylib window and runs the gallery until it closes.
func runWindow(cfg *config.Config, opts gallery.Options, maxFrames int, dev bool) {
	rl.SetTraceLogCallback(traceToSlog)
	rl.SetConfigFlags(rl.FlagMsaa4xHint | rl.FlagWindowResizable | rl.FlagWindowHighdpi)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	dpr := float32(cfg.Screen.PixelRatio)
	if dpr <= 0 {
		dpr = rl.GetWindowScaleDPI().X
	}

	painter := renderer.NewCardPainter(int32(cfg.Screen.Width), int32(cfg.Screen.Height))
	defer painter.Unload()
	overlay := ui.NewCardOverlay()
	if dev {
		painter.Overlay = overlay.Draw
	}

	opts.Backends = renderer.GPUBackends{MaxDPR: cfg.Fluid.MaxDPR}
	opts.Painter = painter
	opts.PixelRatio = dpr
	g, err := gallery.New(cfg, opts)
	if err != nil {
		slog.Error("failed to create gallery", "error", err)
		os.Exit(1)
	}
	defer g.Unload()

	hud := ui.NewHUD()
	perfPanel := ui.NewPerfPanel(int32(cfg.Screen.Width)-330, 10)
	showHUD := dev
	showPerf := false

	for !rl.WindowShouldClose() {
		if rl.IsWindowResized() {
			w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
			g.Resize(float32(w), float32(h))
			painter.Resize(w, h)
			perfPanel.SetPosition(w-330, 10)
		}
		if rl.IsKeyPressed(rl.KeyF1) {
			showHUD = !showHUD
			if showHUD {
				painter.Overlay = overlay.Draw
			} else {
				painter.Overlay = nil
			}
		}
		if rl.IsKeyPressed(rl.KeyF3) {
			showPerf = !showPerf
		}

		mouse := rl.GetMousePosition()
		in := gallery.Input{
			MouseX:   mouse.X,
			MouseY:   mouse.Y,
			HasMouse: rl.IsCursorOnScreen(),
			Wheel:    rl.GetMouseWheelMove(),
		}
		dt := min(float64(rl.GetFrameTime()), 0.1)
		g.Update(dt, in)

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		g.Draw()
		if showHUD {
			hud.Draw(ui.HUDData{
				Title:  cfg.Screen.Title,
				Counts: g.Counts(),
				Tick:   g.Tick(),
				FPS:    rl.GetFPS(),
				Scroll: g.Scroll(),
			})
			hud.DrawControls(int32(rl.GetScreenHeight()), "Wheel: scroll | F1: overlay | F3: perf")
		}
		if showPerf {
			perfPanel.Draw(g.Perf().Stats())
		}
		rl.EndDrawing()

		if maxFrames > 0 && int(g.Tick()) >= maxFrames {
			break
		}
	}
}

// traceToSlog routes raylib's trace log into slog.
func traceToSlog(level int, text string) {
	switch rl.TraceLogLevel(level) {
	case rl.LogError, rl.LogFatal:
		slog.Error("raylib", "msg", text)
	case rl.LogWarning:
		slog.Warn("raylib", "msg", text)
	case rl.LogInfo:
		slog.Info("raylib", "msg", text)
	default:
		slog.Debug("raylib", "msg", text)
	}
}
