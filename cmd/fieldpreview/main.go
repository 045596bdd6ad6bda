// Field preview tool - runs one effect card live with sliders for its
// tunables. Changing a tunable rebuilds the engine.
//
// Usage: go run ./cmd/fieldpreview -video noise:1
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/cardfx/config"
	"github.com/pthm-cable/cardfx/fluid"
	"github.com/pthm-cable/cardfx/gallery"
	"github.com/pthm-cable/cardfx/lifecycle"
	"github.com/pthm-cable/cardfx/motion"
	"github.com/pthm-cable/cardfx/renderer"
	"github.com/pthm-cable/cardfx/source"
	"github.com/pthm-cable/cardfx/spring"
	"github.com/pthm-cable/cardfx/viewport"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewW     = 480
	previewH     = 640
	panelWidth   = windowWidth - previewW - 30
)

var effects = []config.EffectKind{config.EffectFluid, config.EffectStretch, config.EffectEdge}

// preview owns the running engine and everything needed to rebuild it.
type preview struct {
	cfg    *config.Config
	video  string
	src    source.FrameSource
	vp     *viewport.Viewport
	kind   config.EffectKind
	fluidO fluid.Options
	stretO spring.Options
	edgeO  spring.Options

	fluidEngine  *fluid.Engine
	fluidGPU     *renderer.FluidGPU
	springEngine *spring.Engine
	mesh         *renderer.SpringMesh
	tracker      viewport.PointerTracker
	err          error
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	video := flag.String("video", "noise:1", "Frame directory or noise:<seed>")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rl.InitWindow(windowWidth, windowHeight, "Effect Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	sc := cfg.Source
	sc.BufferFrames = 0
	src, err := gallery.OpenSource(*video, sc)
	if err != nil {
		slog.Error("failed to open video", "error", err)
		os.Exit(1)
	}

	p := &preview{
		cfg:    cfg,
		video:  *video,
		src:    src,
		vp:     viewport.New(viewport.Rect{X: 10, Y: 10, W: previewW, H: previewH}, 1),
		kind:   config.EffectFluid,
		fluidO: cfg.Fluid,
		stretO: cfg.Stretch,
		edgeO:  cfg.Edge,
	}
	p.fluidO.Mode = fluid.ModePointer
	p.rebuild()
	defer p.dispose()

	for !rl.WindowShouldClose() {
		dt := float64(rl.GetFrameTime())
		p.src.Advance(dt)
		p.input()
		p.step(dt)

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)
		p.draw()
		if p.panel() {
			p.rebuild()
		}
		rl.EndDrawing()
	}
}

// rebuild disposes the current engine and builds one from the current
// tunables.
func (p *preview) rebuild() {
	p.dispose()
	p.err = nil
	p.tracker.Reset()

	switch p.kind {
	case config.EffectFluid:
		opts := p.fluidO
		if opts.Seed == 0 {
			opts.Seed = motion.SeedFor(p.video, "")
		}
		gpu, err := renderer.NewFluidGPU()
		if err != nil {
			p.err = err
			return
		}
		engine, err := fluid.New(opts, p.src, p.vp, gpu)
		if err != nil {
			p.err = err
			return
		}
		p.fluidEngine, p.fluidGPU = engine, gpu
	default:
		opts := p.stretO
		if p.kind == config.EffectEdge {
			opts = p.edgeO
		}
		mesh := renderer.NewSpringMesh(p.src, p.vp, 1)
		engine, err := spring.New(opts, p.src, p.vp, mesh)
		if err != nil {
			p.err = err
			return
		}
		p.springEngine, p.mesh = engine, mesh
	}
}

func (p *preview) dispose() {
	if p.fluidEngine != nil {
		p.fluidEngine.Dispose()
		p.fluidEngine, p.fluidGPU = nil, nil
	}
	if p.springEngine != nil {
		p.springEngine.Dispose()
		p.springEngine, p.mesh = nil, nil
	}
}

func (p *preview) input() {
	m := rl.GetMousePosition()
	ev := p.tracker.Update(p.vp.Rect, m.X, m.Y)
	if ev == viewport.PointerNone {
		return
	}
	lx, ly := p.vp.Local(m.X, m.Y)
	nx, ny := p.vp.ScreenToNDC(m.X, m.Y)
	switch {
	case p.fluidEngine != nil:
		switch ev {
		case viewport.PointerEnter:
			p.fluidEngine.PointerEnter(lx, ly)
		case viewport.PointerMove:
			p.fluidEngine.PointerMove(lx, ly)
		case viewport.PointerLeave:
			p.fluidEngine.PointerLeave()
		}
	case p.springEngine != nil:
		if ev == viewport.PointerLeave || !p.springEngine.PointerNDC(float64(nx), float64(ny)) {
			p.springEngine.PointerLeave()
		}
	}
}

func (p *preview) step(dt float64) {
	var err error
	switch {
	case p.fluidEngine != nil:
		err = p.fluidEngine.Step(dt)
	case p.springEngine != nil:
		err = p.springEngine.Step(dt)
	}
	if lifecycle.Classify(err) == lifecycle.ClassFatal || lifecycle.Classify(err) == lifecycle.ClassCapability {
		p.err = err
		p.dispose()
	}
}

func (p *preview) draw() {
	dst := rl.NewRectangle(p.vp.X, p.vp.Y, p.vp.W, p.vp.H)
	rl.DrawRectangleRec(dst, rl.Black)
	switch {
	case p.fluidGPU != nil:
		renderer.DrawCanvas(p.fluidGPU.Canvas(), dst, 1)
	case p.mesh != nil:
		renderer.DrawCanvas(p.mesh.Canvas(), dst, 1)
	}
	rl.DrawRectangleLines(int32(p.vp.X), int32(p.vp.Y), int32(p.vp.W), int32(p.vp.H), rl.DarkGray)

	statsY := int32(p.vp.Y + p.vp.H + 15)
	if p.err != nil {
		rl.DrawText(p.err.Error(), 15, statsY, 14, rl.Red)
		return
	}
	switch {
	case p.fluidEngine != nil:
		sz := p.fluidEngine.Size()
		rl.DrawText(fmt.Sprintf("Sim: %dx%d  Canvas: %dx%d  Frames: %d", sz.SimW, sz.SimH, sz.CanvasW, sz.CanvasH, p.fluidEngine.Frames()), 15, statsY, 16, rl.DarkGray)
	case p.springEngine != nil:
		sx, sy := p.springEngine.Scale()
		rl.DrawText(fmt.Sprintf("Displacement: %.4f  Scale: %.2fx%.2f", p.springEngine.Mesh().MaxDisplacement(), sx, sy), 15, statsY, 16, rl.DarkGray)
	}
}

// panel draws the controls and reports whether a tunable changed.
func (p *preview) panel() bool {
	x := float32(previewW + 20)
	y := float32(10)
	changed := false

	rl.DrawText("Effect Parameters", int32(x), int32(y), 20, rl.DarkGray)
	y += 35

	for i, k := range effects {
		if gui.Button(rl.Rectangle{X: x + float32(i)*130, Y: y, Width: 120, Height: 30}, toggleText(p.kind == k, "["+string(k)+"]", string(k))) && p.kind != k {
			p.kind = k
			changed = true
		}
	}
	y += 45

	slider := func(label string, v *float32, lo, hi float32, format string) {
		rl.DrawText(label, int32(x), int32(y), 14, rl.Gray)
		y += 18
		nv := gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: float32(panelWidth - 80), Height: 20}, "", "", *v, lo, hi)
		rl.DrawText(fmt.Sprintf(format, *v), int32(x+float32(panelWidth-70)), int32(y+2), 16, rl.DarkGray)
		if nv != *v {
			*v = nv
			changed = true
		}
		y += 30
	}
	slider64 := func(label string, v *float64, lo, hi float32, format string) {
		f := float32(*v)
		old := f
		slider(label, &f, lo, hi, format)
		if f != old {
			*v = float64(f)
		}
	}

	var section any
	switch p.kind {
	case config.EffectFluid:
		o := &p.fluidO
		slider("Distortion power", &o.DistortionPower, 0, 1, "%.2f")
		slider("Cursor power", &o.CursorPower, 0, 60, "%.1f")
		slider("Cursor size", &o.CursorSize, 0.5, 6, "%.2f")
		slider("Velocity dissipation", &o.VelocityDissipation, 0.8, 1, "%.3f")
		slider("Dye dissipation", &o.DyeDissipation, 0.8, 1, "%.3f")
		iters := float32(o.PressureIterations)
		slider("Pressure iterations", &iters, 1, 40, "%.0f")
		o.PressureIterations = int(iters)
		if gui.Button(rl.Rectangle{X: x, Y: y, Width: 120, Height: 30}, "mode: "+string(o.Mode)) {
			if o.Mode == fluid.ModeAuto {
				o.Mode = fluid.ModePointer
			} else {
				o.Mode = fluid.ModeAuto
			}
			changed = true
		}
		y += 45
		section = map[string]fluid.Options{"fluid": *o}
	default:
		o := &p.stretO
		name := "stretch"
		if p.kind == config.EffectEdge {
			o, name = &p.edgeO, "edge"
		}
		slider64("Elasticity", &o.Elasticity, 0, 0.2, "%.3f")
		slider64("Damping", &o.Damping, 0.5, 0.99, "%.3f")
		slider64("Adjacent k", &o.AdjacentK, 0, 0.3, "%.3f")
		slider64("Mouse strength", &o.MouseStrength, 0, 3, "%.2f")
		slider64("Mouse radius", &o.MouseRadius, 0.05, 1, "%.2f")
		slider64("Auto wobble", &o.AutoWobble, 0, 0.01, "%.4f")
		section = map[string]spring.Options{name: *o}
	}

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 120, Height: 30}, "Reset All") {
		p.fluidO, p.stretO, p.edgeO = p.cfg.Fluid, p.cfg.Stretch, p.cfg.Edge
		p.fluidO.Mode = fluid.ModePointer
		changed = true
	}
	y += 45

	// Output YAML
	out, err := yaml.Marshal(section)
	if err == nil {
		rl.DrawText("YAML Config (C to copy):", int32(x), int32(y), 16, rl.DarkGray)
		y += 22
		rl.DrawText(string(out), int32(x), int32(y), 12, rl.Gray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(string(out))
		}
	}
	return changed
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
