package fluid

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/pthm-cable/cardfx/source"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-5 }

func TestCoverUV(t *testing.T) {
	tests := []struct {
		name              string
		u, v, view, media float32
		wantU, wantV      float32
	}{
		{"center is fixed", 0.5, 0.5, 1, 0.75, 0.5, 0.5},
		{"wider view crops media height", 1, 1, 1, 0.75, 1, 0.5 + 0.5*0.75},
		{"taller view crops media width", 1, 1, 0.5, 0.75, 0.5 + 0.5*0.5/0.75, 1},
		{"matching aspect is identity", 0.2, 0.9, 0.75, 0.75, 0.2, 0.9},
	}
	for _, tt := range tests {
		u, v := CoverUV(tt.u, tt.v, tt.view, tt.media)
		if !near(u, tt.wantU) || !near(v, tt.wantV) {
			t.Errorf("%s: expected (%f,%f), got (%f,%f)", tt.name, tt.wantU, tt.wantV, u, v)
		}
	}
}

func TestFrameAlpha(t *testing.T) {
	if a := FrameAlpha(0.5, 0.5, FrameEdge); a != 1 {
		t.Errorf("expected opaque interior, got %f", a)
	}
	if a := FrameAlpha(-0.1, 0.5, FrameEdge); a != 0 {
		t.Errorf("expected transparent outside, got %f", a)
	}
	if a := FrameAlpha(0.5, 1.2, FrameEdge); a != 0 {
		t.Errorf("expected transparent outside, got %f", a)
	}
	if a := FrameAlpha(FrameEdge/2, 0.5, FrameEdge); a <= 0 || a >= 1 {
		t.Errorf("expected partial alpha within the edge, got %f", a)
	}
}

func TestDisplaceZeroPower(t *testing.T) {
	u, v := Displace(0.3, 0.4, 10, -5, 1, 0)
	if u != 0.3 || v != 0.4 {
		t.Errorf("expected no displacement, got (%f,%f)", u, v)
	}
}

func TestDisplaceAgainstFlow(t *testing.T) {
	u, v := Displace(0.5, 0.5, 1, 0, 0.1, 0.25)
	// Applied twice: 2 * 0.25 * 0.1 along the flow direction.
	if !near(u, 0.45) || math.Abs(float64(v-0.5)) > 1e-4 {
		t.Errorf("expected (0.45, ~0.5), got (%f,%f)", u, v)
	}
}

func TestCompositeCoverFillsCanvas(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 8, 8))
	vel := NewField(4, 4, 2)
	dye := NewField(4, 4, 1)
	frame := source.Frame{W: 2, H: 2, Pix: []color.RGBA{
		{R: 255, A: 255}, {R: 255, A: 255}, {R: 255, A: 255}, {R: 255, A: 255},
	}}
	// Media wider than the view is cropped at the sides, never letterboxed.
	composite(canvas, vel, dye, frame, CompositeParams{ViewAspect: 1, MediaAspect: 2})
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if c := canvas.RGBAAt(x, y); c.A != 255 || c.R != 255 {
				t.Fatalf("pixel (%d,%d): expected opaque red, got %v", x, y, c)
			}
		}
	}
}

func TestCompositeKeepsOrientation(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 4, 4))
	vel := NewField(2, 2, 2)
	dye := NewField(2, 2, 1)
	// Top row white, bottom row black.
	frame := source.Frame{W: 1, H: 2, Pix: []color.RGBA{
		{R: 255, G: 255, B: 255, A: 255}, {A: 255},
	}}
	composite(canvas, vel, dye, frame, CompositeParams{ViewAspect: 1, MediaAspect: 1})
	if top := canvas.RGBAAt(2, 0); top.R < 200 {
		t.Errorf("expected bright top row, got %v", top)
	}
	if bot := canvas.RGBAAt(2, 3); bot.R > 55 {
		t.Errorf("expected dark bottom row, got %v", bot)
	}
}

func TestComputeSize(t *testing.T) {
	opts := DefaultOptions()
	tests := []struct {
		cw, ch, dpr float32
		want        Size
	}{
		{300, 400, 3, Size{SimW: 300, SimH: 400, CanvasW: 600, CanvasH: 800}},
		{100, 50, 1, Size{SimW: 512, SimH: 256, CanvasW: 100, CanvasH: 50}},
		{0, 0, 0, Size{SimW: 256, SimH: 256, CanvasW: 1, CanvasH: 1}},
	}
	for _, tt := range tests {
		got := ComputeSize(tt.cw, tt.ch, tt.dpr, opts)
		if got != tt.want {
			t.Errorf("ComputeSize(%v,%v,%v): expected %+v, got %+v", tt.cw, tt.ch, tt.dpr, tt.want, got)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	bad := []func(*Options){
		func(o *Options) { o.Mode = "spin" },
		func(o *Options) { o.VelocityDissipation = 1.5 },
		func(o *Options) { o.DyeDissipation = -0.1 },
		func(o *Options) { o.TimeStep = 0 },
		func(o *Options) { o.MinSimRes = 0 },
		func(o *Options) { o.SplatsPerFrame = MaxSplatsPerFrame + 1 },
		func(o *Options) { o.WarmStartSplats = -1 },
	}
	for i, mutate := range bad {
		o := DefaultOptions()
		mutate(&o)
		if err := o.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
