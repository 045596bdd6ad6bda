package fluid

import (
	"math"

	"github.com/pthm-cable/cardfx/motion"
)

// autoPhaseStep is how far the auto phase advances per frame at speed 1.
const autoPhaseStep = 0.016

// AutoInjector produces the ambient motion: a focal point that scans back
// and forth across the card with a slow seeded vertical drift, emitting a
// few jittered splats around itself every frame.
type AutoInjector struct {
	opts  Options
	seed  uint32
	rng   *motion.Rand
	phase float64
}

// NewAutoInjector creates the policy for seed. A zero seed is treated as 1.
func NewAutoInjector(opts Options, seed uint32) *AutoInjector {
	if seed == 0 {
		seed = 1
	}
	rng := motion.NewRand(seed)
	return &AutoInjector{
		opts:  opts,
		seed:  seed,
		rng:   rng,
		phase: rng.Float64() * 1000,
	}
}

// Phase returns the current scan phase.
func (a *AutoInjector) Phase() float64 { return a.phase }

// Focal returns the focal point for phase t in normalized coordinates.
func (a *AutoInjector) Focal(t float64) (cx, cy float64) {
	o1 := float64(a.seed%997) * 0.001
	o2 := float64(a.seed%577) * 0.001

	scan := float64(a.opts.AutoScanSpeed)
	if scan == 0 {
		scan = 0.22
	}
	s := math.Mod(t*scan+o1, 1)
	ping := 1 - math.Abs(2*s-1)
	cx = 0.08 + 0.84*ping

	cy = 0.5 + 0.18*math.Sin(t*0.17+o2)
	cy = clamp64(cy, 0.08, 0.92)
	return cx, cy
}

// Direction returns the unit sweep direction for phase t: mostly
// horizontal, with a per-seed tilt and a slow wobble.
func (a *AutoInjector) Direction(t float64) (dx, dy float64) {
	base := float64(a.seed%1000)/1000*0.35 - 0.175
	wobble := 0.05 * math.Sin(t*0.35+float64(a.seed%97))
	ang := base + wobble
	dx, dy = math.Cos(ang), math.Sin(ang)
	l := math.Max(1e-5, math.Hypot(dx, dy))
	return dx / l, dy / l
}

// Next advances one frame and returns that frame's splats.
func (a *AutoInjector) Next(aspect float32) []Splat {
	a.phase += float64(a.opts.AutoSpeed) * autoPhaseStep
	n := a.opts.SplatsPerFrame
	if n < 1 {
		n = 1
	}
	if n > MaxSplatsPerFrame {
		n = MaxSplatsPerFrame
	}
	out := make([]Splat, 0, n)
	for k := 0; k < n; k++ {
		out = append(out, a.splat(a.phase, k, aspect, false))
	}
	return out
}

// Warm returns the warm-start burst: WarmStartSplats smaller, tighter
// splats around the current focal point. The phase does not advance.
func (a *AutoInjector) Warm(aspect float32) []Splat {
	out := make([]Splat, 0, a.opts.WarmStartSplats)
	for i := 0; i < a.opts.WarmStartSplats; i++ {
		out = append(out, a.splat(a.phase, 0, aspect, true))
	}
	return out
}

// WarmJitter returns the jitter half-width used by Warm.
func (a *AutoInjector) WarmJitter() float64 {
	return a.jitter() * 0.45
}

func (a *AutoInjector) jitter() float64 {
	j := float64(a.opts.AutoJitter)
	if j == 0 {
		j = 0.035
	}
	return j
}

func (a *AutoInjector) splat(t float64, k int, aspect float32, warm bool) Splat {
	cx, cy := a.Focal(t)
	sx, sy := a.Direction(t)

	sizeMul, jitter := 1.0, a.jitter()
	if warm {
		sizeMul = 0.55
		jitter = a.WarmJitter()
	}

	u := clamp64(cx+a.rng.Signed()*jitter, 0.03, 0.97)
	v := clamp64(cy+a.rng.Signed()*jitter, 0.03, 0.97)

	mag := float64(a.opts.AutoVelocity) * (0.75 + 0.25*math.Sin(t*1.1+float64(k)*2))
	dye := float64(a.opts.AutoDye) * (0.85 + 0.15*math.Sin(t*0.9+float64(k)))

	return Splat{
		X:      float32(u),
		Y:      float32(v),
		VX:     float32(sx * mag),
		VY:     float32(sy * mag),
		Dye:    float32(dye * 0.001),
		Radius: a.opts.CursorSize * 0.00075 * float32(sizeMul),
		Aspect: aspect,
	}
}

// pointerGain scales raw pointer deltas into velocity.
const pointerGain = 6

// PointerInjector turns pointer motion over the viewport into at most one
// splat per frame. Coordinates are viewport pixels with y down.
type PointerInjector struct {
	opts          Options
	x, y, dx, dy  float32
	inited, moved bool
}

// NewPointerInjector creates the pointer policy.
func NewPointerInjector(opts Options) *PointerInjector {
	return &PointerInjector{opts: opts}
}

// Resize seeds the previous position on first use so the first real move
// has a reference point.
func (p *PointerInjector) Resize(cw, ch float32) {
	if p.inited {
		return
	}
	p.inited = true
	p.x = cw * 0.6
	p.y = ch * 0.5
}

// Move records a pointer sample. Entering damps the first delta.
func (p *PointerInjector) Move(x, y float32, enter bool) {
	if !p.inited {
		p.inited = true
		p.x, p.y = x, y
		p.dx, p.dy = 0, 0
		p.moved = false
		return
	}
	p.dx = pointerGain * (x - p.x)
	p.dy = pointerGain * (y - p.y)
	p.x, p.y = x, y
	p.moved = true
	if enter {
		p.dx *= 0.25
		p.dy *= 0.25
	}
}

// Leave stops injection until the next move.
func (p *PointerInjector) Leave() {
	p.moved = false
}

// Next returns the splat for this frame, if the pointer moved since the
// last call.
func (p *PointerInjector) Next(cw, ch float32) (Splat, bool) {
	if !p.moved {
		return Splat{}, false
	}
	p.moved = false
	cw = max(1, cw)
	ch = max(1, ch)
	return Splat{
		X:      clamp32(p.x/cw, 0, 1),
		Y:      clamp32(1-p.y/ch, 0, 1),
		VX:     p.dx,
		VY:     -p.dy,
		Dye:    p.opts.CursorPower * 0.001,
		Radius: p.opts.CursorSize * 0.001,
		Aspect: cw / ch,
	}, true
}

func clamp64(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
