package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/cardfx/fluid"
	"github.com/pthm-cable/cardfx/spring"
)

// Host phase names for the gallery frame. Effect engines report their own
// phases (fluid.Phases, spring.Phases) into the same tick.
const (
	PhaseLayout     = "gallery_layout"
	PhaseVisibility = "gallery_visibility"
	PhaseReadiness  = "gallery_readiness"
	PhaseLifecycle  = "gallery_lifecycle"
	PhaseInput      = "gallery_input"
	PhaseFade       = "gallery_fade"
	PhaseDraw       = "gallery_draw"
)

// HostPhases lists the gallery phases in execution order.
var HostPhases = []string{
	PhaseLayout, PhaseVisibility, PhaseReadiness, PhaseLifecycle,
	PhaseInput, PhaseFade, PhaseDraw,
}

// AllPhases returns host and effect phases in reporting order.
func AllPhases() []string {
	out := make([]string, 0, len(HostPhases)+len(fluid.Phases)+len(spring.Phases))
	out = append(out, HostPhases...)
	out = append(out, fluid.Phases...)
	out = append(out, spring.Phases...)
	return out
}

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window. It
// satisfies fluid.PhaseObserver and spring.PhaseObserver, so every engine
// stepped within a tick adds to the same phase totals.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	tickStart     time.Time
	phaseStart    time.Time
	lastPhase     string

	// Frame timing (for graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of frames to average over (e.g., 60 for 1 second at 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartTick begins timing a new frame.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase. A phase entered more than
// once per tick accumulates.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndTick finishes timing the current frame and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	// End final phase
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	sample := PerfSample{
		TickDuration: now.Sub(p.tickStart),
		Phases:       p.currentPhases,
	}

	p.samples[p.writeIndex] = sample
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// FrameTimesMS returns the tick durations in the window in milliseconds,
// oldest first.
func (p *PerfCollector) FrameTimesMS() []float64 {
	out := make([]float64, 0, p.sampleCount)
	start := 0
	if p.sampleCount == p.windowSize {
		start = p.writeIndex
	}
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[(start+i)%p.windowSize]
		out = append(out, float64(s.TickDuration)/float64(time.Millisecond))
	}
	return out
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Tick timing
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total tick time
	PhasePct map[string]float64

	// Throughput
	TicksPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	// Frame timing is always available (independent of tick samples)
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:      make(map[string]time.Duration),
			PhasePct:      make(map[string]float64),
			FrameDuration: p.frameDuration,
			FPS:           fps,
		}
	}

	var totalTick time.Duration
	var minTick, maxTick time.Duration
	phaseSum := make(map[string]time.Duration)

	// Iterate over valid samples
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		totalTick += s.TickDuration

		if i == 0 || s.TickDuration < minTick {
			minTick = s.TickDuration
		}
		if s.TickDuration > maxTick {
			maxTick = s.TickDuration
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avgTick := totalTick / time.Duration(p.sampleCount)

	// Calculate phase averages and percentages
	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avgTick > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avgTick) * 100
		}
	}

	// Calculate throughput
	var ticksPerSec float64
	if avgTick > 0 {
		ticksPerSec = float64(time.Second) / float64(avgTick)
	}

	return PerfStats{
		AvgTickDuration: avgTick,
		MinTickDuration: minTick,
		MaxTickDuration: maxTick,
		PhaseAvg:        phaseAvg,
		PhasePct:        phasePct,
		TicksPerSecond:  ticksPerSec,
		FrameDuration:   p.frameDuration,
		FPS:             fps,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}

	for _, phase := range AllPhases() {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd     int32   `csv:"window_end"`
	AvgTickUS     int64   `csv:"avg_tick_us"`
	MinTickUS     int64   `csv:"min_tick_us"`
	MaxTickUS     int64   `csv:"max_tick_us"`
	TicksPerSec   float64 `csv:"ticks_per_sec"`
	FPS           float64 `csv:"fps"`
	LayoutPct     float64 `csv:"gallery_layout_pct"`
	VisibilityPct float64 `csv:"gallery_visibility_pct"`
	ReadinessPct  float64 `csv:"gallery_readiness_pct"`
	LifecyclePct  float64 `csv:"gallery_lifecycle_pct"`
	InputPct      float64 `csv:"gallery_input_pct"`
	FadePct       float64 `csv:"gallery_fade_pct"`
	DrawPct       float64 `csv:"gallery_draw_pct"`
	IngestPct     float64 `csv:"fluid_ingest_pct"`
	InjectPct     float64 `csv:"fluid_inject_pct"`
	DivergencePct float64 `csv:"fluid_divergence_pct"`
	PressurePct   float64 `csv:"fluid_pressure_pct"`
	GradientPct   float64 `csv:"fluid_gradient_pct"`
	AdvectPct     float64 `csv:"fluid_advect_pct"`
	CompositePct  float64 `csv:"fluid_composite_pct"`
	CouplePct     float64 `csv:"spring_couple_pct"`
	PointerPct    float64 `csv:"spring_pointer_pct"`
	WobblePct     float64 `csv:"spring_wobble_pct"`
	IntegratePct  float64 `csv:"spring_integrate_pct"`
	RenderPct     float64 `csv:"spring_render_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:     windowEnd,
		AvgTickUS:     s.AvgTickDuration.Microseconds(),
		MinTickUS:     s.MinTickDuration.Microseconds(),
		MaxTickUS:     s.MaxTickDuration.Microseconds(),
		TicksPerSec:   s.TicksPerSecond,
		FPS:           s.FPS,
		LayoutPct:     s.PhasePct[PhaseLayout],
		VisibilityPct: s.PhasePct[PhaseVisibility],
		ReadinessPct:  s.PhasePct[PhaseReadiness],
		LifecyclePct:  s.PhasePct[PhaseLifecycle],
		InputPct:      s.PhasePct[PhaseInput],
		FadePct:       s.PhasePct[PhaseFade],
		DrawPct:       s.PhasePct[PhaseDraw],
		IngestPct:     s.PhasePct[fluid.PhaseIngest],
		InjectPct:     s.PhasePct[fluid.PhaseInject],
		DivergencePct: s.PhasePct[fluid.PhaseDivergence],
		PressurePct:   s.PhasePct[fluid.PhasePressure],
		GradientPct:   s.PhasePct[fluid.PhaseGradient],
		AdvectPct:     s.PhasePct[fluid.PhaseAdvect],
		CompositePct:  s.PhasePct[fluid.PhaseComposite],
		CouplePct:     s.PhasePct[spring.PhaseCouple],
		PointerPct:    s.PhasePct[spring.PhasePointer],
		WobblePct:     s.PhasePct[spring.PhaseWobble],
		IntegratePct:  s.PhasePct[spring.PhaseIntegrate],
		RenderPct:     s.PhasePct[spring.PhaseRender],
	}
}
