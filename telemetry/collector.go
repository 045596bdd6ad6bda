package telemetry

import "github.com/pthm-cable/cardfx/lifecycle"

// Collector accumulates lifecycle events within time windows and produces
// WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	starts     int
	failures   int
	capability int
	disposals  int
	transient  int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in seconds
// dt: seconds per frame (used for frame-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordTransition counts a gate transition.
func (c *Collector) RecordTransition(tr lifecycle.Transition) {
	switch tr.To {
	case lifecycle.Running:
		c.starts++
	case lifecycle.Failed:
		c.failures++
		if lifecycle.Classify(tr.Err) == lifecycle.ClassCapability {
			c.capability++
		}
	}
	// An instance is released whenever a running gate moves anywhere else.
	if tr.From == lifecycle.Running && tr.To != lifecycle.Running {
		c.disposals++
	}
}

// RecordTransient counts frames skipped after a transient error.
func (c *Collector) RecordTransient(n int) {
	c.transient += n
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// CardCounts is a census of card states at window end.
type CardCounts struct {
	Cards   int
	Visible int
	Running int
	Failed  int
}

// Flush produces a WindowStats and resets counters for the next window.
// frameTimesMS is the frame duration sample for the summary columns.
func (c *Collector) Flush(currentTick int32, cards CardCounts, frameTimesMS []float64) WindowStats {
	sum := Summarize(frameTimesMS)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Cards:   cards.Cards,
		Visible: cards.Visible,
		Running: cards.Running,
		Failed:  cards.Failed,

		Starts:     c.starts,
		Failures:   c.failures,
		Capability: c.capability,
		Disposals:  c.disposals,
		Transient:  c.transient,

		FrameMSMean: sum.Mean,
		FrameMSStd:  sum.Std,
		FrameMSP50:  sum.P50,
		FrameMSP90:  sum.P90,
		FrameMSMax:  sum.Max,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.starts = 0
	c.failures = 0
	c.capability = 0
	c.disposals = 0
	c.transient = 0

	return stats
}

// WindowDurationTicks returns the number of frames per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
