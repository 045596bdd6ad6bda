package telemetry

import "log/slog"

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Card census at window end
	Cards   int `csv:"cards"`
	Visible int `csv:"visible"`
	Running int `csv:"running"`
	Failed  int `csv:"failed"`

	// Lifecycle events during window
	Starts     int `csv:"starts"`
	Failures   int `csv:"failures"`
	Capability int `csv:"capability_failures"`
	Disposals  int `csv:"disposals"`
	Transient  int `csv:"transient_skips"`

	// Frame time distribution
	FrameMSMean float64 `csv:"frame_ms_mean"`
	FrameMSStd  float64 `csv:"frame_ms_std"`
	FrameMSP50  float64 `csv:"frame_ms_p50"`
	FrameMSP90  float64 `csv:"frame_ms_p90"`
	FrameMSMax  float64 `csv:"frame_ms_max"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("cards", s.Cards),
		slog.Int("visible", s.Visible),
		slog.Int("running", s.Running),
		slog.Int("failed", s.Failed),
		slog.Int("starts", s.Starts),
		slog.Int("failures", s.Failures),
		slog.Int("capability_failures", s.Capability),
		slog.Int("disposals", s.Disposals),
		slog.Int("transient_skips", s.Transient),
		slog.Float64("frame_ms_mean", s.FrameMSMean),
		slog.Float64("frame_ms_std", s.FrameMSStd),
		slog.Float64("frame_ms_p50", s.FrameMSP50),
		slog.Float64("frame_ms_p90", s.FrameMSP90),
		slog.Float64("frame_ms_max", s.FrameMSMax),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"cards", s.Cards,
		"visible", s.Visible,
		"running", s.Running,
		"failed", s.Failed,
		"starts", s.Starts,
		"failures", s.Failures,
		"disposals", s.Disposals,
		"transient_skips", s.Transient,
		"frame_ms_mean", s.FrameMSMean,
		"frame_ms_p90", s.FrameMSP90,
	)
}
