// Package telemetry provides frame timing, effect lifecycle events, and CSV
// output for the card gallery.
package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/cardfx/lifecycle"
)

// LifecycleEvent is one gate transition for one card.
type LifecycleEvent struct {
	Frame  int32  `csv:"frame"`
	Card   string `csv:"card"`
	Source string `csv:"source"`
	From   string `csv:"from"`
	To     string `csv:"to"`
	Class  string `csv:"class"`
	Err    string `csv:"error"`
}

// NewLifecycleEvent converts a gate transition.
func NewLifecycleEvent(frame int32, card string, tr lifecycle.Transition) LifecycleEvent {
	ev := LifecycleEvent{
		Frame:  frame,
		Card:   card,
		Source: tr.Source,
		From:   tr.From.String(),
		To:     tr.To.String(),
	}
	if tr.Err != nil {
		ev.Err = tr.Err.Error()
		ev.Class = lifecycle.Classify(tr.Err).String()
	}
	return ev
}

// LogValue implements slog.LogValuer for structured logging.
func (e LifecycleEvent) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("frame", int(e.Frame)),
		slog.String("card", e.Card),
		slog.String("from", e.From),
		slog.String("to", e.To),
	}
	if e.Err != "" {
		attrs = append(attrs, slog.String("class", e.Class), slog.String("error", e.Err))
	}
	return slog.GroupValue(attrs...)
}
