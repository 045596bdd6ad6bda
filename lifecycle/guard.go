package lifecycle

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Guard is the frame-callback boundary. Nothing returned or panicked by the
// wrapped function escapes it: transient errors are counted and dropped,
// anything else halts the guard and is reported exactly once.
type Guard struct {
	name      string
	onFatal   func(error)
	halted    bool
	err       error
	transient uint64
}

// NewGuard creates a guard. onFatal runs once, on the first fatal error.
func NewGuard(name string, onFatal func(error)) *Guard {
	return &Guard{name: name, onFatal: onFatal}
}

// Run calls fn unless the guard has halted. It returns the fatal error on
// the call that halts the guard and nil otherwise.
func (g *Guard) Run(fn func() error) (fatal error) {
	if g.halted {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			fatal = g.halt(&PanicError{Value: r, Stack: debug.Stack()})
		}
	}()

	err := fn()
	switch Classify(err) {
	case ClassNone:
		return nil
	case ClassTransient:
		g.transient++
		slog.Debug("frame skipped", "effect", g.name, "error", err)
		return nil
	default:
		return g.halt(err)
	}
}

// Halted reports whether a fatal error stopped the guard.
func (g *Guard) Halted() bool { return g.halted }

// Err returns the fatal error, if any.
func (g *Guard) Err() error { return g.err }

// Transient returns how many transient errors were swallowed.
func (g *Guard) Transient() uint64 { return g.transient }

func (g *Guard) halt(err error) error {
	g.halted = true
	g.err = err
	attrs := []any{"effect", g.name, "error", err}
	if p, ok := err.(*PanicError); ok {
		attrs = append(attrs, "stack", string(p.Stack))
	}
	slog.Error("frame loop halted", attrs...)
	if g.onFatal != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("fatal handler panicked", "effect", g.name, "panic", r)
				}
			}()
			g.onFatal(err)
		}()
	}
	return fmt.Errorf("%s: %w", g.name, err)
}
