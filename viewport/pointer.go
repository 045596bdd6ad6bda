package viewport

// PointerEvent is what a PointerTracker reports for one sample.
type PointerEvent int

const (
	PointerNone PointerEvent = iota
	PointerEnter
	PointerMove
	PointerLeave
)

func (e PointerEvent) String() string {
	switch e {
	case PointerEnter:
		return "enter"
	case PointerMove:
		return "move"
	case PointerLeave:
		return "leave"
	default:
		return "none"
	}
}

// PointerTracker turns global mouse samples into enter, move and leave
// edges for one rectangle.
type PointerTracker struct {
	inside    bool
	lastX     float32
	lastY     float32
	hasSample bool
}

// Update feeds a screen-space sample. A sample that stays inside without
// moving reports PointerNone.
func (t *PointerTracker) Update(r Rect, x, y float32) PointerEvent {
	in := r.Contains(x, y)
	moved := !t.hasSample || x != t.lastX || y != t.lastY
	t.lastX, t.lastY, t.hasSample = x, y, true

	switch {
	case in && !t.inside:
		t.inside = true
		return PointerEnter
	case !in && t.inside:
		t.inside = false
		return PointerLeave
	case in && moved:
		return PointerMove
	}
	return PointerNone
}

// Inside reports whether the last sample was inside the rectangle.
func (t *PointerTracker) Inside() bool { return t.inside }

// Reset forgets all samples, reporting a leave if the pointer was inside.
func (t *PointerTracker) Reset() PointerEvent {
	was := t.inside
	*t = PointerTracker{}
	if was {
		return PointerLeave
	}
	return PointerNone
}
