package viewport

// Scroller is the vertical page camera over the card grid. Page
// coordinates have the origin at the top of the content; the screen shows
// a window of ViewportH pixels starting at Offset.
type Scroller struct {
	// Offset is the page y shown at the top of the screen
	Offset float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// ContentH is the full page height
	ContentH float32
}

// NewScroller creates a scroller at the top of the page.
func NewScroller(viewportW, viewportH, contentH float32) *Scroller {
	return &Scroller{ViewportW: viewportW, ViewportH: viewportH, ContentH: contentH}
}

// PageToScreen converts a page rectangle to screen space.
func (s *Scroller) PageToScreen(r Rect) Rect {
	r.Y -= s.Offset
	return r
}

// ScreenToPage converts screen coordinates to page coordinates.
func (s *Scroller) ScreenToPage(sx, sy float32) (px, py float32) {
	return sx, sy + s.Offset
}

// Screen returns the screen rectangle.
func (s *Scroller) Screen() Rect {
	return Rect{W: s.ViewportW, H: s.ViewportH}
}

// IsVisible reports whether a page rectangle intersects the screen grown
// by margin.
func (s *Scroller) IsVisible(r Rect, margin float32) bool {
	return s.PageToScreen(r).Intersects(s.Screen(), margin)
}

// MaxOffset returns the furthest the page can scroll.
func (s *Scroller) MaxOffset() float32 {
	return max(0, s.ContentH-s.ViewportH)
}

// ScrollBy moves the page by dy screen pixels, clamped to the content.
func (s *Scroller) ScrollBy(dy float32) {
	s.Offset = clamp(s.Offset+dy, 0, s.MaxOffset())
}

// Resize updates the screen and content size and keeps the offset valid.
func (s *Scroller) Resize(viewportW, viewportH, contentH float32) {
	s.ViewportW = viewportW
	s.ViewportH = viewportH
	s.ContentH = contentH
	s.Offset = clamp(s.Offset, 0, s.MaxOffset())
}

// Reset returns to the top of the page.
func (s *Scroller) Reset() {
	s.Offset = 0
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
