// Package viewport maps between screen space and the per-card surfaces the
// effects render into.
package viewport

import "math"

// Rect is an axis-aligned screen rectangle in CSS pixels, y down.
type Rect struct {
	X, Y, W, H float32
}

// Intersects reports whether r and o overlap once o is grown by margin on
// every side. Touching edges count as overlap.
func (r Rect) Intersects(o Rect, margin float32) bool {
	return r.X <= o.X+o.W+margin && r.X+r.W >= o.X-margin &&
		r.Y <= o.Y+o.H+margin && r.Y+r.H >= o.Y-margin
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Viewport is one card's surface: its on-screen rectangle and the device
// pixel ratio it renders at.
type Viewport struct {
	Rect
	DPR float32
}

// New returns a viewport for rect at device pixel ratio dpr.
func New(rect Rect, dpr float32) *Viewport {
	if dpr <= 0 {
		dpr = 1
	}
	return &Viewport{Rect: rect, DPR: dpr}
}

// Size returns the viewport size in CSS pixels.
func (v *Viewport) Size() (w, h float32) { return v.W, v.H }

// PixelRatio returns the device pixel ratio.
func (v *Viewport) PixelRatio() float32 { return v.DPR }

// Aspect returns width over height, 1 for a degenerate viewport.
func (v *Viewport) Aspect() float32 {
	if v.W <= 0 || v.H <= 0 {
		return 1
	}
	return v.W / v.H
}

// CanvasSize returns the backing surface size in device pixels with the
// pixel ratio capped at maxDPR. Neither side is ever below 1.
func (v *Viewport) CanvasSize(maxDPR float32) (w, h int) {
	dpr := v.DPR
	if maxDPR > 0 {
		dpr = min(dpr, maxDPR)
	}
	w = max(1, int(math.Floor(float64(v.W*dpr))))
	h = max(1, int(math.Floor(float64(v.H*dpr))))
	return w, h
}

// Local converts a screen point to viewport-local pixels.
func (v *Viewport) Local(sx, sy float32) (x, y float32) {
	return sx - v.X, sy - v.Y
}

// ScreenToUV converts a screen point to normalized viewport coordinates
// with (0,0) at the top-left.
func (v *Viewport) ScreenToUV(sx, sy float32) (u, w float32) {
	x, y := v.Local(sx, sy)
	return x / max(1, v.W), y / max(1, v.H)
}

// ScreenToNDC converts a screen point to normalized device coordinates,
// -1..1 with y up.
func (v *Viewport) ScreenToNDC(sx, sy float32) (nx, ny float32) {
	u, w := v.ScreenToUV(sx, sy)
	return u*2 - 1, -(w*2 - 1)
}

// CoverCrop returns the centered region of a srcW×srcH image that has the
// destination's aspect, so drawing that region into the destination covers
// it without distortion.
func CoverCrop(srcW, srcH, dstAspect float32) Rect {
	if srcW <= 0 || srcH <= 0 || dstAspect <= 0 {
		return Rect{W: max(0, srcW), H: max(0, srcH)}
	}
	if srcW/srcH > dstAspect {
		w := srcH * dstAspect
		return Rect{X: (srcW - w) / 2, W: w, H: srcH}
	}
	h := srcW / dstAspect
	return Rect{Y: (srcH - h) / 2, W: srcW, H: h}
}
