package spring

import "math"

// Camera placement for the whole-surface variant. The edge variant uses an
// orthographic camera over the plane bounds instead.
const (
	PerspectiveFovY = 45.0
	PerspectiveZ    = 2.2
)

// CoverScale returns the mesh scale that shows a video of videoAspect at
// its own aspect on a plane stretched over a container of containerAspect,
// while still covering the container. The overflowing axis is cropped and
// neither factor is ever below 1. Both aspects are w/h.
func CoverScale(containerAspect, videoAspect float64) (sx, sy float64) {
	if containerAspect <= 0 || videoAspect <= 0 {
		return 1, 1
	}
	if videoAspect > containerAspect {
		return videoAspect / containerAspect, 1
	}
	return 1, containerAspect / videoAspect
}

// ViewHalfHeight returns half the height visible at z = 0 through the
// variant's camera, in plane units.
func (o Options) ViewHalfHeight() float64 {
	if o.Variant == VariantEdge {
		return o.PlaneH / 2
	}
	return PerspectiveZ * math.Tan(PerspectiveFovY/2*math.Pi/180)
}

// ModelScale returns the x and y model scale that makes the plane fill a
// target of the given aspect exactly at cover scale (1, 1), then applies
// the cover scale on top.
func (o Options) ModelScale(sx, sy, targetAspect float64) (x, y float64) {
	hh := o.ViewHalfHeight()
	return sx * hh * targetAspect / (o.PlaneW / 2), sy * hh / (o.PlaneH / 2)
}
