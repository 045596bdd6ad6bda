package fluid

import (
	"image"
	"image/color"
	"math"

	"github.com/pthm-cable/cardfx/source"
)

// FrameEdge is the width of the smooth alpha border around the cover-fit
// video, in normalized units.
const FrameEdge = 0.0025

// DefaultMediaAspect is used when the frame source cannot report a size.
const DefaultMediaAspect = 3.0 / 4.0

// CoverUV maps a viewport coordinate to media coordinates so that the media
// covers the viewport, cropping the overflowing axis. Both aspects are w/h.
func CoverUV(u, v, viewAspect, mediaAspect float32) (float32, float32) {
	u -= 0.5
	v -= 0.5
	if viewAspect > mediaAspect {
		v = v * mediaAspect / viewAspect
	} else {
		u = u * viewAspect / mediaAspect
	}
	return u + 0.5, v + 0.5
}

// Smoothstep is the GLSL smoothstep, including the reversed-edge form.
func Smoothstep(e0, e1, x float32) float32 {
	t := clamp32((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

// FrameAlpha fades to zero within edge of the unit square and is zero
// outside it.
func FrameAlpha(u, v, edge float32) float32 {
	a := Smoothstep(0, edge, u) * Smoothstep(1, 1-edge, u)
	a *= Smoothstep(0, edge, v) * Smoothstep(1, 1-edge, v)
	return a
}

// Displace pushes a media coordinate against the flow direction by
// power*offset, applied twice.
func Displace(u, v, velX, velY, offset, power float32) (float32, float32) {
	vx := velX + 0.001
	vy := velY + 0.001
	l := float32(math.Sqrt(float64(vx*vx + vy*vy)))
	dx, dy := vx/l, vy/l
	for range 2 {
		u -= power * dx * offset
		v -= power * dy * offset
	}
	return u, v
}

// composite renders the distorted video into canvas. Canvas row 0 is the top
// of the viewport.
func composite(canvas *image.RGBA, vel, dye *Field, video source.Frame, p CompositeParams) {
	compositeRows(canvas, vel, dye, video, p, 0, canvas.Bounds().Dy())
}

// compositeRows renders canvas rows [y0, y1).
func compositeRows(canvas *image.RGBA, vel, dye *Field, video source.Frame, p CompositeParams, y0, y1 int) {
	b := canvas.Bounds()
	cw, ch := b.Dx(), b.Dy()
	for y := y0; y < y1; y++ {
		v := 1 - (float32(y)+0.5)/float32(ch)
		for x := 0; x < cw; x++ {
			u := (float32(x) + 0.5) / float32(cw)

			offset := dye.Nearest(u, v, 0)
			mu, mv := CoverUV(u, v, p.ViewAspect, p.MediaAspect)
			mu, mv = Displace(mu, mv, vel.Nearest(u, v, 0), vel.Nearest(u, v, 1), offset, p.Power)

			c := sampleVideo(video, mu, 1-mv)
			a := FrameAlpha(mu, mv, FrameEdge)
			canvas.SetRGBA(b.Min.X+x, b.Min.Y+y, premultiply(c, a))
		}
	}
}

// sampleVideo bilinearly samples frame at texture coordinate (s, t), where
// t = 0 is the first image row. An empty frame reads as opaque black.
func sampleVideo(f source.Frame, s, t float32) color.RGBA {
	if f.W == 0 || f.H == 0 {
		return color.RGBA{A: 255}
	}
	fx := s*float32(f.W) - 0.5
	fy := t*float32(f.H) - 0.5
	x0 := floor32(fx)
	y0 := floor32(fy)
	ax, ay := fx-x0, fy-y0
	i, j := int(x0), int(y0)

	p00 := f.At(i, j)
	p10 := f.At(i+1, j)
	p01 := f.At(i, j+1)
	p11 := f.At(i+1, j+1)

	mix := func(a, b, c, d uint8) uint8 {
		top := lerp(float32(a), float32(b), ax)
		bot := lerp(float32(c), float32(d), ax)
		return uint8(clamp32(lerp(top, bot, ay)+0.5, 0, 255))
	}
	return color.RGBA{
		R: mix(p00.R, p10.R, p01.R, p11.R),
		G: mix(p00.G, p10.G, p01.G, p11.G),
		B: mix(p00.B, p10.B, p01.B, p11.B),
		A: 255,
	}
}

func premultiply(c color.RGBA, a float32) color.RGBA {
	return color.RGBA{
		R: uint8(float32(c.R)*a + 0.5),
		G: uint8(float32(c.G)*a + 0.5),
		B: uint8(float32(c.B)*a + 0.5),
		A: uint8(255*a + 0.5),
	}
}
