package source

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/ojrac/opensimplex-go"
)

// Noise renders procedural frames from a 3D simplex field whose third axis
// is time. Hue follows the field, value follows a second octave. The same
// seed always produces the same frames.
type Noise struct {
	Notifier

	id       string
	w, h     int
	scale    float64
	speed    float64
	buffer   int
	advances int
	clock    float64
	seq      uint64

	hue   opensimplex.Noise
	shade opensimplex.Noise
	frame Frame
	dirty bool
}

// NoiseConfig configures a Noise source.
type NoiseConfig struct {
	Width, Height int
	Seed          int64
	Scale         float64 // field units per pixel
	Speed         float64 // field units per second along the time axis
	BufferFrames  int     // advances before the source reports ready
}

// NewNoise returns a procedural source. It is not ready until BufferFrames
// calls to Advance have happened.
func NewNoise(cfg NoiseConfig) *Noise {
	if cfg.Width <= 0 {
		cfg.Width = 96
	}
	if cfg.Height <= 0 {
		cfg.Height = 128
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 0.035
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 0.4
	}
	n := &Noise{
		id:     fmt.Sprintf("noise:%d", cfg.Seed),
		w:      cfg.Width,
		h:      cfg.Height,
		scale:  cfg.Scale,
		speed:  cfg.Speed,
		buffer: cfg.BufferFrames,
		hue:    opensimplex.NewNormalized(cfg.Seed),
		shade:  opensimplex.NewNormalized(cfg.Seed + 1),
		frame: Frame{
			W:   cfg.Width,
			H:   cfg.Height,
			Pix: make([]color.RGBA, cfg.Width*cfg.Height),
		},
		dirty: true,
	}
	if n.buffer <= 0 {
		n.Set(true)
	}
	return n
}

func (n *Noise) ID() string       { return n.id }
func (n *Noise) Size() (int, int) { return n.w, n.h }

// Advance implements FrameSource.
func (n *Noise) Advance(dt float64) {
	n.advances++
	n.clock += dt
	n.seq++
	n.dirty = true
	if n.advances >= n.buffer {
		n.Set(true)
	}
}

// Frame renders the field at the current clock.
func (n *Noise) Frame() (Frame, error) {
	if !n.Ready() {
		return Frame{}, fmt.Errorf("%s: buffering", n.id)
	}
	if n.dirty {
		n.render()
		n.dirty = false
	}
	return n.frame, nil
}

func (n *Noise) render() {
	t := n.clock * n.speed
	for y := 0; y < n.h; y++ {
		fy := float64(y) * n.scale
		for x := 0; x < n.w; x++ {
			fx := float64(x) * n.scale
			h := n.hue.Eval3(fx, fy, t)
			v := n.shade.Eval3(fx*2.3, fy*2.3, t*1.7)
			c := colorful.Hsv(math.Mod(h*540, 360), 0.55+0.35*h, 0.35+0.6*v)
			r, g, b := c.Clamped().RGB255()
			n.frame.Pix[y*n.w+x] = color.RGBA{R: r, G: g, B: b, A: 255}
		}
	}
	n.frame.Seq = n.seq
}
