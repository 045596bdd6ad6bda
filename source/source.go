// Package source supplies decoded video frames to the effects. Playback is
// muted and looping; effects only read frames and never control playback
// beyond advancing it.
package source

import (
	"image"
	"image/color"
	"image/draw"
)

// Frame is one decoded RGBA frame. Row 0 is the top of the image.
type Frame struct {
	W, H int
	Pix  []color.RGBA
	Seq  uint64
}

// At returns the pixel at (x, y), clamping to the frame edge.
func (f Frame) At(x, y int) color.RGBA {
	if x < 0 {
		x = 0
	} else if x >= f.W {
		x = f.W - 1
	}
	if y < 0 {
		y = 0
	} else if y >= f.H {
		y = f.H - 1
	}
	return f.Pix[y*f.W+x]
}

// FrameFromImage converts any image into a Frame.
func FrameFromImage(img image.Image) Frame {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	}
	w, h := b.Dx(), b.Dy()
	pix := make([]color.RGBA, w*h)
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride:]
		for x := 0; x < w; x++ {
			o := x * 4
			pix[y*w+x] = color.RGBA{R: row[o], G: row[o+1], B: row[o+2], A: row[o+3]}
		}
	}
	return Frame{W: w, H: h, Pix: pix}
}

// FrameSource is a playable video stand-in.
type FrameSource interface {
	// ID identifies the media, e.g. its path.
	ID() string
	// Ready reports whether the current frame can be read.
	Ready() bool
	// Size returns the native frame size, or zeros when unknown.
	Size() (w, h int)
	// Frame returns the current frame.
	Frame() (Frame, error)
	// Advance moves playback forward by dt seconds.
	Advance(dt float64)
	// Subscribe registers fn for readiness changes. The returned function
	// removes the subscription.
	Subscribe(fn func(ready bool)) (cancel func())
}

// Notifier delivers edge-triggered readiness changes to subscribers.
type Notifier struct {
	ready bool
	next  int
	subs  map[int]func(bool)
}

// Subscribe implements FrameSource.Subscribe.
func (n *Notifier) Subscribe(fn func(bool)) func() {
	if n.subs == nil {
		n.subs = make(map[int]func(bool))
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	return func() { delete(n.subs, id) }
}

// Set records the readiness state and notifies on change.
func (n *Notifier) Set(ready bool) {
	if ready == n.ready {
		return
	}
	n.ready = ready
	for _, fn := range n.subs {
		fn(ready)
	}
}

// Ready returns the last state passed to Set.
func (n *Notifier) Ready() bool { return n.ready }

// Subscribers returns the number of live subscriptions.
func (n *Notifier) Subscribers() int { return len(n.subs) }
