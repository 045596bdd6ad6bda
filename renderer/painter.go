package renderer

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cardfx/gallery"
	"github.com/pthm-cable/cardfx/viewport"
)

// CardPainter implements gallery.Painter with raylib. It keeps a poster
// texture per card and a video texture for plain video cards.
type CardPainter struct {
	background *BackgroundRenderer
	posters    map[int]*Poster
	videos     map[int]*VideoTexture
	empty      rl.Color

	// Overlay, if set, is drawn over each card after its layers.
	Overlay func(gallery.CardView)
}

// NewCardPainter creates a painter for a screen of the given size.
func NewCardPainter(screenW, screenH int32) *CardPainter {
	return &CardPainter{
		background: NewBackgroundRenderer(screenW, screenH, 18, 20, 26),
		posters:    make(map[int]*Poster),
		videos:     make(map[int]*VideoTexture),
		empty:      rl.Color{R: 34, G: 38, B: 46, A: 255},
	}
}

// Resize updates the background for a new screen size.
func (p *CardPainter) Resize(screenW, screenH int32) {
	p.background.Resize(screenW, screenH)
}

// Begin implements gallery.Painter.
func (p *CardPainter) Begin(scroll float32, elapsed float64) {
	p.background.Draw(float32(elapsed), scroll)
}

// Card implements gallery.Painter. The poster is always drawn first and
// the live layer fades in over it.
func (p *CardPainter) Card(v gallery.CardView) {
	dst := rl.NewRectangle(v.Screen.X, v.Screen.Y, v.Screen.W, v.Screen.H)

	if poster := p.poster(v); poster != nil {
		poster.Draw(dst, 1)
	} else {
		rl.DrawRectangleRec(dst, p.empty)
	}

	if v.Alpha > 0 {
		switch {
		case v.Fluid != nil:
			if g, ok := v.Fluid.(*FluidGPU); ok {
				DrawCanvas(g.Canvas(), dst, v.Alpha)
			}
		case v.Mesh != nil:
			if m, ok := v.Mesh.(*SpringMesh); ok {
				DrawCanvas(m.Canvas(), dst, v.Alpha)
			}
		default:
			p.drawVideo(v, dst)
		}
	}

	if p.Overlay != nil {
		p.Overlay(v)
	}
}

// End implements gallery.Painter.
func (p *CardPainter) End() {}

// poster returns the card's poster texture, creating it on first use.
func (p *CardPainter) poster(v gallery.CardView) *Poster {
	if ps, ok := p.posters[v.Index]; ok {
		return ps
	}
	if v.Poster.W == 0 {
		return nil
	}
	ps, err := NewPoster(v.Poster)
	if err != nil {
		slog.Warn("poster upload failed", "card", v.Name, "error", err)
	}
	// A failed upload is remembered as nil and not retried.
	p.posters[v.Index] = ps
	return ps
}

// drawVideo shows a plain video card's current frame, cover-cropped.
func (p *CardPainter) drawVideo(v gallery.CardView, dst rl.Rectangle) {
	if v.Source == nil {
		return
	}
	vt, ok := p.videos[v.Index]
	if !ok {
		vt = NewVideoTexture()
		p.videos[v.Index] = vt
	}
	if err := vt.UploadFrom(v.Source); err != nil {
		slog.Debug("video upload skipped", "card", v.Name, "error", err)
	}
	w, h := vt.Size()
	if w == 0 || h == 0 {
		return
	}
	crop := viewport.CoverCrop(float32(w), float32(h), v.Screen.W/v.Screen.H)
	src := rl.NewRectangle(crop.X, crop.Y, crop.W, crop.H)
	rl.DrawTexturePro(vt.Texture(), src, dst, rl.Vector2{}, 0, rl.Fade(rl.White, v.Alpha))
}

// Unload frees every texture the painter created.
func (p *CardPainter) Unload() {
	for _, ps := range p.posters {
		ps.Unload()
	}
	for _, vt := range p.videos {
		vt.Unload()
	}
	clear(p.posters)
	clear(p.videos)
	p.background.Unload()
}
