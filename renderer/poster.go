package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cardfx/source"
	"github.com/pthm-cable/cardfx/viewport"
)

// Poster is a still image drawn cover-fit. Cards show it before their
// effect is live and after a fatal effect error.
type Poster struct {
	tex  rl.Texture2D
	w, h int
}

// NewPoster uploads frame as a texture.
func NewPoster(f source.Frame) (*Poster, error) {
	if f.W <= 0 || f.H <= 0 || len(f.Pix) < f.W*f.H {
		return nil, fmt.Errorf("poster frame %dx%d is malformed", f.W, f.H)
	}
	img := rl.GenImageColor(f.W, f.H, rl.Black)
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	if !rl.IsTextureValid(tex) {
		return nil, fmt.Errorf("creating %dx%d poster texture", f.W, f.H)
	}
	rl.UpdateTexture(tex, f.Pix[:f.W*f.H])
	rl.SetTextureFilter(tex, rl.FilterBilinear)
	return &Poster{tex: tex, w: f.W, h: f.H}, nil
}

// Draw fills dst with the poster, cropping the overflowing axis.
func (p *Poster) Draw(dst rl.Rectangle, alpha float32) {
	if p == nil || p.tex.ID == 0 || dst.Width <= 0 || dst.Height <= 0 {
		return
	}
	crop := viewport.CoverCrop(float32(p.w), float32(p.h), dst.Width/dst.Height)
	src := rl.NewRectangle(crop.X, crop.Y, crop.W, crop.H)
	rl.DrawTexturePro(p.tex, src, dst, rl.Vector2{}, 0, rl.Fade(rl.White, alpha))
}

// Unload frees the texture.
func (p *Poster) Unload() {
	if p == nil || p.tex.ID == 0 {
		return
	}
	rl.UnloadTexture(p.tex)
	p.tex = rl.Texture2D{}
}

// DrawCanvas draws a premultiplied render-texture canvas into dst at the
// given opacity. Render textures are stored bottom-up, so the source
// rectangle is flipped.
func DrawCanvas(tex rl.Texture2D, dst rl.Rectangle, alpha float32) {
	if tex.ID == 0 || alpha <= 0 {
		return
	}
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(tex.Width), Height: -float32(tex.Height)}
	a := uint8(min(1, alpha)*255 + 0.5)
	rl.BeginBlendMode(rl.BlendAlphaPremultiply)
	rl.DrawTexturePro(tex, src, dst, rl.Vector2{}, 0, rl.Color{R: a, G: a, B: a, A: a})
	rl.EndBlendMode()
}
