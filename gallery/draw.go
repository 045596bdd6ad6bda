package gallery

import (
	"github.com/pthm-cable/cardfx/config"
	"github.com/pthm-cable/cardfx/fluid"
	"github.com/pthm-cable/cardfx/lifecycle"
	"github.com/pthm-cable/cardfx/source"
	"github.com/pthm-cable/cardfx/spring"
	"github.com/pthm-cable/cardfx/viewport"
)

// CardView is everything a painter needs to draw one card.
type CardView struct {
	Index   int
	Name    string
	Effect  config.EffectKind
	Screen  viewport.Rect
	Alpha   float32 // opacity of the live layer over the poster
	State   lifecycle.State
	Hovered bool
	FailMsg string

	Source source.FrameSource
	Poster source.Frame
	Fluid  fluid.Backend       // nil unless a fluid engine is running
	Mesh   spring.MeshRenderer // nil unless a spring engine is running
}

// Painter draws the gallery. Begin and End bracket each frame; Card is
// called for every card on screen, in layout order.
type Painter interface {
	Begin(scroll float32, elapsed float64)
	Card(v CardView)
	End()
}

// draw paints the cards that intersect the screen.
func (g *Gallery) draw() {
	g.painter.Begin(g.scroller.Offset, g.elapsed)
	query := g.cardFilter.Query()
	for query.Next() {
		card, rect, _, ready, eff, fade := query.Get()
		if !g.scroller.IsVisible(rect.Page, 0) {
			continue
		}
		g.painter.Card(viewOf(card, rect, ready, eff, fade))
	}
	g.painter.End()
}

func viewOf(card *Card, rect *Rect, ready *Readiness, eff *Effect, fade *Fade) CardView {
	v := CardView{
		Index:   card.Index,
		Name:    card.Name,
		Effect:  card.Effect,
		Screen:  rect.View.Rect,
		Alpha:   float32(min(1, max(0, fade.Alpha))),
		State:   eff.Gate.State(),
		Hovered: eff.Hovered,
		FailMsg: eff.FailMsg,
		Source:  ready.Source,
		Poster:  ready.Poster,
		Mesh:    eff.Mesh,
	}
	if eff.Fluid != nil {
		v.Fluid = eff.Fluid.Backend()
	}
	return v
}

// Views returns the current view of every card, in layout order.
func (g *Gallery) Views() []CardView {
	var out []CardView
	query := g.cardFilter.Query()
	for query.Next() {
		card, rect, _, ready, eff, fade := query.Get()
		out = append(out, viewOf(card, rect, ready, eff, fade))
	}
	return out
}
