package gallery

import (
	"github.com/pthm-cable/cardfx/config"
	"github.com/pthm-cable/cardfx/viewport"
)

// LayoutGrid places n cards in page coordinates and returns their
// rectangles and the total content height.
func LayoutGrid(gc config.GalleryConfig, screenW float32, n int) ([]viewport.Rect, float32) {
	cols := max(1, gc.Columns)
	gap := float32(gc.Gap)
	pad := float32(gc.Padding)
	cardW := (screenW - 2*pad - float32(cols-1)*gap) / float32(cols)
	if cardW < 1 {
		cardW = 1
	}
	cardH := cardW / float32(gc.CardAspect)

	rects := make([]viewport.Rect, n)
	for i := range rects {
		col, row := i%cols, i/cols
		rects[i] = viewport.Rect{
			X: pad + float32(col)*(cardW+gap),
			Y: pad + float32(row)*(cardH+gap),
			W: cardW,
			H: cardH,
		}
	}
	rows := (n + cols - 1) / cols
	contentH := 2 * pad
	if rows > 0 {
		contentH += float32(rows)*cardH + float32(rows-1)*gap
	}
	return rects, contentH
}

// layout positions every card and moves its viewport to the current
// scroll. Running engines are resized when their viewport size changed.
func (g *Gallery) layout(force bool) {
	n := len(g.cfg.Gallery.Cards)
	rects, contentH := LayoutGrid(g.cfg.Gallery, g.screenW, n)
	if force || contentH != g.contentH || g.scroller.ViewportW != g.screenW || g.scroller.ViewportH != g.screenH {
		g.contentH = contentH
		g.scroller.Resize(g.screenW, g.screenH, contentH)
	}

	query := g.cardFilter.Query()
	for query.Next() {
		card, rect, _, _, eff, _ := query.Get()
		rect.Page = rects[card.Index]
		screen := g.scroller.PageToScreen(rect.Page)
		resized := screen.W != rect.View.W || screen.H != rect.View.H
		rect.View.Rect = screen
		rect.View.DPR = g.dpr
		if resized && eff.Live() && eff.Guard != nil {
			inst := eff.Gate.Instance()
			if fatal := eff.Guard.Run(inst.Resize); fatal != nil {
				eff.Gate.Fail(fatal)
			}
		}
	}
}

// updateVisibility feeds the latched intersection signal to each gate.
func (g *Gallery) updateVisibility() {
	margin := float32(g.cfg.Gallery.VisibilityMargin)
	query := g.cardFilter.Query()
	for query.Next() {
		_, rect, vis, _, eff, _ := query.Get()
		vis.Visible = g.scroller.IsVisible(rect.Page, margin)
		if vis.Visible && !vis.Seen {
			vis.Seen = true
			eff.Gate.SetVisible(true)
		}
	}
}
