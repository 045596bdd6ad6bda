package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cardfx/gallery"
	"github.com/pthm-cable/cardfx/lifecycle"
	"github.com/pthm-cable/cardfx/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title  string
	Counts telemetry.CardCounts
	Tick   int32
	FPS    int32
	Scroll float32
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Cards: %d | Visible: %d | Running: %d | Failed: %d",
			data.Counts.Cards, data.Counts.Visible, data.Counts.Running, data.Counts.Failed),
		10, 35, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Frame: %d | FPS: %d | Scroll: %.0f", data.Tick, data.FPS, data.Scroll),
		10, 55, 16, rl.LightGray,
	)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders per-phase frame timing.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the phases that took any time, in reporting order.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Frame Phases", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Frame: %s (%.0f fps)", stats.AvgTickDuration.Round(time.Microsecond), stats.FPS), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range telemetry.AllPhases() {
		avg := stats.PhaseAvg[name]
		if avg == 0 {
			continue
		}
		pct := stats.PhasePct[name]

		color := rl.LightGray
		if pct > 20 {
			color = rl.Red
		} else if pct > 10 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-18s %8s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

// CardOverlay draws per-card developer information over the card.
type CardOverlay struct {
	renderer *Renderer
}

// NewCardOverlay creates a card overlay.
func NewCardOverlay() *CardOverlay {
	return &CardOverlay{renderer: NewRenderer()}
}

// Draw renders the card's name, gate state and any failure message.
func (o *CardOverlay) Draw(v gallery.CardView) {
	t := o.renderer.Theme
	x, y := int32(v.Screen.X), int32(v.Screen.Y)
	w, h := int32(v.Screen.W), int32(v.Screen.H)

	if v.Hovered {
		rl.DrawRectangleLines(x, y, w, h, t.HoverColor)
	}

	label := fmt.Sprintf("%s [%s] %s", v.Name, v.Effect, v.State)
	rl.DrawRectangle(x, y, rl.MeasureText(label, t.FontSize)+t.Padding, t.LineHeight+4, t.PanelBg)
	rl.DrawText(label, x+t.Padding/2, y+2, t.FontSize, t.LabelColor)

	if v.State == lifecycle.Running {
		o.renderer.DrawBar(x+t.Padding/2, y+h-t.LineHeight-4, "live", v.Alpha, w-t.Padding)
	}
	if v.FailMsg != "" {
		panelH := 4*t.LineHeight + t.Padding
		o.renderer.DrawPanel(x, y+h-panelH, w, panelH)
		o.renderer.DrawWrapped(x+t.Padding/2, y+h-panelH+t.Padding/2, w-t.Padding, v.FailMsg, t.ErrorColor, 4)
	}
}
