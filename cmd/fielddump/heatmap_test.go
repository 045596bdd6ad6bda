package main

import (
	"testing"

	"github.com/pthm-cable/cardfx/fluid"
)

func TestHeatmapScalesAndFlips(t *testing.T) {
	f := fluid.NewField(2, 2, 1)
	f.Set(0, 0, 0, 1)   // bottom-left
	f.Set(1, 1, 0, 0.5) // top-right

	img := Heatmap(f, 0, 1)
	if got := img.ColorIndexAt(0, 1); got != 255 {
		t.Errorf("expected bottom-left at top of palette, got index %d", got)
	}
	if got := img.ColorIndexAt(1, 0); got != 128 {
		t.Errorf("expected half scale at index 128, got %d", got)
	}
	if got := img.ColorIndexAt(0, 0); got != 0 {
		t.Errorf("expected empty cell at index 0, got %d", got)
	}
}

func TestHeatmapClampsAndHandlesZeroScale(t *testing.T) {
	f := fluid.NewField(1, 1, 1)
	f.Set(0, 0, 0, -4)

	if got := Heatmap(f, 0, 2).ColorIndexAt(0, 0); got != 255 {
		t.Errorf("expected magnitude above scale to clamp to 255, got %d", got)
	}
	if got := Heatmap(f, 0, 0).ColorIndexAt(0, 0); got != 0 {
		t.Errorf("expected zero scale to leave the image blank, got %d", got)
	}
}
