package main

import (
	"image"
	"image/color"
	"math"

	"github.com/mazznoer/colorgrad"

	"github.com/pthm-cable/cardfx/fluid"
)

// Heatmap renders channel c of a field through the viridis gradient, scaled
// so that scale maps to the top of the palette. Row 0 of the field is the
// bottom of the image.
func Heatmap(f *fluid.Field, c int, scale float32) *image.Paletted {
	var pal color.Palette
	for _, col := range colorgrad.Viridis().Colors(256) {
		pal = append(pal, col)
	}

	img := image.NewPaletted(image.Rect(0, 0, f.W, f.H), pal)
	if scale <= 0 {
		return img
	}
	last := float64(len(pal) - 1)
	for j := 0; j < f.H; j++ {
		y := f.H - 1 - j
		for i := 0; i < f.W; i++ {
			t := math.Abs(float64(f.At(i, j, c) / scale))
			img.SetColorIndex(i, y, uint8(math.Round(math.Min(t, 1)*last)))
		}
	}
	return img
}
