package fluid

import "math"

// ComputeSize derives the grid and canvas sizes for a viewport of cw×ch
// CSS pixels. The grid never drops below minSimRes rows and keeps the
// viewport's aspect; the canvas follows the capped device pixel ratio.
func ComputeSize(cw, ch, dpr float32, opts Options) Size {
	cw = max(1, cw)
	ch = max(1, ch)
	if dpr <= 0 {
		dpr = 1
	}
	dpr = min(dpr, opts.MaxDPR)
	ratio := cw / ch
	minRes := float32(opts.MinSimRes)

	return Size{
		SimW:    max(1, int(math.Floor(float64(max(minRes*ratio, cw))))),
		SimH:    max(1, int(math.Floor(float64(max(minRes, ch))))),
		CanvasW: max(1, int(math.Floor(float64(cw*dpr)))),
		CanvasH: max(1, int(math.Floor(float64(ch*dpr)))),
	}
}
