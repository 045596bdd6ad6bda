// Package fluid implements the stable-fluids distortion effect: a velocity
// field and a dye field advected on a coarse grid, then used to displace
// the sampling coordinates of a video frame.
package fluid

import "math"

// Field is a W×H grid of float32 values with C interleaved channels.
// Row 0 sits at v = 0 (bottom), matching GL texture space.
type Field struct {
	W, H, C int
	Data    []float32
}

// NewField allocates a zeroed field.
func NewField(w, h, c int) *Field {
	return &Field{W: w, H: h, C: c, Data: make([]float32, w*h*c)}
}

// Clear zeroes every value.
func (f *Field) Clear() {
	clear(f.Data)
}

// CopyFrom copies src into f. Sizes must match.
func (f *Field) CopyFrom(src *Field) {
	copy(f.Data, src.Data)
}

func (f *Field) index(i, j int) int {
	if i < 0 {
		i = 0
	} else if i >= f.W {
		i = f.W - 1
	}
	if j < 0 {
		j = 0
	} else if j >= f.H {
		j = f.H - 1
	}
	return (j*f.W + i) * f.C
}

// At returns channel c of cell (i, j), clamping to the border.
func (f *Field) At(i, j, c int) float32 {
	return f.Data[f.index(i, j)+c]
}

// Set writes channel c of cell (i, j). Out-of-range cells are ignored.
func (f *Field) Set(i, j, c int, v float32) {
	if i < 0 || j < 0 || i >= f.W || j >= f.H {
		return
	}
	f.Data[(j*f.W+i)*f.C+c] = v
}

// Nearest returns channel c at normalized coordinate (u, v) with
// nearest-texel lookup.
func (f *Field) Nearest(u, v float32, c int) float32 {
	i := int(floor32(u * float32(f.W)))
	j := int(floor32(v * float32(f.H)))
	return f.At(i, j, c)
}

// Bilerp returns channel c at (u, v), interpolating between the four
// surrounding texel centers. Lookups outside the grid clamp to the border.
func (f *Field) Bilerp(u, v float32, c int) float32 {
	st := u*float32(f.W) - 0.5
	tt := v*float32(f.H) - 0.5
	i0 := floor32(st)
	j0 := floor32(tt)
	fx := st - i0
	fy := tt - j0
	i, j := int(i0), int(j0)

	a := f.At(i, j, c)
	b := f.At(i+1, j, c)
	cc := f.At(i, j+1, c)
	d := f.At(i+1, j+1, c)

	return lerp(lerp(a, b, fx), lerp(cc, d, fx), fy)
}

// DoubleField keeps two equally sized fields and an index naming the one
// that is currently authoritative. Passes read Read() and write Write();
// Swap exchanges the roles without reallocating.
type DoubleField struct {
	slots [2]*Field
	read  int
}

// NewDoubleField allocates both slots.
func NewDoubleField(w, h, c int) *DoubleField {
	return &DoubleField{slots: [2]*Field{NewField(w, h, c), NewField(w, h, c)}}
}

// Read returns the authoritative field.
func (d *DoubleField) Read() *Field { return d.slots[d.read] }

// Write returns the scratch field for the current pass.
func (d *DoubleField) Write() *Field { return d.slots[1-d.read] }

// Swap makes the last written field authoritative.
func (d *DoubleField) Swap() { d.read = 1 - d.read }

// Clear zeroes both slots.
func (d *DoubleField) Clear() {
	d.slots[0].Clear()
	d.slots[1].Clear()
}

func floor32(x float32) float32 {
	return float32(math.Floor(float64(x)))
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

func clamp32(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
