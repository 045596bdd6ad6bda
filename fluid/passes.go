package fluid

import "math"

// splatPass writes src plus a Gaussian deposit centered at (x, y) into dst.
// value holds one entry per channel; the falloff is exp2(-|p|²/radius)
// with p.x scaled by the viewport aspect.
func splatPass(dst, src *Field, x, y, aspect, radius float32, value []float32) {
	splatRows(dst, src, x, y, aspect, radius, value, 0, src.H)
}

func splatRows(dst, src *Field, x, y, aspect, radius float32, value []float32, j0, j1 int) {
	r := radius
	if r < 1e-6 {
		r = 1e-6
	}
	w, h, c := src.W, src.H, src.C
	for j := j0; j < j1; j++ {
		py := (float32(j)+0.5)/float32(h) - y
		for i := 0; i < w; i++ {
			px := ((float32(i)+0.5)/float32(w) - x) * aspect
			k := 0.6 * float32(math.Exp2(float64(-(px*px+py*py)/r)))
			base := (j*w + i) * c
			for ch := 0; ch < c; ch++ {
				dst.Data[base+ch] = src.Data[base+ch] + k*value[ch]
			}
		}
	}
}

// divergencePass computes 0.25*(R.x-L.x+T.y-B.y) for every cell of vel.
func divergencePass(dst, vel *Field) {
	divergenceRows(dst, vel, 0, vel.H)
}

func divergenceRows(dst, vel *Field, j0, j1 int) {
	for j := j0; j < j1; j++ {
		for i := 0; i < vel.W; i++ {
			l := vel.At(i-1, j, 0)
			r := vel.At(i+1, j, 0)
			t := vel.At(i, j+1, 1)
			b := vel.At(i, j-1, 1)
			dst.Data[j*dst.W+i] = 0.25 * (r - l + t - b)
		}
	}
}

// pressureRows runs one Jacobi relaxation step over rows [j0, j1).
func pressureRows(dst, pressure, div *Field, j0, j1 int) {
	for j := j0; j < j1; j++ {
		for i := 0; i < pressure.W; i++ {
			l := pressure.At(i-1, j, 0)
			r := pressure.At(i+1, j, 0)
			t := pressure.At(i, j+1, 0)
			b := pressure.At(i, j-1, 0)
			d := div.Data[j*div.W+i]
			dst.Data[j*dst.W+i] = (l + r + b + t - d) * 0.25
		}
	}
}

// gradientSubtractRows removes the pressure gradient from rows [j0, j1)
// of vel.
func gradientSubtractRows(dst, vel, pressure *Field, j0, j1 int) {
	for j := j0; j < j1; j++ {
		for i := 0; i < vel.W; i++ {
			l := pressure.At(i-1, j, 0)
			r := pressure.At(i+1, j, 0)
			t := pressure.At(i, j+1, 0)
			b := pressure.At(i, j-1, 0)
			k := (j*vel.W + i) * 2
			dst.Data[k] = vel.Data[k] - (r - l)
			dst.Data[k+1] = vel.Data[k+1] - (t - b)
		}
	}
}

// advectPass traces each cell of dst back along vel and bilinearly samples
// src there, scaling by dissipation. vel is expressed in cells per unit dt.
func advectPass(dst, src, vel *Field, dt, dissipation float32) {
	advectRows(dst, src, vel, dt, dissipation, 0, dst.H)
}

func advectRows(dst, src, vel *Field, dt, dissipation float32, j0, j1 int) {
	tx := 1 / float32(vel.W)
	ty := 1 / float32(vel.H)
	for j := j0; j < j1; j++ {
		v := (float32(j) + 0.5) / float32(dst.H)
		for i := 0; i < dst.W; i++ {
			u := (float32(i) + 0.5) / float32(dst.W)
			cu := u - dt*vel.Bilerp(u, v, 0)*tx
			cv := v - dt*vel.Bilerp(u, v, 1)*ty
			base := (j*dst.W + i) * dst.C
			for ch := 0; ch < dst.C; ch++ {
				dst.Data[base+ch] = dissipation * src.Bilerp(cu, cv, ch)
			}
		}
	}
}
