package motion

// Rand is a mulberry32 stream. It is cheap to copy and has no global state;
// a sequence can only be restarted by constructing a new Rand.
type Rand struct {
	state uint32
}

// NewRand creates a stream for the given seed.
func NewRand(seed uint32) *Rand {
	return &Rand{state: seed}
}

// Uint32 returns the next raw 32-bit output.
func (r *Rand) Uint32() uint32 {
	r.state += 0x6d2b79f5
	t := r.state
	z := (t ^ (t >> 15)) * (1 | t)
	z ^= z + (z^(z>>7))*(61|z)
	return z ^ (z >> 14)
}

// Float64 returns a uniform value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.Uint32()) / 4294967296.0
}

// Float32 returns a uniform value in [0, 1).
func (r *Rand) Float32() float32 {
	// Rounding a value near 1 to float32 can produce exactly 1.
	f := float32(r.Float64())
	if f >= 1 {
		return 0x1.fffffep-1
	}
	return f
}

// Range returns a uniform value in [lo, hi).
func (r *Rand) Range(lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

// Signed returns a uniform value in [-1, 1).
func (r *Rand) Signed() float64 {
	return r.Float64()*2 - 1
}
