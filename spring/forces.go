package spring

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// edgeCutoff is the edge weight below which a node ignores the pointer.
const edgeCutoff = 0.0005

// edgeMinDelta is the smallest pointer move, in NDC units, the edge variant
// reacts to.
const edgeMinDelta = 1e-4

// EdgeWeight is 1 on the boundary of the unit square, 0 beyond band from
// it, with a cubic smoothstep in between.
func EdgeWeight(u, v, band float64) float64 {
	d := math.Min(math.Min(u, 1-u), math.Min(v, 1-v))
	w := 1 - math.Min(1, d/band)
	return w * w * (3 - 2*w)
}

// Drag is one frame's pointer motion in plane-local coordinates.
type Drag struct {
	X, Y   float64 // current position
	DX, DY float64 // motion since the last step
	Radius float64
}

// Couple adds k times the summed neighbor velocity to every node's force.
func (m *Mesh) Couple(k float64) {
	if k <= 0 {
		return
	}
	for idx := range m.Nodes {
		var sum r3.Vec
		for _, nb := range m.Topology[idx] {
			if nb >= 0 {
				sum = r3.Add(sum, m.Nodes[nb].Vel)
			}
		}
		n := &m.Nodes[idx]
		n.Force = r3.Add(n.Force, r3.Scale(k, sum))
	}
}

// Pull applies a pointer drag to every node within the drag radius, with a
// linear falloff. The edge variant additionally weights by EdgeWeight and
// the whole variant pushes dragged nodes into the screen.
func (m *Mesh) Pull(d Drag, opts Options) {
	if d.DX == 0 && d.DY == 0 {
		return
	}
	edge := opts.Variant == VariantEdge
	for idx := range m.Nodes {
		n := &m.Nodes[idx]

		ew := 1.0
		if edge {
			ew = EdgeWeight(n.U, n.V, opts.EdgeBand)
			if ew <= edgeCutoff {
				continue
			}
		}

		dist := math.Hypot(n.Pos.X-d.X, n.Pos.Y-d.Y)
		if dist > d.Radius {
			continue
		}
		w := (1 - dist/d.Radius) * ew

		n.Force.X += d.DX * w * opts.MouseStrength
		n.Force.Y += d.DY * w * opts.MouseStrength
		if !edge && opts.ZDrag > 0 {
			n.Force.Z -= (math.Abs(d.DX) + math.Abs(d.DY)) * w * opts.ZDrag
		}
	}
}

// Wobble adds the idle force for elapsed time t.
func (m *Mesh) Wobble(t, strength float64) {
	if strength <= 0 {
		return
	}
	for idx := range m.Nodes {
		n := &m.Nodes[idx]
		s := float64(n.Seed) * 0.01
		ax := (math.Sin(t*1.7+s) + math.Sin(t*0.9+s*2)) * 0.5
		ay := (math.Cos(t*1.3+s) + math.Sin(t*1.1+s*3)) * 0.5
		n.Force.X += ax * strength
		n.Force.Y += ay * strength
	}
}

// Integrate advances every node one step and clears the accumulated force.
// Pinned nodes are reset to rest with zero velocity.
func (m *Mesh) Integrate(elasticity, damping, maxStep float64) {
	for idx := range m.Nodes {
		n := &m.Nodes[idx]
		if n.Pinned {
			n.Pos = n.Rest
			n.Vel = r3.Vec{}
			n.Force = r3.Vec{}
			continue
		}
		f := r3.Add(n.Force, r3.Scale(elasticity, r3.Sub(n.Rest, n.Pos)))
		v := r3.Add(r3.Scale(damping, n.Vel), f)
		if maxStep > 0 {
			v.X = clamp(v.X, -maxStep, maxStep)
			v.Y = clamp(v.Y, -maxStep, maxStep)
			v.Z = clamp(v.Z, -maxStep, maxStep)
		}
		n.Vel = v
		n.Pos = r3.Add(n.Pos, v)
		n.Force = r3.Vec{}
	}
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
