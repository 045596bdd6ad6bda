// Package spring implements the spring-mesh video warp: a grid of nodes
// that are pulled back toward rest, dragged by the pointer and smoothed by
// neighbor velocity coupling, rendered as a video-textured plane.
package spring

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Node is one mesh vertex.
type Node struct {
	Pos, Rest, Vel, Force r3.Vec

	I, J   int
	U, V   float64 // normalized grid position, V = 0 on the top row
	Pinned bool
	Seed   int
}

// NodeSeed returns the stable per-node wobble seed.
func NodeSeed(i, j int) int {
	return (i*92821 + j*68917) % 1000
}

// Neighbors holds the left, right, up and down node indices. An absent
// neighbor is -1.
type Neighbors [4]int

// Mesh is the node grid and its fixed topology. Node index is j*Cols + i.
type Mesh struct {
	Cols, Rows int
	Nodes      []Node
	Topology   []Neighbors
}

// BuildMesh lays out a (SegX+1)×(SegY+1) grid of PlaneW×PlaneH centered at
// the origin, row 0 at the top. The whole variant pins the four corners and
// bulges the rest shape away from the viewer.
func BuildMesh(opts Options) *Mesh {
	cols, rows := opts.SegX+1, opts.SegY+1
	m := &Mesh{
		Cols:     cols,
		Rows:     rows,
		Nodes:    make([]Node, cols*rows),
		Topology: make([]Neighbors, cols*rows),
	}
	whole := opts.Variant == VariantWhole

	for j := 0; j < rows; j++ {
		v := float64(j) / float64(opts.SegY)
		for i := 0; i < cols; i++ {
			u := float64(i) / float64(opts.SegX)
			idx := j*cols + i

			rest := r3.Vec{
				X: (u - 0.5) * opts.PlaneW,
				Y: -(v - 0.5) * opts.PlaneH,
			}
			if whole && opts.ZBulge > 0 {
				cx, cy := u*2-1, v*2-1
				d := math.Min(1, math.Hypot(cx, cy))
				rest.Z = -(1 - d) * opts.ZBulge
			}

			corner := (i == 0 || i == cols-1) && (j == 0 || j == rows-1)
			m.Nodes[idx] = Node{
				Pos:    rest,
				Rest:   rest,
				I:      i,
				J:      j,
				U:      u,
				V:      v,
				Pinned: whole && corner,
				Seed:   NodeSeed(i, j),
			}

			nb := Neighbors{-1, -1, -1, -1}
			if i > 0 {
				nb[0] = idx - 1
			}
			if i < cols-1 {
				nb[1] = idx + 1
			}
			if j > 0 {
				nb[2] = idx - cols
			}
			if j < rows-1 {
				nb[3] = idx + cols
			}
			m.Topology[idx] = nb
		}
	}
	return m
}

// Index returns the node index of grid cell (i, j).
func (m *Mesh) Index(i, j int) int { return j*m.Cols + i }

// Positions writes every node position into dst as x, y, z triples and
// returns it, growing dst if needed.
func (m *Mesh) Positions(dst []float32) []float32 {
	n := len(m.Nodes) * 3
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	for k, nd := range m.Nodes {
		dst[k*3] = float32(nd.Pos.X)
		dst[k*3+1] = float32(nd.Pos.Y)
		dst[k*3+2] = float32(nd.Pos.Z)
	}
	return dst
}

// MaxDisplacement returns the largest distance of any node from its rest
// position.
func (m *Mesh) MaxDisplacement() float64 {
	var d float64
	for _, nd := range m.Nodes {
		d = math.Max(d, r3.Norm(r3.Sub(nd.Pos, nd.Rest)))
	}
	return d
}

// Energy returns the summed squared speed of all nodes.
func (m *Mesh) Energy() float64 {
	var e float64
	for _, nd := range m.Nodes {
		e += r3.Norm2(nd.Vel)
	}
	return e
}
