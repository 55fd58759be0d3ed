package geometry

import (
	"github.com/golang/geo/r3"
)

// Cell is one leaf of a CubicGrid: a Box plus its (r,s,t) index within the
// parent grid. A Cell may own a further CubicGrid (Sub) refining it, giving
// hierarchical cubic subdivision; most planning
// grids use a single level and leave Sub nil.
type Cell struct {
	Box   Box
	Index [3]int
	Sub   *CubicGrid
}

// CubicGrid is a regular (r,s,t) subdivision of a root Box into r*s*t cells
// of equal size.
type CubicGrid struct {
	Root    Box
	R, S, T int
	cells   []*Cell
}

// NewCubicGrid subdivides root into r*s*t equal cells along its own local
// axes.
func NewCubicGrid(root Box, r, s, t int) *CubicGrid {
	g := &CubicGrid{Root: root, R: r, S: s, T: t}
	cellHalf := r3.Vector{
		X: root.HalfExtents.X / float64(r),
		Y: root.HalfExtents.Y / float64(s),
		Z: root.HalfExtents.Z / float64(t),
	}
	origin := root.Center.Sub(root.Axes[0].Mul(root.HalfExtents.X)).
		Sub(root.Axes[1].Mul(root.HalfExtents.Y)).
		Sub(root.Axes[2].Mul(root.HalfExtents.Z))

	g.cells = make([]*Cell, 0, r*s*t)
	for i := 0; i < r; i++ {
		for j := 0; j < s; j++ {
			for k := 0; k < t; k++ {
				center := origin.
					Add(root.Axes[0].Mul(cellHalf.X * (2*float64(i) + 1))).
					Add(root.Axes[1].Mul(cellHalf.Y * (2*float64(j) + 1))).
					Add(root.Axes[2].Mul(cellHalf.Z * (2*float64(k) + 1)))
				g.cells = append(g.cells, &Cell{
					Box:   NewOrientedBox(center, root.Axes, cellHalf),
					Index: [3]int{i, j, k},
				})
			}
		}
	}
	return g
}

// Cells returns every cell of this grid level, in index order.
func (g *CubicGrid) Cells() []*Cell {
	return g.cells
}

func (g *CubicGrid) flatIndex(i, j, k int) int {
	return i*g.S*g.T + j*g.T + k
}

// CellAt returns the cell at (i,j,k), or nil if out of range.
func (g *CubicGrid) CellAt(i, j, k int) *Cell {
	if i < 0 || i >= g.R || j < 0 || j >= g.S || k < 0 || k >= g.T {
		return nil
	}
	return g.cells[g.flatIndex(i, j, k)]
}

// LookupCells returns the cell(s) in this grid whose box contains p. In a
// non-degenerate grid this is a single cell; points exactly on a shared
// boundary may match more than one due to the inclusive Box.Contains test.
func (g *CubicGrid) LookupCells(p r3.Vector) []*Cell {
	var out []*Cell
	for _, c := range g.cells {
		if c.Box.Contains(p) {
			if c.Sub != nil {
				out = append(out, c.Sub.LookupCells(p)...)
			} else {
				out = append(out, c)
			}
		}
	}
	return out
}

// LookupLeaf returns the single finest-level cell containing p, descending
// through any Sub grids, or nil if p lies outside the root box.
func (g *CubicGrid) LookupLeaf(p r3.Vector) *Cell {
	cells := g.LookupCells(p)
	if len(cells) == 0 {
		return nil
	}
	return cells[0]
}

// Neighbors returns the up-to-6 axis-adjacent cells sharing a face with
// cell within this same grid level.
func (g *CubicGrid) Neighbors(cell *Cell) []*Cell {
	i, j, k := cell.Index[0], cell.Index[1], cell.Index[2]
	candidates := [][3]int{
		{i - 1, j, k}, {i + 1, j, k},
		{i, j - 1, k}, {i, j + 1, k},
		{i, j, k - 1}, {i, j, k + 1},
	}
	out := make([]*Cell, 0, 6)
	for _, c := range candidates {
		if n := g.CellAt(c[0], c[1], c[2]); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// AreNeighbors reports whether two cells at this grid level share a face.
func (g *CubicGrid) AreNeighbors(a, b *Cell) bool {
	for _, n := range g.Neighbors(a) {
		if n == b {
			return true
		}
	}
	return false
}

// Subdivide refines cell in-place with a new r*s*t CubicGrid, giving the
// hierarchical cubic subdivision. PlanningGrid's Embed/Unembed do not call
// it; they work on the grid's cells as built.
func (c *Cell) Subdivide(r, s, t int) *CubicGrid {
	c.Sub = NewCubicGrid(c.Box, r, s, t)
	return c.Sub
}
