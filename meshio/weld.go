package meshio

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// weldVertex is a vertex stored in the welding tree.
type weldVertex struct {
	p  r3.Vec
	id int
}

func (v *weldVertex) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(*weldVertex)
	switch d {
	case 0:
		return v.p.X - q.p.X
	case 1:
		return v.p.Y - q.p.Y
	case 2:
		return v.p.Z - q.p.Z
	}
	panic("unreachable")
}

func (v *weldVertex) Dims() int { return 3 }

// Distance returns the squared distance to c.
func (v *weldVertex) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(v.p, c.(*weldVertex).p))
}

// weld merges the corners of a triangle soup into shared vertices. Vertex ids
// follow first appearance. Triangles with repeated corners after merging are
// dropped.
func weld(soup [][3]r3.Vec, tol float64) *Model {
	var (
		tree kdtree.Tree
		md   = &Model{}
	)
	tol2 := tol * tol
	index := func(p r3.Vec) int {
		q := &weldVertex{p: p}
		if len(md.Positions) > 0 {
			near, dist2 := tree.Nearest(q)
			if dist2 <= tol2 {
				return near.(*weldVertex).id
			}
		}
		q.id = len(md.Positions)
		md.Positions = append(md.Positions, p)
		tree.Insert(q, false)
		return q.id
	}
	for _, t := range soup {
		face := [3]int{index(t[0]), index(t[1]), index(t[2])}
		if face[0] == face[1] || face[1] == face[2] || face[2] == face[0] {
			continue
		}
		md.Faces = append(md.Faces, face)
	}
	return md
}
