// Package surface answers nearest point queries against a triangle surface
// that does not change after construction.
package surface

import (
	"errors"
	"fmt"
	"math"

	"github.com/YRZrandir/SegSmooth/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Projector maps an arbitrary point onto the closest point of a surface.
// Implementations must be safe for concurrent use.
type Projector interface {
	NearestPoint(q r3.Vec) r3.Vec
}

var _ Projector = (*Frozen)(nil)

// Frozen is an immutable snapshot of a triangle surface indexed by a
// bounding interval hierarchy. It is safe for concurrent use.
type Frozen struct {
	vertices []r3.Vec
	// triangles sorted in hierarchy order.
	tris  []bihTriangle
	nodes []bihNode
	bb    r3.Box
}

// NewFrozen deep copies vertices and faces and builds the spatial index.
func NewFrozen(vertices []r3.Vec, faces [][3]int) (*Frozen, error) {
	if len(faces) == 0 {
		return nil, errors.New("cannot build surface without faces")
	}
	s := &Frozen{
		vertices: append([]r3.Vec(nil), vertices...),
		tris:     make([]bihTriangle, len(faces)),
	}
	for i, f := range faces {
		var c r3.Vec
		for _, vi := range f {
			if vi < 0 || vi >= len(vertices) {
				return nil, fmt.Errorf("face %d references vertex %d out of range [0,%d)", i, vi, len(vertices))
			}
			c = r3.Add(c, vertices[vi])
		}
		s.tris[i] = bihTriangle{v: f, face: i, centroid: r3.Scale(1./3., c)}
	}
	s.bb = trianglesBox(s.tris, s.vertices)
	s.nodes = buildBIH(s.tris, s.vertices, s.bb)
	return s, nil
}

// NearestPoint returns the point on the surface closest to q.
func (s *Frozen) NearestPoint(q r3.Vec) r3.Vec {
	p, _ := s.Nearest(q)
	return p
}

// Nearest returns the point on the surface closest to q and the index of the
// face it lies on.
func (s *Frozen) Nearest(q r3.Vec) (closest r3.Vec, face int) {
	best := s.nearest(q, 0, s.bb, nearestResult{dist2: math.Inf(1), tri: -1})
	if best.tri < 0 {
		panic("unreachable: surface has at least one face")
	}
	return best.closest, s.tris[best.tri].face
}

// Bounds returns the bounding box of the surface.
func (s *Frozen) Bounds() r3.Box { return s.bb }

// NumFaces returns the amount of triangles in the surface.
func (s *Frozen) NumFaces() int { return len(s.tris) }

func (s *Frozen) triangle(i int) [3]r3.Vec {
	v := s.tris[i].v
	return [3]r3.Vec{s.vertices[v[0]], s.vertices[v[1]], s.vertices[v[2]]}
}

// Distance returns the euclidean distance from q to the surface.
func (s *Frozen) Distance(q r3.Vec) float64 {
	return r3.Norm(r3.Sub(q, s.NearestPoint(q)))
}

// OnSurface reports whether q lies within tol of the surface.
func (s *Frozen) OnSurface(q r3.Vec, tol float64) bool {
	return d3.EqualWithin(q, s.NearestPoint(q), tol)
}
