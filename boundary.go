package segsmooth

import "github.com/YRZrandir/SegSmooth/mesh"

// Boundary is the result of scanning a labeled mesh for label discontinuities.
type Boundary struct {
	// Control contains the vertices lying on an edge between differently
	// labeled faces.
	Control *Set
	// Faces contains the faces touching a label discontinuity.
	Faces *Set
}

// DetectBoundary finds the control vertices and disagreement faces of m.
//
// Every interior half-edge whose two faces carry different labels marks both
// faces and its target vertex. Both directions of such an edge are visited so
// both endpoints end up as control vertices. Faces whose corners do not all
// share a label are added afterwards.
func DetectBoundary(m *mesh.Mesh, labels *Labels) *Boundary {
	b := &Boundary{
		Control: newSet(m.NumVertices()),
		Faces:   newSet(m.NumFaces()),
	}
	for h := 0; h < m.NumHalfedges(); h++ {
		if m.IsBorder(h) {
			continue
		}
		f, g := m.FaceOf(h), m.FaceOf(m.Opposite(h))
		if labels.Face[f] != labels.Face[g] {
			b.Faces.Add(f)
			b.Faces.Add(g)
			b.Control.Add(m.Target(h))
		}
	}
	for f := 0; f < m.NumFaces(); f++ {
		if !labels.uniformFace(m, f) {
			b.Faces.Add(f)
		}
	}
	return b
}

// Empty reports whether no label discontinuity was found.
func (b *Boundary) Empty() bool {
	return b.Control.Len() == 0 && b.Faces.Len() == 0
}
