package segsmooth

import "github.com/YRZrandir/SegSmooth/mesh"

// Region is the buffer of faces and vertices surrounding a label boundary.
type Region struct {
	// Faces holds the disagreement faces dilated over face adjacency.
	Faces *Set
	// ROI holds the vertices of Faces that are not control vertices,
	// in ascending order.
	ROI []int
	// Rounds is the amount of dilation rounds that added faces.
	Rounds int
}

// GrowRegion dilates the disagreement faces of b by rounds rings of
// edge-adjacent faces. The result holds exactly the faces within rounds
// steps of the seed faces. Dilation stops early once a round adds nothing.
func GrowRegion(m *mesh.Mesh, b *Boundary, rounds int) *Region {
	grown := b.Faces.clone()
	frontier := grown.IDs()
	r := &Region{Faces: grown}
	for i := 0; i < rounds && len(frontier) > 0; i++ {
		var next []int
		for _, f := range frontier {
			m.FacesAroundFace(f, func(g int) {
				if grown.Add(g) {
					next = append(next, g)
				}
			})
		}
		if len(next) > 0 {
			r.Rounds++
		}
		frontier = next
	}

	roi := newSet(m.NumVertices())
	for _, f := range grown.IDs() {
		for _, v := range m.Face(f) {
			if !b.Control.Has(v) {
				roi.Add(v)
			}
		}
	}
	r.ROI = roi.IDs()
	return r
}
