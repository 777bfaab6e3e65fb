// Package mesh implements an indexed half-edge triangle mesh.
//
// Vertices and faces are identified by their dense index in creation order.
// Connectivity is fixed at construction; only vertex positions may change
// afterwards.
package mesh

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrEmptyMesh is returned when building a mesh with no faces.
	ErrEmptyMesh = errors.New("mesh has no faces")
	// ErrNonManifold is returned when a directed edge is shared by more than
	// one face, which happens on non-manifold edges and on faces with
	// inconsistent winding.
	ErrNonManifold = errors.New("non-manifold or inconsistently oriented edge")
)

// Border is the value returned by Opposite for half-edges with no twin.
const Border = -1

// Mesh is a 2-manifold triangle mesh, possibly with borders.
//
// Half-edge 3f+i belongs to face f, points to corner i of the face and
// starts at corner i-1, so that walking Next around a face visits its
// corners in their stored order.
type Mesh struct {
	positions []r3.Vec
	faces     [][3]int
	// opposite half-edge for every half-edge, or Border.
	opposite []int
	// neighbors contains unique 1-ring vertex indices per vertex.
	neighbors [][]int
	// vertexFaces contains the faces incident to each vertex.
	vertexFaces [][]int
}

// New builds a mesh from vertex positions and triangles given as indices
// into positions. Input slices are copied.
func New(positions []r3.Vec, faces [][3]int) (*Mesh, error) {
	if len(faces) == 0 {
		return nil, ErrEmptyMesh
	}
	m := &Mesh{
		positions:   append([]r3.Vec(nil), positions...),
		faces:       append([][3]int(nil), faces...),
		opposite:    make([]int, 3*len(faces)),
		neighbors:   make([][]int, len(positions)),
		vertexFaces: make([][]int, len(positions)),
	}
	// directed edge (from, to) to half-edge index.
	edges := make(map[[2]int]int, 3*len(faces))
	for f, tri := range m.faces {
		for i, v := range tri {
			if v < 0 || v >= len(positions) {
				return nil, fmt.Errorf("face %d references vertex %d out of range [0,%d)", f, v, len(positions))
			}
			if v == tri[(i+1)%3] {
				return nil, fmt.Errorf("face %d has repeated vertex %d", f, v)
			}
		}
		for i := range tri {
			h := 3*f + i
			key := [2]int{tri[(i+2)%3], tri[i]}
			if other, ok := edges[key]; ok {
				return nil, fmt.Errorf("faces %d and %d share edge %v: %w", other/3, f, key, ErrNonManifold)
			}
			edges[key] = h
		}
	}
	for h := range m.opposite {
		from, to := m.Source(h), m.Target(h)
		if twin, ok := edges[[2]int{to, from}]; ok {
			m.opposite[h] = twin
		} else {
			m.opposite[h] = Border
		}
	}
	for f, tri := range m.faces {
		for i, v := range tri {
			m.vertexFaces[v] = append(m.vertexFaces[v], f)
			// Keep connectivity a unique list in order of first appearance.
			for j := 1; j < 3; j++ {
				m.neighbors[v] = appendUnique(m.neighbors[v], tri[(i+j)%3])
			}
		}
	}
	return m, nil
}

func appendUnique(list []int, v int) []int {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// NumVertices returns the amount of vertices in the mesh.
func (m *Mesh) NumVertices() int { return len(m.positions) }

// NumFaces returns the amount of triangles in the mesh.
func (m *Mesh) NumFaces() int { return len(m.faces) }

// NumHalfedges returns the amount of half-edges, three per face.
func (m *Mesh) NumHalfedges() int { return len(m.opposite) }

// Position returns the current position of vertex v.
func (m *Mesh) Position(v int) r3.Vec { return m.positions[v] }

// SetPosition moves vertex v to p.
func (m *Mesh) SetPosition(v int, p r3.Vec) { m.positions[v] = p }

// Positions returns a copy of all vertex positions.
func (m *Mesh) Positions() []r3.Vec {
	return append([]r3.Vec(nil), m.positions...)
}

// Face returns the corner vertices of face f in order.
func (m *Mesh) Face(f int) [3]int { return m.faces[f] }

// Faces returns a copy of the face index triples.
func (m *Mesh) Faces() [][3]int {
	return append([][3]int(nil), m.faces...)
}

// Halfedge returns the first half-edge of face f. It points to corner 0.
func (m *Mesh) Halfedge(f int) int { return 3 * f }

// Next returns the half-edge following h around its face.
func (m *Mesh) Next(h int) int { return h - h%3 + (h+1)%3 }

// Prev returns the half-edge preceding h around its face.
func (m *Mesh) Prev(h int) int { return h - h%3 + (h+2)%3 }

// Opposite returns the twin of h or Border.
func (m *Mesh) Opposite(h int) int { return m.opposite[h] }

// IsBorder reports whether h lies on the mesh border.
func (m *Mesh) IsBorder(h int) bool { return m.opposite[h] == Border }

// Target returns the vertex h points to.
func (m *Mesh) Target(h int) int { return m.faces[h/3][h%3] }

// Source returns the vertex h starts at.
func (m *Mesh) Source(h int) int { return m.faces[h/3][(h+2)%3] }

// FaceOf returns the face incident to h.
func (m *Mesh) FaceOf(h int) int { return h / 3 }

// FacesAroundFace calls fn for every face sharing an edge with f.
// Border edges are skipped.
func (m *Mesh) FacesAroundFace(f int, fn func(g int)) {
	h := m.Halfedge(f)
	for i := 0; i < 3; i++ {
		if twin := m.opposite[h]; twin != Border {
			fn(m.FaceOf(twin))
		}
		h = m.Next(h)
	}
}

// Neighbors returns the 1-ring of vertex v. The returned slice must not be
// modified. The order is fixed for the lifetime of the mesh.
func (m *Mesh) Neighbors(v int) []int { return m.neighbors[v] }

// VertexFaces returns the faces incident to v. The returned slice must not be
// modified.
func (m *Mesh) VertexFaces(v int) []int { return m.vertexFaces[v] }

// String returns a short summary of the mesh size.
func (m *Mesh) String() string {
	return fmt.Sprintf("Mesh v=%d, f=%d", len(m.positions), len(m.faces))
}
