package segsmooth

import (
	"fmt"

	"github.com/YRZrandir/SegSmooth/mesh"
)

const (
	// BackgroundLabel is the label of vertices outside every segmented region.
	BackgroundLabel = 0
	// UnassignedLabel is emitted by the upstream segmenter for vertices it
	// could not classify. It is folded into BackgroundLabel by
	// DefaultLabelRemap.
	UnassignedLabel = 100
)

// DefaultLabelRemap returns the label normalization applied on load unless
// configured otherwise.
func DefaultLabelRemap() map[int]int {
	return map[int]int{UnassignedLabel: BackgroundLabel}
}

// Labels holds the per-vertex and derived per-face labels of a mesh for a
// single smoothing invocation.
type Labels struct {
	// Vertex labels after normalization, indexed by vertex.
	Vertex []int
	// Face labels derived from vertex labels, indexed by face.
	Face []int
}

// AssignLabels validates vertexLabels against m, applies remap and derives
// face labels. vertexLabels is not modified.
//
// A face takes the label shared by at least two of its corners. When all
// three corners differ the face takes the label of its first corner.
func AssignLabels(m *mesh.Mesh, vertexLabels []int, remap map[int]int) (*Labels, error) {
	if len(vertexLabels) != m.NumVertices() {
		return nil, fmt.Errorf("got %d labels for %d vertices: %w", len(vertexLabels), m.NumVertices(), ErrLabelCount)
	}
	l := &Labels{
		Vertex: make([]int, len(vertexLabels)),
		Face:   make([]int, m.NumFaces()),
	}
	for v, label := range vertexLabels {
		if to, ok := remap[label]; ok {
			label = to
		}
		l.Vertex[v] = label
	}
	for f := range l.Face {
		tri := m.Face(f)
		l.Face[f] = majorityLabel(l.Vertex[tri[0]], l.Vertex[tri[1]], l.Vertex[tri[2]])
	}
	return l, nil
}

func majorityLabel(l0, l1, l2 int) int {
	switch {
	case l0 == l1 || l0 == l2:
		return l0
	case l1 == l2:
		return l1
	default:
		return l0 // No majority: first corner wins.
	}
}

// FaceLabel returns the derived label of face f.
func (l *Labels) FaceLabel(f int) int { return l.Face[f] }

// FaceLabels returns a copy of the derived face labels.
func (l *Labels) FaceLabels() []int { return append([]int(nil), l.Face...) }

// VertexLabel returns the normalized label of vertex v.
func (l *Labels) VertexLabel(v int) int { return l.Vertex[v] }

// uniformFace reports whether all corners of f share a label.
func (l *Labels) uniformFace(m *mesh.Mesh, f int) bool {
	tri := m.Face(f)
	a := l.Vertex[tri[0]]
	return a == l.Vertex[tri[1]] && a == l.Vertex[tri[2]]
}

// Histogram returns the amount of vertices carrying each label.
func (l *Labels) Histogram() map[int]int {
	h := make(map[int]int)
	for _, label := range l.Vertex {
		h[label]++
	}
	return h
}
