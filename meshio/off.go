package meshio

import (
	"bufio"
	"fmt"
	"io"

	"github.com/YRZrandir/SegSmooth/mesh"
)

// WriteOFF writes m in the Object File Format.
func WriteOFF(w io.Writer, m *mesh.Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "OFF\n%d %d 0\n", m.NumVertices(), m.NumFaces())
	for v := 0; v < m.NumVertices(); v++ {
		p := m.Position(v)
		fmt.Fprintf(bw, "%g %g %g\n", p.X, p.Y, p.Z)
	}
	for f := 0; f < m.NumFaces(); f++ {
		face := m.Face(f)
		fmt.Fprintf(bw, "3 %d %d %d\n", face[0], face[1], face[2])
	}
	return bw.Flush()
}

// CreateOFF writes m to a new OFF file at path.
func CreateOFF(path string, m *mesh.Mesh) error {
	return createFile(path, func(w io.Writer) error { return WriteOFF(w, m) })
}
