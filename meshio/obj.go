// Package meshio reads and writes triangle meshes and their vertex labels.
package meshio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YRZrandir/SegSmooth/mesh"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoColors is returned by Model.ColorLabels for models read without
// vertex colors.
var ErrNoColors = errors.New("model has no vertex colors")

// Model is an indexed triangle model as read from a file.
type Model struct {
	Positions []r3.Vec
	Faces     [][3]int
	// Colors holds one color per vertex when the file carries them.
	Colors []colorful.Color
}

// Mesh builds the half-edge mesh of the model.
func (md *Model) Mesh() (*mesh.Mesh, error) {
	return mesh.New(md.Positions, md.Faces)
}

// ColorLabels recovers vertex labels from colors written by WriteOBJ.
func (md *Model) ColorLabels() ([]int, error) {
	if len(md.Colors) == 0 {
		return nil, ErrNoColors
	}
	labels := make([]int, len(md.Colors))
	for i, c := range md.Colors {
		labels[i] = ColorLabel(c)
	}
	return labels, nil
}

// ReadOBJ parses vertices and faces of a Wavefront OBJ stream. Polygons are
// split into triangle fans. Texture and normal indices are ignored.
func ReadOBJ(r io.Reader) (*Model, error) {
	md := &Model{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	colored := true
	for scanner.Scan() {
		lineNo++
		words := strings.Fields(scanner.Text())
		if len(words) == 0 {
			continue
		}
		switch words[0] {
		case "v":
			if len(words) < 4 {
				return nil, fmt.Errorf("obj line %d: vertex needs 3 coordinates", lineNo)
			}
			var xyz [6]float64
			n := 3
			if len(words) >= 7 {
				n = 6
			} else {
				colored = false
			}
			for i := 0; i < n; i++ {
				f, err := strconv.ParseFloat(words[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
				}
				xyz[i] = f
			}
			md.Positions = append(md.Positions, r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]})
			if n == 6 {
				md.Colors = append(md.Colors, colorful.Color{R: xyz[3], G: xyz[4], B: xyz[5]})
			}
		case "f":
			if len(words) < 4 {
				return nil, fmt.Errorf("obj line %d: face needs at least 3 vertices", lineNo)
			}
			idx := make([]int, len(words)-1)
			for i, w := range words[1:] {
				if slash := strings.IndexByte(w, '/'); slash >= 0 {
					w = w[:slash]
				}
				v, err := strconv.Atoi(w)
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
				}
				switch {
				case v > 0:
					v--
				case v < 0:
					v += len(md.Positions)
				default:
					return nil, fmt.Errorf("obj line %d: zero vertex index", lineNo)
				}
				idx[i] = v
			}
			for i := 1; i+1 < len(idx); i++ {
				md.Faces = append(md.Faces, [3]int{idx[0], idx[i], idx[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !colored || len(md.Colors) != len(md.Positions) {
		md.Colors = nil
	}
	normalizeColors(md.Colors)
	return md, nil
}

// normalizeColors scales colors written with 0-255 components into [0,1].
// Files are scaled as a whole once any component exceeds 1.
func normalizeColors(colors []colorful.Color) {
	wide := false
	for _, c := range colors {
		if c.R > 1 || c.G > 1 || c.B > 1 {
			wide = true
			break
		}
	}
	if !wide {
		return
	}
	for i, c := range colors {
		colors[i] = rgb255(c.R, c.G, c.B)
	}
}

// WriteOBJ writes m as an OBJ stream. If labels is not nil every vertex line
// carries the RGB color of its label.
func WriteOBJ(w io.Writer, m *mesh.Mesh, labels []int) error {
	if labels != nil && len(labels) != m.NumVertices() {
		return fmt.Errorf("got %d labels for %d vertices", len(labels), m.NumVertices())
	}
	bw := bufio.NewWriter(w)
	for v := 0; v < m.NumVertices(); v++ {
		p := m.Position(v)
		if labels == nil {
			fmt.Fprintf(bw, "v %g %g %g\n", p.X, p.Y, p.Z)
			continue
		}
		c := LabelColor(labels[v])
		fmt.Fprintf(bw, "v %g %g %g %g %g %g\n", p.X, p.Y, p.Z, c.R, c.G, c.B)
	}
	for f := 0; f < m.NumFaces(); f++ {
		face := m.Face(f)
		fmt.Fprintf(bw, "f %d %d %d\n", face[0]+1, face[1]+1, face[2]+1)
	}
	return bw.Flush()
}

// ReadOBJFile reads the OBJ file at path.
func ReadOBJFile(path string) (*Model, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return ReadOBJ(fp)
}

// CreateOBJ writes m to a new OBJ file at path.
func CreateOBJ(path string, m *mesh.Mesh, labels []int) error {
	return createFile(path, func(w io.Writer) error { return WriteOBJ(w, m, labels) })
}

func createFile(path string, write func(io.Writer) error) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = write(fp); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}
