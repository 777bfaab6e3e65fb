package meshio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/YRZrandir/SegSmooth/mesh"
	"github.com/chewxy/math32"
	"github.com/hschendel/stl"
	"gonum.org/v1/gonum/spatial/r3"
)

// WriteSTL writes the triangles of m to a writer in binary STL format.
func WriteSTL(w io.Writer, m *mesh.Mesh) error {
	if m.NumFaces() == 0 {
		return errors.New("empty triangle slice")
	}
	header := stlHeader{
		Count: uint32(m.NumFaces()), // size of stl triangles is 50
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	var (
		d   stlTriangle
		buf [50 * trianglesInBuffer]byte
		n   int
	)
	for f := 0; f < m.NumFaces(); f++ {
		face := m.Face(f)
		a, b, c := m.Position(face[0]), m.Position(face[1]), m.Position(face[2])
		d.Normal = f32(r3.Unit(r3.Cross(r3.Sub(b, a), r3.Sub(c, a))))
		d.Vertex1 = f32(a)
		d.Vertex2 = f32(b)
		d.Vertex3 = f32(c)
		d.put(buf[n*50:])
		n++
		if n == trianglesInBuffer || f == m.NumFaces()-1 {
			if _, err := w.Write(buf[:n*50]); err != nil {
				return err
			}
			n = 0
		}
	}
	return nil
}

// CreateSTL writes m to a new binary STL file at path.
func CreateSTL(path string, m *mesh.Mesh) error {
	return createFile(path, func(w io.Writer) error { return WriteSTL(w, m) })
}

// ReadSTL reads an ASCII or binary STL stream and welds the triangle soup
// into an indexed model. Vertices closer than weldTol are merged, a zero
// tolerance merges only identical vertices. Triangles that become degenerate
// are dropped.
func ReadSTL(r io.ReadSeeker, weldTol float64) (*Model, error) {
	solid, err := stl.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading STL: %w", err)
	}
	if len(solid.Triangles) == 0 {
		return nil, errors.New("STL has no triangles")
	}
	soup := make([][3]r3.Vec, 0, len(solid.Triangles))
	for i, t := range solid.Triangles {
		d := stlTriangle{
			Normal:  [3]float32(t.Normal),
			Vertex1: [3]float32(t.Vertices[0]),
			Vertex2: [3]float32(t.Vertices[1]),
			Vertex3: [3]float32(t.Vertices[2]),
		}
		if err := d.validate(); err != nil {
			if errors.Is(err, errDegenerate) {
				continue
			}
			return nil, fmt.Errorf("STL triangle %d: %w", i, err)
		}
		soup = append(soup, [3]r3.Vec{r3From3F32(d.Vertex1), r3From3F32(d.Vertex2), r3From3F32(d.Vertex3)})
	}
	return weld(soup, weldTol), nil
}

// ReadSTLFile reads the STL file at path.
func ReadSTLFile(path string, weldTol float64) (*Model, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return ReadSTL(fp, weldTol)
}

// stlHeader defines the STL file header.
type stlHeader struct {
	_     [80]uint8 // Header
	Count uint32    // Number of triangles
}

const trianglesInBuffer = 1 << 10

// stlTriangle defines the triangle data within an STL file.
type stlTriangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
	_       uint16 // Attribute byte count
}

func (t stlTriangle) put(b []byte) {
	if len(b) < 50 {
		panic("need length 50 to marshal stlTriangle")
	}
	put3F32(b, t.Normal)
	put3F32(b[12:], t.Vertex1)
	put3F32(b[24:], t.Vertex2)
	put3F32(b[36:], t.Vertex3)
	binary.LittleEndian.PutUint16(b[48:], 0)
}

func put3F32(b []byte, f [3]float32) {
	_ = b[11] // early bounds check
	binary.LittleEndian.PutUint32(b, math.Float32bits(f[0]))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(f[1]))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(f[2]))
}

func f32(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func bad3F32(f [3]float32) bool {
	return math32.IsNaN(f[0]) || math32.IsInf(f[0], 0) ||
		math32.IsNaN(f[1]) || math32.IsInf(f[1], 0) ||
		math32.IsNaN(f[2]) || math32.IsInf(f[2], 0)
}

var errDegenerate = errors.New("triangle is degenerate")

// validate rejects non finite data. Normals are not checked against the
// vertices since many exporters write zero normals.
func (t stlTriangle) validate() error {
	const epsilon = 1e-12
	if bad3F32(t.Normal) {
		return errors.New("inf/NaN STL triangle normal")
	}
	if bad3F32(t.Vertex1) || bad3F32(t.Vertex2) || bad3F32(t.Vertex3) {
		return errors.New("inf/NaN STL triangle vertex")
	}
	if t.degenerate(epsilon) {
		return errDegenerate
	}
	return nil
}

// degenerate reports whether two vertices of the triangle coincide.
func (t stlTriangle) degenerate(tol float32) bool {
	return equalWithin3F32(t.Vertex1, t.Vertex2, tol) ||
		equalWithin3F32(t.Vertex2, t.Vertex3, tol) ||
		equalWithin3F32(t.Vertex3, t.Vertex1, tol)
}

func equalWithin3F32(a, b [3]float32, tol float32) bool {
	return math32.Abs(a[0]-b[0]) <= tol &&
		math32.Abs(a[1]-b[1]) <= tol &&
		math32.Abs(a[2]-b[2]) <= tol
}

func r3From3F32(f [3]float32) r3.Vec {
	return r3.Vec{X: float64(f[0]), Y: float64(f[1]), Z: float64(f[2])}
}
