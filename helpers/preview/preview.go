// Package preview renders labeled meshes to PNG images.
package preview

import (
	"errors"
	"fmt"
	"image"

	"github.com/YRZrandir/SegSmooth/internal/d3"
	"github.com/YRZrandir/SegSmooth/mesh"
	"github.com/YRZrandir/SegSmooth/meshio"
	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/spatial/r3"
)

// View configures the camera and output image.
type View struct {
	// what position (point) to look at
	LookAt r3.Vec
	// which way is up (direction)
	Up r3.Vec
	// where the camera/eye located at (point)
	Eye       r3.Vec
	Near, Far float64
	// Width and Height of the output image in pixels.
	Width, Height int
	// Supersample renders at a multiple of the output size before
	// downsampling for antialiasing.
	Supersample int
	Background  string
}

// DefaultView looks at the mesh from an isometric position.
func DefaultView() View {
	return View{
		Up:          r3.Vec{Z: 1},
		Eye:         d3.Elem(2.4),
		Near:        1,
		Far:         10,
		Width:       768,
		Height:      432,
		Supersample: 2,
		Background:  "#FFF8E3",
	}
}

// Render draws m with every face colored by its label. The mesh is fit in a
// bi-unit cube centered at the origin.
func Render(m *mesh.Mesh, faceLabels []int, view View) (image.Image, error) {
	if len(faceLabels) != m.NumFaces() {
		return nil, fmt.Errorf("got %d face labels for %d faces", len(faceLabels), m.NumFaces())
	}
	if view.Width < 1 || view.Height < 1 || view.Supersample < 1 {
		return nil, errors.New("view needs positive image size and supersampling")
	}
	const fovy = 30 // vertical field of view in degrees
	var (
		eye    = fauxgl.V(view.Eye.X, view.Eye.Y, view.Eye.Z)
		center = fauxgl.V(view.LookAt.X, view.LookAt.Y, view.LookAt.Z)
		up     = fauxgl.V(view.Up.X, view.Up.Y, view.Up.Z)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
	)
	groups := labelMeshes(m, faceLabels)

	w, h := view.Width*view.Supersample, view.Height*view.Supersample
	context := fauxgl.NewContext(w, h)
	context.ClearColorBufferWith(fauxgl.HexColor(view.Background))
	context.Cull = fauxgl.CullNone
	aspect := float64(view.Width) / float64(view.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	context.Shader = shader
	for _, g := range groups {
		shader.ObjectColor = fauxgl.HexColor(meshio.LabelColor(g.label).Hex())
		context.DrawMesh(g.mesh)
	}
	img := context.Image()
	if view.Supersample > 1 {
		img = resize.Resize(uint(view.Width), uint(view.Height), img, resize.Bilinear)
	}
	return img, nil
}

// SavePNG renders m and writes the image to path.
func SavePNG(path string, m *mesh.Mesh, faceLabels []int, view View) error {
	img, err := Render(m, faceLabels, view)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(path, img)
}

type labelMesh struct {
	label int
	mesh  *fauxgl.Mesh
}

// labelMeshes splits m into one normalized fauxgl mesh per label, in order of
// first appearance.
func labelMeshes(m *mesh.Mesh, faceLabels []int) []labelMesh {
	bb := d3.Bounds(m.Positions())
	center := bb.Center()
	scale := 1.0
	if size := d3.Max(bb.Size()); size > 0 {
		scale = 2 / size
	}
	vertex := func(v int) fauxgl.Vector {
		p := r3.Scale(scale, r3.Sub(m.Position(v), center))
		return fauxgl.V(p.X, p.Y, p.Z)
	}

	index := make(map[int]int)
	var tris [][]*fauxgl.Triangle
	var labels []int
	for f := 0; f < m.NumFaces(); f++ {
		l := faceLabels[f]
		i, ok := index[l]
		if !ok {
			i = len(tris)
			index[l] = i
			tris = append(tris, nil)
			labels = append(labels, l)
		}
		face := m.Face(f)
		tris[i] = append(tris[i], fauxgl.NewTriangleForPoints(vertex(face[0]), vertex(face[1]), vertex(face[2])))
	}
	groups := make([]labelMesh, len(tris))
	for i := range tris {
		groups[i] = labelMesh{label: labels[i], mesh: fauxgl.NewTriangleMesh(tris[i])}
	}
	return groups
}
