package mesh

import "gonum.org/v1/gonum/spatial/r3"

// Grid returns a planar mesh in the XY plane made of nx by ny square cells of
// side length cell, each cell split into two counter clockwise triangles
// along its diagonal. Vertex (i,j) has index j*(nx+1)+i and lies at
// (i*cell, j*cell, 0).
func Grid(nx, ny int, cell float64) *Mesh {
	if nx < 1 || ny < 1 {
		panic("grid needs at least one cell in each direction")
	}
	positions := make([]r3.Vec, 0, (nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			positions = append(positions, r3.Vec{X: float64(i) * cell, Y: float64(j) * cell})
		}
	}
	idx := func(i, j int) int { return j*(nx+1) + i }
	faces := make([][3]int, 0, 2*nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a, b := idx(i, j), idx(i+1, j)
			c, d := idx(i+1, j+1), idx(i, j+1)
			faces = append(faces, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	m, err := New(positions, faces)
	if err != nil {
		panic(err) // unreachable for a well formed grid.
	}
	return m
}
