package segsmooth

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/YRZrandir/SegSmooth/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// seamLabels labels the 2x2 grid so that left faces carry label 0 and right
// faces label 1, split along the straight line x=1.
var seamLabels = []int{
	0, 0, 1,
	0, 1, 1,
	0, 0, 1,
}

// columnLabels labels grid vertices with 0 up to column split and 1 after it.
func columnLabels(nx, ny, split int) []int {
	labels := make([]int, 0, (nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			if i <= split {
				labels = append(labels, 0)
			} else {
				labels = append(labels, 1)
			}
		}
	}
	return labels
}

// wavyGrid returns a grid displaced out of plane so projection matters.
func wavyGrid(n int) *mesh.Mesh {
	g := mesh.Grid(n, n, 1)
	pos := g.Positions()
	for i, p := range pos {
		pos[i].Z = math.Sin(p.X/3) * math.Cos(p.Y/4)
	}
	m, err := mesh.New(pos, g.Faces())
	if err != nil {
		panic(err)
	}
	return m
}

type identityProjector struct{}

func (identityProjector) NearestPoint(q r3.Vec) r3.Vec { return q }

type countingProjector struct{ calls int }

func (c *countingProjector) NearestPoint(q r3.Vec) r3.Vec {
	c.calls++
	return q
}

func TestMajorityLabel(t *testing.T) {
	for _, tc := range []struct {
		l    [3]int
		want int
	}{
		{[3]int{2, 2, 2}, 2},
		{[3]int{1, 1, 4}, 1},
		{[3]int{1, 4, 1}, 1},
		{[3]int{4, 1, 1}, 1},
		{[3]int{7, 3, 5}, 7}, // no majority: first corner.
		{[3]int{3, 7, 5}, 3},
	} {
		got := majorityLabel(tc.l[0], tc.l[1], tc.l[2])
		if got != tc.want {
			t.Errorf("majorityLabel%v = %d, want %d", tc.l, got, tc.want)
		}
	}
}

func TestAssignLabels(t *testing.T) {
	m := mesh.Grid(2, 2, 1)
	input := []int{100, 0, 1, 0, 1, 1, 0, 0, 1}
	labels, err := AssignLabels(m, input, DefaultLabelRemap())
	if err != nil {
		t.Fatal(err)
	}
	if input[0] != 100 {
		t.Error("input labels were modified")
	}
	if labels.VertexLabel(0) != BackgroundLabel {
		t.Errorf("unassigned label not remapped, got %d", labels.VertexLabel(0))
	}
	want := []int{0, 0, 1, 1, 0, 0, 1, 1}
	got := labels.FaceLabels()
	for f := range want {
		if got[f] != want[f] || labels.FaceLabel(f) != want[f] {
			t.Errorf("face %d label %d, want %d", f, got[f], want[f])
		}
	}
	h := labels.Histogram()
	if h[0] != 5 || h[1] != 4 {
		t.Errorf("unexpected histogram %v", h)
	}
	// Without remap the label is kept.
	labels, err = AssignLabels(m, input, nil)
	if err != nil {
		t.Fatal(err)
	}
	if labels.VertexLabel(0) != UnassignedLabel {
		t.Errorf("got %d, want label kept", labels.VertexLabel(0))
	}
}

func TestLabelCountMismatch(t *testing.T) {
	m := mesh.Grid(2, 2, 1)
	before := m.Positions()
	_, err := Smooth(context.Background(), m, []int{0, 1, 0}, DefaultConfig())
	if !errors.Is(err, ErrLabelCount) {
		t.Fatalf("want ErrLabelCount, got %v", err)
	}
	if err := SmoothBoundaries(m, make([]int, 10)); !errors.Is(err, ErrLabelCount) {
		t.Fatalf("want ErrLabelCount, got %v", err)
	}
	for v, p := range m.Positions() {
		if p != before[v] {
			t.Fatalf("vertex %d moved after rejected input", v)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatal(err)
	}
	for _, cfg := range []Config{
		{Iterations: -1, Workers: 1},
		{DilationRounds: -1, Workers: 1},
		{Workers: 0},
	} {
		if err := cfg.Validate(); !errors.Is(err, ErrBadConfig) {
			t.Errorf("config %+v: want ErrBadConfig, got %v", cfg, err)
		}
	}
	m := mesh.Grid(1, 1, 1)
	if _, err := Smooth(context.Background(), m, make([]int, 4), Config{}); !errors.Is(err, ErrBadConfig) {
		t.Errorf("zero config accepted: %v", err)
	}
}

func TestUniformLabelsUnchanged(t *testing.T) {
	m := wavyGrid(6)
	before := m.Positions()
	labels := make([]int, m.NumVertices())
	for i := range labels {
		labels[i] = 3
	}
	res, err := Smooth(context.Background(), m, labels, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Boundary.Empty() || res.Boundary.Control.Len() != 0 || res.Boundary.Faces.Len() != 0 {
		t.Errorf("uniform mesh produced boundary: %d control, %d faces", res.Boundary.Control.Len(), res.Boundary.Faces.Len())
	}
	if res.Region.Faces.Len() != 0 || len(res.Region.ROI) != 0 {
		t.Errorf("uniform mesh produced region of %d faces", res.Region.Faces.Len())
	}
	for v, p := range m.Positions() {
		if p != before[v] {
			t.Fatalf("vertex %d moved from %v to %v", v, before[v], p)
		}
	}
}

func TestBoundarySymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m := mesh.Grid(8, 8, 1)
	for trial := 0; trial < 20; trial++ {
		vl := make([]int, m.NumVertices())
		for i := range vl {
			vl[i] = rng.Intn(3)
		}
		labels, err := AssignLabels(m, vl, nil)
		if err != nil {
			t.Fatal(err)
		}
		b := DetectBoundary(m, labels)
		for h := 0; h < m.NumHalfedges(); h++ {
			if m.IsBorder(h) {
				continue
			}
			f, g := m.FaceOf(h), m.FaceOf(m.Opposite(h))
			if labels.Face[f] == labels.Face[g] {
				continue
			}
			if !b.Control.Has(m.Source(h)) || !b.Control.Has(m.Target(h)) {
				t.Fatalf("boundary edge %d-%d missing control endpoint", m.Source(h), m.Target(h))
			}
			if !b.Faces.Has(f) || !b.Faces.Has(g) {
				t.Fatalf("faces %d,%d of boundary edge not marked", f, g)
			}
		}
		for f := 0; f < m.NumFaces(); f++ {
			if !labels.uniformFace(m, f) && !b.Faces.Has(f) {
				t.Fatalf("mixed face %d not marked", f)
			}
		}
	}
}

func TestSeamBoundary(t *testing.T) {
	m := mesh.Grid(2, 2, 1)
	labels, err := AssignLabels(m, seamLabels, nil)
	if err != nil {
		t.Fatal(err)
	}
	b := DetectBoundary(m, labels)
	if got := b.Control.IDs(); len(got) != 3 || got[0] != 1 || got[1] != 4 || got[2] != 7 {
		t.Errorf("control vertices %v, want [1 4 7]", got)
	}
	if got := b.Faces.IDs(); len(got) != 6 {
		t.Errorf("disagreement faces %v, want 6 of them", got)
	}
	r := GrowRegion(m, b, 5)
	if r.Faces.Len() != m.NumFaces() {
		t.Errorf("grown region has %d faces, want all %d", r.Faces.Len(), m.NumFaces())
	}
	if r.Rounds != 1 {
		t.Errorf("region grew for %d rounds, want 1", r.Rounds)
	}
	want := []int{0, 2, 3, 5, 6, 8}
	if len(r.ROI) != len(want) {
		t.Fatalf("ROI %v, want %v", r.ROI, want)
	}
	for i := range want {
		if r.ROI[i] != want[i] {
			t.Fatalf("ROI %v, want %v", r.ROI, want)
		}
	}
}

// unionGrow dilates by adding every neighbor of every face each round.
func unionGrow(m *mesh.Mesh, seed *Set, rounds int) *Set {
	s := seed.clone()
	for i := 0; i < rounds; i++ {
		next := s.clone()
		for _, f := range s.IDs() {
			m.FacesAroundFace(f, func(g int) { next.Add(g) })
		}
		s = next
	}
	return s
}

func TestRegionGrowth(t *testing.T) {
	m := mesh.Grid(4, 4, 1)
	labels, err := AssignLabels(m, columnLabels(4, 4, 2), nil)
	if err != nil {
		t.Fatal(err)
	}
	b := DetectBoundary(m, labels)
	// Only faces of the cell column between x=2 and x=3 mix labels.
	if b.Faces.Len() != 8 {
		t.Fatalf("got %d disagreement faces, want 8", b.Faces.Len())
	}
	prev := b.Faces
	for k := 0; k <= 5; k++ {
		r := GrowRegion(m, b, k)
		if !b.Faces.SubsetOf(r.Faces) {
			t.Fatalf("round %d: seed faces not contained in region", k)
		}
		if !prev.SubsetOf(r.Faces) {
			t.Fatalf("round %d: region shrank", k)
		}
		want := unionGrow(m, b.Faces, k)
		if !want.SubsetOf(r.Faces) || !r.Faces.SubsetOf(want) {
			t.Fatalf("round %d: got faces %v, want %v", k, r.Faces.IDs(), want.IDs())
		}
		for _, v := range r.ROI {
			if b.Control.Has(v) {
				t.Fatalf("round %d: control vertex %d in ROI", k, v)
			}
		}
		prev = r.Faces
	}
	// Four rounds reach the far left triangles of the 4x4 grid.
	if got := GrowRegion(m, b, 3).Faces.Len(); got != m.NumFaces()-4 {
		t.Errorf("3 rounds covered %d faces, want %d", got, m.NumFaces()-4)
	}
	if r := GrowRegion(m, b, 5); r.Faces.Len() != m.NumFaces() || r.Rounds != 4 {
		t.Errorf("5 rounds covered %d faces in %d rounds, want %d in 4", r.Faces.Len(), r.Rounds, m.NumFaces())
	}
	if got := GrowRegion(m, b, 1).Faces.Len(); got != 16 {
		t.Errorf("1 round covered %d faces, want 16", got)
	}
}

func TestSeamScenario(t *testing.T) {
	const tol = 1e-12
	m := mesh.Grid(2, 2, 1)
	cfg := DefaultConfig()
	res, err := Smooth(context.Background(), m, seamLabels, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Iterations) != cfg.Iterations {
		t.Fatalf("got %d iteration stats, want %d", len(res.Iterations), cfg.Iterations)
	}
	for _, v := range res.Boundary.Control.IDs() {
		p := m.Position(v)
		if p.Z != 0 {
			t.Errorf("seam vertex %d left the plane: %v", v, p)
		}
		if math.Abs(p.X-1) > tol {
			t.Errorf("seam vertex %d left the straight seam: %v", v, p)
		}
	}
	for v := 0; v < m.NumVertices(); v++ {
		p := m.Position(v)
		if p.Z != 0 || p.X < -tol || p.X > 2+tol || p.Y < -tol || p.Y > 2+tol {
			t.Errorf("vertex %d projected off the original square: %v", v, p)
		}
	}
}

func TestDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	base := wavyGrid(16)
	labels := make([]int, base.NumVertices())
	for v := range labels {
		p := base.Position(v)
		// Curved boundary with noise.
		if p.Y > 8+3*math.Sin(p.X/2)+rng.Float64() {
			labels[v] = 1
		}
	}
	run := func(workers int) []r3.Vec {
		m, err := mesh.New(base.Positions(), base.Faces())
		if err != nil {
			t.Fatal(err)
		}
		cfg := DefaultConfig()
		cfg.Workers = workers
		if _, err := Smooth(context.Background(), m, labels, cfg); err != nil {
			t.Fatal(err)
		}
		return m.Positions()
	}
	a, b, c := run(4), run(4), run(1)
	moved := false
	for v := range a {
		if a[v] != b[v] || a[v] != c[v] {
			t.Fatalf("vertex %d differs between runs: %v %v %v", v, a[v], b[v], c[v])
		}
		if a[v] != base.Position(v) {
			moved = true
		}
	}
	if !moved {
		t.Error("no vertex moved")
	}
}

func TestZeroControlNeighbors(t *testing.T) {
	m := wavyGrid(2)
	before := m.Position(4)
	b := &Boundary{Control: newSet(m.NumVertices()), Faces: newSet(m.NumFaces())}
	b.Control.Add(4)
	r := &Region{Faces: newSet(m.NumFaces())}
	proj := &countingProjector{}
	sm := NewSmoother(m, proj, b, r, 1)
	stats, err := sm.Run(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Position(4); got != before {
		t.Errorf("isolated control vertex moved from %v to %v", before, got)
	}
	if proj.calls != 0 {
		t.Errorf("isolated control vertex was projected %d times", proj.calls)
	}
	for _, st := range stats {
		if st.ControlMax != 0 || math.IsNaN(st.ControlMean) {
			t.Errorf("unexpected stats %+v", st)
		}
	}
}

// TestPassesReadSnapshot checks each pass against a sequential computation
// that reads positions from before the pass.
func TestPassesReadSnapshot(t *testing.T) {
	m := wavyGrid(8)
	vl := columnLabels(8, 8, 4)
	labels, err := AssignLabels(m, vl, nil)
	if err != nil {
		t.Fatal(err)
	}
	b := DetectBoundary(m, labels)
	r := GrowRegion(m, b, 2)
	ref := m.Positions()
	sm := NewSmoother(m, identityProjector{}, b, r, 3)
	if _, err := sm.Iterate(context.Background()); err != nil {
		t.Fatal(err)
	}

	relax := func(ids []int, use func(int) bool) {
		snapshot := append([]r3.Vec(nil), ref...)
		for _, v := range ids {
			p := snapshot[v]
			var sum r3.Vec
			n := 0
			for _, nb := range m.Neighbors(v) {
				if use(nb) {
					sum = r3.Add(sum, r3.Sub(snapshot[nb], p))
					n++
				}
			}
			if n > 0 {
				ref[v] = r3.Add(p, r3.Scale(1/float64(n), sum))
			}
		}
	}
	relax(b.Control.IDs(), b.Control.Has)
	relax(r.ROI, func(int) bool { return true })
	for v, want := range ref {
		if got := m.Position(v); got != want {
			t.Fatalf("vertex %d: got %v, want %v", v, got, want)
		}
	}
}

func TestOutsideRegionUntouched(t *testing.T) {
	m := wavyGrid(20)
	before := m.Positions()
	cfg := DefaultConfig()
	cfg.DilationRounds = 1
	res, err := Smooth(context.Background(), m, columnLabels(20, 20, 10), cfg)
	if err != nil {
		t.Fatal(err)
	}
	touched := newSet(m.NumVertices())
	for _, v := range res.Region.ROI {
		touched.Add(v)
	}
	for _, v := range res.Boundary.Control.IDs() {
		touched.Add(v)
	}
	for v, p := range m.Positions() {
		if !touched.Has(v) && p != before[v] {
			t.Errorf("vertex %d outside region moved", v)
		}
	}
}

func TestSmoothCanceled(t *testing.T) {
	m := mesh.Grid(2, 2, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Smooth(ctx, m, seamLabels, DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}

func TestSmoothLogs(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Iterations = 2
	cfg.Logger = log.New(&buf, "", 0)
	m := mesh.Grid(2, 2, 1)
	if _, err := Smooth(context.Background(), m, seamLabels, cfg); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Mesh v=9, f=8", "3 control vertices", "iteration 1:"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func BenchmarkSmooth(b *testing.B) {
	base := wavyGrid(100)
	labels := columnLabels(100, 100, 50)
	for i := 0; i < b.N; i++ {
		m, err := mesh.New(base.Positions(), base.Faces())
		if err != nil {
			b.Fatal(err)
		}
		if _, err := Smooth(context.Background(), m, labels, DefaultConfig()); err != nil {
			b.Fatal(err)
		}
	}
}
