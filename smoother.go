package segsmooth

import (
	"context"
	"log"

	"github.com/YRZrandir/SegSmooth/mesh"
	"github.com/YRZrandir/SegSmooth/surface"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// minChunk is the smallest amount of vertices handed to a single goroutine.
const minChunk = 256

// IterationStats records how far vertices moved during one iteration.
type IterationStats struct {
	Iteration int
	// Displacement of control vertices during the control curve pass.
	ControlMax, ControlMean float64
	// Displacement of region vertices during the region pass.
	ROIMax, ROIMean float64
}

// Smoother relaxes control and region vertices of a mesh while keeping them
// on a projector's surface. Only the vertices it was built with are moved.
type Smoother struct {
	m         *mesh.Mesh
	proj      surface.Projector
	control   []int
	isControl *Set
	roi       []int
	workers   int
	logger    *log.Logger

	// write buffers, reused between iterations.
	controlBuf []r3.Vec
	roiBuf     []r3.Vec
	shift      []float64
}

// NewSmoother prepares a smoother for the control vertices of b and the
// region vertices of r. workers limits the goroutines used per pass and must
// be positive.
func NewSmoother(m *mesh.Mesh, proj surface.Projector, b *Boundary, r *Region, workers int) *Smoother {
	if workers < 1 {
		panic("workers must be positive")
	}
	control := b.Control.IDs()
	return &Smoother{
		m:          m,
		proj:       proj,
		control:    control,
		isControl:  b.Control,
		roi:        r.ROI,
		workers:    workers,
		controlBuf: make([]r3.Vec, len(control)),
		roiBuf:     make([]r3.Vec, len(r.ROI)),
		shift:      make([]float64, max(len(control), len(r.ROI))),
	}
}

// SetLogger makes the smoother report every iteration to l. A nil logger
// disables reporting.
func (s *Smoother) SetLogger(l *log.Logger) { s.logger = l }

// Run performs a fixed amount of iterations. There is no convergence check.
// The context is checked between passes; on cancellation positions reflect
// every pass committed so far.
func (s *Smoother) Run(ctx context.Context, iterations int) ([]IterationStats, error) {
	stats := make([]IterationStats, 0, iterations)
	for i := 0; i < iterations; i++ {
		st, err := s.Iterate(ctx)
		if err != nil {
			return stats, err
		}
		st.Iteration = i
		if s.logger != nil {
			s.logger.Printf("iteration %d: control max %.4g mean %.4g, region max %.4g mean %.4g",
				i, st.ControlMax, st.ControlMean, st.ROIMax, st.ROIMean)
		}
		stats = append(stats, st)
	}
	return stats, nil
}

// Iterate runs the control curve pass followed by the region pass.
func (s *Smoother) Iterate(ctx context.Context) (st IterationStats, err error) {
	if err = ctx.Err(); err != nil {
		return st, err
	}
	if err = s.pass(s.control, s.controlBuf, s.controlCandidate); err != nil {
		return st, err
	}
	st.ControlMax, st.ControlMean = s.commit(s.control, s.controlBuf)

	if err = ctx.Err(); err != nil {
		return st, err
	}
	if err = s.pass(s.roi, s.roiBuf, s.roiCandidate); err != nil {
		return st, err
	}
	st.ROIMax, st.ROIMean = s.commit(s.roi, s.roiBuf)
	return st, nil
}

// controlCandidate moves v by its mean offset to neighboring control
// vertices and projects the result. A control vertex with no control
// neighbors stays where it is without projection, since every committed
// position already lies on the surface.
func (s *Smoother) controlCandidate(v int) r3.Vec {
	p := s.m.Position(v)
	var sum r3.Vec
	n := 0
	for _, nb := range s.m.Neighbors(v) {
		if s.isControl.Has(nb) {
			sum = r3.Add(sum, r3.Sub(s.m.Position(nb), p))
			n++
		}
	}
	if n == 0 {
		return p
	}
	return s.proj.NearestPoint(r3.Add(p, r3.Scale(1/float64(n), sum)))
}

// roiCandidate moves v by its mean offset to all neighbors and projects the
// result.
func (s *Smoother) roiCandidate(v int) r3.Vec {
	p := s.m.Position(v)
	neighbors := s.m.Neighbors(v)
	if len(neighbors) == 0 {
		return p
	}
	var sum r3.Vec
	for _, nb := range neighbors {
		sum = r3.Add(sum, r3.Sub(s.m.Position(nb), p))
	}
	return s.proj.NearestPoint(r3.Add(p, r3.Scale(1/float64(len(neighbors)), sum)))
}

// pass computes candidates for every vertex of ids into dst. Mesh positions
// are only read, so every candidate sees the positions from before the pass.
func (s *Smoother) pass(ids []int, dst []r3.Vec, candidate func(v int) r3.Vec) error {
	if len(ids) == 0 {
		return nil
	}
	chunk := max(minChunk, (len(ids)+s.workers-1)/s.workers)
	var g errgroup.Group
	g.SetLimit(s.workers)
	for start := 0; start < len(ids); start += chunk {
		start, end := start, min(start+chunk, len(ids))
		g.Go(func() error {
			for i := start; i < end; i++ {
				dst[i] = candidate(ids[i])
			}
			return nil
		})
	}
	return g.Wait()
}

// commit writes buffered positions into the mesh and returns the maximum and
// mean displacement.
func (s *Smoother) commit(ids []int, buf []r3.Vec) (maxShift, meanShift float64) {
	if len(ids) == 0 {
		return 0, 0
	}
	shift := s.shift[:len(ids)]
	for i, v := range ids {
		shift[i] = r3.Norm(r3.Sub(buf[i], s.m.Position(v)))
		s.m.SetPosition(v, buf[i])
	}
	return floats.Max(shift), stat.Mean(shift, nil)
}
