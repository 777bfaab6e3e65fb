// Package segsmooth smooths the boundaries between labeled regions of a
// triangle mesh.
//
// Labels are given per vertex. Where adjacent faces disagree, the boundary
// curve and a buffer of faces around it are relaxed towards their neighbors'
// average position. After every step vertices are projected back onto the
// original surface so the mesh keeps its shape.
package segsmooth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"

	"github.com/YRZrandir/SegSmooth/mesh"
	"github.com/YRZrandir/SegSmooth/surface"
)

var (
	// ErrLabelCount is returned when the label count differs from the
	// mesh vertex count.
	ErrLabelCount = errors.New("number of labels != number of vertices")
	// ErrBadConfig is returned for invalid Config values.
	ErrBadConfig = errors.New("invalid smoothing configuration")
)

// Config controls a smoothing run. The zero value is not valid, start from
// DefaultConfig.
type Config struct {
	// Iterations is the fixed amount of relaxation iterations.
	Iterations int
	// DilationRounds is the amount of face rings added around the boundary.
	DilationRounds int
	// Workers limits the goroutines used per relaxation pass.
	Workers int
	// LabelRemap replaces vertex labels before face labels are derived.
	// Labels not in the map are kept as is.
	LabelRemap map[int]int
	// Logger receives progress messages if not nil.
	Logger *log.Logger
}

// DefaultConfig returns the configuration used by SmoothBoundaries.
func DefaultConfig() Config {
	return Config{
		Iterations:     10,
		DilationRounds: 5,
		Workers:        runtime.NumCPU(),
		LabelRemap:     DefaultLabelRemap(),
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	switch {
	case c.Iterations < 0:
		return fmt.Errorf("negative iterations %d: %w", c.Iterations, ErrBadConfig)
	case c.DilationRounds < 0:
		return fmt.Errorf("negative dilation rounds %d: %w", c.DilationRounds, ErrBadConfig)
	case c.Workers < 1:
		return fmt.Errorf("need at least one worker, got %d: %w", c.Workers, ErrBadConfig)
	}
	return nil
}

// Result describes a completed smoothing run.
type Result struct {
	Labels     *Labels
	Boundary   *Boundary
	Region     *Region
	Iterations []IterationStats
}

// FaceLabels returns the derived per-face labels.
func (r *Result) FaceLabels() []int { return r.Labels.FaceLabels() }

// SmoothBoundaries smooths the label boundaries of m in place using
// DefaultConfig. Positions are left untouched if an error is returned.
func SmoothBoundaries(m *mesh.Mesh, vertexLabels []int) error {
	_, err := Smooth(context.Background(), m, vertexLabels, DefaultConfig())
	return err
}

// Smooth relaxes the label boundaries of m in place. Labels are validated
// before any vertex is moved.
func Smooth(ctx context.Context, m *mesh.Mesh, vertexLabels []int, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	labels, err := AssignLabels(m, vertexLabels, cfg.LabelRemap)
	if err != nil {
		return nil, err
	}
	logf := func(format string, args ...interface{}) {
		if cfg.Logger != nil {
			cfg.Logger.Printf(format, args...)
		}
	}
	logf("%s", m)
	boundary := DetectBoundary(m, labels)
	region := GrowRegion(m, boundary, cfg.DilationRounds)
	result := &Result{Labels: labels, Boundary: boundary, Region: region}
	logf("boundary: %d control vertices, %d faces; region: %d faces, %d vertices after %d rounds",
		boundary.Control.Len(), boundary.Faces.Len(), region.Faces.Len(), len(region.ROI), region.Rounds)
	if boundary.Control.Len() == 0 && len(region.ROI) == 0 {
		return result, nil
	}

	frozen, err := surface.NewFrozen(m.Positions(), m.Faces())
	if err != nil {
		return nil, err
	}
	sm := NewSmoother(m, frozen, boundary, region, cfg.Workers)
	sm.SetLogger(cfg.Logger)
	result.Iterations, err = sm.Run(ctx, cfg.Iterations)
	return result, err
}
