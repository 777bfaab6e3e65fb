// Command segsmooth smooths the label boundaries of a segmented mesh.
//
// Usage:
//
//	segsmooth -in tooth.obj -labels tooth.json -out smoothed.obj
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/YRZrandir/SegSmooth"
	"github.com/YRZrandir/SegSmooth/helpers/plotstats"
	"github.com/YRZrandir/SegSmooth/helpers/preview"
	"github.com/YRZrandir/SegSmooth/mesh"
	"github.com/YRZrandir/SegSmooth/meshio"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/term"
)

var (
	source      = flag.String("in", "", "input mesh (.obj or .stl)")
	labelsPath  = flag.String("labels", "", "JSON vertex label file, defaults to the vertex colors of an OBJ input")
	destination = flag.String("out", "", "output mesh (.obj, .stl or .off)")
	iterations  = flag.Int("iter", 10, "relaxation iterations")
	rounds      = flag.Int("rounds", 5, "face dilation rounds around the boundary")
	workers     = flag.Int("workers", 0, "goroutines per pass, 0 uses every CPU")
	weldTol     = flag.Float64("weld", 0, "STL vertex welding tolerance")
	keepLabels  = flag.Bool("keep-unassigned", false, "do not fold label 100 into the background")
	pngPath     = flag.String("png", "", "write a preview image of the smoothed mesh")
	plotPath    = flag.String("plot", "", "write a plot of per-iteration displacement")
	verbose     = flag.Bool("v", false, "log every iteration")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("segsmooth: ")
	flag.Parse()
	if *source == "" || *destination == "" {
		log.Fatal("usage: segsmooth -in mesh.obj [-labels labels.json] -out out.obj")
	}

	m, labels, err := load(*source, *labelsPath)
	if err != nil {
		log.Fatal(err)
	}

	cfg := segsmooth.DefaultConfig()
	cfg.Iterations = *iterations
	cfg.DilationRounds = *rounds
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *keepLabels {
		cfg.LabelRemap = nil
	}
	if *verbose || term.IsTerminal(int(os.Stderr.Fd())) {
		cfg.Logger = log.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	start := time.Now()
	res, err := segsmooth.Smooth(ctx, m, labels, cfg)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("smoothed in %.2fs, labels %s", time.Since(start).Seconds(), histogram(res.Labels.Histogram()))

	if err := save(*destination, m, res.Labels.Vertex); err != nil {
		log.Fatal(err)
	}
	if *pngPath != "" {
		if err := preview.SavePNG(*pngPath, m, res.FaceLabels(), preview.DefaultView()); err != nil {
			log.Fatal(err)
		}
	}
	if *plotPath != "" && len(res.Iterations) > 0 {
		if err := plotstats.SavePNG(*plotPath, res.Iterations); err != nil {
			log.Fatal(err)
		}
	}
}

func load(meshPath, labelPath string) (*mesh.Mesh, []int, error) {
	var (
		md  *meshio.Model
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(meshPath)); ext {
	case ".obj":
		md, err = meshio.ReadOBJFile(meshPath)
	case ".stl":
		md, err = meshio.ReadSTLFile(meshPath, *weldTol)
	default:
		return nil, nil, fmt.Errorf("unsupported mesh format %q", ext)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", meshPath, err)
	}
	m, err := md.Mesh()
	if err != nil {
		return nil, nil, fmt.Errorf("building mesh from %s: %w", meshPath, err)
	}
	var labels []int
	if labelPath != "" {
		labels, err = meshio.ReadLabelsFile(labelPath)
	} else {
		labels, err = md.ColorLabels()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading labels: %w", err)
	}
	return m, labels, nil
}

func save(path string, m *mesh.Mesh, labels []int) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		return meshio.CreateOBJ(path, m, labels)
	case ".stl":
		return meshio.CreateSTL(path, m)
	case ".off":
		return meshio.CreateOFF(path, m)
	default:
		return fmt.Errorf("unsupported output format %q", ext)
	}
}

// histogram formats label counts in ascending label order.
func histogram(h map[int]int) string {
	keys := maps.Keys(h)
	slices.Sort(keys)
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d:%d", k, h[k])
	}
	return sb.String()
}
