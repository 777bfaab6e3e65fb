package surface

import (
	"math"
	"sort"

	"github.com/YRZrandir/SegSmooth/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxLeafTriangles is the largest amount of triangles stored in a BIH leaf.
const maxLeafTriangles = 4

type clipAxis int

const (
	leaf clipAxis = iota
	xClip
	yClip
	zClip
)

// bihNode is a bounding interval hierarchy node. Internal nodes store the
// left child's maximum and the right child's minimum along their axis.
// Leaves store a range into the sorted triangle list.
type bihNode struct {
	axis clipAxis
	// index of left child. Right child is at child+1.
	child               int
	leftClip, rightClip float64
	start, end          int
}

type bihTriangle struct {
	v        [3]int
	face     int // index in the original face list.
	centroid r3.Vec
}

func (c clipAxis) of(v r3.Vec) float64 {
	switch c {
	case xClip:
		return v.X
	case yClip:
		return v.Y
	case zClip:
		return v.Z
	}
	panic("unreachable")
}

// buildBIH sorts tris in place and returns the hierarchy nodes with the root at 0.
func buildBIH(tris []bihTriangle, verts []r3.Vec, bb r3.Box) []bihNode {
	nodes := make([]bihNode, 1, 2*len(tris)/maxLeafTriangles+1)
	return subdivide(nodes, 0, 0, tris, verts, bb)
}

func subdivide(nodes []bihNode, idx, offset int, tris []bihTriangle, verts []r3.Vec, bb r3.Box) []bihNode {
	if len(tris) <= maxLeafTriangles {
		nodes[idx] = bihNode{axis: leaf, start: offset, end: offset + len(tris)}
		return nodes
	}
	// Classical heuristic: split the longest axis using the median centroid.
	size := r3.Sub(bb.Max, bb.Min)
	axis := zClip
	switch {
	case size.X >= size.Y && size.X >= size.Z:
		axis = xClip
	case size.Y >= size.Z:
		axis = yClip
	}
	sort.Slice(tris, func(i, j int) bool {
		return axis.of(tris[i].centroid) < axis.of(tris[j].centroid)
	})
	half := len(tris) / 2
	leftBB := trianglesBox(tris[:half], verts)
	rightBB := trianglesBox(tris[half:], verts)

	children := len(nodes)
	nodes = append(nodes, bihNode{}, bihNode{})
	nodes = subdivide(nodes, children, offset, tris[:half], verts, leftBB)
	nodes = subdivide(nodes, children+1, offset+half, tris[half:], verts, rightBB)
	nodes[idx] = bihNode{
		axis:      axis,
		child:     children,
		leftClip:  axis.of(leftBB.Max),
		rightClip: axis.of(rightBB.Min),
	}
	return nodes
}

func trianglesBox(tris []bihTriangle, verts []r3.Vec) r3.Box {
	bb := d3.EmptyBox()
	for _, t := range tris {
		for _, vi := range t.v {
			bb = bb.Include(verts[vi])
		}
	}
	return r3.Box(bb)
}

// minDistBox returns the squared distance from target to the box, slightly
// underestimated so boxes touching the current best are still visited.
func minDistBox(target r3.Vec, bb r3.Box) float64 {
	dx := math.Max(0, math.Max(target.X-bb.Max.X, bb.Min.X-target.X))
	dy := math.Max(0, math.Max(target.Y-bb.Max.Y, bb.Min.Y-target.Y))
	dz := math.Max(0, math.Max(target.Z-bb.Max.Z, bb.Min.Z-target.Z))
	return dx*dx + dy*dy + dz*dz - 1e-12
}

type nearestResult struct {
	dist2   float64
	closest r3.Vec
	tri     int // index into the sorted triangle list.
}

func (s *Frozen) nearest(target r3.Vec, idx int, bb r3.Box, best nearestResult) nearestResult {
	node := &s.nodes[idx]
	if node.axis == leaf {
		for i := node.start; i < node.end; i++ {
			closest := closestOnTriangle(target, s.triangle(i))
			if d2 := r3.Norm2(r3.Sub(target, closest)); d2 < best.dist2 {
				best = nearestResult{dist2: d2, closest: closest, tri: i}
			}
		}
		return best
	}
	leftBB, rightBB := bb, bb
	switch node.axis {
	case xClip:
		leftBB.Max.X, rightBB.Min.X = node.leftClip, node.rightClip
	case yClip:
		leftBB.Max.Y, rightBB.Min.Y = node.leftClip, node.rightClip
	case zClip:
		leftBB.Max.Z, rightBB.Min.Z = node.leftClip, node.rightClip
	}
	leftD2 := minDistBox(target, leftBB)
	rightD2 := minDistBox(target, rightBB)
	// Visit the closer child first to tighten the bound early.
	if leftD2 <= rightD2 {
		if leftD2 < best.dist2 {
			best = s.nearest(target, node.child, leftBB, best)
		}
		if rightD2 < best.dist2 {
			best = s.nearest(target, node.child+1, rightBB, best)
		}
	} else {
		if rightD2 < best.dist2 {
			best = s.nearest(target, node.child+1, rightBB, best)
		}
		if leftD2 < best.dist2 {
			best = s.nearest(target, node.child, leftBB, best)
		}
	}
	return best
}

// closestOnTriangle is based on Geometric Tools' algorithm for the
// distance between a point and a solid triangle,
// licensed under the Boost Software License.
func closestOnTriangle(target r3.Vec, tri [3]r3.Vec) r3.Vec {
	a, b, c := tri[0], tri[1], tri[2]
	edge0 := r3.Sub(b, a)
	edge1 := r3.Sub(c, a)
	if r3.Norm2(r3.Cross(edge0, edge1)) == 0 {
		return closestOnDegenerate(target, tri)
	}
	diff := r3.Sub(target, a)
	a00 := r3.Dot(edge0, edge0)
	a01 := r3.Dot(edge0, edge1)
	a11 := r3.Dot(edge1, edge1)
	b0 := -r3.Dot(diff, edge0)
	b1 := -r3.Dot(diff, edge1)

	f00 := b0
	f10 := b0 + a00
	f01 := b0 + a01

	var p, p0, p1 [2]float64
	var dt1, h0, h1 float64
	switch {
	case f00 >= 0:
		if f01 >= 0 {
			p = minEdge02(a11, b1)
			break
		}
		p0 = [2]float64{0, f00 / (f00 - f01)}
		p1[0] = f01 / (f01 - f10)
		p1[1] = 1 - p1[0]
		dt1 = p1[1] - p0[1]
		h0 = dt1 * (a11*p0[1] + b1)
		if h0 >= 0 {
			p = minEdge02(a11, b1)
			break
		}
		h1 = dt1 * (a01*p1[0] + a11*p1[1] + b1)
		if h1 <= 0 {
			p = minEdge12(a01, a11, b1, f10, f01)
		} else {
			p = minInterior(p0, h0, p1, h1)
		}
	case f01 <= 0:
		if f10 <= 0 {
			p = minEdge12(a01, a11, b1, f10, f01)
			break
		}
		p0 = [2]float64{f00 / (f00 - f10), 0}
		p1[0] = f01 / (f01 - f10)
		p1[1] = 1 - p1[0]
		h0 = p1[1] * (a01*p0[0] + b1)
		if h0 >= 0 {
			p = p0
			break
		}
		h1 = p1[1] * (a01*p1[0] + a11*p1[1] + b1)
		if h1 <= 0 {
			p = minEdge12(a01, a11, b1, f10, f01)
		} else {
			p = minInterior(p0, h0, p1, h1)
		}
	case f10 <= 0:
		p0 = [2]float64{0, f00 / (f00 - f01)}
		p1[0] = f01 / (f01 - f10)
		p1[1] = 1 - p1[0]
		dt1 = p1[1] - p0[1]
		h0 = dt1 * (a11*p0[1] + b1)
		if h0 >= 0 {
			p = minEdge02(a11, b1)
			break
		}
		h1 = dt1 * (a01*p1[0] + a11*p1[1] + b1)
		if h1 <= 0 {
			p = minEdge12(a01, a11, b1, f10, f01)
		} else {
			p = minInterior(p0, h0, p1, h1)
		}
	default:
		p0 = [2]float64{f00 / (f00 - f10), 0}
		p1 = [2]float64{0, f00 / (f00 - f01)}
		h0 = p1[1] * (a01*p0[0] + b1)
		if h0 >= 0 {
			p = p0
			break
		}
		h1 = p1[1] * (a11*p1[1] + b1)
		if h1 <= 0 {
			p = minEdge02(a11, b1)
		} else {
			p = minInterior(p0, h0, p1, h1)
		}
	}
	return r3.Add(a, r3.Add(r3.Scale(p[0], edge0), r3.Scale(p[1], edge1)))
}

func minEdge02(a11, b1 float64) (p [2]float64) {
	switch {
	case b1 >= 0:
		p[1] = 0
	case a11+b1 <= 0:
		p[1] = 1
	default:
		p[1] = -b1 / a11
	}
	return p
}

func minEdge12(a01, a11, b1, f10, f01 float64) (p [2]float64) {
	h0 := a01 + b1 - f10
	if h0 >= 0 {
		p[1] = 0
	} else {
		h1 := a11 + b1 - f01
		if h1 <= 0 {
			p[1] = 1
		} else {
			p[1] = h0 / (h0 - h1)
		}
	}
	p[0] = 1 - p[1]
	return p
}

func minInterior(p0 [2]float64, h0 float64, p1 [2]float64, h1 float64) (p [2]float64) {
	z := h0 / (h0 - h1)
	omz := 1 - z
	p[0] = omz*p0[0] + z*p1[0]
	p[1] = omz*p0[1] + z*p1[1]
	return p
}

// closestOnDegenerate handles zero area triangles by testing their sides.
func closestOnDegenerate(target r3.Vec, tri [3]r3.Vec) r3.Vec {
	best := tri[0]
	bestD2 := math.Inf(1)
	for i := range tri {
		c := closestOnSegment(target, tri[i], tri[(i+1)%3])
		if d2 := r3.Norm2(r3.Sub(target, c)); d2 < bestD2 {
			best, bestD2 = c, d2
		}
	}
	return best
}

func closestOnSegment(target, a, b r3.Vec) r3.Vec {
	ab := r3.Sub(b, a)
	l2 := r3.Norm2(ab)
	if l2 == 0 {
		return a
	}
	t := r3.Dot(r3.Sub(target, a), ab) / l2
	t = math.Max(0, math.Min(1, t))
	return r3.Add(a, r3.Scale(t, ab))
}
