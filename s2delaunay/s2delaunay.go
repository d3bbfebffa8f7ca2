// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package s2delaunay computes Delaunay triangulations of points on the S2 sphere.
//
// For points on a common sphere the faces of the 3D convex hull are exactly
// the spherical Delaunay triangles, so the triangulation is a thin layer over
// a convex hull routine plus the adjacency bookkeeping built on top of it.

package s2delaunay

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"github.com/markus-wa/quickhull-go/v2"
)

const (
	defaultEps = 1e-12
)

var (
	ErrInsufficientVertices = errors.New("s2delaunay: insufficient vertices for triangulation (minimum 4 required)")
	ErrDegenerate           = errors.New("s2delaunay: degenerate vertex set")
)

// Triangulation stores triangles and point adjacency in dense arrays indexed
// by the input vertex order.
type Triangulation struct {
	Vertices s2.PointVector
	// Triangle vertices in CCW order (look out of sphere).
	Triangles [][3]int
	// NOTE: Sort in CCW per vertex(look out of sphere)
	IncidentTriangleIndices []int
	IncidentTriangleOffsets []int
}

// IncidentTriangles returns the triangles containing vertex vIdx, sorted in
// counter-clockwise order when looking out of the sphere. Consecutive
// triangles share an edge.
func (dt *Triangulation) IncidentTriangles(vIdx int) []int {
	if vIdx < 0 || vIdx+1 >= len(dt.IncidentTriangleOffsets) {
		panic("IncidentTriangles: vIdx out of range")
	}
	start := dt.IncidentTriangleOffsets[vIdx]
	end := dt.IncidentTriangleOffsets[vIdx+1]
	return dt.IncidentTriangleIndices[start:end]
}

func (dt *Triangulation) TriangleVertices(tIdx int) (s2.Point, s2.Point, s2.Point) {
	if tIdx < 0 || tIdx >= len(dt.Triangles) {
		panic("TriangleVertices: tIdx out of bounds")
	}
	t := dt.Triangles[tIdx]
	return dt.Vertices[t[0]], dt.Vertices[t[1]], dt.Vertices[t[2]]
}

func (dt *Triangulation) NumTriangles() int {
	return len(dt.Triangles)
}

// Edges returns every undirected edge once as an ordered pair {a, b} with
// a < b, sorted lexicographically.
func (dt *Triangulation) Edges() [][2]int {
	edges := make([][2]int, 0, len(dt.Triangles)*3/2)
	for _, t := range dt.Triangles {
		for j := range 3 {
			a, b := t[j], t[(j+1)%3]
			// Each edge appears once in each direction on a closed surface.
			if a < b {
				edges = append(edges, [2]int{a, b})
			}
		}
	}
	slices.SortFunc(edges, func(x, y [2]int) int {
		if c := cmp.Compare(x[0], y[0]); c != 0 {
			return c
		}
		return cmp.Compare(x[1], y[1])
	})
	return edges
}

type TriangulationOptions struct {
	Eps float64
}

type TriangulationOption func(*TriangulationOptions) error

func WithEps(eps float64) TriangulationOption {
	return func(o *TriangulationOptions) error {
		if eps <= 0 {
			return fmt.Errorf("WithEps: eps %v must be positive", eps)
		}
		o.Eps = eps
		return nil
	}
}

// NewTriangulation computes the Delaunay triangulation of vertices.
// NOTE: All vertices must lie on a sphere.
func NewTriangulation(vertices s2.PointVector, setters ...TriangulationOption) (*Triangulation, error) {
	opts := TriangulationOptions{
		Eps: defaultEps,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	numVertices := len(vertices)
	if numVertices < 4 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientVertices, numVertices)
	}

	r3vertices := make([]r3.Vector, numVertices)
	for i, p := range vertices {
		r3vertices[i] = p.Vector
	}
	if err := checkAffineSpan(r3vertices, opts.Eps); err != nil {
		return nil, err
	}

	numTriangles := 2 * (numVertices - 2)
	dt := &Triangulation{
		Vertices:                vertices,
		Triangles:               make([][3]int, numTriangles),
		IncidentTriangleIndices: make([]int, numTriangles*3),
		IncidentTriangleOffsets: make([]int, numVertices+1),
	}

	qh := new(quickhull.QuickHull)
	ch := qh.ConvexHull(r3vertices, true, true, opts.Eps)
	if len(ch.Indices) != numTriangles*3 {
		return nil, fmt.Errorf("%w: inconsistent number of indices returned from QuickHull (got %d, want %d)",
			ErrDegenerate, len(ch.Indices), numTriangles*3)
	}

	for _, idx := range ch.Indices {
		if idx < 0 || idx >= numVertices {
			return nil, fmt.Errorf("%w: hull index %d out of range", ErrDegenerate, idx)
		}
		dt.IncidentTriangleOffsets[idx+1]++
	}
	for i := range numVertices {
		if n := dt.IncidentTriangleOffsets[i+1]; n < 3 {
			return nil, fmt.Errorf("%w: vertex %d belongs to %d hull triangles", ErrDegenerate, i, n)
		}
		dt.IncidentTriangleOffsets[i+1] += dt.IncidentTriangleOffsets[i]
	}

	nxt := make([]int, numVertices)
	copy(nxt, dt.IncidentTriangleOffsets[:numVertices])
	for i := range numTriangles {
		base := i * 3
		for j := range 3 {
			v := ch.Indices[base+j]
			dt.Triangles[i][j] = v
			dt.IncidentTriangleIndices[nxt[v]] = i
			nxt[v]++
		}
		t := dt.Triangles[i]
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			return nil, fmt.Errorf("%w: triangle %d repeats a vertex %v", ErrDegenerate, i, t)
		}
		sortTriangleVerticesCCW(&dt.Triangles[i], dt.Vertices)
	}

	for i := range numVertices {
		incidentTriangles := dt.IncidentTriangles(i)
		sortIncidentTriangleIndicesCCW(i, incidentTriangles, dt.Triangles)
		if !isClosedFan(i, incidentTriangles, dt.Triangles) {
			return nil, fmt.Errorf("%w: triangles around vertex %d do not form a closed fan", ErrDegenerate, i)
		}
	}

	return dt, nil
}

// checkAffineSpan fails unless the vertices contain four affinely
// independent points.
func checkAffineSpan(v []r3.Vector, eps float64) error {
	p0 := v[0]

	i1, best := -1, eps
	for i, p := range v {
		if d := p.Sub(p0).Norm(); d > best {
			i1, best = i, d
		}
	}
	if i1 < 0 {
		return fmt.Errorf("%w: all vertices coincide", ErrDegenerate)
	}
	e1 := v[i1].Sub(p0)

	var normal r3.Vector
	best = eps
	for _, p := range v {
		c := e1.Cross(p.Sub(p0))
		if n := c.Norm(); n > best {
			normal, best = c, n
		}
	}
	if best == eps {
		return fmt.Errorf("%w: all vertices are collinear", ErrDegenerate)
	}
	normal = normal.Normalize()

	for _, p := range v {
		if d := normal.Dot(p.Sub(p0)); d > eps || d < -eps {
			return nil
		}
	}
	return fmt.Errorf("%w: all vertices are coplanar", ErrDegenerate)
}

func sortTriangleVerticesCCW(t *[3]int, v s2.PointVector) {
	p0, p1, p2 := v[t[0]], v[t[1]], v[t[2]]
	norm := p1.Sub(p0.Vector).Cross(p2.Sub(p0.Vector))
	if norm.Dot(p0.Vector) < 0 {
		t[1], t[2] = t[2], t[1]
	}
}

// sortIncidentTriangleIndicesCCW orders the fan around vIdx so that each
// triangle's far edge (vIdx, PrevVertex) is the near edge (vIdx, NextVertex)
// of the triangle after it.
func sortIncidentTriangleIndicesCCW(vIdx int, incidentTris []int, tris [][3]int) {
	n := len(incidentTris)
	for i := 1; i < n; i++ {
		prv := PrevVertex(tris[incidentTris[i-1]], vIdx)
		for j := i; j < n; j++ {
			nxt := NextVertex(tris[incidentTris[j]], vIdx)
			if nxt == prv {
				incidentTris[i], incidentTris[j] = incidentTris[j], incidentTris[i]
				break
			}
		}
	}
}

func isClosedFan(vIdx int, incidentTris []int, tris [][3]int) bool {
	n := len(incidentTris)
	for i := range n {
		cur := tris[incidentTris[i]]
		nxt := tris[incidentTris[(i+1)%n]]
		if PrevVertex(cur, vIdx) != NextVertex(nxt, vIdx) {
			return false
		}
	}
	return true
}

func PrevVertex(t [3]int, vIdx int) int {
	switch vIdx {
	case t[0]:
		return t[2]
	case t[1]:
		return t[0]
	case t[2]:
		return t[1]
	}
	panic("PrevVertex: vIdx not in triangle")
}

func NextVertex(t [3]int, vIdx int) int {
	switch vIdx {
	case t[0]:
		return t[1]
	case t[1]:
		return t[2]
	case t[2]:
		return t[0]
	}
	panic("NextVertex: vIdx not in triangle")
}
