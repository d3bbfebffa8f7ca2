// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2voronoi

import (
	"errors"
	"fmt"
	"math"

	"github.com/2dChan/voronoiplanet/s2delaunay"
	"github.com/golang/geo/s2"
)

const (
	defaultEps = 1e-12
)

var (
	ErrDegenerateTriangle  = errors.New("s2voronoi: degenerate triangle")
	ErrAsymmetricNeighbors = errors.New("s2voronoi: asymmetric neighbor relation")
	ErrInvalidCell         = errors.New("s2voronoi: invalid cell")
)

// Diagram is a spherical Voronoi diagram stored as flat arrays. Cell i is
// generated by Sites[i]; its vertices and neighbors live in
// CellVertices[CellOffsets[i]:CellOffsets[i+1]] and the same range of
// CellNeighbors. Vertices[t] is the circumcenter of Delaunay triangle t.
type Diagram struct {
	Sites    s2.PointVector
	Vertices s2.PointVector

	// NOTE: Sort in CCW per Cell(look out of sphere)
	CellVertices []int
	// NOTE: CellNeighbors[k] lies across the edge CellVertices[k], CellVertices[k+1].
	CellNeighbors []int
	CellOffsets   []int

	eps float64
}

type DiagramOptions struct {
	Eps float64
}

type DiagramOption func(*DiagramOptions) error

// WithEps sets the tolerance used by the convex hull and the minimum
// triangle normal length accepted for a circumcenter.
func WithEps(eps float64) DiagramOption {
	return func(o *DiagramOptions) error {
		if eps <= 0 {
			return fmt.Errorf("WithEps: eps %v must be positive", eps)
		}
		o.Eps = eps
		return nil
	}
}

func (vd *Diagram) NumCells() int {
	return len(vd.Sites)
}

func (vd *Diagram) Cell(i int) (Cell, error) {
	if i < 0 || i >= vd.NumCells() {
		return Cell{}, fmt.Errorf("Cell: index %d out of range [0 %d)", i, vd.NumCells())
	}
	return Cell{idx: i, d: vd}, nil
}

// NewDiagram builds the Voronoi diagram of sites, which must lie on the unit
// sphere. Each cell boundary starts at the vertex with the smallest angle in
// a fixed tangent frame at its site and proceeds counter-clockwise.
func NewDiagram(sites s2.PointVector, setters ...DiagramOption) (*Diagram, error) {
	opts := DiagramOptions{
		Eps: defaultEps,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	dt, err := s2delaunay.NewTriangulation(sites, s2delaunay.WithEps(opts.Eps))
	if err != nil {
		return nil, err
	}

	numTriangles := len(dt.Triangles)
	numIncident := len(dt.IncidentTriangleIndices)
	vd := &Diagram{
		Sites:         dt.Vertices,
		Vertices:      make(s2.PointVector, numTriangles),
		CellVertices:  make([]int, numIncident),
		CellNeighbors: make([]int, numIncident),
		CellOffsets:   dt.IncidentTriangleOffsets,
		eps:           opts.Eps,
	}

	for i := range numTriangles {
		p0, p1, p2 := dt.TriangleVertices(i)
		c, ok := triangleCircumcenter(p0, p1, p2, opts.Eps)
		if !ok {
			return nil, fmt.Errorf("%w: triangle %d %v", ErrDegenerateTriangle, i, dt.Triangles[i])
		}
		vd.Vertices[i] = c
	}

	for vIdx, site := range dt.Vertices {
		offset := dt.IncidentTriangleOffsets[vIdx]
		it := dt.IncidentTriangles(vIdx)
		start := firstVertexByAngle(site, it, vd.Vertices)
		for i := range it {
			tIdx := it[(start+i)%len(it)]
			vd.CellVertices[offset+i] = tIdx
			vd.CellNeighbors[offset+i] = s2delaunay.PrevVertex(dt.Triangles[tIdx], vIdx)
		}
	}

	return vd, nil
}

// Validate checks that every cell has at least three vertices and that the
// neighbor relation is symmetric.
func (vd *Diagram) Validate() error {
	for i := range vd.NumCells() {
		c := Cell{idx: i, d: vd}
		if c.NumVertices() < 3 {
			return fmt.Errorf("%w: cell %d has %d vertices", ErrInvalidCell, i, c.NumVertices())
		}
		for _, n := range c.NeighborIndices() {
			if n == i {
				return fmt.Errorf("%w: cell %d neighbors itself", ErrInvalidCell, i)
			}
			back := Cell{idx: n, d: vd}
			found := false
			for _, m := range back.NeighborIndices() {
				if m == i {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("%w: %d lists %d but not the reverse", ErrAsymmetricNeighbors, i, n)
			}
		}
	}
	return nil
}

// firstVertexByAngle returns the position in the CCW fan it whose
// circumcenter has the smallest angle in the tangent frame at site. Equal
// angles resolve to the lower triangle index.
func firstVertexByAngle(site s2.Point, it []int, vertices s2.PointVector) int {
	e1 := site.Vector.Ortho()
	e2 := site.Vector.Cross(e1)

	best, bestAngle := 0, math.Inf(1)
	for i, tIdx := range it {
		d := vertices[tIdx].Sub(site.Vector)
		angle := math.Atan2(d.Dot(e2), d.Dot(e1))
		if angle < bestAngle || (angle == bestAngle && tIdx < it[best]) {
			best, bestAngle = i, angle
		}
	}
	return best
}

// triangleCircumcenter returns the spherical circumcenter of a triangle: the
// unit normal of its plane, oriented away from the sphere center. It reports
// false when the normal is shorter than eps.
func triangleCircumcenter(p1, p2, p3 s2.Point, eps float64) (s2.Point, bool) {
	v1 := p1.Sub(p2.Vector)
	v2 := p2.Sub(p3.Vector)

	circumcenter := v1.Cross(v2)
	if n := circumcenter.Norm(); n < eps || math.IsNaN(n) {
		return s2.Point{}, false
	}

	if circumcenter.Dot(p1.Vector.Add(p2.Vector).Add(p3.Vector)) < 0 {
		circumcenter = circumcenter.Mul(-1)
	}

	return s2.Point{Vector: circumcenter.Normalize()}, true
}
