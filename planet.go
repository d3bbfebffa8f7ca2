// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package voronoiplanet generates planets tessellated into spherical Voronoi
// cells.
//
// A planet is fully determined by its Config: sites are placed on the unit
// sphere, relaxed with Lloyd's algorithm, triangulated through their convex
// hull and turned into Voronoi cells, which are then scaled to the planet
// radius and labelled by a TerrainSampler.
package voronoiplanet

import (
	"fmt"
	"iter"
	"math"
	"slices"
	"time"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"go.uber.org/zap"

	"github.com/2dChan/voronoiplanet/spatial"
)

// Planet is an immutable tessellated sphere whose cells carry terrain of
// type T. It is safe for concurrent readers.
type Planet[T any] struct {
	config  Config
	radius  float64
	cells   []RawCell
	terrain []T
	index   *spatial.Index
	stats   Stats
}

// Generate builds the planet described by cfg and asks sampler for the
// terrain of every cell center. Cells are sampled in id order.
func Generate[T any](cfg Config, sampler TerrainSampler[T], setters ...Option) (*Planet[T], error) {
	if sampler == nil {
		return nil, configError("terrain sampler must not be nil")
	}
	opts, err := newOptions(setters)
	if err != nil {
		return nil, err
	}

	cells, stats, err := generateRawCells(cfg, opts)
	if err != nil {
		return nil, err
	}

	radius := cfg.SphereRadius()
	start := time.Now()
	terrain := make([]T, len(cells))
	centers := make([]r3.Vector, len(cells))
	for i, c := range cells {
		terrain[i] = sampler.Sample(c.Center, radius)
		centers[i] = c.Center
	}
	index := spatial.NewIndex(centers)
	opts.Logger.Debug("decorated planet",
		zap.Int("cells", len(cells)),
		zap.Duration("elapsed", time.Since(start)))

	return &Planet[T]{
		config:  cfg,
		radius:  radius,
		cells:   cells,
		terrain: terrain,
		index:   index,
		stats:   stats,
	}, nil
}

func (p *Planet[T]) Config() Config {
	return p.config
}

func (p *Planet[T]) Radius() float64 {
	return p.radius
}

func (p *Planet[T]) Stats() Stats {
	s := p.stats
	s.Displacements = slices.Clone(s.Displacements)
	return s
}

func (p *Planet[T]) NumCells() int {
	return len(p.cells)
}

// Cell returns the cell with the given id.
func (p *Planet[T]) Cell(id int) (Cell[T], error) {
	if id < 0 || id >= len(p.cells) {
		return Cell[T]{}, fmt.Errorf("%w: id %d out of range [0 %d)", ErrCellNotFound, id, len(p.cells))
	}
	return Cell[T]{id: id, p: p}, nil
}

// All yields every cell in id order.
func (p *Planet[T]) All() iter.Seq2[int, Cell[T]] {
	return func(yield func(int, Cell[T]) bool) {
		for i := range p.cells {
			if !yield(i, Cell[T]{id: i, p: p}) {
				return
			}
		}
	}
}

// Neighbors returns a copy of the sorted neighbor ids of cell id, or nil
// for an unknown id.
func (p *Planet[T]) Neighbors(id int) []int {
	if id < 0 || id >= len(p.cells) {
		return nil
	}
	return slices.Clone(p.cells[id].Neighbors)
}

// FindCellAt returns the id of the cell containing the direction of
// position. The position need not lie on the sphere.
func (p *Planet[T]) FindCellAt(position r3.Vector) (int, error) {
	// Scaling by the largest component keeps huge positions from
	// overflowing the norm. max is NaN if any component is NaN.
	m := max(math.Abs(position.X), math.Abs(position.Y), math.Abs(position.Z))
	if m == 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return -1, fmt.Errorf("%w: %v", ErrInvalidPosition, position)
	}
	return p.index.Nearest(position.Mul(1 / m).Normalize().Mul(p.radius))
}

// CellsWithinHops returns the ids of all cells reachable from id by at most
// hops neighbor steps, id included, in ascending order.
func (p *Planet[T]) CellsWithinHops(id, hops int) ([]int, error) {
	if id < 0 || id >= len(p.cells) {
		return nil, fmt.Errorf("%w: id %d out of range [0 %d)", ErrCellNotFound, id, len(p.cells))
	}
	if hops < 0 {
		return nil, fmt.Errorf("CellsWithinHops: hops %d must be non-negative", hops)
	}

	visited := make([]bool, len(p.cells))
	visited[id] = true
	found := []int{id}
	frontier := []int{id}
	for range hops {
		var next []int
		for _, c := range frontier {
			for _, n := range p.cells[c].Neighbors {
				if !visited[n] {
					visited[n] = true
					next = append(next, n)
				}
			}
		}
		if len(next) == 0 {
			break
		}
		found = append(found, next...)
		frontier = next
	}
	slices.Sort(found)
	return found, nil
}

// SpatialIndex returns the index over the scaled cell centers.
func (p *Planet[T]) SpatialIndex() *spatial.Index {
	return p.index
}

// Cell is a view of one planet cell.
type Cell[T any] struct {
	id int
	p  *Planet[T]
}

func (c Cell[T]) ID() int {
	return c.id
}

func (c Cell[T]) Center() r3.Vector {
	return c.p.cells[c.id].Center
}

// Boundary returns a copy of the cell vertices, counter-clockwise when
// looking at the planet from outside.
func (c Cell[T]) Boundary() []r3.Vector {
	return slices.Clone(c.p.cells[c.id].Boundary)
}

func (c Cell[T]) NumVertices() int {
	return len(c.p.cells[c.id].Boundary)
}

// Neighbors returns a copy of the neighbor ids in ascending order.
func (c Cell[T]) Neighbors() []int {
	return slices.Clone(c.p.cells[c.id].Neighbors)
}

func (c Cell[T]) NumNeighbors() int {
	return len(c.p.cells[c.id].Neighbors)
}

func (c Cell[T]) IsNeighborOf(id int) bool {
	_, ok := slices.BinarySearch(c.p.cells[c.id].Neighbors, id)
	return ok
}

func (c Cell[T]) Terrain() T {
	return c.p.terrain[c.id]
}

// Area returns the spherical area of the cell on the planet surface.
func (c Cell[T]) Area() float64 {
	raw := c.p.cells[c.id]
	center := s2.Point{Vector: raw.Center.Normalize()}
	n := len(raw.Boundary)

	var area float64
	for i := range n {
		a := s2.Point{Vector: raw.Boundary[i].Normalize()}
		b := s2.Point{Vector: raw.Boundary[(i+1)%n].Normalize()}
		area += s2.PointArea(center, a, b)
	}
	return area * c.p.radius * c.p.radius
}

// DistanceTo returns the great-circle distance between the two cell
// centers on the planet surface.
func (c Cell[T]) DistanceTo(other Cell[T]) float64 {
	return c.Center().Angle(other.Center()).Radians() * c.p.radius
}
