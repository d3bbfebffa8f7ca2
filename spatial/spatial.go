// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package spatial maps arbitrary positions to the nearest cell center.
//
// Because Voronoi cells are exactly the regions closest to their centers,
// the nearest center to a point on the sphere identifies the cell that
// contains it.
package spatial

import (
	"cmp"
	"errors"
	"slices"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

var ErrNoData = errors.New("spatial: index is empty")

// Index is an immutable k-d tree over cell centers. It is safe for
// concurrent readers.
type Index struct {
	tree *kdtree.Tree
	n    int
}

// NewIndex builds an index over centers; center i is reported as id i.
// An empty index is valid but every query on it fails with ErrNoData.
func NewIndex(centers []r3.Vector) *Index {
	if len(centers) == 0 {
		return &Index{}
	}
	pts := make(sites, len(centers))
	for i, c := range centers {
		pts[i] = site{Vector: c, id: i}
	}
	return &Index{tree: kdtree.New(pts, false), n: len(centers)}
}

func (ix *Index) Len() int {
	return ix.n
}

// Nearest returns the id of the center closest to q.
func (ix *Index) Nearest(q r3.Vector) (int, error) {
	if ix.n == 0 {
		return -1, ErrNoData
	}
	c, _ := ix.tree.Nearest(site{Vector: q, id: -1})
	return c.(site).id, nil
}

// NearestN returns the ids of the k centers closest to q, nearest first.
// Equal distances are ordered by id.
func (ix *Index) NearestN(q r3.Vector, k int) ([]int, error) {
	if ix.n == 0 {
		return nil, ErrNoData
	}
	k = min(k, ix.n)
	if k <= 0 {
		return nil, nil
	}

	keeper := kdtree.NewNKeeper(k)
	ix.tree.NearestSet(keeper, site{Vector: q, id: -1})

	found := make([]kdtree.ComparableDist, 0, k)
	for _, cd := range keeper.Heap {
		// The keeper is seeded with a sentinel that has no Comparable.
		if cd.Comparable != nil {
			found = append(found, cd)
		}
	}
	slices.SortFunc(found, func(a, b kdtree.ComparableDist) int {
		if c := cmp.Compare(a.Dist, b.Dist); c != 0 {
			return c
		}
		return cmp.Compare(a.Comparable.(site).id, b.Comparable.(site).id)
	})

	ids := make([]int, len(found))
	for i, cd := range found {
		ids[i] = cd.Comparable.(site).id
	}
	return ids, nil
}

// site is a center with its cell id, satisfying kdtree.Comparable.
type site struct {
	r3.Vector
	id int
}

func (s site) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	o := c.(site)
	switch d {
	case 0:
		return s.X - o.X
	case 1:
		return s.Y - o.Y
	case 2:
		return s.Z - o.Z
	}
	panic("spatial: illegal dimension")
}

func (s site) Dims() int {
	return 3
}

// Distance returns the squared Euclidean distance, as kdtree expects.
func (s site) Distance(c kdtree.Comparable) float64 {
	return s.Sub(c.(site).Vector).Norm2()
}

type sites []site

func (s sites) Index(i int) kdtree.Comparable {
	return s[i]
}

func (s sites) Len() int {
	return len(s)
}

func (s sites) Pivot(d kdtree.Dim) int {
	return plane{Dim: d, sites: s}.Pivot()
}

func (s sites) Slice(start, end int) kdtree.Interface {
	return s[start:end]
}

// plane orders sites along one axis. Median of medians keeps the tree
// layout independent of any random state.
type plane struct {
	kdtree.Dim
	sites
}

func (p plane) Less(i, j int) bool {
	return p.sites[i].Compare(p.sites[j], p.Dim) < 0
}

func (p plane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{Dim: p.Dim, sites: p.sites[start:end]}
}

func (p plane) Swap(i, j int) {
	p.sites[i], p.sites[j] = p.sites[j], p.sites[i]
}
