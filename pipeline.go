// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package voronoiplanet

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/golang/geo/r3"
	"go.uber.org/zap"

	"github.com/2dChan/voronoiplanet/points"
	"github.com/2dChan/voronoiplanet/s2voronoi"
)

const (
	defaultEps = 1e-12
)

// Options tunes generation without changing what is generated.
type Options struct {
	Logger *zap.Logger
	// Eps is the geometric tolerance of the hull and circumcenter stages.
	Eps float64
}

// Option sets a field of Options, rejecting invalid values.
type Option func(*Options) error

// WithLogger routes pipeline and relaxation logs to l. The default discards
// them.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) error {
		if l == nil {
			return fmt.Errorf("WithLogger: logger must not be nil")
		}
		o.Logger = l
		return nil
	}
}

// WithEps sets the geometric tolerance. It must be positive.
func WithEps(eps float64) Option {
	return func(o *Options) error {
		if eps <= 0 {
			return fmt.Errorf("WithEps: eps %v must be positive", eps)
		}
		o.Eps = eps
		return nil
	}
}

func newOptions(setters []Option) (Options, error) {
	opts := Options{
		Logger: zap.NewNop(),
		Eps:    defaultEps,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return Options{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return opts, nil
}

// RawCell is the geometry of one cell scaled to the planet radius.
type RawCell struct {
	ID     int
	Center r3.Vector
	// Boundary is counter-clockwise seen from outside the sphere.
	Boundary []r3.Vector
	// Neighbors are sorted ascending.
	Neighbors []int
}

// Stats describes how a planet was produced.
type Stats struct {
	RelaxIterations int
	// Converged reports whether relaxation stopped below the convergence
	// threshold before the iteration cap.
	Converged bool
	// Displacements[k] is the largest center movement of relaxation
	// iteration k+1, relative to the radius.
	Displacements []float64
	NumTriangles  int
}

// GenerateRawCells runs the geometry pipeline for cfg: site generation,
// Lloyd's relaxation, Delaunay triangulation and Voronoi construction.
// Equal configurations always produce equal cells.
func GenerateRawCells(cfg Config, setters ...Option) ([]RawCell, Stats, error) {
	opts, err := newOptions(setters)
	if err != nil {
		return nil, Stats{}, err
	}
	return generateRawCells(cfg, opts)
}

func generateRawCells(cfg Config, opts Options) ([]RawCell, Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, Stats{}, err
	}

	log := opts.Logger.With(
		zap.Int64("seed", cfg.Seed),
		zap.Int("cells", cfg.CellCount()),
		zap.Stringer("distribution", cfg.Distribution))
	start := time.Now()

	rnd := rand.New(rand.NewSource(cfg.Seed))
	sites, err := points.Generate(cfg.CellCount(), cfg.Distribution, rnd,
		points.WithJitter(cfg.FibonacciJitter))
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	log.Debug("generated sites", zap.Duration("elapsed", time.Since(start)))

	var stats Stats
	if cfg.LloydIterations > 0 {
		res, err := s2voronoi.Relax(sites,
			s2voronoi.WithMaxIterations(cfg.LloydIterations),
			s2voronoi.WithConvergenceThreshold(cfg.LloydConvergence),
			s2voronoi.WithRelaxEps(opts.Eps),
			s2voronoi.WithLogger(log))
		if err != nil {
			return nil, Stats{}, generationError("relax", err)
		}
		sites = res.Sites
		stats.RelaxIterations = res.Iterations
		stats.Converged = res.Converged
		stats.Displacements = res.Displacements
	}

	vd, err := s2voronoi.NewDiagram(sites, s2voronoi.WithEps(opts.Eps))
	if err != nil {
		return nil, Stats{}, generationError("voronoi", err)
	}
	if err := vd.Validate(); err != nil {
		return nil, Stats{}, generationError("voronoi", err)
	}
	stats.NumTriangles = len(vd.Vertices)

	cells, err := rawCells(vd, cfg.SphereRadius())
	if err != nil {
		return nil, Stats{}, generationError("cells", err)
	}

	log.Info("generated planet geometry",
		zap.Int("triangles", stats.NumTriangles),
		zap.Int("relax_iterations", stats.RelaxIterations),
		zap.Bool("converged", stats.Converged),
		zap.Duration("elapsed", time.Since(start)))

	return cells, stats, nil
}

func rawCells(vd *s2voronoi.Diagram, radius float64) ([]RawCell, error) {
	cells := make([]RawCell, vd.NumCells())
	for i := range cells {
		c, err := vd.Cell(i)
		if err != nil {
			return nil, err
		}
		boundary := make([]r3.Vector, c.NumVertices())
		for k, v := range c.Vertices() {
			boundary[k] = v.Mul(radius)
		}
		cells[i] = RawCell{
			ID:        i,
			Center:    c.Site().Mul(radius),
			Boundary:  boundary,
			Neighbors: c.SortedNeighborIndices(),
		}
	}
	return cells, nil
}
