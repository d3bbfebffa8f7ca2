// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package s2voronoi

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/golang/geo/s2"
	"go.uber.org/zap"
)

const (
	defaultMaxIterations        = 5
	defaultConvergenceThreshold = 0.01
)

// RelaxResult is the outcome of Lloyd's relaxation.
type RelaxResult struct {
	Sites s2.PointVector
	// Iterations is the number of completed iterations.
	Iterations int
	// Converged reports whether the loop stopped on the threshold rather
	// than on the iteration cap.
	Converged bool
	// Displacements[k] is the largest chord distance any site moved during
	// iteration k+1.
	Displacements []float64
}

type RelaxOptions struct {
	MaxIterations        int
	ConvergenceThreshold float64
	Eps                  float64
	Logger               *zap.Logger
}

type RelaxOption func(*RelaxOptions) error

func WithMaxIterations(n int) RelaxOption {
	return func(o *RelaxOptions) error {
		if n < 0 {
			return fmt.Errorf("WithMaxIterations: iterations %d must be non-negative", n)
		}
		o.MaxIterations = n
		return nil
	}
}

// WithConvergenceThreshold stops relaxation once no site moves farther than
// t on the unit sphere. Zero disables early termination.
func WithConvergenceThreshold(t float64) RelaxOption {
	return func(o *RelaxOptions) error {
		if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("WithConvergenceThreshold: threshold %v must be finite and non-negative", t)
		}
		o.ConvergenceThreshold = t
		return nil
	}
}

func WithRelaxEps(eps float64) RelaxOption {
	return func(o *RelaxOptions) error {
		if eps <= 0 {
			return fmt.Errorf("WithRelaxEps: eps %v must be positive", eps)
		}
		o.Eps = eps
		return nil
	}
}

func WithLogger(l *zap.Logger) RelaxOption {
	return func(o *RelaxOptions) error {
		if l == nil {
			return fmt.Errorf("WithLogger: logger must not be nil")
		}
		o.Logger = l
		return nil
	}
}

// Relax applies Lloyd's algorithm: every iteration moves each site to the
// centroid of its Voronoi cell. The input is not modified. A failure in any
// iteration aborts the relaxation without a partial result.
func Relax(sites s2.PointVector, setters ...RelaxOption) (*RelaxResult, error) {
	opts := RelaxOptions{
		MaxIterations:        defaultMaxIterations,
		ConvergenceThreshold: defaultConvergenceThreshold,
		Eps:                  defaultEps,
		Logger:               zap.NewNop(),
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	log := opts.Logger.With(zap.Int("sites", len(sites)))
	res := &RelaxResult{
		Sites:         slices.Clone(sites),
		Displacements: make([]float64, 0, opts.MaxIterations),
	}
	start := time.Now()

	for it := range opts.MaxIterations {
		vd, err := NewDiagram(res.Sites, WithEps(opts.Eps))
		if err != nil {
			return nil, fmt.Errorf("s2voronoi: relax iteration %d: %w", it+1, err)
		}

		next := make(s2.PointVector, len(res.Sites))
		var maxDisp float64
		for i := range next {
			next[i] = Cell{idx: i, d: vd}.Centroid()
			maxDisp = math.Max(maxDisp, next[i].Sub(res.Sites[i].Vector).Norm())
		}

		res.Sites = next
		res.Iterations = it + 1
		res.Displacements = append(res.Displacements, maxDisp)
		log.Debug("lloyd iteration",
			zap.Int("iteration", it+1),
			zap.Float64("max_displacement", maxDisp))

		if maxDisp < opts.ConvergenceThreshold {
			res.Converged = true
			break
		}
	}

	log.Debug("lloyd relaxation finished",
		zap.Int("iterations", res.Iterations),
		zap.Int("max_iterations", opts.MaxIterations),
		zap.Bool("converged", res.Converged),
		zap.Duration("elapsed", time.Since(start)))

	return res, nil
}

// Relax runs steps iterations of Lloyd's algorithm without early
// termination and replaces the diagram with the one of the relaxed sites.
func (vd *Diagram) Relax(steps int) error {
	eps := vd.eps
	if eps == 0 {
		eps = defaultEps
	}
	res, err := Relax(vd.Sites,
		WithMaxIterations(steps),
		WithConvergenceThreshold(0),
		WithRelaxEps(eps))
	if err != nil {
		return err
	}
	nd, err := NewDiagram(res.Sites, WithEps(eps))
	if err != nil {
		return err
	}
	*vd = *nd
	return nil
}
