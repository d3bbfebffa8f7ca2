// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package points generates the initial site distributions on the S2 sphere.

package points

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const (
	// MinPoints is the smallest site count that can close a tessellation.
	MinPoints = 4

	goldenRatio = 1.618033988749895
)

var (
	ErrTooFewPoints    = errors.New("points: at least 4 points are required")
	ErrUnknownStrategy = errors.New("points: unknown distribution strategy")
	ErrNilRand         = errors.New("points: strategy requires a random source")
)

// Strategy selects how sites are placed on the sphere.
type Strategy int

const (
	// Random draws sites uniformly by area from the random source.
	Random Strategy = iota
	// Fibonacci places sites on a golden-angle spiral.
	Fibonacci
)

func (s Strategy) String() string {
	switch s {
	case Random:
		return "random"
	case Fibonacci:
		return "fibonacci"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

func (s Strategy) MarshalText() ([]byte, error) {
	switch s {
	case Random, Fibonacci:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(s))
}

func (s *Strategy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "random":
		*s = Random
	case "fibonacci":
		*s = Fibonacci
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, text)
	}
	return nil
}

type Options struct {
	Jitter float64
}

type Option func(*Options) error

// WithJitter displaces Fibonacci sites tangentially by up to f times the
// mean site spacing. It has no effect on Random.
func WithJitter(f float64) Option {
	return func(o *Options) error {
		if f < 0 || f > 1 || math.IsNaN(f) {
			return fmt.Errorf("WithJitter: jitter %v out of range [0 1]", f)
		}
		o.Jitter = f
		return nil
	}
}

// Generate returns n unit-length sites placed by strategy s. The result
// depends only on n, s, the options and the state of rnd; rnd is advanced
// only by strategies that consume randomness.
func Generate(n int, s Strategy, rnd *rand.Rand, setters ...Option) (s2.PointVector, error) {
	var opts Options
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	if n < MinPoints {
		return nil, fmt.Errorf("%w (got %d)", ErrTooFewPoints, n)
	}

	switch s {
	case Random:
		if rnd == nil {
			return nil, fmt.Errorf("%w: %v", ErrNilRand, s)
		}
		return randomPoints(n, rnd), nil
	case Fibonacci:
		if opts.Jitter > 0 && rnd == nil {
			return nil, fmt.Errorf("%w: %v with jitter", ErrNilRand, s)
		}
		return fibonacciPoints(n, opts.Jitter, rnd), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(s))
}

// GenerateRandomPoints generates a vector of random points on the S2 sphere.
// The seed parameter ensures reproducibility.
func GenerateRandomPoints(cnt int, seed int64) s2.PointVector {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	return randomPoints(cnt, random)
}

// randomPoints samples z uniformly, which by Archimedes' hat-box theorem is
// uniform by area and does not cluster at the poles.
func randomPoints(cnt int, random *rand.Rand) s2.PointVector {
	sites := make(s2.PointVector, cnt)
	for i := range cnt {
		z := random.Float64()*2 - 1
		sites[i] = s2.PointFromLatLng(s2.LatLng{
			Lat: s1.Angle(math.Asin(z)),
			Lng: s1.Angle((random.Float64()*2 - 1) * math.Pi),
		})
	}
	return sites
}

func fibonacciPoints(cnt int, jitter float64, random *rand.Rand) s2.PointVector {
	sites := make(s2.PointVector, cnt)
	n := float64(cnt)
	eps := poleOffset(cnt)
	jitterAmount := math.Sqrt(4*math.Pi/n) * jitter

	for i := range cnt {
		fi := float64(i)
		theta := 2 * math.Pi * fi / goldenRatio
		cosPhi := 1 - 2*(fi+eps)/(n-1+2*eps)
		sinPhi := math.Sqrt(math.Max(0, 1-cosPhi*cosPhi))

		base := r3.Vector{X: sinPhi * math.Cos(theta), Y: sinPhi * math.Sin(theta), Z: cosPhi}
		if jitterAmount > 0 {
			angle := random.Float64() * 2 * math.Pi
			mag := random.Float64() * jitterAmount
			t1 := base.Ortho()
			t2 := base.Cross(t1).Normalize()
			base = base.Add(t1.Mul(mag * math.Cos(angle))).Add(t2.Mul(mag * math.Sin(angle)))
		}
		sites[i] = s2.Point{Vector: base.Normalize()}
	}
	return sites
}

// poleOffset pushes the first and last spiral points away from the poles.
func poleOffset(n int) float64 {
	switch {
	case n < 24:
		return 0.33
	case n < 177:
		return 1.33
	case n < 890:
		return 3.33
	case n < 11000:
		return 10
	}
	return 27.5
}
