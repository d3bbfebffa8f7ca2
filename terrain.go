// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package voronoiplanet

import "github.com/golang/geo/r3"

// TerrainSampler classifies a position on the planet surface. Samplers must
// be deterministic for a given position, or planets stop being reproducible.
type TerrainSampler[T any] interface {
	Sample(position r3.Vector, radius float64) T
}

// TerrainFunc adapts a function to TerrainSampler.
type TerrainFunc[T any] func(position r3.Vector, radius float64) T

func (f TerrainFunc[T]) Sample(position r3.Vector, radius float64) T {
	return f(position, radius)
}
