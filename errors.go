// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package voronoiplanet

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig marks errors the caller fixes by correcting the
	// configuration. It is reported before any geometry is computed.
	ErrInvalidConfig = errors.New("voronoiplanet: invalid configuration")
	// ErrGeneration marks numerical failures of a valid configuration, such
	// as degenerate site sets. A different seed or point count may succeed.
	ErrGeneration = errors.New("voronoiplanet: generation failed")
	// ErrCellNotFound is returned for cell ids outside [0, NumCells).
	ErrCellNotFound = errors.New("voronoiplanet: cell not found")
	// ErrInvalidPosition is returned for query positions without a
	// direction: the zero vector or non-finite components.
	ErrInvalidPosition = errors.New("voronoiplanet: invalid position")
)

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// generationError keeps the lower-level sentinel matchable with errors.Is.
func generationError(stage string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrGeneration, stage, err)
}
