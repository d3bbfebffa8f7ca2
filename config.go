// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package voronoiplanet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/2dChan/voronoiplanet/points"
)

const (
	// MaxLloydIterations bounds the relaxation cost a configuration may ask for.
	MaxLloydIterations = 20

	maxConfigSize = 1 << 20
)

// Size is a planet size class mapping to a cell count and sphere radius.
type Size int

// SizeLarge is the zero value and the default.
const (
	SizeLarge Size = iota
	SizeMedium
	SizeSmall
	SizeTiny
	// SizeCustom takes the cell count from Config.PointCount and defaults
	// the radius to 1.
	SizeCustom
)

var sizeNames = map[Size]string{
	SizeTiny:   "tiny",
	SizeSmall:  "small",
	SizeMedium: "medium",
	SizeLarge:  "large",
	SizeCustom: "custom",
}

func (s Size) String() string {
	if name, ok := sizeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Size(%d)", int(s))
}

// CellCount returns the number of cells of the size class, or 0 for
// SizeCustom.
func (s Size) CellCount() int {
	switch s {
	case SizeTiny:
		return 5_000
	case SizeSmall:
		return 11_000
	case SizeMedium:
		return 17_000
	case SizeLarge:
		return 26_000
	}
	return 0
}

// Radius returns the sphere radius of the size class.
func (s Size) Radius() float64 {
	switch s {
	case SizeTiny:
		return 11.3
	case SizeSmall:
		return 16.7
	case SizeMedium:
		return 20.9
	case SizeLarge:
		return 25.8
	}
	return 1
}

func (s Size) MarshalText() ([]byte, error) {
	name, ok := sizeNames[s]
	if !ok {
		return nil, configError("unknown size %d", int(s))
	}
	return []byte(name), nil
}

func (s *Size) UnmarshalText(text []byte) error {
	for k, name := range sizeNames {
		if name == string(text) {
			*s = k
			return nil
		}
	}
	return configError("unknown size %q", text)
}

// Config holds every input of planet generation. It is the only state that
// is ever persisted; planets are regenerated from it.
type Config struct {
	Seed int64 `json:"seed"`
	Size Size  `json:"size"`
	// PointCount overrides the size class cell count when positive.
	PointCount int `json:"point_count,omitempty"`
	// Radius overrides the size class radius when positive.
	Radius          float64         `json:"radius,omitempty"`
	Distribution    points.Strategy `json:"distribution"`
	FibonacciJitter float64         `json:"fibonacci_jitter,omitempty"`
	LloydIterations int             `json:"lloyd_iterations"`
	// LloydConvergence is relative to the radius: relaxation stops once no
	// center moves farther than LloydConvergence * radius.
	LloydConvergence float64 `json:"lloyd_convergence"`
	// TerrainSeed is carried for terrain samplers; the geometry ignores it.
	TerrainSeed int64 `json:"terrain_seed"`
}

func DefaultConfig() Config {
	return Config{
		Size:             SizeLarge,
		Distribution:     points.Random,
		LloydIterations:  5,
		LloydConvergence: 0.01,
	}
}

func (c Config) CellCount() int {
	if c.PointCount > 0 {
		return c.PointCount
	}
	return c.Size.CellCount()
}

func (c Config) SphereRadius() float64 {
	if c.Radius > 0 {
		return c.Radius
	}
	return c.Size.Radius()
}

// Validate reports the first problem that would prevent generation.
func (c Config) Validate() error {
	if _, ok := sizeNames[c.Size]; !ok {
		return configError("unknown size %d", int(c.Size))
	}
	if c.Size == SizeCustom && c.PointCount == 0 {
		return configError("custom size requires point_count")
	}
	if c.PointCount < 0 || c.CellCount() < points.MinPoints {
		return configError("point count must be at least %d (got %d)", points.MinPoints, c.CellCount())
	}
	if c.Radius < 0 || math.IsNaN(c.Radius) || math.IsInf(c.Radius, 0) {
		return configError("radius must be positive and finite (got %v)", c.Radius)
	}
	if _, err := c.Distribution.MarshalText(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.FibonacciJitter < 0 || c.FibonacciJitter > 1 || math.IsNaN(c.FibonacciJitter) {
		return configError("fibonacci jitter must be in [0 1] (got %v)", c.FibonacciJitter)
	}
	if c.LloydIterations < 0 || c.LloydIterations > MaxLloydIterations {
		return configError("lloyd iterations must be in [0 %d] (got %d)", MaxLloydIterations, c.LloydIterations)
	}
	if c.LloydConvergence < 0 || math.IsNaN(c.LloydConvergence) || math.IsInf(c.LloydConvergence, 0) {
		return configError("lloyd convergence must be finite and non-negative (got %v)", c.LloydConvergence)
	}
	return nil
}

// LoadConfig reads and validates a JSON configuration file. Every error
// wraps ErrInvalidConfig; file system errors stay matchable as well.
func LoadConfig(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return Config{}, configError("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("%w: failed to stat config file: %w", ErrInvalidConfig, err)
	}
	if fileInfo.Size() > maxConfigSize {
		return Config{}, configError("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigSize)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("%w: failed to open config file: %w", ErrInvalidConfig, err)
	}
	defer f.Close()

	return ReadConfig(f)
}

// ReadConfig decodes and validates a JSON configuration. Unknown fields are
// rejected; omitted fields keep their DefaultConfig values.
func ReadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := json.NewDecoder(io.LimitReader(r, maxConfigSize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WriteTo writes the configuration as indented JSON.
func (c Config) WriteTo(w io.Writer) (int64, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return bytes.NewReader(data).WriteTo(w)
}

// Save writes the configuration to path.
func (c Config) Save(path string) error {
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
