// Package pipeline orchestrates the depression-detection stages for one or
// more z-threshold values: fill, extract, filter, analyze, and assemble the
// output record set.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/seabed-data/pockmark/internal/grid"
	"github.com/seabed-data/pockmark/internal/morpho"
)

// ConfigurationError reports an unusable parameter. It is fatal and raised
// before any computation runs.
type ConfigurationError struct {
	Param  string
	Value  float64
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s = %g: %s", e.Param, e.Value, e.Reason)
}

// Config carries the tunable parameters of one pipeline run. The zero value
// of the optional fields selects the documented defaults; ZThreshold has no
// default and must be set by the caller.
type Config struct {
	// ZThreshold is the maximum allowed fill depth. Sinks whose pour
	// point rises further than this above their floor are only partially
	// filled. Must be positive.
	ZThreshold float64 `json:"z_threshold"`

	// Connectivity selects 4- or 8-connected traversal and labeling.
	// Zero selects the default, 8-connected.
	Connectivity grid.Connectivity `json:"connectivity,omitempty"`

	// MinArea drops regions whose cell-membership area falls below it.
	// Zero selects the default (cellSize × 3)².
	MinArea float64 `json:"min_area,omitempty"`

	// MaxArea drops regions whose cell-membership area exceeds it.
	// Zero disables the upper bound.
	MaxArea float64 `json:"max_area,omitempty"`

	// SmoothingTolerance is the boundary smoothing tolerance. Zero
	// selects the default cellSize × 3.
	SmoothingTolerance float64 `json:"smoothing_tolerance,omitempty"`

	// Workers bounds the per-region analysis pool. Zero lets the runtime
	// decide.
	Workers int `json:"workers,omitempty"`

	// Bands overrides the morphological classification policy. Nil uses
	// morpho.DefaultBands.
	Bands []morpho.ClassBand `json:"-"`
}

// DefaultConfig returns a Config with the documented defaults for the given
// z-threshold: 8-connectivity and grid-derived minArea / smoothing.
func DefaultConfig(zThreshold float64) Config {
	return Config{
		ZThreshold:   zThreshold,
		Connectivity: grid.Connect8,
	}
}

// Validate checks the configuration against the grid's cell size. Fatal
// problems return *ConfigurationError.
func (c *Config) Validate(cellSize float64) error {
	if cellSize <= 0 {
		return &ConfigurationError{Param: "cellSize", Value: cellSize, Reason: "must be positive"}
	}
	if c.ZThreshold <= 0 {
		return &ConfigurationError{Param: "zThreshold", Value: c.ZThreshold, Reason: "must be positive"}
	}
	if c.Connectivity != 0 && !c.Connectivity.Valid() {
		return &ConfigurationError{Param: "connectivity", Value: float64(c.Connectivity), Reason: "must be 4 or 8"}
	}
	if c.MinArea < 0 {
		return &ConfigurationError{Param: "minArea", Value: c.MinArea, Reason: "must not be negative"}
	}
	if c.MaxArea < 0 {
		return &ConfigurationError{Param: "maxArea", Value: c.MaxArea, Reason: "must not be negative"}
	}
	if c.MaxArea > 0 && c.MaxArea <= c.effectiveMinArea(cellSize) {
		return &ConfigurationError{Param: "maxArea", Value: c.MaxArea, Reason: "must exceed minArea"}
	}
	if c.SmoothingTolerance < 0 {
		return &ConfigurationError{Param: "smoothingTolerance", Value: c.SmoothingTolerance, Reason: "must not be negative"}
	}
	if c.Workers < 0 {
		return &ConfigurationError{Param: "workers", Value: float64(c.Workers), Reason: "must not be negative"}
	}
	return nil
}

func (c *Config) effectiveConnectivity() grid.Connectivity {
	if c.Connectivity == 0 {
		return grid.Connect8
	}
	return c.Connectivity
}

func (c *Config) effectiveMinArea(cellSize float64) float64 {
	if c.MinArea > 0 {
		return c.MinArea
	}
	m := cellSize * 3
	return m * m
}

func (c *Config) effectiveSmoothing(cellSize float64) float64 {
	if c.SmoothingTolerance > 0 {
		return c.SmoothingTolerance
	}
	return cellSize * 3
}

// FileConfig is the on-disk configuration schema: every field optional, so
// one JSON file can override any subset of the defaults.
type FileConfig struct {
	Connectivity       *int     `json:"connectivity,omitempty"`
	MinArea            *float64 `json:"min_area,omitempty"`
	MaxArea            *float64 `json:"max_area,omitempty"`
	SmoothingTolerance *float64 `json:"smoothing_tolerance,omitempty"`
	Workers            *int     `json:"workers,omitempty"`
}

// LoadFileConfig reads a FileConfig from path.
func LoadFileConfig(path string) (*FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc FileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &fc, nil
}

// Apply copies the set fields of the file config onto cfg.
func (fc *FileConfig) Apply(cfg *Config) {
	if fc.Connectivity != nil {
		cfg.Connectivity = grid.Connectivity(*fc.Connectivity)
	}
	if fc.MinArea != nil {
		cfg.MinArea = *fc.MinArea
	}
	if fc.MaxArea != nil {
		cfg.MaxArea = *fc.MaxArea
	}
	if fc.SmoothingTolerance != nil {
		cfg.SmoothingTolerance = *fc.SmoothingTolerance
	}
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
}
