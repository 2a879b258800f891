// Package morpho computes per-region morphometric statistics: deepest
// point, smoothed boundary, ellipse axes, compactness measures and a
// configurable morphological classification.
package morpho

import (
	"fmt"
	"math"

	"github.com/seabed-data/pockmark/internal/geom"
	"github.com/seabed-data/pockmark/internal/grid"
	"github.com/seabed-data/pockmark/internal/label"
)

// Stats is the attribute bundle attached to each surviving region. Field
// vocabulary follows the survey tool this pipeline replaces.
type Stats struct {
	Area               float64 `json:"area"`                 // smoothed polygon area, square world units
	Perimeter          float64 `json:"perimeter"`            // smoothed polygon boundary length
	MajorAxis          float64 `json:"major_axis"`           // best-fit ellipse full major axis
	MinorAxis          float64 `json:"minor_axis"`           // best-fit ellipse full minor axis
	Eccentricity       float64 `json:"eccentricity"`         // sqrt(1 - (minor/major)²)
	Azimuth            float64 `json:"azimuth"`              // major axis compass bearing, degrees
	ThinnessRatio      float64 `json:"thinness_ratio"`       // 4πA/P², 1.0 = circle
	DepressionDepth    float64 `json:"depression_depth"`     // depth at the deepest cell
	DiameterDepthRatio float64 `json:"diameter_depth_ratio"` // major axis / depression depth
	MorphClass         string  `json:"morph_class"`          // classification band name
	CellArea           float64 `json:"cell_area"`            // membership area, cells × cellSize²
}

// Analysis is the full result for one region.
type Analysis struct {
	Region      *label.Region
	Boundary    geom.Polygon // smoothed outline, winding preserved from the raw trace
	Centroid    geom.Point   // area centroid of Boundary
	DeepestCell grid.Cell    // cell of maximum depth (ties: lowest row, then column)
	Deepest     geom.Point   // world centre of DeepestCell
	Stats       Stats
}

// DegenerateRegionWarning reports a region that failed geometric analysis.
// It is recoverable: the region is excluded and the batch continues.
type DegenerateRegionWarning struct {
	RegionID int
	Reason   string
}

func (w DegenerateRegionWarning) Error() string {
	return fmt.Sprintf("region %d excluded from analysis: %s", w.RegionID, w.Reason)
}

// Options tunes the analyzer. Zero values fall back to the grid-derived
// defaults (smoothing tolerance = cellSize × 3, default class bands).
type Options struct {
	SmoothingTolerance float64
	Bands              []ClassBand
}

// Analyze computes the full attribute bundle for one region, in fixed
// order: deepest cell, boundary smoothing, then geometric descriptors.
// Degenerate regions return a *DegenerateRegionWarning.
func Analyze(rg *label.Region, depth *grid.DepthRaster, opts Options) (*Analysis, error) {
	if len(rg.Cells) == 0 {
		return nil, &DegenerateRegionWarning{RegionID: rg.ID, Reason: "no member cells"}
	}
	if len(rg.Outline) < 3 {
		return nil, &DegenerateRegionWarning{RegionID: rg.ID, Reason: "boundary has fewer than 3 vertices"}
	}

	cs := depth.CellSize()
	tol := opts.SmoothingTolerance
	if tol <= 0 {
		tol = cs * 3
	}
	bands := opts.Bands
	if bands == nil {
		bands = DefaultBands()
	}

	// 1. Deepest interior cell. Cells are sorted row-major, so a strict
	// greater-than comparison yields the lowest-row, lowest-column tie
	// winner deterministically.
	deepCell := rg.Cells[0]
	deepVal := depth.Depth(deepCell.Row, deepCell.Col)
	for _, c := range rg.Cells[1:] {
		if d := depth.Depth(c.Row, c.Col); d > deepVal {
			deepCell, deepVal = c, d
		}
	}

	// 2. Cosmetic boundary smoothing.
	boundary := geom.Smooth(rg.Outline, tol)
	if len(boundary) < 3 {
		return nil, &DegenerateRegionWarning{RegionID: rg.ID, Reason: "smoothing collapsed boundary"}
	}

	// 3. Geometric descriptors from the smoothed polygon.
	area := boundary.Area()
	perimeter := boundary.Perimeter()
	if area <= 0 || perimeter <= 0 {
		return nil, &DegenerateRegionWarning{RegionID: rg.ID, Reason: "zero-area polygon"}
	}
	axes, ok := geom.FitEllipse(boundary, cs/2)
	if !ok {
		return nil, &DegenerateRegionWarning{RegionID: rg.ID, Reason: "ellipse fit failed"}
	}

	st := Stats{
		Area:            area,
		Perimeter:       perimeter,
		MajorAxis:       axes.Major,
		MinorAxis:       axes.Minor,
		Eccentricity:    geom.Eccentricity(axes.Major, axes.Minor),
		Azimuth:         axes.Azimuth,
		ThinnessRatio:   geom.ThinnessRatio(area, perimeter),
		DepressionDepth: deepVal,
		CellArea:        rg.CellArea(cs),
	}
	if deepVal > 0 {
		st.DiameterDepthRatio = axes.Major / deepVal
	} else {
		st.DiameterDepthRatio = math.Inf(1)
	}
	st.MorphClass = Classify(st, bands)

	dx, dy := depth.Grid().CellCenter(deepCell.Row, deepCell.Col)
	return &Analysis{
		Region:      rg,
		Boundary:    boundary,
		Centroid:    boundary.Centroid(),
		DeepestCell: deepCell,
		Deepest:     geom.Point{X: dx, Y: dy},
		Stats:       st,
	}, nil
}
