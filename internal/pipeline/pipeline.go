package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/seabed-data/pockmark/internal/fill"
	"github.com/seabed-data/pockmark/internal/geom"
	"github.com/seabed-data/pockmark/internal/grid"
	"github.com/seabed-data/pockmark/internal/label"
	"github.com/seabed-data/pockmark/internal/morpho"
)

// RegionRecord is one emitted depression: the serializable join of the
// three output collections (polygon, centroid, deepest point) under DepID.
type RegionRecord struct {
	DepID       int          `json:"dep_id"`
	Threshold   float64      `json:"z_threshold"`
	Boundary    geom.Polygon `json:"boundary"`
	Centroid    geom.Point   `json:"centroid"`
	Deepest     geom.Point   `json:"deepest"`
	DeepestCell grid.Cell    `json:"deepest_cell"`
	Stats       morpho.Stats `json:"stats"`
}

// Result is the output of one threshold run. Warnings carry every region
// excluded by the analyzer; they are collected, never dropped.
type Result struct {
	Threshold float64
	Records   []RegionRecord
	Warnings  []morpho.DegenerateRegionWarning
}

// Run executes the full pipeline for a single z-threshold: fill, extract,
// filter, analyze. Records are ordered by DepID, so identical inputs yield
// identical results. Fatal errors (bad grid, bad configuration) abort the
// run; per-region degeneracies become Warnings.
func Run(ctx context.Context, dem *grid.ElevationGrid, cfg Config) (*Result, error) {
	if dem == nil {
		return nil, &grid.InvalidGridError{Reason: "nil grid"}
	}
	if err := cfg.Validate(dem.CellSize()); err != nil {
		return nil, err
	}
	conn := cfg.effectiveConnectivity()

	filled, err := fill.Fill(dem, cfg.ZThreshold, conn)
	if err != nil {
		return nil, fmt.Errorf("fill (z=%g, %dx%d grid): %w", cfg.ZThreshold, dem.Rows(), dem.Cols(), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	depth, regions, err := label.Extract(dem, filled, conn)
	if err != nil {
		return nil, fmt.Errorf("extract (z=%g): %w", cfg.ZThreshold, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	regions = filterRegions(regions, dem.CellSize(), cfg)

	analyses, warnings, err := analyzeAll(ctx, regions, depth, cfg)
	if err != nil {
		return nil, err
	}

	res := &Result{Threshold: cfg.ZThreshold, Warnings: warnings}
	for _, a := range analyses {
		rec := RegionRecord{
			DepID:       a.Region.ID,
			Threshold:   cfg.ZThreshold,
			Boundary:    a.Boundary,
			Centroid:    a.Centroid,
			Deepest:     a.Deepest,
			DeepestCell: a.DeepestCell,
			Stats:       a.Stats,
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// filterRegions applies the resolvable-area bounds to the raw label set.
// Area is cell-membership area (cells × cellSize²), not polygon area, so
// the filter is independent of smoothing.
func filterRegions(regions []*label.Region, cellSize float64, cfg Config) []*label.Region {
	minArea := cfg.effectiveMinArea(cellSize)
	out := regions[:0]
	for _, rg := range regions {
		a := rg.CellArea(cellSize)
		if a < minArea {
			continue
		}
		if cfg.MaxArea > 0 && a > cfg.MaxArea {
			continue
		}
		out = append(out, rg)
	}
	return out
}

// analyzeAll runs the morphometric analyzer over the regions with a bounded
// worker pool. Regions are independent, so the pool shares no mutable
// state; results are written by index and compacted afterwards to keep
// DepID order deterministic.
func analyzeAll(ctx context.Context, regions []*label.Region, depth *grid.DepthRaster, cfg Config) ([]*morpho.Analysis, []morpho.DegenerateRegionWarning, error) {
	if len(regions) == 0 {
		return nil, nil, nil
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(regions) {
		workers = len(regions)
	}
	opts := morpho.Options{
		SmoothingTolerance: cfg.effectiveSmoothing(depth.CellSize()),
		Bands:              cfg.Bands,
	}

	results := make([]*morpho.Analysis, len(regions))
	errs := make([]error, len(regions))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = morpho.Analyze(regions[i], depth, opts)
			}
		}()
	}

feed:
	for i := range regions {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var analyses []*morpho.Analysis
	var warnings []morpho.DegenerateRegionWarning
	for i, err := range errs {
		if err != nil {
			var degen *morpho.DegenerateRegionWarning
			if errors.As(err, &degen) {
				warnings = append(warnings, *degen)
				continue
			}
			return nil, nil, err
		}
		analyses = append(analyses, results[i])
	}
	sort.Slice(analyses, func(i, j int) bool {
		return analyses[i].Region.ID < analyses[j].Region.ID
	})
	return analyses, warnings, nil
}

// DepthSurface computes the depression-depth raster for one threshold
// without running the full pipeline: fill and difference only. Used for
// raster export and inspection.
func DepthSurface(dem *grid.ElevationGrid, cfg Config, zThreshold float64) (*grid.DepthRaster, error) {
	cfg.ZThreshold = zThreshold
	if err := cfg.Validate(dem.CellSize()); err != nil {
		return nil, err
	}
	filled, err := fill.Fill(dem, zThreshold, cfg.effectiveConnectivity())
	if err != nil {
		return nil, err
	}
	return grid.NewDepthRaster(dem, filled)
}

// ValidateBathymetry checks the convention the original survey tooling
// enforced: bathymetric depth grids hold non-positive elevations only.
// Returns an error naming the offending maximum; callers decide whether to
// treat it as fatal.
func ValidateBathymetry(dem *grid.ElevationGrid) error {
	s := dem.Summarize()
	if s.DataCells == 0 {
		return &grid.InvalidGridError{
			Rows: dem.Rows(), Cols: dem.Cols(), CellSize: dem.CellSize(),
			Reason: "grid has no data cells",
		}
	}
	if s.Max > 0 {
		return fmt.Errorf("bathymetry grid must be negative values only (maximum elevation %g)", s.Max)
	}
	return nil
}
