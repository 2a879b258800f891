package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/seabed-data/pockmark/internal/geom"
	"github.com/seabed-data/pockmark/internal/grid"
	"github.com/seabed-data/pockmark/internal/monitoring"
)

// BatchResult is the output of a multi-threshold survey: the per-threshold
// runs plus a single deduplicated record set. SurveyID tags the batch for
// the result store and is the only non-deterministic field.
type BatchResult struct {
	SurveyID string
	Runs     []*Result
	// Merged is the cross-threshold deduplicated record set, ordered by
	// threshold then DepID. A record from a coarser (larger) threshold is
	// dropped when its polygon fully contains a surviving record from a
	// finer run: the finer run already resolved that depression.
	Merged []RegionRecord
}

// Batch runs the pipeline once per threshold over the shared read-only grid
// and reduces the runs into one deduplicated set. This replaces the manual
// workflow of re-running the survey tool per threshold and deleting nested
// polygons by hand.
//
// Threshold runs are independent and execute concurrently; the grid is
// immutable and safely shared. Thresholds are deduplicated and processed in
// ascending order.
func Batch(ctx context.Context, dem *grid.ElevationGrid, cfg Config, thresholds []float64) (*BatchResult, error) {
	if len(thresholds) == 0 {
		return nil, &ConfigurationError{Param: "thresholds", Reason: "at least one z-threshold required"}
	}
	zs := dedupeSorted(thresholds)
	for _, z := range zs {
		if z <= 0 {
			return nil, &ConfigurationError{Param: "zThreshold", Value: z, Reason: "must be positive"}
		}
	}

	runs := make([]*Result, len(zs))
	errs := make([]error, len(zs))
	var wg sync.WaitGroup
	for i, z := range zs {
		wg.Add(1)
		go func(i int, z float64) {
			defer wg.Done()
			runCfg := cfg
			runCfg.ZThreshold = z
			runs[i], errs[i] = Run(ctx, dem, runCfg)
		}(i, z)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("threshold run z=%g: %w", zs[i], err)
		}
	}

	res := &BatchResult{
		SurveyID: uuid.NewString(),
		Runs:     runs,
		Merged:   mergeRuns(runs),
	}
	total := 0
	for _, run := range runs {
		total += len(run.Records)
	}
	monitoring.Logf("survey %s: %d thresholds, %d depressions, %d after dedup",
		res.SurveyID, len(zs), total, len(res.Merged))
	return res, nil
}

// mergeRuns reduces ascending-threshold runs to one record set. Records
// from the finest run always survive; a record from a coarser run is
// dropped when it fully contains any already-kept record.
func mergeRuns(runs []*Result) []RegionRecord {
	var merged []RegionRecord
	for _, run := range runs {
		for _, rec := range run.Records {
			if containsAny(rec.Boundary, merged, rec.Threshold) {
				continue
			}
			merged = append(merged, rec)
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Threshold != merged[j].Threshold {
			return merged[i].Threshold < merged[j].Threshold
		}
		return merged[i].DepID < merged[j].DepID
	})
	return merged
}

func containsAny(outer geom.Polygon, kept []RegionRecord, threshold float64) bool {
	for _, k := range kept {
		if k.Threshold >= threshold {
			continue
		}
		if geom.Contains(outer, k.Boundary) {
			return true
		}
	}
	return false
}

func dedupeSorted(zs []float64) []float64 {
	out := append([]float64(nil), zs...)
	sort.Float64s(out)
	n := 0
	for i, z := range out {
		if i == 0 || z != out[n-1] {
			out[n] = z
			n++
		}
	}
	return out[:n]
}
