package morpho

import "math"

// ClassBand is one row of the morphological classification policy. A band
// matches when every bounded limit holds; NaN limits are unbounded. Bands
// are evaluated in order and the first match wins, so more specific bands
// belong earlier in the table. Limits are half-open: Min values are
// inclusive, Max values exclusive.
type ClassBand struct {
	Name string

	MinThinness float64
	MaxThinness float64

	MinDiameterDepth float64
	MaxDiameterDepth float64

	MinAxisRatio float64 // major/minor
	MaxAxisRatio float64
}

// unbounded is the sentinel for an unset band limit.
func unbounded() float64 { return math.NaN() }

// band builds a ClassBand with every limit unbounded; callers then set the
// limits they need.
func band(name string) ClassBand {
	return ClassBand{
		Name:             name,
		MinThinness:      unbounded(),
		MaxThinness:      unbounded(),
		MinDiameterDepth: unbounded(),
		MaxDiameterDepth: unbounded(),
		MinAxisRatio:     unbounded(),
		MaxAxisRatio:     unbounded(),
	}
}

// DefaultBands is the classification policy carried over from the original
// survey tool, with an elongation band in front:
//
//   - elongate:     axis ratio >= 2 (stretched features, orientation matters)
//   - irregular:    thinness < 0.5, or diameter/depth > 100 (unlikely to be
//     a fluid-escape feature)
//   - semi-regular: thinness < 0.75 (needs further investigation)
//   - regular:      everything else (candidate pockmark)
//
// The thresholds are literature-derived heuristics with soft boundaries;
// they are policy data, not control flow, and callers may substitute their
// own table.
func DefaultBands() []ClassBand {
	elongate := band("elongate")
	elongate.MinAxisRatio = 2

	irregularThin := band("irregular")
	irregularThin.MaxThinness = 0.5

	irregularDD := band("irregular")
	irregularDD.MinDiameterDepth = 100

	semi := band("semi-regular")
	semi.MaxThinness = 0.75

	regular := band("regular")

	return []ClassBand{elongate, irregularThin, irregularDD, semi, regular}
}

// Classify returns the name of the first band matching the statistics, or
// "unclassified" when no band matches.
func Classify(st Stats, bands []ClassBand) string {
	axisRatio := math.Inf(1)
	if st.MinorAxis > 0 {
		axisRatio = st.MajorAxis / st.MinorAxis
	}
	for _, b := range bands {
		if b.matches(st.ThinnessRatio, st.DiameterDepthRatio, axisRatio) {
			return b.Name
		}
	}
	return "unclassified"
}

func (b ClassBand) matches(thinness, ddRatio, axisRatio float64) bool {
	if !math.IsNaN(b.MinThinness) && thinness < b.MinThinness {
		return false
	}
	if !math.IsNaN(b.MaxThinness) && thinness >= b.MaxThinness {
		return false
	}
	if !math.IsNaN(b.MinDiameterDepth) && ddRatio < b.MinDiameterDepth {
		return false
	}
	if !math.IsNaN(b.MaxDiameterDepth) && ddRatio >= b.MaxDiameterDepth {
		return false
	}
	if !math.IsNaN(b.MinAxisRatio) && axisRatio < b.MinAxisRatio {
		return false
	}
	if !math.IsNaN(b.MaxAxisRatio) && axisRatio >= b.MaxAxisRatio {
		return false
	}
	return true
}
