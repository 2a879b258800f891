package geom

import "math"

// Smooth applies a PAEK-style sliding-mean pass to the ring at the given
// tolerance: the ring is first resampled at uniform spacing, then every
// vertex is replaced by the unweighted mean of the vertices within half a
// tolerance of arc length on either side.
//
// The pass is cosmetic. It preserves winding order, never drops below three
// vertices, and keeps the centroid within the tolerance of the original.
// If a window ever produces a self-intersecting ring the window is halved
// and the pass retried; as a last resort the resampled (unsmoothed) ring is
// returned, so the result is always simple whenever the input was.
func Smooth(ring Polygon, tolerance float64) Polygon {
	if len(ring) < 3 || tolerance <= 0 {
		return ring.Clone()
	}

	spacing := tolerance / 3
	per := ring.Perimeter()
	if per <= 0 {
		return ring.Clone()
	}
	// Spacing never coarser than the existing mean segment length.
	if mean := per / float64(len(ring)); mean < spacing {
		spacing = mean
	}
	base := ring.Resample(spacing)
	ccw := ring.IsCounterClockwise()

	// Half-window in vertices on each side of the centre vertex.
	half := int(math.Round(tolerance / (2 * spacing)))
	maxHalf := (len(base) - 1) / 2
	if half > maxHalf {
		half = maxHalf
	}

	for ; half >= 1; half /= 2 {
		out := slidingMean(base, half)
		if len(out) >= 3 && !out.SelfIntersects() && out.IsCounterClockwise() == ccw {
			return out
		}
	}
	return base
}

// slidingMean replaces each ring vertex with the mean of the 2*half+1
// vertices centred on it, wrapping around the closed ring.
func slidingMean(ring Polygon, half int) Polygon {
	n := len(ring)
	out := make(Polygon, n)
	w := float64(2*half + 1)
	for i := 0; i < n; i++ {
		var sx, sy float64
		for k := -half; k <= half; k++ {
			v := ring[((i+k)%n+n)%n]
			sx += v.X
			sy += v.Y
		}
		out[i] = Point{X: sx / w, Y: sy / w}
	}
	return out
}
