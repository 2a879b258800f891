package geom

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// EllipseAxes describes the best-fit ellipse of a ring: full major and minor
// axis lengths plus the compass bearing of the major axis.
type EllipseAxes struct {
	Major   float64 // full major axis length, world units
	Minor   float64 // full minor axis length
	Azimuth float64 // compass bearing of the major axis, degrees in [0,180)
}

// FitEllipse fits an ellipse to the ring by eigendecomposition of the
// second-moment (covariance) matrix of its vertices. The ring is resampled
// at the given spacing first so vertex density does not bias the moments;
// pass spacing <= 0 to use the vertices as-is.
//
// Axis lengths assume the vertices sample the ellipse *boundary* uniformly:
// a boundary distribution has variance a²/2 along a full semi-axis a, so the
// full axis is 2·√2·σ. A circle of radius r therefore reports Major ==
// Minor == 2r.
//
// Returns ok=false for degenerate rings (fewer than 3 vertices or a
// vanishing covariance).
func FitEllipse(ring Polygon, spacing float64) (EllipseAxes, bool) {
	if len(ring) < 3 {
		return EllipseAxes{}, false
	}
	pts := ring
	if spacing > 0 {
		pts = ring.Resample(spacing)
	}

	data := mat.NewDense(len(pts), 2, nil)
	for i, p := range pts {
		data.Set(i, 0, p.X)
		data.Set(i, 1, p.Y)
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)

	var eig mat.EigenSym
	if !eig.Factorize(&cov, true) {
		return EllipseAxes{}, false
	}
	vals := eig.Values(nil) // ascending order
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	maj, min := vals[1], vals[0]
	if maj <= 0 || math.IsNaN(maj) {
		return EllipseAxes{}, false
	}
	if min < 0 {
		min = 0
	}

	const boundaryScale = 2 * math.Sqrt2
	axes := EllipseAxes{
		Major:   boundaryScale * math.Sqrt(maj),
		Minor:   boundaryScale * math.Sqrt(min),
		Azimuth: AzimuthDegrees(vecs.At(0, 1), vecs.At(1, 1)),
	}
	return axes, true
}

// AzimuthDegrees converts a direction vector (dx east, dy north) into a
// compass bearing in degrees, measured clockwise from north. Because an
// axis is undirected the bearing is normalised to [0,180), matching the
// survey convention for orientation attributes.
func AzimuthDegrees(dx, dy float64) float64 {
	deg := math.Atan2(dx, dy) * 180 / math.Pi
	for deg < 0 {
		deg += 180
	}
	for deg >= 180 {
		deg -= 180
	}
	return deg
}

// Eccentricity derives ellipse eccentricity from full axis lengths:
// sqrt(1 - (minor/major)²). Zero for a circle; returns 0 for a degenerate
// major axis.
func Eccentricity(major, minor float64) float64 {
	if major <= 0 {
		return 0
	}
	r := minor / major
	v := 1 - r*r
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}

// ThinnessRatio is the isoperimetric compactness 4πA/P²: 1.0 for a perfect
// circle, approaching 0 for long thin shapes. Returns 0 when the perimeter
// is degenerate.
func ThinnessRatio(area, perimeter float64) float64 {
	if perimeter <= 0 {
		return 0
	}
	return 4 * math.Pi * area / (perimeter * perimeter)
}
