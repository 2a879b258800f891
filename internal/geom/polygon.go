// Package geom provides the planar geometry used by the morphometric
// analyzer: polygon rings with area/perimeter/centroid, containment tests,
// boundary smoothing and best-fit-ellipse axes.
package geom

import "math"

// Point is a position in world coordinates (x east, y north).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polygon is a simple closed ring of vertices. The ring is implicitly
// closed: the last vertex connects back to the first and is not repeated.
// Positive signed area means counter-clockwise winding.
type Polygon []Point

// SignedArea returns the shoelace area of the ring; positive for
// counter-clockwise winding.
func (p Polygon) SignedArea() float64 {
	if len(p) < 3 {
		return 0
	}
	sum := 0.0
	for i := range p {
		j := (i + 1) % len(p)
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return sum / 2
}

// Area returns the absolute polygon area.
func (p Polygon) Area() float64 {
	return math.Abs(p.SignedArea())
}

// Perimeter returns the ring boundary length.
func (p Polygon) Perimeter() float64 {
	if len(p) < 2 {
		return 0
	}
	sum := 0.0
	for i := range p {
		j := (i + 1) % len(p)
		sum += math.Hypot(p[j].X-p[i].X, p[j].Y-p[i].Y)
	}
	return sum
}

// Centroid returns the area centroid of the ring. Degenerate (zero-area)
// rings fall back to the vertex mean so callers always get a finite point.
func (p Polygon) Centroid() Point {
	a := p.SignedArea()
	if len(p) < 3 || a == 0 {
		return p.vertexMean()
	}
	var cx, cy float64
	for i := range p {
		j := (i + 1) % len(p)
		cross := p[i].X*p[j].Y - p[j].X*p[i].Y
		cx += (p[i].X + p[j].X) * cross
		cy += (p[i].Y + p[j].Y) * cross
	}
	return Point{X: cx / (6 * a), Y: cy / (6 * a)}
}

func (p Polygon) vertexMean() Point {
	if len(p) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, v := range p {
		sx += v.X
		sy += v.Y
	}
	n := float64(len(p))
	return Point{X: sx / n, Y: sy / n}
}

// IsCounterClockwise reports the ring winding.
func (p Polygon) IsCounterClockwise() bool {
	return p.SignedArea() > 0
}

// Clone returns an independent copy of the ring.
func (p Polygon) Clone() Polygon {
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}

// BoundingBox returns the axis-aligned extent of the ring.
func (p Polygon) BoundingBox() (minX, minY, maxX, maxY float64) {
	if len(p) == 0 {
		return 0, 0, 0, 0
	}
	minX, maxX = p[0].X, p[0].X
	minY, maxY = p[0].Y, p[0].Y
	for _, v := range p[1:] {
		minX = math.Min(minX, v.X)
		maxX = math.Max(maxX, v.X)
		minY = math.Min(minY, v.Y)
		maxY = math.Max(maxY, v.Y)
	}
	return minX, minY, maxX, maxY
}

// ContainsPoint reports whether pt lies inside the ring (even-odd ray
// cast). Points exactly on an edge count as inside.
func (p Polygon) ContainsPoint(pt Point) bool {
	if len(p) < 3 {
		return false
	}
	inside := false
	for i := range p {
		j := (i + 1) % len(p)
		a, b := p[i], p[j]
		if onSegment(a, b, pt) {
			return true
		}
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := a.X + (pt.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if pt.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Contains reports whether outer fully contains inner: every inner vertex is
// inside (or on) outer and no edges cross. This is the cross-threshold
// nesting primitive used to deduplicate multi-threshold runs.
func Contains(outer, inner Polygon) bool {
	if len(outer) < 3 || len(inner) < 3 {
		return false
	}
	oMinX, oMinY, oMaxX, oMaxY := outer.BoundingBox()
	iMinX, iMinY, iMaxX, iMaxY := inner.BoundingBox()
	if iMinX < oMinX || iMinY < oMinY || iMaxX > oMaxX || iMaxY > oMaxY {
		return false
	}
	for _, v := range inner {
		if !outer.ContainsPoint(v) {
			return false
		}
	}
	for i := range inner {
		a := inner[i]
		b := inner[(i+1)%len(inner)]
		for j := range outer {
			c := outer[j]
			d := outer[(j+1)%len(outer)]
			if segmentsCross(a, b, c, d) {
				return false
			}
		}
	}
	return true
}

// SelfIntersects reports whether any two non-adjacent ring edges cross.
// Quadratic; rings here are small (region outlines).
func (p Polygon) SelfIntersects() bool {
	n := len(p)
	if n < 4 {
		return false
	}
	for i := 0; i < n; i++ {
		a, b := p[i], p[(i+1)%n]
		for j := i + 2; j < n; j++ {
			// Skip the edge sharing vertex i (wrap-around adjacency).
			if i == 0 && j == n-1 {
				continue
			}
			c, d := p[j], p[(j+1)%n]
			if segmentsCross(a, b, c, d) {
				return true
			}
		}
	}
	return false
}

// Resample returns the ring redistributed at (approximately) uniform
// arc-length spacing. Uniform spacing keeps the vertex covariance an
// unbiased sample of the boundary, which the ellipse-axis fit depends on.
// Returns the original ring when it is too short to resample.
func (p Polygon) Resample(spacing float64) Polygon {
	per := p.Perimeter()
	if len(p) < 3 || spacing <= 0 || per <= 0 {
		return p.Clone()
	}
	n := int(math.Ceil(per / spacing))
	if n < len(p) {
		n = len(p) // never reduce resolution
	}
	step := per / float64(n)
	out := make(Polygon, 0, n)
	seg := 0
	segStart := p[0]
	segEnd := p[1%len(p)]
	segLen := math.Hypot(segEnd.X-segStart.X, segEnd.Y-segStart.Y)
	walked := 0.0
	target := 0.0
	for len(out) < n {
		for target > walked+segLen {
			walked += segLen
			seg++
			segStart = p[seg%len(p)]
			segEnd = p[(seg+1)%len(p)]
			segLen = math.Hypot(segEnd.X-segStart.X, segEnd.Y-segStart.Y)
			if seg > 2*n+len(p) { // numeric safety
				return p.Clone()
			}
		}
		t := 0.0
		if segLen > 0 {
			t = (target - walked) / segLen
		}
		out = append(out, Point{
			X: segStart.X + t*(segEnd.X-segStart.X),
			Y: segStart.Y + t*(segEnd.Y-segStart.Y),
		})
		target += step
	}
	return out
}

// onSegment reports whether pt lies on segment ab (within a small epsilon).
func onSegment(a, b, pt Point) bool {
	const eps = 1e-9
	cross := (b.X-a.X)*(pt.Y-a.Y) - (b.Y-a.Y)*(pt.X-a.X)
	if math.Abs(cross) > eps*(math.Hypot(b.X-a.X, b.Y-a.Y)+1) {
		return false
	}
	dot := (pt.X-a.X)*(b.X-a.X) + (pt.Y-a.Y)*(b.Y-a.Y)
	if dot < -eps {
		return false
	}
	sq := (b.X-a.X)*(b.X-a.X) + (b.Y-a.Y)*(b.Y-a.Y)
	return dot <= sq+eps
}

// segmentsCross reports proper intersection of segments ab and cd (shared
// endpoints and collinear touching do not count).
func segmentsCross(a, b, c, d Point) bool {
	d1 := orient(c, d, a)
	d2 := orient(c, d, b)
	d3 := orient(a, b, c)
	d4 := orient(a, b, d)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func orient(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}
