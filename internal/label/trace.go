package label

import (
	"sort"

	"github.com/seabed-data/pockmark/internal/geom"
	"github.com/seabed-data/pockmark/internal/grid"
)

// Boundary tracing works on the integer corner lattice: cell (r, c) of an
// R-row grid owns the unit square with lower-left lattice corner
// (c, R-1-r). Directed unit edges are emitted for every cell side that
// faces out of the region, oriented so the region interior lies on the
// walker's left; stitching those edges yields counter-clockwise outer rings
// (and clockwise hole rings, which are discarded).

type corner struct{ x, y int }

type direction int

const (
	north direction = iota
	east
	south
	west
)

var dirStep = [4]corner{
	north: {0, 1},
	east:  {1, 0},
	south: {0, -1},
	west:  {-1, 0},
}

// traceOutline traces the outer boundary ring of the region's cell set and
// returns it in world coordinates. Regions always have at least one cell,
// so the result always has at least four lattice corners (before collinear
// merging).
func traceOutline(g *grid.ElevationGrid, cells []grid.Cell) geom.Polygon {
	rows := g.Rows()
	member := make(map[grid.Cell]bool, len(cells))
	for _, c := range cells {
		member[c] = true
	}

	// Directed boundary edges keyed by start corner. Values are direction
	// sets (bitmask) because up to two edges can leave one corner where
	// the outline pinches at a diagonal cell contact.
	edges := make(map[corner]uint8)
	addEdge := func(from corner, d direction) {
		edges[from] |= 1 << uint(d)
	}
	for _, cell := range cells {
		x, y := cell.Col, rows-1-cell.Row // lattice lower-left corner
		if !member[grid.Cell{Row: cell.Row - 1, Col: cell.Col}] {
			addEdge(corner{x + 1, y + 1}, west) // top side
		}
		if !member[grid.Cell{Row: cell.Row + 1, Col: cell.Col}] {
			addEdge(corner{x, y}, east) // bottom side
		}
		if !member[grid.Cell{Row: cell.Row, Col: cell.Col - 1}] {
			addEdge(corner{x, y + 1}, south) // left side
		}
		if !member[grid.Cell{Row: cell.Row, Col: cell.Col + 1}] {
			addEdge(corner{x + 1, y}, north) // right side
		}
	}

	rings := stitchRings(edges)
	if len(rings) == 0 {
		return nil
	}

	// The outer boundary is the ring with the largest absolute area; hole
	// rings are strictly smaller.
	best := rings[0]
	bestArea := latticeRingArea(best)
	for _, rg := range rings[1:] {
		if a := latticeRingArea(rg); a > bestArea {
			best, bestArea = rg, a
		}
	}

	ring := mergeCollinear(best)
	out := make(geom.Polygon, len(ring))
	cs := g.CellSize()
	ox, oy := g.Origin()
	for i, p := range ring {
		out[i] = geom.Point{X: ox + float64(p.x)*cs, Y: oy + float64(p.y)*cs}
	}
	if !out.IsCounterClockwise() {
		reversePolygon(out)
	}
	return out
}

// stitchRings walks the directed edge set into closed rings. Walks start at
// the smallest remaining corner (y, then x) for determinism. Where two
// edges leave one corner (a pinch point) the walker takes the rightmost
// turn relative to its incoming direction, which keeps the outer ring
// wrapped around every cell of the region instead of splitting it.
func stitchRings(edges map[corner]uint8) [][]corner {
	starts := make([]corner, 0, len(edges))
	for c := range edges {
		starts = append(starts, c)
	}
	sort.Slice(starts, func(i, j int) bool {
		if starts[i].y != starts[j].y {
			return starts[i].y < starts[j].y
		}
		return starts[i].x < starts[j].x
	})

	var rings [][]corner
	for _, start := range starts {
		if edges[start] == 0 {
			continue
		}
		var ring []corner
		pos := start
		dir := takeEdge(edges, pos, anyDirection(edges[pos]))
		for {
			ring = append(ring, pos)
			pos = corner{pos.x + dirStep[dir].x, pos.y + dirStep[dir].y}
			if pos == start {
				break
			}
			mask := edges[pos]
			if mask == 0 {
				// Open chain; malformed set. Drop it rather than loop.
				ring = nil
				break
			}
			dir = takeEdge(edges, pos, preferredDirection(mask, dir))
		}
		if len(ring) >= 4 {
			rings = append(rings, ring)
		}
	}
	return rings
}

// preferredDirection picks the outgoing direction at a corner: rightmost
// turn first, then straight, then left, then reverse.
func preferredDirection(mask uint8, incoming direction) direction {
	order := [4]direction{
		(incoming + 1) % 4, // right turn
		incoming,           // straight
		(incoming + 3) % 4, // left turn
		(incoming + 2) % 4, // reverse
	}
	for _, d := range order {
		if mask&(1<<uint(d)) != 0 {
			return d
		}
	}
	return incoming
}

// anyDirection returns the lowest-numbered direction present in the mask.
func anyDirection(mask uint8) direction {
	for d := direction(0); d < 4; d++ {
		if mask&(1<<uint(d)) != 0 {
			return d
		}
	}
	return north
}

// takeEdge consumes the edge (pos, d) from the set and returns d.
func takeEdge(edges map[corner]uint8, pos corner, d direction) direction {
	edges[pos] &^= 1 << uint(d)
	if edges[pos] == 0 {
		delete(edges, pos)
	}
	return d
}

// latticeRingArea returns twice the absolute shoelace area of a lattice
// ring; exact in integers, used only for ring comparison.
func latticeRingArea(ring []corner) int {
	sum := 0
	for i := range ring {
		j := (i + 1) % len(ring)
		sum += ring[i].x*ring[j].y - ring[j].x*ring[i].y
	}
	if sum < 0 {
		sum = -sum
	}
	return sum
}

// mergeCollinear removes interior vertices of straight runs. All edges are
// axis-aligned, so collinearity is an exact integer test.
func mergeCollinear(ring []corner) []corner {
	n := len(ring)
	if n < 4 {
		return ring
	}
	out := make([]corner, 0, n)
	for i := 0; i < n; i++ {
		prev := ring[(i-1+n)%n]
		cur := ring[i]
		next := ring[(i+1)%n]
		cross := (cur.x-prev.x)*(next.y-cur.y) - (cur.y-prev.y)*(next.x-cur.x)
		if cross != 0 {
			out = append(out, cur)
		}
	}
	if len(out) < 3 {
		return ring
	}
	return out
}

func reversePolygon(p geom.Polygon) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}
