// Package fill implements threshold-capped priority-flood sink filling.
//
// The filler raises every enclosed sink to the lowest elevation reachable by
// a non-decreasing path to the grid boundary (or to a nodata hole), capped so
// that no cell is raised more than the z-threshold above its true elevation.
// Basins whose pour point sits higher than the cap are filled only partially
// and therefore survive as depressions of bounded depth.
package fill

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/seabed-data/pockmark/internal/grid"
)

// entry is one heap element: a cell queued at its filled elevation.
type entry struct {
	elev float64
	row  int
	col  int
}

// floodHeap is a min-heap over entries with a fixed total order of
// (elevation, row, col). The secondary keys make the pop order, and with it
// the whole fill, bit-identical across runs on identical input.
type floodHeap []entry

func (h floodHeap) Len() int { return len(h) }

func (h floodHeap) Less(i, j int) bool {
	if h[i].elev != h[j].elev {
		return h[i].elev < h[j].elev
	}
	if h[i].row != h[j].row {
		return h[i].row < h[j].row
	}
	return h[i].col < h[j].col
}

func (h floodHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *floodHeap) Push(x any) { *h = append(*h, x.(entry)) }

func (h *floodHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Fill runs the priority flood over dem and returns the filled surface.
// zThreshold is the maximum allowed fill depth; it must be positive.
// Traversal uses conn, the same neighbourhood the extractor labels with.
//
// The algorithm seeds a min-heap with every boundary cell and every cell
// adjacent to a nodata hole, each at its own elevation, then repeatedly pops
// the lowest entry and spills into unvisited neighbours: a neighbour's
// filled elevation is max(its own elevation, the popped filled elevation),
// clamped to its own elevation + zThreshold. O(N log N) in cell count.
func Fill(dem *grid.ElevationGrid, zThreshold float64, conn grid.Connectivity) (*grid.ElevationGrid, error) {
	if dem == nil {
		return nil, &grid.InvalidGridError{Reason: "nil grid"}
	}
	if zThreshold <= 0 || math.IsNaN(zThreshold) {
		return nil, fmt.Errorf("fill: z threshold must be positive, got %g", zThreshold)
	}
	if !conn.Valid() {
		return nil, fmt.Errorf("fill: unsupported connectivity %d", int(conn))
	}

	rows, cols := dem.Rows(), dem.Cols()
	filled := make([]float64, rows*cols)
	visited := make([]bool, rows*cols)

	h := make(floodHeap, 0, 2*(rows+cols))
	seed := func(r, c int) {
		i := r*cols + c
		if visited[i] {
			return
		}
		visited[i] = true
		if dem.IsNoData(r, c) {
			filled[i] = dem.NoData()
			return
		}
		filled[i] = dem.Value(r, c)
		h = append(h, entry{elev: filled[i], row: r, col: c})
	}

	// Seed the outer boundary and every cell touching a nodata hole: both
	// act as drainage outlets.
	var buf []grid.Cell
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if dem.OnBoundary(r, c) || dem.IsNoData(r, c) {
				seed(r, c)
				continue
			}
			buf = dem.Neighbors(r, c, conn, buf[:0])
			for _, n := range buf {
				if dem.IsNoData(n.Row, n.Col) {
					seed(r, c)
					break
				}
			}
		}
	}
	heap.Init(&h)

	for h.Len() > 0 {
		e := heap.Pop(&h).(entry)
		buf = dem.Neighbors(e.row, e.col, conn, buf[:0])
		for _, n := range buf {
			i := n.Row*cols + n.Col
			if visited[i] {
				continue
			}
			visited[i] = true
			if dem.IsNoData(n.Row, n.Col) {
				filled[i] = dem.NoData()
				continue
			}
			z := dem.Value(n.Row, n.Col)
			f := e.elev
			if z > f {
				f = z
			}
			// Clamp: a basin whose pour point rises more than
			// zThreshold above this cell is only partially filled,
			// leaving a residual depression of exactly zThreshold.
			if f-z > zThreshold {
				f = z + zThreshold
			}
			filled[i] = f
			heap.Push(&h, entry{elev: f, row: n.Row, col: n.Col})
		}
	}

	// Isolated data cells fully surrounded by nodata are never reached by
	// the flood; they keep their own elevation (no enclosing basin exists).
	for i := range filled {
		if !visited[i] {
			r, c := i/cols, i%cols
			if dem.IsNoData(r, c) {
				filled[i] = dem.NoData()
			} else {
				filled[i] = dem.Value(r, c)
			}
		}
	}

	return dem.Derive(filled)
}
