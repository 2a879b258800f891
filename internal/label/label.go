// Package label extracts depression regions from a filled surface: it
// differences filled against original elevations, thresholds the result into
// a binary depression mask, labels connected components, and traces each
// component's outline into a world-coordinate polygon ring.
package label

import (
	"fmt"
	"sort"

	"github.com/seabed-data/pockmark/internal/geom"
	"github.com/seabed-data/pockmark/internal/grid"
)

// Region is one labeled depression: a maximal connected set of cells with
// positive depression depth. Cell membership is frozen at labeling time;
// downstream stages only attach derived attributes.
type Region struct {
	// ID is the 1-based label, assigned in row-major discovery order so
	// identical inputs always produce identical ids.
	ID int

	// Cells lists the member cells sorted by row then column. The set is
	// exclusively owned: no cell belongs to two regions.
	Cells []grid.Cell

	// Outline is the raw (unsmoothed) outer boundary traced along cell
	// edges, counter-clockwise in world coordinates.
	Outline geom.Polygon
}

// CellArea returns the region's area computed from cell membership.
func (r *Region) CellArea(cellSize float64) float64 {
	return float64(len(r.Cells)) * cellSize * cellSize
}

// Extract computes the depression depth raster (filled − dem) and labels its
// positive cells into regions using conn connectivity. Labels are assigned
// in row-major scan order; background (zero depth) never becomes a region.
func Extract(dem, filled *grid.ElevationGrid, conn grid.Connectivity) (*grid.DepthRaster, []*Region, error) {
	if !conn.Valid() {
		return nil, nil, fmt.Errorf("label: unsupported connectivity %d", int(conn))
	}
	depth, err := grid.NewDepthRaster(dem, filled)
	if err != nil {
		return nil, nil, err
	}
	regions := labelRegions(depth, conn)
	for _, rg := range regions {
		rg.Outline = traceOutline(depth.Grid(), rg.Cells)
	}
	return depth, regions, nil
}

// labelRegions runs iterative flood fill over the depression mask. The scan
// is row-major and the neighbour order fixed, so region ids and cell order
// are deterministic.
func labelRegions(depth *grid.DepthRaster, conn grid.Connectivity) []*Region {
	rows, cols := depth.Rows(), depth.Cols()
	labels := make([]int, rows*cols)
	var regions []*Region
	var stack []grid.Cell
	var buf []grid.Cell
	g := depth.Grid()

	next := 1
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if labels[r*cols+c] != 0 || !depth.InDepression(r, c) {
				continue
			}
			rg := &Region{ID: next}
			next++
			stack = append(stack[:0], grid.Cell{Row: r, Col: c})
			labels[r*cols+c] = rg.ID
			for len(stack) > 0 {
				cell := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				rg.Cells = append(rg.Cells, cell)
				buf = g.Neighbors(cell.Row, cell.Col, conn, buf[:0])
				for _, n := range buf {
					i := n.Row*cols + n.Col
					if labels[i] != 0 || !depth.InDepression(n.Row, n.Col) {
						continue
					}
					labels[i] = rg.ID
					stack = append(stack, n)
				}
			}
			sortCells(rg.Cells)
			regions = append(regions, rg)
		}
	}
	return regions
}

// sortCells orders cells by row then column.
func sortCells(cells []grid.Cell) {
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})
}
