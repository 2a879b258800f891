// Package grid provides the in-memory elevation grid model used by the
// depression-detection pipeline.
//
// Grids are regular rectangular lattices of float64 samples with a square
// cell size, a lower-left world origin and a nodata sentinel. Row 0 is the
// northernmost (top) row. A grid is immutable once constructed; derived
// surfaces (filled grids, depth rasters) are new allocations.
package grid

import (
	"fmt"
	"math"
)

// Connectivity selects the neighbourhood used for flow traversal and
// connected-component labeling.
type Connectivity int

const (
	// Connect4 uses the four orthogonal neighbours.
	Connect4 Connectivity = 4
	// Connect8 uses orthogonal plus diagonal neighbours. This is the
	// pipeline default and matches how the regions were grouped in the
	// original survey workflow.
	Connect8 Connectivity = 8
)

// Valid reports whether c is one of the supported neighbourhoods.
func (c Connectivity) Valid() bool {
	return c == Connect4 || c == Connect8
}

// Cell addresses one grid sample by row and column.
type Cell struct {
	Row int
	Col int
}

// neighbourOffsets lists relative neighbours in a fixed order: the four
// orthogonal offsets first (N, S, W, E), then the diagonals (NW, NE, SW,
// SE). The fixed order keeps traversal deterministic.
var neighbourOffsets = [8]Cell{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {-1, 1}, {1, -1}, {1, 1},
}

// InvalidGridError reports a malformed grid definition. It is fatal: no
// computation runs against a grid that failed construction.
type InvalidGridError struct {
	Rows     int
	Cols     int
	CellSize float64
	Reason   string
}

func (e *InvalidGridError) Error() string {
	return fmt.Sprintf("invalid grid (%dx%d cells, cell size %g): %s",
		e.Rows, e.Cols, e.CellSize, e.Reason)
}

// ElevationGrid is a read-only regular elevation lattice.
type ElevationGrid struct {
	rows     int
	cols     int
	cellSize float64
	originX  float64 // world X of the lower-left grid corner
	originY  float64 // world Y of the lower-left grid corner
	nodata   float64
	values   []float64 // row-major, row 0 = top
}

// New constructs an ElevationGrid over the supplied row-major values. The
// slice is copied so callers keep ownership of their buffer. Returns
// *InvalidGridError when the dimensions, cell size or value count are
// unusable.
func New(rows, cols int, cellSize, originX, originY, nodata float64, values []float64) (*ElevationGrid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, &InvalidGridError{Rows: rows, Cols: cols, CellSize: cellSize, Reason: "non-positive dimensions"}
	}
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		return nil, &InvalidGridError{Rows: rows, Cols: cols, CellSize: cellSize, Reason: "cell size must be positive and finite"}
	}
	if len(values) != rows*cols {
		return nil, &InvalidGridError{
			Rows: rows, Cols: cols, CellSize: cellSize,
			Reason: fmt.Sprintf("expected %d values, got %d", rows*cols, len(values)),
		}
	}
	g := &ElevationGrid{
		rows:     rows,
		cols:     cols,
		cellSize: cellSize,
		originX:  originX,
		originY:  originY,
		nodata:   nodata,
		values:   make([]float64, len(values)),
	}
	copy(g.values, values)
	return g, nil
}

// Rows returns the number of grid rows.
func (g *ElevationGrid) Rows() int { return g.rows }

// Cols returns the number of grid columns.
func (g *ElevationGrid) Cols() int { return g.cols }

// CellSize returns the (square) cell size in world units.
func (g *ElevationGrid) CellSize() float64 { return g.cellSize }

// Origin returns the world coordinates of the lower-left grid corner.
func (g *ElevationGrid) Origin() (x, y float64) { return g.originX, g.originY }

// NoData returns the nodata sentinel value.
func (g *ElevationGrid) NoData() float64 { return g.nodata }

// NumCells returns the total cell count.
func (g *ElevationGrid) NumCells() int { return g.rows * g.cols }

// InBounds reports whether (row, col) addresses a cell on the grid.
func (g *ElevationGrid) InBounds(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

// Value returns the elevation at (row, col). Addressing an off-grid cell
// returns the nodata sentinel.
func (g *ElevationGrid) Value(row, col int) float64 {
	if !g.InBounds(row, col) {
		return g.nodata
	}
	return g.values[row*g.cols+col]
}

// IsNoData reports whether (row, col) is off-grid or holds the nodata
// sentinel. NaN values are treated as nodata regardless of the sentinel.
func (g *ElevationGrid) IsNoData(row, col int) bool {
	if !g.InBounds(row, col) {
		return true
	}
	v := g.values[row*g.cols+col]
	return v == g.nodata || math.IsNaN(v)
}

// Neighbors appends the on-grid neighbours of (row, col) to buf and returns
// the extended slice. Nodata neighbours are included; callers that must skip
// them check IsNoData themselves, because the filler needs to see nodata
// cells to treat them as drainage outlets. The order is fixed (orthogonal
// N, S, W, E, then diagonals) so traversal is deterministic.
func (g *ElevationGrid) Neighbors(row, col int, conn Connectivity, buf []Cell) []Cell {
	n := 4
	if conn == Connect8 {
		n = 8
	}
	for i := 0; i < n; i++ {
		r := row + neighbourOffsets[i].Row
		c := col + neighbourOffsets[i].Col
		if r < 0 || r >= g.rows || c < 0 || c >= g.cols {
			continue
		}
		buf = append(buf, Cell{Row: r, Col: c})
	}
	return buf
}

// OnBoundary reports whether (row, col) lies on the outer edge of the grid.
func (g *ElevationGrid) OnBoundary(row, col int) bool {
	return row == 0 || col == 0 || row == g.rows-1 || col == g.cols-1
}

// CellCenter returns the world coordinates of the centre of cell (row, col).
func (g *ElevationGrid) CellCenter(row, col int) (x, y float64) {
	x = g.originX + (float64(col)+0.5)*g.cellSize
	y = g.originY + (float64(g.rows-row)-0.5)*g.cellSize
	return x, y
}

// CellCorner returns the world coordinates of the lower-left corner of cell
// (row, col). The cell spans one cell size east and north of this point.
func (g *ElevationGrid) CellCorner(row, col int) (x, y float64) {
	x = g.originX + float64(col)*g.cellSize
	y = g.originY + float64(g.rows-1-row)*g.cellSize
	return x, y
}

// Stats summarises the data cells of the grid.
type Stats struct {
	Min, Max, Mean float64
	DataCells      int
	NoDataCells    int
}

// Summarize scans the grid once and returns its summary statistics. A grid
// with no data cells returns zeroed Min/Max/Mean.
func (g *ElevationGrid) Summarize() Stats {
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	sum := 0.0
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if g.IsNoData(r, c) {
				s.NoDataCells++
				continue
			}
			v := g.values[r*g.cols+c]
			s.DataCells++
			sum += v
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
		}
	}
	if s.DataCells == 0 {
		s.Min, s.Max = 0, 0
		return s
	}
	s.Mean = sum / float64(s.DataCells)
	return s
}

// derive builds a same-shape grid around the supplied value slice without
// copying. Used by the filler, which constructs the slice itself.
func (g *ElevationGrid) derive(values []float64) *ElevationGrid {
	return &ElevationGrid{
		rows:     g.rows,
		cols:     g.cols,
		cellSize: g.cellSize,
		originX:  g.originX,
		originY:  g.originY,
		nodata:   g.nodata,
		values:   values,
	}
}

// Derive wraps values (length rows*cols, row-major) in a grid sharing this
// grid's georeferencing. The slice is taken over, not copied; callers must
// not retain it.
func (g *ElevationGrid) Derive(values []float64) (*ElevationGrid, error) {
	if len(values) != g.rows*g.cols {
		return nil, &InvalidGridError{
			Rows: g.rows, Cols: g.cols, CellSize: g.cellSize,
			Reason: fmt.Sprintf("derived surface has %d values, want %d", len(values), g.rows*g.cols),
		}
	}
	return g.derive(values), nil
}
