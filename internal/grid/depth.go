package grid

import "math"

// DepthRaster holds per-cell depression depth: filled elevation minus
// original elevation. Depth is zero outside depressions and never negative.
// Nodata cells in the source grid stay nodata here.
type DepthRaster struct {
	grid *ElevationGrid
}

// NewDepthRaster differences a filled surface against the original grid.
// Both grids must share a shape; tiny negative residuals from float
// subtraction are clamped to zero.
func NewDepthRaster(dem, filled *ElevationGrid) (*DepthRaster, error) {
	if dem.rows != filled.rows || dem.cols != filled.cols {
		return nil, &InvalidGridError{
			Rows: filled.rows, Cols: filled.cols, CellSize: filled.cellSize,
			Reason: "filled surface shape does not match source grid",
		}
	}
	depth := make([]float64, dem.rows*dem.cols)
	for r := 0; r < dem.rows; r++ {
		for c := 0; c < dem.cols; c++ {
			i := r*dem.cols + c
			if dem.IsNoData(r, c) {
				depth[i] = dem.nodata
				continue
			}
			d := filled.values[i] - dem.values[i]
			if d < 0 || math.IsNaN(d) {
				d = 0
			}
			depth[i] = d
		}
	}
	return &DepthRaster{grid: dem.derive(depth)}, nil
}

// Grid exposes the depth surface as a read-only grid (for export).
func (d *DepthRaster) Grid() *ElevationGrid { return d.grid }

// Rows returns the number of raster rows.
func (d *DepthRaster) Rows() int { return d.grid.rows }

// Cols returns the number of raster columns.
func (d *DepthRaster) Cols() int { return d.grid.cols }

// CellSize returns the cell size in world units.
func (d *DepthRaster) CellSize() float64 { return d.grid.cellSize }

// Depth returns the depression depth at (row, col); zero for off-grid or
// nodata cells, so callers can treat the raster as zero-padded.
func (d *DepthRaster) Depth(row, col int) float64 {
	if d.grid.IsNoData(row, col) {
		return 0
	}
	return d.grid.values[row*d.grid.cols+col]
}

// InDepression reports whether (row, col) has positive depression depth.
func (d *DepthRaster) InDepression(row, col int) bool {
	return d.Depth(row, col) > 0
}
