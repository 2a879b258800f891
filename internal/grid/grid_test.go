package grid

import (
	"errors"
	"math"
	"testing"
)

func mustGrid(t *testing.T, rows, cols int, values []float64) *ElevationGrid {
	t.Helper()
	g, err := New(rows, cols, 1, 0, 0, -9999, values)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name     string
		rows     int
		cols     int
		cellSize float64
		values   int
		wantErr  bool
	}{
		{"valid", 2, 3, 1, 6, false},
		{"zero rows", 0, 3, 1, 0, true},
		{"negative cols", 2, -1, 1, 0, true},
		{"zero cell size", 2, 3, 0, 6, true},
		{"negative cell size", 2, 3, -0.5, 6, true},
		{"nan cell size", 2, 3, math.NaN(), 6, true},
		{"value count mismatch", 2, 3, 1, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.rows, tt.cols, tt.cellSize, 0, 0, -9999, make([]float64, tt.values))
			if tt.wantErr {
				var ige *InvalidGridError
				if !errors.As(err, &ige) {
					t.Fatalf("want InvalidGridError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValueAndNoData(t *testing.T) {
	g := mustGrid(t, 2, 2, []float64{1, 2, -9999, math.NaN()})

	if got := g.Value(0, 1); got != 2 {
		t.Errorf("Value(0,1) = %g, want 2", got)
	}
	if got := g.Value(5, 5); got != -9999 {
		t.Errorf("off-grid Value = %g, want nodata", got)
	}
	if !g.IsNoData(1, 0) {
		t.Error("sentinel cell should be nodata")
	}
	if !g.IsNoData(1, 1) {
		t.Error("NaN cell should be nodata")
	}
	if !g.IsNoData(-1, 0) {
		t.Error("off-grid should be nodata")
	}
	if g.IsNoData(0, 0) {
		t.Error("data cell flagged as nodata")
	}
}

func TestNewCopiesValues(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	g := mustGrid(t, 2, 2, values)
	values[0] = 99
	if got := g.Value(0, 0); got != 1 {
		t.Errorf("grid shares caller buffer: Value(0,0) = %g, want 1", got)
	}
}

func TestNeighborsOrderAndEdges(t *testing.T) {
	g := mustGrid(t, 3, 3, make([]float64, 9))

	got := g.Neighbors(1, 1, Connect4, nil)
	want4 := []Cell{{0, 1}, {2, 1}, {1, 0}, {1, 2}}
	if len(got) != 4 {
		t.Fatalf("Connect4 interior: got %d neighbours", len(got))
	}
	for i, w := range want4 {
		if got[i] != w {
			t.Errorf("Connect4[%d] = %v, want %v", i, got[i], w)
		}
	}

	got = g.Neighbors(1, 1, Connect8, got[:0])
	if len(got) != 8 {
		t.Fatalf("Connect8 interior: got %d neighbours", len(got))
	}
	// Orthogonals come first, diagonals after.
	wantDiag := []Cell{{0, 0}, {0, 2}, {2, 0}, {2, 2}}
	for i, w := range wantDiag {
		if got[4+i] != w {
			t.Errorf("Connect8 diagonal[%d] = %v, want %v", i, got[4+i], w)
		}
	}

	// Corner cell: off-grid neighbours skipped.
	got = g.Neighbors(0, 0, Connect8, got[:0])
	if len(got) != 3 {
		t.Errorf("corner Connect8: got %d neighbours, want 3", len(got))
	}
}

func TestCellCenterAndCorner(t *testing.T) {
	g, err := New(2, 2, 10, 100, 200, -9999, make([]float64, 4))
	if err != nil {
		t.Fatal(err)
	}
	// Row 0 is the top row.
	x, y := g.CellCenter(0, 0)
	if x != 105 || y != 215 {
		t.Errorf("CellCenter(0,0) = (%g,%g), want (105,215)", x, y)
	}
	x, y = g.CellCorner(1, 1)
	if x != 110 || y != 200 {
		t.Errorf("CellCorner(1,1) = (%g,%g), want (110,200)", x, y)
	}
}

func TestSummarize(t *testing.T) {
	g := mustGrid(t, 2, 2, []float64{-1, -3, -9999, -2})
	s := g.Summarize()
	if s.DataCells != 3 || s.NoDataCells != 1 {
		t.Errorf("cells = %d data / %d nodata, want 3/1", s.DataCells, s.NoDataCells)
	}
	if s.Min != -3 || s.Max != -1 {
		t.Errorf("range = [%g,%g], want [-3,-1]", s.Min, s.Max)
	}
	if s.Mean != -2 {
		t.Errorf("mean = %g, want -2", s.Mean)
	}
}

func TestDepthRaster(t *testing.T) {
	dem := mustGrid(t, 2, 2, []float64{0, -5, -9999, 0})
	filledVals := []float64{0, -1, -9999, 0}
	filled, err := dem.Derive(filledVals)
	if err != nil {
		t.Fatal(err)
	}
	depth, err := NewDepthRaster(dem, filled)
	if err != nil {
		t.Fatal(err)
	}
	if got := depth.Depth(0, 1); got != 4 {
		t.Errorf("Depth(0,1) = %g, want 4", got)
	}
	if got := depth.Depth(0, 0); got != 0 {
		t.Errorf("Depth(0,0) = %g, want 0", got)
	}
	if depth.InDepression(1, 0) {
		t.Error("nodata cell reported as depression")
	}
	if got := depth.Depth(9, 9); got != 0 {
		t.Errorf("off-grid depth = %g, want 0", got)
	}
}

func TestDepthRasterShapeMismatch(t *testing.T) {
	dem := mustGrid(t, 2, 2, make([]float64, 4))
	other := mustGrid(t, 2, 3, make([]float64, 6))
	if _, err := NewDepthRaster(dem, other); err == nil {
		t.Fatal("want shape mismatch error")
	}
}
