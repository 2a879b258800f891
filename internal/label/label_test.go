package label

import (
	"testing"

	"github.com/seabed-data/pockmark/internal/fill"
	"github.com/seabed-data/pockmark/internal/grid"
	"github.com/seabed-data/pockmark/internal/testutil"
)

func extractFrom(t *testing.T, dem *grid.ElevationGrid, z float64, conn grid.Connectivity) (*grid.DepthRaster, []*Region) {
	t.Helper()
	filled, err := fill.Fill(dem, z, conn)
	testutil.AssertNoError(t, err)
	depth, regions, err := Extract(dem, filled, conn)
	testutil.AssertNoError(t, err)
	return depth, regions
}

func TestExtractSingleSink(t *testing.T) {
	dem := testutil.GridWithSink(t, 10, 10, 0, 4, 4, 3, 3, -5)
	depth, regions := extractFrom(t, dem, 10, grid.Connect8)

	if len(regions) != 1 {
		t.Fatalf("got %d regions, want 1", len(regions))
	}
	rg := regions[0]
	if rg.ID != 1 {
		t.Errorf("region id = %d, want 1", rg.ID)
	}
	if len(rg.Cells) != 9 {
		t.Errorf("region has %d cells, want 9", len(rg.Cells))
	}
	if rg.CellArea(dem.CellSize()) != 9 {
		t.Errorf("cell area = %g, want 9", rg.CellArea(dem.CellSize()))
	}
	// Cells are sorted row-major; first is the top-left block cell.
	if rg.Cells[0] != (grid.Cell{Row: 4, Col: 4}) {
		t.Errorf("first cell = %v, want {4 4}", rg.Cells[0])
	}
	for _, c := range rg.Cells {
		if d := depth.Depth(c.Row, c.Col); d != 5 {
			t.Errorf("depth at %v = %g, want 5", c, d)
		}
	}
}

func TestExtractSquareOutline(t *testing.T) {
	dem := testutil.GridWithSink(t, 10, 10, 0, 4, 4, 3, 3, -5)
	_, regions := extractFrom(t, dem, 10, grid.Connect8)
	rg := regions[0]

	if len(rg.Outline) != 4 {
		t.Fatalf("square outline has %d vertices, want 4 after collinear merge", len(rg.Outline))
	}
	if !rg.Outline.IsCounterClockwise() {
		t.Error("outline winding is clockwise, want counter-clockwise")
	}
	if got := rg.Outline.Area(); got != 9 {
		t.Errorf("outline area = %g, want 9", got)
	}
	if got := rg.Outline.Perimeter(); got != 12 {
		t.Errorf("outline perimeter = %g, want 12", got)
	}
	// Rows 4..6 on a 10-row unit grid span y in [3,6]; cols 4..6 span x
	// in [4,7].
	minX, minY, maxX, maxY := rg.Outline.BoundingBox()
	if minX != 4 || maxX != 7 || minY != 3 || maxY != 6 {
		t.Errorf("outline bbox = (%g,%g)-(%g,%g), want (4,3)-(7,6)", minX, minY, maxX, maxY)
	}
}

func TestExtractTwoDisjointSinks(t *testing.T) {
	values := make([]float64, 100)
	setBlock := func(row, col int, elev float64) {
		for r := row; r < row+3; r++ {
			for c := col; c < col+3; c++ {
				values[r*10+c] = elev
			}
		}
	}
	setBlock(1, 1, -3)
	setBlock(6, 6, -7)
	dem := testutil.MustGrid(t, 10, 10, values)

	depth, regions := extractFrom(t, dem, 10, grid.Connect8)
	if len(regions) != 2 {
		t.Fatalf("got %d regions, want 2", len(regions))
	}
	// Row-major discovery: the upper-left block labels first.
	if regions[0].ID != 1 || regions[1].ID != 2 {
		t.Errorf("ids = %d,%d, want 1,2", regions[0].ID, regions[1].ID)
	}
	if d := depth.Depth(regions[0].Cells[0].Row, regions[0].Cells[0].Col); d != 3 {
		t.Errorf("region 1 depth = %g, want 3", d)
	}
	if d := depth.Depth(regions[1].Cells[0].Row, regions[1].Cells[0].Col); d != 7 {
		t.Errorf("region 2 depth = %g, want 7", d)
	}

	// Partition property: no cell in both regions.
	seen := map[grid.Cell]int{}
	for _, rg := range regions {
		for _, c := range rg.Cells {
			if prev, ok := seen[c]; ok {
				t.Fatalf("cell %v in regions %d and %d", c, prev, rg.ID)
			}
			seen[c] = rg.ID
		}
	}
}

func TestExtractConnectivityPolicy(t *testing.T) {
	// Two single-cell sinks touching diagonally: one region under
	// 8-connectivity, two under 4-connectivity.
	values := make([]float64, 49)
	values[3*7+3] = -4
	values[2*7+4] = -4
	dem := testutil.MustGrid(t, 7, 7, values)

	_, regions8 := extractFrom(t, dem, 10, grid.Connect8)
	if len(regions8) != 1 {
		t.Errorf("Connect8: got %d regions, want 1", len(regions8))
	}
	_, regions4 := extractFrom(t, dem, 10, grid.Connect4)
	if len(regions4) != 2 {
		t.Errorf("Connect4: got %d regions, want 2", len(regions4))
	}
}

func TestExtractDiagonalPairOutlineCoversBoth(t *testing.T) {
	values := make([]float64, 49)
	values[3*7+3] = -4
	values[2*7+4] = -4
	dem := testutil.MustGrid(t, 7, 7, values)

	_, regions := extractFrom(t, dem, 10, grid.Connect8)
	if len(regions) != 1 {
		t.Fatalf("got %d regions, want 1", len(regions))
	}
	// The pinched outer ring wraps both cells: area 2, and the bounding
	// box spans both unit squares.
	rg := regions[0]
	if got := rg.Outline.Area(); got != 2 {
		t.Errorf("pinched outline area = %g, want 2", got)
	}
	minX, minY, maxX, maxY := rg.Outline.BoundingBox()
	if maxX-minX != 2 || maxY-minY != 2 {
		t.Errorf("pinched outline bbox = %gx%g, want 2x2", maxX-minX, maxY-minY)
	}
}

func TestExtractNoDepressions(t *testing.T) {
	dem := testutil.FlatGrid(t, 5, 5, -2)
	_, regions := extractFrom(t, dem, 5, grid.Connect8)
	if len(regions) != 0 {
		t.Errorf("flat grid produced %d regions, want 0", len(regions))
	}
}

func TestExtractRejectsBadConnectivity(t *testing.T) {
	dem := testutil.FlatGrid(t, 3, 3, 0)
	if _, _, err := Extract(dem, dem, grid.Connectivity(5)); err == nil {
		t.Fatal("bad connectivity accepted")
	}
}
