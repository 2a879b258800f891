package fill

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/seabed-data/pockmark/internal/grid"
	"github.com/seabed-data/pockmark/internal/testutil"
)

func TestFillFlatGridUnchanged(t *testing.T) {
	dem := testutil.FlatGrid(t, 5, 5, -10)
	filled, err := Fill(dem, 5, grid.Connect8)
	testutil.AssertNoError(t, err)
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			if filled.Value(r, c) != -10 {
				t.Fatalf("flat grid changed at (%d,%d): %g", r, c, filled.Value(r, c))
			}
		}
	}
}

func TestFillRaisesSinkToPourPoint(t *testing.T) {
	// 3x3 sink of depth 5 in a flat grid; pour point is the surrounding
	// level, so the whole block fills to 0 when the threshold allows.
	dem := testutil.GridWithSink(t, 10, 10, 0, 4, 4, 3, 3, -5)
	filled, err := Fill(dem, 10, grid.Connect8)
	testutil.AssertNoError(t, err)
	for r := 4; r <= 6; r++ {
		for c := 4; c <= 6; c++ {
			if got := filled.Value(r, c); got != 0 {
				t.Errorf("sink cell (%d,%d) filled to %g, want 0", r, c, got)
			}
		}
	}
}

func TestFillClampsToThreshold(t *testing.T) {
	// Same sink, threshold 2: fill is capped at original + 2.
	dem := testutil.GridWithSink(t, 10, 10, 0, 4, 4, 3, 3, -5)
	filled, err := Fill(dem, 2, grid.Connect8)
	testutil.AssertNoError(t, err)
	for r := 4; r <= 6; r++ {
		for c := 4; c <= 6; c++ {
			if got := filled.Value(r, c); got != -3 {
				t.Errorf("clamped sink cell (%d,%d) = %g, want -3", r, c, got)
			}
		}
	}
}

// TestFillProperties checks the two pipeline-wide fill invariants on an
// irregular surface: filling never lowers a cell, and no cell is raised by
// more than the z-threshold.
func TestFillProperties(t *testing.T) {
	values := []float64{
		-1, -2, -1, -4, -2, -1,
		-2, -9, -3, -8, -7, -2,
		-1, -8, -2, -9, -8, -1,
		-3, -2, -4, -8, -2, -3,
		-1, -2, -1, -2, -1, -2,
		-2, -1, -3, -1, -2, -1,
	}
	dem := testutil.MustGrid(t, 6, 6, values)

	for _, z := range []float64{0.5, 2, 5, 100} {
		filled, err := Fill(dem, z, grid.Connect8)
		testutil.AssertNoError(t, err)
		for r := 0; r < 6; r++ {
			for c := 0; c < 6; c++ {
				orig, f := dem.Value(r, c), filled.Value(r, c)
				if f < orig {
					t.Errorf("z=%g: fill lowered (%d,%d): %g -> %g", z, r, c, orig, f)
				}
				if f-orig > z+1e-12 {
					t.Errorf("z=%g: clamp violated at (%d,%d): depth %g", z, r, c, f-orig)
				}
			}
		}
	}
}

func TestFillNoDataHoleActsAsOutlet(t *testing.T) {
	// A sink adjacent to a nodata hole drains into it: no fill happens.
	values := make([]float64, 25)
	values[2*5+2] = -5                  // sink at centre
	values[2*5+1] = testutil.TestNoData // hole west of it
	dem := testutil.MustGrid(t, 5, 5, values)

	filled, err := Fill(dem, 10, grid.Connect4)
	testutil.AssertNoError(t, err)
	if got := filled.Value(2, 2); got != -5 {
		t.Errorf("sink draining into nodata filled to %g, want -5", got)
	}
	if got := filled.Value(2, 1); got != testutil.TestNoData {
		t.Errorf("nodata cell changed: %g", got)
	}
}

func TestFillConnectivityChangesDrainage(t *testing.T) {
	// A diagonal channel of -3 cells running to the boundary corner: it
	// drains under 8-connectivity but is a chain of sinks under
	// 4-connectivity, where each interior channel cell is sealed by 0s.
	values := make([]float64, 25)
	values[0*5+0] = -3
	values[1*5+1] = -3
	values[2*5+2] = -3
	dem := testutil.MustGrid(t, 5, 5, values)

	f8, err := Fill(dem, 10, grid.Connect8)
	testutil.AssertNoError(t, err)
	for _, rc := range [][2]int{{0, 0}, {1, 1}, {2, 2}} {
		if got := f8.Value(rc[0], rc[1]); got != -3 {
			t.Errorf("Connect8 channel cell (%d,%d) = %g, want -3", rc[0], rc[1], got)
		}
	}

	f4, err := Fill(dem, 10, grid.Connect4)
	testutil.AssertNoError(t, err)
	if got := f4.Value(0, 0); got != -3 {
		t.Errorf("Connect4 boundary cell (0,0) = %g, want -3", got)
	}
	for _, rc := range [][2]int{{1, 1}, {2, 2}} {
		if got := f4.Value(rc[0], rc[1]); got != 0 {
			t.Errorf("Connect4 sealed cell (%d,%d) = %g, want 0", rc[0], rc[1], got)
		}
	}
}

func TestFillDeterministic(t *testing.T) {
	dem := testutil.GridWithSink(t, 20, 20, 0, 3, 3, 5, 5, -4)
	a, err := Fill(dem, 3, grid.Connect8)
	testutil.AssertNoError(t, err)
	b, err := Fill(dem, 3, grid.Connect8)
	testutil.AssertNoError(t, err)

	va := make([]float64, 0, 400)
	vb := make([]float64, 0, 400)
	for r := 0; r < 20; r++ {
		for c := 0; c < 20; c++ {
			va = append(va, a.Value(r, c))
			vb = append(vb, b.Value(r, c))
		}
	}
	if diff := cmp.Diff(va, vb); diff != "" {
		t.Errorf("repeated fill differs (-first +second):\n%s", diff)
	}
}

func TestFillRejectsBadInput(t *testing.T) {
	dem := testutil.FlatGrid(t, 3, 3, 0)
	if _, err := Fill(dem, 0, grid.Connect8); err == nil {
		t.Error("zero threshold accepted")
	}
	if _, err := Fill(dem, -1, grid.Connect8); err == nil {
		t.Error("negative threshold accepted")
	}
	if _, err := Fill(dem, 1, grid.Connectivity(6)); err == nil {
		t.Error("bad connectivity accepted")
	}
	if _, err := Fill(nil, 1, grid.Connect8); err == nil {
		t.Error("nil grid accepted")
	}
}
