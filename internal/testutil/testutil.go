// Package testutil provides shared test utilities and fixtures.
//
// This package centralises grid fixture builders and small assertions to
// reduce duplication across package tests.
package testutil

import (
	"math"
	"testing"

	"github.com/seabed-data/pockmark/internal/grid"
)

// TestNoData is the nodata sentinel used by the grid fixtures.
const TestNoData = -9999

// MustGrid builds an ElevationGrid from row-major values, failing the test
// on construction errors. Cell size 1 and a zero origin keep fixture
// coordinates easy to reason about.
func MustGrid(t *testing.T, rows, cols int, values []float64) *grid.ElevationGrid {
	t.Helper()
	g, err := grid.New(rows, cols, 1, 0, 0, TestNoData, values)
	if err != nil {
		t.Fatalf("building %dx%d fixture grid: %v", rows, cols, err)
	}
	return g
}

// FlatGrid builds a rows×cols grid of a single elevation.
func FlatGrid(t *testing.T, rows, cols int, elev float64) *grid.ElevationGrid {
	t.Helper()
	values := make([]float64, rows*cols)
	for i := range values {
		values[i] = elev
	}
	return MustGrid(t, rows, cols, values)
}

// GridWithSink builds a flat grid with a rectangular sink: the block of
// cells starting at (row, col) spanning h×w is lowered to sinkElev.
func GridWithSink(t *testing.T, rows, cols int, baseElev float64, row, col, h, w int, sinkElev float64) *grid.ElevationGrid {
	t.Helper()
	values := make([]float64, rows*cols)
	for i := range values {
		values[i] = baseElev
	}
	for r := row; r < row+h; r++ {
		for c := col; c < col+w; c++ {
			if r < 0 || r >= rows || c < 0 || c >= cols {
				t.Fatalf("sink block (%d,%d)+%dx%d outside %dx%d grid", row, col, h, w, rows, cols)
			}
			values[r*cols+c] = sinkElev
		}
	}
	return MustGrid(t, rows, cols, values)
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertInDelta fails the test when got is not within delta of want.
func AssertInDelta(t *testing.T, name string, got, want, delta float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > delta {
		t.Errorf("%s = %g, want %g ± %g", name, got, want, delta)
	}
}
