// Package rasterio adapts on-disk raster formats to the in-memory grid
// model. It currently speaks Esri ASCII grid (.asc), which carries exactly
// the semantics the core needs: dimensions, a square cell size, a lower-left
// origin and a nodata sentinel. The algorithmic core never touches files;
// this package is boundary glue for the CLI.
package rasterio

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/seabed-data/pockmark/internal/grid"
)

// DefaultNoData is used when an ASCII grid omits the optional
// NODATA_value header, matching the common Esri convention.
const DefaultNoData = -9999

// ReadASCII parses an Esri ASCII grid. Header keys are case-insensitive;
// both xllcorner/yllcorner and xllcenter/yllcenter origins are accepted
// (centre origins are shifted back to the corner convention).
func ReadASCII(r io.Reader) (*grid.ElevationGrid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	header := map[string]float64{}
	var values []float64
	cols, rows := -1, -1

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 2 && values == nil {
			key := strings.ToLower(fields[0])
			if isHeaderKey(key) {
				v, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return nil, fmt.Errorf("ascii grid: bad header %q: %w", line, err)
				}
				header[key] = v
				continue
			}
		}
		// First non-header line: dimensions must be known by now.
		if cols < 0 {
			c, cok := header["ncols"]
			r2, rok := header["nrows"]
			if !cok || !rok {
				return nil, fmt.Errorf("ascii grid: data before ncols/nrows header")
			}
			cols, rows = int(c), int(r2)
			if cols <= 0 || rows <= 0 {
				return nil, &grid.InvalidGridError{Rows: rows, Cols: cols, Reason: "non-positive dimensions in header"}
			}
			values = make([]float64, 0, rows*cols)
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("ascii grid: bad value %q: %w", f, err)
			}
			values = append(values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ascii grid: %w", err)
	}
	if cols < 0 {
		return nil, fmt.Errorf("ascii grid: no data rows")
	}

	cellSize := header["cellsize"]
	nodata, ok := header["nodata_value"]
	if !ok {
		nodata = DefaultNoData
	}
	ox, oy, err := originFromHeader(header, cellSize)
	if err != nil {
		return nil, err
	}
	return grid.New(rows, cols, cellSize, ox, oy, nodata, values)
}

// ReadASCIIFile opens and parses path.
func ReadASCIIFile(path string) (*grid.ElevationGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grid %s: %w", path, err)
	}
	defer f.Close()
	g, err := ReadASCII(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// WriteASCII emits the grid as an Esri ASCII raster (corner origin).
func WriteASCII(w io.Writer, g *grid.ElevationGrid) error {
	bw := bufio.NewWriter(w)
	ox, oy := g.Origin()
	fmt.Fprintf(bw, "ncols %d\n", g.Cols())
	fmt.Fprintf(bw, "nrows %d\n", g.Rows())
	fmt.Fprintf(bw, "xllcorner %s\n", formatFloat(ox))
	fmt.Fprintf(bw, "yllcorner %s\n", formatFloat(oy))
	fmt.Fprintf(bw, "cellsize %s\n", formatFloat(g.CellSize()))
	fmt.Fprintf(bw, "NODATA_value %s\n", formatFloat(g.NoData()))
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			if c > 0 {
				bw.WriteByte(' ')
			}
			v := g.Value(r, c)
			if math.IsNaN(v) {
				v = g.NoData()
			}
			bw.WriteString(formatFloat(v))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func isHeaderKey(k string) bool {
	switch k {
	case "ncols", "nrows", "xllcorner", "yllcorner", "xllcenter", "yllcenter", "cellsize", "nodata_value":
		return true
	}
	return false
}

func originFromHeader(header map[string]float64, cellSize float64) (ox, oy float64, err error) {
	if x, ok := header["xllcorner"]; ok {
		ox = x
	} else if x, ok := header["xllcenter"]; ok {
		ox = x - cellSize/2
	}
	if y, ok := header["yllcorner"]; ok {
		oy = y
	} else if y, ok := header["yllcenter"]; ok {
		oy = y - cellSize/2
	}
	_, xc := header["xllcorner"]
	_, xc2 := header["xllcenter"]
	_, yc := header["yllcorner"]
	_, yc2 := header["yllcenter"]
	if (xc && xc2) || (yc && yc2) {
		return 0, 0, fmt.Errorf("ascii grid: both corner and centre origin present")
	}
	return ox, oy, nil
}

func formatFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
