// Command pockmark identifies closed depressions (pockmarks) in a
// bathymetric elevation grid and reports morphometric statistics for each.
//
// It reads an Esri ASCII grid, runs the detection pipeline once per
// z-threshold, deduplicates nested detections across thresholds, and writes
// the merged result set as GeoJSON and/or into a SQLite results database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/seabed-data/pockmark/internal/geojson"
	"github.com/seabed-data/pockmark/internal/grid"
	"github.com/seabed-data/pockmark/internal/pipeline"
	"github.com/seabed-data/pockmark/internal/rasterio"
	"github.com/seabed-data/pockmark/internal/store"
	"github.com/seabed-data/pockmark/internal/version"
)

var (
	inPath       = flag.String("in", "", "Input bathymetry grid (Esri ASCII .asc)")
	thresholds   = flag.String("thresholds", "", "Comma-separated z-threshold list, e.g. \"2,5,10\"")
	connectivity = flag.Int("connectivity", 8, "Region connectivity: 4 or 8")
	minArea      = flag.Float64("min-area", 0, "Minimum region area (0 = (cellSize*3)^2)")
	maxArea      = flag.Float64("max-area", 0, "Maximum region area (0 = unlimited)")
	smoothing    = flag.Float64("smoothing", 0, "Boundary smoothing tolerance (0 = cellSize*3)")
	workers      = flag.Int("workers", 0, "Analysis worker count (0 = number of CPUs)")
	configPath   = flag.String("config", "", "Optional JSON config overriding the parameter flags")
	outPath      = flag.String("out", "", "GeoJSON output path (\"-\" for stdout)")
	dbPath       = flag.String("db", "", "SQLite results database path")
	depthOut     = flag.String("depth-out", "", "Optional depression-depth raster output (.asc), finest threshold")
	strictBathy  = flag.Bool("strict-bathy", false, "Fail if the grid contains positive elevations")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Printf("pockmark %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if *inPath == "" || *thresholds == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *outPath == "" && *dbPath == "" {
		log.Fatal("no output selected: set -out and/or -db")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("pockmark: %v", err)
	}
}

func run(ctx context.Context) error {
	dem, err := rasterio.ReadASCIIFile(*inPath)
	if err != nil {
		return err
	}
	stats := dem.Summarize()
	log.Printf("loaded %dx%d grid, cell size %g, %d data cells (elevation %g..%g)",
		dem.Rows(), dem.Cols(), dem.CellSize(), stats.DataCells, stats.Min, stats.Max)

	if err := pipeline.ValidateBathymetry(dem); err != nil {
		if *strictBathy {
			return err
		}
		log.Printf("warning: %v", err)
	}

	zs, err := parseThresholds(*thresholds)
	if err != nil {
		return err
	}

	cfg := pipeline.Config{
		Connectivity:       grid.Connectivity(*connectivity),
		MinArea:            *minArea,
		MaxArea:            *maxArea,
		SmoothingTolerance: *smoothing,
		Workers:            *workers,
	}
	if *configPath != "" {
		fc, err := pipeline.LoadFileConfig(*configPath)
		if err != nil {
			return err
		}
		fc.Apply(&cfg)
	}

	res, err := pipeline.Batch(ctx, dem, cfg, zs)
	if err != nil {
		return err
	}
	for _, run := range res.Runs {
		log.Printf("z=%g: %d depressions, %d excluded as degenerate",
			run.Threshold, len(run.Records), len(run.Warnings))
		for _, w := range run.Warnings {
			log.Printf("z=%g: warning: %v", run.Threshold, w)
		}
	}

	if *outPath != "" {
		if err := writeGeoJSON(*outPath, res); err != nil {
			return err
		}
	}
	if *dbPath != "" {
		st, err := store.Open(*dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SaveBatch(ctx, res, *inPath); err != nil {
			return fmt.Errorf("save survey: %w", err)
		}
		log.Printf("survey %s saved to %s", res.SurveyID, *dbPath)
	}
	if *depthOut != "" {
		finest := zs[0]
		for _, z := range zs[1:] {
			if z < finest {
				finest = z
			}
		}
		if err := writeDepthRaster(*depthOut, dem, cfg, finest); err != nil {
			return err
		}
	}
	return nil
}

func writeGeoJSON(path string, res *pipeline.BatchResult) error {
	if path == "-" {
		return geojson.Write(os.Stdout, res.Merged)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := geojson.Write(f, res.Merged); err != nil {
		return err
	}
	log.Printf("wrote %s", path)
	return f.Close()
}

// writeDepthRaster re-derives the depth surface for the finest threshold
// and writes it as an ASCII raster for inspection in external GIS tools.
func writeDepthRaster(path string, dem *grid.ElevationGrid, cfg pipeline.Config, z float64) error {
	depth, err := pipeline.DepthSurface(dem, cfg, z)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := rasterio.WriteASCII(f, depth.Grid()); err != nil {
		return err
	}
	log.Printf("wrote %s", path)
	return f.Close()
}

func parseThresholds(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	zs := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		z, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("bad threshold %q: %w", p, err)
		}
		zs = append(zs, z)
	}
	if len(zs) == 0 {
		return nil, fmt.Errorf("no thresholds in %q", s)
	}
	return zs, nil
}
