// Package geojson serializes pipeline results as GeoJSON. The export keeps
// the three-collection output contract: polygons, centroids and deepest
// points are separate FeatureCollections joined by dep_id and z_threshold.
package geojson

import (
	"encoding/json"
	"io"

	"github.com/seabed-data/pockmark/internal/geom"
	"github.com/seabed-data/pockmark/internal/pipeline"
)

// Feature is a GeoJSON feature with generic properties.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry is a GeoJSON geometry restricted to the two types emitted here.
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Export bundles the three collections of one record set.
type Export struct {
	Polygons      FeatureCollection `json:"polygons"`
	Centroids     FeatureCollection `json:"centroids"`
	DeepestPoints FeatureCollection `json:"deepest_points"`
}

// Build assembles the export document from a record set.
func Build(records []pipeline.RegionRecord) Export {
	ex := Export{
		Polygons:      FeatureCollection{Type: "FeatureCollection", Features: []Feature{}},
		Centroids:     FeatureCollection{Type: "FeatureCollection", Features: []Feature{}},
		DeepestPoints: FeatureCollection{Type: "FeatureCollection", Features: []Feature{}},
	}
	for _, rec := range records {
		key := map[string]any{
			"dep_id":      rec.DepID,
			"z_threshold": rec.Threshold,
		}
		props := map[string]any{
			"dep_id":               rec.DepID,
			"z_threshold":          rec.Threshold,
			"area":                 rec.Stats.Area,
			"perimeter":            rec.Stats.Perimeter,
			"major_axis":           rec.Stats.MajorAxis,
			"minor_axis":           rec.Stats.MinorAxis,
			"eccentricity":         rec.Stats.Eccentricity,
			"azimuth":              rec.Stats.Azimuth,
			"thinness_ratio":       rec.Stats.ThinnessRatio,
			"depression_depth":     rec.Stats.DepressionDepth,
			"diameter_depth_ratio": rec.Stats.DiameterDepthRatio,
			"morph_class":          rec.Stats.MorphClass,
			"cell_area":            rec.Stats.CellArea,
		}
		ex.Polygons.Features = append(ex.Polygons.Features, Feature{
			Type:       "Feature",
			Geometry:   polygonGeometry(rec.Boundary),
			Properties: props,
		})
		ex.Centroids.Features = append(ex.Centroids.Features, Feature{
			Type:       "Feature",
			Geometry:   pointGeometry(rec.Centroid),
			Properties: key,
		})
		deepProps := map[string]any{
			"dep_id":           rec.DepID,
			"z_threshold":      rec.Threshold,
			"depression_depth": rec.Stats.DepressionDepth,
		}
		ex.DeepestPoints.Features = append(ex.DeepestPoints.Features, Feature{
			Type:       "Feature",
			Geometry:   pointGeometry(rec.Deepest),
			Properties: deepProps,
		})
	}
	return ex
}

// Write emits the export document as indented JSON.
func Write(w io.Writer, records []pipeline.RegionRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Build(records))
}

// polygonGeometry closes the ring explicitly: GeoJSON requires the first
// position repeated at the end.
func polygonGeometry(p geom.Polygon) Geometry {
	ring := make([][2]float64, 0, len(p)+1)
	for _, v := range p {
		ring = append(ring, [2]float64{v.X, v.Y})
	}
	if len(p) > 0 {
		ring = append(ring, [2]float64{p[0].X, p[0].Y})
	}
	return Geometry{Type: "Polygon", Coordinates: [][][2]float64{ring}}
}

func pointGeometry(p geom.Point) Geometry {
	return Geometry{Type: "Point", Coordinates: [2]float64{p.X, p.Y}}
}
