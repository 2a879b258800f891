package geojson

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/seabed-data/pockmark/internal/geom"
	"github.com/seabed-data/pockmark/internal/morpho"
	"github.com/seabed-data/pockmark/internal/pipeline"
)

func sampleRecords() []pipeline.RegionRecord {
	return []pipeline.RegionRecord{
		{
			DepID:     1,
			Threshold: 2,
			Boundary:  geom.Polygon{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 3}, {X: 0, Y: 3}},
			Centroid:  geom.Point{X: 1.5, Y: 1.5},
			Deepest:   geom.Point{X: 0.5, Y: 2.5},
			Stats: morpho.Stats{
				Area: 9, DepressionDepth: 4, MorphClass: "regular",
			},
		},
		{
			DepID:     2,
			Threshold: 2,
			Boundary:  geom.Polygon{{X: 5, Y: 5}, {X: 8, Y: 5}, {X: 8, Y: 7}, {X: 5, Y: 7}},
			Centroid:  geom.Point{X: 6.5, Y: 6},
			Deepest:   geom.Point{X: 7.5, Y: 6.5},
			Stats: morpho.Stats{
				Area: 6, DepressionDepth: 1.5, MorphClass: "semi-regular",
			},
		},
	}
}

func TestBuildThreeCollections(t *testing.T) {
	ex := Build(sampleRecords())

	for name, fc := range map[string]FeatureCollection{
		"polygons":       ex.Polygons,
		"centroids":      ex.Centroids,
		"deepest points": ex.DeepestPoints,
	} {
		if fc.Type != "FeatureCollection" {
			t.Errorf("%s: type = %q, want FeatureCollection", name, fc.Type)
		}
		if len(fc.Features) != 2 {
			t.Errorf("%s: got %d features, want 2", name, len(fc.Features))
		}
	}

	// Every collection carries the same join key per record.
	for i, rec := range sampleRecords() {
		for name, f := range map[string]Feature{
			"polygon":  ex.Polygons.Features[i],
			"centroid": ex.Centroids.Features[i],
			"deepest":  ex.DeepestPoints.Features[i],
		} {
			if got := f.Properties["dep_id"]; got != rec.DepID {
				t.Errorf("record %d %s: dep_id = %v, want %d", i, name, got, rec.DepID)
			}
			if got := f.Properties["z_threshold"]; got != rec.Threshold {
				t.Errorf("record %d %s: z_threshold = %v, want %g", i, name, got, rec.Threshold)
			}
		}
	}

	// Full stats live on the polygon; the deepest point repeats the depth.
	if got := ex.Polygons.Features[0].Properties["morph_class"]; got != "regular" {
		t.Errorf("polygon morph_class = %v, want regular", got)
	}
	if got := ex.DeepestPoints.Features[1].Properties["depression_depth"]; got != 1.5 {
		t.Errorf("deepest point depth = %v, want 1.5", got)
	}
}

func TestPolygonRingExplicitlyClosed(t *testing.T) {
	ex := Build(sampleRecords())
	g := ex.Polygons.Features[0].Geometry
	if g.Type != "Polygon" {
		t.Fatalf("geometry type = %q, want Polygon", g.Type)
	}
	rings, ok := g.Coordinates.([][][2]float64)
	if !ok {
		t.Fatalf("coordinates have type %T", g.Coordinates)
	}
	if len(rings) != 1 {
		t.Fatalf("got %d rings, want 1", len(rings))
	}
	ring := rings[0]
	if len(ring) != 5 {
		t.Fatalf("ring has %d positions, want 5 (4 vertices + closure)", len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		t.Errorf("ring not closed: first %v, last %v", ring[0], ring[len(ring)-1])
	}
}

func TestWriteValidJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleRecords()); err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Polygons      json.RawMessage `json:"polygons"`
		Centroids     json.RawMessage `json:"centroids"`
		DeepestPoints json.RawMessage `json:"deepest_points"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("emitted document does not parse: %v", err)
	}
	for name, raw := range map[string]json.RawMessage{
		"polygons":       doc.Polygons,
		"centroids":      doc.Centroids,
		"deepest_points": doc.DeepestPoints,
	} {
		var fc FeatureCollection
		if err := json.Unmarshal(raw, &fc); err != nil {
			t.Fatalf("%s collection does not parse: %v", name, err)
		}
		if len(fc.Features) != 2 {
			t.Errorf("%s: got %d features, want 2", name, len(fc.Features))
		}
	}
}

func TestWriteEmptyRecordSet(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatal(err)
	}
	var ex Export
	if err := json.Unmarshal(buf.Bytes(), &ex); err != nil {
		t.Fatal(err)
	}
	// Empty collections serialize as [], not null.
	if !bytes.Contains(buf.Bytes(), []byte(`"features": []`)) {
		t.Error("empty collections should serialize as empty arrays")
	}
}
