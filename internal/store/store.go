// Package store persists survey results to SQLite. Each batch becomes a
// survey row keyed by a UUID; the three output collections (depression
// polygons, centroids and deepest points) live in their own tables and
// share (survey_id, z_threshold, dep_id) as the join key, mirroring the
// three feature classes the original survey tooling emitted.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/seabed-data/pockmark/internal/geom"
	"github.com/seabed-data/pockmark/internal/pipeline"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps the results database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and applies
// any pending schema migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open results db %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	drv, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// SaveBatch persists a batch result: one survey row plus the merged record
// set across the three collection tables, in a single transaction.
func (s *Store) SaveBatch(ctx context.Context, res *pipeline.BatchResult, source string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	thresholds := make([]float64, 0, len(res.Runs))
	for _, run := range res.Runs {
		thresholds = append(thresholds, run.Threshold)
	}
	zsJSON, err := json.Marshal(thresholds)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO surveys (survey_id, source, thresholds, created_at) VALUES (?, ?, ?, ?)`,
		res.SurveyID, source, string(zsJSON), time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("insert survey %s: %w", res.SurveyID, err)
	}

	for _, rec := range res.Merged {
		if err := insertRecord(ctx, tx, res.SurveyID, rec); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertRecord(ctx context.Context, tx *sql.Tx, surveyID string, rec pipeline.RegionRecord) error {
	ring, err := json.Marshal(rec.Boundary)
	if err != nil {
		return err
	}
	st := rec.Stats
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO depression_polygons (
			survey_id, z_threshold, dep_id, ring,
			area, perimeter, major_axis, minor_axis, eccentricity,
			azimuth, thinness_ratio, depression_depth, diameter_depth_ratio,
			morph_class, cell_area
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		surveyID, rec.Threshold, rec.DepID, string(ring),
		st.Area, st.Perimeter, st.MajorAxis, st.MinorAxis, st.Eccentricity,
		st.Azimuth, st.ThinnessRatio, st.DepressionDepth, st.DiameterDepthRatio,
		st.MorphClass, st.CellArea,
	); err != nil {
		return fmt.Errorf("insert polygon (z=%g dep=%d): %w", rec.Threshold, rec.DepID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO depression_centroids (survey_id, z_threshold, dep_id, x, y) VALUES (?, ?, ?, ?, ?)`,
		surveyID, rec.Threshold, rec.DepID, rec.Centroid.X, rec.Centroid.Y,
	); err != nil {
		return fmt.Errorf("insert centroid (z=%g dep=%d): %w", rec.Threshold, rec.DepID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO depression_deepest_points (survey_id, z_threshold, dep_id, x, y, depth) VALUES (?, ?, ?, ?, ?, ?)`,
		surveyID, rec.Threshold, rec.DepID, rec.Deepest.X, rec.Deepest.Y, st.DepressionDepth,
	); err != nil {
		return fmt.Errorf("insert deepest point (z=%g dep=%d): %w", rec.Threshold, rec.DepID, err)
	}
	return nil
}

// SurveyInfo summarises one stored survey run.
type SurveyInfo struct {
	SurveyID   string
	Source     string
	Thresholds []float64
	CreatedAt  time.Time
	Records    int
}

// ListSurveys returns stored surveys, newest first.
func (s *Store) ListSurveys(ctx context.Context) ([]SurveyInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.survey_id, s.source, s.thresholds, s.created_at,
		       (SELECT COUNT(*) FROM depression_polygons p WHERE p.survey_id = s.survey_id)
		FROM surveys s ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SurveyInfo
	for rows.Next() {
		var info SurveyInfo
		var zs string
		if err := rows.Scan(&info.SurveyID, &info.Source, &zs, &info.CreatedAt, &info.Records); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(zs), &info.Thresholds); err != nil {
			return nil, fmt.Errorf("survey %s: bad thresholds column: %w", info.SurveyID, err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// LoadRecords returns the merged record set of a survey, ordered by
// threshold then dep_id (the same order SaveBatch received them in).
func (s *Store) LoadRecords(ctx context.Context, surveyID string) ([]pipeline.RegionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.z_threshold, p.dep_id, p.ring,
		       p.area, p.perimeter, p.major_axis, p.minor_axis, p.eccentricity,
		       p.azimuth, p.thinness_ratio, p.depression_depth, p.diameter_depth_ratio,
		       p.morph_class, p.cell_area,
		       c.x, c.y, d.x, d.y
		FROM depression_polygons p
		JOIN depression_centroids c
		  ON c.survey_id = p.survey_id AND c.z_threshold = p.z_threshold AND c.dep_id = p.dep_id
		JOIN depression_deepest_points d
		  ON d.survey_id = p.survey_id AND d.z_threshold = p.z_threshold AND d.dep_id = p.dep_id
		WHERE p.survey_id = ?
		ORDER BY p.z_threshold, p.dep_id`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pipeline.RegionRecord
	for rows.Next() {
		var rec pipeline.RegionRecord
		var ring string
		st := &rec.Stats
		if err := rows.Scan(&rec.Threshold, &rec.DepID, &ring,
			&st.Area, &st.Perimeter, &st.MajorAxis, &st.MinorAxis, &st.Eccentricity,
			&st.Azimuth, &st.ThinnessRatio, &st.DepressionDepth, &st.DiameterDepthRatio,
			&st.MorphClass, &st.CellArea,
			&rec.Centroid.X, &rec.Centroid.Y, &rec.Deepest.X, &rec.Deepest.Y,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(ring), &rec.Boundary); err != nil {
			return nil, fmt.Errorf("survey %s dep %d: bad ring column: %w", surveyID, rec.DepID, err)
		}
		if rec.Boundary == nil {
			rec.Boundary = geom.Polygon{}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
