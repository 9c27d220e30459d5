package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"hub-search/internal/models"
)

// ErrNotFound is returned when a (commune, kind) dataset does not exist
var ErrNotFound = errors.New("dataset not found")

// UpsertDataset stores a GeoJSON FeatureCollection for one (commune, kind),
// replacing any previous document.
func (db *DB) UpsertDataset(meta *models.DatasetMeta, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO datasets (commune_code, kind, city_name, center_lat, center_lon, feature_count, data, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(commune_code, kind) DO UPDATE SET
			city_name = excluded.city_name,
			center_lat = excluded.center_lat,
			center_lon = excluded.center_lon,
			feature_count = excluded.feature_count,
			data = excluded.data,
			fetched_at = CURRENT_TIMESTAMP
	`, meta.CommuneCode, meta.Kind, meta.CityName, meta.CenterLat, meta.CenterLon,
		len(fc.Features), string(data))
	if err != nil {
		return fmt.Errorf("failed to save dataset %s/%s: %w", meta.CommuneCode, meta.Kind, err)
	}
	return nil
}

// UpsertLineDataset stores line features (HTA network or road axes) as a
// FeatureCollection under the given kind.
func (db *DB) UpsertLineDataset(meta *models.DatasetMeta, lines []orb.LineString) error {
	fc := geojson.NewFeatureCollection()
	for _, line := range lines {
		fc.Append(geojson.NewFeature(line))
	}
	return db.UpsertDataset(meta, fc)
}

// GetDataset loads the FeatureCollection stored for one (commune, kind).
func (db *DB) GetDataset(communeCode, kind string) (*models.DatasetMeta, *geojson.FeatureCollection, error) {
	var row struct {
		models.DatasetMeta
		Data string `db:"data"`
	}
	err := db.Get(&row, `
		SELECT id, commune_code, kind, city_name, center_lat, center_lon, feature_count, data, fetched_at
		FROM datasets WHERE commune_code = ? AND kind = ?
	`, communeCode, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load dataset %s/%s: %w", communeCode, kind, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection([]byte(row.Data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode dataset %s/%s: %w", communeCode, kind, err)
	}
	return &row.DatasetMeta, fc, nil
}

// GetLines loads a line dataset and returns its LineString geometries.
// Non-line features are ignored.
func (db *DB) GetLines(communeCode, kind string) ([]orb.LineString, error) {
	_, fc, err := db.GetDataset(communeCode, kind)
	if err != nil {
		return nil, err
	}

	lines := make([]orb.LineString, 0, len(fc.Features))
	for _, f := range fc.Features {
		if line, ok := f.Geometry.(orb.LineString); ok {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// DeleteDataset removes one (commune, kind) document. Used by the merge
// cleanup after the merged collection is durably written.
func (db *DB) DeleteDataset(communeCode, kind string) error {
	_, err := db.Exec(`DELETE FROM datasets WHERE commune_code = ? AND kind = ?`, communeCode, kind)
	if err != nil {
		return fmt.Errorf("failed to delete dataset %s/%s: %w", communeCode, kind, err)
	}
	return nil
}

// ListDatasets returns the metadata of every stored dataset.
func (db *DB) ListDatasets() ([]models.DatasetMeta, error) {
	var rows []models.DatasetMeta
	err := db.Select(&rows, `
		SELECT id, commune_code, kind, city_name, center_lat, center_lon, feature_count, fetched_at
		FROM datasets ORDER BY commune_code, kind
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return rows, nil
}
