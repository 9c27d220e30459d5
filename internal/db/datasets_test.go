package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"hub-search/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func parcelCollection(ids ...string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, id := range ids {
		f := geojson.NewFeature(orb.Polygon{orb.Ring{
			{float64(i), 0}, {float64(i) + 1, 0}, {float64(i) + 1, 1}, {float64(i), 1}, {float64(i), 0},
		}})
		f.ID = id
		f.Properties["id"] = id
		f.Properties["contenance"] = 5000.0
		fc.Append(f)
	}
	return fc
}

func TestDatasetRoundTrip(t *testing.T) {
	database := testDB(t)

	meta := &models.DatasetMeta{
		CommuneCode: "59350",
		Kind:        models.KindParcels,
		CityName:    sql.NullString{String: "Lille", Valid: true},
		CenterLat:   sql.NullFloat64{Float64: 50.63, Valid: true},
		CenterLon:   sql.NullFloat64{Float64: 3.06, Valid: true},
	}
	if err := database.UpsertDataset(meta, parcelCollection("a", "b")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, fc, err := database.GetDataset("59350", models.KindParcels)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CityName.String != "Lille" || !got.HasCenter() {
		t.Errorf("metadata mismatch: %+v", got)
	}
	if got.FeatureCount != 2 || len(fc.Features) != 2 {
		t.Errorf("expected 2 features, got %d/%d", got.FeatureCount, len(fc.Features))
	}

	// Upsert replaces the previous document.
	if err := database.UpsertDataset(meta, parcelCollection("a", "b", "c")); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, fc, err = database.GetDataset("59350", models.KindParcels)
	if err != nil {
		t.Fatalf("get after upsert: %v", err)
	}
	if got.FeatureCount != 3 || len(fc.Features) != 3 {
		t.Errorf("expected 3 features after upsert, got %d/%d", got.FeatureCount, len(fc.Features))
	}
}

func TestGetDatasetNotFound(t *testing.T) {
	database := testDB(t)
	_, _, err := database.GetDataset("00000", models.KindParcels)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLineDatasetRoundTrip(t *testing.T) {
	database := testDB(t)

	lines := []orb.LineString{
		{{3.0, 50.6}, {3.01, 50.61}},
		{{3.1, 50.7}, {3.11, 50.71}, {3.12, 50.72}},
	}
	meta := &models.DatasetMeta{CommuneCode: "59350", Kind: models.KindNetwork}
	if err := database.UpsertLineDataset(meta, lines); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := database.GetLines("59350", models.KindNetwork)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got))
	}
	if len(got[1]) != 3 {
		t.Errorf("expected 3 vertices on second line, got %d", len(got[1]))
	}
}

func TestDeleteDataset(t *testing.T) {
	database := testDB(t)

	meta := &models.DatasetMeta{CommuneCode: "75101", Kind: models.KindParcels}
	if err := database.UpsertDataset(meta, parcelCollection("x")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := database.DeleteDataset("75101", models.KindParcels); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := database.GetDataset("75101", models.KindParcels); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListDatasets(t *testing.T) {
	database := testDB(t)

	for _, kind := range []string{models.KindParcels, models.KindNetwork} {
		meta := &models.DatasetMeta{CommuneCode: "59350", Kind: kind}
		if err := database.UpsertDataset(meta, parcelCollection("a")); err != nil {
			t.Fatalf("upsert %s: %v", kind, err)
		}
	}

	list, err := database.ListDatasets()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 datasets, got %d", len(list))
	}
}
