package pipeline

import (
	"fmt"
	"testing"

	"github.com/paulmach/orb/geojson"
)

func district(n int, areas ...float64) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, area := range areas {
		fc.Append(squareParcel(fmt.Sprintf("d%d-%d", n, i), float64(i), float64(n), area))
	}
	return fc
}

func TestMergeCounts(t *testing.T) {
	// 10 + 5 + 0 features; threshold 4000 passes 6 of the 15.
	d1 := district(1,
		5000, 5000, 5000, 5000, 1000,
		1000, 1000, 1000, 1000, 1000)
	d2 := district(2, 5000, 5000, 1000, 1000, 1000)
	d3 := district(3)

	merged, stats := Merge([]*geojson.FeatureCollection{d1, d2, d3}, "", 4000)

	if stats.TotalRead != 15 {
		t.Errorf("expected 15 read, got %d", stats.TotalRead)
	}
	if stats.TotalRetained != 6 {
		t.Errorf("expected 6 retained, got %d", stats.TotalRetained)
	}
	if len(merged.Features) != 6 {
		t.Errorf("expected 6 features, got %d", len(merged.Features))
	}
}

func TestMergeToleratesMalformedFeatures(t *testing.T) {
	d1 := district(1, 5000)
	d1.Append(squareParcel("bad", 9, 9, "n/a")) // coercion failure: skip, not fatal
	d1.Append(squareParcel("noarea", 8, 8, nil))

	merged, stats := Merge([]*geojson.FeatureCollection{d1}, "", 4000)

	if stats.TotalRead != 3 {
		t.Errorf("expected 3 read, got %d", stats.TotalRead)
	}
	if stats.TotalRetained != 1 {
		t.Errorf("expected 1 retained, got %d", stats.TotalRetained)
	}
	if len(merged.Features) != 1 || FeatureID(merged.Features[0]) != "d1-0" {
		t.Fatalf("unexpected merged content: %v", ids(merged))
	}
}

func TestMergeNilDistricts(t *testing.T) {
	merged, stats := Merge([]*geojson.FeatureCollection{nil, district(1, 5000)}, "", 4000)
	if stats.TotalRead != 1 || stats.TotalRetained != 1 || len(merged.Features) != 1 {
		t.Fatalf("nil district mishandled: %+v, %d features", stats, len(merged.Features))
	}
}
