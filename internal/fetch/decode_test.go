package fetch

import (
	"testing"
)

func TestDecodeNetworkRecords(t *testing.T) {
	body := []byte(`[
		{"fields": {"geo_shape": {"type": "LineString", "coordinates": [[3.0, 50.6], [3.01, 50.61], [3.02, 50.62]]}}},
		{"fields": {"geo_shape": {"type": "Point", "coordinates": [[3.0, 50.6]]}}},
		{"fields": {}},
		{"fields": {"geo_shape": {"type": "LineString", "coordinates": [[3.1, 50.7]]}}}
	]`)

	lines, err := DecodeNetworkRecords(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Only the first record is a usable LineString; the Point, the empty
	// record and the single-vertex line are ignored.
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if len(lines[0]) != 3 {
		t.Fatalf("expected 3 vertices, got %d", len(lines[0]))
	}
	if lines[0][0][0] != 3.0 || lines[0][0][1] != 50.6 {
		t.Errorf("first vertex = %v, want [3.0 50.6]", lines[0][0])
	}
}

func TestDecodeNetworkRecordsMalformed(t *testing.T) {
	if _, err := DecodeNetworkRecords([]byte(`{"not":"an array"}`)); err == nil {
		t.Fatal("expected an error for a non-array payload")
	}
}

func TestDecodeOverpassWays(t *testing.T) {
	body := []byte(`{"elements": [
		{"type": "way", "id": 1, "nodes": [10, 11, 12]},
		{"type": "way", "id": 2, "nodes": [10, 99]},
		{"type": "way", "id": 3, "nodes": [99]},
		{"type": "node", "id": 10, "lat": 50.6, "lon": 3.0},
		{"type": "node", "id": 11, "lat": 50.61, "lon": 3.01},
		{"type": "node", "id": 12, "lat": 50.62, "lon": 3.02}
	]}`)

	lines, err := DecodeOverpassWays(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Way 1 resolves fully; way 2 has one unresolved node and drops to a
	// single vertex, so it is discarded; way 3 never had enough nodes.
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if len(lines[0]) != 3 {
		t.Fatalf("expected 3 vertices, got %d", len(lines[0]))
	}
	// Overpass is lat/lon; line features are lon/lat.
	if lines[0][0][0] != 3.0 || lines[0][0][1] != 50.6 {
		t.Errorf("first vertex = %v, want [3.0 50.6]", lines[0][0])
	}
}
