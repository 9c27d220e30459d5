package pipeline

import (
	"fmt"
	"math/rand"

	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-geos"
)

// DefaultAreaField is the cadastre parcel-area attribute, in square meters.
const DefaultAreaField = "contenance"

// Config carries the operator-chosen siting criteria. It replaces the
// slider/checkbox session state of the old interactive tooling with one
// explicit structure.
type Config struct {
	AreaField      string  // parcel area attribute, DefaultAreaField when empty
	AreaThreshold  float64 // keep parcels strictly above this, in m²
	UrbanBufferKm  float64
	UrbanEnabled   bool
	NetworkBufferM float64
	NetworkEnabled bool
	AxisBufferM    float64
	AxisEnabled    bool
	DisplayPercent int   // 1..100, percentage of survivors kept for display
	Seed           int64 // shuffle seed for the display subset
}

// DefaultConfig returns the historical default criteria
func DefaultConfig() Config {
	return Config{
		AreaField:      DefaultAreaField,
		AreaThreshold:  4000,
		UrbanBufferKm:  5,
		UrbanEnabled:   true,
		NetworkBufferM: 100,
		NetworkEnabled: true,
		AxisBufferM:    200,
		AxisEnabled:    false,
		DisplayPercent: 100,
	}
}

// Constraint pairs a buffer region with its enablement. A nil Region on an
// enabled constraint means the reference geometry was configured but turned
// out empty; the filter fails closed on it. Disabled constraints impose
// nothing regardless of Region.
type Constraint struct {
	Name    string
	Region  *geos.Geom
	Enabled bool
}

// Summary reports the observable counts of one filter pass.
type Summary struct {
	TotalRead     int `json:"total_read"`
	TotalRetained int `json:"total_retained"`
}

// Filter applies the area threshold and every enabled buffer constraint, in
// order, and returns the surviving parcels as a new collection. The input is
// never mutated.
//
// With an area field configured, a parcel whose area attribute cannot be
// coerced fails the whole batch with a DataFormatError: dropping it silently
// would skew every area-based conclusion downstream.
func Filter(fc *geojson.FeatureCollection, cfg Config, constraints []Constraint) (*geojson.FeatureCollection, Summary, error) {
	summary := Summary{TotalRead: len(fc.Features)}

	areaField := cfg.AreaField
	if areaField == "" {
		areaField = DefaultAreaField
	}

	kept := make([]*geojson.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		raw, ok := f.Properties[areaField]
		if !ok {
			// Parcels without the attribute cannot satisfy "area > threshold".
			continue
		}
		area, err := coerceNumeric(areaField, raw)
		if err != nil {
			return nil, summary, err
		}
		if area > cfg.AreaThreshold {
			kept = append(kept, f)
		}
	}

	for _, c := range constraints {
		if !c.Enabled {
			continue
		}
		if c.Region == nil || c.Region.IsEmpty() {
			// Fail closed: the criterion was asked for, the data is missing.
			summary.TotalRetained = 0
			return geojson.NewFeatureCollection(), summary,
				fmt.Errorf("constraint %q: %w", c.Name, ErrEmptyConstraint)
		}

		next := kept[:0:0]
		for _, f := range kept {
			hit, err := intersects(c.Region, f)
			if err != nil {
				return nil, summary, fmt.Errorf("constraint %q: %w", c.Name, err)
			}
			if hit {
				next = append(next, f)
			}
		}
		kept = next
	}

	out := geojson.NewFeatureCollection()
	out.Features = kept
	summary.TotalRetained = len(kept)
	return out, summary, nil
}

// intersects reports whether the parcel geometry intersects the buffer
// region. Boundary contact counts.
func intersects(region *geos.Geom, f *geojson.Feature) (bool, error) {
	data, err := geojson.NewGeometry(f.Geometry).MarshalJSON()
	if err != nil {
		return false, fmt.Errorf("encoding parcel geometry: %w", err)
	}
	g, err := geos.NewGeomFromGeoJSON(string(data))
	if err != nil {
		return false, fmt.Errorf("parsing parcel geometry: %w", err)
	}
	defer g.Destroy()

	return region.Intersects(g), nil
}

// SampleForDisplay shuffles the collection with the given seed and truncates
// it to percent of its size. The cadastral export is ordered by section and
// number; a plain prefix would bias the display toward one corner of the
// commune. Same seed, same subset.
func SampleForDisplay(fc *geojson.FeatureCollection, percent int, seed int64) *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()
	if len(fc.Features) == 0 || percent <= 0 {
		return out
	}
	if percent > 100 {
		percent = 100
	}

	features := make([]*geojson.Feature, len(fc.Features))
	copy(features, fc.Features)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(features), func(i, j int) {
		features[i], features[j] = features[j], features[i]
	})

	n := len(features) * percent / 100
	if n == 0 {
		n = 1
	}
	out.Features = features[:n]
	return out
}

// FeatureID returns the parcel identifier of a feature: the GeoJSON feature
// id when present, otherwise the "id" property.
func FeatureID(f *geojson.Feature) string {
	switch id := f.ID.(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		return fmt.Sprintf("%.0f", id)
	}
	if v, ok := f.Properties["id"].(string); ok {
		return v
	}
	return ""
}
