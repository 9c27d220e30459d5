package pipeline

import (
	"log"

	"github.com/paulmach/orb/geojson"
)

// MergeStats reports the observable counts of one merge.
type MergeStats struct {
	TotalRead     int `json:"total_read"`
	TotalRetained int `json:"total_retained"`
}

// Merge combines per-arrondissement parcel collections into one commune
// collection, keeping only features whose area attribute exceeds the
// threshold.
//
// District dumps are already-fetched, possibly heterogeneous data, so a
// feature with a malformed area is logged and skipped rather than failing
// the merge. That is deliberately looser than Filter, where the threshold is
// a stated correctness prerequisite.
func Merge(districts []*geojson.FeatureCollection, areaField string, threshold float64) (*geojson.FeatureCollection, MergeStats) {
	if areaField == "" {
		areaField = DefaultAreaField
	}

	merged := geojson.NewFeatureCollection()
	stats := MergeStats{}

	for _, district := range districts {
		if district == nil {
			continue
		}
		for _, f := range district.Features {
			stats.TotalRead++

			raw, ok := f.Properties[areaField]
			if !ok {
				continue
			}
			area, err := coerceNumeric(areaField, raw)
			if err != nil {
				log.Printf("Skipping parcel %s: %v", FeatureID(f), err)
				continue
			}
			if area > threshold {
				merged.Append(f)
				stats.TotalRetained++
			}
		}
	}

	log.Printf("Merged %d districts: %d features read, %d retained",
		len(districts), stats.TotalRead, stats.TotalRetained)
	return merged, stats
}
