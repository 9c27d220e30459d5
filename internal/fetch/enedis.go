package fetch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
)

// HTA network datasets exposed by the Enedis records API.
const (
	DatasetHTA            = "reseau-hta"
	DatasetHTAUnderground = "reseau-souterrain-hta"
)

// enedisRecord is one record of the Enedis download API
type enedisRecord struct {
	Fields struct {
		GeoShape struct {
			Type        string      `json:"type"`
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geo_shape"`
	} `json:"fields"`
}

// FetchNetwork downloads the HTA line segments inside the city bounding box.
func (f *Fetcher) FetchNetwork(ctx context.Context, city *CityInfo, dataset string) ([]orb.LineString, error) {
	if dataset == "" {
		dataset = DatasetHTA
	}
	url := fmt.Sprintf(
		"%s?rows=1000&format=json&geo_simplify=true&geo_simplify_zoom=14"+
			"&geofilter.bbox=%f,%f,%f,%f&fields=geo_shape&dataset=%s",
		f.enedisURL, city.MinLat, city.MinLon, city.MaxLat, city.MaxLon, dataset)

	body, err := f.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("enedis %s: %w", dataset, err)
	}

	lines, err := DecodeNetworkRecords(body)
	if err != nil {
		return nil, fmt.Errorf("enedis %s: %w", dataset, err)
	}
	return lines, nil
}

// DecodeNetworkRecords extracts the LineString geometries from an Enedis
// records payload. Records without a geo_shape, or with a non-LineString
// shape, are ignored.
func DecodeNetworkRecords(body []byte) ([]orb.LineString, error) {
	var records []enedisRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("parsing records: %w", err)
	}

	lines := make([]orb.LineString, 0, len(records))
	for _, rec := range records {
		shape := rec.Fields.GeoShape
		if shape.Type != "LineString" || len(shape.Coordinates) < 2 {
			continue
		}
		line := make(orb.LineString, 0, len(shape.Coordinates))
		for _, c := range shape.Coordinates {
			if len(c) < 2 {
				continue
			}
			line = append(line, orb.Point{c[0], c[1]})
		}
		if len(line) >= 2 {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
