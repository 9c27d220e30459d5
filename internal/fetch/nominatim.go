package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// CityInfo is the Nominatim view of a city: its bounding box and the
// coordinates of its urban center.
type CityInfo struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	CenterLat      float64
	CenterLon      float64
}

// nominatimResult represents a search result from Nominatim
type nominatimResult struct {
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	BoundingBox []string `json:"boundingbox"` // min_lat, max_lat, min_lon, max_lon
	DisplayName string   `json:"display_name"`
}

// CityInfo resolves a city name to its bounding box and urban center.
func (f *Fetcher) CityInfo(ctx context.Context, cityName string) (*CityInfo, error) {
	params := url.Values{}
	params.Set("q", cityName)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("polygon_geojson", "1")

	body, err := f.get(ctx, fmt.Sprintf("%s/search?%s", f.nominatimURL, params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("nominatim: %w", err)
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("nominatim: parsing response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("nominatim: no results for %q", cityName)
	}

	r := results[0]
	if len(r.BoundingBox) != 4 {
		return nil, fmt.Errorf("nominatim: malformed bounding box for %q", cityName)
	}

	info := &CityInfo{}
	coords := []*float64{&info.MinLat, &info.MaxLat, &info.MinLon, &info.MaxLon}
	for i, raw := range r.BoundingBox {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("nominatim: parsing bounding box: %w", err)
		}
		*coords[i] = v
	}
	if info.CenterLat, err = strconv.ParseFloat(r.Lat, 64); err != nil {
		return nil, fmt.Errorf("nominatim: parsing latitude: %w", err)
	}
	if info.CenterLon, err = strconv.ParseFloat(r.Lon, 64); err != nil {
		return nil, fmt.Errorf("nominatim: parsing longitude: %w", err)
	}

	return info, nil
}
