package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/paulmach/orb"
)

// Road classes that qualify as main axes for hub access.
const axisHighwayFilter = "motorway|trunk|primary|secondary|tertiary"

// overpassElement is one element of an Overpass response: either a way with
// node references or a node with coordinates.
type overpassElement struct {
	Type  string  `json:"type"`
	ID    int64   `json:"id"`
	Nodes []int64 `json:"nodes,omitempty"`
	Lat   float64 `json:"lat,omitempty"`
	Lon   float64 `json:"lon,omitempty"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// FetchRoadAxes downloads the main road axes inside the city bounding box
// and assembles them into line features.
func (f *Fetcher) FetchRoadAxes(ctx context.Context, city *CityInfo) ([]orb.LineString, error) {
	query := fmt.Sprintf(`
[out:json][timeout:25];
(
  way["highway"~"%s"](%f,%f,%f,%f);
);
out body;
>;
out skel qt;
`, axisHighwayFilter, city.MinLat, city.MinLon, city.MaxLat, city.MaxLon)

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", f.overpassURL, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("overpass: creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("overpass: reading response: %w", err)
	}

	return DecodeOverpassWays(body)
}

// DecodeOverpassWays turns an Overpass ways+nodes payload into line
// features. Ways referencing nodes missing from the payload keep whatever
// vertices resolved; ways with fewer than two resolved vertices are dropped.
func DecodeOverpassWays(body []byte) ([]orb.LineString, error) {
	var or overpassResponse
	if err := json.Unmarshal(body, &or); err != nil {
		return nil, fmt.Errorf("overpass: parsing response: %w", err)
	}

	coords := make(map[int64]orb.Point)
	for _, el := range or.Elements {
		if el.Type == "node" {
			coords[el.ID] = orb.Point{el.Lon, el.Lat}
		}
	}

	var lines []orb.LineString
	for _, el := range or.Elements {
		if el.Type != "way" || len(el.Nodes) < 2 {
			continue
		}
		line := make(orb.LineString, 0, len(el.Nodes))
		for _, nodeID := range el.Nodes {
			if pt, ok := coords[nodeID]; ok {
				line = append(line, pt)
			}
		}
		if len(line) >= 2 {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
