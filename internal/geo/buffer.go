package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-geos"
)

// Number of segments per quarter circle when polygonizing buffer arcs.
const bufferQuadSegs = 8

// ToGeos converts an orb geometry into a GEOS geometry via its GeoJSON
// encoding.
func ToGeos(g orb.Geometry) (*geos.Geom, error) {
	data, err := geojson.NewGeometry(g).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding geometry: %w", err)
	}
	geom, err := geos.NewGeomFromGeoJSON(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing geometry: %w", err)
	}
	return geom, nil
}

// PointBuffer returns the circular buffer of radiusDegrees around center.
func PointBuffer(center orb.Point, radiusDegrees float64) (*geos.Geom, error) {
	pt, err := ToGeos(center)
	if err != nil {
		return nil, err
	}
	defer pt.Destroy()

	return pt.Buffer(radiusDegrees, bufferQuadSegs), nil
}

// LineNetworkBuffer buffers every line at radiusDegrees and unions the
// results into a single region. The union covers every individual line
// buffer, overlapping or not.
//
// An empty line set returns nil, meaning "no constraint" rather than "an
// empty region". Callers that treat the buffer as a mandatory criterion must
// check for nil themselves.
func LineNetworkBuffer(lines []orb.LineString, radiusDegrees float64) (*geos.Geom, error) {
	var region *geos.Geom

	for i, line := range lines {
		g, err := ToGeos(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		buf := g.Buffer(radiusDegrees, bufferQuadSegs)
		g.Destroy()

		if region == nil {
			region = buf
			continue
		}
		merged := region.Union(buf)
		region.Destroy()
		buf.Destroy()
		region = merged
	}

	return region, nil
}
