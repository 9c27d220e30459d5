package geo

import (
	"math"
)

const (
	// Earth radius in kilometers
	EarthRadiusKm = 6371.0
)

// Haversine calculates the great-circle distance between two points
// Returns distance in kilometers
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	// Convert to radians
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	// Haversine formula
	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// UrbanCenter is the reference point of a commune, as resolved by Nominatim.
type UrbanCenter struct {
	Lat float64
	Lon float64
}

// DistanceTo calculates the distance in kilometers from the urban center to
// the given point.
func (c UrbanCenter) DistanceTo(lat, lng float64) float64 {
	return Haversine(c.Lat, c.Lon, lat, lng)
}
