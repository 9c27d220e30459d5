package geo

const (
	// Degrees-per-distance approximation: 1 degree ≈ 111 km ≈ 111,000 m.
	// Latitude-independent on purpose; good enough at French latitudes and
	// matches how the buffer radii have always been calibrated. Do not
	// replace with a projection without recalibrating every default radius.
	KmPerDegree     = 111.0
	MetersPerDegree = 111000.0
)

// KmToDegrees converts a kilometer radius to a degree radius.
func KmToDegrees(km float64) float64 {
	return km / KmPerDegree
}

// MetersToDegrees converts a meter radius to a degree radius.
func MetersToDegrees(m float64) float64 {
	return m / MetersPerDegree
}
