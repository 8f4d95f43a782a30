package geo

import "math"

// earthRadiusMeters is the mean Earth radius used for great-circle math.
const earthRadiusMeters = 6371000

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DistanceMeters returns the haversine great-circle distance between two
// coordinates in meters. Pure; defined for any pair of finite inputs.
func DistanceMeters(a, b Coordinate) float64 {
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(radians(a.Latitude))*math.Cos(radians(b.Latitude))*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

func radians(deg float64) float64 {
	return deg * (math.Pi / 180)
}
