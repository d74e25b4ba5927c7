// Package geo provides great-circle distance math for comparable searches.
package geo

import "math"

// Mean Earth radius in statute miles. All distances in the appeal domain are
// expressed in miles because assessment notices and filing guidance use them.
const earthRadiusMiles = 3959.0

// DistanceMiles returns the haversine great-circle distance in miles between
// two lat/lon points.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0
	lat1R := lat1 * math.Pi / 180.0
	lat2R := lat2 * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1R)*math.Cos(lat2R)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

// RoundMiles rounds a distance to the two-decimal precision stored on
// comparables.
func RoundMiles(d float64) float64 {
	return math.Round(d*100) / 100
}
