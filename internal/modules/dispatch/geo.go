// Package dispatch — geo.go contains pure geographic computation helpers.
package dispatch

import "math"

const earthRadiusMiles = 3959.0

// Miles returns the great-circle distance in miles between two points
// specified in decimal degrees, using the haversine formula on a spherical
// Earth. Symmetric, and zero for identical points.
func Miles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// rankCandidates performs an insertion sort (fine for small N, and stable so
// distance ties keep their input order) ranking by the tuple
// (available first, then distance ascending).
func rankCandidates(cs []candidate) {
	for i := 1; i < len(cs); i++ {
		key := cs[i]
		j := i - 1
		for j >= 0 && rankLess(key, cs[j]) {
			cs[j+1] = cs[j]
			j--
		}
		cs[j+1] = key
	}
}

func rankLess(a, b candidate) bool {
	if a.available != b.available {
		return a.available
	}
	return a.distance < b.distance
}
