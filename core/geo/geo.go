package geo

import (
	"math"

	"github.com/swarmsync/fleetd/core/model"
)

// EarthRadiusKM is the mean Earth radius used by the haversine formula.
const EarthRadiusKM = 6371.0

// avgSpeedKMH is the assumed average truck speed used for coarse ETA
// estimates. The real route ETA comes from the routing provider.
const avgSpeedKMH = 40.0

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Haversine returns the great-circle distance in kilometers between two
// WGS84 points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dlat := radians(lat2 - lat1)
	dlng := radians(lng2 - lng1)
	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dlng/2)*math.Sin(dlng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}

// ETAMinutes converts a distance into a coarse arrival estimate, floored at
// five minutes.
func ETAMinutes(distanceKM float64) int {
	eta := int(math.Round(distanceKM / avgSpeedKMH * 60))
	if eta < 5 {
		return 5
	}
	return eta
}

// Line interpolates a straight path between two points with the given number
// of segments. Both endpoints are included.
func Line(from, to model.Position, segments int) []model.Position {
	if segments < 1 {
		segments = 1
	}
	pts := make([]model.Position, 0, segments+1)
	for i := 0; i <= segments; i++ {
		f := float64(i) / float64(segments)
		pts = append(pts, model.Position{
			Lat: from.Lat + (to.Lat-from.Lat)*f,
			Lng: from.Lng + (to.Lng-from.Lng)*f,
		})
	}
	return pts
}
