// Package geo holds the spherical geometry used for radius queries.
package geo

import "math"

// EarthRadiusMeters is the sphere radius used for all distance math.
const EarthRadiusMeters = 6378100.0

// ValidLatLng reports whether the pair is a valid WGS84 coordinate.
func ValidLatLng(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ValidLngLat validates a GeoJSON [lng, lat] pair.
func ValidLngLat(coords []float64) bool {
	return len(coords) == 2 && ValidLatLng(coords[1], coords[0])
}

// Distance returns the great-circle distance in meters.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	φ1 := radians(lat1)
	φ2 := radians(lat2)
	dφ := radians(lat2 - lat1)
	dλ := radians(lng2 - lng1)

	a := math.Sin(dφ/2)*math.Sin(dφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(dλ/2)*math.Sin(dλ/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// BoundingBox is a lat/lng rectangle that contains a search circle.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoundsAround returns a box enclosing every point within radius meters of
// (lat, lng). Near the poles or across the antimeridian the longitude span
// widens to the full range.
func BoundsAround(lat, lng, radius float64) BoundingBox {
	dLat := degrees(radius / EarthRadiusMeters)

	box := BoundingBox{
		MinLat: math.Max(lat-dLat, -90),
		MaxLat: math.Min(lat+dLat, 90),
		MinLng: -180,
		MaxLng: 180,
	}
	if box.MinLat <= -90 || box.MaxLat >= 90 {
		return box
	}

	dLng := degrees(math.Asin(math.Min(1, math.Sin(radius/EarthRadiusMeters)/math.Cos(radians(lat)))))
	if lng-dLng < -180 || lng+dLng > 180 {
		return box
	}
	box.MinLng = lng - dLng
	box.MaxLng = lng + dLng
	return box
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
