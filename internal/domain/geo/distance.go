// Package geo provides the pure geodesic primitives the attendance engine
// consumes: coordinate pairs and great-circle distance. No external
// dependencies and no I/O - a position goes in, meters come out.
package geo

import (
	"math"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// IsValid checks the coordinates are within WGS84 bounds.
func (p Point) IsValid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// IsZero reports whether the point is the zero value. Additional-task and
// excused records store a zero point because geofencing was bypassed.
func (p Point) IsZero() bool {
	return p.Lat == 0 && p.Lng == 0
}

// Distance returns the great-circle distance between two points in meters,
// using the haversine formula. Treated as exact for attendance purposes.
func Distance(a, b Point) float64 {
	φ1 := a.Lat * math.Pi / 180
	φ2 := b.Lat * math.Pi / 180
	Δφ := (b.Lat - a.Lat) * math.Pi / 180
	Δλ := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(Δφ/2)*math.Sin(Δφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}
