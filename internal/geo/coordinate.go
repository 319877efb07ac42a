// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

// Package geo provides geographic coordinate primitives and great-circle math.
package geo

import (
	"fmt"
	"math"
)

const (
	// EarthRadiusKm is the mean earth radius in kilometers.
	EarthRadiusKm = 6371.0
	// TruncPrecision is the default precision for coordinate truncation.
	TruncPrecision = 4
)

// Coordinate represents a geographic coordinate in floating point degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Valid checks if the coordinate is valid according to the EPSG logic. NaN and
// infinite values are rejected.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// DistanceTo returns the great-circle distance between two coordinates in kilometers.
// We are using the Haversine formula to calculate the distance between two points on
// a sphere (in our case: Earth). Altitude is not considered.
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLon := (other.Lon - c.Lon) * math.Pi / 180
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// String renders the coordinate as a "lat, lon" pair with six decimal places.
func (c Coordinate) String() string {
	return fmt.Sprintf("%f, %f", c.Lat, c.Lon)
}

// Truncate cuts off a float at the given number of decimal places without rounding.
func Truncate(x float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Trunc(x*p) / p
}
