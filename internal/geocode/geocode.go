// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

// Package geocode defines the reverse-geocoding contract and the raw address
// payload shared by all geocoding providers.
package geocode

import (
	"context"

	"github.com/croftwerk/tripmark/internal/geo"
)

// PayloadAddress holds the address portion of a reverse-geocoding payload. The
// field set follows the provider vocabulary (road, house number, the
// city/town/village triplet, suburb/neighbourhood, amenity/building); absent
// keys decode to the empty string. Interpretation of the fallback order is up
// to the consumer.
type PayloadAddress struct {
	Road          string `json:"road"`
	HouseNumber   string `json:"house_number"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	State         string `json:"state"`
	Country       string `json:"country"`
	Postcode      string `json:"postcode"`
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	Amenity       string `json:"amenity"`
	Building      string `json:"building"`
}

// Payload is the raw result of a reverse-geocoding request, normalized across
// providers but otherwise passed through as-is.
type Payload struct {
	Found       bool
	CacheHit    bool
	Lat         float64
	Lon         float64
	Name        string
	DisplayName string
	Address     PayloadAddress
}

// Geocoder converts device coordinates into a raw address payload. A failed
// request returns an error; a request the provider answered without resolving
// an address returns a Payload with Found unset.
type Geocoder interface {
	Name() string
	Reverse(ctx context.Context, coords geo.Coordinate) (Payload, error)
}
