// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

// Package trip holds the saved-location record and the session-scoped
// collection of saved trips.
package trip

import (
	"strings"

	"github.com/croftwerk/tripmark/internal/geo"
	"github.com/croftwerk/tripmark/internal/geocode"
)

// FallbackCity is the city label given to trips saved without a resolved address.
const FallbackCity = "Not identified"

// Trip is an immutable saved location. It is constructed once, either from a
// resolved geocoding payload or from a manual-entry fallback, and never
// modified afterwards. Coordinates are always present and valid; all textual
// fields default to the empty string.
type Trip struct {
	Coordinates  geo.Coordinate
	Name         string
	Address      string
	City         string
	State        string
	Country      string
	Zip          string
	Neighborhood string
	Reference    string
}

// FromPayload builds a Trip from a raw geocoding payload and a user-chosen
// display name. Field mapping applies a deterministic fallback order; provider
// values are accepted as-is without validation.
func FromPayload(coords geo.Coordinate, name string, payload geocode.Payload) Trip {
	return Trip{
		Coordinates:  coords,
		Name:         name,
		Address:      joinAddress(payload.Address.Road, payload.Address.HouseNumber),
		City:         firstOf(payload.Address.City, payload.Address.Town, payload.Address.Village),
		State:        payload.Address.State,
		Country:      payload.Address.Country,
		Zip:          payload.Address.Postcode,
		Neighborhood: firstOf(payload.Address.Suburb, payload.Address.Neighbourhood),
		Reference:    firstOf(payload.Address.Amenity, payload.Address.Building),
	}
}

// Manual builds a degraded Trip for a location the geocoder could not resolve.
// The address is the raw coordinate pair and the city is marked as unidentified.
func Manual(coords geo.Coordinate, name string) Trip {
	return Trip{
		Coordinates: coords,
		Name:        name,
		Address:     "Coordinates: " + coords.String(),
		City:        FallbackCity,
	}
}

// joinAddress joins road and house number comma-separated, skipping empty parts.
func joinAddress(road, houseNumber string) string {
	parts := make([]string, 0, 2)
	if v := strings.TrimSpace(road); v != "" {
		parts = append(parts, v)
	}
	if v := strings.TrimSpace(houseNumber); v != "" {
		parts = append(parts, v)
	}
	return strings.Join(parts, ", ")
}

// firstOf returns the first non-empty value.
func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
