// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

// Package nominatim implements the reverse-geocoding provider for the OSM
// Nominatim API. Nominatim requires an identifying User-Agent, which the
// shared HTTP client sends with every request.
package nominatim

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"github.com/croftwerk/tripmark/internal/geo"
	"github.com/croftwerk/tripmark/internal/geocode"
	"github.com/croftwerk/tripmark/internal/http"
)

const (
	APIReverseEndpoint = "https://nominatim.openstreetmap.org/reverse"
	APITimeout         = time.Second * 10
	name               = "osm-nominatim"
)

type Nominatim struct {
	http *http.Client
	lang language.Tag
}

// ReverseResult is shaped for the Nominatim jsonv2 reverse response. Lookups
// the API cannot resolve come back as HTTP 200 with an error field instead of
// an address.
type ReverseResult struct {
	APILat      string                 `json:"lat"`
	APILon      string                 `json:"lon"`
	Name        string                 `json:"name"`
	DisplayName string                 `json:"display_name"`
	Error       string                 `json:"error"`
	Address     geocode.PayloadAddress `json:"address"`
}

func New(client *http.Client, lang language.Tag) *Nominatim {
	return &Nominatim{
		lang: lang,
		http: client,
	}
}

func (n *Nominatim) Name() string {
	return name
}

// Reverse resolves the given coordinates into a raw address payload. Any
// non-200 response, transport error or undecodable body fails the lookup; no
// retry is attempted.
func (n *Nominatim) Reverse(ctx context.Context, coords geo.Coordinate) (geocode.Payload, error) {
	var result ReverseResult
	var err error

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", fmt.Sprintf("%f", coords.Lat))
	query.Set("lon", fmt.Sprintf("%f", coords.Lon))
	query.Set("accept-language", n.lang.String())

	code, err := n.http.GetWithTimeout(ctx, APIReverseEndpoint, &result, query, nil, APITimeout)
	if err != nil {
		return geocode.Payload{}, fmt.Errorf("failed to fetch reverse address details from Nominatim API: %w", err)
	}
	if code != stdhttp.StatusOK {
		return geocode.Payload{}, fmt.Errorf("Nominatim API responded with unexpected status code: %d", code)
	}
	if result.Error != "" {
		return geocode.Payload{}, nil
	}

	// Fill the geocode.Payload struct
	payload := geocode.Payload{
		Found:       true,
		Name:        result.Name,
		DisplayName: result.DisplayName,
		Address:     result.Address,
	}
	payload.Lat, err = strconv.ParseFloat(result.APILat, 64)
	if err != nil {
		return geocode.Payload{}, fmt.Errorf("failed to parse latitude from Nominatim API response: %w", err)
	}
	payload.Lon, err = strconv.ParseFloat(result.APILon, 64)
	if err != nil {
		return geocode.Payload{}, fmt.Errorf("failed to parse longitude from Nominatim API response: %w", err)
	}

	return payload, nil
}
