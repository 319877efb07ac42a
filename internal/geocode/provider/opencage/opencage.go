// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

// Package opencage implements the reverse-geocoding provider for the OpenCage
// API. It is the API-key-authenticated alternative to the Nominatim provider
// and exposes the identical contract. It is only used when explicitly selected
// in the configuration.
package opencage

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"net/url"
	"time"

	"golang.org/x/text/language"

	"github.com/croftwerk/tripmark/internal/geo"
	"github.com/croftwerk/tripmark/internal/geocode"
	"github.com/croftwerk/tripmark/internal/http"
)

const (
	APIEndpoint = "https://api.opencagedata.com/geocode/v1/json"
	APITimeout  = time.Second * 10
	name        = "opencage"
)

type OpenCage struct {
	apikey string
	http   *http.Client
	lang   language.Tag
}

type Response struct {
	Results      []Result `json:"results"`
	TotalResults int      `json:"total_results"`
}

type Result struct {
	Components  Components `json:"components"`
	DisplayName string     `json:"formatted"`
	Geometry    Geometry   `json:"geometry"`
}

type Components struct {
	Amenity       string `json:"amenity"`
	Building      string `json:"building"`
	City          string `json:"city"`
	Country       string `json:"country"`
	HouseNumber   string `json:"house_number"`
	Neighbourhood string `json:"neighbourhood"`
	Postcode      string `json:"postcode"`
	Road          string `json:"road"`
	State         string `json:"state"`
	Suburb        string `json:"suburb"`
	Town          string `json:"town"`
	Village       string `json:"village"`
}

type Geometry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

func New(client *http.Client, lang language.Tag, apikey string) *OpenCage {
	return &OpenCage{
		apikey: apikey,
		lang:   lang,
		http:   client,
	}
}

func (o *OpenCage) Name() string {
	return name
}

// Reverse resolves the given coordinates into a raw address payload via the
// OpenCage API.
func (o *OpenCage) Reverse(ctx context.Context, coords geo.Coordinate) (geocode.Payload, error) {
	var response Response

	query := url.Values{}
	query.Set("key", o.apikey)
	query.Set("q", fmt.Sprintf("%f,%f", coords.Lat, coords.Lon))
	query.Set("no_annotations", "1")
	query.Set("no_record", "1")
	query.Set("language", o.lang.String())

	code, err := o.http.GetWithTimeout(ctx, APIEndpoint, &response, query, nil, APITimeout)
	if err != nil {
		return geocode.Payload{}, fmt.Errorf("failed to retrieve address details from OpenCage API: %w", err)
	}
	if code != stdhttp.StatusOK {
		return geocode.Payload{}, fmt.Errorf("OpenCage API responded with unexpected status code: %d", code)
	}
	if response.TotalResults < 1 {
		return geocode.Payload{}, nil
	}
	if response.TotalResults != 1 {
		return geocode.Payload{}, fmt.Errorf("unambigous amount of results returned for coordinates: %d",
			response.TotalResults)
	}
	if len(response.Results) == 0 {
		return geocode.Payload{}, fmt.Errorf("malformed OpenCage response: total_results is %d but no "+
			"results present", response.TotalResults)
	}

	// Fill the geocode.Payload struct
	result := response.Results[0]
	payload := geocode.Payload{
		Found:       true,
		Lat:         result.Geometry.Lat,
		Lon:         result.Geometry.Lon,
		DisplayName: result.DisplayName,
		Address: geocode.PayloadAddress{
			Road:          result.Components.Road,
			HouseNumber:   result.Components.HouseNumber,
			City:          result.Components.City,
			Town:          result.Components.Town,
			Village:       result.Components.Village,
			State:         result.Components.State,
			Country:       result.Components.Country,
			Postcode:      result.Components.Postcode,
			Suburb:        result.Components.Suburb,
			Neighbourhood: result.Components.Neighbourhood,
			Amenity:       result.Components.Amenity,
			Building:      result.Components.Building,
		},
	}

	return payload, nil
}
