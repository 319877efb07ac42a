// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

// Package geoip implements a coarse IP-address based location source. It is
// the fallback of last resort as its accuracy rarely exceeds city level.
package geoip

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/croftwerk/tripmark/internal/geo"
	"github.com/croftwerk/tripmark/internal/http"
)

const (
	APIEndpoint   = "https://reallyfreegeoip.org/json/"
	LookupTimeout = time.Second * 5
	name          = "geoip"
)

type GeoIP struct {
	http *http.Client
}

type APIResult struct {
	IP          string  `json:"ip"`
	CountryCode string  `json:"country_code"`
	Country     string  `json:"country_name"`
	RegionCode  string  `json:"region_code,omitempty"`
	Region      string  `json:"region_name,omitempty"`
	City        string  `json:"city,omitempty"`
	ZipCode     string  `json:"zip_code,omitempty"`
	TimeZone    string  `json:"time_zone"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	MetroCode   int     `json:"metro_code"`
}

func New(client *http.Client) *GeoIP {
	return &GeoIP{http: client}
}

func (p *GeoIP) Name() string {
	return name
}

// Current resolves the device position from its public IP address.
func (p *GeoIP) Current(ctx context.Context) (geo.Coordinate, error) {
	result := new(APIResult)
	code, err := p.http.GetWithTimeout(ctx, APIEndpoint, result, nil, nil, LookupTimeout)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to get geolocation data from API: %w", err)
	}
	if code != stdhttp.StatusOK {
		return geo.Coordinate{}, fmt.Errorf("GeoIP API responded with unexpected status code: %d", code)
	}

	return geo.Coordinate{
		Lat: geo.Truncate(result.Latitude, geo.TruncPrecision),
		Lon: geo.Truncate(result.Longitude, geo.TruncPrecision),
	}, nil
}
