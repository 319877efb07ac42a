// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

// Package wifi implements a location source that scans nearby wireless
// access points via netlink and submits them to an Ichnaea-style geolocate
// API. Networks opting out of collection (hidden or "_nomap" suffixed) are
// never submitted.
package wifi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/mdlayher/wifi"

	"github.com/croftwerk/tripmark/internal/geo"
	"github.com/croftwerk/tripmark/internal/http"
	"github.com/croftwerk/tripmark/internal/locate"
)

const (
	APIEndpoint   = "https://api.beacondb.net/v1/geolocate"
	LookupTimeout = time.Second * 5
	name          = "wifi"
)

type Wifi struct {
	http   *http.Client
	wlan   *wifi.Client
	scanFn func(ctx context.Context) ([]WirelessNetwork, error)
}

type APIResult struct {
	Location struct {
		Latitude  float64 `json:"lat"`
		Longitude float64 `json:"lng"`
	} `json:"location"`
	Accuracy float64 `json:"accuracy"`
}

type WirelessNetwork struct {
	LastSeen       int64  `json:"age"`
	MACAddress     string `json:"macAddress"`
	SignalStrength int32  `json:"signalStrength"`
}

func New(client *http.Client) (*Wifi, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	wlan, err := wifi.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create wifi client: %w", err)
	}

	provider := &Wifi{
		http: client,
		wlan: wlan,
	}
	provider.scanFn = provider.accessPoints
	return provider, nil
}

func (p *Wifi) Name() string {
	return name
}

// Current scans the visible access points and resolves them into a position.
// A system without usable station interfaces maps to ErrServiceDisabled.
func (p *Wifi) Current(ctx context.Context) (geo.Coordinate, error) {
	aps, err := p.scanFn(ctx)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to scan wifi access points: %w", err)
	}

	type request struct {
		ConsiderIP   bool              `json:"considerIp"`
		Accesspoints []WirelessNetwork `json:"wifiAccessPoints,omitempty"`
	}
	req := request{
		ConsiderIP:   true,
		Accesspoints: aps,
	}
	bodyBuffer := bytes.NewBuffer(nil)
	if err = json.NewEncoder(bodyBuffer).Encode(req); err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to encode wifi list to JSON: %w", err)
	}

	result := new(APIResult)
	code, err := p.http.PostWithTimeout(ctx, APIEndpoint, result, bodyBuffer,
		map[string]string{"Content-Type": "application/json"}, LookupTimeout)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to get geolocation data from API: %w", err)
	}
	if code != stdhttp.StatusOK {
		return geo.Coordinate{}, fmt.Errorf("geolocate API responded with unexpected status code: %d", code)
	}

	return geo.Coordinate{
		Lat: geo.Truncate(result.Location.Latitude, geo.TruncPrecision),
		Lon: geo.Truncate(result.Location.Longitude, geo.TruncPrecision),
	}, nil
}

func (p *Wifi) accessPoints(ctx context.Context) ([]WirelessNetwork, error) {
	var checkIfaces []*wifi.Interface
	var list []WirelessNetwork

	ifaces, err := p.wlan.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Type != wifi.InterfaceTypeStation {
			continue
		}
		checkIfaces = append(checkIfaces, iface)
	}
	if len(checkIfaces) == 0 {
		return nil, locate.ErrServiceDisabled
	}

	for _, iface := range checkIfaces {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		aps, err := p.wlan.AccessPoints(iface)
		if err != nil {
			continue
		}
		for _, ap := range aps {
			if ap.SSID == "" || ap.SSID[0] == '\x00' || strings.HasSuffix(ap.SSID, "_nomap") {
				continue
			}
			list = append(list, WirelessNetwork{
				SignalStrength: ap.Signal / 100,
				MACAddress:     ap.BSSID.String(),
				LastSeen:       ap.LastSeen.Milliseconds(),
			})
		}
	}

	return list, nil
}
