// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"

	"github.com/croftwerk/tripmark/internal/geocode"
	"github.com/croftwerk/tripmark/internal/geocode/provider/opencage"
	nominatim "github.com/croftwerk/tripmark/internal/geocode/provider/osm-nominatim"
	"github.com/croftwerk/tripmark/internal/http"
	"github.com/croftwerk/tripmark/internal/locate"
	"github.com/croftwerk/tripmark/internal/locate/provider/geoclue"
	"github.com/croftwerk/tripmark/internal/locate/provider/geoip"
	"github.com/croftwerk/tripmark/internal/locate/provider/gpsd"
	"github.com/croftwerk/tripmark/internal/locate/provider/wifi"
	"github.com/croftwerk/tripmark/internal/logger"
)

func (s *Session) selectGeocoder() (geocode.Geocoder, error) {
	var geocoder geocode.Geocoder

	switch s.config.GeoCoder.Provider {
	case "nominatim":
		geocoder = geocode.NewCachedGeocoder(nominatim.New(http.New(s.logger), s.localizer.Language()),
			s.config.Cache.HitTTL, s.config.Cache.MissTTL)
	case "opencage":
		if s.config.GeoCoder.APIKey == "" {
			return nil, fmt.Errorf("opencage geocoder requires an API key")
		}
		geocoder = geocode.NewCachedGeocoder(opencage.New(http.New(s.logger), s.localizer.Language(),
			s.config.GeoCoder.APIKey), s.config.Cache.HitTTL, s.config.Cache.MissTTL)
	default:
		return nil, fmt.Errorf("unsupported geocoder type: %s", s.config.GeoCoder.Provider)
	}

	return geocoder, nil
}

func (s *Session) selectLocator() (locate.Source, error) {
	httpClient := http.New(s.logger)
	var sources []locate.Source

	if !s.config.Location.DisableGeoClue {
		sources = append(sources, geoclue.New())
	}

	if !s.config.Location.DisableGPSD {
		sources = append(sources, gpsd.New())
	}

	if !s.config.Location.DisableWifi {
		wlan, err := wifi.New(httpClient)
		if err != nil {
			s.logger.Error("failed to create wifi location source", logger.Err(err))
		} else {
			sources = append(sources, wlan)
		}
	}

	if !s.config.Location.DisableGeoIP {
		sources = append(sources, geoip.New(httpClient))
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no location sources enabled")
	}

	return locate.NewChain(s.logger, sources...), nil
}
