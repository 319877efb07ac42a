// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/croftwerk/tripmark/internal/geo"
)

const (
	testHitTTL  = 200 * time.Millisecond
	testMissTTL = 200 * time.Millisecond
)

var testCoords = geo.Coordinate{Lat: 52.5129, Lon: 13.3910}

var testPayload = Payload{
	Found:       true,
	DisplayName: "Quartier 205, Friedrichstraße 67, 10117 Berlin, Germany",
	Name:        "Quartier 205",
	Address: PayloadAddress{
		Road:        "Friedrichstraße",
		HouseNumber: "67",
		City:        "Berlin",
		State:       "Berlin",
		Postcode:    "10117",
		Country:     "Germany",
	},
}

type mockCoder struct {
	calls atomic.Int64
}

func (c *mockCoder) Name() string { return "mock" }

func (c *mockCoder) Reverse(_ context.Context, coords geo.Coordinate) (Payload, error) {
	c.calls.Add(1)
	if coords.Lat == 1 && coords.Lon == -1 {
		return Payload{}, errors.New("lookup intentionally failed")
	}
	payload := testPayload
	payload.Lat = coords.Lat
	payload.Lon = coords.Lon
	if coords.Lat != testCoords.Lat || coords.Lon != testCoords.Lon {
		payload.Found = false
	}
	return payload, nil
}

func TestNewCachedGeocoder(t *testing.T) {
	t.Run("a new geocoder should be returned", func(t *testing.T) {
		coder := NewCachedGeocoder(&mockCoder{}, testHitTTL, testMissTTL)
		if coder == nil {
			t.Fatal("expected a non-nil geocoder")
		}
		if coder.Name() != "geocoder cache using mock" {
			t.Errorf("expected geocoder name to be 'geocoder cache using mock', got %q", coder.Name())
		}
	})
}

func TestCachedGeocoder_Reverse(t *testing.T) {
	t.Run("first lookup misses the cache, second hits", func(t *testing.T) {
		mock := &mockCoder{}
		coder := NewCachedGeocoder(mock, testHitTTL, testMissTTL)

		payload, err := coder.Reverse(t.Context(), testCoords)
		if err != nil {
			t.Fatal(err)
		}
		if !payload.Found {
			t.Fatal("expected address to be found")
		}
		if payload.CacheHit {
			t.Fatal("expected cache miss")
		}
		if !strings.EqualFold(payload.DisplayName, testPayload.DisplayName) {
			t.Errorf("expected display name to be %q, got %q", testPayload.DisplayName, payload.DisplayName)
		}

		payload, err = coder.Reverse(t.Context(), testCoords)
		if err != nil {
			t.Fatal(err)
		}
		if !payload.CacheHit {
			t.Error("expected cache hit")
		}
		if calls := mock.calls.Load(); calls != 1 {
			t.Errorf("expected provider to be consulted once, got %d calls", calls)
		}
	})
	t.Run("cache entries expire after their TTL", func(t *testing.T) {
		mock := &mockCoder{}
		coder := NewCachedGeocoder(mock, testHitTTL, testMissTTL)

		if _, err := coder.Reverse(t.Context(), testCoords); err != nil {
			t.Fatal(err)
		}
		time.Sleep(testHitTTL + 50*time.Millisecond)
		payload, err := coder.Reverse(t.Context(), testCoords)
		if err != nil {
			t.Fatal(err)
		}
		if payload.CacheHit {
			t.Error("expected cache entry to have expired")
		}
		if calls := mock.calls.Load(); calls != 2 {
			t.Errorf("expected provider to be consulted twice, got %d calls", calls)
		}
	})
	t.Run("unresolved lookups are cached as well", func(t *testing.T) {
		mock := &mockCoder{}
		coder := NewCachedGeocoder(mock, testHitTTL, testMissTTL)
		missCoords := geo.Coordinate{Lat: 0.001, Lon: 0.001}

		payload, err := coder.Reverse(t.Context(), missCoords)
		if err != nil {
			t.Fatal(err)
		}
		if payload.Found {
			t.Fatal("expected address to not be found")
		}
		payload, err = coder.Reverse(t.Context(), missCoords)
		if err != nil {
			t.Fatal(err)
		}
		if !payload.CacheHit {
			t.Error("expected cache hit for unresolved lookup")
		}
	})
	t.Run("provider errors are not cached", func(t *testing.T) {
		mock := &mockCoder{}
		coder := NewCachedGeocoder(mock, testHitTTL, testMissTTL)
		failCoords := geo.Coordinate{Lat: 1, Lon: -1}

		if _, err := coder.Reverse(t.Context(), failCoords); err == nil {
			t.Fatal("expected lookup to fail")
		}
		if _, err := coder.Reverse(t.Context(), failCoords); err == nil {
			t.Fatal("expected lookup to fail again")
		}
		if calls := mock.calls.Load(); calls != 2 {
			t.Errorf("expected provider to be consulted twice, got %d calls", calls)
		}
	})
	t.Run("nearby coordinates share a cache entry", func(t *testing.T) {
		mock := &mockCoder{}
		coder := NewCachedGeocoder(mock, testHitTTL, testMissTTL)

		if _, err := coder.Reverse(t.Context(), testCoords); err != nil {
			t.Fatal(err)
		}
		nearby := geo.Coordinate{Lat: testCoords.Lat + 0.001, Lon: testCoords.Lon - 0.001}
		payload, err := coder.Reverse(t.Context(), nearby)
		if err != nil {
			t.Fatal(err)
		}
		if !payload.CacheHit {
			t.Error("expected quantized coordinates to hit the cache")
		}
	})
}
