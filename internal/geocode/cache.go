// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/croftwerk/tripmark/internal/geo"
)

// coordPrecision is the precision used to quantize coordinates (0.01 degrees ≈ 1.1 km)
const coordPrecision = 1e-2

type cacheKey struct {
	Provider string
	LatQ     int32
	LonQ     int32
}

type cacheEntry struct {
	Payload Payload
	Expiry  time.Time
}

// CachedGeocoder decorates another Geocoder with an in-memory cache of resolved
// payloads. Lookups that the provider answered without an address are cached
// with a separate, usually shorter, TTL.
type CachedGeocoder struct {
	coder   Geocoder
	ttlHit  time.Duration
	ttlMiss time.Duration

	mu    sync.RWMutex
	cache map[cacheKey]cacheEntry
}

// NewCachedGeocoder wraps the given Geocoder with a payload cache.
func NewCachedGeocoder(coder Geocoder, ttlHit, ttlMiss time.Duration) *CachedGeocoder {
	return &CachedGeocoder{
		coder:   coder,
		ttlHit:  ttlHit,
		ttlMiss: ttlMiss,
		cache:   make(map[cacheKey]cacheEntry),
	}
}

func (c *CachedGeocoder) Name() string {
	return "geocoder cache using " + c.coder.Name()
}

// Reverse returns the cached payload for quantized coordinates or consults the
// wrapped Geocoder on a cache miss. Provider errors are never cached.
func (c *CachedGeocoder) Reverse(ctx context.Context, coords geo.Coordinate) (Payload, error) {
	key := newKey(c.coder.Name(), coords.Lat, coords.Lon)

	c.mu.RLock()
	entry, ok := c.cache[key]
	if ok && time.Now().Before(entry.Expiry) {
		payload := entry.Payload
		c.mu.RUnlock()
		payload.CacheHit = true
		return payload, nil
	}
	c.mu.RUnlock()

	payload, err := c.coder.Reverse(ctx, coords)
	if err != nil {
		return payload, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ttl := c.ttlHit
	if !payload.Found {
		ttl = c.ttlMiss
	}
	c.cache[key] = cacheEntry{
		Payload: payload,
		Expiry:  time.Now().Add(ttl),
	}

	return payload, nil
}

func quantizeCoord(val float64) int32 {
	return int32(math.Round(val / coordPrecision))
}

func newKey(provider string, lat, lon float64) cacheKey {
	return cacheKey{
		Provider: provider,
		LatQ:     quantizeCoord(lat),
		LonQ:     quantizeCoord(lon),
	}
}
