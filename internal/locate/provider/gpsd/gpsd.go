// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

// Package gpsd implements a location source backed by a local gpsd daemon.
// It connects, waits for the first TPV report carrying at least a 2D fix and
// disconnects again.
package gpsd

import (
	"context"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/croftwerk/tripmark/internal/geo"
	"github.com/croftwerk/tripmark/internal/locate"
)

const (
	DefaultHost = "localhost"
	DefaultPort = "2947"
	FixTimeout  = time.Second * 10
	name        = "gpsd"
)

const (
	fallbackAccuracy3DFix = 10  // ~10 m typical consumer GPS in open sky
	fallbackAccuracy2DFix = 25  // worse than 3D, but still accurate enough
	fallbackAccuracyNoFix = 1e6 // effectively unusable
)

type GPSD struct {
	addr  string
	fixFn func(ctx context.Context) (Fix, error)
}

// Fix represents a single GPS fix received from gpsd.
type Fix struct {
	Lat  float64
	Lon  float64
	Alt  float64
	Acc  float64
	Mode int
}

// Has2DFix reports whether the fix has at least a 2D fix.
func (f Fix) Has2DFix() bool {
	return f.Mode >= 2
}

func New() *GPSD {
	provider := &GPSD{addr: net.JoinHostPort(DefaultHost, DefaultPort)}
	provider.fixFn = provider.firstFix
	return provider
}

func (p *GPSD) Name() string {
	return name
}

// Current waits for a positional fix from gpsd and returns its coordinates.
func (p *GPSD) Current(ctx context.Context) (geo.Coordinate, error) {
	ctx, cancel := context.WithTimeout(ctx, FixTimeout)
	defer cancel()

	fix, err := p.fixFn(ctx)
	if err != nil {
		return geo.Coordinate{}, err
	}
	if !fix.Has2DFix() {
		return geo.Coordinate{}, fmt.Errorf("gpsd reported no 2D fix")
	}

	return geo.Coordinate{
		Lat: geo.Truncate(fix.Lat, geo.TruncPrecision),
		Lon: geo.Truncate(fix.Lon, geo.TruncPrecision),
	}, nil
}

// firstFix connects to gpsd and blocks until the first usable TPV report
// arrives, the watch ends or the context runs out. An unreachable gpsd maps
// to ErrServiceDisabled.
func (p *GPSD) firstFix(ctx context.Context) (Fix, error) {
	session, err := gpsd.Dial(p.addr)
	if err != nil {
		return Fix{}, fmt.Errorf("%w: failed to connect to gpsd at %q: %s", locate.ErrServiceDisabled,
			p.addr, err)
	}

	fixes := make(chan Fix, 1)
	session.AddFilter("TPV", func(r interface{}) {
		tpv, ok := r.(*gpsd.TPVReport)
		if !ok || tpv.Mode < gpsd.Mode2D {
			return
		}
		fix := Fix{
			Lat:  tpv.Lat,
			Lon:  tpv.Lon,
			Alt:  tpv.Alt,
			Acc:  horizontalAccuracyMeters(tpv),
			Mode: int(tpv.Mode),
		}
		select {
		case fixes <- fix:
		default:
		}
	})

	// Watch() returns a channel that closes when the watch ends, e.g. on a
	// lost connection. go-gpsd has no Close(), the connection is torn down
	// when the process exits.
	done := session.Watch()

	select {
	case <-ctx.Done():
		return Fix{}, ctx.Err()
	case <-done:
		return Fix{}, fmt.Errorf("gpsd connection ended before a fix was received")
	case fix := <-fixes:
		return fix, nil
	}
}

func horizontalAccuracyMeters(tpv *gpsd.TPVReport) float64 {
	if tpv.Epx > 0 && tpv.Epy > 0 {
		// sqrt(epx² + epy²)
		return math.Hypot(tpv.Epx, tpv.Epy)
	}
	switch tpv.Mode {
	case gpsd.Mode3D:
		return fallbackAccuracy3DFix
	case gpsd.Mode2D:
		return fallbackAccuracy2DFix
	default:
		return fallbackAccuracyNoFix
	}
}
