// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

// Package locate abstracts the device-location sources the trip list uses as
// reference position. Sources are one-shot: a caller asks for the current
// position and gets a coordinate or an error, classification of which is done
// through the exported sentinels.
package locate

import (
	"context"
	"errors"
	"fmt"

	"github.com/croftwerk/tripmark/internal/geo"
	"github.com/croftwerk/tripmark/internal/logger"
)

var (
	// ErrPermissionDenied indicates the location service refused access. The
	// user can retry after granting permission.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrPermissionDeniedForever indicates access is permanently refused and
	// can only be restored through the system settings. No built-in source
	// currently reports a denial as permanent; the error is part of the
	// Source contract so that sources which can make the distinction
	// short-circuit the chain.
	ErrPermissionDeniedForever = errors.New("location permission permanently denied")
	// ErrServiceDisabled indicates the location service is not available on
	// this system.
	ErrServiceDisabled = errors.New("location service is disabled")
	// ErrNoPosition indicates that no configured source could provide a
	// usable position.
	ErrNoPosition = errors.New("no location source provided a position")
)

// Source provides the device's current position.
type Source interface {
	Name() string
	Current(ctx context.Context) (geo.Coordinate, error)
}

// Chain queries its sources in configuration order and returns the first
// usable position. A permanent permission denial short-circuits the chain, as
// no further source is allowed to succeed either.
type Chain struct {
	logger  *logger.Logger
	sources []Source
}

func NewChain(logger *logger.Logger, sources ...Source) *Chain {
	return &Chain{
		logger:  logger,
		sources: sources,
	}
}

func (c *Chain) Name() string {
	return "chain"
}

// Current implements the Source interface on the chain itself. Errors of the
// individual sources are collected and returned joined with ErrNoPosition
// when every source failed.
func (c *Chain) Current(ctx context.Context) (geo.Coordinate, error) {
	var errs []error

	if len(c.sources) == 0 {
		return geo.Coordinate{}, fmt.Errorf("%w: no sources configured", ErrNoPosition)
	}
	for _, source := range c.sources {
		if ctx.Err() != nil {
			return geo.Coordinate{}, ctx.Err()
		}

		coords, err := source.Current(ctx)
		if err != nil {
			if errors.Is(err, ErrPermissionDeniedForever) {
				return geo.Coordinate{}, fmt.Errorf("source %s: %w", source.Name(), err)
			}
			c.logger.Warn("location source failed", "source", source.Name(), logger.Err(err))
			errs = append(errs, fmt.Errorf("source %s: %w", source.Name(), err))
			continue
		}
		if !coords.Valid() {
			c.logger.Warn("location source returned invalid coordinates", "source", source.Name(),
				"coordinates", coords)
			errs = append(errs, fmt.Errorf("source %s: invalid coordinates: %s", source.Name(), coords))
			continue
		}

		c.logger.Debug("position acquired", "source", source.Name(), "coordinates", coords)
		return coords, nil
	}

	return geo.Coordinate{}, errors.Join(append([]error{ErrNoPosition}, errs...)...)
}
