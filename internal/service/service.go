// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

// Package service implements the session controller. A Session owns the trip
// collection, the selected geocoder and the device-location chain, and keeps
// a cached reference position fresh through a background scheduler.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/vorlif/spreak"

	"github.com/croftwerk/tripmark/internal/config"
	"github.com/croftwerk/tripmark/internal/geo"
	"github.com/croftwerk/tripmark/internal/geocode"
	"github.com/croftwerk/tripmark/internal/locate"
	"github.com/croftwerk/tripmark/internal/logger"
	"github.com/croftwerk/tripmark/internal/resolve"
	"github.com/croftwerk/tripmark/internal/trip"
	"github.com/croftwerk/tripmark/internal/vartype"
)

// ErrResolutionInFlight is returned when a new location is added while a
// previous resolution has not been committed yet.
var ErrResolutionInFlight = errors.New("a location resolution is already in flight")

type Session struct {
	config    *config.Config
	logger    *logger.Logger
	localizer *spreak.Localizer
	geocoder  geocode.Geocoder
	locator   locate.Source
	scheduler gocron.Scheduler
	trips     *trip.Collection

	positionLock    sync.RWMutex
	position        vartype.Variable[geo.Coordinate]
	positionUpdated time.Time

	resolutionLock sync.Mutex
	inFlight       *resolve.Resolution
}

func New(conf *config.Config, log *logger.Logger, loc *spreak.Localizer) (*Session, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	session := &Session{
		config:    conf,
		logger:    log,
		localizer: loc,
		scheduler: scheduler,
		trips:     trip.NewCollection(),
	}
	if session.geocoder, err = session.selectGeocoder(); err != nil {
		return nil, fmt.Errorf("failed to create geocode provider: %w", err)
	}
	if session.locator, err = session.selectLocator(); err != nil {
		return nil, fmt.Errorf("failed to create location chain: %w", err)
	}
	return session, nil
}

// Run starts the background position refresh and the sleep/resume monitor and
// blocks until the context is done.
func (s *Session) Run(ctx context.Context) error {
	if err := s.createScheduledJob(ctx, s.config.Intervals.PositionRefresh, s.refreshPositionJob,
		"position_refresh_job"); err != nil {
		return err
	}
	s.scheduler.Start()
	go s.monitorSleepResume(ctx)

	<-ctx.Done()
	return s.scheduler.Shutdown()
}

// AddLocation starts the resolution pipeline for the given coordinates and
// returns it for the front end to drive. Only one resolution can be in
// flight at a time.
func (s *Session) AddLocation(ctx context.Context, coords geo.Coordinate) (*resolve.Resolution, error) {
	if !coords.Valid() {
		return nil, fmt.Errorf("invalid coordinates: %s", coords)
	}

	s.resolutionLock.Lock()
	defer s.resolutionLock.Unlock()
	if s.hasOpenResolution() {
		return nil, ErrResolutionInFlight
	}

	resolution := resolve.Begin(ctx, s.geocoder, coords)
	s.inFlight = resolution
	return resolution, nil
}

// Commit finalizes the in-flight resolution. A Done resolution appends its
// record to the collection, an Aborted one is discarded; both clear the
// in-flight slot. Committing an unfinished resolution fails and leaves the
// collection untouched.
func (s *Session) Commit(resolution *resolve.Resolution) error {
	s.resolutionLock.Lock()
	defer s.resolutionLock.Unlock()
	if resolution == nil || resolution != s.inFlight {
		return errors.New("resolution is not the in-flight resolution of this session")
	}

	switch resolution.State() {
	case resolve.StateDone:
		record, err := resolution.Record()
		if err != nil {
			return err
		}
		s.trips.Add(record)
	case resolve.StateAborted:
	default:
		return fmt.Errorf("resolution has not finished yet: %s", resolution.State())
	}

	s.inFlight = nil
	return nil
}

// Remove deletes the trip at the given zero-based index.
func (s *Session) Remove(index int) error {
	return s.trips.RemoveAt(index)
}

// Trips returns a copy of the current trip list.
func (s *Session) Trips() []trip.Trip {
	return s.trips.Trips()
}

// SortByDistance orders the trip list by ascending distance from the current
// position. When no fresh cached position exists one is acquired through the
// location chain; acquisition failure leaves the collection untouched.
func (s *Session) SortByDistance(ctx context.Context) error {
	coords, err := s.referencePosition(ctx)
	if err != nil {
		return err
	}
	s.trips.SortByDistanceFrom(coords)
	return nil
}

// CurrentPosition returns the reference position, acquiring a fresh one
// through the location chain when the cached position has gone stale.
func (s *Session) CurrentPosition(ctx context.Context) (geo.Coordinate, error) {
	return s.referencePosition(ctx)
}

// Position returns the cached reference position, its refresh time and
// whether one has been acquired yet.
func (s *Session) Position() (geo.Coordinate, time.Time, bool) {
	s.positionLock.RLock()
	defer s.positionLock.RUnlock()
	return s.position.Value(), s.positionUpdated, s.position.IsSet()
}

// hasOpenResolution reports whether the in-flight slot is taken. A finished
// but uncommitted resolution blocks the slot as well.
func (s *Session) hasOpenResolution() bool {
	return s.inFlight != nil
}

func (s *Session) referencePosition(ctx context.Context) (geo.Coordinate, error) {
	s.positionLock.RLock()
	if s.position.IsSet() && time.Since(s.positionUpdated) < s.config.Intervals.PositionRefresh {
		coords := s.position.Value()
		s.positionLock.RUnlock()
		return coords, nil
	}
	s.positionLock.RUnlock()

	return s.refreshPosition(ctx)
}

func (s *Session) refreshPosition(ctx context.Context) (geo.Coordinate, error) {
	coords, err := s.locator.Current(ctx)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to acquire reference position: %w", err)
	}

	s.positionLock.Lock()
	s.position.Set(coords)
	s.positionUpdated = time.Now()
	s.positionLock.Unlock()
	s.logger.Debug("reference position updated", "coordinates", coords)

	return coords, nil
}

func (s *Session) refreshPositionJob(ctx context.Context) {
	if _, err := s.refreshPosition(ctx); err != nil {
		s.logger.Warn("scheduled position refresh failed", logger.Err(err))
	}
}

func (s *Session) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string,
) error {
	// Jitter the interval slightly so periodic lookups do not hammer the
	// location backends in lockstep with other clients.
	_, err := s.scheduler.NewJob(
		gocron.DurationRandomJob(interval, interval+interval/10),
		gocron.NewTask(task),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}
