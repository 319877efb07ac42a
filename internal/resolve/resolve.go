// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

// Package resolve implements the location-to-trip resolution pipeline as an
// explicit state machine. The pipeline is driven by discrete events
// (confirm, cancel, submit) and carries no presentation logic, so any front
// end can drive it and tests can run it headless.
package resolve

import (
	"context"
	"errors"

	"github.com/croftwerk/tripmark/internal/geo"
	"github.com/croftwerk/tripmark/internal/geocode"
	"github.com/croftwerk/tripmark/internal/trip"
)

// DefaultName is suggested when the geocoding payload offers no usable label.
const DefaultName = "New Location"

var (
	// ErrInvalidTransition is returned when an event is not legal in the
	// pipeline's current state.
	ErrInvalidTransition = errors.New("event not valid in current pipeline state")
	// ErrEmptyName is returned when a manual entry is submitted without a name.
	ErrEmptyName = errors.New("a name is required for a manually entered trip")
)

// State is the current position of a Resolution in its lifecycle.
type State int

const (
	// StatePending is the initial state while the geocoder is consulted.
	StatePending State = iota
	// StateAwaitingConfirmation holds a resolved payload pending user confirmation.
	StateAwaitingConfirmation
	// StateManualEntry is the fallback after a failed geocode lookup.
	StateManualEntry
	// StateDone is terminal; exactly one record has been produced.
	StateDone
	// StateAborted is terminal; no record has been produced.
	StateAborted
)

// String satisfies the fmt.Stringer interface for the State type
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAwaitingConfirmation:
		return "awaiting confirmation"
	case StateManualEntry:
		return "manual entry"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Resolution is a single add-location request working its way from raw
// coordinates to a saved trip. A Resolution reaches exactly one of two
// terminal states: Done with exactly one record, or Aborted with none.
type Resolution struct {
	state   State
	coords  geo.Coordinate
	payload geocode.Payload
	record  trip.Trip
}

// Begin starts a resolution for the given coordinates by consulting the
// geocoder. A resolved payload moves the pipeline to AwaitingConfirmation;
// any lookup failure moves it to ManualEntry without surfacing the error. A
// cancelled context aborts the resolution instead.
func Begin(ctx context.Context, coder geocode.Geocoder, coords geo.Coordinate) *Resolution {
	res := &Resolution{state: StatePending, coords: coords}

	payload, err := coder.Reverse(ctx, coords)
	if ctx.Err() != nil {
		res.state = StateAborted
		return res
	}
	if err != nil || !payload.Found {
		res.state = StateManualEntry
		return res
	}

	res.payload = payload
	res.state = StateAwaitingConfirmation
	return res
}

// State returns the pipeline's current state.
func (r *Resolution) State() State {
	return r.state
}

// Coordinates returns the coordinates this resolution was started with.
func (r *Resolution) Coordinates() geo.Coordinate {
	return r.coords
}

// SuggestedName returns the display name offered for confirmation: the
// payload name, else the payload's amenity, else a generic default.
func (r *Resolution) SuggestedName() string {
	if r.payload.Name != "" {
		return r.payload.Name
	}
	if r.payload.Address.Amenity != "" {
		return r.payload.Address.Amenity
	}
	return DefaultName
}

// DisplayName returns the payload's full display string for the
// confirmation prompt.
func (r *Resolution) DisplayName() string {
	return r.payload.DisplayName
}

// Confirm accepts the resolved payload under the given name and produces the
// record. An empty name keeps the suggested one. Only legal in
// AwaitingConfirmation.
func (r *Resolution) Confirm(name string) error {
	if r.state != StateAwaitingConfirmation {
		return ErrInvalidTransition
	}
	if name == "" {
		name = r.SuggestedName()
	}
	r.record = trip.FromPayload(r.coords, name, r.payload)
	r.state = StateDone
	return nil
}

// SubmitName completes a manual entry with the given name, producing a
// degraded record. Only legal in ManualEntry.
func (r *Resolution) SubmitName(name string) error {
	if r.state != StateManualEntry {
		return ErrInvalidTransition
	}
	if name == "" {
		return ErrEmptyName
	}
	r.record = trip.Manual(r.coords, name)
	r.state = StateDone
	return nil
}

// Cancel aborts the resolution. Legal at both user-facing suspension points;
// nothing is emitted and nothing can be emitted afterwards.
func (r *Resolution) Cancel() error {
	switch r.state {
	case StateAwaitingConfirmation, StateManualEntry:
		r.state = StateAborted
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Record returns the produced trip record. Only legal in Done.
func (r *Resolution) Record() (trip.Trip, error) {
	if r.state != StateDone {
		return trip.Trip{}, ErrInvalidTransition
	}
	return r.record, nil
}
