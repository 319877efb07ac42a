// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

package trip

import (
	"errors"
	"sort"

	"github.com/croftwerk/tripmark/internal/geo"
)

// ErrIndexOutOfRange is returned when a collection is accessed outside its
// current bounds. Callers that source indices from the same collection should
// treat it as a programming error.
var ErrIndexOutOfRange = errors.New("trip index out of range")

// Collection is an ordered, in-memory list of saved trips in insertion order.
// Duplicate coordinates and names are permitted. A Collection is owned by a
// single session controller and is not safe for concurrent use.
type Collection struct {
	trips []Trip
}

// NewCollection returns an empty Collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Add appends a trip to the collection.
func (c *Collection) Add(t Trip) {
	c.trips = append(c.trips, t)
}

// RemoveAt removes the trip at the given position, shifting subsequent trips
// down. The collection is left untouched if the index is out of bounds.
func (c *Collection) RemoveAt(index int) error {
	if index < 0 || index >= len(c.trips) {
		return ErrIndexOutOfRange
	}
	c.trips = append(c.trips[:index], c.trips[index+1:]...)
	return nil
}

// SortByDistanceFrom stable-sorts the collection ascending by great-circle
// distance between the reference point and each trip. Ties keep their relative
// order, so repeated sorts against the same reference are idempotent.
func (c *Collection) SortByDistanceFrom(ref geo.Coordinate) {
	sort.SliceStable(c.trips, func(i, j int) bool {
		return ref.DistanceTo(c.trips[i].Coordinates) < ref.DistanceTo(c.trips[j].Coordinates)
	})
}

// Len returns the number of saved trips.
func (c *Collection) Len() int {
	return len(c.trips)
}

// At returns the trip at the given position.
func (c *Collection) At(index int) (Trip, error) {
	if index < 0 || index >= len(c.trips) {
		return Trip{}, ErrIndexOutOfRange
	}
	return c.trips[index], nil
}

// Trips returns a copy of the current trip list in collection order.
func (c *Collection) Trips() []Trip {
	out := make([]Trip, len(c.trips))
	copy(out, c.trips)
	return out
}
