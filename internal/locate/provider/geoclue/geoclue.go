// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

// Package geoclue implements a location source backed by the GeoClue2 D-Bus
// service. GeoClue2 requires an authorizing agent on the session bus; without
// one the service never grants a client, so the source checks for the agent
// first and reports the service as disabled if none is registered.
package geoclue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/maltegrosse/go-geoclue2"

	"github.com/croftwerk/tripmark/internal/geo"
	"github.com/croftwerk/tripmark/internal/locate"
)

const (
	DBusListNamesAddress = "org.freedesktop.DBus.ListNames"
	AgentDBusName        = "org.freedesktop.GeoClue2.DemoAgent"
	DesktopID            = "tripmark"
	name                 = "geoclue"

	dbusAccessDenied = "org.freedesktop.DBus.Error.AccessDenied"
	fixPollInterval  = time.Millisecond * 500
)

// ErrLocationNotAccurate is returned when GeoClue2 cannot provide at least
// city-level accuracy.
var ErrLocationNotAccurate = errors.New("location service is not accurate enough")

type GeoClue struct {
	agentFn    func(ctx context.Context) (bool, error)
	registerFn func() (geoclue2.GeoclueClient, error)
}

func New() *GeoClue {
	return &GeoClue{
		agentFn:    agentIsRunning,
		registerFn: register,
	}
}

func (p *GeoClue) Name() string {
	return name
}

// Current registers a GeoClue2 client and polls it until a location of at
// least city-level accuracy is available or the context runs out.
func (p *GeoClue) Current(ctx context.Context) (geo.Coordinate, error) {
	isRunning, err := p.agentFn(ctx)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to check for GeoClue2 agent: %w", err)
	}
	if !isRunning {
		return geo.Coordinate{}, fmt.Errorf("%w: no GeoClue2 agent registered on the session bus",
			locate.ErrServiceDisabled)
	}

	client, err := p.registerFn()
	if err != nil {
		return geo.Coordinate{}, mapDBusError(err)
	}
	if err = client.Start(); err != nil {
		return geo.Coordinate{}, mapDBusError(err)
	}
	defer func() {
		_ = client.Stop()
	}()

	for {
		coords, err := clientLocation(client)
		if err == nil {
			return coords, nil
		}
		if !errors.Is(err, ErrLocationNotAccurate) {
			return geo.Coordinate{}, err
		}

		select {
		case <-ctx.Done():
			return geo.Coordinate{}, fmt.Errorf("%w: %s", ErrLocationNotAccurate, ctx.Err())
		case <-time.After(fixPollInterval):
		}
	}
}

func clientLocation(client geoclue2.GeoclueClient) (geo.Coordinate, error) {
	location, err := client.GetLocation()
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to get geo location: %w", err)
	}
	accuracy, err := location.GetAccuracy()
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to get geo location accuracy: %w", err)
	}
	if geoclue2.GClueAccuracyLevel(accuracy) < geoclue2.GClueAccuracyLevelCity {
		return geo.Coordinate{}, ErrLocationNotAccurate
	}

	latitude, err := location.GetLatitude()
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to get geo location latitude: %w", err)
	}
	longitude, err := location.GetLongitude()
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to get geo location longitude: %w", err)
	}

	return geo.Coordinate{
		Lat: geo.Truncate(latitude, geo.TruncPrecision),
		Lon: geo.Truncate(longitude, geo.TruncPrecision),
	}, nil
}

func register() (geoclue2.GeoclueClient, error) {
	manager, err := geoclue2.NewGeoclueManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize geoclue manager: %w", err)
	}
	client, err := manager.GetClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get geoclue client: %w", err)
	}
	if err = client.SetDesktopId(DesktopID); err != nil {
		return nil, fmt.Errorf("failed to set desktop id: %w", err)
	}
	if err = client.SetRequestedAccuracyLevel(geoclue2.GClueAccuracyLevelExact); err != nil {
		return nil, fmt.Errorf("failed to set requested accuracy level: %w", err)
	}

	return client, nil
}

func agentIsRunning(ctx context.Context) (isRunning bool, err error) {
	var list []string
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close session bus: %w", closeErr))
		}
	}()

	if err = conn.BusObject().Call(DBusListNamesAddress, 0).Store(&list); err != nil {
		return false, fmt.Errorf("failed to call DBus ListNames: %w", err)
	}

	for _, v := range list {
		if strings.EqualFold(v, AgentDBusName) {
			return true, nil
		}
	}
	return false, nil
}

// mapDBusError translates a D-Bus access denial into the permission sentinel
// the caller acts on.
func mapDBusError(err error) error {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) && dbusErr.Name == dbusAccessDenied {
		return fmt.Errorf("%w: %s", locate.ErrPermissionDenied, err)
	}
	return err
}
