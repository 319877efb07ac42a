// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

package wifi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	stdhttp "net/http"
	"os"
	"strings"
	"testing"

	"github.com/mdlayher/wifi"

	"github.com/croftwerk/tripmark/internal/http"
	"github.com/croftwerk/tripmark/internal/locate"
	"github.com/croftwerk/tripmark/internal/logger"
	"github.com/croftwerk/tripmark/internal/testhelper"
)

const (
	testFile = "../../../../testdata/beacondb.json"
	testLat  = 40.7185
	testLon  = -74.0025
)

func TestNew(t *testing.T) {
	t.Run("creating a new provider succeeds", func(t *testing.T) {
		testRequiresWiFi(t)
		provider, err := New(http.New(logger.New(slog.LevelError)))
		if err != nil {
			t.Fatalf("failed to create wifi provider: %s", err)
		}
		if provider == nil {
			t.Fatal("expected a non-nil provider")
		}
		if provider.Name() != name {
			t.Errorf("expected provider name to be %q, got %q", name, provider.Name())
		}
	})
	t.Run("creating a provider without http client fails", func(t *testing.T) {
		if _, err := New(nil); err == nil {
			t.Fatal("expected provider creation to fail")
		}
	})
}

func TestWifi_Current(t *testing.T) {
	networks := []WirelessNetwork{
		{LastSeen: 1200, MACAddress: "aa:bb:cc:dd:ee:ff", SignalStrength: -52},
		{LastSeen: 3400, MACAddress: "11:22:33:44:55:66", SignalStrength: -71},
	}

	t.Run("lookup succeeds", func(t *testing.T) {
		provider := testProvider(t, networks, fileResponse(t, testFile, 200))
		coords, err := provider.Current(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		if coords.Lat != testLat {
			t.Errorf("expected latitude to be %f, got %f", testLat, coords.Lat)
		}
		if coords.Lon != testLon {
			t.Errorf("expected longitude to be %f, got %f", testLon, coords.Lon)
		}
	})
	t.Run("scanned networks are submitted to the API", func(t *testing.T) {
		var submitted struct {
			ConsiderIP   bool              `json:"considerIp"`
			Accesspoints []WirelessNetwork `json:"wifiAccessPoints"`
		}
		rtFn := func(req *stdhttp.Request) (*stdhttp.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&submitted); err != nil {
				t.Fatalf("failed to decode request body: %s", err)
			}
			return fileResponse(t, testFile, 200)(req)
		}
		provider := testProvider(t, networks, rtFn)
		if _, err := provider.Current(t.Context()); err != nil {
			t.Fatal(err)
		}
		if !submitted.ConsiderIP {
			t.Error("expected request to consider the IP address")
		}
		if len(submitted.Accesspoints) != len(networks) {
			t.Fatalf("expected %d submitted access points, got %d", len(networks),
				len(submitted.Accesspoints))
		}
		if submitted.Accesspoints[0].MACAddress != networks[0].MACAddress {
			t.Errorf("expected MAC address %q, got %q", networks[0].MACAddress,
				submitted.Accesspoints[0].MACAddress)
		}
	})
	t.Run("scan failure fails the lookup", func(t *testing.T) {
		provider := testProvider(t, networks, fileResponse(t, testFile, 200))
		provider.scanFn = func(ctx context.Context) ([]WirelessNetwork, error) {
			return nil, locate.ErrServiceDisabled
		}
		if _, err := provider.Current(t.Context()); !errors.Is(err, locate.ErrServiceDisabled) {
			t.Fatalf("expected service disabled error, got: %s", err)
		}
	})
	t.Run("lookup fails on transport error", func(t *testing.T) {
		provider := testProvider(t, networks, func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		})
		if _, err := provider.Current(t.Context()); err == nil {
			t.Fatal("expected lookup to fail")
		}
	})
	t.Run("lookup fails on non-200 status", func(t *testing.T) {
		provider := testProvider(t, networks, fileResponse(t, testFile, 403))
		if _, err := provider.Current(t.Context()); err == nil {
			t.Fatal("expected lookup to fail on status 403")
		}
	})
	t.Run("lookup fails on broken JSON", func(t *testing.T) {
		provider := testProvider(t, networks, func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return &stdhttp.Response{
				StatusCode: 200,
				Body:       io.NopCloser(strings.NewReader("NOT_JSON")),
				Header:     make(stdhttp.Header),
			}, nil
		})
		if _, err := provider.Current(t.Context()); err == nil {
			t.Fatal("expected lookup to fail")
		}
	})
}

func testProvider(t *testing.T, networks []WirelessNetwork,
	fn func(req *stdhttp.Request) (*stdhttp.Response, error),
) *Wifi {
	t.Helper()
	client := http.New(logger.New(slog.LevelError))
	client.Transport = testhelper.MockRoundTripper{Fn: fn}
	return &Wifi{
		http: client,
		scanFn: func(ctx context.Context) ([]WirelessNetwork, error) {
			return networks, nil
		},
	}
}

func fileResponse(t *testing.T, file string, code int) func(req *stdhttp.Request) (*stdhttp.Response, error) {
	t.Helper()
	return func(req *stdhttp.Request) (*stdhttp.Response, error) {
		data, err := os.Open(file)
		if err != nil {
			t.Fatalf("failed to open JSON response file: %s", err)
		}

		return &stdhttp.Response{
			StatusCode: code,
			Body:       data,
			Header:     make(stdhttp.Header),
		}, nil
	}
}

func testRequiresWiFi(t *testing.T) {
	t.Helper()
	wlan, err := wifi.New()
	if err != nil {
		t.Skip("system has no WiFi support, skipping WiFi related tests")
	}

	ifaces, err := wlan.Interfaces()
	if err != nil {
		t.Skip("no WiFi interfaces found, skipping WiFi related tests")
	}
	station := false
	for _, iface := range ifaces {
		if iface.Type == wifi.InterfaceTypeStation {
			station = true
		}
	}
	if !station {
		t.Skip("no WiFi interfaces found, skipping WiFi related tests")
	}
}
