// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

package geoip

import (
	"errors"
	"io"
	"log/slog"
	stdhttp "net/http"
	"os"
	"strings"
	"testing"

	"github.com/croftwerk/tripmark/internal/http"
	"github.com/croftwerk/tripmark/internal/logger"
	"github.com/croftwerk/tripmark/internal/testhelper"
)

const testFile = "../../../../testdata/geoip_cologne.json"

func TestNew(t *testing.T) {
	t.Run("creating a new provider succeeds", func(t *testing.T) {
		provider := New(http.New(logger.New(slog.LevelError)))
		if provider == nil {
			t.Fatal("expected a non-nil provider")
		}
	})
	t.Run("provider name is correct", func(t *testing.T) {
		provider := New(http.New(logger.New(slog.LevelError)))
		if provider.Name() != name {
			t.Errorf("expected provider name to be %q, got %q", name, provider.Name())
		}
	})
}

func TestGeoIP_Current(t *testing.T) {
	t.Run("lookup succeeds", func(t *testing.T) {
		provider := testProvider(t, fileResponse(t, testFile, 200))
		coords, err := provider.Current(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		if coords.Lat != 50.9381 {
			t.Errorf("expected latitude to be %f, got %f", 50.9381, coords.Lat)
		}
		if coords.Lon != 6.9589 {
			t.Errorf("expected longitude to be %f, got %f", 6.9589, coords.Lon)
		}
	})
	t.Run("lookup fails on transport error", func(t *testing.T) {
		provider := testProvider(t, func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		})
		if _, err := provider.Current(t.Context()); err == nil {
			t.Fatal("expected lookup to fail")
		}
	})
	t.Run("lookup fails on non-200 status", func(t *testing.T) {
		provider := testProvider(t, fileResponse(t, testFile, 429))
		if _, err := provider.Current(t.Context()); err == nil {
			t.Fatal("expected lookup to fail on status 429")
		}
	})
	t.Run("lookup fails on broken JSON", func(t *testing.T) {
		provider := testProvider(t, func(req *stdhttp.Request) (*stdhttp.Response, error) {
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

func testProvider(t *testing.T, fn func(req *stdhttp.Request) (*stdhttp.Response, error)) *GeoIP {
	t.Helper()
	client := http.New(logger.New(slog.LevelError))
	client.Transport = testhelper.MockRoundTripper{Fn: fn}
	return New(client)
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
