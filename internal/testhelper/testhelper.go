// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

// Package testhelper provides shared helpers for the test suites.
package testhelper

import (
	"net/http"
	"os"
	"testing"
)

// TestOnlineAPIURL is an endpoint that tests can use for live HTTP requests.
const TestOnlineAPIURL = "https://nominatim.openstreetmap.org/status?format=json"

// integrationEnv gates tests that require network access.
const integrationEnv = "TRIPMARK_INTEGRATION_TESTS"

// MockRoundTripper satisfies http.RoundTripper with a caller-supplied function,
// so tests can fake API responses without a network connection.
type MockRoundTripper struct {
	Fn func(req *http.Request) (*http.Response, error)
}

// RoundTrip implements the http.RoundTripper interface.
func (m MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Fn(req)
}

// PerformIntegrationTests skips the calling test unless integration tests are
// explicitly enabled via the environment.
func PerformIntegrationTests(t *testing.T) {
	t.Helper()
	if os.Getenv(integrationEnv) == "" {
		t.Skipf("integration tests disabled, set %s to enable", integrationEnv)
	}
}
