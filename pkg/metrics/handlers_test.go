// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring/prometheus"
)

func TestMetricsEndpoint(t *testing.T) {
	logger := logging.NewNoopLogger()
	monitor := prometheus.NewMonitor("customer-portal-test", logger)

	if err := monitor.SetActiveVisitors(3); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	mux := chi.NewMux()
	NewAPI(logger).RegisterEndpoints(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/metrics", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	if !strings.Contains(w.Body.String(), `portal_active_visitors{service="customer-portal-test"} 3`) {
		t.Errorf("expected active visitors gauge in output")
	}
}
