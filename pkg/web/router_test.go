// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-chi/chi/v5"

	httptypes "github.com/canonical/customer-portal/internal/http/types"
	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/pkg/authentication"
)

type fakeDB struct {
	txs int
}

func (f *fakeDB) Statement(context.Context) sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func (f *fakeDB) WithTx(ctx context.Context, fn func(context.Context) error) error {
	f.txs++
	return fn(ctx)
}

func (f *fakeDB) Ping(context.Context) error { return nil }
func (f *fakeDB) Close()                     {}

type endpoints struct {
	method, path string
}

func (e endpoints) RegisterEndpoints(mux chi.Router) {
	mux.MethodFunc(e.method, e.path, func(w http.ResponseWriter, r *http.Request) {
		userID, _ := authentication.GetUserID(r.Context())
		_ = httptypes.WriteData(w, http.StatusOK, "ok", userID)
	})
}

func TestRouter(t *testing.T) {
	logger := logging.NewNoopLogger()
	dbClient := &fakeDB{}

	router := NewRouter(
		endpoints{http.MethodGet, "/"},
		[]EndpointsInterface{endpoints{http.MethodGet, "/api/v0/me"}},
		endpoints{http.MethodPost, "/webhooks/registration"},
		authentication.NewNoopVerifier(),
		dbClient,
		[]string{"*"},
		tracing.NewNoopTracer(),
		monitoring.NewNoopMonitor("test", logger),
		logger,
	)

	tests := []struct {
		name           string
		method         string
		path           string
		token          string
		expectedStatus int
	}{
		{name: "pages are public", method: http.MethodGet, path: "/", expectedStatus: http.StatusOK},
		{name: "status is public", method: http.MethodGet, path: "/api/v0/status", expectedStatus: http.StatusOK},
		{name: "readiness", method: http.MethodGet, path: "/api/v0/ready", expectedStatus: http.StatusOK},
		{name: "api without token", method: http.MethodGet, path: "/api/v0/me", expectedStatus: http.StatusUnauthorized},
		{name: "api with token", method: http.MethodGet, path: "/api/v0/me", token: "user-1", expectedStatus: http.StatusOK},
		{name: "webhooks", method: http.MethodPost, path: "/webhooks/registration", expectedStatus: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, path: "/nowhere", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}

	if dbClient.txs != 1 {
		t.Errorf("expected the webhook to run in a transaction, got %d", dbClient.txs)
	}
}
