// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/internal/types"
	"github.com/canonical/customer-portal/pkg/session"
)

type fakeVisitor struct {
	state  session.State
	waited bool
}

func (v *fakeVisitor) Snapshot() session.State {
	return v.state
}

func (v *fakeVisitor) WaitSettled(context.Context) error {
	v.waited = true
	return nil
}

func TestMiddlewareProtect(t *testing.T) {
	admin := &types.AuthUser{
		ID:      "user-1",
		Profile: &types.Profile{AccountID: "acc-1"},
		Roles:   []types.UserRole{{AccountID: "acc-1", Role: types.RoleAccountAdmin}},
	}

	tests := []struct {
		name             string
		state            session.State
		resolveErr       error
		req              Requirement
		expectedStatus   int
		expectedLocation string
		expectedBody     string
	}{
		{
			name:           "renders for admitted users",
			state:          session.State{User: admin},
			expectedStatus: http.StatusOK,
			expectedBody:   "page user-1",
		},
		{
			name:           "placeholder while loading",
			state:          session.State{Loading: true},
			expectedStatus: http.StatusOK,
			expectedBody:   "loading",
		},
		{
			name:             "redirects anonymous visitors to sign in",
			state:            session.State{},
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/auth?redirect=%2Fcreate-ticket%3Fx%3D1",
		},
		{
			name:             "redirects unauthorized users to the dashboard",
			state:            session.State{User: admin},
			req:              Requirement{RequiresSuperAdmin: true},
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/dashboard",
		},
		{
			name:           "resolver failure",
			resolveErr:     errors.New("bad cookie"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := logging.NewNoopLogger()
			visitor := &fakeVisitor{state: tt.state}

			resolve := func(*http.Request) (VisitorInterface, error) {
				if tt.resolveErr != nil {
					return nil, tt.resolveErr
				}
				return visitor, nil
			}

			placeholder := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("loading"))
			})

			page := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				s, ok := StateFromContext(r.Context())
				if !ok {
					t.Fatalf("expected state in request context")
				}
				_, _ = w.Write([]byte("page " + s.User.ID))
			})

			m := NewMiddleware(resolve, placeholder, time.Second, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)

			req := httptest.NewRequest(http.MethodGet, "/create-ticket?x=1", nil)
			w := httptest.NewRecorder()

			m.Protect(tt.req)(page).ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if loc := w.Header().Get("Location"); loc != tt.expectedLocation {
				t.Errorf("expected location %q, got %q", tt.expectedLocation, loc)
			}

			if tt.expectedBody != "" && w.Body.String() != tt.expectedBody {
				t.Errorf("expected body %q, got %q", tt.expectedBody, w.Body.String())
			}

			if tt.resolveErr == nil && !visitor.waited {
				t.Errorf("expected the gate to wait for the visitor to settle")
			}
		})
	}
}
