// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/storage"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/internal/types"
	"github.com/canonical/customer-portal/pkg/authentication"
)

func newTestAPI(t *testing.T) (*chi.Mux, *MockStorageInterface, *MockAuthzInterface) {
	ctrl := gomock.NewController(t)

	store := NewMockStorageInterface(ctrl)
	authz := NewMockAuthzInterface(ctrl)
	logger := logging.NewNoopLogger()

	api := NewAPI(store, authz, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)

	mux := chi.NewMux()
	api.RegisterEndpoints(mux)

	return mux, store, authz
}

func serve(mux http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req = req.WithContext(authentication.WithUserID(req.Context(), userID))
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	return w
}

func TestAPIMe(t *testing.T) {
	mux, store, _ := newTestAPI(t)

	store.EXPECT().GetProfileByUserID(gomock.Any(), "user-1").Return(&types.Profile{UserID: "user-1", AccountID: "acc-1", Email: "anna@example.com"}, nil)
	store.EXPECT().ListRolesByUserID(gomock.Any(), "user-1").Return([]types.UserRole{{UserID: "user-1", AccountID: "acc-1", Role: types.RoleAccountAdmin}}, nil)

	w := serve(mux, http.MethodGet, "/api/v0/me", "user-1", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var res struct {
		Data struct {
			ID           string `json:"id"`
			Email        string `json:"email"`
			AccountID    string `json:"account_id"`
			IsSuperAdmin bool   `json:"is_super_admin"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if res.Data.ID != "user-1" || res.Data.Email != "anna@example.com" || res.Data.AccountID != "acc-1" || res.Data.IsSuperAdmin {
		t.Errorf("unexpected me %+v", res.Data)
	}
}

func TestAPIMeUnauthenticated(t *testing.T) {
	mux, _, _ := newTestAPI(t)

	if w := serve(mux, http.MethodGet, "/api/v0/me", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestAPIRPC(t *testing.T) {
	const (
		otherUser = "5b0c6d1e-8f3a-4c2b-9e7d-1a2b3c4d5e6f"
		accountID = "0d9e8f7a-6b5c-4d3e-8f1a-2b3c4d5e6f70"
	)

	tests := []struct {
		name           string
		path           string
		body           string
		setupMocks     func(*MockStorageInterface, *MockAuthzInterface)
		expectedStatus int
		expectedData   string
	}{
		{
			name: "has_role for the caller",
			path: "/api/v0/rpc/has_role",
			body: `{"account_id":"` + accountID + `","role":"account_user"}`,
			setupMocks: func(_ *MockStorageInterface, a *MockAuthzInterface) {
				a.EXPECT().HasRole(gomock.Any(), "user-1", accountID, types.RoleAccountUser).Return(true, nil)
			},
			expectedStatus: http.StatusOK,
			expectedData:   "true",
		},
		{
			name:           "has_role with an invalid role",
			path:           "/api/v0/rpc/has_role",
			body:           `{"account_id":"` + accountID + `","role":"owner"}`,
			setupMocks:     func(*MockStorageInterface, *MockAuthzInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "has_role with a malformed account",
			path:           "/api/v0/rpc/has_role",
			body:           `{"account_id":"not-a-uuid","role":"account_user"}`,
			setupMocks:     func(*MockStorageInterface, *MockAuthzInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "is_super_admin with a malformed user",
			path:           "/api/v0/rpc/is_super_admin",
			body:           `{"user_id":"user-2"}`,
			setupMocks:     func(*MockStorageInterface, *MockAuthzInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "has_role value rejected by the store",
			path: "/api/v0/rpc/has_role",
			body: `{"role":"super_admin"}`,
			setupMocks: func(_ *MockStorageInterface, a *MockAuthzInterface) {
				a.EXPECT().HasRole(gomock.Any(), "user-1", "", types.RoleSuperAdmin).Return(false, fmt.Errorf("failed to call has_role: %w", storage.ErrInvalidValue))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "get_user_account value rejected by the store",
			path: "/api/v0/rpc/get_user_account",
			body: `{}`,
			setupMocks: func(s *MockStorageInterface, _ *MockAuthzInterface) {
				s.EXPECT().GetUserAccount(gomock.Any(), "user-1").Return("", fmt.Errorf("failed to call get_user_account: %w", storage.ErrInvalidValue))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "is_super_admin of another user by a non admin",
			path: "/api/v0/rpc/is_super_admin",
			body: `{"user_id":"` + otherUser + `"}`,
			setupMocks: func(_ *MockStorageInterface, a *MockAuthzInterface) {
				a.EXPECT().IsSuperAdmin(gomock.Any(), "user-1").Return(false, nil)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "get_user_account of another user by a super admin",
			path: "/api/v0/rpc/get_user_account",
			body: `{"user_id":"` + otherUser + `"}`,
			setupMocks: func(s *MockStorageInterface, a *MockAuthzInterface) {
				a.EXPECT().IsSuperAdmin(gomock.Any(), "user-1").Return(true, nil)
				s.EXPECT().GetUserAccount(gomock.Any(), otherUser).Return(accountID, nil)
			},
			expectedStatus: http.StatusOK,
			expectedData:   `"` + accountID + `"`,
		},
		{
			name: "get_user_account without a link is null",
			path: "/api/v0/rpc/get_user_account",
			body: `{}`,
			setupMocks: func(s *MockStorageInterface, _ *MockAuthzInterface) {
				s.EXPECT().GetUserAccount(gomock.Any(), "user-1").Return("", nil)
			},
			expectedStatus: http.StatusOK,
			expectedData:   "null",
		},
		{
			name: "store failure",
			path: "/api/v0/rpc/get_user_account",
			body: `{}`,
			setupMocks: func(s *MockStorageInterface, _ *MockAuthzInterface) {
				s.EXPECT().GetUserAccount(gomock.Any(), "user-1").Return("", errors.New("timeout"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "malformed body",
			path:           "/api/v0/rpc/is_super_admin",
			body:           `{`,
			setupMocks:     func(*MockStorageInterface, *MockAuthzInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, store, authz := newTestAPI(t)
			tt.setupMocks(store, authz)

			w := serve(mux, http.MethodPost, tt.path, "user-1", tt.body)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedData == "" {
				return
			}

			var res struct {
				Data json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if string(res.Data) != tt.expectedData {
				t.Errorf("expected data %s, got %s", tt.expectedData, string(res.Data))
			}
		})
	}
}
