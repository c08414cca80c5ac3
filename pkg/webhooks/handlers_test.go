// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	httptypes "github.com/canonical/customer-portal/internal/http/types"
	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/storage"
)

func TestAPI_Registration(t *testing.T) {
	payload := `{"id":"identity-123","traits":{"email":"anna@example.com","name":{"first":"Anna","last":"Svensson"}}}`

	tests := []struct {
		name           string
		apiKey         string
		header         string
		body           string
		setupMocks     func(*MockServiceInterface)
		expectedStatus int
		expectedReason string
	}{
		{
			name: "provisioned",
			body: payload,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().HandleRegistration(gomock.Any(), KratosIdentity{
					ID:     "identity-123",
					Traits: KratosTraits{Email: "anna@example.com", Name: KratosName{First: "Anna", Last: "Svensson"}},
				}).Return(&Provisioning{Provisioned: true, AccountID: "acc-1"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid request body",
			body:           "not-json",
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedReason: "invalid_body",
		},
		{
			name: "invalid identity",
			body: `{"id":""}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().HandleRegistration(gomock.Any(), gomock.Any()).Return(nil, ErrInvalidIdentity)
			},
			expectedStatus: http.StatusBadRequest,
			expectedReason: "invalid_identity",
		},
		{
			name: "already linked",
			body: payload,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().HandleRegistration(gomock.Any(), gomock.Any()).Return(nil, storage.ErrDuplicateKey)
			},
			expectedStatus: http.StatusConflict,
			expectedReason: "already_linked",
		},
		{
			name: "service error",
			body: payload,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().HandleRegistration(gomock.Any(), gomock.Any()).Return(nil, errors.New("service error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedReason: "internal",
		},
		{
			name:           "wrong webhook key",
			apiKey:         "secret",
			header:         "guess",
			body:           payload,
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
			expectedReason: "invalid_webhook_key",
		},
		{
			name:   "matching webhook key",
			apiKey: "secret",
			header: "secret",
			body:   payload,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().HandleRegistration(gomock.Any(), gomock.Any()).Return(&Provisioning{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockServiceInterface(ctrl)
			tt.setupMocks(mockService)

			api := NewAPI(mockService, tt.apiKey, logging.NewNoopLogger())

			req := httptest.NewRequest(http.MethodPost, "/webhooks/registration", strings.NewReader(tt.body))
			if tt.header != "" {
				req.Header.Set(APIKeyHeader, tt.header)
			}
			w := httptest.NewRecorder()

			mux := chi.NewMux()
			api.RegisterEndpoints(mux)
			mux.ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			body, _ := io.ReadAll(res.Body)

			if res.StatusCode != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d. Body: %s", tt.expectedStatus, res.StatusCode, string(body))
			}

			if tt.expectedReason == "" {
				return
			}

			var e httptypes.ErrorResponse
			if err := json.Unmarshal(body, &e); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if e.Reason != tt.expectedReason {
				t.Errorf("expected reason %s, got %s", tt.expectedReason, e.Reason)
			}
		})
	}
}

func TestAPI_TokenHook(t *testing.T) {
	payload := `{"session":{"id_token":{"subject":"3f2b1c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"}},"request":{"client_id":"portal"}}`

	tests := []struct {
		name           string
		apiKey         string
		header         string
		body           string
		setupMocks     func(*MockServiceInterface)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name: "claims are returned without the envelope",
			body: payload,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().HandleTokenHook(gomock.Any(), gomock.Any()).Return(&TokenHookResponse{
					Session: TokenHookSession{
						AccessToken: map[string]any{"account_id": "acc-1"},
						IDToken:     map[string]any{"account_id": "acc-1"},
					},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var resp TokenHookResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}

				if resp.Session.AccessToken["account_id"] != "acc-1" || resp.Session.IDToken["account_id"] != "acc-1" {
					t.Errorf("unexpected session %+v", resp.Session)
				}
			},
		},
		{
			name:           "invalid request body",
			body:           "not-json",
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "session without subject",
			body: `{"session":{}}`,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().HandleTokenHook(gomock.Any(), gomock.Any()).Return(nil, ErrInvalidSession)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "service error",
			body: payload,
			setupMocks: func(s *MockServiceInterface) {
				s.EXPECT().HandleTokenHook(gomock.Any(), gomock.Any()).Return(nil, errors.New("service error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "wrong webhook key",
			apiKey:         "secret",
			header:         "guess",
			body:           payload,
			setupMocks:     func(*MockServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockServiceInterface(ctrl)
			tt.setupMocks(mockService)

			api := NewAPI(mockService, tt.apiKey, logging.NewNoopLogger())

			req := httptest.NewRequest(http.MethodPost, "/webhooks/token", strings.NewReader(tt.body))
			if tt.header != "" {
				req.Header.Set(APIKeyHeader, tt.header)
			}
			w := httptest.NewRecorder()

			mux := chi.NewMux()
			api.RegisterEndpoints(mux)
			mux.ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			body, _ := io.ReadAll(res.Body)

			if res.StatusCode != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d. Body: %s", tt.expectedStatus, res.StatusCode, string(body))
			}

			if tt.validateBody != nil {
				tt.validateBody(t, body)
			}
		})
	}
}
