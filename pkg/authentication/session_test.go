// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/customer-portal/internal/kratos"
)

func TestSessionVerifier_VerifyToken(t *testing.T) {
	tests := []struct {
		name        string
		whoami      *kratos.Session
		whoamiErr   error
		expectedID  string
		expectedErr error
	}{
		{
			name:       "valid session",
			whoami:     &kratos.Session{Token: "tok", Identity: kratos.Identity{ID: "user-1"}},
			expectedID: "user-1",
		},
		{
			name:        "expired session",
			whoamiErr:   fmt.Errorf("%w: 401", kratos.ErrNoSession),
			expectedErr: ErrInvalidSession,
		},
		{
			name:      "provider unavailable",
			whoamiErr: errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			mockSecurity := NewMockSecurityLoggerInterface(ctrl)
			mockSessions := NewMockSessionClientInterface(ctrl)

			ctx := context.Background()
			mockTracer.EXPECT().Start(gomock.Any(), "authentication.SessionVerifier.VerifyToken").Return(ctx, trace.SpanFromContext(ctx))
			mockSessions.EXPECT().Whoami(gomock.Any(), "tok").Return(tt.whoami, tt.whoamiErr)

			if tt.expectedErr != nil {
				mockLogger.EXPECT().Security().Return(mockSecurity)
				mockSecurity.EXPECT().AuthnTokenInvalid("session_token")
			}

			v := NewSessionVerifier(mockSessions, mockTracer, mockMonitor, mockLogger)

			id, err := v.VerifyToken(ctx, "tok")

			if id != tt.expectedID {
				t.Errorf("expected id %q, got %q", tt.expectedID, id)
			}

			if tt.whoamiErr == nil && err != nil {
				t.Errorf("expected no error, got %v", err)
			}

			if tt.whoamiErr != nil && err == nil {
				t.Errorf("expected error")
			}

			if tt.expectedErr != nil && !errors.Is(err, tt.expectedErr) {
				t.Errorf("expected %v, got %v", tt.expectedErr, err)
			}
		})
	}
}

func TestJWTVerifier_Authorize(t *testing.T) {
	tests := []struct {
		name        string
		subjects    []string
		scope       string
		claims      claims
		expectedErr error
	}{
		{name: "no policy", claims: claims{Subject: "svc"}, expectedErr: ErrNoAccessPolicy},
		{name: "allowed subject", subjects: []string{"svc"}, claims: claims{Subject: "svc"}},
		{name: "scope string", scope: "portal:tickets", claims: claims{Subject: "svc", Scope: "openid portal:tickets"}},
		{name: "scope list", scope: "portal:tickets", claims: claims{Subject: "svc", Scopes: []string{"portal:tickets"}}},
		{name: "missing scope", scope: "portal:tickets", claims: claims{Subject: "svc", Scope: "openid"}, expectedErr: ErrNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockLogger := NewMockLoggerInterface(ctrl)
			mockSecurity := NewMockSecurityLoggerInterface(ctrl)
			mockLogger.EXPECT().Security().Return(mockSecurity).AnyTimes()
			mockSecurity.EXPECT().AuthzFailure("svc", "jwt_api_access").AnyTimes()

			v := NewJWTVerifierDirect(nil, tt.subjects, tt.scope, NewMockTracingInterface(ctrl), NewMockMonitorInterface(ctrl), mockLogger)

			sub, err := v.authorize(tt.claims)

			if !errors.Is(err, tt.expectedErr) {
				t.Errorf("expected error %v, got %v", tt.expectedErr, err)
			}

			if tt.expectedErr == nil && sub != "svc" {
				t.Errorf("expected subject svc, got %q", sub)
			}
		})
	}
}
