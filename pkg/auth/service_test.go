// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/customer-portal/internal/kratos"
	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/storage"
	"github.com/canonical/customer-portal/internal/types"
	"github.com/canonical/customer-portal/pkg/identity"
)

//go:generate mockgen -build_flags=--mod=mod -package auth -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package auth -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

type mocks struct {
	provider *MockProviderInterface
	store    *MockStorageInterface
	authz    *MockAuthzInterface
	tracer   *MockTracingInterface
}

func setup(t *testing.T) (*Service, *mocks) {
	ctrl := gomock.NewController(t)

	m := &mocks{
		provider: NewMockProviderInterface(ctrl),
		store:    NewMockStorageInterface(ctrl),
		authz:    NewMockAuthzInterface(ctrl),
		tracer:   NewMockTracingInterface(ctrl),
	}

	logger := logging.NewNoopLogger()

	return NewService(m.provider, m.store, m.authz, m.tracer, monitoring.NewNoopMonitor("test", logger), logger), m
}

func expectSpan(m *mocks, name string) {
	m.tracer.EXPECT().Start(gomock.Any(), name).Return(context.Background(), trace.SpanFromContext(context.Background()))
}

func TestServiceSignIn(t *testing.T) {
	tests := []struct {
		name         string
		providerErr  error
		expectedKind ErrorKind
	}{
		{name: "success"},
		{name: "invalid credentials", providerErr: fmt.Errorf("%w: bad", kratos.ErrInvalidCredentials), expectedKind: KindInvalidCredentials},
		{name: "email not confirmed", providerErr: fmt.Errorf("%w: verify", kratos.ErrAddressNotVerified), expectedKind: KindEmailNotConfirmed},
		{name: "provider down", providerErr: errors.New("dial tcp: connection refused"), expectedKind: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m := setup(t)

			expectSpan(m, "auth.Service.SignIn")

			var session *identity.Session
			if tt.providerErr == nil {
				session = &identity.Session{Token: "tok", UserID: "user-1"}
			}
			m.provider.EXPECT().SignInWithPassword(gomock.Any(), "anna@example.com", "secret123").Return(session, tt.providerErr)

			got, err := s.SignIn(context.Background(), "anna@example.com", "secret123")

			if tt.providerErr == nil {
				if err != nil || got.UserID != "user-1" {
					t.Fatalf("expected session of user-1, got %v, %v", got, err)
				}
				return
			}

			if KindOf(err) != tt.expectedKind {
				t.Errorf("expected kind %s, got %s", tt.expectedKind, KindOf(err))
			}

			if !errors.Is(err, tt.providerErr) {
				t.Errorf("expected provider error to be wrapped, got %v", err)
			}
		})
	}
}

func TestServiceSignUp(t *testing.T) {
	tests := []struct {
		name         string
		providerErr  error
		expectedKind ErrorKind
	}{
		{name: "user already registered", providerErr: fmt.Errorf("%w: exists", kratos.ErrIdentifierExists), expectedKind: KindUserExists},
		{name: "weak password", providerErr: fmt.Errorf("%w: pwned", kratos.ErrPasswordPolicy), expectedKind: KindWeakPassword},
		{name: "invalid input", providerErr: fmt.Errorf("%w: email", kratos.ErrInvalidInput), expectedKind: KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m := setup(t)

			meta := identity.Metadata{FirstName: "Anna", LastName: "Svensson"}

			expectSpan(m, "auth.Service.SignUp")
			m.provider.EXPECT().SignUp(gomock.Any(), "anna@example.com", "secret123", meta).Return(nil, tt.providerErr)

			_, err := s.SignUp(context.Background(), "anna@example.com", "secret123", meta)

			if KindOf(err) != tt.expectedKind {
				t.Errorf("expected kind %s, got %s", tt.expectedKind, KindOf(err))
			}
		})
	}
}

func TestServiceSignOut(t *testing.T) {
	s, m := setup(t)

	expectSpan(m, "auth.Service.SignOut")
	m.provider.EXPECT().SignOut(gomock.Any()).Return(nil)

	if err := s.SignOut(context.Background()); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestServiceGetCurrentUser(t *testing.T) {
	first := "Anna"
	profile := &types.Profile{UserID: "user-1", AccountID: "acc-1", FirstName: &first}
	roles := []types.UserRole{{UserID: "user-1", AccountID: "acc-1", Role: types.RoleAccountAdmin}}

	tests := []struct {
		name        string
		setupMocks  func(*mocks)
		expectNil   bool
		expectErr   bool
		expectCheck func(*testing.T, *types.AuthUser)
	}{
		{
			name: "no session",
			setupMocks: func(m *mocks) {
				m.provider.EXPECT().GetUser(gomock.Any()).Return(nil, nil)
			},
			expectNil: true,
		},
		{
			name: "profile and roles",
			setupMocks: func(m *mocks) {
				m.provider.EXPECT().GetUser(gomock.Any()).Return(&identity.User{ID: "user-1", Email: "anna@example.com"}, nil)
				m.store.EXPECT().GetProfileByUserID(gomock.Any(), "user-1").Return(profile, nil)
				m.store.EXPECT().ListRolesByUserID(gomock.Any(), "user-1").Return(roles, nil)
			},
			expectCheck: func(t *testing.T, u *types.AuthUser) {
				if u.Profile != profile || len(u.Roles) != 1 || u.Email != "anna@example.com" {
					t.Errorf("unexpected user %+v", u)
				}

				if !u.HasRole("acc-1", types.RoleAccountAdmin) {
					t.Errorf("expected account_admin on acc-1")
				}
			},
		},
		{
			name: "missing profile is not an error",
			setupMocks: func(m *mocks) {
				m.provider.EXPECT().GetUser(gomock.Any()).Return(&identity.User{ID: "user-1"}, nil)
				m.store.EXPECT().GetProfileByUserID(gomock.Any(), "user-1").Return(nil, storage.ErrNotFound)
				m.store.EXPECT().ListRolesByUserID(gomock.Any(), "user-1").Return(nil, nil)
			},
			expectCheck: func(t *testing.T, u *types.AuthUser) {
				if u.Profile != nil {
					t.Errorf("expected no profile")
				}

				if u.Roles == nil || len(u.Roles) != 0 {
					t.Errorf("expected an empty role list, got %v", u.Roles)
				}
			},
		},
		{
			name: "store failure surfaces",
			setupMocks: func(m *mocks) {
				m.provider.EXPECT().GetUser(gomock.Any()).Return(&identity.User{ID: "user-1"}, nil)
				m.store.EXPECT().GetProfileByUserID(gomock.Any(), "user-1").Return(profile, nil).AnyTimes()
				m.store.EXPECT().ListRolesByUserID(gomock.Any(), "user-1").Return(nil, errors.New("timeout"))
			},
			expectErr: true,
		},
		{
			name: "provider failure surfaces",
			setupMocks: func(m *mocks) {
				m.provider.EXPECT().GetUser(gomock.Any()).Return(nil, errors.New("connection refused"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m := setup(t)

			expectSpan(m, "auth.Service.GetCurrentUser")
			tt.setupMocks(m)

			u, err := s.GetCurrentUser(context.Background())

			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if tt.expectNil {
				if u != nil {
					t.Errorf("expected nil user, got %+v", u)
				}
				return
			}

			tt.expectCheck(t, u)
		})
	}
}

func TestServiceRoleQueries(t *testing.T) {
	s, m := setup(t)

	expectSpan(m, "auth.Service.HasRole")
	expectSpan(m, "auth.Service.IsSuperAdmin")
	expectSpan(m, "auth.Service.GetUserAccount")

	m.authz.EXPECT().HasRole(gomock.Any(), "user-1", "acc-1", types.RoleAccountUser).Return(true, nil)
	m.authz.EXPECT().IsSuperAdmin(gomock.Any(), "user-1").Return(false, nil)
	m.store.EXPECT().GetUserAccount(gomock.Any(), "user-1").Return("", nil)

	if ok, err := s.HasRole(context.Background(), "user-1", "acc-1", types.RoleAccountUser); err != nil || !ok {
		t.Errorf("expected has role, got %v, %v", ok, err)
	}

	if ok, err := s.IsSuperAdmin(context.Background(), "user-1"); err != nil || ok {
		t.Errorf("expected not super admin, got %v, %v", ok, err)
	}

	if acc, err := s.GetUserAccount(context.Background(), "user-1"); err != nil || acc != "" {
		t.Errorf("expected no account, got %q, %v", acc, err)
	}
}
