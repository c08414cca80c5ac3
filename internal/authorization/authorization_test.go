// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"errors"
	"testing"

	fga "github.com/openfga/go-sdk"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/customer-portal/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_logger.go -source=../logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_monitor.go -source=../monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_tracing.go -source=../tracing/interfaces.go

func TestAuthorizer_HasRole(t *testing.T) {
	testCases := []struct {
		name           string
		accountID      string
		role           types.AppRole
		setupMocks     func(*MockAuthzClientInterface)
		expectedResult bool
		expectedErr    bool
	}{
		{
			name:      "account admin granted",
			accountID: "acc-1",
			role:      types.RoleAccountAdmin,
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().Check(gomock.Any(), "user:u1", ACCOUNT_ADMIN_RELATION, "account:acc-1").Return(true, nil)
			},
			expectedResult: true,
		},
		{
			name:      "account user not granted",
			accountID: "acc-1",
			role:      types.RoleAccountUser,
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().Check(gomock.Any(), "user:u1", ACCOUNT_USER_RELATION, "account:acc-1").Return(false, nil)
			},
			expectedResult: false,
		},
		{
			name:      "super admin ignores the account",
			accountID: "acc-1",
			role:      types.RoleSuperAdmin,
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().Check(gomock.Any(), "user:u1", SUPER_ADMIN_RELATION, "platform:global").Return(true, nil)
			},
			expectedResult: true,
		},
		{
			name:           "account role without account",
			role:           types.RoleAccountAdmin,
			setupMocks:     func(*MockAuthzClientInterface) {},
			expectedResult: false,
		},
		{
			name:        "unknown role",
			accountID:   "acc-1",
			role:        types.AppRole("owner"),
			setupMocks:  func(*MockAuthzClientInterface) {},
			expectedErr: true,
		},
		{
			name:      "client error",
			accountID: "acc-1",
			role:      types.RoleAccountAdmin,
			setupMocks: func(mockClient *MockAuthzClientInterface) {
				mockClient.EXPECT().Check(gomock.Any(), "user:u1", ACCOUNT_ADMIN_RELATION, "account:acc-1").Return(false, errors.New("client error"))
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockClient := NewMockAuthzClientInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			a := NewAuthorizer(mockClient, mockTracer, mockMonitor, mockLogger)

			mockTracer.EXPECT().Start(gomock.Any(), "authorization.Authorizer.HasRole").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockClient)

			result, err := a.HasRole(context.Background(), "u1", tc.accountID, tc.role)

			if tc.expectedErr {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if result != tc.expectedResult {
				t.Errorf("expected %v, got %v", tc.expectedResult, result)
			}
		})
	}
}

func TestAuthorizer_IsSuperAdmin(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := NewMockAuthzClientInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)

	a := NewAuthorizer(mockClient, mockTracer, NewMockMonitorInterface(ctrl), NewMockLoggerInterface(ctrl))

	mockTracer.EXPECT().Start(gomock.Any(), "authorization.Authorizer.IsSuperAdmin").
		Return(context.Background(), trace.SpanFromContext(context.Background()))
	mockClient.EXPECT().Check(gomock.Any(), "user:u1", SUPER_ADMIN_RELATION, "platform:global").Return(true, nil)

	ok, err := a.IsSuperAdmin(context.Background(), "u1")
	if err != nil || !ok {
		t.Errorf("expected super admin, got %v, %v", ok, err)
	}
}

func TestAuthorizer_AssignRole(t *testing.T) {
	testCases := []struct {
		name      string
		accountID string
		role      types.AppRole
		relation  string
		object    string
	}{
		{name: "super admin", accountID: "acc-1", role: types.RoleSuperAdmin, relation: SUPER_ADMIN_RELATION, object: "platform:global"},
		{name: "account admin", accountID: "acc-1", role: types.RoleAccountAdmin, relation: ACCOUNT_ADMIN_RELATION, object: "account:acc-1"},
		{name: "account user", accountID: "acc-2", role: types.RoleAccountUser, relation: ACCOUNT_USER_RELATION, object: "account:acc-2"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockClient := NewMockAuthzClientInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)

			a := NewAuthorizer(mockClient, mockTracer, NewMockMonitorInterface(ctrl), NewMockLoggerInterface(ctrl))

			mockTracer.EXPECT().Start(gomock.Any(), "authorization.Authorizer.AssignRole").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			mockClient.EXPECT().WriteTuple(gomock.Any(), "user:u1", tc.relation, tc.object).Return(nil)

			if err := a.AssignRole(context.Background(), "u1", tc.accountID, tc.role); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestAuthorizer_ValidateModel(t *testing.T) {
	testCases := []struct {
		name        string
		equal       bool
		clientErr   error
		expectedErr error
	}{
		{name: "model matches", equal: true},
		{name: "model differs", equal: false, expectedErr: ErrInvalidAuthModel},
		{name: "client error", clientErr: errors.New("unreachable"), expectedErr: errors.New("unreachable")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockClient := NewMockAuthzClientInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)

			a := NewAuthorizer(mockClient, mockTracer, NewMockMonitorInterface(ctrl), NewMockLoggerInterface(ctrl))

			mockTracer.EXPECT().Start(gomock.Any(), "authorization.Authorizer.ValidateModel").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			mockClient.EXPECT().CompareModel(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, m fga.AuthorizationModel) (bool, error) {
					if m.SchemaVersion != "1.1" {
						t.Errorf("expected schema 1.1, got %q", m.SchemaVersion)
					}
					return tc.equal, tc.clientErr
				},
			)

			err := a.ValidateModel(context.Background())

			if tc.expectedErr == nil && err != nil {
				t.Errorf("expected no error, got %v", err)
			}

			if tc.expectedErr != nil && (err == nil || err.Error() != tc.expectedErr.Error()) {
				t.Errorf("expected %v, got %v", tc.expectedErr, err)
			}
		})
	}
}

func TestAuthorizationModelProvider(t *testing.T) {
	model := NewAuthorizationModelProvider("v0").GetModel()

	defined := make(map[string]bool)
	for _, td := range model.TypeDefinitions {
		defined[td.Type] = true
	}

	for _, expected := range []string{"user", "platform", "account"} {
		if !defined[expected] {
			t.Errorf("expected type %s in model", expected)
		}
	}
}
