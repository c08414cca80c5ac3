// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package auth

import (
	"context"

	"github.com/canonical/customer-portal/internal/types"
	"github.com/canonical/customer-portal/pkg/identity"
)

type ServiceInterface interface {
	SignUp(ctx context.Context, email, password string, meta identity.Metadata) (*identity.SignUpResult, error)
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	SignOut(ctx context.Context) error
	GetCurrentUser(ctx context.Context) (*types.AuthUser, error)
	HasRole(ctx context.Context, userID, accountID string, role types.AppRole) (bool, error)
	IsSuperAdmin(ctx context.Context, userID string) (bool, error)
	GetUserAccount(ctx context.Context, userID string) (string, error)
}

// ProviderInterface is the visitor's identity provider client.
type ProviderInterface interface {
	SignUp(ctx context.Context, email, password string, meta identity.Metadata) (*identity.SignUpResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error)
	SignOut(ctx context.Context) error
	GetUser(ctx context.Context) (*identity.User, error)
}

type StorageInterface interface {
	GetProfileByUserID(ctx context.Context, userID string) (*types.Profile, error)
	ListRolesByUserID(ctx context.Context, userID string) ([]types.UserRole, error)
	GetUserAccount(ctx context.Context, userID string) (string, error)
}

// AuthzInterface answers role questions, backed by the database functions
// or by OpenFGA.
type AuthzInterface interface {
	HasRole(ctx context.Context, userID, accountID string, role types.AppRole) (bool, error)
	IsSuperAdmin(ctx context.Context, userID string) (bool, error)
}
