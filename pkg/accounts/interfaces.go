// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package accounts

import (
	"context"

	"github.com/canonical/customer-portal/internal/types"
)

type ServiceInterface interface {
	CreateProfile(ctx context.Context, p NewProfile) (*types.Profile, error)
	AssignRole(ctx context.Context, userID, accountID string, role types.AppRole, grantedBy string) (*types.UserRole, error)
}

type StorageInterface interface {
	GetAccountByID(ctx context.Context, id string) (*types.Account, error)
	CreateProfile(ctx context.Context, p *types.Profile) (*types.Profile, error)
	CreateRole(ctx context.Context, r *types.UserRole) (*types.UserRole, error)
}

// RoleWriterInterface mirrors role grants into the authorization backend.
type RoleWriterInterface interface {
	AssignRole(ctx context.Context, userID, accountID string, role types.AppRole) error
}
