// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"

	"github.com/canonical/customer-portal/internal/types"
)

type StorageInterface interface {
	GetAccountByID(ctx context.Context, id string) (*types.Account, error)
	GetProfileByUserID(ctx context.Context, userID string) (*types.Profile, error)
	CreateProfile(ctx context.Context, p *types.Profile) (*types.Profile, error)
	ListRolesByUserID(ctx context.Context, userID string) ([]types.UserRole, error)
	CreateRole(ctx context.Context, r *types.UserRole) (*types.UserRole, error)
	GetPendingInvitationByEmail(ctx context.Context, email string) (*types.Invitation, error)
	AcceptInvitation(ctx context.Context, id string) error
	CreateTicket(ctx context.Context, t *types.Ticket) (*types.Ticket, error)

	HasRole(ctx context.Context, userID, accountID string, role types.AppRole) (bool, error)
	IsSuperAdmin(ctx context.Context, userID string) (bool, error)
	GetUserAccount(ctx context.Context, userID string) (string, error)
}
