// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"

	"github.com/ory/hydra/v2/oauth2"

	"github.com/canonical/customer-portal/internal/types"
	"github.com/canonical/customer-portal/pkg/accounts"
)

// StorageInterface is the subset of internal/storage needed to resolve
// invitations and the claims of a token subject.
type StorageInterface interface {
	GetPendingInvitationByEmail(ctx context.Context, email string) (*types.Invitation, error)
	AcceptInvitation(ctx context.Context, id string) error
	GetProfileByUserID(ctx context.Context, userID string) (*types.Profile, error)
	ListRolesByUserID(ctx context.Context, userID string) ([]types.UserRole, error)
	GetUserAccount(ctx context.Context, userID string) (string, error)
}

// AccountsInterface is the subset of pkg/accounts used to link the new
// identity.
type AccountsInterface interface {
	CreateProfile(ctx context.Context, p accounts.NewProfile) (*types.Profile, error)
	AssignRole(ctx context.Context, userID, accountID string, role types.AppRole, grantedBy string) (*types.UserRole, error)
}

type ServiceInterface interface {
	HandleRegistration(ctx context.Context, identity KratosIdentity) (*Provisioning, error)
	HandleTokenHook(ctx context.Context, req *oauth2.TokenHookRequest) (*TokenHookResponse, error)
}
