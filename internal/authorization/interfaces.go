// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"

	fga "github.com/openfga/go-sdk"

	"github.com/canonical/customer-portal/internal/openfga"
	"github.com/canonical/customer-portal/internal/types"
)

type AuthorizerInterface interface {
	HasRole(ctx context.Context, userID, accountID string, role types.AppRole) (bool, error)
	IsSuperAdmin(ctx context.Context, userID string) (bool, error)
	AssignRole(ctx context.Context, userID, accountID string, role types.AppRole) error
	ValidateModel(context.Context) error
}

type AuthzClientInterface interface {
	Check(context.Context, string, string, string, ...openfga.Tuple) (bool, error)
	WriteTuple(ctx context.Context, user, relation, object string) error
	CompareModel(context.Context, fga.AuthorizationModel) (bool, error)
}
