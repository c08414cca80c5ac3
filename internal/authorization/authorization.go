// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"fmt"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/internal/types"
)

var ErrInvalidAuthModel = fmt.Errorf("invalid authorization model schema")

var _ AuthorizerInterface = (*Authorizer)(nil)

// Authorizer answers role questions from OpenFGA tuples and gives the same
// answers as the has_role and is_super_admin database functions. Account
// roles are held per account and never implied by another role. super_admin
// is held platform wide whatever account it was recorded on.
type Authorizer struct {
	client AuthzClientInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *Authorizer) HasRole(ctx context.Context, userID, accountID string, role types.AppRole) (bool, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.HasRole")
	defer span.End()

	if !role.Valid() {
		return false, fmt.Errorf("unknown role %q", role)
	}

	if role != types.RoleSuperAdmin && accountID == "" {
		return false, nil
	}

	relation, object := roleTuple(accountID, role)

	return a.client.Check(ctx, UserTuple(userID), relation, object)
}

func (a *Authorizer) IsSuperAdmin(ctx context.Context, userID string) (bool, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.IsSuperAdmin")
	defer span.End()

	return a.client.Check(ctx, UserTuple(userID), SUPER_ADMIN_RELATION, PlatformTuple(GLOBAL_PLATFORM))
}

func (a *Authorizer) AssignRole(ctx context.Context, userID, accountID string, role types.AppRole) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.AssignRole")
	defer span.End()

	relation, object := roleTuple(accountID, role)

	return a.client.WriteTuple(ctx, UserTuple(userID), relation, object)
}

func (a *Authorizer) ValidateModel(ctx context.Context) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.ValidateModel")
	defer span.End()

	v0AuthzModel := NewAuthorizationModelProvider("v0")
	model := *v0AuthzModel.GetModel()

	eq, err := a.client.CompareModel(ctx, model)
	if err != nil {
		return err
	}
	if !eq {
		return ErrInvalidAuthModel
	}
	return nil
}

func NewAuthorizer(client AuthzClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Authorizer {
	authorizer := new(Authorizer)
	authorizer.client = client
	authorizer.tracer = tracer
	authorizer.monitor = monitor
	authorizer.logger = logger

	return authorizer
}
