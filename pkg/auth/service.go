// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/storage"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/internal/types"
	"github.com/canonical/customer-portal/pkg/identity"
)

var _ ServiceInterface = (*Service)(nil)

// Service is a thin layer over the identity provider and the store. It
// keeps no state of its own and never retries.
type Service struct {
	provider ProviderInterface
	store    StorageInterface
	authz    AuthzInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (s *Service) SignUp(ctx context.Context, email, password string, meta identity.Metadata) (*identity.SignUpResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Service.SignUp")
	defer span.End()

	res, err := s.provider.SignUp(ctx, email, password, meta)
	if err != nil {
		return nil, newError(err)
	}

	return res, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Service.SignIn")
	defer span.End()

	session, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, newError(err)
	}

	return session, nil
}

func (s *Service) SignOut(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "auth.Service.SignOut")
	defer span.End()

	return newError(s.provider.SignOut(ctx))
}

// GetCurrentUser returns nil without a session. Store failures are errors,
// a missing profile is not.
func (s *Service) GetCurrentUser(ctx context.Context) (*types.AuthUser, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Service.GetCurrentUser")
	defer span.End()

	u, err := s.provider.GetUser(ctx)
	if err != nil {
		return nil, newError(err)
	}

	if u == nil {
		return nil, nil
	}

	return LoadUser(ctx, s.store, u.ID, u.Email)
}

func (s *Service) HasRole(ctx context.Context, userID, accountID string, role types.AppRole) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Service.HasRole")
	defer span.End()

	return s.authz.HasRole(ctx, userID, accountID, role)
}

func (s *Service) IsSuperAdmin(ctx context.Context, userID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Service.IsSuperAdmin")
	defer span.End()

	return s.authz.IsSuperAdmin(ctx, userID)
}

// GetUserAccount returns the empty string for users without an account.
func (s *Service) GetUserAccount(ctx context.Context, userID string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Service.GetUserAccount")
	defer span.End()

	return s.store.GetUserAccount(ctx, userID)
}

// LoadUser assembles the composite user, fetching profile and roles
// concurrently.
func LoadUser(ctx context.Context, store StorageInterface, userID, email string) (*types.AuthUser, error) {
	var (
		profile *types.Profile
		roles   []types.UserRole
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := store.GetProfileByUserID(gctx, userID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to fetch profile: %w", err)
		}

		profile = p

		return nil
	})

	g.Go(func() error {
		r, err := store.ListRolesByUserID(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to fetch roles: %w", err)
		}

		roles = r

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if roles == nil {
		roles = []types.UserRole{}
	}

	return &types.AuthUser{ID: userID, Email: email, Profile: profile, Roles: roles}, nil
}

func NewService(provider ProviderInterface, store StorageInterface, authz AuthzInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	s := new(Service)

	s.provider = provider
	s.store = store
	s.authz = authz

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
