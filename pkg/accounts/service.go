// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/storage"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/internal/types"
)

const DefaultLocale = "sv"

var (
	ErrUnknownAccount = errors.New("account does not exist")
	ErrInvalidRole    = errors.New("invalid role")
)

var _ ServiceInterface = (*Service)(nil)

type NewProfile struct {
	UserID    string
	AccountID string
	Email     string
	FirstName string
	LastName  string
	Locale    string
}

type Service struct {
	store StorageInterface
	roles RoleWriterInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// CreateProfile links an identity to an account.
func (s *Service) CreateProfile(ctx context.Context, p NewProfile) (*types.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "accounts.Service.CreateProfile")
	defer span.End()

	if _, err := s.store.GetAccountByID(ctx, p.AccountID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, p.AccountID)
		}
		return nil, err
	}

	locale := p.Locale
	if locale == "" {
		locale = DefaultLocale
	}

	profile, err := s.store.CreateProfile(ctx, &types.Profile{
		UserID:    p.UserID,
		AccountID: p.AccountID,
		Email:     strings.ToLower(strings.TrimSpace(p.Email)),
		FirstName: optional(p.FirstName),
		LastName:  optional(p.LastName),
		Locale:    locale,
		IsActive:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create profile of %s: %w", p.UserID, err)
	}

	s.logger.Infof("profile of user %s linked to account %s", p.UserID, p.AccountID)

	return profile, nil
}

// AssignRole records the grant in the store and then in the authorization
// backend. Repeated grants fail with storage.ErrDuplicateKey once the tuple
// has been written again, so a grant whose tuple write failed earlier can be
// completed by retrying it.
func (s *Service) AssignRole(ctx context.Context, userID, accountID string, role types.AppRole, grantedBy string) (*types.UserRole, error) {
	ctx, span := s.tracer.Start(ctx, "accounts.Service.AssignRole")
	defer span.End()

	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	// super_admin is platform wide but still recorded on an account
	if strings.TrimSpace(accountID) == "" {
		return nil, fmt.Errorf("%w: empty account ID", ErrUnknownAccount)
	}

	r, err := s.store.CreateRole(ctx, &types.UserRole{
		UserID:    userID,
		AccountID: accountID,
		Role:      role,
		GrantedBy: optional(grantedBy),
	})
	if errors.Is(err, storage.ErrDuplicateKey) {
		if werr := s.roles.AssignRole(ctx, userID, accountID, role); werr != nil {
			return nil, fmt.Errorf("failed to write %s grant of %s: %w", role, userID, werr)
		}

		return nil, fmt.Errorf("%s already granted to %s: %w", role, userID, err)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to grant %s to %s: %w", role, userID, err)
	}

	if err := s.roles.AssignRole(ctx, userID, accountID, role); err != nil {
		return nil, fmt.Errorf("failed to write %s grant of %s: %w", role, userID, err)
	}

	s.logger.Security().AuthzGrant(grantedBy, userID, string(role))

	return r, nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}

	return &s
}

func NewService(store StorageInterface, roles RoleWriterInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	s := new(Service)

	s.store = store
	s.roles = roles

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
