// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ory/hydra/v2/oauth2"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/storage"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/pkg/accounts"
	"github.com/canonical/customer-portal/pkg/auth"
)

var (
	ErrInvalidIdentity = errors.New("identity ID or email is empty")
	ErrInvalidSession  = errors.New("token session has no subject")
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage  StorageInterface
	accounts AccountsInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	accounts AccountsInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:  storage,
		accounts: accounts,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

// HandleRegistration links a freshly registered identity to the account
// that invited it. Identities without a pending invitation stay unlinked.
func (s *Service) HandleRegistration(ctx context.Context, identity KratosIdentity) (*Provisioning, error) {
	ctx, span := s.tracer.Start(ctx, "webhooks.Service.HandleRegistration")
	defer span.End()

	s.logger.Debugf("handling registration of identity %s", identity.ID)

	if identity.ID == "" || identity.Traits.Email == "" {
		return nil, ErrInvalidIdentity
	}

	invitation, err := s.storage.GetPendingInvitationByEmail(ctx, identity.Traits.Email)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Infof("no pending invitation for identity %s", identity.ID)
		return &Provisioning{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to look up invitation: %w", err)
	}

	_, err = s.accounts.CreateProfile(ctx, accounts.NewProfile{
		UserID:    identity.ID,
		AccountID: invitation.AccountID,
		Email:     identity.Traits.Email,
		FirstName: identity.Traits.Name.First,
		LastName:  identity.Traits.Name.Last,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.accounts.AssignRole(ctx, identity.ID, invitation.AccountID, invitation.Role, invitation.InvitedBy); err != nil {
		return nil, err
	}

	if err := s.storage.AcceptInvitation(ctx, invitation.ID); err != nil {
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}

	s.logger.Infof("identity %s joined account %s as %s", identity.ID, invitation.AccountID, invitation.Role)

	return &Provisioning{Provisioned: true, AccountID: invitation.AccountID, Role: string(invitation.Role)}, nil
}

// HandleTokenHook adds the account and roles of the token subject to the
// access and ID token claims. Subjects that are not portal identities, such
// as OAuth clients, get no extra claims.
func (s *Service) HandleTokenHook(ctx context.Context, req *oauth2.TokenHookRequest) (*TokenHookResponse, error) {
	ctx, span := s.tracer.Start(ctx, "webhooks.Service.HandleTokenHook")
	defer span.End()

	if req == nil || req.Session == nil || req.Session.DefaultSession == nil || req.Session.DefaultSession.Subject == "" {
		return nil, ErrInvalidSession
	}

	subject := req.Session.DefaultSession.Subject

	s.logger.Debugf("handling token hook for subject %s", subject)

	resp := new(TokenHookResponse)

	if uuid.Validate(subject) != nil {
		return resp, nil
	}

	user, err := auth.LoadUser(ctx, s.storage, subject, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load claims of %s: %w", subject, err)
	}

	claims := make(map[string]any)

	if accountID := user.AccountID(); accountID != "" {
		claims["account_id"] = accountID
	}

	if len(user.Roles) > 0 {
		roles := make([]RoleClaim, 0, len(user.Roles))
		for _, r := range user.Roles {
			roles = append(roles, RoleClaim{AccountID: r.AccountID, Role: string(r.Role)})
		}

		claims["roles"] = roles
	}

	if user.IsSuperAdmin() {
		claims["is_super_admin"] = true
	}

	if len(claims) > 0 {
		resp.Session.AccessToken = claims
		resp.Session.IDToken = claims
	}

	s.logger.Debugf("added %d claims for subject %s", len(claims), subject)

	return resp, nil
}
