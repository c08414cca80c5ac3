// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical/customer-portal/internal/kratos"
	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
)

var ErrInvalidSession = errors.New("invalid session token")

// SessionVerifier accepts the session tokens issued to the portal's native
// login flows, so API callers can reuse the token they signed in with.
type SessionVerifier struct {
	sessions SessionClientInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (v *SessionVerifier) VerifyToken(ctx context.Context, rawToken string) (string, error) {
	ctx, span := v.tracer.Start(ctx, "authentication.SessionVerifier.VerifyToken")
	defer span.End()

	s, err := v.sessions.Whoami(ctx, rawToken)
	if errors.Is(err, kratos.ErrNoSession) {
		v.logger.Security().AuthnTokenInvalid("session_token")
		return "", ErrInvalidSession
	}

	if err != nil {
		return "", fmt.Errorf("failed to resolve session: %w", err)
	}

	return s.Identity.ID, nil
}

func NewSessionVerifier(sessions SessionClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *SessionVerifier {
	return &SessionVerifier{
		sessions: sessions,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}
