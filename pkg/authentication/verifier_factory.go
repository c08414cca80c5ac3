// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"fmt"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
)

// VerifierConfig selects how API bearer tokens are checked. Without an
// issuer the tokens are identity provider session tokens.
type VerifierConfig struct {
	Issuer          string
	JWKSURL         string
	AllowedSubjects []string
	RequiredScope   string
}

// NewVerifier builds the API token verifier described by cfg.
func NewVerifier(
	ctx context.Context,
	cfg VerifierConfig,
	sessions SessionClientInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) (TokenVerifierInterface, error) {
	if cfg.Issuer == "" {
		logger.Info("API authentication uses identity provider session tokens")
		return NewSessionVerifier(sessions, tracer, monitor, logger), nil
	}

	if cfg.JWKSURL != "" {
		logger.Infof("Using manual JWKS URL: %s", cfg.JWKSURL)
		idTokenVerifier, err := NewProviderWithJWKS(ctx, cfg.Issuer, cfg.JWKSURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create JWKS verifier: %v", err)
		}

		return NewJWTVerifierDirect(idTokenVerifier, cfg.AllowedSubjects, cfg.RequiredScope, tracer, monitor, logger), nil
	}

	logger.Infof("Using OIDC discovery for issuer: %s", cfg.Issuer)
	provider, err := NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %v", err)
	}

	return NewJWTVerifier(provider, cfg.Issuer, cfg.AllowedSubjects, cfg.RequiredScope, tracer, monitor, logger), nil
}
