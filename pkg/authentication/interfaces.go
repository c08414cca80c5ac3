// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/canonical/customer-portal/internal/kratos"
)

type ProviderInterface interface {
	// Verifier returns the token verifier associated with the specified OIDC issuer
	Verifier(*oidc.Config) *oidc.IDTokenVerifier
}

type TokenVerifierInterface interface {
	// VerifyToken checks a raw token and returns the identity ID behind it.
	VerifyToken(ctx context.Context, rawToken string) (string, error)
}

// SessionClientInterface resolves identity provider session tokens.
type SessionClientInterface interface {
	Whoami(ctx context.Context, token string) (*kratos.Session, error)
}
