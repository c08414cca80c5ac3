// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"context"

	"github.com/canonical/customer-portal/internal/kratos"
)

type KratosClientInterface interface {
	Register(ctx context.Context, email, password string, traits kratos.Traits, returnTo string) (*kratos.Registration, error)
	Login(ctx context.Context, email, password string) (*kratos.Session, error)
	Whoami(ctx context.Context, token string) (*kratos.Session, error)
	Logout(ctx context.Context, token string) error
}
