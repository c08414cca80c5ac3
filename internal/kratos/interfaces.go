// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package kratos

import (
	"context"
)

type ClientInterface interface {
	Register(ctx context.Context, email, password string, traits Traits, returnTo string) (*Registration, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Whoami(ctx context.Context, token string) (*Session, error)
	Logout(ctx context.Context, token string) error
	GetIdentity(ctx context.Context, id string) (*Identity, error)
}
