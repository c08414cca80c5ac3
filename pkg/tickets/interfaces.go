// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tickets

import (
	"context"

	"github.com/canonical/customer-portal/internal/types"
)

type ServiceInterface interface {
	Create(ctx context.Context, userID string, d Draft) (*types.Ticket, error)
}

type StorageInterface interface {
	GetUserAccount(ctx context.Context, userID string) (string, error)
	CreateTicket(ctx context.Context, t *types.Ticket) (*types.Ticket, error)
}
