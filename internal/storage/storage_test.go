// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"github.com/canonical/customer-portal/internal/db"
	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/internal/types"
	"github.com/canonical/customer-portal/migrations"
)

// newTestStorage runs against the database in PORTAL_TEST_DSN, migrated to
// the latest version. The test is skipped when the variable is unset.
func newTestStorage(t *testing.T) (*Storage, *db.DBClient) {
	t.Helper()

	dsn := os.Getenv("PORTAL_TEST_DSN")
	if dsn == "" {
		t.Skip("PORTAL_TEST_DSN not set")
	}

	logger := logging.NewNoopLogger()
	tracer := tracing.NewNoopTracer()
	monitor := monitoring.NewNoopMonitor("test", logger)

	c, err := db.NewDBClient(db.Config{DSN: dsn, MaxConns: 4, MinConns: 1, MaxConnLifetime: time.Minute, MaxConnIdleTime: time.Minute}, tracer, monitor, logger)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(c.Close)

	provider, err := goose.NewProvider(goose.DialectPostgres, c.DB(), migrations.EmbedMigrations)
	if err != nil {
		t.Fatalf("failed to create goose provider: %v", err)
	}

	if _, err := provider.Up(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return NewStorage(c, tracer, monitor, logger), c
}

func seedAccount(t *testing.T, c *db.DBClient) string {
	t.Helper()

	id := uuid.NewString()
	_, err := c.DB().ExecContext(context.Background(),
		"INSERT INTO accounts (id, name, slug) VALUES ($1, $2, $3)", id, "Acme", "acme-"+id[:8])
	if err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}

	return id
}

func TestStorageProfilesAndRoles(t *testing.T) {
	s, c := newTestStorage(t)
	ctx := context.Background()

	accountID := seedAccount(t, c)
	userID := uuid.NewString()
	first := "Anna"

	if _, err := s.GetProfileByUserID(ctx, userID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before profile creation, got %v", err)
	}

	account, err := s.GetUserAccount(ctx, userID)
	if err != nil || account != "" {
		t.Fatalf("expected no account link, got %q, %v", account, err)
	}

	p, err := s.CreateProfile(ctx, &types.Profile{UserID: userID, AccountID: accountID, Email: "anna@example.com", FirstName: &first})
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	if p.Locale != "sv" || !p.IsActive {
		t.Errorf("expected defaults sv/active, got %s/%v", p.Locale, p.IsActive)
	}

	account, err = s.GetUserAccount(ctx, userID)
	if err != nil || account != accountID {
		t.Fatalf("expected account %s, got %q, %v", accountID, account, err)
	}

	if _, err := s.CreateRole(ctx, &types.UserRole{UserID: userID, AccountID: accountID, Role: types.RoleAccountAdmin}); err != nil {
		t.Fatalf("failed to create role: %v", err)
	}

	if _, err := s.CreateRole(ctx, &types.UserRole{UserID: userID, AccountID: accountID, Role: types.RoleAccountAdmin}); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey for a repeated grant, got %v", err)
	}

	roles, err := s.ListRolesByUserID(ctx, userID)
	if err != nil || len(roles) != 1 {
		t.Fatalf("expected 1 role, got %d, %v", len(roles), err)
	}

	ok, err := s.HasRole(ctx, userID, accountID, types.RoleAccountAdmin)
	if err != nil || !ok {
		t.Errorf("expected has_role true, got %v, %v", ok, err)
	}

	ok, err = s.HasRole(ctx, userID, accountID, types.RoleAccountUser)
	if err != nil || ok {
		t.Errorf("expected has_role false, got %v, %v", ok, err)
	}

	ok, err = s.IsSuperAdmin(ctx, userID)
	if err != nil || ok {
		t.Errorf("expected is_super_admin false, got %v, %v", ok, err)
	}
}

func TestStorageCreateTicket(t *testing.T) {
	s, c := newTestStorage(t)
	ctx := context.Background()

	accountID := seedAccount(t, c)
	desc := "printer on fire"

	ticket, err := s.CreateTicket(ctx, &types.Ticket{
		AccountID:   accountID,
		CreatedBy:   uuid.NewString(),
		Title:       "Help",
		Type:        types.TicketSupport,
		Description: &desc,
		Status:      types.TicketOpen,
		Priority:    types.DefaultTicketPriority,
	})
	if err != nil {
		t.Fatalf("failed to create ticket: %v", err)
	}

	if ticket.Status != types.TicketOpen || ticket.Priority != 3 || ticket.Type != types.TicketSupport {
		t.Errorf("unexpected ticket %+v", ticket)
	}

	_, err = s.CreateTicket(ctx, &types.Ticket{
		AccountID: uuid.NewString(),
		CreatedBy: uuid.NewString(),
		Title:     "orphan",
		Type:      types.TicketOther,
		Status:    types.TicketOpen,
		Priority:  3,
	})
	if !errors.Is(err, ErrForeignKeyViolation) {
		t.Errorf("expected ErrForeignKeyViolation, got %v", err)
	}
}

func TestStorageInvitations(t *testing.T) {
	s, c := newTestStorage(t)
	ctx := context.Background()

	accountID := seedAccount(t, c)
	email := "invitee-" + uuid.NewString()[:8] + "@example.com"

	if _, err := s.GetPendingInvitationByEmail(ctx, email); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound without invitation, got %v", err)
	}

	id := uuid.NewString()
	_, err := c.DB().ExecContext(ctx,
		"INSERT INTO invitations (id, account_id, email, role, token, invited_by, expires_at) VALUES ($1, $2, $3, 'account_user', $4, $5, now() + interval '1 day')",
		id, accountID, email, uuid.NewString(), uuid.NewString())
	if err != nil {
		t.Fatalf("failed to seed invitation: %v", err)
	}

	i, err := s.GetPendingInvitationByEmail(ctx, strings.ToUpper(email))
	if err != nil || i.ID != id || i.Role != types.RoleAccountUser {
		t.Fatalf("expected invitation %s, got %+v, %v", id, i, err)
	}

	if err := s.AcceptInvitation(ctx, id); err != nil {
		t.Fatalf("failed to accept invitation: %v", err)
	}

	if err := s.AcceptInvitation(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for an accepted invitation, got %v", err)
	}

	if _, err := s.GetPendingInvitationByEmail(ctx, email); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected accepted invitation to be hidden, got %v", err)
	}
}
