// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/canonical/customer-portal/internal/db"
	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/internal/types"
)

var _ StorageInterface = (*Storage)(nil)

var (
	profileColumns = []string{"id", "user_id", "account_id", "email", "first_name", "last_name", "avatar_url", "locale", "is_active", "created_at", "updated_at"}
	roleColumns    = []string{"id", "user_id", "account_id", "role", "granted_by", "granted_at"}
	ticketColumns  = []string{"id", "account_id", "created_by", "assigned_to", "title", "type", "description", "status", "priority", "created_at", "updated_at"}
)

type Storage struct {
	db db.DBClientInterface

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func NewStorage(c db.DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}

func (s *Storage) GetAccountByID(ctx context.Context, id string) (*types.Account, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetAccountByID")
	defer span.End()

	var a types.Account
	err := s.db.Statement(ctx).
		Select("id", "name", "slug", "status", "created_at", "updated_at").
		From("accounts").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&a.ID, &a.Name, &a.Slug, &a.Status, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, classify(err, "failed to get account")
	}

	return &a, nil
}

// GetProfileByUserID returns ErrNotFound when the identity has no profile yet,
// which is a normal state right after sign-up.
func (s *Storage) GetProfileByUserID(ctx context.Context, userID string) (*types.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetProfileByUserID")
	defer span.End()

	var p types.Profile
	err := s.db.Statement(ctx).
		Select(profileColumns...).
		From("profiles").
		Where(sq.Eq{"user_id": userID}).
		Limit(1).
		QueryRowContext(ctx).
		Scan(scanProfile(&p)...)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, classify(err, "failed to get profile")
	}

	return &p, nil
}

func (s *Storage) CreateProfile(ctx context.Context, p *types.Profile) (*types.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateProfile")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate profile ID: %w", err)
	}

	locale := p.Locale
	if locale == "" {
		locale = "sv"
	}

	var created types.Profile
	err = s.db.Statement(ctx).
		Insert("profiles").
		Columns("id", "user_id", "account_id", "email", "first_name", "last_name", "locale").
		Values(id.String(), p.UserID, p.AccountID, p.Email, p.FirstName, p.LastName, locale).
		Suffix("RETURNING " + strings.Join(profileColumns, ", ")).
		QueryRowContext(ctx).
		Scan(scanProfile(&created)...)

	if err != nil {
		return nil, classify(err, "failed to insert profile")
	}

	return &created, nil
}

func (s *Storage) ListRolesByUserID(ctx context.Context, userID string) ([]types.UserRole, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListRolesByUserID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select(roleColumns...).
		From("user_roles").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("granted_at").
		QueryContext(ctx)
	if err != nil {
		return nil, classify(err, "failed to list roles")
	}
	defer rows.Close()

	roles := make([]types.UserRole, 0)
	for rows.Next() {
		var r types.UserRole
		if err := rows.Scan(scanRole(&r)...); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating role rows: %w", err)
	}

	return roles, nil
}

func (s *Storage) CreateRole(ctx context.Context, r *types.UserRole) (*types.UserRole, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateRole")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate role ID: %w", err)
	}

	var created types.UserRole
	err = s.db.Statement(ctx).
		Insert("user_roles").
		Columns("id", "user_id", "account_id", "role", "granted_by").
		Values(id.String(), r.UserID, r.AccountID, string(r.Role), r.GrantedBy).
		Suffix("RETURNING " + strings.Join(roleColumns, ", ")).
		QueryRowContext(ctx).
		Scan(scanRole(&created)...)

	if err != nil {
		return nil, classify(err, "failed to insert role")
	}

	return &created, nil
}

// GetPendingInvitationByEmail returns the most recent invitation for email
// that was neither accepted nor expired.
func (s *Storage) GetPendingInvitationByEmail(ctx context.Context, email string) (*types.Invitation, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetPendingInvitationByEmail")
	defer span.End()

	var i types.Invitation
	err := s.db.Statement(ctx).
		Select("id", "account_id", "email", "role", "token", "invited_by", "expires_at", "accepted_at", "created_at").
		From("invitations").
		Where(sq.Eq{"lower(email)": strings.ToLower(email)}).
		Where(sq.Eq{"accepted_at": nil}).
		Where(sq.Gt{"expires_at": time.Now().UTC()}).
		OrderBy("created_at DESC").
		Limit(1).
		QueryRowContext(ctx).
		Scan(&i.ID, &i.AccountID, &i.Email, &i.Role, &i.Token, &i.InvitedBy, &i.ExpiresAt, &i.AcceptedAt, &i.CreatedAt)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, classify(err, "failed to get invitation")
	}

	return &i, nil
}

// AcceptInvitation marks a pending invitation as used.
func (s *Storage) AcceptInvitation(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "storage.AcceptInvitation")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("invitations").
		Set("accepted_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"accepted_at": nil}).
		ExecContext(ctx)

	if err != nil {
		return classify(err, "failed to accept invitation")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Storage) CreateTicket(ctx context.Context, t *types.Ticket) (*types.Ticket, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateTicket")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ticket ID: %w", err)
	}

	var created types.Ticket
	err = s.db.Statement(ctx).
		Insert("tickets").
		Columns("id", "account_id", "created_by", "title", "type", "description", "status", "priority").
		Values(id.String(), t.AccountID, t.CreatedBy, t.Title, string(t.Type), t.Description, string(t.Status), t.Priority).
		Suffix("RETURNING " + strings.Join(ticketColumns, ", ")).
		QueryRowContext(ctx).
		Scan(
			&created.ID, &created.AccountID, &created.CreatedBy, &created.AssignedTo,
			&created.Title, &created.Type, &created.Description, &created.Status,
			&created.Priority, &created.CreatedAt, &created.UpdatedAt,
		)

	if err != nil {
		return nil, classify(err, "failed to insert ticket")
	}

	return &created, nil
}

// HasRole defers to the has_role database function. Account roles need an
// account, super_admin is checked platform wide.
func (s *Storage) HasRole(ctx context.Context, userID, accountID string, role types.AppRole) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "storage.HasRole")
	defer span.End()

	if !role.Valid() {
		return false, fmt.Errorf("unknown role %q: %w", role, ErrInvalidValue)
	}

	if role != types.RoleSuperAdmin && accountID == "" {
		return false, nil
	}

	account := sql.NullString{String: accountID, Valid: accountID != ""}

	var ok bool
	err := s.db.Statement(ctx).
		Select().
		Column(sq.Expr("public.has_role(?, ?::uuid, ?::public.app_role)", userID, account, string(role))).
		QueryRowContext(ctx).
		Scan(&ok)

	if err != nil {
		return false, classify(err, "failed to call has_role")
	}

	return ok, nil
}

// IsSuperAdmin defers to the is_super_admin database function.
func (s *Storage) IsSuperAdmin(ctx context.Context, userID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "storage.IsSuperAdmin")
	defer span.End()

	var ok bool
	err := s.db.Statement(ctx).
		Select().
		Column(sq.Expr("public.is_super_admin(?)", userID)).
		QueryRowContext(ctx).
		Scan(&ok)

	if err != nil {
		return false, classify(err, "failed to call is_super_admin")
	}

	return ok, nil
}

// GetUserAccount defers to the get_user_account database function. The
// empty string means the user is not linked to any account.
func (s *Storage) GetUserAccount(ctx context.Context, userID string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetUserAccount")
	defer span.End()

	var accountID sql.NullString
	err := s.db.Statement(ctx).
		Select().
		Column(sq.Expr("public.get_user_account(?)", userID)).
		QueryRowContext(ctx).
		Scan(&accountID)

	if err != nil {
		return "", classify(err, "failed to call get_user_account")
	}

	return accountID.String, nil
}

func scanProfile(p *types.Profile) []any {
	return []any{
		&p.ID, &p.UserID, &p.AccountID, &p.Email, &p.FirstName, &p.LastName,
		&p.AvatarURL, &p.Locale, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	}
}

func scanRole(r *types.UserRole) []any {
	return []any{&r.ID, &r.UserID, &r.AccountID, &r.Role, &r.GrantedBy, &r.GrantedAt}
}
