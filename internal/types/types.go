// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

type AppRole string

const (
	RoleSuperAdmin   AppRole = "super_admin"
	RoleAccountAdmin AppRole = "account_admin"
	RoleAccountUser  AppRole = "account_user"
)

func (r AppRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAccountAdmin, RoleAccountUser:
		return true
	}
	return false
}

type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountSuspended AccountStatus = "suspended"
	AccountPending   AccountStatus = "pending"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

type TicketType string

const (
	TicketSupport TicketType = "Support"
	TicketEconomy TicketType = "Economy"
	TicketOther   TicketType = "Other"
)

// DefaultTicketPriority is assigned to every ticket created from the portal.
const DefaultTicketPriority = 3

type Account struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Slug      string         `db:"slug" json:"slug"`
	Status    AccountStatus  `db:"status" json:"status"`
	Settings  map[string]any `db:"settings" json:"settings"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

type Profile struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	AccountID string    `db:"account_id" json:"account_id"`
	Email     string    `db:"email" json:"email"`
	FirstName *string   `db:"first_name" json:"first_name,omitempty"`
	LastName  *string   `db:"last_name" json:"last_name,omitempty"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	Locale    string    `db:"locale" json:"locale"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type UserRole struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	AccountID string    `db:"account_id" json:"account_id"`
	Role      AppRole   `db:"role" json:"role"`
	GrantedBy *string   `db:"granted_by" json:"granted_by,omitempty"`
	GrantedAt time.Time `db:"granted_at" json:"granted_at"`
}

type Invitation struct {
	ID         string     `db:"id" json:"id"`
	AccountID  string     `db:"account_id" json:"account_id"`
	Email      string     `db:"email" json:"email"`
	Role       AppRole    `db:"role" json:"role"`
	Token      string     `db:"token" json:"-"`
	InvitedBy  string     `db:"invited_by" json:"invited_by"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	AcceptedAt *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

type Ticket struct {
	ID          string         `db:"id" json:"id"`
	AccountID   string         `db:"account_id" json:"account_id"`
	CreatedBy   string         `db:"created_by" json:"created_by"`
	AssignedTo  *string        `db:"assigned_to" json:"assigned_to,omitempty"`
	Title       string         `db:"title" json:"title"`
	Type        TicketType     `db:"type" json:"type"`
	Description *string        `db:"description" json:"description,omitempty"`
	Status      TicketStatus   `db:"status" json:"status"`
	Priority    int            `db:"priority" json:"priority"`
	Metadata    map[string]any `db:"metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

type TicketAttachment struct {
	ID         string    `db:"id" json:"id"`
	TicketID   string    `db:"ticket_id" json:"ticket_id"`
	FileName   string    `db:"file_name" json:"file_name"`
	FilePath   string    `db:"file_path" json:"file_path"`
	FileSize   *int64    `db:"file_size" json:"file_size,omitempty"`
	MimeType   *string   `db:"mime_type" json:"mime_type,omitempty"`
	UploadedBy string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type AuditLog struct {
	ID           string         `db:"id" json:"id"`
	AccountID    string         `db:"account_id" json:"account_id"`
	UserID       string         `db:"user_id" json:"user_id"`
	Action       string         `db:"action" json:"action"`
	ResourceType string         `db:"resource_type" json:"resource_type"`
	ResourceID   *string        `db:"resource_id" json:"resource_id,omitempty"`
	OldValues    map[string]any `db:"old_values" json:"old_values,omitempty"`
	NewValues    map[string]any `db:"new_values" json:"new_values,omitempty"`
	Metadata     map[string]any `db:"metadata" json:"metadata,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}
