// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"time"

	"github.com/canonical/customer-portal/internal/kratos"
)

type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
)

// Listener receives every session change. It runs while the Client holds
// its lock: calling back into the Client from a Listener deadlocks.
type Listener func(Event, *Session)

type Session struct {
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

// Metadata is stored on the identity at sign-up.
type Metadata struct {
	FirstName string
	LastName  string
}

type SignUpResult struct {
	UserID string
	// Session is nil until the email address is confirmed.
	Session *Session
}

func fromKratos(s *kratos.Session) *Session {
	return &Session{
		Token:     s.Token,
		UserID:    s.Identity.ID,
		Email:     s.Identity.Traits.Email,
		ExpiresAt: s.ExpiresAt,
	}
}
