// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"github.com/canonical/customer-portal/internal/types"
	"github.com/canonical/customer-portal/pkg/identity"
)

// State is a point in time copy of a visitor's authentication state.
type State struct {
	Session *identity.Session
	User    *types.AuthUser

	// Loading stays true until the first session notification has been
	// fully processed.
	Loading bool
	// Refreshing is true while the composite user of the current session
	// is being fetched.
	Refreshing bool
	// Err holds the last refresh failure, User is nil when set.
	Err error

	Generation uint64
}

func (s State) Authenticated() bool {
	return s.User != nil
}

// HasRole is a rendering hint, see types.AuthUser.
func (s State) HasRole(accountID string, role types.AppRole) bool {
	return s.User.HasRole(accountID, role)
}

func (s State) IsSuperAdmin() bool {
	return s.User.IsSuperAdmin()
}

// Observer is called with the new state after every change.
type Observer func(State)
