// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package gate

import (
	"github.com/canonical/customer-portal/internal/types"
)

type Decision int

const (
	Render Decision = iota
	Placeholder
	RedirectSignIn
	RedirectDefault
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case Placeholder:
		return "placeholder"
	case RedirectSignIn:
		return "redirect_sign_in"
	case RedirectDefault:
		return "redirect_default"
	}

	return "unknown"
}

// Requirement describes who may see a page. The zero value only requires a
// signed in user.
type Requirement struct {
	Role               types.AppRole
	RequiresSuperAdmin bool
	// AccountID scopes Role, the user's profile account is used when empty.
	AccountID string
}

// Decide is evaluated on every render. It only decides what to show, the
// store remains the authority for every mutation.
func Decide(user *types.AuthUser, loading bool, req Requirement) Decision {
	if loading {
		return Placeholder
	}

	if user == nil {
		return RedirectSignIn
	}

	if req.RequiresSuperAdmin && !user.IsSuperAdmin() {
		return RedirectDefault
	}

	if req.Role == "" || user.IsSuperAdmin() {
		return Render
	}

	scope := req.AccountID
	if scope == "" {
		scope = user.AccountID()
	}

	if scope == "" || !user.HasRole(scope, req.Role) {
		return RedirectDefault
	}

	return Render
}
