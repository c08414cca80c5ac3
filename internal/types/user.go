// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

// AuthUser is the composite view of a signed in identity: who they are at
// the identity provider plus what the store knows about them.
//
// HasRole and IsSuperAdmin answer from the cached role list. They decide what
// gets rendered, never what is allowed: the store procedures stay the
// authority for anything that mutates data.
type AuthUser struct {
	ID      string     `json:"id"`
	Email   string     `json:"email"`
	Profile *Profile   `json:"profile,omitempty"`
	Roles   []UserRole `json:"roles"`
}

// HasRole matches account roles on accountID. A super_admin record counts
// for any account.
func (u *AuthUser) HasRole(accountID string, role AppRole) bool {
	if u == nil {
		return false
	}

	for _, r := range u.Roles {
		if r.Role == role && (role == RoleSuperAdmin || r.AccountID == accountID) {
			return true
		}
	}

	return false
}

// IsSuperAdmin ignores the account a super_admin record is attached to.
func (u *AuthUser) IsSuperAdmin() bool {
	if u == nil {
		return false
	}

	for _, r := range u.Roles {
		if r.Role == RoleSuperAdmin {
			return true
		}
	}

	return false
}

// AccountID is the account the user's profile is linked to, empty when the
// user has no profile yet.
func (u *AuthUser) AccountID() string {
	if u == nil || u.Profile == nil {
		return ""
	}

	return u.Profile.AccountID
}

// FirstName returns the profile first name or the empty string.
func (u *AuthUser) FirstName() string {
	if u == nil || u.Profile == nil || u.Profile.FirstName == nil {
		return ""
	}

	return *u.Profile.FirstName
}
