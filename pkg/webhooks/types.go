// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

// KratosIdentity is the identity payload posted by the registration
// after-hook.
type KratosIdentity struct {
	ID     string       `json:"id"`
	Traits KratosTraits `json:"traits"`
}

type KratosTraits struct {
	Email string     `json:"email"`
	Name  KratosName `json:"name"`
}

type KratosName struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// Provisioning is the outcome of a registration hook.
type Provisioning struct {
	Provisioned bool   `json:"provisioned"`
	AccountID   string `json:"account_id,omitempty"`
	Role        string `json:"role,omitempty"`
}

// TokenHookResponse is the reply to the Hydra token hook, the claims are
// merged into the issued tokens.
type TokenHookResponse struct {
	Session TokenHookSession `json:"session"`
}

type TokenHookSession struct {
	IDToken     map[string]any `json:"id_token,omitempty"`
	AccessToken map[string]any `json:"access_token,omitempty"`
}

// RoleClaim is one role grant as carried in the token claims.
type RoleClaim struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
}
