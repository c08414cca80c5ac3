// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package kratos

import (
	"encoding/json"
	"time"

	ory "github.com/ory/client-go"
	"github.com/tidwall/gjson"
)

// Traits mirror the identity schema: email plus a name object.
type Traits struct {
	Email     string
	FirstName string
	LastName  string
}

func (t Traits) toMap() map[string]interface{} {
	m := map[string]interface{}{"email": t.Email}

	if t.FirstName != "" || t.LastName != "" {
		m["name"] = map[string]interface{}{
			"first": t.FirstName,
			"last":  t.LastName,
		}
	}

	return m
}

type Identity struct {
	ID       string
	Traits   Traits
	Verified bool
}

// Session is what the portal keeps of a Kratos session, the token is only
// known for sessions issued through a native flow.
type Session struct {
	Token     string
	ID        string
	Identity  Identity
	ExpiresAt time.Time
}

type Registration struct {
	Identity Identity
	// Session is nil when the identity must verify its address first.
	Session *Session
}

func identityFromOry(i ory.Identity) Identity {
	id := Identity{ID: i.GetId()}

	raw, err := json.Marshal(i.GetTraits())
	if err == nil {
		t := gjson.ParseBytes(raw)

		id.Traits = Traits{
			Email:     t.Get("email").String(),
			FirstName: t.Get("name.first").String(),
			LastName:  t.Get("name.last").String(),
		}
	}

	for _, a := range i.GetVerifiableAddresses() {
		if a.GetValue() == id.Traits.Email && a.GetVerified() {
			id.Verified = true
		}
	}

	return id
}

func sessionFromOry(s ory.Session, token string) *Session {
	return &Session{
		Token:     token,
		ID:        s.GetId(),
		Identity:  identityFromOry(s.GetIdentity()),
		ExpiresAt: s.GetExpiresAt(),
	}
}
