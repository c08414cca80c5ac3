// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package auth

import (
	"errors"

	"github.com/canonical/customer-portal/internal/kratos"
)

type ErrorKind string

const (
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindEmailNotConfirmed  ErrorKind = "email_not_confirmed"
	KindUserExists         ErrorKind = "user_already_registered"
	KindWeakPassword       ErrorKind = "weak_password"
	KindInvalidInput       ErrorKind = "invalid_input"
	KindUnknown            ErrorKind = "unknown"
)

// Error is returned by every provider backed operation of the Service, Kind
// lets callers pick a message without looking at provider text.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

var kinds = []struct {
	sentinel error
	kind     ErrorKind
}{
	{kratos.ErrInvalidCredentials, KindInvalidCredentials},
	{kratos.ErrAddressNotVerified, KindEmailNotConfirmed},
	{kratos.ErrIdentifierExists, KindUserExists},
	{kratos.ErrPasswordPolicy, KindWeakPassword},
	{kratos.ErrInvalidInput, KindInvalidInput},
}

func newError(err error) error {
	if err == nil {
		return nil
	}

	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return &Error{Kind: k.kind, Err: err}
		}
	}

	return &Error{Kind: KindUnknown, Err: err}
}

// KindOf reports the kind of err, KindUnknown for errors not produced here.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}
