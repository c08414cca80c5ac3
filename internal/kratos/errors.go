// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package kratos

import (
	"errors"
	"fmt"
	"net/http"

	ory "github.com/ory/client-go"
	"github.com/tidwall/gjson"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrAddressNotVerified = errors.New("email not confirmed")
	ErrIdentifierExists   = errors.New("user already registered")
	ErrPasswordPolicy     = errors.New("password rejected by policy")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoSession          = errors.New("no active session")
	ErrUnexpectedResponse = errors.New("unexpected identity provider response")
)

// Kratos UI message ids, see https://www.ory.sh/docs/kratos/concepts/ui-messages
var messageErrors = map[int64]error{
	4000001: ErrInvalidInput,
	4000002: ErrInvalidInput,
	4000003: ErrInvalidInput,
	4000004: ErrInvalidInput,
	4000005: ErrPasswordPolicy,
	4000006: ErrInvalidCredentials,
	4000007: ErrIdentifierExists,
	4000010: ErrAddressNotVerified,
	4000031: ErrPasswordPolicy,
	4000032: ErrPasswordPolicy,
	4000033: ErrPasswordPolicy,
	4000034: ErrPasswordPolicy,
}

type uiMessage struct {
	id   int64
	text string
}

// uiMessages collects the error messages of a flow body, global ones first.
func uiMessages(body []byte) []uiMessage {
	var msgs []uiMessage

	collect := func(_, m gjson.Result) bool {
		if m.Get("type").String() == "error" {
			msgs = append(msgs, uiMessage{id: m.Get("id").Int(), text: m.Get("text").String()})
		}
		return true
	}

	ui := gjson.GetBytes(body, "ui")
	ui.Get("messages").ForEach(collect)
	ui.Get("nodes").ForEach(func(_, n gjson.Result) bool {
		n.Get("messages").ForEach(collect)
		return true
	})

	return msgs
}

// classify turns a client-go error into one of the package sentinels when
// the response carries a known message id, keeping the provider text.
func classify(err error, r *http.Response) error {
	var apiErr *ory.GenericOpenAPIError
	if !errors.As(err, &apiErr) {
		return err
	}

	body := apiErr.Body()

	if r != nil && r.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrNoSession, gjson.GetBytes(body, "error.reason").String())
	}

	msgs := uiMessages(body)
	for _, m := range msgs {
		if sentinel, ok := messageErrors[m.id]; ok {
			return fmt.Errorf("%w: %s", sentinel, m.text)
		}
	}

	if len(msgs) > 0 {
		return fmt.Errorf("%w: %s", ErrUnexpectedResponse, msgs[0].text)
	}

	if reason := gjson.GetBytes(body, "error.message").String(); reason != "" {
		return fmt.Errorf("%w: %s", ErrUnexpectedResponse, reason)
	}

	return fmt.Errorf("%w: %s", ErrUnexpectedResponse, apiErr.Error())
}
