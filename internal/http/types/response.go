// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	// Reason is a stable machine readable cause, e.g. no_account_link.
	Reason string `json:"reason,omitempty"`
}

type Response struct {
	Data    any    `json:"data"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// WriteJSON writes v with status, encoding failures are returned.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(v)
}

func WriteData(w http.ResponseWriter, status int, message string, data any) error {
	return WriteJSON(w, status, Response{Data: data, Status: status, Message: message})
}

func WriteError(w http.ResponseWriter, status int, reason, message string) error {
	return WriteJSON(w, status, ErrorResponse{Status: status, Message: message, Reason: reason})
}
