// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	if err := WriteError(w, http.StatusConflict, "no_account_link", "profile has no account"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", w.Code)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected json content type, got %q", ct)
	}

	var body ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("expected json body, got %v", err)
	}

	if body.Status != http.StatusConflict || body.Reason != "no_account_link" || body.Message != "profile has no account" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestWriteData(t *testing.T) {
	w := httptest.NewRecorder()

	_ = WriteData(w, http.StatusCreated, "created", map[string]string{"id": "t-1"})

	var body struct {
		Data    map[string]string `json:"data"`
		Status  int               `json:"status"`
		Message string            `json:"message"`
	}

	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("expected json body, got %v", err)
	}

	if body.Data["id"] != "t-1" || body.Status != http.StatusCreated || body.Message != "created" {
		t.Errorf("unexpected body %+v", body)
	}
}
