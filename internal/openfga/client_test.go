// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package openfga

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	fga "github.com/openfga/go-sdk"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
)

const (
	testStoreID = "01GXSA8YR785C4FYS3C0RTG7B1"
	testModelID = "01GXSB9YR785C4FYS3C0RTG7B2"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := logging.NewNoopLogger()

	c, err := NewClient(NewConfig(srv.URL, testStoreID, "42", testModelID, false, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	return c
}

func TestClientCheck(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stores/"+testStoreID+"/check" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		if auth := r.Header.Get("Authorization"); auth != "Bearer 42" {
			t.Errorf("expected api token, got %q", auth)
		}

		var body struct {
			TupleKey struct {
				User     string `json:"user"`
				Relation string `json:"relation"`
				Object   string `json:"object"`
			} `json:"tuple_key"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		allowed := body.TupleKey.User == "user:1" && body.TupleKey.Relation == "account_admin" && body.TupleKey.Object == "account:a"

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"allowed": allowed})
	})

	tests := []struct {
		user     string
		expected bool
	}{
		{user: "user:1", expected: true},
		{user: "user:2", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			ok, err := c.Check(context.Background(), tt.user, "account_admin", "account:a")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if ok != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, ok)
			}
		})
	}
}

func TestClientWriteTuple(t *testing.T) {
	var written, onDuplicate string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/write") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var body struct {
			Writes struct {
				TupleKeys []struct {
					User     string `json:"user"`
					Relation string `json:"relation"`
					Object   string `json:"object"`
				} `json:"tuple_keys"`
				OnDuplicate string `json:"on_duplicate"`
			} `json:"writes"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		onDuplicate = body.Writes.OnDuplicate

		if len(body.Writes.TupleKeys) == 1 {
			k := body.Writes.TupleKeys[0]
			written = k.User + "#" + k.Relation + "@" + k.Object
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	})

	if err := c.WriteTuple(context.Background(), "user:1", "account_user", "account:a"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if written != "user:1#account_user@account:a" {
		t.Errorf("unexpected tuple written: %q", written)
	}

	if onDuplicate != "ignore" {
		t.Errorf("expected existing tuples to be ignored, got %q", onDuplicate)
	}
}

func TestSameJSON(t *testing.T) {
	a := []fga.TypeDefinition{{Type: "user"}, {Type: "account"}}
	b := []fga.TypeDefinition{{Type: "user"}, {Type: "account"}}
	c := []fga.TypeDefinition{{Type: "user"}}

	if ok, err := sameJSON(a, b); err != nil || !ok {
		t.Errorf("expected equal definitions, got %v, %v", ok, err)
	}

	if ok, _ := sameJSON(a, c); ok {
		t.Errorf("expected different definitions")
	}
}

func TestNoopClient(t *testing.T) {
	logger := logging.NewNoopLogger()
	c := NewNoopClient(tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)

	if ok, err := c.Check(context.Background(), "user:1", "account_admin", "account:a"); !ok || err != nil {
		t.Errorf("expected noop check to allow, got %v, %v", ok, err)
	}

	if err := c.WriteTuple(context.Background(), "user:1", "account_admin", "account:a"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
