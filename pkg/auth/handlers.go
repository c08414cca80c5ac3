// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httptypes "github.com/canonical/customer-portal/internal/http/types"
	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/storage"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/internal/types"
	"github.com/canonical/customer-portal/pkg/authentication"
)

// Me is the API view of the caller.
type Me struct {
	*types.AuthUser
	AccountID    string `json:"account_id,omitempty"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

// RPCRequest is the body of the role procedure endpoints. UserID defaults
// to the caller, other users may only be queried by super admins.
type RPCRequest struct {
	UserID    string        `json:"user_id"`
	AccountID string        `json:"account_id"`
	Role      types.AppRole `json:"role"`
}

// API exposes the authenticated user and the role procedures to bearer
// token callers.
type API struct {
	store StorageInterface
	authz AuthzInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/v0/me", a.handleMe)
	mux.Post("/api/v0/rpc/has_role", a.handleHasRole)
	mux.Post("/api/v0/rpc/is_super_admin", a.handleIsSuperAdmin)
	mux.Post("/api/v0/rpc/get_user_account", a.handleGetUserAccount)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "auth.API.handleMe")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		a.check(httptypes.WriteError(w, http.StatusUnauthorized, "unauthenticated", "not signed in"))
		return
	}

	user, err := LoadUser(ctx, a.store, userID, "")
	if err != nil {
		a.internal(w, err)
		return
	}

	if user.Profile != nil {
		user.Email = user.Profile.Email
	}

	me := Me{AuthUser: user, AccountID: user.AccountID(), IsSuperAdmin: user.IsSuperAdmin()}

	a.check(httptypes.WriteData(w, http.StatusOK, "", me))
}

func (a *API) handleHasRole(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "auth.API.handleHasRole")
	defer span.End()

	req, ok := a.rpcRequest(w, r)
	if !ok {
		return
	}

	if !req.Role.Valid() {
		a.check(httptypes.WriteError(w, http.StatusBadRequest, "invalid_role", "invalid role"))
		return
	}

	has, err := a.authz.HasRole(ctx, req.UserID, req.AccountID, req.Role)
	if err != nil {
		a.fail(w, err)
		return
	}

	a.check(httptypes.WriteData(w, http.StatusOK, "", has))
}

func (a *API) handleIsSuperAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "auth.API.handleIsSuperAdmin")
	defer span.End()

	req, ok := a.rpcRequest(w, r)
	if !ok {
		return
	}

	is, err := a.authz.IsSuperAdmin(ctx, req.UserID)
	if err != nil {
		a.fail(w, err)
		return
	}

	a.check(httptypes.WriteData(w, http.StatusOK, "", is))
}

func (a *API) handleGetUserAccount(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "auth.API.handleGetUserAccount")
	defer span.End()

	req, ok := a.rpcRequest(w, r)
	if !ok {
		return
	}

	accountID, err := a.store.GetUserAccount(ctx, req.UserID)
	if err != nil {
		a.fail(w, err)
		return
	}

	var data *string
	if accountID != "" {
		data = &accountID
	}

	a.check(httptypes.WriteData(w, http.StatusOK, "", data))
}

// rpcRequest decodes the body and resolves the subject of the call. It
// writes the error response itself when ok is false.
func (a *API) rpcRequest(w http.ResponseWriter, r *http.Request) (req RPCRequest, ok bool) {
	ctx := r.Context()

	caller, signedIn := authentication.GetUserID(ctx)
	if !signedIn {
		a.check(httptypes.WriteError(w, http.StatusUnauthorized, "unauthenticated", "not signed in"))
		return req, false
	}

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		a.check(httptypes.WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body"))
		return req, false
	}

	for _, f := range [][2]string{{"user_id", req.UserID}, {"account_id", req.AccountID}} {
		if f[1] != "" && uuid.Validate(f[1]) != nil {
			a.check(httptypes.WriteError(w, http.StatusBadRequest, "invalid_argument", f[0]+" is not a valid UUID"))
			return req, false
		}
	}

	if req.UserID == "" || req.UserID == caller {
		req.UserID = caller
		return req, true
	}

	admin, err := a.authz.IsSuperAdmin(ctx, caller)
	if err != nil {
		a.internal(w, err)
		return req, false
	}

	if !admin {
		a.logger.Security().AuthzFailure(caller, "user:"+req.UserID)
		a.check(httptypes.WriteError(w, http.StatusForbidden, "forbidden", "cannot query other users"))
		return req, false
	}

	return req, true
}

// fail answers a backend error, values the store rejects are the caller's
// fault.
func (a *API) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrInvalidValue) {
		a.check(httptypes.WriteError(w, http.StatusBadRequest, "invalid_argument", "invalid argument"))
		return
	}

	a.internal(w, err)
}

func (a *API) internal(w http.ResponseWriter, err error) {
	a.logger.Errorf("request failed: %v", err)
	a.check(httptypes.WriteError(w, http.StatusInternalServerError, "internal", "internal error"))
}

func (a *API) check(err error) {
	if err != nil {
		a.logger.Errorf("failed to write response: %v", err)
	}
}

func NewAPI(store StorageInterface, authz AuthzInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.store = store
	a.authz = authz

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
