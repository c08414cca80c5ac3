// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tickets

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	httptypes "github.com/canonical/customer-portal/internal/http/types"
	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/pkg/authentication"
)

// API exposes ticket creation to authenticated API callers.
type API struct {
	service ServiceInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Post("/api/v0/tickets", a.handleCreate)
}

func (a *API) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "tickets.API.handleCreate")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		a.check(httptypes.WriteError(w, http.StatusUnauthorized, "unauthenticated", ErrNotSignedIn.Error()))
		return
	}

	var d Draft
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&d); err != nil {
		a.check(httptypes.WriteError(w, http.StatusBadRequest, "invalid_body", "request body is not a valid ticket"))
		return
	}

	t, err := a.service.Create(ctx, userID, d)

	var verr *ValidationError

	switch {
	case err == nil:
		a.check(httptypes.WriteData(w, http.StatusCreated, "ticket created", t))
	case errors.As(err, &verr):
		a.check(httptypes.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"status":  http.StatusBadRequest,
			"message": verr.Error(),
			"reason":  "invalid_ticket",
			"fields":  verr.Fields,
		}))
	case errors.Is(err, ErrNoAccountLink):
		a.check(httptypes.WriteError(w, http.StatusConflict, "no_account_link", err.Error()))
	default:
		a.logger.Errorf("failed to create ticket: %v", err)
		a.check(httptypes.WriteError(w, http.StatusInternalServerError, "internal", "failed to create ticket"))
	}
}

func (a *API) check(err error) {
	if err != nil {
		a.logger.Errorf("failed to write response: %v", err)
	}
}

func NewAPI(service ServiceInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.service = service

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
