// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ory/hydra/v2/oauth2"

	httptypes "github.com/canonical/customer-portal/internal/http/types"
	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/storage"
	"github.com/canonical/customer-portal/pkg/accounts"
)

// APIKeyHeader carries the shared secret configured on the identity
// provider web hook.
const APIKeyHeader = "X-Webhook-Key"

type API struct {
	service ServiceInterface
	apiKey  string
	logger  logging.LoggerInterface
}

// NewAPI returns the webhook endpoints, an empty apiKey disables the
// shared secret check.
func NewAPI(service ServiceInterface, apiKey string, logger logging.LoggerInterface) *API {
	return &API{
		service: service,
		apiKey:  apiKey,
		logger:  logger,
	}
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Post("/webhooks/registration", a.registration)
	mux.Post("/webhooks/token", a.tokenHook)
}

// authorized checks the shared secret and answers 401 itself when it does
// not match.
func (a *API) authorized(w http.ResponseWriter, r *http.Request) bool {
	if a.apiKey == "" || subtle.ConstantTimeCompare([]byte(r.Header.Get(APIKeyHeader)), []byte(a.apiKey)) == 1 {
		return true
	}

	a.logger.Security().AuthnTokenInvalid("webhook")
	a.check(httptypes.WriteError(w, http.StatusUnauthorized, "invalid_webhook_key", "invalid webhook key"))

	return false
}

// tokenHook answers with the bare hook response, Hydra does not read the
// API envelope.
func (a *API) tokenHook(w http.ResponseWriter, r *http.Request) {
	if !a.authorized(w, r) {
		return
	}

	req := new(oauth2.TokenHookRequest)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		a.logger.Errorf("failed to decode token hook payload: %v", err)
		a.check(httptypes.WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body"))
		return
	}

	resp, err := a.service.HandleTokenHook(r.Context(), req)

	switch {
	case err == nil:
		a.check(httptypes.WriteJSON(w, http.StatusOK, resp))
	case errors.Is(err, ErrInvalidSession):
		a.check(httptypes.WriteError(w, http.StatusBadRequest, "invalid_session", err.Error()))
	default:
		a.logger.Errorf("failed to handle token hook: %v", err)
		a.check(httptypes.WriteError(w, http.StatusInternalServerError, "internal", "failed to handle token hook"))
	}
}

func (a *API) registration(w http.ResponseWriter, r *http.Request) {
	if !a.authorized(w, r) {
		return
	}

	var identity KratosIdentity
	if err := json.NewDecoder(r.Body).Decode(&identity); err != nil {
		a.logger.Errorf("failed to decode registration payload: %v", err)
		a.check(httptypes.WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body"))
		return
	}

	p, err := a.service.HandleRegistration(r.Context(), identity)

	switch {
	case err == nil:
		a.check(httptypes.WriteData(w, http.StatusOK, "registration handled", p))
	case errors.Is(err, ErrInvalidIdentity):
		a.check(httptypes.WriteError(w, http.StatusBadRequest, "invalid_identity", err.Error()))
	case errors.Is(err, storage.ErrDuplicateKey):
		a.check(httptypes.WriteError(w, http.StatusConflict, "already_linked", err.Error()))
	case errors.Is(err, accounts.ErrUnknownAccount):
		a.check(httptypes.WriteError(w, http.StatusUnprocessableEntity, "unknown_account", err.Error()))
	default:
		a.logger.Errorf("failed to handle registration: %v", err)
		a.check(httptypes.WriteError(w, http.StatusInternalServerError, "internal", "failed to handle registration"))
	}
}

func (a *API) check(err error) {
	if err != nil {
		a.logger.Errorf("failed to write response: %v", err)
	}
}
