// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import "github.com/go-chi/chi/v5"

// EndpointsInterface is implemented by every API and page handler set.
type EndpointsInterface interface {
	RegisterEndpoints(mux chi.Router)
}
