// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/canonical/customer-portal/pkg/authentication"
	"github.com/canonical/customer-portal/pkg/webhooks"
)

func middlewareCORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(
		cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{
				http.MethodHead,
				http.MethodGet,
				http.MethodPost,
				http.MethodOptions,
			},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				authentication.SessionTokenHeader,
				webhooks.APIKeyHeader,
			},
			AllowCredentials: false,
			MaxAge:           300,
		},
	)
}
