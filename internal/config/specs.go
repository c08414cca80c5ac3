// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"true"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port           int      `envconfig:"port" default:"8080"`
	AllowedOrigins []string `envconfig:"allowed_origins" default:"*"`

	// BaseURL is the externally visible address of the portal, used for
	// the email confirmation redirect handed to the identity provider.
	BaseURL       string `envconfig:"base_url" default:"http://localhost:8080"`
	DefaultLocale string `envconfig:"default_locale" default:"sv"`

	KratosPublicURL string `envconfig:"kratos_public_url" required:"true"`
	KratosAdminURL  string `envconfig:"kratos_admin_url" required:"true"`

	CookieHashKey  string `envconfig:"cookie_hash_key" required:"true"`
	CookieBlockKey string `envconfig:"cookie_block_key"`
	CookieSecure   bool   `envconfig:"cookie_secure" default:"true"`

	VisitorIdleTimeout time.Duration `envconfig:"visitor_idle_timeout" default:"30m"`
	SettleTimeout      time.Duration `envconfig:"settle_timeout" default:"3s"`

	DSN string `envconfig:"DSN" required:"true"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	AuthorizationEnabled bool   `envconfig:"authorization_enabled" default:"false"`
	OpenfgaApiURL        string `envconfig:"openfga_api_url"`
	OpenfgaApiToken      string `envconfig:"openfga_api_token"`
	OpenfgaStoreId       string `envconfig:"openfga_store_id"`
	OpenfgaModelId       string `envconfig:"openfga_authorization_model_id" default:""`

	// WebhookAPIKey is the shared secret the identity provider sends with
	// its webhooks, unchecked when empty.
	WebhookAPIKey string `envconfig:"webhook_api_key"`

	// API bearer tokens are verified as OIDC JWTs when an issuer is set,
	// otherwise as identity provider session tokens.
	APIAuthenticationEnabled bool     `envconfig:"api_authentication_enabled" default:"true"`
	OIDCIssuer               string   `envconfig:"oidc_issuer"`
	OIDCJWKSURL              string   `envconfig:"oidc_jwks_url"`
	AllowedSubjects          []string `envconfig:"allowed_subjects"`
	RequiredScope            string   `envconfig:"required_scope"`
}
