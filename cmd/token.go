// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/canonical/customer-portal/internal/kratos"
	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
)

var (
	clientID     string
	clientSecret string
	tokenURL     string
	issuerURL    string
	scopes       []string

	kratosPublicURL string
	email           string
	password        string
)

// tokenCmd prints a bearer token for the /api/v0 endpoints.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Get a bearer token for the portal API",
}

var clientCredentialsCmd = &cobra.Command{
	Use:   "client-credentials",
	Short: "Get an access token using the client credentials flow, for OIDC protected deployments",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if tokenURL == "" {
			if issuerURL == "" {
				return errors.New("either --token-url or --issuer-url must be provided")
			}

			provider, err := oidc.NewProvider(ctx, issuerURL)
			if err != nil {
				return fmt.Errorf("failed to discover issuer %s: %w", issuerURL, err)
			}

			tokenURL = provider.Endpoint().TokenURL
		}

		config := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
		}

		token, err := config.Token(ctx)
		if err != nil {
			return fmt.Errorf("failed to get token: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)

		return nil
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Sign in with email and password and print the identity provider session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.NewLogger(logLevel)
		client := kratos.NewClient(kratosPublicURL, kratosPublicURL, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("customer-portal", logger), logger)

		s, err := client.Login(cmd.Context(), email, password)
		if err != nil {
			return fmt.Errorf("failed to sign in: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), s.Token)

		return nil
	},
}

func init() {
	clientCredentialsCmd.Flags().StringVar(&clientID, "client-id", "", "Client ID")
	clientCredentialsCmd.Flags().StringVar(&clientSecret, "client-secret", "", "Client Secret")
	clientCredentialsCmd.Flags().StringVar(&tokenURL, "token-url", "", "Token URL")
	clientCredentialsCmd.Flags().StringVar(&issuerURL, "issuer-url", "", "Issuer URL (for OIDC discovery)")
	clientCredentialsCmd.Flags().StringSliceVar(&scopes, "scopes", []string{}, "Scopes (comma-separated)")

	_ = clientCredentialsCmd.MarkFlagRequired("client-id")
	_ = clientCredentialsCmd.MarkFlagRequired("client-secret")

	sessionCmd.Flags().StringVar(&kratosPublicURL, "kratos-public-url", "http://localhost:4433", "Kratos public API URL")
	sessionCmd.Flags().StringVar(&email, "email", "", "email address")
	sessionCmd.Flags().StringVar(&password, "password", "", "password")

	_ = sessionCmd.MarkFlagRequired("email")
	_ = sessionCmd.MarkFlagRequired("password")

	tokenCmd.AddCommand(clientCredentialsCmd, sessionCmd)
	rootCmd.AddCommand(tokenCmd)
}
