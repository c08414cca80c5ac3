// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/canonical/customer-portal/internal/config"
	"github.com/canonical/customer-portal/internal/db"
	"github.com/canonical/customer-portal/internal/kratos"
	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring/prometheus"
	"github.com/canonical/customer-portal/internal/storage"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/pkg/accounts"
	"github.com/canonical/customer-portal/pkg/auth"
	"github.com/canonical/customer-portal/pkg/authentication"
	"github.com/canonical/customer-portal/pkg/identity"
	"github.com/canonical/customer-portal/pkg/pages"
	"github.com/canonical/customer-portal/pkg/session"
	"github.com/canonical/customer-portal/pkg/tickets"
	"github.com/canonical/customer-portal/pkg/web"
	"github.com/canonical/customer-portal/pkg/webhooks"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the web application, list of environment variables is available in the readme`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := serve(); err != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		return fmt.Errorf("issues with environment sourcing: %w", err)
	}

	logger := logging.NewLogger(specs.LogLevel)
	defer logger.Sync()

	monitor := prometheus.NewMonitor("customer-portal", logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	dbConfig := db.Config{
		DSN:             specs.DSN,
		MaxConns:        specs.DBMaxConns,
		MinConns:        specs.DBMinConns,
		MaxConnLifetime: specs.DBMaxConnLifetime,
		MaxConnIdleTime: specs.DBMaxConnIdleTime,
		TracingEnabled:  specs.TracingEnabled,
	}
	dbClient, err := db.NewDBClient(dbConfig, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to create database client: %v", err)
	}
	defer dbClient.Close()
	s := storage.NewStorage(dbClient, tracer, monitor, logger)

	authorizer, err := newAuthorizer(specs, tracer, monitor, logger)
	if err != nil {
		return err
	}

	// role checks go to the store procedures unless OpenFGA is enabled
	var authz auth.AuthzInterface = s
	if specs.AuthorizationEnabled {
		authz = authorizer
	}

	kratosClient := kratos.NewClient(specs.KratosPublicURL, specs.KratosAdminURL, tracer, monitor, logger)
	returnTo := strings.TrimSuffix(specs.BaseURL, "/") + "/auth"

	registry := session.NewRegistry(
		func(_ context.Context, visitorID, token string) (*session.Context, error) {
			client := identity.NewClient(kratosClient, token, returnTo, tracer, monitor, logger.With("visitor", visitorID))
			authService := auth.NewService(client, s, authz, tracer, monitor, logger)

			return session.NewContext(client, authService, tracer, monitor, logger), nil
		},
		specs.VisitorIdleTimeout,
		tracer,
		monitor,
		logger,
	)

	ticketService := tickets.NewService(s, tracer, monitor, logger)
	accountService := accounts.NewService(s, authorizer, tracer, monitor, logger)
	webhookService := webhooks.NewService(s, accountService, tracer, monitor, logger)

	ui, err := pages.NewUI(
		pages.NewRegistry(registry),
		ticketService,
		pages.NewCookies([]byte(specs.CookieHashKey), []byte(specs.CookieBlockKey), specs.CookieSecure),
		specs.SettleTimeout,
		specs.DefaultLocale,
		tracer,
		monitor,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create pages: %w", err)
	}

	var verifier authentication.TokenVerifierInterface = authentication.NewNoopVerifier()
	if specs.APIAuthenticationEnabled {
		verifier, err = authentication.NewVerifier(
			context.Background(),
			authentication.VerifierConfig{
				Issuer:          specs.OIDCIssuer,
				JWKSURL:         specs.OIDCJWKSURL,
				AllowedSubjects: specs.AllowedSubjects,
				RequiredScope:   specs.RequiredScope,
			},
			kratosClient,
			tracer,
			monitor,
			logger,
		)
		if err != nil {
			return fmt.Errorf("failed to create token verifier: %w", err)
		}
	} else {
		logger.Warn("API authentication is disabled, bearer tokens are trusted as identity IDs")
	}

	router := web.NewRouter(
		ui,
		[]web.EndpointsInterface{
			auth.NewAPI(s, authz, tracer, monitor, logger),
			tickets.NewAPI(ticketService, tracer, monitor, logger),
		},
		webhooks.NewAPI(webhookService, specs.WebhookAPIKey, logger),
		verifier,
		dbClient,
		specs.AllowedOrigins,
		tracer,
		monitor,
		logger,
	)

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go registry.Run(sweeperCtx)

	logger.Infof("Starting HTTP server on port %v", specs.Port)

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      router,
	}

	var serverError error
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Security().SystemStartup()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError = fmt.Errorf("server error: %w", err)
			c <- os.Interrupt
		}
	}()

	<-c

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Security().SystemShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		serverError = fmt.Errorf("server shutdown error: %w", err)
	}

	stopSweeper()
	registry.Close()

	return serverError
}
