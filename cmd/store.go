// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical/customer-portal/internal/authorization"
	"github.com/canonical/customer-portal/internal/config"
	"github.com/canonical/customer-portal/internal/db"
	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/openfga"
	"github.com/canonical/customer-portal/internal/storage"
	"github.com/canonical/customer-portal/internal/tracing"
)

var errNoDSN = errors.New("no database DSN, pass --dsn or set DSN")

// operator bundles what the one-shot CLI commands need, without tracing
// and metrics.
type operator struct {
	db    *db.DBClient
	store *storage.Storage

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (o *operator) Close() {
	o.db.Close()
	_ = o.logger.Sync()
}

func newOperator() (*operator, error) {
	if dsn == "" {
		return nil, errNoDSN
	}

	o := new(operator)

	o.logger = logging.NewLogger(logLevel)
	o.tracer = tracing.NewNoopTracer()
	o.monitor = monitoring.NewNoopMonitor("customer-portal", o.logger)

	client, err := db.NewDBClient(db.Config{DSN: dsn, MaxConns: 2, MinConns: 1}, o.tracer, o.monitor, o.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database client: %w", err)
	}

	o.db = client
	o.store = storage.NewStorage(client, o.tracer, o.monitor, o.logger)

	return o, nil
}

// newAuthorizer returns the OpenFGA backed authorizer when authorization
// is enabled, and one over the noop client otherwise.
func newAuthorizer(specs *config.EnvSpec, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*authorization.Authorizer, error) {
	if !specs.AuthorizationEnabled {
		logger.Info("Using noop authorizer")
		return authorization.NewAuthorizer(openfga.NewNoopClient(tracer, monitor, logger), tracer, monitor, logger), nil
	}

	ofga, err := openfga.NewClient(
		openfga.NewConfig(
			specs.OpenfgaApiURL,
			specs.OpenfgaStoreId,
			specs.OpenfgaApiToken,
			specs.OpenfgaModelId,
			specs.Debug,
			tracer,
			monitor,
			logger,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openfga client: %w", err)
	}

	authorizer := authorization.NewAuthorizer(ofga, tracer, monitor, logger)

	logger.Info("Authorization is enabled")
	if err := authorizer.ValidateModel(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid authorization model: %w", err)
	}

	return authorizer, nil
}
