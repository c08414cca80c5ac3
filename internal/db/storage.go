// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
)

const defaultTxTimeout = 30 * time.Second

type txKey struct{}

type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	TracingEnabled  bool
}

// deferredTx opens its transaction on first use, so that a request which
// never touches the database never pays for BEGIN/COMMIT.
// Concurrent statements within one request share it.
type deferredTx struct {
	mu sync.Mutex

	db     *sql.DB
	tx     *sql.Tx
	cancel context.CancelFunc
	done   bool
}

func (t *deferredTx) runner() (TxInterface, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil, sql.ErrTxDone
	}

	if t.tx != nil {
		return t.tx, nil
	}

	// detached from the request context: a client hanging up must not
	// roll back work the handler already decided to commit
	ctx, cancel := context.WithTimeout(context.Background(), defaultTxTimeout)

	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		cancel()
		return nil, err
	}

	t.tx = tx
	t.cancel = cancel

	return tx, nil
}

func (t *deferredTx) finish(commit bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done = true

	if t.cancel != nil {
		defer t.cancel()
	}

	if t.tx == nil {
		return nil
	}

	if commit {
		return t.tx.Commit()
	}

	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}

	return nil
}

type DBClient struct {
	pool *pgxpool.Pool
	db   *sql.DB

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Statement returns a Postgres flavoured builder bound to the transaction
// carried by ctx, or to the pool when there is none.
func (d *DBClient) Statement(ctx context.Context) sq.StatementBuilderType {
	b := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	if t, ok := ctx.Value(txKey{}).(*deferredTx); ok {
		tx, err := t.runner()
		if err == nil {
			return b.RunWith(tx)
		}

		d.logger.Errorf("failed to open transaction, running outside of it: %v", err)
	}

	return b.RunWith(d.db)
}

// WithTx runs fn with a context carrying a deferred transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (d *DBClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	ctx, span := d.tracer.Start(ctx, "db.DBClient.WithTx")
	defer span.End()

	t := &deferredTx{db: d.db}

	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		if rerr := t.finish(false); rerr != nil {
			d.logger.Errorf("failed to rollback transaction: %v", rerr)
		}

		return err
	}

	if err := t.finish(true); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (d *DBClient) Ping(ctx context.Context) error {
	ctx, span := d.tracer.Start(ctx, "db.DBClient.Ping")
	defer span.End()

	err := d.pool.Ping(ctx)

	available := 1.0
	if err != nil {
		available = 0
	}

	_ = d.monitor.SetDependencyAvailability(map[string]string{"component": "database"}, available)

	return err
}

func (d *DBClient) Close() {
	if d.db != nil {
		_ = d.db.Close()
	}

	if d.pool != nil {
		d.pool.Close()
	}
}

func NewDBClient(cfg Config, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*DBClient, error) {
	config, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid DSN: %w", err)
	}

	if cfg.TracingEnabled {
		config.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	config.MaxConns = cfg.MaxConns
	config.MinConns = cfg.MinConns
	config.MaxConnLifetime = cfg.MaxConnLifetime
	config.MaxConnLifetimeJitter = cfg.MaxConnLifetime / 10
	config.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if cfg.TracingEnabled {
		if err := otelpgx.RecordStats(pool); err != nil {
			return nil, fmt.Errorf("failed to start metrics collection for database: %w", err)
		}
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	d := new(DBClient)
	d.pool = pool
	d.db = db

	d.tracer = tracer
	d.monitor = monitor
	d.logger = logger

	return d, nil
}

// DB exposes the database/sql handle, goose runs migrations through it.
func (d *DBClient) DB() *sql.DB {
	return d.db
}

var _ DBClientInterface = (*DBClient)(nil)
