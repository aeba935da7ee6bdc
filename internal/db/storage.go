// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
)

const (
	defaultPage        uint64 = 1
	defaultPageSize    uint64 = 100
	maxPageSize        uint64 = 500
	defaultTxTimeout          = time.Minute
	defaultApplication        = "organization-service"
)

type lazyTxContextKey struct{}

type Config struct {
	DSN             string
	ApplicationName string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	TracingEnabled  bool
}

// Offset returns the row offset of a 1-based page.
func Offset(pageParam int64, pageSize uint64) uint64 {
	if pageParam <= 0 {
		return (defaultPage - 1) * pageSize
	}
	return uint64(pageParam-1) * pageSize
}

// PageSize clamps the requested page size to (0, maxPageSize].
func PageSize(sizeParam int64) uint64 {
	switch {
	case sizeParam <= 0:
		return defaultPageSize
	case uint64(sizeParam) > maxPageSize:
		return maxPageSize
	default:
		return uint64(sizeParam)
	}
}

// lazyTx opens its transaction on the first statement, so requests that
// never touch the database never hold a connection.
type lazyTx struct {
	db     *sql.DB
	tx     *sql.Tx
	cancel context.CancelFunc
	done   bool
	// beginErr is sticky, later statements see the same failure
	beginErr error
	// savepoints opened so far, names nested WithTx blocks
	savepoints int
}

func (lt *lazyTx) get() (*sql.Tx, error) {
	if lt.tx != nil {
		return lt.tx, nil
	}
	if lt.beginErr != nil {
		return nil, lt.beginErr
	}

	// detached from the request context, bounded by defaultTxTimeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTxTimeout)
	tx, err := lt.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		cancel()
		lt.beginErr = fmt.Errorf("%w: %w", ErrBegin, err)
		return nil, lt.beginErr
	}

	lt.tx = tx
	lt.cancel = cancel
	return tx, nil
}

func (lt *lazyTx) commit() error {
	if lt.tx == nil {
		return nil
	}
	if err := lt.tx.Commit(); err != nil {
		return err
	}
	lt.done = true
	return nil
}

func (lt *lazyTx) rollback() error {
	if lt.tx == nil || lt.done {
		return nil
	}
	lt.done = true
	if err := lt.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// nested runs fn inside a savepoint of the open transaction, so a failing
// inner block undoes only its own writes and leaves the outer one usable.
func (lt *lazyTx) nested(ctx context.Context, fn func(context.Context) error) error {
	tx, err := lt.get()
	if err != nil {
		return err
	}

	lt.savepoints++
	name := fmt.Sprintf("nested_%d", lt.savepoints)

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to open savepoint: %w", err)
	}

	if err := fn(ctx); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back savepoint: %w", rbErr))
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}

	return nil
}

func (lt *lazyTx) release() {
	if lt.cancel != nil {
		lt.cancel()
	}
}

func lazyTxFromContext(ctx context.Context) *lazyTx {
	if lt, ok := ctx.Value(lazyTxContextKey{}).(*lazyTx); ok {
		return lt
	}
	return nil
}

// InTx reports whether ctx carries a transaction opened by WithTx.
func InTx(ctx context.Context) bool {
	return lazyTxFromContext(ctx) != nil
}

type DBClient struct {
	// pool is kept to close the native pgx pool
	pool *pgxpool.Pool
	db   *sql.DB

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Statement returns a statement builder bound to the transaction carried by
// ctx, or to the pool when there is none. When that transaction cannot be
// opened every statement fails with ErrBegin.
func (d *DBClient) Statement(ctx context.Context) sq.StatementBuilderType {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	lt := lazyTxFromContext(ctx)
	if lt == nil {
		return builder.RunWith(d.db)
	}

	tx, err := lt.get()
	if err != nil {
		d.logger.Errorf("statement not run: %v", err)
		return builder.RunWith(failedRunner{err: err})
	}

	return builder.RunWith(tx)
}

// WithTx runs fn in a transaction that is committed when fn returns nil and
// rolled back otherwise. Nested calls, including those under
// TransactionMiddleware, run in a savepoint of the outermost transaction,
// which alone commits.
func (d *DBClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if lt := lazyTxFromContext(ctx); lt != nil {
		return lt.nested(ctx, fn)
	}

	ctx, span := d.tracer.Start(ctx, "db.DBClient.WithTx")
	defer span.End()

	lt := &lazyTx{db: d.db}
	defer lt.release()
	defer func() {
		if err := lt.rollback(); err != nil {
			d.logger.Errorf("failed to rollback transaction: %v", err)
		}
	}()

	if err := fn(context.WithValue(ctx, lazyTxContextKey{}, lt)); err != nil {
		return err
	}

	if err := lt.commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrCommit, err)
	}

	return nil
}

// AdvisoryLock takes a transaction-scoped postgres advisory lock on key. It
// is held until the surrounding transaction ends; outside one it is released
// as soon as the statement completes.
func (d *DBClient) AdvisoryLock(ctx context.Context, key string) error {
	ctx, span := d.tracer.Start(ctx, "db.DBClient.AdvisoryLock")
	defer span.End()

	_, err := d.Statement(ctx).
		Select().
		Column(sq.Expr("pg_advisory_xact_lock(hashtext(?))", key)).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	return nil
}

func (d *DBClient) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
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

	application := cfg.ApplicationName
	if application == "" {
		application = defaultApplication
	}
	config.ConnConfig.RuntimeParams["application_name"] = application

	if cfg.TracingEnabled {
		// uses the global TracerProvider, same as the tracing package
		config.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	if cfg.MaxConns > 0 {
		config.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		config.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		config.MaxConnLifetime = cfg.MaxConnLifetime
		config.MaxConnLifetimeJitter = cfg.MaxConnLifetime / 10
	}
	if cfg.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if cfg.TracingEnabled {
		if err := otelpgx.RecordStats(pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to start metrics collection for database: %w", err)
		}
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		pool.Close()
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	logger.Infof("connected to postgres as %s, pool size %d-%d", application, config.MinConns, config.MaxConns)

	return &DBClient{
		pool:    pool,
		db:      db,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}, nil
}
