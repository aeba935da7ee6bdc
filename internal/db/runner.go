// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
)

var (
	_ sq.BaseRunner        = failedRunner{}
	_ sq.QueryRower        = failedRunner{}
	_ sq.ExecerContext     = failedRunner{}
	_ sq.QueryerContext    = failedRunner{}
	_ sq.QueryRowerContext = failedRunner{}
)

// failedRunner stands in for a transaction that could not be opened.
type failedRunner struct {
	err error
}

func (r failedRunner) Exec(string, ...interface{}) (sql.Result, error) {
	return nil, r.err
}

func (r failedRunner) Query(string, ...interface{}) (*sql.Rows, error) {
	return nil, r.err
}

func (r failedRunner) QueryRow(string, ...interface{}) sq.RowScanner {
	return failedRow(r)
}

func (r failedRunner) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, r.err
}

func (r failedRunner) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, r.err
}

func (r failedRunner) QueryRowContext(context.Context, string, ...interface{}) sq.RowScanner {
	return failedRow(r)
}

type failedRow struct {
	err error
}

func (r failedRow) Scan(...interface{}) error {
	return r.err
}
