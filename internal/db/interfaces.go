// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"

	sq "github.com/Masterminds/squirrel"
)

type DBClientInterface interface {
	Statement(context.Context) sq.StatementBuilderType
	WithTx(context.Context, func(context.Context) error) error
	AdvisoryLock(ctx context.Context, key string) error
	Ping(context.Context) error
	Close()
}
