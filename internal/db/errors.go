// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import "errors"

var (
	// ErrCommit wraps failures of the final COMMIT; the work already ran.
	ErrCommit = errors.New("failed to commit transaction")
	// ErrBegin wraps failures to open the transaction carried by a context;
	// statements bound to it fail instead of running outside of it.
	ErrBegin = errors.New("failed to begin transaction")
	// ErrRequestFailed marks a request transaction rolled back because the
	// handler answered with an error status.
	ErrRequestFailed = errors.New("request failed")
)
