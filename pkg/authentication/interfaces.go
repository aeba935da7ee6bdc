// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
)

type TokenVerifierInterface interface {
	// VerifyToken checks the token signature and the access policy and
	// returns the subject, which is the caller's identity id
	VerifyToken(ctx context.Context, rawToken string) (string, error)
}
