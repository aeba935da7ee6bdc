// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"errors"
	"fmt"
)

// Domain error classes. Callers match them with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// Specific errors belong to exactly one class.
var (
	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)
	ErrOrgNotFound    = fmt.Errorf("organization %w", ErrNotFound)
	ErrRoleNotFound   = fmt.Errorf("role %w", ErrNotFound)
	ErrMemberNotFound = fmt.Errorf("member %w", ErrNotFound)

	ErrAlreadyMember = fmt.Errorf("%w: already a member", ErrConflict)
	ErrLastOwner     = fmt.Errorf("%w: organization must keep at least one active owner", ErrConflict)
	ErrRoleInUse     = fmt.Errorf("%w: role is still assigned", ErrConflict)
	ErrPendingInvite = fmt.Errorf("%w: a pending invitation already exists for this email", ErrConflict)

	ErrEmailMismatch  = fmt.Errorf("%w: invitation was issued to a different email", ErrForbidden)
	ErrRoleEscalation = fmt.Errorf("%w: role grants permissions the caller does not hold", ErrForbidden)

	ErrInvitationInvalid   = fmt.Errorf("invitation is invalid: %w", ErrNotFound)
	ErrInvitationProcessed = fmt.Errorf("%w: invitation has already been processed", ErrConflict)
	ErrInvitationExpired   = errors.New("invitation has expired")
)
