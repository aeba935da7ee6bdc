// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import "errors"

// Error codes travel in the error envelope so clients can tell apart
// outcomes that share a status code.
const (
	CodeAlreadyMember       = "already_member"
	CodeInvitationProcessed = "invitation_processed"
	CodeInvitationExpired   = "invitation_expired"
	CodeInvitationInvalid   = "invitation_invalid"
	CodePendingInvitation   = "pending_invitation"
	CodeLastOwner           = "last_owner"
	CodeRoleInUse           = "role_in_use"
	CodeEmailMismatch       = "email_mismatch"
	CodeRoleEscalation      = "role_escalation"
)

// ordered from most to least specific
var codedErrors = []struct {
	code string
	err  error
}{
	{CodeAlreadyMember, ErrAlreadyMember},
	{CodeInvitationProcessed, ErrInvitationProcessed},
	{CodeInvitationExpired, ErrInvitationExpired},
	{CodeInvitationInvalid, ErrInvitationInvalid},
	{CodePendingInvitation, ErrPendingInvite},
	{CodeLastOwner, ErrLastOwner},
	{CodeRoleInUse, ErrRoleInUse},
	{CodeEmailMismatch, ErrEmailMismatch},
	{CodeRoleEscalation, ErrRoleEscalation},
}

// ErrorCode returns the code of the specific error err carries, or "".
func ErrorCode(err error) string {
	for _, c := range codedErrors {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

// ErrorForCode returns the error a code stands for, or nil when unknown.
func ErrorForCode(code string) error {
	for _, c := range codedErrors {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
