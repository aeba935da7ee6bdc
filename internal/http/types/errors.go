// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/canonical/organization-service/internal/storage"
	"github.com/canonical/organization-service/internal/types"
)

const internalErrorMessage = "internal server error"

// StatusFromError maps an error class to an HTTP status and a client-safe message.
func StatusFromError(err error) (int, string) {
	var validationErrs validator.ValidationErrors

	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.As(err, &validationErrs):
		return http.StatusBadRequest, describeValidation(validationErrs)
	case errors.Is(err, types.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, types.ErrUnauthenticated):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, types.ErrAlreadyMember):
		return http.StatusConflict, "already a member"
	case errors.Is(err, types.ErrInvitationExpired):
		return http.StatusGone, err.Error()
	case errors.Is(err, types.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, types.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, storage.ErrCheckViolation):
		return http.StatusBadRequest, fmt.Sprintf("%s: %s", types.ErrValidation, storage.ErrCheckViolation)
	}

	// constraint names stay server side
	for _, sentinel := range []error{storage.ErrDuplicateKey, storage.ErrForeignKeyViolation, storage.ErrImmutable} {
		if errors.Is(err, sentinel) {
			return http.StatusConflict, sentinel.Error()
		}
	}

	return http.StatusInternalServerError, internalErrorMessage
}

func describeValidation(errs validator.ValidationErrors) string {
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, fmt.Sprintf("%s failed on %s", strings.ToLower(e.Field()), e.Tag()))
	}
	return fmt.Sprintf("%s: %s", types.ErrValidation, strings.Join(fields, ", "))
}

// NewValidationError wraps a client input problem in the validation class.
func NewValidationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", types.ErrValidation, fmt.Sprintf(format, args...))
}
