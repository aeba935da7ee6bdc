// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/canonical/organization-service/internal/types"
)

// APIError is a non-2xx answer from the service. It matches the specific
// error named by Code with errors.Is, and the domain error class of its
// status code otherwise.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	if specific := types.ErrorForCode(e.Code); specific != nil {
		return errors.Is(specific, target)
	}

	switch e.Status {
	case http.StatusBadRequest:
		return target == types.ErrValidation
	case http.StatusUnauthorized:
		return target == types.ErrUnauthenticated
	case http.StatusForbidden:
		return target == types.ErrForbidden
	case http.StatusNotFound:
		return target == types.ErrNotFound
	case http.StatusConflict:
		return target == types.ErrConflict
	case http.StatusGone:
		return target == types.ErrInvitationExpired
	}
	return false
}

func newAPIError(status int, body []byte) error {
	e := &APIError{Status: status}
	if err := json.Unmarshal(body, e); err != nil || e.Message == "" {
		e.Message = http.StatusText(status)
	}
	e.Status = status
	return e
}
