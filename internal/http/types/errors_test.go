// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/storage"
	"github.com/canonical/organization-service/internal/types"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedMessage string
	}{
		{"validation", NewValidationError("email is required"), http.StatusBadRequest, "validation failed: email is required"},
		{"unauthenticated", types.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{"forbidden", types.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"email mismatch", types.ErrEmailMismatch, http.StatusForbidden, types.ErrEmailMismatch.Error()},
		{"not found", fmt.Errorf("lookup: %w", types.ErrOrgNotFound), http.StatusNotFound, "lookup: organization not found"},
		{"storage not found", storage.ErrNotFound, http.StatusNotFound, storage.ErrNotFound.Error()},
		{"conflict", types.ErrLastOwner, http.StatusConflict, types.ErrLastOwner.Error()},
		{"duplicate key", storage.ErrDuplicateKey, http.StatusConflict, storage.ErrDuplicateKey.Error()},
		{"constraint name hidden", fmt.Errorf("failed to insert membership (organization_members_active_idx): %w", storage.ErrDuplicateKey), http.StatusConflict, storage.ErrDuplicateKey.Error()},
		{"restrict violation", fmt.Errorf("failed to delete role: %w", storage.ErrForeignKeyViolation), http.StatusConflict, storage.ErrForeignKeyViolation.Error()},
		{"check violation", storage.ErrCheckViolation, http.StatusBadRequest, "validation failed: check constraint violation"},
		{"audit log immutable", storage.ErrImmutable, http.StatusConflict, storage.ErrImmutable.Error()},
		{"already member", fmt.Errorf("accept: %w", types.ErrAlreadyMember), http.StatusConflict, "already a member"},
		{"invitation processed", types.ErrInvitationProcessed, http.StatusConflict, types.ErrInvitationProcessed.Error()},
		{"invitation expired", types.ErrInvitationExpired, http.StatusGone, types.ErrInvitationExpired.Error()},
		{"invitation invalid", types.ErrInvitationInvalid, http.StatusNotFound, types.ErrInvitationInvalid.Error()},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := StatusFromError(tt.err)

			if status != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, status)
			}

			if message != tt.expectedMessage {
				t.Errorf("expected message %q, got %q", tt.expectedMessage, message)
			}
		})
	}
}

func TestStatusFromValidatorErrors(t *testing.T) {
	type body struct {
		Email string `validate:"required,email"`
	}

	err := validator.New().Struct(body{Email: "not-an-email"})

	status, message := StatusFromError(err)
	if status != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, status)
	}

	if message != "validation failed: email failed on email" {
		t.Errorf("unexpected message %q", message)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteError(rr, errors.New("boom"), logging.NewNoopLogger())

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}

	var body ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	if body.Status != http.StatusInternalServerError || body.Message != "internal server error" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestWriteErrorCodes(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode string
	}{
		{"already member", fmt.Errorf("accept: %w", types.ErrAlreadyMember), types.CodeAlreadyMember},
		{"invitation processed", types.ErrInvitationProcessed, types.CodeInvitationProcessed},
		{"invitation expired", types.ErrInvitationExpired, types.CodeInvitationExpired},
		{"invitation invalid", types.ErrInvitationInvalid, types.CodeInvitationInvalid},
		{"pending invitation", types.ErrPendingInvite, types.CodePendingInvitation},
		{"last owner", types.ErrLastOwner, types.CodeLastOwner},
		{"role in use", types.ErrRoleInUse, types.CodeRoleInUse},
		{"email mismatch", types.ErrEmailMismatch, types.CodeEmailMismatch},
		{"role escalation", types.ErrRoleEscalation, types.CodeRoleEscalation},
		{"plain conflict", types.ErrConflict, ""},
		{"duplicate key", storage.ErrDuplicateKey, ""},
		{"internal", errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteError(rr, tt.err, logging.NewNoopLogger())

			var body map[string]interface{}
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}

			code, present := body["code"]
			if tt.expectedCode == "" {
				if present {
					t.Errorf("expected no code, got %v", code)
				}
				return
			}

			if code != tt.expectedCode {
				t.Errorf("expected code %q, got %v", tt.expectedCode, code)
			}
		})
	}
}

func TestWriteResponse(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteResponse(rr, http.StatusCreated, map[string]string{"id": "1"}, "created", &Pagination{Page: 1, Size: 10}, logging.NewNoopLogger())

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	if body["message"] != "created" || body["status"] != float64(http.StatusCreated) {
		t.Errorf("unexpected envelope %v", body)
	}

	if _, ok := body["_meta"]; !ok {
		t.Errorf("expected _meta in envelope")
	}
}
