// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"net/http"

	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/types"
)

// Response is the standard json envelope of successful responses.
type Response struct {
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Meta    *Pagination `json:"_meta,omitempty"`
}

// ErrorResponse is the standard json body of failed responses.
// Code is set for errors clients are expected to branch on.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type Pagination struct {
	Page int64 `json:"page"`
	Size int64 `json:"size"`
}

// WriteJSON writes body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body interface{}, logger logging.LoggerInterface) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if body == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Errorf("failed to encode response: %v", err)
	}
}

// WriteResponse wraps data in the standard envelope.
func WriteResponse(w http.ResponseWriter, status int, data interface{}, message string, meta *Pagination, logger logging.LoggerInterface) {
	WriteJSON(
		w,
		status,
		Response{
			Data:    data,
			Message: message,
			Status:  status,
			Meta:    meta,
		},
		logger,
	)
}

// WriteError maps err to its status code and writes the error body. Errors
// outside the known classes are logged and reported without details.
func WriteError(w http.ResponseWriter, err error, logger logging.LoggerInterface) {
	status, message := StatusFromError(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("request failed: %v", err)
	}

	WriteJSON(w, status, ErrorResponse{Status: status, Message: message, Code: types.ErrorCode(err)}, logger)
}
