// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/canonical/organization-service/internal/logging"
)

// TransactionMiddleware runs every mutating request in one transaction,
// committed when the handler answers below 400 and rolled back otherwise.
// The response is held back until the transaction ends, a failed commit is
// answered with a 500. Safe methods run without one.
func TransactionMiddleware(db DBClientInterface, logger logging.LoggerInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			rw := newBufferedResponse()

			err := db.WithTx(r.Context(), func(txCtx context.Context) error {
				next.ServeHTTP(rw, r.WithContext(txCtx))

				if rw.status >= http.StatusBadRequest {
					return fmt.Errorf("%w with status %d", ErrRequestFailed, rw.status)
				}
				return nil
			})

			switch {
			case err == nil:
			case errors.Is(err, ErrRequestFailed):
				logger.Debugf("%s %s rolled back: %v", r.Method, r.URL.Path, err)
			default:
				logger.Errorf("%s %s answered %d but did not persist: %v", r.Method, r.URL.Path, rw.status, err)

				status := http.StatusInternalServerError
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				if err := json.NewEncoder(w).Encode(struct {
					Status  int    `json:"status"`
					Message string `json:"message"`
					Code    string `json:"code,omitempty"`
				}{Status: status, Message: http.StatusText(status)}); err != nil {
					logger.Errorf("failed to encode response: %v", err)
				}
				return
			}

			rw.flush(w)
		})
	}
}

// bufferedResponse records what a handler answers so it can be replaced
// when the surrounding transaction fails to commit.
type bufferedResponse struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header), status: http.StatusOK}
}

func (rw *bufferedResponse) Header() http.Header {
	return rw.header
}

func (rw *bufferedResponse) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
}

func (rw *bufferedResponse) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.body.Write(b)
}

func (rw *bufferedResponse) flush(w http.ResponseWriter) {
	for k, v := range rw.header {
		w.Header()[k] = v
	}
	w.WriteHeader(rw.status)
	_, _ = w.Write(rw.body.Bytes())
}
