// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
)

const maxBodyBytes = 1 << 20

// PathUUID binds a required uuid route parameter.
func PathUUID(r *http.Request, name string) (string, error) {
	var value string

	err := runtime.BindStyledParameterWithOptions(
		"simple",
		name,
		chi.URLParam(r, name),
		&value,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true},
	)
	if err != nil {
		return "", NewValidationError("invalid %s: %v", name, err)
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return "", NewValidationError("invalid %s: not a uuid", name)
	}

	return id.String(), nil
}

// PathString binds a required string route parameter.
func PathString(r *http.Request, name string) (string, error) {
	var value string

	err := runtime.BindStyledParameterWithOptions(
		"simple",
		name,
		chi.URLParam(r, name),
		&value,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true},
	)
	if err != nil || value == "" {
		return "", NewValidationError("invalid %s", name)
	}

	return value, nil
}

// PageFromRequest binds the optional page and size query parameters.
func PageFromRequest(r *http.Request) (*Pagination, error) {
	p := new(Pagination)
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "page", query, &p.Page); err != nil {
		return nil, NewValidationError("invalid page: %v", err)
	}

	if err := runtime.BindQueryParameter("form", true, false, "size", query, &p.Size); err != nil {
		return nil, NewValidationError("invalid size: %v", err)
	}

	if p.Page < 0 || p.Size < 0 {
		return nil, NewValidationError("page and size must be positive")
	}

	if p.Page == 0 {
		p.Page = 1
	}
	if p.Size == 0 {
		p.Size = 100
	}

	return p, nil
}

// DecodeJSON decodes and validates a json request body into dst.
func DecodeJSON(r *http.Request, dst interface{}, validate *validator.Validate) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return NewValidationError("request body is empty")
		}
		return NewValidationError("malformed request body: %s", strings.TrimPrefix(err.Error(), "json: "))
	}

	if validate == nil {
		return nil
	}

	return validate.Struct(dst)
}
