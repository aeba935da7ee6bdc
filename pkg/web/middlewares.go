// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/canonical/organization-service/internal/authorization"
	httpTypes "github.com/canonical/organization-service/internal/http/types"
	"github.com/canonical/organization-service/internal/identity"
	"github.com/canonical/organization-service/internal/logging"
)

func middlewareCORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(
		cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{
				http.MethodHead,
				http.MethodGet,
				http.MethodPost,
				http.MethodPut,
				http.MethodPatch,
				http.MethodDelete,
			},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				authorization.OrganizationHeader,
				identity.HeaderName,
			},
			ExposedHeaders: []string{"X-Request-Id"},
			// credentials cannot be combined with a wildcard origin
			AllowCredentials: !slices.Contains(origins, "*"),
			MaxAge:           300,
		},
	)
}

// middlewareRateLimit limits requests per client IP. A non-positive budget
// disables it.
func middlewareRateLimit(requests int, window time.Duration, logger logging.LoggerInterface) func(http.Handler) http.Handler {
	if requests <= 0 || window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.Warnf("rate limit exceeded for %s %s", r.Method, r.URL.Path)
			httpTypes.WriteJSON(
				w,
				http.StatusTooManyRequests,
				httpTypes.ErrorResponse{Status: http.StatusTooManyRequests, Message: "rate limit exceeded, please try again later"},
				logger,
			)
		}),
	)
}
