// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	httpTypes "github.com/canonical/organization-service/internal/http/types"
	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/internal/version"
)

const (
	okValue = 1.0
	koValue = 0.0

	pingTimeout = 2 * time.Second
)

type Status struct {
	Status    string `json:"status"`
	BuildInfo string `json:"buildInfo,omitempty"`
}

type Version struct {
	Version string `json:"version"`
}

type API struct {
	db PingerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/status", a.alive)
	mux.Get("/version", a.version)
	mux.Get("/ready", a.ready)
}

func (a *API) alive(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "status.API.alive")
	defer span.End()

	httpTypes.WriteJSON(w, http.StatusOK, Status{Status: "ok", BuildInfo: version.Version}, a.logger)
}

func (a *API) version(w http.ResponseWriter, r *http.Request) {
	httpTypes.WriteJSON(w, http.StatusOK, Version{Version: version.Version}, a.logger)
}

// ready reports 503 until the database answers a ping.
func (a *API) ready(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "status.API.ready")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	tags := map[string]string{"component": "database"}

	if err := a.db.Ping(ctx); err != nil {
		a.logger.Errorf("database not reachable: %v", err)
		a.setAvailability(tags, koValue)
		httpTypes.WriteJSON(w, http.StatusServiceUnavailable, Status{Status: "unavailable"}, a.logger)
		return
	}

	a.setAvailability(tags, okValue)
	httpTypes.WriteJSON(w, http.StatusOK, Status{Status: "ok"}, a.logger)
}

func (a *API) setAvailability(tags map[string]string, value float64) {
	if err := a.monitor.SetDependencyAvailability(tags, value); err != nil {
		a.logger.Debugf("error setting dependency availability: %v", err)
	}
}

func NewAPI(db PingerInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.db = db
	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
