// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
	"net/http"
	"runtime/debug"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	httptypes "github.com/canonical/customer-portal/internal/http/types"
	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/internal/version"
)

const checkTimeout = 2 * time.Second

type Status struct {
	Status    string `json:"status"`
	BuildInfo string `json:"buildInfo,omitempty"`
}

type Version struct {
	Version string `json:"version"`
}

type Readiness struct {
	Ready      bool            `json:"ready"`
	Components map[string]bool `json:"components"`
}

type API struct {
	checks map[string]CheckerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/v0/status", a.alive)
	mux.Get("/api/v0/version", a.version)
	mux.Get("/api/v0/ready", a.ready)
}

func (a *API) alive(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "status.API.alive")
	defer span.End()

	s := Status{Status: "ok"}
	if info, ok := debug.ReadBuildInfo(); ok {
		s.BuildInfo = info.Main.Version
	}

	a.check(httptypes.WriteJSON(w, http.StatusOK, s))
}

func (a *API) version(w http.ResponseWriter, r *http.Request) {
	a.check(httptypes.WriteJSON(w, http.StatusOK, Version{Version: version.Version}))
}

// ready pings every dependency and records its availability.
func (a *API) ready(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "status.API.ready")
	defer span.End()

	res := Readiness{Ready: true, Components: make(map[string]bool, len(a.checks))}

	names := make([]string, 0, len(a.checks))
	for name := range a.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := a.checks[name].Ping(cctx)
		cancel()

		available := 1.0
		if err != nil {
			a.logger.Errorf("dependency %s is not available: %v", name, err)
			available = 0
			res.Ready = false
		}

		res.Components[name] = err == nil

		if err := a.monitor.SetDependencyAvailability(map[string]string{"component": name}, available); err != nil {
			a.logger.Debugf("failed to set availability of %s: %v", name, err)
		}
	}

	status := http.StatusOK
	if !res.Ready {
		status = http.StatusServiceUnavailable
	}

	a.check(httptypes.WriteJSON(w, status, res))
}

func (a *API) check(err error) {
	if err != nil {
		a.logger.Errorf("failed to write response: %v", err)
	}
}

func NewAPI(checks map[string]CheckerInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.checks = checks

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
