// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package gate

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/pkg/session"
)

const (
	SignInPath  = "/auth"
	DefaultPath = "/dashboard"
)

type stateKey struct{}

// StateFromContext returns the state the gate admitted the request with.
func StateFromContext(ctx context.Context) (session.State, bool) {
	s, ok := ctx.Value(stateKey{}).(session.State)
	return s, ok
}

// ResolverFunc finds the visitor behind a request.
type ResolverFunc func(*http.Request) (VisitorInterface, error)

type Middleware struct {
	resolve       ResolverFunc
	placeholder   http.Handler
	settleTimeout time.Duration

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Protect wraps next with req. A visitor still loading after the settle
// timeout gets the placeholder page.
func (m *Middleware) Protect(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "gate.Middleware.Protect")
			defer span.End()

			v, err := m.resolve(r)
			if err != nil {
				m.logger.Errorf("failed to resolve visitor: %v", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			wctx, cancel := context.WithTimeout(ctx, m.settleTimeout)
			_ = v.WaitSettled(wctx)
			cancel()

			state := v.Snapshot()
			decision := Decide(state.User, state.Loading || state.Refreshing, req)

			switch decision {
			case Render:
				next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, stateKey{}, state)))
			case Placeholder:
				m.placeholder.ServeHTTP(w, r.WithContext(ctx))
			case RedirectSignIn:
				http.Redirect(w, r, SignInPath+"?redirect="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			case RedirectDefault:
				m.logger.Security().AuthzFailure(state.User.ID, r.URL.Path)
				http.Redirect(w, r, DefaultPath, http.StatusSeeOther)
			}
		})
	}
}

func NewMiddleware(resolve ResolverFunc, placeholder http.Handler, settleTimeout time.Duration, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	m := new(Middleware)

	m.resolve = resolve
	m.placeholder = placeholder
	m.settleTimeout = settleTimeout

	m.tracer = tracer
	m.monitor = monitor
	m.logger = logger

	return m
}
