// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package pages

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/pkg/gate"
	"github.com/canonical/customer-portal/pkg/identity"
	"github.com/canonical/customer-portal/pkg/session"
)

var ErrNoVisitor = errors.New("request has no visitor")

var _ RegistryInterface = (*Registry)(nil)

// Registry adapts session.Registry to RegistryInterface.
type Registry struct {
	r *session.Registry
}

func (r *Registry) Lookup(ctx context.Context, visitorID, token string) (VisitorInterface, error) {
	c, err := r.r.Get(ctx, visitorID, token)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func NewRegistry(r *session.Registry) *Registry {
	return &Registry{r: r}
}

type visitorKey struct{}

type visitorEntry struct {
	cookie  Visitor
	visitor VisitorInterface
}

// Visitors attaches the session context of the browser to every page
// request, issuing a visitor cookie on the first visit. Reads from visitors
// without a session token are served by an unregistered anonymous visitor,
// a context is only created once there is a token or a form post.
type Visitors struct {
	registry RegistryInterface
	cookies  *Cookies
	logger   logging.LoggerInterface
}

func (v *Visitors) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := v.cookies.Visitor(r)
		if !ok {
			c = Visitor{ID: uuid.NewString()}

			if err := v.cookies.SetVisitor(w, c); err != nil {
				v.logger.Errorf("failed to set visitor cookie: %v", err)
			}
		}

		var visitor VisitorInterface = anonymous{}

		if c.Token != "" || !safeMethod(r.Method) {
			var err error

			visitor, err = v.registry.Lookup(r.Context(), c.ID, c.Token)
			if err != nil {
				v.logger.Errorf("failed to load session context of visitor %s: %v", c.ID, err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
		}

		ctx := context.WithValue(r.Context(), visitorKey{}, &visitorEntry{cookie: c, visitor: visitor})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Resolve satisfies gate.ResolverFunc.
func (v *Visitors) Resolve(r *http.Request) (gate.VisitorInterface, error) {
	e, ok := r.Context().Value(visitorKey{}).(*visitorEntry)
	if !ok {
		return nil, ErrNoVisitor
	}

	return e.visitor, nil
}

// SetToken remembers the session token of the request's visitor so the
// session survives eviction of its context.
func (v *Visitors) SetToken(w http.ResponseWriter, r *http.Request, token string) {
	e, ok := r.Context().Value(visitorKey{}).(*visitorEntry)
	if !ok {
		return
	}

	e.cookie.Token = token

	if err := v.cookies.SetVisitor(w, e.cookie); err != nil {
		v.logger.Errorf("failed to set visitor cookie: %v", err)
	}
}

// anonymous is the settled state of a visitor that never signed in.
type anonymous struct{}

func (anonymous) Snapshot() session.State           { return session.State{} }
func (anonymous) WaitSettled(context.Context) error { return nil }

func (anonymous) SignIn(context.Context, string, string) (*identity.Session, error) {
	return nil, ErrNoVisitor
}

func (anonymous) SignUp(context.Context, string, string, identity.Metadata) (*identity.SignUpResult, error) {
	return nil, ErrNoVisitor
}

func (anonymous) SignOut(context.Context) error { return nil }

func safeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

func visitorFrom(ctx context.Context) (VisitorInterface, bool) {
	e, ok := ctx.Value(visitorKey{}).(*visitorEntry)
	if !ok {
		return nil, false
	}

	return e.visitor, true
}

func NewVisitors(registry RegistryInterface, cookies *Cookies, logger logging.LoggerInterface) *Visitors {
	v := new(Visitors)

	v.registry = registry
	v.cookies = cookies
	v.logger = logger

	return v
}
