// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"context"
	"errors"
	"sync"

	"github.com/canonical/customer-portal/internal/kratos"
	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
)

// Client is the identity provider client of a single visitor. It owns the
// visitor's session token and tells listeners whenever the session changes.
type Client struct {
	mu sync.Mutex

	kratos   KratosClientInterface
	returnTo string

	session   *Session
	listeners map[int]Listener
	nextID    int

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// OnAuthStateChange registers l and returns a function removing it.
func (c *Client) OnAuthStateChange(l Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = l

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		delete(c.listeners, id)
	}
}

// emit must be called with c.mu held.
func (c *Client) emit(e Event) {
	var s *Session
	if c.session != nil {
		cp := *c.session
		s = &cp
	}

	for _, l := range c.listeners {
		l(e, s)
	}
}

func (c *Client) SignUp(ctx context.Context, email, password string, meta Metadata) (*SignUpResult, error) {
	ctx, span := c.tracer.Start(ctx, "identity.Client.SignUp")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	reg, err := c.kratos.Register(ctx, email, password, kratos.Traits{FirstName: meta.FirstName, LastName: meta.LastName}, c.returnTo)
	if err != nil {
		return nil, err
	}

	c.logger.Security().AuthnRegistration(reg.Identity.ID)

	res := &SignUpResult{UserID: reg.Identity.ID}

	if reg.Session != nil {
		c.session = fromKratos(reg.Session)
		res.Session = c.session
		c.emit(EventSignedIn)
	}

	return res, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	ctx, span := c.tracer.Start(ctx, "identity.Client.SignInWithPassword")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.kratos.Login(ctx, email, password)
	if err != nil {
		c.logger.Security().AuthnLoginFail(email)
		return nil, err
	}

	c.logger.Security().AuthnLoginSuccess(s.Identity.ID)

	c.session = fromKratos(s)
	c.emit(EventSignedIn)

	cp := *c.session

	return &cp, nil
}

// SignOut revokes the session at the provider and forgets it locally, the
// local state is cleared even when revocation fails.
func (c *Client) SignOut(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "identity.Client.SignOut")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}

	err := c.kratos.Logout(ctx, c.session.Token)

	c.logger.Security().AuthnLogout(c.session.UserID)

	c.session = nil
	c.emit(EventSignedOut)

	return err
}

// GetSession validates the held token with the provider. An invalid token
// is dropped and reported to listeners as a sign-out.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	ctx, span := c.tracer.Start(ctx, "identity.Client.GetSession")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.whoami(ctx)
	if err != nil || s == nil {
		return nil, err
	}

	cp := *c.session

	return &cp, nil
}

// GetUser returns the identity behind the held session, nil without one.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	ctx, span := c.tracer.Start(ctx, "identity.Client.GetUser")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.whoami(ctx)
	if err != nil || s == nil {
		return nil, err
	}

	return &User{
		ID:        s.Identity.ID,
		Email:     s.Identity.Traits.Email,
		FirstName: s.Identity.Traits.FirstName,
		LastName:  s.Identity.Traits.LastName,
	}, nil
}

// whoami must be called with c.mu held.
func (c *Client) whoami(ctx context.Context) (*kratos.Session, error) {
	if c.session == nil {
		return nil, nil
	}

	s, err := c.kratos.Whoami(ctx, c.session.Token)
	if errors.Is(err, kratos.ErrNoSession) {
		c.logger.Debugf("dropping stale session of user %s", c.session.UserID)
		c.session = nil
		c.emit(EventSignedOut)
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	c.session = fromKratos(s)

	return s, nil
}

// Token is the session token to persist for the visitor, empty when signed out.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return ""
	}

	return c.session.Token
}

// NewClient creates a visitor client, token restores a previously issued
// session and is validated on the first GetSession.
func NewClient(k KratosClientInterface, token, returnTo string, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Client {
	c := new(Client)

	c.kratos = k
	c.returnTo = returnTo
	c.listeners = make(map[int]Listener)

	if token != "" {
		c.session = &Session{Token: token}
	}

	c.tracer = tracer
	c.monitor = monitor
	c.logger = logger

	return c
}
