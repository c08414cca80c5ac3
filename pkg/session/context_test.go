// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/internal/types"
	"github.com/canonical/customer-portal/pkg/identity"
)

// fakeProvider dispatches notifications while holding its lock, like
// identity.Client does.
type fakeProvider struct {
	mu        sync.Mutex
	listeners map[int]identity.Listener
	nextID    int
	session   *identity.Session
	lookupErr  error
}

func newFakeProvider(s *identity.Session) *fakeProvider {
	return &fakeProvider{listeners: make(map[int]identity.Listener), session: s}
}

func (p *fakeProvider) OnAuthStateChange(l identity.Listener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.listeners[id] = l

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		delete(p.listeners, id)
	}
}

func (p *fakeProvider) GetSession(context.Context) (*identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.session, p.lookupErr
}

func (p *fakeProvider) emit(e identity.Event, s *identity.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.session = s
	for _, l := range p.listeners {
		l(e, s)
	}
}

func (p *fakeProvider) current() *identity.Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.session
}

// fakeAuth resolves the user through the provider lock, so a synchronous
// refresh from inside a notification would deadlock.
type fakeAuth struct {
	provider *fakeProvider
	calls    atomic.Int32
	err      error
	// gate, when set, blocks GetCurrentUser until closed.
	gate    chan struct{}
	started chan struct{}
}

func (a *fakeAuth) GetCurrentUser(ctx context.Context) (*types.AuthUser, error) {
	a.calls.Add(1)

	s := a.provider.current()

	if a.started != nil {
		a.started <- struct{}{}
	}

	if a.gate != nil {
		<-a.gate
	}

	if a.err != nil {
		return nil, a.err
	}

	if s == nil {
		return nil, nil
	}

	return &types.AuthUser{
		ID:    s.UserID,
		Email: s.Email,
		Roles: []types.UserRole{{UserID: s.UserID, AccountID: "acc-1", Role: types.RoleAccountUser}},
	}, nil
}

func (a *fakeAuth) SignIn(_ context.Context, email, _ string) (*identity.Session, error) {
	s := &identity.Session{Token: "tok-" + email, UserID: "user-" + email, Email: email}
	a.provider.emit(identity.EventSignedIn, s)

	return s, nil
}

func (a *fakeAuth) SignUp(context.Context, string, string, identity.Metadata) (*identity.SignUpResult, error) {
	return &identity.SignUpResult{UserID: "new-user"}, nil
}

func (a *fakeAuth) SignOut(context.Context) error {
	a.provider.emit(identity.EventSignedOut, nil)
	return nil
}

func newTestContext(p *fakeProvider, a *fakeAuth) *Context {
	logger := logging.NewNoopLogger()

	return NewContext(p, a, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)
}

func waitSettled(t *testing.T, c *Context) State {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.WaitSettled(ctx); err != nil {
		t.Fatalf("expected context to settle, got %v", err)
	}

	return c.Snapshot()
}

func TestContextStartWithoutSession(t *testing.T) {
	p := newFakeProvider(nil)
	a := &fakeAuth{provider: p}
	c := newTestContext(p, a)
	defer c.Close()

	if !c.Snapshot().Loading {
		t.Fatalf("expected a new context to be loading")
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	s := waitSettled(t, c)

	if s.Loading || s.User != nil || s.Generation != 1 {
		t.Errorf("unexpected state %+v", s)
	}

	if a.calls.Load() != 0 {
		t.Errorf("expected no user fetch without a session, got %d", a.calls.Load())
	}
}

func TestContextStartWithSession(t *testing.T) {
	p := newFakeProvider(&identity.Session{Token: "tok", UserID: "user-1", Email: "anna@example.com"})
	a := &fakeAuth{provider: p}
	c := newTestContext(p, a)
	defer c.Close()

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	s := waitSettled(t, c)

	if s.Loading || s.Refreshing {
		t.Errorf("expected loading and refreshing to be false, got %+v", s)
	}

	if s.User == nil || s.User.ID != "user-1" {
		t.Fatalf("expected user-1, got %+v", s.User)
	}

	if !s.HasRole("acc-1", types.RoleAccountUser) || s.HasRole("acc-2", types.RoleAccountUser) {
		t.Errorf("expected role on acc-1 only")
	}

	if a.calls.Load() != 1 {
		t.Errorf("expected 1 fetch, got %d", a.calls.Load())
	}
}

func TestContextSessionLookupFailure(t *testing.T) {
	p := newFakeProvider(nil)
	p.lookupErr = errors.New("provider unreachable")
	c := newTestContext(p, &fakeAuth{provider: p})
	defer c.Close()

	if err := c.Start(context.Background()); err == nil {
		t.Fatalf("expected lookup error")
	}

	s := waitSettled(t, c)

	if s.Loading || s.Err == nil || s.User != nil {
		t.Errorf("expected explicit error state, got %+v", s)
	}
}

func TestContextRefreshFailure(t *testing.T) {
	p := newFakeProvider(&identity.Session{Token: "tok", UserID: "user-1"})
	a := &fakeAuth{provider: p, err: errors.New("store timeout")}
	c := newTestContext(p, a)
	defer c.Close()

	_ = c.Start(context.Background())

	s := waitSettled(t, c)

	if s.Err == nil || s.User != nil || s.Loading {
		t.Errorf("expected error state with no user, got %+v", s)
	}

	if s.Session == nil {
		t.Errorf("expected the session to be kept")
	}
}

func TestContextSignInAndOut(t *testing.T) {
	p := newFakeProvider(nil)
	a := &fakeAuth{provider: p}
	c := newTestContext(p, a)
	defer c.Close()

	_ = c.Start(context.Background())
	waitSettled(t, c)

	if _, err := c.SignIn(context.Background(), "anna@example.com", "secret123"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	s := waitSettled(t, c)
	if s.User == nil || s.User.Email != "anna@example.com" {
		t.Fatalf("expected signed in user, got %+v", s.User)
	}

	if s.Session == nil || s.Session.Token != "tok-anna@example.com" {
		t.Errorf("expected session token to be recorded, got %+v", s.Session)
	}

	if err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	s = c.Snapshot()
	if s.User != nil || s.Session != nil {
		t.Errorf("expected user to be cleared immediately on sign out, got %+v", s)
	}
}

func TestContextDiscardsRefreshSupersededBySignOut(t *testing.T) {
	p := newFakeProvider(nil)
	a := &fakeAuth{provider: p}
	c := newTestContext(p, a)
	defer c.Close()

	_ = c.Start(context.Background())
	waitSettled(t, c)

	a.gate = make(chan struct{})
	a.started = make(chan struct{}, 1)

	p.emit(identity.EventSignedIn, &identity.Session{Token: "tok", UserID: "user-1"})

	select {
	case <-a.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected refresh to start")
	}

	// the fetch is in flight when the visitor signs out
	p.emit(identity.EventSignedOut, nil)
	close(a.gate)

	s := waitSettled(t, c)

	if s.User != nil {
		t.Errorf("expected stale refresh to be discarded, got %+v", s.User)
	}

	if s.Generation != 3 {
		t.Errorf("expected generation 3, got %d", s.Generation)
	}
}

func TestContextRepeatedNotificationFetchesAtMostOncePerEvent(t *testing.T) {
	session := &identity.Session{Token: "tok", UserID: "user-1"}

	p := newFakeProvider(nil)
	a := &fakeAuth{provider: p}
	c := newTestContext(p, a)
	defer c.Close()

	_ = c.Start(context.Background())
	waitSettled(t, c)

	p.emit(identity.EventSignedIn, session)
	p.emit(identity.EventSignedIn, session)

	s := waitSettled(t, c)

	calls := a.calls.Load()
	if calls < 1 || calls > 2 {
		t.Errorf("expected 1 or 2 fetches, got %d", calls)
	}

	if s.User == nil {
		t.Errorf("expected user to be loaded")
	}
}

func TestContextObservers(t *testing.T) {
	p := newFakeProvider(&identity.Session{Token: "tok", UserID: "user-1"})
	c := newTestContext(p, &fakeAuth{provider: p})
	defer c.Close()

	var (
		mu     sync.Mutex
		states []State
	)

	unsubscribe := c.Subscribe(func(s State) {
		mu.Lock()
		defer mu.Unlock()

		states = append(states, s)
	})

	_ = c.Start(context.Background())
	waitSettled(t, c)

	unsubscribe()
	p.emit(identity.EventSignedOut, nil)
	waitSettled(t, c)

	mu.Lock()
	defer mu.Unlock()

	if len(states) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(states))
	}

	if states[0].User == nil || states[0].Loading {
		t.Errorf("unexpected observed state %+v", states[0])
	}
}

func TestContextClose(t *testing.T) {
	p := newFakeProvider(nil)
	c := newTestContext(p, &fakeAuth{provider: p})

	_ = c.Start(context.Background())
	c.Close()
	c.Close()

	p.mu.Lock()
	listeners := len(p.listeners)
	p.mu.Unlock()

	if listeners != 0 {
		t.Errorf("expected listener to be removed, got %d", listeners)
	}

	if err := c.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
