// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/pkg/identity"
)

var ErrClosed = errors.New("session context closed")

type task struct {
	generation uint64
	// refresh is false for notifications that only need observers to run.
	refresh bool
}

// Context owns the authentication state of one visitor.
//
// Provider notifications arrive while the provider holds its own lock, so
// the listener only records the session and queues a refresh. The refresh
// runs on the Context's worker goroutine and is applied only if no newer
// notification arrived in the meantime.
type Context struct {
	mu sync.Mutex

	state State

	observers    map[int]Observer
	nextObserver int

	queue   []task
	signal  chan struct{}
	pending int

	settled   chan struct{}
	isSettled bool

	started     bool
	closed      bool
	unsubscribe func()
	cancel      context.CancelFunc
	workerCtx   context.Context
	done        chan struct{}

	lastUsed atomic.Int64

	provider ProviderInterface
	auth     AuthServiceInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Start subscribes to the provider, starts the refresh worker and then
// looks up the existing session. The lookup counts as the initial snapshot
// unless a notification already arrived.
func (c *Context) Start(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "session.Context.Start")
	defer span.End()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	if c.started {
		c.mu.Unlock()
		return nil
	}

	c.started = true
	c.mu.Unlock()

	unsubscribe := c.provider.OnAuthStateChange(c.handle)

	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	go c.run()

	s, err := c.provider.GetSession(ctx)

	c.mu.Lock()

	if err != nil {
		c.logger.Errorf("failed to look up session: %v", err)

		c.state.Err = err
		c.state.Loading = false
		c.maybeSettle()
		snapshot, observers := c.state, c.observerList()
		c.mu.Unlock()

		notify(observers, snapshot)

		return err
	}

	if c.state.Generation == 0 {
		c.apply(identity.EventInitialSession, s)
	}

	c.mu.Unlock()

	return nil
}

func (c *Context) handle(e identity.Event, s *identity.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.apply(e, s)
}

// apply must be called with c.mu held.
func (c *Context) apply(e identity.Event, s *identity.Session) {
	if c.closed {
		return
	}

	c.state.Generation++
	c.state.Session = s

	c.logger.Debugf("session event %s, generation %d", e, c.state.Generation)

	if s == nil {
		c.state.User = nil
		c.state.Err = nil
		c.state.Refreshing = false
		c.state.Loading = false
		c.enqueue(task{generation: c.state.Generation})

		return
	}

	c.state.Refreshing = true
	c.enqueue(task{generation: c.state.Generation, refresh: true})
}

// enqueue must be called with c.mu held.
func (c *Context) enqueue(t task) {
	c.queue = append(c.queue, t)
	c.pending++

	if c.isSettled {
		c.settled = make(chan struct{})
		c.isSettled = false
	}

	select {
	case c.signal <- struct{}{}:
	default:
	}
}

// maybeSettle must be called with c.mu held.
func (c *Context) maybeSettle() {
	if c.isSettled {
		return
	}

	if c.closed || (!c.state.Loading && c.pending == 0) {
		close(c.settled)
		c.isSettled = true
	}
}

func (c *Context) dequeue() (task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.queue) == 0 {
		return task{}, false
	}

	t := c.queue[0]
	c.queue[0] = task{}
	c.queue = c.queue[1:]

	return t, true
}

func (c *Context) run() {
	defer close(c.done)

	for {
		select {
		case <-c.workerCtx.Done():
			return
		case <-c.signal:
		}

		for {
			t, ok := c.dequeue()
			if !ok {
				break
			}

			c.process(t)
		}
	}
}

func (c *Context) process(t task) {
	changed := !t.refresh

	if t.refresh && c.current(t.generation) {
		ctx, span := c.tracer.Start(c.workerCtx, "session.Context.refresh")

		user, err := c.auth.GetCurrentUser(ctx)
		span.End()

		c.mu.Lock()
		if t.generation == c.state.Generation {
			if err != nil {
				c.logger.Errorf("failed to refresh user: %v", err)
				user = nil
			}

			c.state.User = user
			c.state.Err = err
			c.state.Refreshing = false
			c.state.Loading = false
			changed = true
		} else {
			c.logger.Debugf("discarding refresh of generation %d", t.generation)
		}
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.pending--
	c.maybeSettle()
	snapshot, observers := c.state, c.observerList()
	c.mu.Unlock()

	if changed {
		notify(observers, snapshot)
	}
}

func (c *Context) current(generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return generation == c.state.Generation && !c.closed
}

// observerList must be called with c.mu held.
func (c *Context) observerList() []Observer {
	list := make([]Observer, 0, len(c.observers))
	for _, o := range c.observers {
		list = append(list, o)
	}

	return list
}

func notify(observers []Observer, s State) {
	for _, o := range observers {
		o(s)
	}
}

// Subscribe registers o and returns a function removing it. Observers run
// on the worker goroutine and may call back into the Context.
func (c *Context) Subscribe(o Observer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = o

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		delete(c.observers, id)
	}
}

func (c *Context) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// WaitSettled blocks until the first notification has been processed and
// no refresh is queued or running.
func (c *Context) WaitSettled(ctx context.Context) error {
	c.mu.Lock()
	ch := c.settled
	c.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Context) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	c.Touch()
	return c.auth.SignIn(ctx, email, password)
}

func (c *Context) SignUp(ctx context.Context, email, password string, meta identity.Metadata) (*identity.SignUpResult, error) {
	c.Touch()
	return c.auth.SignUp(ctx, email, password, meta)
}

func (c *Context) SignOut(ctx context.Context) error {
	c.Touch()
	return c.auth.SignOut(ctx)
}

// Touch marks the Context as used now.
func (c *Context) Touch() {
	c.lastUsed.Store(time.Now().UnixNano())
}

func (c *Context) LastUsed() time.Time {
	return time.Unix(0, c.lastUsed.Load())
}

// Close unsubscribes from the provider and stops the worker. Pending
// refreshes are dropped.
func (c *Context) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.closed = true
	started := c.started
	unsubscribe := c.unsubscribe
	c.queue = nil
	c.maybeSettle()
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}

	c.cancel()

	if started {
		<-c.done
	}
}

func NewContext(provider ProviderInterface, auth AuthServiceInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Context {
	c := new(Context)

	c.provider = provider
	c.auth = auth

	c.state.Loading = true
	c.observers = make(map[int]Observer)
	c.signal = make(chan struct{}, 1)
	c.settled = make(chan struct{})
	c.done = make(chan struct{})
	c.workerCtx, c.cancel = context.WithCancel(context.Background())
	c.Touch()

	c.tracer = tracer
	c.monitor = monitor
	c.logger = logger

	return c
}
