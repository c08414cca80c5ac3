// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
)

// Factory builds an unstarted Context for a visitor, token is the session
// token restored from the visitor's cookie and may be empty.
type Factory func(ctx context.Context, visitorID, token string) (*Context, error)

// Registry keeps one Context per visitor.
type Registry struct {
	mu       sync.Mutex
	contexts map[string]*Context

	factory     Factory
	idleTimeout time.Duration

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Get returns the visitor's Context, creating and starting it when needed.
// A failed session lookup is not an error here, it is recorded in the
// Context state.
func (r *Registry) Get(ctx context.Context, visitorID, token string) (*Context, error) {
	ctx, span := r.tracer.Start(ctx, "session.Registry.Get")
	defer span.End()

	r.mu.Lock()

	if c, ok := r.contexts[visitorID]; ok {
		r.mu.Unlock()
		c.Touch()

		return c, nil
	}

	c, err := r.factory(ctx, visitorID, token)
	if err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("failed to create session context: %w", err)
	}

	r.contexts[visitorID] = c
	r.setActiveVisitors()
	r.mu.Unlock()

	if err := c.Start(ctx); err != nil {
		r.logger.Warnf("session context of visitor %s started with error: %v", visitorID, err)
	}

	return c, nil
}

// Evict closes and forgets the visitor's Context.
func (r *Registry) Evict(visitorID string) {
	r.mu.Lock()
	c, ok := r.contexts[visitorID]
	delete(r.contexts, visitorID)
	r.setActiveVisitors()
	r.mu.Unlock()

	if ok {
		c.Close()
	}
}

// Sweep evicts every Context unused since now minus the idle timeout and
// returns how many were evicted.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idleTimeout)

	r.mu.Lock()
	idle := make([]*Context, 0)
	for id, c := range r.contexts {
		if c.LastUsed().Before(cutoff) {
			idle = append(idle, c)
			delete(r.contexts, id)
		}
	}
	r.setActiveVisitors()
	r.mu.Unlock()

	for _, c := range idle {
		c.Close()
	}

	if len(idle) > 0 {
		r.logger.Debugf("evicted %d idle session contexts", len(idle))
	}

	return len(idle)
}

// Run sweeps idle contexts until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	interval := r.idleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.contexts)
}

// Close closes every Context.
func (r *Registry) Close() {
	r.mu.Lock()
	contexts := r.contexts
	r.contexts = make(map[string]*Context)
	r.setActiveVisitors()
	r.mu.Unlock()

	for _, c := range contexts {
		c.Close()
	}
}

// setActiveVisitors must be called with r.mu held.
func (r *Registry) setActiveVisitors() {
	if err := r.monitor.SetActiveVisitors(float64(len(r.contexts))); err != nil {
		r.logger.Debugf("failed to set active visitors metric: %v", err)
	}
}

func NewRegistry(factory Factory, idleTimeout time.Duration, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Registry {
	r := new(Registry)

	r.contexts = make(map[string]*Context)
	r.factory = factory
	r.idleTimeout = idleTimeout

	r.tracer = tracer
	r.monitor = monitor
	r.logger = logger

	return r
}
