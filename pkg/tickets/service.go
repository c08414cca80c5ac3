// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tickets

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/internal/types"
)

var (
	// ErrNoAccountLink is returned for users whose profile is not linked to
	// an account. Nothing is inserted.
	ErrNoAccountLink = errors.New("user has no account link")
	ErrNotSignedIn   = errors.New("user is not signed in")
)

// Draft is a ticket as submitted by a user.
type Draft struct {
	Subject     string           `json:"subject" validate:"required"`
	Type        types.TicketType `json:"type" validate:"required,oneof=Support Economy Other"`
	Description string           `json:"description" validate:"required"`
}

func (d Draft) normalize() Draft {
	d.Subject = strings.TrimSpace(d.Subject)
	d.Description = strings.TrimSpace(d.Description)

	return d
}

// ValidationError maps every invalid field of a Draft to the failed rule.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, rule := range e.Fields {
		parts = append(parts, f+" "+rule)
	}

	slices.Sort(parts)

	return "invalid ticket: " + strings.Join(parts, ", ")
}

type Service struct {
	store    StorageInterface
	validate *validator.Validate

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Validate checks d without touching the store.
func (s *Service) Validate(d Draft) error {
	err := s.validate.Struct(d.normalize())
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	ve := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		ve.Fields[strings.ToLower(fe.Field())] = fe.Tag()
	}

	return ve
}

// Create files d in the account of userID with status open and the default
// priority.
func (s *Service) Create(ctx context.Context, userID string, d Draft) (*types.Ticket, error) {
	ctx, span := s.tracer.Start(ctx, "tickets.Service.Create")
	defer span.End()

	if userID == "" {
		return nil, ErrNotSignedIn
	}

	if err := s.Validate(d); err != nil {
		return nil, err
	}

	d = d.normalize()

	accountID, err := s.store.GetUserAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}

	if accountID == "" {
		s.logger.Infof("user %s has no account link, ticket not created", userID)
		return nil, ErrNoAccountLink
	}

	description := d.Description

	t, err := s.store.CreateTicket(ctx, &types.Ticket{
		AccountID:   accountID,
		CreatedBy:   userID,
		Title:       d.Subject,
		Type:        d.Type,
		Description: &description,
		Status:      types.TicketOpen,
		Priority:    types.DefaultTicketPriority,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	s.logger.Debugf("ticket %s created in account %s", t.ID, accountID)

	return t, nil
}

func NewService(store StorageInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	s := new(Service)

	s.store = store
	s.validate = validator.New(validator.WithRequiredStructEnabled())

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}
