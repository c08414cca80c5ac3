// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package kratos

import (
	"context"
	"fmt"
	"net/http"

	ory "github.com/ory/client-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
)

const passwordMethod = "password"

// Client talks to the Kratos public API through native (API) flows, the
// admin API is only used to look identities up.
type Client struct {
	public *ory.APIClient
	admin  *ory.APIClient

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func newAPIClient(url string) *ory.APIClient {
	conf := ory.NewConfiguration()
	conf.Servers = ory.ServerConfigurations{{URL: url}}
	conf.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	return ory.NewAPIClient(conf)
}

func NewClient(publicURL, adminURL string, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Client {
	return &Client{
		public:  newAPIClient(publicURL),
		admin:   newAPIClient(adminURL),
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (c *Client) availability(err error) {
	v := 1.0
	if err != nil {
		v = 0
	}

	_ = c.monitor.SetDependencyAvailability(map[string]string{"component": "kratos"}, v)
}

// Register runs a native registration flow with the password method.
// returnTo is where the verification link sends the user back to.
func (c *Client) Register(ctx context.Context, email, password string, traits Traits, returnTo string) (*Registration, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.Client.Register")
	defer span.End()

	req := c.public.FrontendAPI.CreateNativeRegistrationFlow(ctx)
	if returnTo != "" {
		req = req.ReturnTo(returnTo)
	}

	flow, r, err := req.Execute()
	c.availability(err)
	if err != nil {
		return nil, fmt.Errorf("failed to create registration flow: %w", classify(err, r))
	}

	traits.Email = email

	body := ory.UpdateRegistrationFlowWithPasswordMethodAsUpdateRegistrationFlowBody(
		&ory.UpdateRegistrationFlowWithPasswordMethod{
			Method:   passwordMethod,
			Password: password,
			Traits:   traits.toMap(),
		},
	)

	res, r, err := c.public.FrontendAPI.UpdateRegistrationFlow(ctx).
		Flow(flow.GetId()).
		UpdateRegistrationFlowBody(body).
		Execute()
	if err != nil {
		return nil, classify(err, r)
	}

	reg := &Registration{Identity: identityFromOry(res.GetIdentity())}

	if token := res.GetSessionToken(); token != "" {
		reg.Session = sessionFromOry(res.GetSession(), token)
	}

	return reg, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.Client.Login")
	defer span.End()

	flow, r, err := c.public.FrontendAPI.CreateNativeLoginFlow(ctx).Execute()
	c.availability(err)
	if err != nil {
		return nil, fmt.Errorf("failed to create login flow: %w", classify(err, r))
	}

	body := ory.UpdateLoginFlowWithPasswordMethodAsUpdateLoginFlowBody(
		&ory.UpdateLoginFlowWithPasswordMethod{
			Method:     passwordMethod,
			Identifier: email,
			Password:   password,
		},
	)

	res, r, err := c.public.FrontendAPI.UpdateLoginFlow(ctx).
		Flow(flow.GetId()).
		UpdateLoginFlowBody(body).
		Execute()
	if err != nil {
		return nil, classify(err, r)
	}

	return sessionFromOry(res.GetSession(), res.GetSessionToken()), nil
}

// Whoami resolves a session token, ErrNoSession means the token is unknown,
// expired or revoked.
func (c *Client) Whoami(ctx context.Context, token string) (*Session, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.Client.Whoami")
	defer span.End()

	if token == "" {
		return nil, ErrNoSession
	}

	s, r, err := c.public.FrontendAPI.ToSession(ctx).XSessionToken(token).Execute()
	if err != nil {
		if r == nil {
			c.availability(err)
		}
		return nil, classify(err, r)
	}

	if !s.GetActive() {
		return nil, ErrNoSession
	}

	return sessionFromOry(*s, token), nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	ctx, span := c.tracer.Start(ctx, "kratos.Client.Logout")
	defer span.End()

	r, err := c.public.FrontendAPI.PerformNativeLogout(ctx).
		PerformNativeLogoutBody(*ory.NewPerformNativeLogoutBody(token)).
		Execute()
	if err != nil {
		// revoking a session that is already gone is not a failure
		if r != nil && (r.StatusCode == http.StatusForbidden || r.StatusCode == http.StatusUnauthorized) {
			return nil
		}
		return fmt.Errorf("failed to revoke session: %w", classify(err, r))
	}

	return nil
}

func (c *Client) GetIdentity(ctx context.Context, id string) (*Identity, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.Client.GetIdentity")
	defer span.End()

	identity, r, err := c.admin.IdentityAPI.GetIdentity(ctx, id).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", classify(err, r))
	}

	i := identityFromOry(*identity)

	return &i, nil
}

var _ ClientInterface = (*Client)(nil)
