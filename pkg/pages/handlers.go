// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package pages

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/internal/types"
	"github.com/canonical/customer-portal/pkg/auth"
	"github.com/canonical/customer-portal/pkg/gate"
	"github.com/canonical/customer-portal/pkg/identity"
	"github.com/canonical/customer-portal/pkg/session"
	"github.com/canonical/customer-portal/pkg/tickets"
)

var ticketTypes = []types.TicketType{types.TicketSupport, types.TicketEconomy, types.TicketOther}

// UI serves the server rendered portal pages.
type UI struct {
	visitors *Visitors
	cookies  *Cookies
	forms    *Forms
	renderer *Renderer
	gate     *gate.Middleware
	tickets  TicketsInterface

	settleTimeout time.Duration
	defaultLocale string
	now           func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (ui *UI) RegisterEndpoints(mux chi.Router) {
	protected := ui.gate.Protect(gate.Requirement{})

	mux.Group(func(r chi.Router) {
		r.Use(ui.visitors.Middleware)

		r.Get("/", ui.handleIndex)
		r.Get("/auth", ui.handleAuth)
		r.Post("/auth/sign-in", ui.handleSignIn)
		r.Post("/auth/sign-up", ui.handleSignUp)
		r.Post("/sign-out", ui.handleSignOut)

		r.With(protected).Get("/dashboard", ui.handleDashboard)
		r.With(protected).Get("/create-ticket", ui.handleTicketForm)
		r.With(protected).Post("/create-ticket", ui.handleCreateTicket)
	})
}

// settled waits, bounded by the settle timeout, for the visitor's pending
// refreshes and returns the resulting state.
func (ui *UI) settled(ctx context.Context, v VisitorInterface) session.State {
	wctx, cancel := context.WithTimeout(ctx, ui.settleTimeout)
	defer cancel()

	_ = v.WaitSettled(wctx)

	return v.Snapshot()
}

func (ui *UI) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx, span := ui.tracer.Start(r.Context(), "pages.UI.handleIndex")
	defer span.End()

	v, ok := visitorFrom(ctx)
	if !ok {
		ui.fail(w, ErrNoVisitor)
		return
	}

	state := ui.settled(ctx, v)

	switch {
	case state.Loading || state.Refreshing:
		ui.placeholder(w, r)
	case state.User != nil:
		http.Redirect(w, r, gate.DefaultPath, http.StatusSeeOther)
	default:
		ui.render(w, r, http.StatusOK, "index", ui.view(w, r, nil))
	}
}

func (ui *UI) handleAuth(w http.ResponseWriter, r *http.Request) {
	ctx, span := ui.tracer.Start(r.Context(), "pages.UI.handleAuth")
	defer span.End()

	v, ok := visitorFrom(ctx)
	if !ok {
		ui.fail(w, ErrNoVisitor)
		return
	}

	redirect := r.URL.Query().Get("redirect")
	state := ui.settled(ctx, v)

	if state.Loading || state.Refreshing {
		ui.placeholder(w, r)
		return
	}

	if state.User != nil {
		http.Redirect(w, r, safeRedirect(redirect), http.StatusSeeOther)
		return
	}

	page := ui.view(w, r, nil)
	page.Tab = tab(r.URL.Query().Get("tab"))
	page.Redirect = redirect

	if state.Err != nil && page.Toast == nil {
		page.Toast = &Toast{Title: page.L.T("error.title"), Description: page.L.T("auth.session_error"), Destructive: true}
	}

	ui.render(w, r, http.StatusOK, "auth", page)
}

func (ui *UI) handleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx, span := ui.tracer.Start(r.Context(), "pages.UI.handleSignIn")
	defer span.End()

	v, ok := visitorFrom(ctx)
	if !ok {
		ui.fail(w, ErrNoVisitor)
		return
	}

	var form SignInForm
	if err := ui.forms.Decode(r, &form); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	redirect := r.PostForm.Get("redirect")

	page := ui.view(w, r, nil)
	page.Tab = "signin"
	page.Redirect = redirect
	page.Form = map[string]string{"email": form.Email}

	if page.Errors = ui.forms.Check(form); page.Errors != nil {
		ui.render(w, r, http.StatusUnprocessableEntity, "auth", page)
		return
	}

	s, err := v.SignIn(ctx, form.Email, form.Password)
	if err != nil {
		switch auth.KindOf(err) {
		case auth.KindInvalidCredentials:
			page.Toast = &Toast{Title: page.L.T("auth.sign_in_failed"), Description: page.L.T("auth.invalid_creds"), Destructive: true}
		case auth.KindEmailNotConfirmed:
			page.Toast = &Toast{Title: page.L.T("auth.confirm_email"), Description: page.L.T("auth.confirm_email.lead"), Destructive: true}
		default:
			ui.logger.Errorf("sign in failed: %v", err)
			page.Toast = &Toast{Title: page.L.T("error.title"), Description: providerMessage(err, page.L.T("auth.sign_in_generic")), Destructive: true}
		}

		ui.render(w, r, http.StatusUnauthorized, "auth", page)

		return
	}

	ui.visitors.SetToken(w, r, s.Token)
	ui.flash(w, Toast{Title: page.L.T("auth.welcome"), Description: page.L.T("auth.welcome.lead")})

	ui.settled(ctx, v)

	http.Redirect(w, r, safeRedirect(redirect), http.StatusSeeOther)
}

func (ui *UI) handleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx, span := ui.tracer.Start(r.Context(), "pages.UI.handleSignUp")
	defer span.End()

	v, ok := visitorFrom(ctx)
	if !ok {
		ui.fail(w, ErrNoVisitor)
		return
	}

	var form SignUpForm
	if err := ui.forms.Decode(r, &form); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	redirect := r.PostForm.Get("redirect")

	page := ui.view(w, r, nil)
	page.Tab = "signup"
	page.Redirect = redirect
	page.Form = map[string]string{"email": form.Email, "first_name": form.FirstName, "last_name": form.LastName}

	if page.Errors = ui.forms.Check(form); page.Errors != nil {
		ui.render(w, r, http.StatusUnprocessableEntity, "auth", page)
		return
	}

	res, err := v.SignUp(ctx, form.Email, form.Password, identity.Metadata{FirstName: form.FirstName, LastName: form.LastName})
	if err != nil {
		status := http.StatusBadRequest

		if auth.KindOf(err) == auth.KindUserExists {
			status = http.StatusConflict
			page.Tab = "signin"
			page.Toast = &Toast{Title: page.L.T("auth.user_exists"), Description: page.L.T("auth.user_exists.lead"), Destructive: true}
		} else {
			ui.logger.Errorf("sign up failed: %v", err)
			page.Toast = &Toast{Title: page.L.T("auth.sign_up_failed"), Description: providerMessage(err, page.L.T("auth.sign_up_generic")), Destructive: true}
		}

		ui.render(w, r, status, "auth", page)

		return
	}

	if res.Session != nil {
		ui.visitors.SetToken(w, r, res.Session.Token)
		ui.flash(w, Toast{Title: page.L.T("auth.created"), Description: page.L.T("auth.welcome.lead")})
		ui.settled(ctx, v)

		http.Redirect(w, r, safeRedirect(redirect), http.StatusSeeOther)

		return
	}

	page.Tab = "signin"
	page.Form = map[string]string{"email": form.Email}
	page.Toast = &Toast{Title: page.L.T("auth.created"), Description: page.L.T("auth.created.lead")}

	ui.render(w, r, http.StatusOK, "auth", page)
}

func (ui *UI) handleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx, span := ui.tracer.Start(r.Context(), "pages.UI.handleSignOut")
	defer span.End()

	v, ok := visitorFrom(ctx)
	if !ok {
		ui.fail(w, ErrNoVisitor)
		return
	}

	state := v.Snapshot()
	l := ui.localizer(r, state.User)

	if err := v.SignOut(ctx); err != nil {
		ui.logger.Errorf("sign out failed: %v", err)
		ui.flash(w, Toast{Title: l.T("error.title"), Description: l.T("auth.sign_out_failed"), Destructive: true})
		http.Redirect(w, r, gate.DefaultPath, http.StatusSeeOther)

		return
	}

	ui.visitors.SetToken(w, r, "")
	ui.flash(w, Toast{Title: l.T("auth.signed_out"), Description: l.T("auth.signed_out.lead")})

	http.Redirect(w, r, gate.SignInPath, http.StatusSeeOther)
}

func (ui *UI) handleDashboard(w http.ResponseWriter, r *http.Request) {
	_, span := ui.tracer.Start(r.Context(), "pages.UI.handleDashboard")
	defer span.End()

	state, _ := gate.StateFromContext(r.Context())

	page := ui.view(w, r, state.User)
	if state.User != nil {
		page.Dashboard = newDashboard(page.L, state.User)
	}

	ui.render(w, r, http.StatusOK, "dashboard", page)
}

func (ui *UI) handleTicketForm(w http.ResponseWriter, r *http.Request) {
	_, span := ui.tracer.Start(r.Context(), "pages.UI.handleTicketForm")
	defer span.End()

	state, _ := gate.StateFromContext(r.Context())

	page := ui.view(w, r, state.User)
	page.TicketTypes = ticketTypes
	page.Form = map[string]string{"type": string(types.TicketSupport)}

	ui.render(w, r, http.StatusOK, "create_ticket", page)
}

func (ui *UI) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	ctx, span := ui.tracer.Start(r.Context(), "pages.UI.handleCreateTicket")
	defer span.End()

	state, _ := gate.StateFromContext(ctx)

	var form TicketForm
	if err := ui.forms.Decode(r, &form); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	page := ui.view(w, r, state.User)
	page.TicketTypes = ticketTypes
	page.Form = map[string]string{"subject": form.Subject, "type": form.Type, "description": form.Description}

	userID := ""
	if state.User != nil {
		userID = state.User.ID
	}

	_, err := ui.tickets.Create(ctx, userID, tickets.Draft{Subject: form.Subject, Type: types.TicketType(form.Type), Description: form.Description})

	var verr *tickets.ValidationError

	switch {
	case err == nil:
		ui.flash(w, Toast{Title: page.L.T("ticket.created"), Description: page.L.T("ticket.created.lead")})
		http.Redirect(w, r, gate.DefaultPath, http.StatusSeeOther)

		return
	case errors.As(err, &verr):
		page.Errors = make(FieldErrors, len(verr.Fields))
		for field, rule := range verr.Fields {
			page.Errors[field] = messageKey(field, rule)
		}

		ui.render(w, r, http.StatusUnprocessableEntity, "create_ticket", page)
	case errors.Is(err, tickets.ErrNotSignedIn):
		page.Toast = &Toast{Title: page.L.T("ticket.error"), Description: page.L.T("ticket.not_signed_in"), Destructive: true}
		ui.render(w, r, http.StatusUnauthorized, "create_ticket", page)
	case errors.Is(err, tickets.ErrNoAccountLink):
		page.Toast = &Toast{Title: page.L.T("ticket.no_account"), Description: page.L.T("ticket.no_account.lead"), Destructive: true}
		ui.render(w, r, http.StatusConflict, "create_ticket", page)
	default:
		ui.logger.Errorf("failed to create ticket: %v", err)
		page.Toast = &Toast{Title: page.L.T("ticket.error"), Description: page.L.T("ticket.failed"), Destructive: true}
		ui.render(w, r, http.StatusInternalServerError, "create_ticket", page)
	}
}

// placeholder is served while the visitor's session is still loading, the
// page reloads itself.
func (ui *UI) placeholder(w http.ResponseWriter, r *http.Request) {
	ui.render(w, r, http.StatusOK, "placeholder", ui.view(w, r, nil))
}

func (ui *UI) view(w http.ResponseWriter, r *http.Request, user *types.AuthUser) *view {
	return &view{
		L:     ui.localizer(r, user),
		Toast: ui.cookies.PopFlash(w, r),
		Year:  strconv.Itoa(ui.now().Year()),
		User:  user,
	}
}

func (ui *UI) localizer(r *http.Request, user *types.AuthUser) *Localizer {
	locale := ""
	if user != nil && user.Profile != nil {
		locale = user.Profile.Locale
	}

	return Negotiate(locale, r.Header.Get("Accept-Language"), ui.defaultLocale)
}

func (ui *UI) render(w http.ResponseWriter, r *http.Request, status int, page string, v *view) {
	if err := ui.renderer.Render(w, status, page, v); err != nil {
		ui.logger.Errorf("failed to render %s for %s: %v", page, r.URL.Path, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (ui *UI) flash(w http.ResponseWriter, t Toast) {
	if err := ui.cookies.SetFlash(w, t); err != nil {
		ui.logger.Errorf("failed to set flash cookie: %v", err)
	}
}

func (ui *UI) fail(w http.ResponseWriter, err error) {
	ui.logger.Errorf("page request failed: %v", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func newDashboard(l *Localizer, u *types.AuthUser) *dashboard {
	d := &dashboard{
		FirstName:    u.FirstName(),
		IsSuperAdmin: u.IsSuperAdmin(),
	}

	if d.FirstName == "" {
		d.FirstName = l.T("dashboard.anonymous")
	}

	if u.Profile != nil {
		names := make([]string, 0, 2)
		for _, n := range []*string{u.Profile.FirstName, u.Profile.LastName} {
			if n != nil && *n != "" {
				names = append(names, *n)
			}
		}

		d.FullName = strings.Join(names, " ")
	}

	accountID := u.AccountID()
	d.CanManageUsers = d.IsSuperAdmin || (accountID != "" && u.HasRole(accountID, types.RoleAccountAdmin))

	for _, r := range u.Roles {
		d.Roles = append(d.Roles, roleBadge{Name: roleName(l, r.Role), Variant: roleVariant(r.Role)})
	}

	if u.Profile != nil && u.Profile.Locale == "sv" {
		d.LocaleLabel, d.LocaleFlag = l.T("locale.sv"), "🇸🇪"
	} else {
		d.LocaleLabel, d.LocaleFlag = l.T("locale.en"), "🇬🇧"
	}

	return d
}

func roleName(l *Localizer, r types.AppRole) string {
	if !r.Valid() {
		return string(r)
	}

	return l.T("role." + string(r))
}

func roleVariant(r types.AppRole) string {
	switch r {
	case types.RoleSuperAdmin:
		return "destructive"
	case types.RoleAccountAdmin:
		return "default"
	case types.RoleAccountUser:
		return "secondary"
	}

	return "outline"
}

// providerMessage is the provider's own text, or fallback when it has none.
func providerMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}

	return err.Error()
}

// safeRedirect only follows local paths.
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return gate.DefaultPath
	}

	return target
}

func tab(t string) string {
	if t == "signup" {
		return t
	}

	return "signin"
}

func NewUI(
	registry RegistryInterface,
	ticketService TicketsInterface,
	cookies *Cookies,
	settleTimeout time.Duration,
	defaultLocale string,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) (*UI, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	ui := new(UI)

	ui.visitors = NewVisitors(registry, cookies, logger)
	ui.cookies = cookies
	ui.forms = NewForms()
	ui.renderer = renderer
	ui.tickets = ticketService

	ui.settleTimeout = settleTimeout
	ui.defaultLocale = defaultLocale
	ui.now = time.Now

	ui.tracer = tracer
	ui.monitor = monitor
	ui.logger = logger

	ui.gate = gate.NewMiddleware(ui.visitors.Resolve, http.HandlerFunc(ui.placeholder), settleTimeout, tracer, monitor, logger)

	return ui, nil
}
