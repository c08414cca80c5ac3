// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package pages

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/canonical/customer-portal/internal/kratos"
	"github.com/canonical/customer-portal/internal/logging"
	"github.com/canonical/customer-portal/internal/monitoring"
	"github.com/canonical/customer-portal/internal/tracing"
	"github.com/canonical/customer-portal/internal/types"
	"github.com/canonical/customer-portal/pkg/auth"
	"github.com/canonical/customer-portal/pkg/identity"
	"github.com/canonical/customer-portal/pkg/session"
	"github.com/canonical/customer-portal/pkg/tickets"
)

//go:generate mockgen -build_flags=--mod=mod -package pages -destination ./mock_interfaces.go -source=./interfaces.go

var testHashKey = []byte("0123456789abcdef0123456789abcdef")

type fakeVisitor struct {
	state session.State

	signInErr   error
	signUpErr   error
	signUpRes   *identity.SignUpResult
	signOutErr  error
	signInCalls int
	signUpCalls int
}

func (v *fakeVisitor) Snapshot() session.State           { return v.state }
func (v *fakeVisitor) WaitSettled(context.Context) error { return nil }

func (v *fakeVisitor) SignIn(_ context.Context, email, _ string) (*identity.Session, error) {
	v.signInCalls++

	if v.signInErr != nil {
		return nil, v.signInErr
	}

	s := &identity.Session{Token: "tok-1", UserID: "user-1", Email: email}
	v.state.Session = s
	v.state.User = &types.AuthUser{ID: "user-1", Email: email, Roles: []types.UserRole{}}

	return s, nil
}

func (v *fakeVisitor) SignUp(context.Context, string, string, identity.Metadata) (*identity.SignUpResult, error) {
	v.signUpCalls++
	return v.signUpRes, v.signUpErr
}

func (v *fakeVisitor) SignOut(context.Context) error {
	if v.signOutErr != nil {
		return v.signOutErr
	}

	v.state.Session = nil
	v.state.User = nil

	return nil
}

type fakeRegistry struct {
	visitor *fakeVisitor
	tokens  []string
}

func (r *fakeRegistry) Lookup(_ context.Context, _ string, token string) (VisitorInterface, error) {
	r.tokens = append(r.tokens, token)
	return r.visitor, nil
}

func strPtr(s string) *string {
	return &s
}

func newUser(roles ...types.UserRole) *types.AuthUser {
	return &types.AuthUser{
		ID:    "user-1",
		Email: "anna@example.com",
		Profile: &types.Profile{
			UserID:    "user-1",
			AccountID: "acc-1",
			Email:     "anna@example.com",
			FirstName: strPtr("Anna"),
			LastName:  strPtr("Svensson"),
			Locale:    "sv",
		},
		Roles: roles,
	}
}

func newTestUI(t *testing.T, v *fakeVisitor) (http.Handler, *MockTicketsInterface, *fakeRegistry) {
	t.Helper()

	return newTestUIWithLogger(t, v, logging.NewNoopLogger())
}

func newTestUIWithLogger(t *testing.T, v *fakeVisitor, logger logging.LoggerInterface) (http.Handler, *MockTicketsInterface, *fakeRegistry) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockTickets := NewMockTicketsInterface(ctrl)
	registry := &fakeRegistry{visitor: v}

	ui, err := NewUI(registry, mockTickets, NewCookies(testHashKey, nil, false), 50*time.Millisecond, "sv",
		tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)
	if err != nil {
		t.Fatalf("failed to create UI: %v", err)
	}

	mux := chi.NewMux()
	ui.RegisterEndpoints(mux)

	return mux, mockTickets, registry
}

func do(h http.Handler, method, target string, form url.Values, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	for k, v := range header {
		req.Header.Set(k, v)
	}

	for _, c := range returningVisitor() {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w
}

// returningVisitor is the cookie of a visitor that signed in before.
func returningVisitor() []*http.Cookie {
	rec := httptest.NewRecorder()
	if err := NewCookies(testHashKey, nil, false).SetVisitor(rec, Visitor{ID: "visitor-1", Token: "tok-1"}); err != nil {
		panic(err)
	}

	return rec.Result().Cookies()
}

func hasCookie(w *httptest.ResponseRecorder, name string) bool {
	for _, c := range w.Result().Cookies() {
		if c.Name == name && c.MaxAge >= 0 {
			return true
		}
	}

	return false
}

func TestUIPages(t *testing.T) {
	tests := []struct {
		name             string
		state            session.State
		method           string
		target           string
		form             url.Values
		header           map[string]string
		expectedStatus   int
		expectedLocation string
		contains         []string
		excludes         []string
	}{
		{
			name:           "landing page for anonymous visitors",
			method:         http.MethodGet,
			target:         "/",
			expectedStatus: http.StatusOK,
			contains:       []string{"Hemglass Portal", "Skapa konto"},
		},
		{
			name:           "placeholder while loading",
			state:          session.State{Loading: true},
			method:         http.MethodGet,
			target:         "/",
			expectedStatus: http.StatusOK,
			contains:       []string{`http-equiv="refresh"`},
		},
		{
			name:             "signed in visitors skip the landing page",
			state:            session.State{User: newUser()},
			method:           http.MethodGet,
			target:           "/",
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/dashboard",
		},
		{
			name:             "signed in visitors follow the redirect on the auth page",
			state:            session.State{User: newUser()},
			method:           http.MethodGet,
			target:           "/auth?redirect=%2Fcreate-ticket",
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/create-ticket",
		},
		{
			name:             "foreign redirect targets are ignored",
			state:            session.State{User: newUser()},
			method:           http.MethodGet,
			target:           "/auth?redirect=%2F%2Fevil.example",
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/dashboard",
		},
		{
			name:           "sign up tab",
			method:         http.MethodGet,
			target:         "/auth?tab=signup",
			expectedStatus: http.StatusOK,
			contains:       []string{"Bekräfta lösenord", `action="/auth/sign-up"`},
		},
		{
			name:           "failed session refresh is reported on the auth page",
			state:          session.State{Session: &identity.Session{Token: "tok-1", UserID: "user-1"}, Err: errors.New("store timeout")},
			method:         http.MethodGet,
			target:         "/auth",
			expectedStatus: http.StatusOK,
			contains:       []string{"Din session kunde inte läsas in", "toast-destructive"},
		},
		{
			name:             "dashboard requires a session",
			method:           http.MethodGet,
			target:           "/dashboard",
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/auth?redirect=%2Fdashboard",
		},
		{
			name:           "dashboard of an account user",
			state:          session.State{User: newUser(types.UserRole{AccountID: "acc-1", Role: types.RoleAccountUser})},
			method:         http.MethodGet,
			target:         "/dashboard",
			expectedStatus: http.StatusOK,
			contains:       []string{"Välkommen, Anna!", "Anna Svensson", "Användare", "Svenska", "Hemglass Kundportal - "},
			excludes:       []string{"user-management", "system-overview"},
		},
		{
			name:           "dashboard of an account admin",
			state:          session.State{User: newUser(types.UserRole{AccountID: "acc-1", Role: types.RoleAccountAdmin})},
			method:         http.MethodGet,
			target:         "/dashboard",
			expectedStatus: http.StatusOK,
			contains:       []string{"Kontoadministratör", "user-management"},
			excludes:       []string{"system-overview"},
		},
		{
			name:           "dashboard of an admin of another account",
			state:          session.State{User: newUser(types.UserRole{AccountID: "acc-2", Role: types.RoleAccountAdmin})},
			method:         http.MethodGet,
			target:         "/dashboard",
			expectedStatus: http.StatusOK,
			excludes:       []string{"user-management"},
		},
		{
			name:           "dashboard of a super admin",
			state:          session.State{User: newUser(types.UserRole{Role: types.RoleSuperAdmin})},
			method:         http.MethodGet,
			target:         "/dashboard",
			expectedStatus: http.StatusOK,
			contains:       []string{"Superadministratör", "user-management", "system-overview"},
		},
		{
			name:           "dashboard without a profile",
			state:          session.State{User: &types.AuthUser{ID: "user-1", Email: "anna@example.com", Roles: []types.UserRole{}}},
			method:         http.MethodGet,
			target:         "/dashboard",
			expectedStatus: http.StatusOK,
			contains:       []string{"Välkommen, Användare!"},
		},
		{
			name:           "sign up is blocked by invalid fields",
			method:         http.MethodPost,
			target:         "/auth/sign-up",
			form:           url.Values{"email": {"not-an-email"}, "password": {"secret1"}, "confirm_password": {"secret2"}, "first_name": {"A"}, "last_name": {"Svensson"}},
			expectedStatus: http.StatusUnprocessableEntity,
			contains:       []string{"Ogiltig e-postadress", "Lösenorden matchar inte", "Förnamn krävs"},
			excludes:       []string{"Efternamn krävs"},
		},
		{
			name:           "sign in with a short password",
			method:         http.MethodPost,
			target:         "/auth/sign-in",
			form:           url.Values{"email": {"anna@example.com"}, "password": {"123"}},
			expectedStatus: http.StatusUnprocessableEntity,
			contains:       []string{"Lösenordet måste vara minst 6 tecken"},
		},
		{
			name:           "english visitors",
			method:         http.MethodGet,
			target:         "/auth",
			header:         map[string]string{"Accept-Language": "en-GB,en;q=0.8"},
			expectedStatus: http.StatusOK,
			contains:       []string{`lang="en"`, "Email address"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &fakeVisitor{state: tt.state}
			h, _, _ := newTestUI(t, v)

			w := do(h, tt.method, tt.target, tt.form, tt.header)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedLocation != "" && w.Header().Get("Location") != tt.expectedLocation {
				t.Errorf("expected location %s, got %s", tt.expectedLocation, w.Header().Get("Location"))
			}

			body := w.Body.String()
			for _, s := range tt.contains {
				if !strings.Contains(body, s) {
					t.Errorf("expected body to contain %q", s)
				}
			}

			for _, s := range tt.excludes {
				if strings.Contains(body, s) {
					t.Errorf("expected body not to contain %q", s)
				}
			}

			if v.signUpCalls != 0 && tt.expectedStatus == http.StatusUnprocessableEntity {
				t.Errorf("expected no sign up call for an invalid form")
			}
		})
	}
}

func TestUISignIn(t *testing.T) {
	form := url.Values{"email": {"anna@example.com"}, "password": {"secret123"}, "redirect": {"/create-ticket"}}

	tests := []struct {
		name             string
		err              error
		header           map[string]string
		expectedStatus   int
		expectedLocation string
		contains         string
	}{
		{
			name:             "success follows the redirect",
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/create-ticket",
		},
		{
			name:           "invalid credentials",
			err:            &auth.Error{Kind: auth.KindInvalidCredentials, Err: kratos.ErrInvalidCredentials},
			expectedStatus: http.StatusUnauthorized,
			contains:       "Ogiltig e-postadress eller lösenord.",
		},
		{
			name:           "invalid credentials in english",
			err:            &auth.Error{Kind: auth.KindInvalidCredentials, Err: kratos.ErrInvalidCredentials},
			header:         map[string]string{"Accept-Language": "en"},
			expectedStatus: http.StatusUnauthorized,
			contains:       "Invalid email address or password.",
		},
		{
			name:           "email not confirmed",
			err:            &auth.Error{Kind: auth.KindEmailNotConfirmed, Err: kratos.ErrAddressNotVerified},
			expectedStatus: http.StatusUnauthorized,
			contains:       "Vänligen bekräfta din e-postadress innan du loggar in.",
		},
		{
			name:           "unknown errors show the provider text",
			err:            &auth.Error{Kind: auth.KindUnknown, Err: errTest("rate limited")},
			expectedStatus: http.StatusUnauthorized,
			contains:       "rate limited",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &fakeVisitor{signInErr: tt.err}
			h, _, _ := newTestUI(t, v)

			w := do(h, http.MethodPost, "/auth/sign-in", form, tt.header)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.expectedLocation != "" {
				if w.Header().Get("Location") != tt.expectedLocation {
					t.Errorf("expected location %s, got %s", tt.expectedLocation, w.Header().Get("Location"))
				}

				if !hasCookie(w, FlashCookieName) || !hasCookie(w, VisitorCookieName) {
					t.Errorf("expected flash and visitor cookies to be set")
				}
			}

			if tt.contains != "" && !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("expected body to contain %q", tt.contains)
			}

			if v.signInCalls != 1 {
				t.Errorf("expected 1 sign in call, got %d", v.signInCalls)
			}
		})
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }

func TestUISignUp(t *testing.T) {
	form := url.Values{
		"email": {"anna@example.com"}, "password": {"secret123"}, "confirm_password": {"secret123"},
		"first_name": {"Anna"}, "last_name": {"Svensson"},
	}

	tests := []struct {
		name             string
		res              *identity.SignUpResult
		err              error
		expectedStatus   int
		expectedLocation string
		contains         []string
	}{
		{
			name:           "confirmation required",
			res:            &identity.SignUpResult{UserID: "user-1"},
			expectedStatus: http.StatusOK,
			contains:       []string{"Konto skapat!", `action="/auth/sign-in"`},
		},
		{
			name:             "session returned",
			res:              &identity.SignUpResult{UserID: "user-1", Session: &identity.Session{Token: "tok-1"}},
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/dashboard",
		},
		{
			name:           "existing user switches to sign in",
			err:            &auth.Error{Kind: auth.KindUserExists, Err: kratos.ErrIdentifierExists},
			expectedStatus: http.StatusConflict,
			contains:       []string{"Användaren finns redan", `action="/auth/sign-in"`},
		},
		{
			name:           "weak password",
			err:            &auth.Error{Kind: auth.KindWeakPassword, Err: errTest("password is too common")},
			expectedStatus: http.StatusBadRequest,
			contains:       []string{"Registrering misslyckades", "password is too common"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &fakeVisitor{signUpRes: tt.res, signUpErr: tt.err}
			h, _, _ := newTestUI(t, v)

			w := do(h, http.MethodPost, "/auth/sign-up", form, nil)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.expectedLocation != "" && w.Header().Get("Location") != tt.expectedLocation {
				t.Errorf("expected location %s, got %s", tt.expectedLocation, w.Header().Get("Location"))
			}

			for _, s := range tt.contains {
				if !strings.Contains(w.Body.String(), s) {
					t.Errorf("expected body to contain %q", s)
				}
			}
		})
	}
}

func TestUISignOut(t *testing.T) {
	v := &fakeVisitor{state: session.State{User: newUser()}}
	h, _, _ := newTestUI(t, v)

	w := do(h, http.MethodPost, "/sign-out", url.Values{}, nil)

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/auth" {
		t.Fatalf("expected redirect to /auth, got %d %s", w.Code, w.Header().Get("Location"))
	}

	if v.state.User != nil {
		t.Errorf("expected the visitor to be signed out")
	}

	if !hasCookie(w, FlashCookieName) {
		t.Errorf("expected a flash cookie")
	}
}

func TestUICreateTicket(t *testing.T) {
	form := url.Values{"subject": {" Leverans "}, "type": {"Economy"}, "description": {"Faktura saknas"}}

	tests := []struct {
		name             string
		setupMocks       func(*MockTicketsInterface)
		expectedStatus   int
		expectedLocation string
		contains         string
	}{
		{
			name: "created",
			setupMocks: func(m *MockTicketsInterface) {
				m.EXPECT().Create(gomock.Any(), "user-1", tickets.Draft{Subject: "Leverans", Type: types.TicketEconomy, Description: "Faktura saknas"}).
					Return(&types.Ticket{ID: "ticket-1"}, nil)
			},
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/dashboard",
		},
		{
			name: "no account link",
			setupMocks: func(m *MockTicketsInterface) {
				m.EXPECT().Create(gomock.Any(), "user-1", gomock.Any()).Return(nil, tickets.ErrNoAccountLink)
			},
			expectedStatus: http.StatusConflict,
			contains:       "Din profil saknar kopplat konto. Kontakta administratör.",
		},
		{
			name: "invalid draft",
			setupMocks: func(m *MockTicketsInterface) {
				m.EXPECT().Create(gomock.Any(), "user-1", gomock.Any()).Return(nil, &tickets.ValidationError{Fields: map[string]string{"description": "required"}})
			},
			expectedStatus: http.StatusUnprocessableEntity,
			contains:       "Beskrivning krävs",
		},
		{
			name: "store failure",
			setupMocks: func(m *MockTicketsInterface) {
				m.EXPECT().Create(gomock.Any(), "user-1", gomock.Any()).Return(nil, errTest("connection reset"))
			},
			expectedStatus: http.StatusInternalServerError,
			contains:       "Kunde inte skapa ärendet. Försök igen.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &fakeVisitor{state: session.State{User: newUser(types.UserRole{AccountID: "acc-1", Role: types.RoleAccountUser})}}
			h, mockTickets, _ := newTestUI(t, v)
			tt.setupMocks(mockTickets)

			w := do(h, http.MethodPost, "/create-ticket", form, nil)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.expectedLocation != "" && w.Header().Get("Location") != tt.expectedLocation {
				t.Errorf("expected location %s, got %s", tt.expectedLocation, w.Header().Get("Location"))
			}

			if tt.contains != "" && !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("expected body to contain %q", tt.contains)
			}
		})
	}
}

func TestUIVisitorCookieRestoresToken(t *testing.T) {
	v := &fakeVisitor{}
	h, _, registry := newTestUI(t, v)

	cookies := NewCookies(testHashKey, nil, false)
	rec := httptest.NewRecorder()
	if err := cookies.SetVisitor(rec, Visitor{ID: "visitor-1", Token: "tok-9"}); err != nil {
		t.Fatalf("failed to encode cookie: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if len(registry.tokens) != 1 || registry.tokens[0] != "tok-9" {
		t.Errorf("expected the cookie token to be handed to the registry, got %v", registry.tokens)
	}

	if hasCookie(w, VisitorCookieName) {
		t.Errorf("expected no new visitor cookie for a known visitor")
	}
}

func TestUIAnonymousReadsSkipTheRegistry(t *testing.T) {
	tests := []struct {
		name            string
		method          string
		target          string
		form            url.Values
		expectedLookups int
	}{
		{name: "landing page", method: http.MethodGet, target: "/", expectedLookups: 0},
		{name: "auth page", method: http.MethodGet, target: "/auth?tab=signup", expectedLookups: 0},
		{name: "protected page", method: http.MethodGet, target: "/dashboard", expectedLookups: 0},
		{
			name:            "sign in post",
			method:          http.MethodPost,
			target:          "/auth/sign-in",
			form:            url.Values{"email": {"anna@example.com"}, "password": {"secret123"}},
			expectedLookups: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &fakeVisitor{}
			h, _, registry := newTestUI(t, v)

			var req *http.Request
			if tt.form != nil {
				req = httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.form.Encode()))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			} else {
				req = httptest.NewRequest(tt.method, tt.target, nil)
			}

			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code >= http.StatusInternalServerError {
				t.Fatalf("expected the page to be served, got %d", w.Code)
			}

			if len(registry.tokens) != tt.expectedLookups {
				t.Errorf("expected %d registry lookups, got %d", tt.expectedLookups, len(registry.tokens))
			}

			if !hasCookie(w, VisitorCookieName) {
				t.Errorf("expected a visitor cookie on the first visit")
			}
		})
	}
}

type securityRecorder struct {
	logging.SecurityLoggerInterface

	events []string
}

func (s *securityRecorder) AuthnLoginSuccess(string) { s.events = append(s.events, "login_success") }
func (s *securityRecorder) AuthnLoginFail(string)    { s.events = append(s.events, "login_fail") }
func (s *securityRecorder) AuthnRegistration(string) { s.events = append(s.events, "registration") }
func (s *securityRecorder) AuthnLogout(string)       { s.events = append(s.events, "logout") }

type recordingLogger struct {
	*logging.Logger

	security *securityRecorder
}

func (l *recordingLogger) Security() logging.SecurityLoggerInterface {
	return l.security
}

// The identity client emits the authentication events, pages must not
// repeat them.
func TestUIAuthFlowsEmitNoSecurityEvents(t *testing.T) {
	noop := logging.NewNoopLogger()
	logger := &recordingLogger{Logger: noop, security: &securityRecorder{SecurityLoggerInterface: noop.Security()}}

	signUp := url.Values{
		"email": {"anna@example.com"}, "password": {"secret123"}, "confirm_password": {"secret123"},
		"first_name": {"Anna"}, "last_name": {"Svensson"},
	}
	signIn := url.Values{"email": {"anna@example.com"}, "password": {"secret123"}}

	failing := &fakeVisitor{signInErr: &auth.Error{Kind: auth.KindInvalidCredentials, Err: errTest("invalid credentials")}}
	h, _, _ := newTestUIWithLogger(t, failing, logger)
	do(h, http.MethodPost, "/auth/sign-in", signIn, nil)

	v := &fakeVisitor{signUpRes: &identity.SignUpResult{UserID: "user-1"}}
	h, _, _ = newTestUIWithLogger(t, v, logger)
	do(h, http.MethodPost, "/auth/sign-up", signUp, nil)
	do(h, http.MethodPost, "/auth/sign-in", signIn, nil)
	do(h, http.MethodPost, "/sign-out", url.Values{}, nil)

	if failing.signInCalls != 1 || v.signUpCalls != 1 || v.signInCalls != 1 {
		t.Fatalf("expected every flow to reach the visitor, got %d %d %d", failing.signInCalls, v.signUpCalls, v.signInCalls)
	}

	if len(logger.security.events) != 0 {
		t.Errorf("expected no security events from the pages, got %v", logger.security.events)
	}
}
