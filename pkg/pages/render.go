// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/canonical/customer-portal/internal/types"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageNames = []string{"index", "auth", "dashboard", "create_ticket", "placeholder"}

// view is the data handed to every template.
type view struct {
	L     *Localizer
	Toast *Toast
	Year  string
	User  *types.AuthUser

	Form     map[string]string
	Errors   FieldErrors
	Tab      string
	Redirect string

	Dashboard   *dashboard
	TicketTypes []types.TicketType
}

type roleBadge struct {
	Name    string
	Variant string
}

type dashboard struct {
	FirstName      string
	FullName       string
	Roles          []roleBadge
	CanManageUsers bool
	IsSuperAdmin   bool
	LocaleLabel    string
	LocaleFlag     string
}

// Renderer executes the embedded page templates, each page is parsed
// together with the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

func (r *Renderer) Render(w http.ResponseWriter, status int, page string, v *view) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	_, err := buf.WriteTo(w)

	return err
}

func NewRenderer() (*Renderer, error) {
	r := new(Renderer)
	r.pages = make(map[string]*template.Template, len(pageNames))

	for _, name := range pageNames {
		t, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}

		r.pages[name] = t
	}

	return r, nil
}
