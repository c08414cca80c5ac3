// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package pages

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/mold/v4"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
)

// Form fields are trimmed through their mod tag, passwords never are.
type SignInForm struct {
	Email    string `form:"email" mod:"trim" validate:"required,email"`
	Password string `form:"password" validate:"min=6"`
}

type SignUpForm struct {
	FirstName       string `form:"first_name" mod:"trim" validate:"min=2"`
	LastName        string `form:"last_name" mod:"trim" validate:"min=2"`
	Email           string `form:"email" mod:"trim" validate:"required,email"`
	Password        string `form:"password" validate:"min=6"`
	ConfirmPassword string `form:"confirm_password" validate:"min=6,eqfield=Password"`
}

type TicketForm struct {
	Subject     string `form:"subject" mod:"trim"`
	Type        string `form:"type" mod:"trim"`
	Description string `form:"description" mod:"trim"`
}

// fieldMessages maps a failed field rule to its catalog key. A bare field
// name matches any rule of that field.
var fieldMessages = map[string]string{
	"email":                    "form.email",
	"password":                 "form.password",
	"confirm_password.min":     "form.confirm_password",
	"confirm_password.eqfield": "form.password_mismatch",
	"first_name":               "form.first_name",
	"last_name":                "form.last_name",
	"subject":                  "ticket.subject_required",
	"type":                     "ticket.type_invalid",
	"description":              "ticket.description_required",
}

// FieldErrors maps form field names to catalog keys.
type FieldErrors map[string]string

func messageKey(field, rule string) string {
	if k, ok := fieldMessages[field+"."+rule]; ok {
		return k
	}

	if k, ok := fieldMessages[field]; ok {
		return k
	}

	return "error.title"
}

// Forms decodes and validates submitted forms, reporting fields by their
// form name.
type Forms struct {
	decoder  *form.Decoder
	conform  *mold.Transformer
	validate *validator.Validate
}

// Check returns nil when v is valid.
func (f *Forms) Check(v any) FieldErrors {
	err := f.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": "error.title"}
	}

	fe := make(FieldErrors, len(verrs))
	for _, e := range verrs {
		if _, seen := fe[e.Field()]; !seen {
			fe[e.Field()] = messageKey(e.Field(), e.Tag())
		}
	}

	return fe
}

// Decode fills the struct pointed to by v from the posted form and applies
// its mod tags.
func (f *Forms) Decode(r *http.Request, v any) error {
	if err := r.ParseForm(); err != nil {
		return err
	}

	if err := f.decoder.Decode(v, r.PostForm); err != nil {
		return fmt.Errorf("failed to decode form: %w", err)
	}

	if err := f.conform.Struct(r.Context(), v); err != nil {
		return fmt.Errorf("failed to normalize form: %w", err)
	}

	return nil
}

func NewForms() *Forms {
	f := new(Forms)

	f.decoder = form.NewDecoder()
	f.conform = modifiers.New()

	f.validate = validator.New(validator.WithRequiredStructEnabled())
	f.validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("form")
	})

	return f
}
