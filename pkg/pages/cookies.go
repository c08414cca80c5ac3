// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package pages

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	VisitorCookieName = "portal_visitor"
	FlashCookieName   = "portal_flash"

	visitorMaxAge = 30 * 24 * time.Hour
	flashMaxAge   = time.Minute
)

// Toast is a notification shown once on the next rendered page.
type Toast struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// Destructive toasts report failures.
	Destructive bool `json:"destructive,omitempty"`
}

// Visitor identifies the browser and carries the identity provider session
// token used to restore its session context.
type Visitor struct {
	ID    string `json:"id"`
	Token string `json:"token,omitempty"`
}

// Cookies signs, and encrypts when a block key is configured, the visitor
// and flash cookies.
type Cookies struct {
	visitor *securecookie.SecureCookie
	flash   *securecookie.SecureCookie
	secure  bool
}

func (c *Cookies) Visitor(r *http.Request) (Visitor, bool) {
	var v Visitor

	ck, err := r.Cookie(VisitorCookieName)
	if err != nil {
		return v, false
	}

	if err := c.visitor.Decode(VisitorCookieName, ck.Value, &v); err != nil || v.ID == "" {
		return Visitor{}, false
	}

	return v, true
}

func (c *Cookies) SetVisitor(w http.ResponseWriter, v Visitor) error {
	encoded, err := c.visitor.Encode(VisitorCookieName, v)
	if err != nil {
		return err
	}

	http.SetCookie(w, c.cookie(VisitorCookieName, encoded, visitorMaxAge))

	return nil
}

func (c *Cookies) SetFlash(w http.ResponseWriter, t Toast) error {
	encoded, err := c.flash.Encode(FlashCookieName, t)
	if err != nil {
		return err
	}

	http.SetCookie(w, c.cookie(FlashCookieName, encoded, flashMaxAge))

	return nil
}

// PopFlash returns the pending toast, if any, and clears it.
func (c *Cookies) PopFlash(w http.ResponseWriter, r *http.Request) *Toast {
	ck, err := r.Cookie(FlashCookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, c.cookie(FlashCookieName, "", -1))

	t := new(Toast)
	if err := c.flash.Decode(FlashCookieName, ck.Value, t); err != nil {
		return nil
	}

	return t
}

func (c *Cookies) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	}

	if maxAge < 0 {
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
	}

	return ck
}

// NewCookies builds the cookie codecs. blockKey may be empty, it must
// otherwise be 16, 24 or 32 bytes long.
func NewCookies(hashKey, blockKey []byte, secure bool) *Cookies {
	c := new(Cookies)

	if len(blockKey) == 0 {
		blockKey = nil
	}

	c.visitor = securecookie.New(hashKey, blockKey).MaxAge(int(visitorMaxAge.Seconds()))
	c.visitor.SetSerializer(securecookie.JSONEncoder{})

	c.flash = securecookie.New(hashKey, blockKey).MaxAge(int(flashMaxAge.Seconds()))
	c.flash.SetSerializer(securecookie.JSONEncoder{})

	c.secure = secure

	return c
}
