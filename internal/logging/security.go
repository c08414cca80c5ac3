// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"fmt"

	"go.uber.org/zap"
)

type SecurityLogger struct {
	l *zap.Logger
}

func (s *SecurityLogger) event(level string, event, description string, fields ...zap.Field) {
	fs := append([]zap.Field{
		zap.String("type", "security"),
		zap.String("appid", appName),
		zap.String("event", event),
		zap.String("level", level),
		zap.String("description", description),
	}, fields...)

	switch level {
	case "WARN":
		s.l.Warn(description, fs...)
	case "CRITICAL":
		s.l.Error(description, fs...)
	default:
		s.l.Info(description, fs...)
	}
}

func (s *SecurityLogger) SystemStartup() {
	s.event("WARN", "sys_startup", fmt.Sprintf("%s is starting", appName))
}

func (s *SecurityLogger) SystemShutdown() {
	s.event("WARN", "sys_shutdown", fmt.Sprintf("%s is shutting down", appName))
}

func (s *SecurityLogger) AuthnLoginSuccess(user string) {
	s.event("INFO", fmt.Sprintf("authn_login_success:%s", user), fmt.Sprintf("user %s login successfully", user))
}

func (s *SecurityLogger) AuthnLoginFail(user string) {
	s.event("WARN", fmt.Sprintf("authn_login_fail:%s", user), fmt.Sprintf("user %s login failed", user))
}

func (s *SecurityLogger) AuthnRegistration(user string) {
	s.event("INFO", fmt.Sprintf("authn_register:%s", user), fmt.Sprintf("user %s registered", user))
}

func (s *SecurityLogger) AuthnLogout(user string) {
	s.event("INFO", fmt.Sprintf("authn_logout:%s", user), fmt.Sprintf("user %s logged out", user))
}

func (s *SecurityLogger) AuthnTokenInvalid(source string) {
	s.event("WARN", fmt.Sprintf("authn_token_invalid:%s", source), "invalid token presented")
}

func (s *SecurityLogger) AuthzFailure(user, resource string) {
	s.event("CRITICAL", fmt.Sprintf("authz_fail:%s,%s", user, resource), fmt.Sprintf("user %s attempted to access %s without entitlement", user, resource))
}

func (s *SecurityLogger) AuthzGrant(user, grantee, role string) {
	s.event("WARN", fmt.Sprintf("authz_admin:%s,%s,%s", user, grantee, role), fmt.Sprintf("user %s granted %s to %s", user, role, grantee))
}

func newSecurityLogger(z *zap.Logger) *SecurityLogger {
	return &SecurityLogger{l: z.Named("security")}
}
