// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

type LoggerInterface interface {
	Errorf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Debugf(string, ...interface{})
	Fatalf(string, ...interface{})
	Error(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Debug(...interface{})
	Fatal(...interface{})
	With(...interface{}) LoggerInterface
	Security() SecurityLoggerInterface
	Sync() error
}

// SecurityLoggerInterface emits events in the OWASP logging vocabulary
// (https://cheatsheetseries.owasp.org/cheatsheets/Logging_Vocabulary_Cheat_Sheet.html).
type SecurityLoggerInterface interface {
	SystemStartup()
	SystemShutdown()
	AuthnLoginSuccess(user string)
	AuthnLoginFail(user string)
	AuthnRegistration(user string)
	AuthnLogout(user string)
	AuthnTokenInvalid(source string)
	AuthzFailure(user, resource string)
	AuthzGrant(user, grantee, role string)
}
