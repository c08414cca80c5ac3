// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"fmt"
	"net/http"

	"github.com/canonical/customer-portal/internal/logging"
)

// TransactionMiddleware runs every mutating request in one transaction,
// rolled back when the handler answers with a status >= 400.
func TransactionMiddleware(db DBClientInterface, logger logging.LoggerInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			err := db.WithTx(r.Context(), func(ctx context.Context) error {
				sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

				next.ServeHTTP(sw, r.WithContext(ctx))

				if sw.status >= http.StatusBadRequest {
					return fmt.Errorf("request failed with status %d", sw.status)
				}

				return nil
			})

			if err != nil {
				logger.Debugf("transaction for %s %s not committed: %s", r.Method, r.URL.Path, err)
			}
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
