// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

const (
	// csrfTokenLength is the byte length of CSRF tokens (32 bytes = 64 hex chars).
	csrfTokenLength = 32

	// CSRFCookieName is the cookie that holds the CSRF token.
	CSRFCookieName = "ss_csrf"

	// CSRFHeaderName is the header the editor echoes the token in.
	CSRFHeaderName = "X-CSRF-Token"
)

// CSRF provides double-submit cookie protection. It issues a token cookie
// readable by the editor's script and requires every state-changing request
// (POST, PUT, PATCH, DELETE) to echo it in the X-CSRF-Token header.
func CSRF(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CSRFCookieName)
			if err != nil || cookie.Value == "" {
				token, err := generateCSRFToken()
				if err != nil {
					writeError(w, http.StatusInternalServerError, "internal error")
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: false, // the editor reads it to fill the header
					Secure:   secure,
					SameSite: http.SameSiteStrictMode,
				})
				cookie = &http.Cookie{Value: token}
			}

			r = r.WithContext(context.WithValue(r.Context(), csrfTokenKey, cookie.Value))

			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			submitted := r.Header.Get(CSRFHeaderName)
			if submitted == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(submitted)) != 1 {
				writeError(w, http.StatusForbidden, "CSRF token mismatch")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetCSRFToken returns the token CSRF issued or accepted for this request,
// falling back to the request cookie outside the middleware.
func GetCSRFToken(r *http.Request) string {
	if token, ok := r.Context().Value(csrfTokenKey).(string); ok {
		return token
	}
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// generateCSRFToken creates a cryptographically random token.
func generateCSRFToken() (string, error) {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
