package middleware

import (
	"net/http"
	"strings"
)

// UnlockToken extracts the unlock token a client presents for a protected
// note. Absence is not an error: most notes are unprotected, and a missing
// token simply yields a locked result downstream.
func UnlockToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}

	// Websocket clients cannot set headers from the browser.
	return r.URL.Query().Get("unlock_token")
}
