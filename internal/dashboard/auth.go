package dashboard

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// authMiddleware validates the shared admin secret. Requests may carry it
// as "Authorization: Bearer <token>" or, for browser links and forms, as a
// "token" query parameter. An empty configured token disables the admin
// surface entirely rather than leaving it open.
func authMiddleware(token string, next http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"admin surface disabled"}`, http.StatusForbidden)
		}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !tokenMatches(r, token) {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func tokenMatches(r *http.Request, token string) bool {
	candidate := ""
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		candidate = strings.TrimPrefix(auth, "Bearer ")
	} else {
		candidate = r.URL.Query().Get("token")
		if candidate == "" && r.Method == http.MethodPost {
			candidate = r.PostFormValue("token")
		}
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1
}
