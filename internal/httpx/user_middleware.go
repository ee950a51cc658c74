package httpx

import (
	"net/http"
	"strings"
)

// UserIDHeader carries the caller identity set by the gateway.
const UserIDHeader = "X-User-Id"

// UserIdentityMiddleware trusts the identity the hosting gateway forwards in
// X-User-Id, falling back to a user_id query parameter. It never rejects a
// request; RequireUser does that per route.
func UserIdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			userID = strings.TrimSpace(r.URL.Query().Get("user_id"))
		}
		if userID != "" {
			r = r.WithContext(ContextWithUser(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser answers 401 when no user identity reached the request.
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if UserIDFrom(r) == "" {
			JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "User identity required", nil)
			return
		}
		next(w, r)
	}
}
