package http

import (
	"net/http"

	"llm-scoring/internal/auth"
)

// RequireAPIToken guards admin routes with a static bearer token. An empty
// token locks the routes instead of opening them.
func RequireAPIToken(want string) func(http.Handler) http.Handler {
	wantHash := auth.HashToken(want)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := auth.Bearer(r)
			if want == "" || !ok || !auth.Matches(got, wantHash) {
				writeJSON(w, http.StatusUnauthorized, errResp{"unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
