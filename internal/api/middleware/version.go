package middleware

import "net/http"

// ServerVersionHeader reports the API build on every response
const ServerVersionHeader = "X-Server-Version"

// ServerVersion stamps responses with the server version
func ServerVersion(version string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(ServerVersionHeader, version)
			next.ServeHTTP(w, r)
		})
	}
}
