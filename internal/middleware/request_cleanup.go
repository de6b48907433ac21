package middleware

import (
	"io"
	"net/http"
)

// maxRequestBodyBytes bounds a single request body; a pose frame is a few hundred bytes
const maxRequestBodyBytes = 1 << 20

// DrainAndCloseRequest limits the request body size, and drains and closes the
// body once the handler is done, so the connection can be reused.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
			}
			next.ServeHTTP(w, r)
			if r.Body != nil {
				_, _ = io.Copy(io.Discard, r.Body)
				_ = r.Body.Close()
			}
		})
	}
}
