// Package requesttime pins "now" once per request, so the health snapshot
// and the log lines of one request report the same instant.
package requesttime

import (
	"net/http"
	"time"

	"referearn/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(requestcontext.WithTime(r.Context(), time.Now())))
	})
}
