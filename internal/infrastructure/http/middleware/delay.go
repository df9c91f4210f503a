package middleware

import (
	"net/http"
	"time"
)

// Delay holds a request for d before handing it on. The list endpoints that
// the UI calls right after a write use it so the middleend has caught up.
// The wait is not cut short by the client going away: the request still runs
// and is audited.
func Delay(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(d)
			next.ServeHTTP(w, r)
		})
	}
}
