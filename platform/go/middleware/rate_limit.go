package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	platformauth "github.com/taippa-io/taippa/platform/go/auth"
	"github.com/taippa-io/taippa/platform/go/problem"
)

// RateLimit caps requests per caller within window. Authenticated callers are keyed by
// tenant and user id; anonymous ones by client IP. A non-positive limit disables it.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(callerKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			problem.Write(w, problem.New(http.StatusTooManyRequests, problem.TypeRateLimited,
				"Too Many Requests", "rate limit exceeded, retry later", nil))
		}),
	)
}

func callerKey(r *http.Request) (string, error) {
	if creds, ok := platformauth.UserFromContext(r.Context()); ok && creds != nil {
		tenant := ""
		if creds.TenantID != nil {
			tenant = *creds.TenantID
		}
		return "user:" + tenant + ":" + creds.Id, nil
	}
	return httprate.KeyByIP(r)
}
