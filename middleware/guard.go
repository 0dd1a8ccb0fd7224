package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/projectary/authcore"
)

type accountContextKey struct{}

// AccountFromContext returns the account injected by [Guard].
func AccountFromContext(ctx context.Context) (*authcore.PublicAccount, bool) {
	account, ok := ctx.Value(accountContextKey{}).(*authcore.PublicAccount)
	return account, ok
}

// Guard rejects requests without a valid bearer token and passes the rest
// through with the authenticated account in the request context.
func Guard(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			account, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), accountContextKey{}, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
