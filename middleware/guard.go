package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shelfwise/authcore"
)

type principalContextKey struct{}

// PrincipalFromContext returns the principal injected by [Guard] for the
// current request.
func PrincipalFromContext(ctx context.Context) (*authcore.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*authcore.Principal)
	return p, ok
}

// Guard rejects requests whose bearer token does not resolve to a live
// identity holding at least one of the given roles. With no roles it
// enforces authentication only. The response status follows
// [authcore.StatusHint]: 401 for missing or bad tokens, 404 when the
// subject vanished, 403 for insufficient privilege.
func Guard(engine *authcore.Engine, roles ...authcore.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, _ := bearerToken(r.Header.Get("Authorization"))

			principal, err := engine.Authorize(r.Context(), token, roles...)
			if err != nil {
				reject(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth enforces authentication without any role requirement.
func RequireAuth(engine *authcore.Engine) func(http.Handler) http.Handler {
	return Guard(engine)
}

// RequireRole enforces authentication plus possession of at least one of
// the given roles.
func RequireRole(engine *authcore.Engine, roles ...authcore.Role) func(http.Handler) http.Handler {
	return Guard(engine, roles...)
}

func reject(w http.ResponseWriter, err error) {
	status := authcore.StatusHint(err)

	switch status {
	case http.StatusUnauthorized:
		http.Error(w, "unauthorized", status)
	case http.StatusForbidden:
		http.Error(w, "forbidden", status)
	case http.StatusNotFound:
		http.Error(w, "not found", status)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
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
