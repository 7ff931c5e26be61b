package middleware

import (
	"context"
	"net/http"
	"strings"

	credo "github.com/credo-auth/credo"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity a guard stored for the request.
func IdentityFromContext(ctx context.Context) (credo.Identity, bool) {
	ident, ok := ctx.Value(identityContextKey{}).(credo.Identity)
	return ident, ok
}

// Guard rejects requests whose bearer token fails Engine.Authenticate and
// injects the caller's identity into the request context otherwise. The
// response status comes from credo.HTTPStatus, so a revoked token and an
// unavailable store are distinguishable to the client.
func Guard(engine *credo.Engine) func(http.Handler) http.Handler {
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

			ident, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				http.Error(w, http.StatusText(credo.HTTPStatus(err)), credo.HTTPStatus(err))
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireVerified is Guard plus an account lookup that the caller has
// confirmed their email. Routes that change account state typically sit
// behind this one.
func RequireVerified(engine *credo.Engine) func(http.Handler) http.Handler {
	guard := Guard(engine)
	return func(next http.Handler) http.Handler {
		return guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := IdentityFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			view, err := engine.Account(r.Context(), ident.AccountID)
			if err != nil {
				http.Error(w, http.StatusText(credo.HTTPStatus(err)), credo.HTTPStatus(err))
				return
			}
			if !view.Verified {
				http.Error(w, http.StatusText(credo.HTTPStatus(credo.ErrEmailNotVerified)),
					credo.HTTPStatus(credo.ErrEmailNotVerified))
				return
			}
			next.ServeHTTP(w, r)
		}))
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
