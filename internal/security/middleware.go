package security

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/lightwaver/gallerix/internal/model"
	"github.com/lightwaver/gallerix/internal/util"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	tokenContextKey     contextKey = "token"
	authErrContextKey   contextKey = "authErr"
)

// TokenVerifier turns a raw token into a principal.
type TokenVerifier interface {
	Verify(token string) (*model.Principal, error)
}

// Authenticator resolves principals for API routes.
type Authenticator struct {
	verifier   TokenVerifier
	cookieName string
}

func NewAuthenticator(verifier TokenVerifier, cookieName string) *Authenticator {
	return &Authenticator{verifier: verifier, cookieName: cookieName}
}

// CookieName is the session cookie the authenticator reads.
func (a *Authenticator) CookieName() string {
	return a.cookieName
}

// RequireAuth rejects requests without a valid credential with 401.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := apiCredential(r, a.cookieName)
		if !ok {
			util.HandleError(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		principal, err := a.verifier.Verify(token)
		if err != nil {
			log.Printf("[Auth] %s %s: %v", r.Method, r.URL.Path, err)
			util.HandleError(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := WithPrincipal(r.Context(), principal)
		ctx = context.WithValue(ctx, tokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth resolves a principal when a credential is present and never rejects.
// A verification failure is kept in the context for handlers that need to tell
// "bad token" apart from "no token".
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := ExtractCredential(r, a.cookieName)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), tokenContextKey, token)
		principal, err := a.verifier.Verify(token)
		if err != nil {
			ctx = context.WithValue(ctx, authErrContextKey, err)
		} else {
			ctx = WithPrincipal(ctx, principal)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			util.HandleError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !Can(principal, model.PermissionAdmin, nil, model.RoleRequirements{}) {
			util.HandleError(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithPrincipal(ctx context.Context, principal *model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

func PrincipalFromContext(ctx context.Context) (*model.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(*model.Principal)
	return principal, ok && principal != nil
}

// TokenFromContext returns the raw credential the request was authenticated with.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// AuthErrorFromContext is the verification failure recorded by OptionalAuth.
func AuthErrorFromContext(ctx context.Context) error {
	err, _ := ctx.Value(authErrContextKey).(error)
	return err
}

// IsAuthError reports whether err should be answered with 401.
func IsAuthError(err error) bool {
	return errors.Is(err, model.ErrUnauthenticated) || errors.Is(err, model.ErrInvalidToken)
}
