// internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

// FirebaseAuthClient は firebase auth クライアントのエイリアス。
// RouterDeps などからは *middleware.FirebaseAuthClient 型で受けられます。
type FirebaseAuthClient = fbauth.Client

// typed context keys
type ctxKey struct{ name string }

var (
	ctxKeyUID   = ctxKey{name: "uid"}
	ctxKeyEmail = ctxKey{name: "email"}
)

// WithUser stores the verified uid/email on the context.
// UserAuthMiddleware is the normal writer; handler tests use it directly.
func WithUser(ctx context.Context, uid, email string) context.Context {
	if uid = strings.TrimSpace(uid); uid != "" {
		ctx = context.WithValue(ctx, ctxKeyUID, uid)
	}
	if email = strings.TrimSpace(email); email != "" {
		ctx = context.WithValue(ctx, ctxKeyEmail, email)
	}
	return ctx
}

// CurrentUserUID returns the Firebase UID stored by UserAuthMiddleware.
// The storefront uses the uid directly as the avatar id.
func CurrentUserUID(r *http.Request) (string, bool) {
	v := r.Context().Value(ctxKeyUID)
	u, ok := v.(string)
	if !ok || strings.TrimSpace(u) == "" {
		return "", false
	}
	return strings.TrimSpace(u), true
}

// CurrentUserEmail returns the verified email, if the token carried one.
func CurrentUserEmail(r *http.Request) (string, bool) {
	v := r.Context().Value(ctxKeyEmail)
	e, ok := v.(string)
	if !ok || strings.TrimSpace(e) == "" {
		return "", false
	}
	return strings.TrimSpace(e), true
}
