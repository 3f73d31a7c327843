package middleware

import (
	"context"
	"net/http"

	"retentionpulse/internal/assistant"
)

// Chat session transport
const (
	SessionCookie = "rp_session"
	SessionHeader = "X-Session-ID"
)

type sessionKey struct{}

// Session attaches a chat session id to the request. The id comes from the
// X-Session-ID header or the session cookie; a missing or malformed id is
// replaced by a new one and the cookie is (re)issued.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if !assistant.ValidSessionID(id) {
			id = ""
			if c, err := r.Cookie(SessionCookie); err == nil && assistant.ValidSessionID(c.Value) {
				id = c.Value
			}
		}
		if id == "" {
			id = assistant.NewSessionID()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   r.TLS != nil,
			})
		}
		w.Header().Set(SessionHeader, id)

		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
	})
}

// WithSessionID stores id in ctx
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionID returns the chat session id of the request, "" outside Session
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
