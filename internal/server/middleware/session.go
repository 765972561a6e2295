package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/faucetdb/crudgen/internal/session"
)

type contextKeySession string

const (
	// SessionIDKey is the context key for the visitor's session ID.
	SessionIDKey contextKeySession = "session_id"

	sessionHolderKey contextKeySession = "session_holder"
)

// sessionHolder lets an outer middleware see the session resolved further in.
type sessionHolder struct{ id string }

func withSessionHolder(ctx context.Context, h *sessionHolder) context.Context {
	return context.WithValue(ctx, sessionHolderKey, h)
}

// SessionStore is the part of session.Store the middleware needs.
type SessionStore interface {
	Create(ctx context.Context) (string, error)
	Touch(ctx context.Context, id string) error
}

// Session returns an HTTP middleware that attaches a session to every
// request. A valid cookie whose session still exists is reused; anything
// else starts a new session. The cookie is re-issued on each request so
// its expiry slides with activity.
func Session(store SessionStore, signer *session.Signer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id := resumeSession(ctx, store, signer, logger, r)
			if id == "" {
				var err error
				id, err = store.Create(ctx)
				if err != nil {
					logger.Error("create session", "error", err, "request_id", GetRequestID(ctx))
					writeSessionError(w)
					return
				}
				logger.Debug("session started", "session_id", id, "request_id", GetRequestID(ctx))
			}

			if h, ok := ctx.Value(sessionHolderKey).(*sessionHolder); ok {
				h.id = id
			}

			token, err := signer.Issue(id)
			if err != nil {
				logger.Error("sign session token", "error", err, "request_id", GetRequestID(ctx))
				writeSessionError(w)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     session.CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(signer.TTL().Seconds()),
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, SessionIDKey, id)))
		})
	}
}

func resumeSession(ctx context.Context, store SessionStore, signer *session.Signer, logger *slog.Logger, r *http.Request) string {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil {
		return ""
	}
	id, err := signer.Verify(cookie.Value)
	if err != nil {
		return ""
	}
	if err := store.Touch(ctx, id); err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			logger.Warn("touch session", "session_id", id, "error", err, "request_id", GetRequestID(ctx))
		}
		return ""
	}
	return id
}

// GetSessionID extracts the session ID from the context. Returns an empty
// string outside the Session middleware.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(SessionIDKey).(string); ok {
		return id
	}
	return ""
}

// WithSessionID returns a copy of ctx carrying id. Used by callers that
// resolve a session outside HTTP, such as tests.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}

func writeSessionError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	// Written by hand to avoid an import cycle with the handler package.
	w.Write([]byte(`{"error":{"code":500,"message":"Session unavailable"}}`))
}
