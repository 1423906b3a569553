package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/akazarov/taskmanager/internal/auth"
	"github.com/akazarov/taskmanager/internal/models"
)

type ctxKey string

const (
	userCtxKey    ctxKey = "user"
	sessionCtxKey ctxKey = "session_id"
)

// UserLoader resolves a session's user id to a full user record.
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userCtxKey).(*models.User)
	return u
}

// SessionIDFromContext returns the request's session id. CurrentUser
// guarantees it is set on every request it wraps.
func SessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(sessionCtxKey).(string)
	return sid
}

// CurrentUser guarantees every request a session and resolves the logged-in
// user into the request context. A missing, tampered, or expired cookie
// gets a fresh anonymous session; a stale user id (user since deleted)
// resolves to no user.
func CurrentUser(sessions auth.Sessions, users UserLoader, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				sid    string
				userID int64
			)
			if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
				if id, ok := auth.VerifySessionCookie(secret, cookie.Value); ok {
					uid, live, err := sessions.UserID(r.Context(), id)
					if err != nil {
						log.Printf("session lookup: %v", err)
						http.Error(w, "server error", http.StatusInternalServerError)
						return
					}
					if live {
						sid, userID = id, uid
					}
				}
			}
			if sid == "" {
				newSid, err := sessions.Create(r.Context(), auth.AnonymousUser)
				if err != nil {
					log.Printf("session create: %v", err)
					http.Error(w, "server error", http.StatusInternalServerError)
					return
				}
				sid = newSid
				auth.SetSessionCookie(w, secret, sid)
			}

			ctx := context.WithValue(r.Context(), sessionCtxKey, sid)
			if userID != auth.AnonymousUser {
				user, err := users.GetUserByID(ctx, userID)
				switch {
				case err == nil:
					ctx = context.WithValue(ctx, userCtxKey, user)
				case errors.Is(err, models.ErrNotFound):
					// stale session; continue logged out
				default:
					log.Printf("load user %d: %v", userID, err)
					http.Error(w, "server error", http.StatusInternalServerError)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth redirects unauthenticated requests to the login page,
// carrying the originally requested path in the next parameter.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
