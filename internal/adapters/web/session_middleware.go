package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/ulisescolosimo/scraping-alquileres/internal/adapters/session"
	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port/usecases_port"
)

type contextKey string

const (
	browserSessionKey = contextKey("browserSession")
	currentUserKey    = contextKey("currentUser")
)

func browserSessionFromContext(ctx context.Context) *session.BrowserSession {
	b, _ := ctx.Value(browserSessionKey).(*session.BrowserSession)
	return b
}

// currentUser is nil for anonymous visitors.
func currentUser(ctx context.Context) *domain.User {
	u, _ := ctx.Value(currentUserKey).(*domain.User)
	return u
}

// SessionMiddleware loads the browser session cookie and resolves the
// signed-in user, refreshing or dropping stale tokens on the way.
type SessionMiddleware struct {
	store          *session.CookieStore
	resolveSession usecases_port.ResolveSessionUseCasePort
}

func NewSessionMiddleware(store *session.CookieStore, resolveSession usecases_port.ResolveSessionUseCasePort) *SessionMiddleware {
	return &SessionMiddleware{store: store, resolveSession: resolveSession}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "SessionMiddleware"})

		b := m.store.Load(r)
		dirty := b.IsNew
		var user *domain.User

		if b.SignedIn() {
			resolved, err := m.resolveSession.Execute(ctx, b.Auth)
			switch {
			case err == nil:
				if resolved.AccessToken != b.Auth.AccessToken {
					dirty = true
				}
				b.Auth = *resolved
				user = &b.Auth.User
			case errors.Is(err, domain.ErrUnauthenticated):
				logger.Info("Stored session is no longer valid, signing out locally", nil)
				b.Auth = domain.Session{}
				dirty = true
			default:
				// tokens are kept; the next request tries again
				logger.Error("Could not resolve session, serving as anonymous", err, nil)
			}
		}

		if dirty {
			if err := m.store.Save(w, r, b); err != nil {
				logger.Error("Failed to save session cookie", err, nil)
			}
		}

		ctx = context.WithValue(ctx, browserSessionKey, b)
		if user != nil {
			ctx = context.WithValue(ctx, currentUserKey, user)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser redirects anonymous visitors to loginPath.
func RequireUser(loginPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if currentUser(r.Context()) == nil {
				contextkeys.LoggerFromContext(r.Context()).Debug("Anonymous visitor redirected to login", port.Fields{"path": r.URL.Path})
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
