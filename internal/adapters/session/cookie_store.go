package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
)

const (
	DefaultCookieName = "alquileres_session"

	keySessionID    = "sid"
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyExpiresAt    = "expires_at"
	keyUserID       = "user_id"
	keyEmail        = "email"

	minSecretLength = 32
)

// Config describes the browser session cookie.
type Config struct {
	Secret     string
	CookieName string
	Secure     bool
	MaxAge     time.Duration
}

// BrowserSession is what the cookie holds: a stable id for the browser and
// the auth tokens once the user signed in.
type BrowserSession struct {
	ID    string
	Auth  domain.Session
	IsNew bool
}

// SignedIn reports whether the cookie carries an access token.
func (b *BrowserSession) SignedIn() bool {
	return b.Auth.AccessToken != ""
}

// CookieStore keeps the browser session in a signed and encrypted cookie.
type CookieStore struct {
	store sessions.Store
	name  string
}

func NewCookieStore(cfg Config) (*CookieStore, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d characters", minSecretLength)
	}
	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}

	secret := []byte(cfg.Secret)
	// the whole secret signs; its first 32 bytes are the AES-256 key
	store := sessions.NewCookieStore(secret, secret[:32])
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(int(maxAge.Seconds()))

	return &CookieStore{store: store, name: name}, nil
}

// Load reads the browser session. A missing or tampered cookie yields a
// fresh session with a new id and IsNew set.
func (c *CookieStore) Load(r *http.Request) *BrowserSession {
	s, err := c.store.Get(r, c.name)
	if err != nil || s == nil {
		s, _ = c.store.New(r, c.name)
	}

	b := &BrowserSession{}
	if id, ok := s.Values[keySessionID].(string); ok && id != "" {
		b.ID = id
	} else {
		b.ID = uuid.NewString()
		b.IsNew = true
	}

	b.Auth.AccessToken, _ = s.Values[keyAccessToken].(string)
	b.Auth.RefreshToken, _ = s.Values[keyRefreshToken].(string)
	b.Auth.User.ID, _ = s.Values[keyUserID].(string)
	b.Auth.User.Email, _ = s.Values[keyEmail].(string)
	if exp, ok := s.Values[keyExpiresAt].(int64); ok && exp > 0 {
		b.Auth.ExpiresAt = time.Unix(exp, 0).UTC()
	}
	return b
}

// Save writes b back to the cookie.
func (c *CookieStore) Save(w http.ResponseWriter, r *http.Request, b *BrowserSession) error {
	s, err := c.store.Get(r, c.name)
	if err != nil || s == nil {
		s, _ = c.store.New(r, c.name)
	}

	s.Values[keySessionID] = b.ID
	if b.SignedIn() {
		s.Values[keyAccessToken] = b.Auth.AccessToken
		s.Values[keyRefreshToken] = b.Auth.RefreshToken
		s.Values[keyUserID] = b.Auth.User.ID
		s.Values[keyEmail] = b.Auth.User.Email
		var exp int64
		if !b.Auth.ExpiresAt.IsZero() {
			exp = b.Auth.ExpiresAt.Unix()
		}
		s.Values[keyExpiresAt] = exp
	} else {
		for _, k := range []string{keyAccessToken, keyRefreshToken, keyUserID, keyEmail, keyExpiresAt} {
			delete(s.Values, k)
		}
	}

	if err := c.store.Save(r, w, s); err != nil {
		return fmt.Errorf("failed to save session cookie: %w", err)
	}
	b.IsNew = false
	return nil
}

// ClearAuth drops the tokens but keeps the browser id, so open tabs of the
// same browser stay subscribed to auth events.
func (c *CookieStore) ClearAuth(w http.ResponseWriter, r *http.Request, b *BrowserSession) error {
	b.Auth = domain.Session{}
	return c.Save(w, r, b)
}
