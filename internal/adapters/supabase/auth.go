package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
)

var _ port.AuthProviderPort = (*Client)(nil)

func (c *Client) postJSON(ctx context.Context, path string, query url.Values, payload interface{}, accessToken string) (*http.Response, error) {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	r := request{
		method:      http.MethodPost,
		path:        path,
		query:       query,
		accessToken: accessToken,
	}
	if body != nil {
		r.body = body
	}
	return c.doRequest(ctx, r)
}

// SignUp registers a new email/password user.
func (c *Client) SignUp(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	clientLogger := logger.WithFields(port.Fields{
		"component": "SupabaseClient",
		"method":    "SignUp",
	})

	resp, err := c.postJSON(ctx, authPath+"signup", nil, passwordGrantRequest{Email: creds.Email, Password: creds.Password}, "")
	if err != nil {
		clientLogger.Error("Failed to perform sign up request", err, nil)
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		apiErr := decodeAPIError(resp)
		clientLogger.Warn("Auth API rejected sign up", port.Fields{"status_code": resp.StatusCode, "code": apiErr.Code})
		return nil, apiErr
	}

	var out signUpResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		clientLogger.Error("Failed to decode sign up response", err, nil)
		return nil, fmt.Errorf("failed to decode sign up response: %w", err)
	}

	u := out.userDTO
	if out.User != nil {
		u = *out.User
	}
	user := u.toDomain()
	clientLogger.Info("User signed up", port.Fields{"user_id": user.ID})
	return &user, nil
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	clientLogger := logger.WithFields(port.Fields{
		"component": "SupabaseClient",
		"method":    "SignInWithPassword",
	})

	query := url.Values{"grant_type": {"password"}}
	resp, err := c.postJSON(ctx, authPath+"token", query, passwordGrantRequest{Email: creds.Email, Password: creds.Password}, "")
	if err != nil {
		clientLogger.Error("Failed to perform token request", err, nil)
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		apiErr := decodeAPIError(resp)
		if isCredentialRejection(resp.StatusCode) {
			clientLogger.Warn("Auth API rejected credentials", port.Fields{"status_code": resp.StatusCode, "code": apiErr.Code})
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, apiErr)
		}
		clientLogger.Error("Auth API failed during sign in", apiErr, port.Fields{"status_code": resp.StatusCode})
		return nil, apiErr
	}

	return c.decodeSession(resp, clientLogger)
}

// RefreshSession trades a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	clientLogger := logger.WithFields(port.Fields{
		"component": "SupabaseClient",
		"method":    "RefreshSession",
	})

	query := url.Values{"grant_type": {"refresh_token"}}
	resp, err := c.postJSON(ctx, authPath+"token", query, refreshGrantRequest{RefreshToken: refreshToken}, "")
	if err != nil {
		clientLogger.Error("Failed to perform refresh request", err, nil)
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		apiErr := decodeAPIError(resp)
		if isCredentialRejection(resp.StatusCode) {
			clientLogger.Info("Refresh token rejected", port.Fields{"code": apiErr.Code})
			return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, apiErr)
		}
		clientLogger.Error("Auth API failed during refresh", apiErr, nil)
		return nil, apiErr
	}

	return c.decodeSession(resp, clientLogger)
}

func (c *Client) decodeSession(resp *http.Response, logger port.LoggerPort) (*domain.Session, error) {
	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		logger.Error("Failed to decode token response", err, nil)
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token response carries no access token")
	}

	session := tok.toDomain(time.Now())
	logger.Info("Session issued", port.Fields{"user_id": session.User.ID})
	return &session, nil
}

// GetUser asks the auth API who owns accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	clientLogger := logger.WithFields(port.Fields{
		"component": "SupabaseClient",
		"method":    "GetUser",
	})

	resp, err := c.doRequest(ctx, request{
		method:      http.MethodGet,
		path:        authPath + "user",
		accessToken: accessToken,
	})
	if err != nil {
		clientLogger.Error("Failed to perform user request", err, nil)
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		apiErr := decodeAPIError(resp)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			clientLogger.Debug("Access token rejected", port.Fields{"code": apiErr.Code})
			return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, apiErr)
		}
		clientLogger.Error("Auth API failed during user lookup", apiErr, nil)
		return nil, apiErr
	}

	var u userDTO
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}
	if u.ID == "" {
		return nil, fmt.Errorf("%w: user response has no id", domain.ErrUnauthenticated)
	}
	user := u.toDomain()
	return &user, nil
}

// SignOut revokes the session behind accessToken. A token the API no
// longer knows counts as already signed out.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	logger := contextkeys.LoggerFromContext(ctx)
	clientLogger := logger.WithFields(port.Fields{
		"component": "SupabaseClient",
		"method":    "SignOut",
	})

	resp, err := c.postJSON(ctx, authPath+"logout", nil, nil, accessToken)
	if err != nil {
		clientLogger.Error("Failed to perform logout request", err, nil)
		return err
	}
	defer resp.Body.Close()

	switch {
	case isSuccess(resp.StatusCode):
		clientLogger.Info("Session revoked", nil)
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound:
		clientLogger.Info("Session was already gone", port.Fields{"status_code": resp.StatusCode})
		return nil
	default:
		apiErr := decodeAPIError(resp)
		clientLogger.Error("Auth API failed during logout", apiErr, nil)
		return apiErr
	}
}

func isCredentialRejection(status int) bool {
	return status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusUnprocessableEntity
}
