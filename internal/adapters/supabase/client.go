package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
)

const (
	restPath = "/rest/v1/"
	authPath = "/auth/v1/"

	clientInfo = "alquileres-web-go"

	// error bodies larger than this are truncated before logging
	maxErrorBody = 4 << 10
)

// Config describes the Supabase project to talk to.
type Config struct {
	URL           string // https://<project>.supabase.co
	AnonKey       string
	PropertyTable string
	Timeout       time.Duration
	HTTPClient    *http.Client // optional, mainly for tests
}

// Client talks to the PostgREST data API and the GoTrue auth API of one
// Supabase project. It implements both PropertyStoragePort and AuthProviderPort.
type Client struct {
	baseURL       string
	apiKey        string
	propertyTable string
	httpClient    *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase: URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("supabase: anon key is required")
	}

	table := cfg.PropertyTable
	if table == "" {
		table = "properties"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.URL, "/"),
		apiKey:        cfg.AnonKey,
		propertyTable: table,
		httpClient:    httpClient,
	}, nil
}

// request describes one call to the backend.
type request struct {
	method      string
	path        string // relative to the project URL, e.g. "/rest/v1/properties"
	query       url.Values
	body        io.Reader
	accessToken string // user token; the anon key is used when empty
	headers     map[string]string
}

func (c *Client) doRequest(ctx context.Context, r request) (*http.Response, error) {
	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, r.body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	bearer := r.accessToken
	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-Info", clientInfo)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Trace-ID", traceID)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", r.path, err)
	}
	return resp, nil
}

// errorBody covers the error shapes of PostgREST and GoTrue.
type errorBody struct {
	Message          string          `json:"message"`
	Msg              string          `json:"msg"`
	ErrorDescription string          `json:"error_description"`
	Error            string          `json:"error"`
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Details          string          `json:"details"`
	Hint             string          `json:"hint"`
}

// decodeAPIError reads a non-2xx response into a domain.RemoteError.
func decodeAPIError(resp *http.Response) *domain.RemoteError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	remote := &domain.RemoteError{StatusCode: resp.StatusCode}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		remote.Message = strings.TrimSpace(string(raw))
		if remote.Message == "" {
			remote.Message = http.StatusText(resp.StatusCode)
		}
		return remote
	}

	for _, m := range []string{body.Msg, body.Message, body.ErrorDescription, body.Error} {
		if m != "" {
			remote.Message = m
			break
		}
	}
	if remote.Message == "" {
		remote.Message = http.StatusText(resp.StatusCode)
	}

	remote.Code = body.ErrorCode
	if remote.Code == "" && len(body.Code) > 0 {
		var s string
		if err := json.Unmarshal(body.Code, &s); err == nil {
			remote.Code = s
		}
	}
	return remote
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
