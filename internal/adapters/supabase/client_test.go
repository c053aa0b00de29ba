package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
)

const testAnonKey = "anon-key"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{URL: srv.URL + "/", AnonKey: testAnonKey})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresURLAndKey(t *testing.T) {
	_, err := NewClient(Config{AnonKey: "k"})
	assert.Error(t, err)

	_, err = NewClient(Config{URL: "https://x.supabase.co"})
	assert.Error(t, err)

	c, err := NewClient(Config{URL: "https://x.supabase.co/", AnonKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "https://x.supabase.co", c.baseURL)
	assert.Equal(t, "properties", c.propertyTable)
}

func TestFindRange_CountAndRangeRequests(t *testing.T) {
	var heads, gets int32

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/properties", r.URL.Path)
		assert.Equal(t, testAnonKey, r.Header.Get("apikey"))
		assert.Equal(t, "Bearer "+testAnonKey, r.Header.Get("Authorization"))
		assert.Equal(t, "trace-1", r.Header.Get("X-Trace-ID"))

		switch r.Method {
		case http.MethodHead:
			atomic.AddInt32(&heads, 1)
			assert.Equal(t, "count=exact", r.Header.Get("Prefer"))
			w.Header().Set("Content-Range", "*/20")
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			atomic.AddInt32(&gets, 1)
			assert.Equal(t, "9-17", r.Header.Get("Range"))
			assert.Equal(t, "items", r.Header.Get("Range-Unit"))
			assert.Equal(t, "id.asc", r.URL.Query().Get("order"))
			assert.Contains(t, r.URL.Query().Get("select"), "price_amount")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"id": 10, "title": "Depto 2 amb", "price_amount": "250000", "price_currency": "$",
				 "images": "https://a/1.jpg|/rel.jpg|https://a/2.jpg", "latitude": "-34.6", "longitude": -58.4,
				 "scraped_at": "2024-05-01T10:00:00Z"},
				{"id": 11, "title": "Casa", "price_amount": 1200, "price_currency": "USD", "images": null}
			]`))
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	ctx := contextkeys.ContextWithTraceID(context.Background(), "trace-1")
	res, err := c.FindRange(ctx, 9, 17)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&heads))
	assert.Equal(t, int32(1), atomic.LoadInt32(&gets))
	assert.Equal(t, int64(20), res.TotalCount)
	require.Len(t, res.Properties, 2)

	first := res.Properties[0]
	assert.Equal(t, "10", first.ID)
	assert.Equal(t, "250000", first.PriceAmount)
	assert.Equal(t, []string{"https://a/1.jpg", "https://a/2.jpg"}, first.Photos)
	require.NotNil(t, first.Latitude)
	assert.InDelta(t, -34.6, *first.Latitude, 1e-9)
	require.NotNil(t, first.Longitude)
	assert.InDelta(t, -58.4, *first.Longitude, 1e-9)
	require.NotNil(t, first.ScrapedAt)
	assert.Equal(t, 2024, first.ScrapedAt.Year())

	second := res.Properties[1]
	assert.Equal(t, "1200", second.PriceAmount)
	assert.Empty(t, second.Photos)
	assert.Nil(t, second.Latitude)
}

func TestFindRange_SkipsRowsBreakingContract(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Range", "0-1/2")
			return
		}
		_, _ = w.Write([]byte(`[{"title": "no id"}, {"id": 2, "title": "ok"}]`))
	})

	res, err := c.FindRange(context.Background(), 0, 8)
	require.NoError(t, err)
	require.Len(t, res.Properties, 1)
	assert.Equal(t, "2", res.Properties[0].ID)
}

func TestFindRange_RangeNotSatisfiableIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Range", "*/3")
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			_, _ = w.Write([]byte(`{"code":"PGRST103","message":"Requested range not satisfiable"}`))
		}
	})

	res, err := c.FindRange(context.Background(), 9, 17)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.TotalCount)
	assert.Empty(t, res.Properties)
}

func TestFindRange_RemoteErrorCarriesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Range", "*/3")
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"42P01","message":"relation \"properties\" does not exist"}`))
		}
	})

	_, err := c.FindRange(context.Background(), 0, 8)
	require.Error(t, err)

	var remote *domain.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusBadRequest, remote.StatusCode)
	assert.Equal(t, "42P01", remote.Code)
	assert.Equal(t, `relation "properties" does not exist`, remote.Message)
}

func TestFindRange_InvalidRange(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.FindRange(context.Background(), 5, 2)
	assert.Error(t, err)
}

func TestFindByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.pgrst.object+json", r.Header.Get("Accept"))
		switch r.URL.Query().Get("id") {
		case "eq.42":
			_, _ = w.Write([]byte(`{"id": 42, "title": "Monoambiente", "whatsapp": "5491122334455.0"}`))
		case "eq.404":
			w.WriteHeader(http.StatusNotAcceptable)
			_, _ = w.Write([]byte(`{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned"}`))
		case "eq.abc":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"22P02","message":"invalid input syntax for type bigint"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`boom`))
		}
	})

	p, err := c.FindByID(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", p.ID)
	assert.Equal(t, "Monoambiente", p.Title)
	assert.Equal(t, "5491122334455", p.WhatsAppNumber())

	_, err = c.FindByID(context.Background(), "404")
	assert.ErrorIs(t, err, domain.ErrPropertyNotFound)

	_, err = c.FindByID(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrPropertyNotFound)

	_, err = c.FindByID(context.Background(), "500")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrPropertyNotFound)
	var remote *domain.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "boom", remote.Message)
}

func TestSignInWithPassword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body passwordGrantRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Password != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_at":1900000000,
			"user":{"id":"u-1","email":"ana@example.com"}}`))
	})

	session, err := c.SignInWithPassword(context.Background(), domain.Credentials{Email: "ana@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "at", session.AccessToken)
	assert.Equal(t, "rt", session.RefreshToken)
	assert.Equal(t, int64(1900000000), session.ExpiresAt.Unix())
	assert.Equal(t, domain.User{ID: "u-1", Email: "ana@example.com"}, session.User)

	_, err = c.SignInWithPassword(context.Background(), domain.Credentials{Email: "ana@example.com", Password: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	var remote *domain.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "Invalid login credentials", remote.Message)
}

func TestSignUp_BothResponseShapes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		var body passwordGrantRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch body.Email {
		case "bare@example.com":
			_, _ = w.Write([]byte(`{"id":"u-bare","email":"bare@example.com"}`))
		case "session@example.com":
			_, _ = w.Write([]byte(`{"access_token":"at","user":{"id":"u-s","email":"session@example.com"}}`))
		default:
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"code":422,"error_code":"weak_password","msg":"Password should be at least 6 characters"}`))
		}
	})

	u, err := c.SignUp(context.Background(), domain.Credentials{Email: "bare@example.com", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "u-bare", u.ID)

	u, err = c.SignUp(context.Background(), domain.Credentials{Email: "session@example.com", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "u-s", u.ID)

	_, err = c.SignUp(context.Background(), domain.Credentials{Email: "weak@example.com", Password: "x"})
	var remote *domain.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "weak_password", remote.Code)
	assert.Equal(t, "Password should be at least 6 characters", remote.Message)
}

func TestGetUserAndSignOut(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		switch r.URL.Path {
		case "/auth/v1/user":
			if token != "good" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"u-1","email":"ana@example.com"}`))
		case "/auth/v1/logout":
			switch token {
			case "good":
				w.WriteHeader(http.StatusNoContent)
			case "gone":
				w.WriteHeader(http.StatusUnauthorized)
			default:
				w.WriteHeader(http.StatusBadGateway)
			}
		}
	})

	u, err := c.GetUser(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)

	_, err = c.GetUser(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	assert.NoError(t, c.SignOut(context.Background(), "good"))
	assert.NoError(t, c.SignOut(context.Background(), "gone"))
	assert.Error(t, c.SignOut(context.Background(), "broken"))
}

func TestParseContentRangeTotal(t *testing.T) {
	cases := []struct {
		header  string
		want    int64
		wantErr bool
	}{
		{header: "0-8/123", want: 123},
		{header: "*/0", want: 0},
		{header: "*/*", wantErr: true},
		{header: "", wantErr: true},
		{header: "0-8/", wantErr: true},
		{header: "0-8/abc", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseContentRangeTotal(tc.header)
		if tc.wantErr {
			assert.Error(t, err, tc.header)
			continue
		}
		require.NoError(t, err, tc.header)
		assert.Equal(t, tc.want, got, tc.header)
	}
}
