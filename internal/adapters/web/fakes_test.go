package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ulisescolosimo/scraping-alquileres/internal/adapters/notifier"
	"github.com/ulisescolosimo/scraping-alquileres/internal/adapters/session"
	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port/usecases_port"
)

const testSecret = "0123456789abcdef0123456789abcdef-web-tests"

type fakeList struct {
	result *domain.PropertyPage
	err    error
	pages  []int
}

func (f *fakeList) Execute(ctx context.Context, page int) (*domain.PropertyPage, error) {
	f.pages = append(f.pages, page)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeGet struct {
	byID map[string]domain.Property
	err  error
}

func (f *fakeGet) Execute(ctx context.Context, id string) (*domain.Property, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrPropertyNotFound
	}
	return &p, nil
}

// fakeResolve accepts every stored session unchanged unless err is set.
type fakeResolve struct {
	err error
}

func (f *fakeResolve) Execute(ctx context.Context, s domain.Session) (*domain.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &s, nil
}

type fakeSignIn struct {
	session   *domain.Session
	err       error
	sessionID string
	stored    bool
}

func (f *fakeSignIn) Execute(ctx context.Context, sessionID string, creds domain.Credentials, store usecases_port.StoreSessionFunc) (*domain.Session, error) {
	f.sessionID = sessionID
	if f.err != nil {
		return nil, f.err
	}
	if err := store(*f.session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	f.stored = true
	return f.session, nil
}

type fakeSignUp struct {
	user  *domain.User
	err   error
	creds domain.Credentials
}

func (f *fakeSignUp) Execute(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	f.creds = creds
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

type fakeSignOut struct {
	calls   int
	session domain.Session
}

func (f *fakeSignOut) Execute(ctx context.Context, sessionID string, s domain.Session) error {
	f.calls++
	f.session = s
	return nil
}

type testApp struct {
	list    *fakeList
	get     *fakeGet
	resolve *fakeResolve
	signIn  *fakeSignIn
	signUp  *fakeSignUp
	signOut *fakeSignOut
	events  *EventsHandler
	handler http.Handler
}

func newTestApp(t *testing.T, requireAuth bool) *testApp {
	t.Helper()

	views, err := NewViews()
	require.NoError(t, err)
	store, err := session.NewCookieStore(session.Config{Secret: testSecret})
	require.NoError(t, err)

	logger := contextkeys.LoggerFromContext(context.Background())
	sse := notifier.NewSSENotifier(logger)
	t.Cleanup(sse.Stop)

	app := &testApp{
		list:    &fakeList{result: &domain.PropertyPage{Properties: []domain.Property{}, CurrentPage: 1, ItemsPerPage: domain.PageSize}},
		get:     &fakeGet{byID: map[string]domain.Property{}},
		resolve: &fakeResolve{},
		signIn:  &fakeSignIn{},
		signUp:  &fakeSignUp{},
		signOut: &fakeSignOut{},
	}
	app.events = NewEventsHandler(sse)
	t.Cleanup(app.events.Close)

	app.handler = NewRouter(ServerConfig{
		ListingsRequireAuth: requireAuth,
		CORSAllowedOrigins:  []string{"http://localhost:5173"},
	}, Handlers{
		Pages:    NewPageHandler(app.list, app.get, views),
		Auth:     NewAuthHandler(app.signIn, app.signUp, app.signOut, store, views),
		Events:   app.events,
		API:      NewPropertyAPIHandler(app.list, app.get),
		Sessions: NewSessionMiddleware(store, app.resolve),
	}, logger)
	return app
}

func (a *testApp) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// lastSessionCookie returns the most recent session cookie the response set.
func lastSessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.DefaultCookieName {
			found = c
		}
	}
	require.NotNil(t, found, "response did not set the session cookie")
	return found
}

func sampleProperty(id, title string) domain.Property {
	return domain.Property{
		ID:             id,
		Title:          title,
		Description:    "Luminoso, con balcón",
		Site:           domain.SiteZonaprop,
		PriceAmount:    "250000",
		PriceCurrency:  "$",
		ExpensesAmount: "45000",
		Bedrooms:       "2 dormitorios",
		Bathrooms:      "1 baño",
		CoveredArea:    "48 m²",
		TotalArea:      "52",
		Rooms:          "3",
		Age:            "10 años",
		Address:        "Gorriti 4500",
		WhatsApp:       "5491122334455.0",
		PublisherName:  "Inmobiliaria Sur",
		Photos:         []string{"https://img.example.com/1.jpg", "https://img.example.com/2.jpg"},
	}
}
