package usecase

import (
	"context"
	"sync"

	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
)

type rangeCall struct {
	from, to int
}

type fakeStorage struct {
	total      int64
	properties []domain.Property
	err        error
	byID       map[string]domain.Property
	calls      []rangeCall
}

func (f *fakeStorage) FindRange(ctx context.Context, from, to int) (*domain.PropertyRange, error) {
	f.calls = append(f.calls, rangeCall{from: from, to: to})
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.Property{}
	for i := from; i <= to && i < len(f.properties); i++ {
		out = append(out, f.properties[i])
	}
	return &domain.PropertyRange{Properties: out, TotalCount: f.total}, nil
}

func (f *fakeStorage) FindByID(ctx context.Context, id string) (*domain.Property, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrPropertyNotFound
	}
	return &p, nil
}

type fakeAuth struct {
	session    *domain.Session
	signInErr  error
	user       *domain.User
	signUpErr  error
	getUserErr error
	refreshed  *domain.Session
	refreshErr error
	signOutErr error

	signOutTokens []string
	refreshTokens []string
}

func (f *fakeAuth) SignUp(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &domain.User{ID: "new-user", Email: creds.Email}, nil
}

func (f *fakeAuth) SignInWithPassword(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.session, nil
}

func (f *fakeAuth) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	f.refreshTokens = append(f.refreshTokens, refreshToken)
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshed, nil
}

func (f *fakeAuth) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	return f.user, nil
}

func (f *fakeAuth) SignOut(ctx context.Context, accessToken string) error {
	f.signOutTokens = append(f.signOutTokens, accessToken)
	return f.signOutErr
}

type fakeVerifier struct {
	user *domain.User
	err  error
}

func (f *fakeVerifier) Verify(ctx context.Context, accessToken string) (*domain.User, error) {
	return f.user, f.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (r *recordingNotifier) Notify(ctx context.Context, event domain.AuthEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

type recordingPublisher struct {
	events []domain.AuthEvent
	err    error
}

func (r *recordingPublisher) PublishAuthEvent(ctx context.Context, event domain.AuthEvent) error {
	r.events = append(r.events, event)
	return r.err
}
