package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"storefront_accounts/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// State is the client-observed session state
type State string

const (
	StateAnonymous     State = "ANONYMOUS"
	StateAuthenticated State = "AUTHENTICATED"
)

var ErrNotAuthenticated = errors.New("not logged in")

// Session holds the token and user snapshot of the current user, mirrored to a Store.
type Session struct {
	client *Client
	store  Store
	now    func() time.Time

	mu    sync.RWMutex
	token string
	user  *model.AccountView
}

// NewSession restores whatever the store holds
func NewSession(c *Client, store Store) (*Session, error) {
	snap, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Session{
		client: c,
		store:  store,
		now:    time.Now,
		token:  snap.Token,
		user:   snap.User,
	}, nil
}

// State is AUTHENTICATED while a well-formed token with a future expiry is held.
// The signature is not checked here; the server does that.
func (s *Session) State() State {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		return StateAnonymous
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return StateAnonymous
	}
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return StateAnonymous
	}
	return StateAuthenticated
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the stored snapshot, or nil
func (s *Session) User() *model.AccountView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Login(ctx context.Context, username, password string) (*model.AccountView, error) {
	res, err := s.client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := s.replace(res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// UpdateProfile rotates the stored token and snapshot on success
func (s *Session) UpdateProfile(ctx context.Context, currentPassword string, updates model.ProfileUpdate) (*model.AccountView, error) {
	if s.State() != StateAuthenticated {
		return nil, ErrNotAuthenticated
	}
	res, err := s.client.UpdateProfile(ctx, s.Token(), currentPassword, updates)
	if err != nil {
		return nil, err
	}
	if err := s.replace(res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Logout clears the store, then local state. If the store cannot be cleared
// the session is left as it was. The token itself stays valid on the server
// until it expires.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	if err := s.store.Clear(); err != nil {
		s.mu.Unlock()
		return err
	}
	token := s.token
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if token != "" {
		if err := s.client.Logout(ctx, token); err != nil {
			slog.Debug("server logout acknowledgement failed", "error", err)
		}
	}
	return nil
}

func (s *Session) replace(res *AuthResult) error {
	user := res.User
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(Snapshot{Token: res.Token, User: &user}); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	s.token = res.Token
	s.user = &user
	return nil
}
