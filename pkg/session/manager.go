package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	// defaultRefreshMargin is subtracted from expires_at when judging
	// freshness, so tokens are renewed before they actually lapse.
	defaultRefreshMargin = 60 * time.Second

	// refreshTimeout bounds a single token-exchange call.
	refreshTimeout = 15 * time.Second
)

// TokenExchanger swaps a refresh token for a new access token. It is the
// integration-specific collaborator behind OAuth session renewal.
type TokenExchanger interface {
	Exchange(ctx context.Context, creds Credentials, refreshToken string) (Token, error)
}

// Manager owns one authentication session per device. It is the sole
// writer of session state; everything else reads value snapshots returned
// by EnsureValid. Refreshes are single-flight per device: concurrent
// callers that find a stale token share one in-flight exchange instead of
// each issuing their own.
type Manager struct {
	store     CredentialStore
	exchanger TokenExchanger
	cache     TokenCache
	margin    time.Duration

	mu       sync.Mutex
	sessions map[string]*Session

	group singleflight.Group
	now   func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithTokenCache enables persistence of refreshed tokens.
func WithTokenCache(cache TokenCache) Option {
	return func(m *Manager) { m.cache = cache }
}

// WithRefreshMargin overrides the freshness safety margin.
func WithRefreshMargin(d time.Duration) Option {
	return func(m *Manager) { m.margin = d }
}

// NewManager creates a session manager.
func NewManager(store CredentialStore, exchanger TokenExchanger, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		exchanger: exchanger,
		margin:    defaultRefreshMargin,
		sessions:  make(map[string]*Session),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureValid returns a usable session for the device, refreshing an
// OAuth token if it is stale. It blocks until a usable session exists or
// fails with ErrAuthExpired when the session cannot be renewed.
func (m *Manager) EnsureValid(ctx context.Context, name string) (Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[name]
	if !ok {
		built, err := m.build(ctx, name)
		if err != nil {
			m.mu.Unlock()
			return Session{}, err
		}
		sess = built
		m.sessions[name] = sess
	}

	if m.fresh(sess) {
		out := *sess
		m.mu.Unlock()
		return out, nil
	}

	switch sess.Kind {
	case KindNone:
		out := *sess
		m.mu.Unlock()
		return out, nil
	case KindLocal:
		// Static credentials never expire; a stale local session means
		// the username/password pair is no longer attached.
		m.mu.Unlock()
		return Session{}, fmt.Errorf("%w: local credentials missing for %q", ErrAuthExpired, name)
	}

	if sess.RefreshToken == "" {
		m.mu.Unlock()
		return Session{}, fmt.Errorf("%w: token for %q expired and no refresh token available", ErrAuthExpired, name)
	}
	m.mu.Unlock()

	// The refresh itself runs detached from the caller's deadline so a
	// cancelled action cannot abort a renewal other callers are awaiting.
	ch := m.group.DoChan(name, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return m.refresh(rctx, name)
	})

	select {
	case <-ctx.Done():
		return Session{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Session{}, res.Err
		}
		return res.Val.(Session), nil
	}
}

// Invalidate forces the next EnsureValid for the device to refresh.
// A no-op for local-credential and unauthenticated sessions.
func (m *Manager) Invalidate(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[name]
	if !ok || sess.Kind != KindOAuth {
		return
	}
	sess.AccessToken = ""
	log.Debug().Str("device", name).Msg("Session invalidated")
}

// IsFresh reports whether the session is currently usable without a refresh.
func (m *Manager) IsFresh(sess Session) bool {
	return m.fresh(&sess)
}

// ExpiringWithin returns the names of OAuth sessions whose tokens expire
// within d. Used by the background refresh sweeper.
func (m *Manager) ExpiringWithin(d time.Duration) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var names []string
	deadline := m.now().Add(d)
	for name, sess := range m.sessions {
		if sess.Kind != KindOAuth || sess.ExpiresAt.IsZero() {
			continue
		}
		if sess.ExpiresAt.Before(deadline) {
			names = append(names, name)
		}
	}
	return names
}

// fresh judges usability. Callers hold no particular lock; sess must be a
// snapshot or guarded by m.mu.
func (m *Manager) fresh(sess *Session) bool {
	switch sess.Kind {
	case KindNone:
		return true
	case KindLocal:
		return sess.Username != "" && sess.Password != ""
	case KindOAuth:
		if sess.AccessToken == "" {
			return false
		}
		if sess.ExpiresAt.IsZero() {
			return true
		}
		return m.now().Before(sess.ExpiresAt.Add(-m.margin))
	}
	return false
}

// build constructs the initial session from configured credentials and,
// for OAuth devices, the persisted token cache. Caller holds m.mu.
func (m *Manager) build(ctx context.Context, name string) (*Session, error) {
	creds, err := m.store.Credentials(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthExpired, err)
	}

	sess := &Session{Kind: creds.Kind()}
	switch sess.Kind {
	case KindLocal:
		sess.Username = creds.Username
		sess.Password = creds.Password
	case KindOAuth:
		sess.RefreshToken = creds.RefreshToken
		if m.cache != nil {
			tok, err := m.cache.Token(ctx, name)
			if err != nil {
				log.Warn().Err(err).Str("device", name).Msg("Failed to read session cache")
			} else if tok != nil {
				sess.AccessToken = tok.AccessToken
				sess.ExpiresAt = tok.ExpiresAt
				sess.LastRefreshedAt = tok.LastRefreshedAt
				if tok.RefreshToken != "" {
					sess.RefreshToken = tok.RefreshToken
				}
			}
		}
	}

	return sess, nil
}

// refresh exchanges the refresh token and updates the session. Runs under
// the single-flight group, at most once per device at a time.
func (m *Manager) refresh(ctx context.Context, name string) (Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[name]
	if !ok {
		m.mu.Unlock()
		return Session{}, fmt.Errorf("%w: no session for %q", ErrAuthExpired, name)
	}
	if m.fresh(sess) {
		// A caller queued behind a refresh that already completed.
		out := *sess
		m.mu.Unlock()
		return out, nil
	}
	refreshToken := sess.RefreshToken
	m.mu.Unlock()

	creds, err := m.store.Credentials(name)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrAuthExpired, err)
	}

	tok, err := m.exchanger.Exchange(ctx, creds, refreshToken)
	if err != nil {
		return Session{}, fmt.Errorf("%w: refresh failed for %q: %v", ErrAuthExpired, name, err)
	}
	tok.LastRefreshedAt = m.now()

	m.mu.Lock()
	sess.AccessToken = tok.AccessToken
	sess.ExpiresAt = tok.ExpiresAt
	sess.LastRefreshedAt = tok.LastRefreshedAt
	if tok.RefreshToken != "" {
		sess.RefreshToken = tok.RefreshToken
	}
	out := *sess
	m.mu.Unlock()

	if m.cache != nil {
		if err := m.cache.SaveToken(ctx, name, tok); err != nil {
			log.Warn().Err(err).Str("device", name).Msg("Failed to persist refreshed token")
		}
	}

	log.Info().Str("device", name).Time("expires_at", tok.ExpiresAt).Msg("Session refreshed")
	return out, nil
}
