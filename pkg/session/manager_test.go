package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeExchanger struct {
	mu    sync.Mutex
	calls int32
	fail  bool
	token Token
	delay time.Duration
}

func (e *fakeExchanger) Exchange(ctx context.Context, creds Credentials, refreshToken string) (Token, error) {
	atomic.AddInt32(&e.calls, 1)
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return Token{}, ctx.Err()
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail {
		return Token{}, errors.New("token endpoint rejected refresh")
	}
	return e.token, nil
}

type fakeCache struct {
	mu     sync.Mutex
	tokens map[string]Token
	saves  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{tokens: make(map[string]Token)}
}

func (c *fakeCache) Token(ctx context.Context, name string) (*Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, ok := c.tokens[name]
	if !ok {
		return nil, nil
	}
	return &tok, nil
}

func (c *fakeCache) SaveToken(ctx context.Context, name string, tok Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[name] = tok
	c.saves++
	return nil
}

func oauthStore(name string) *StaticStore {
	s := NewStaticStore()
	s.Add(name, Credentials{
		ClientID:     "client",
		ClientSecret: "secret",
		RefreshToken: "refresh-0",
		TokenURL:     "https://vendor.example/token",
	})
	return s
}

func TestEnsureValid_NoneKindAlwaysFresh(t *testing.T) {
	store := NewStaticStore()
	store.Add("sensor_attic", Credentials{})
	m := NewManager(store, &fakeExchanger{})

	sess, err := m.EnsureValid(context.Background(), "sensor_attic")
	if err != nil {
		t.Fatal(err)
	}
	if sess.Kind != KindNone {
		t.Errorf("expected kind none, got %s", sess.Kind)
	}
}

func TestEnsureValid_LocalCredentials(t *testing.T) {
	store := NewStaticStore()
	store.Add("cam_front", Credentials{Username: "admin", Password: "hunter2"})
	exchanger := &fakeExchanger{}
	m := NewManager(store, exchanger)

	sess, err := m.EnsureValid(context.Background(), "cam_front")
	if err != nil {
		t.Fatal(err)
	}
	if sess.Kind != KindLocal || sess.Username != "admin" {
		t.Errorf("unexpected session: %+v", sess)
	}
	if atomic.LoadInt32(&exchanger.calls) != 0 {
		t.Error("local sessions must never hit the token endpoint")
	}
}

func TestEnsureValid_UnknownDevice(t *testing.T) {
	m := NewManager(NewStaticStore(), &fakeExchanger{})

	_, err := m.EnsureValid(context.Background(), "ghost")
	if !errors.Is(err, ErrAuthExpired) {
		t.Errorf("expected ErrAuthExpired, got %v", err)
	}
}

func TestEnsureValid_RefreshesExpiredToken(t *testing.T) {
	exchanger := &fakeExchanger{token: Token{
		AccessToken: "fresh",
		ExpiresAt:   time.Now().Add(time.Hour),
	}}
	m := NewManager(oauthStore("plug_cloud"), exchanger)

	sess, err := m.EnsureValid(context.Background(), "plug_cloud")
	if err != nil {
		t.Fatal(err)
	}
	if sess.AccessToken != "fresh" {
		t.Errorf("expected refreshed access token, got %q", sess.AccessToken)
	}
	if atomic.LoadInt32(&exchanger.calls) != 1 {
		t.Errorf("expected one exchange, got %d", exchanger.calls)
	}

	// Fresh token: the second call must not exchange again.
	if _, err := m.EnsureValid(context.Background(), "plug_cloud"); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&exchanger.calls) != 1 {
		t.Errorf("fresh session must not refresh, got %d exchanges", exchanger.calls)
	}
}

func TestEnsureValid_SingleFlight(t *testing.T) {
	exchanger := &fakeExchanger{
		token: Token{AccessToken: "fresh", ExpiresAt: time.Now().Add(time.Hour)},
		delay: 50 * time.Millisecond,
	}
	m := NewManager(oauthStore("plug_cloud"), exchanger)

	const callers = 16
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.EnsureValid(context.Background(), "plug_cloud")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if got := atomic.LoadInt32(&exchanger.calls); got != 1 {
		t.Errorf("expected concurrent callers to share one exchange, got %d", got)
	}
}

func TestEnsureValid_NoRefreshTokenIsTerminal(t *testing.T) {
	store := NewStaticStore()
	store.Add("plug_cloud", Credentials{
		ClientID:     "client",
		ClientSecret: "secret",
		TokenURL:     "https://vendor.example/token",
	})
	m := NewManager(store, &fakeExchanger{})

	_, err := m.EnsureValid(context.Background(), "plug_cloud")
	if !errors.Is(err, ErrAuthExpired) {
		t.Errorf("expected ErrAuthExpired without a refresh token, got %v", err)
	}
}

func TestEnsureValid_FailedRefreshIsAuthExpired(t *testing.T) {
	exchanger := &fakeExchanger{fail: true}
	m := NewManager(oauthStore("plug_cloud"), exchanger)

	_, err := m.EnsureValid(context.Background(), "plug_cloud")
	if !errors.Is(err, ErrAuthExpired) {
		t.Errorf("expected ErrAuthExpired, got %v", err)
	}
}

func TestInvalidate_ForcesRefresh(t *testing.T) {
	exchanger := &fakeExchanger{token: Token{
		AccessToken: "fresh",
		ExpiresAt:   time.Now().Add(time.Hour),
	}}
	m := NewManager(oauthStore("plug_cloud"), exchanger)

	if _, err := m.EnsureValid(context.Background(), "plug_cloud"); err != nil {
		t.Fatal(err)
	}
	m.Invalidate("plug_cloud")
	if _, err := m.EnsureValid(context.Background(), "plug_cloud"); err != nil {
		t.Fatal(err)
	}

	if got := atomic.LoadInt32(&exchanger.calls); got != 2 {
		t.Errorf("expected a refresh after invalidation, got %d exchanges", got)
	}
}

func TestInvalidate_NoOpForLocalSessions(t *testing.T) {
	store := NewStaticStore()
	store.Add("cam_front", Credentials{Username: "admin", Password: "hunter2"})
	m := NewManager(store, &fakeExchanger{})

	if _, err := m.EnsureValid(context.Background(), "cam_front"); err != nil {
		t.Fatal(err)
	}
	m.Invalidate("cam_front")

	sess, err := m.EnsureValid(context.Background(), "cam_front")
	if err != nil {
		t.Fatal(err)
	}
	if sess.Username != "admin" {
		t.Error("local session must survive invalidation untouched")
	}
}

func TestEnsureValid_UsesCachedToken(t *testing.T) {
	cache := newFakeCache()
	cache.tokens["plug_cloud"] = Token{
		AccessToken: "persisted",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	exchanger := &fakeExchanger{}
	m := NewManager(oauthStore("plug_cloud"), exchanger, WithTokenCache(cache))

	sess, err := m.EnsureValid(context.Background(), "plug_cloud")
	if err != nil {
		t.Fatal(err)
	}
	if sess.AccessToken != "persisted" {
		t.Errorf("expected cached token, got %q", sess.AccessToken)
	}
	if atomic.LoadInt32(&exchanger.calls) != 0 {
		t.Error("a fresh cached token must not trigger an exchange")
	}
}

func TestRefresh_PersistsToken(t *testing.T) {
	cache := newFakeCache()
	exchanger := &fakeExchanger{token: Token{
		AccessToken:  "fresh",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}}
	m := NewManager(oauthStore("plug_cloud"), exchanger, WithTokenCache(cache))

	if _, err := m.EnsureValid(context.Background(), "plug_cloud"); err != nil {
		t.Fatal(err)
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()
	if cache.saves != 1 {
		t.Fatalf("expected one persisted token, got %d", cache.saves)
	}
	if cache.tokens["plug_cloud"].RefreshToken != "refresh-1" {
		t.Error("rotated refresh token must be persisted")
	}
}

func TestExpiringWithin(t *testing.T) {
	exchanger := &fakeExchanger{token: Token{
		AccessToken: "fresh",
		ExpiresAt:   time.Now().Add(90 * time.Second),
	}}
	m := NewManager(oauthStore("plug_cloud"), exchanger, WithRefreshMargin(10*time.Second))

	if _, err := m.EnsureValid(context.Background(), "plug_cloud"); err != nil {
		t.Fatal(err)
	}

	if names := m.ExpiringWithin(time.Hour); len(names) != 1 || names[0] != "plug_cloud" {
		t.Errorf("expected plug_cloud in expiring set, got %v", names)
	}
	if names := m.ExpiringWithin(time.Second); len(names) != 0 {
		t.Errorf("expected empty expiring set, got %v", names)
	}
}
