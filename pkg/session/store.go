package session

import (
	"context"
	"fmt"
	"sync"
)

// CredentialStore supplies the static credentials configured for a device.
// It knows nothing about dispatch or adapters.
type CredentialStore interface {
	// Credentials returns the configured credentials for a device.
	// Devices that require no authentication return zero Credentials.
	Credentials(name string) (Credentials, error)
}

// TokenCache persists refreshed OAuth tokens so a restart does not force
// an unnecessary first refresh. Implemented by pkg/db.
type TokenCache interface {
	// Token returns the cached token for a device, or nil if none is cached
	Token(ctx context.Context, name string) (*Token, error)

	// SaveToken upserts the cached token for a device
	SaveToken(ctx context.Context, name string, tok Token) error
}

// StaticStore is a CredentialStore backed by an in-memory map, populated
// from the device configuration at startup.
type StaticStore struct {
	mu    sync.RWMutex
	creds map[string]Credentials
}

// NewStaticStore creates an empty StaticStore.
func NewStaticStore() *StaticStore {
	return &StaticStore{creds: make(map[string]Credentials)}
}

// Add registers credentials for a device name.
func (s *StaticStore) Add(name string, c Credentials) {
	s.mu.Lock()
	s.creds[name] = c
	s.mu.Unlock()
}

// Credentials returns the credentials registered for name.
func (s *StaticStore) Credentials(name string) (Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.creds[name]
	if !ok {
		return Credentials{}, fmt.Errorf("%w: device %q", ErrNoCredentials, name)
	}
	return c, nil
}
