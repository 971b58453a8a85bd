package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/castellan-home/castellan/pkg/session"
)

// SessionCache persists refreshed OAuth tokens in SQLite. It implements
// session.TokenCache.
type SessionCache struct {
	db *DB
}

// NewSessionCache creates a SessionCache over an open database.
func NewSessionCache(db *DB) *SessionCache {
	return &SessionCache{db: db}
}

// Token returns the cached token for a device, or nil if none is cached.
func (c *SessionCache) Token(ctx context.Context, name string) (*session.Token, error) {
	var (
		tok       session.Token
		expires   sql.NullString
		refreshed sql.NullString
	)

	err := c.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, expires_at, last_refreshed_at
		FROM session_cache
		WHERE device_name = ?
	`, name).Scan(&tok.AccessToken, &tok.RefreshToken, &expires, &refreshed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session cache: %w", err)
	}

	if expires.Valid {
		t, err := time.Parse(time.RFC3339, expires.String)
		if err != nil {
			return nil, fmt.Errorf("invalid expires_at for device %q: %w", name, err)
		}
		tok.ExpiresAt = t
	}
	if refreshed.Valid {
		t, err := time.Parse(time.RFC3339, refreshed.String)
		if err != nil {
			return nil, fmt.Errorf("invalid last_refreshed_at for device %q: %w", name, err)
		}
		tok.LastRefreshedAt = t
	}

	return &tok, nil
}

// SaveToken upserts the cached token for a device.
func (c *SessionCache) SaveToken(ctx context.Context, name string, tok session.Token) error {
	var expires, refreshed any
	if !tok.ExpiresAt.IsZero() {
		expires = tok.ExpiresAt.UTC().Format(time.RFC3339)
	}
	if !tok.LastRefreshedAt.IsZero() {
		refreshed = tok.LastRefreshedAt.UTC().Format(time.RFC3339)
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO session_cache (device_name, access_token, refresh_token, expires_at, last_refreshed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(device_name) DO UPDATE SET
			access_token      = excluded.access_token,
			refresh_token     = excluded.refresh_token,
			expires_at        = excluded.expires_at,
			last_refreshed_at = excluded.last_refreshed_at,
			updated_at        = datetime('now')
	`, name, tok.AccessToken, tok.RefreshToken, expires, refreshed)
	if err != nil {
		return fmt.Errorf("failed to save token for device %q: %w", name, err)
	}

	return nil
}

// DeleteToken removes the cached token for a device.
func (c *SessionCache) DeleteToken(ctx context.Context, name string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM session_cache WHERE device_name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete token for device %q: %w", name, err)
	}
	return nil
}
