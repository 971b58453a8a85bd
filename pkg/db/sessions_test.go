package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/castellan-home/castellan/pkg/session"
)

func testDB(t *testing.T) *DB {
	t.Helper()

	database, err := Open(filepath.Join(t.TempDir(), "castellan.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})

	if err := database.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	return database
}

func TestMigrate_SetsSchemaVersion(t *testing.T) {
	database := testDB(t)

	version, err := database.SchemaVersion(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if version != currentSchemaVersion {
		t.Errorf("expected schema version %d, got %d", currentSchemaVersion, version)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	database := testDB(t)

	if err := database.Migrate(context.Background()); err != nil {
		t.Errorf("second migrate must be a no-op, got %v", err)
	}
}

func TestSessionCache_MissingTokenIsNil(t *testing.T) {
	cache := NewSessionCache(testDB(t))

	tok, err := cache.Token(context.Background(), "plug_cloud")
	if err != nil {
		t.Fatal(err)
	}
	if tok != nil {
		t.Errorf("expected nil for uncached device, got %+v", tok)
	}
}

func TestSessionCache_RoundTrip(t *testing.T) {
	cache := NewSessionCache(testDB(t))
	ctx := context.Background()

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	refreshed := time.Now().UTC().Truncate(time.Second)
	in := session.Token{
		AccessToken:     "access-1",
		RefreshToken:    "refresh-1",
		ExpiresAt:       expires,
		LastRefreshedAt: refreshed,
	}

	if err := cache.SaveToken(ctx, "plug_cloud", in); err != nil {
		t.Fatal(err)
	}

	out, err := cache.Token(ctx, "plug_cloud")
	if err != nil {
		t.Fatal(err)
	}
	if out == nil {
		t.Fatal("expected cached token")
	}
	if out.AccessToken != in.AccessToken || out.RefreshToken != in.RefreshToken {
		t.Errorf("token fields mangled: %+v", out)
	}
	if !out.ExpiresAt.Equal(expires) {
		t.Errorf("expected expires_at %v, got %v", expires, out.ExpiresAt)
	}
	if !out.LastRefreshedAt.Equal(refreshed) {
		t.Errorf("expected last_refreshed_at %v, got %v", refreshed, out.LastRefreshedAt)
	}
}

func TestSessionCache_UpsertOverwrites(t *testing.T) {
	cache := NewSessionCache(testDB(t))
	ctx := context.Background()

	if err := cache.SaveToken(ctx, "plug_cloud", session.Token{AccessToken: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := cache.SaveToken(ctx, "plug_cloud", session.Token{AccessToken: "new", RefreshToken: "rotated"}); err != nil {
		t.Fatal(err)
	}

	out, err := cache.Token(ctx, "plug_cloud")
	if err != nil {
		t.Fatal(err)
	}
	if out.AccessToken != "new" || out.RefreshToken != "rotated" {
		t.Errorf("expected overwritten token, got %+v", out)
	}
}

func TestSessionCache_ZeroTimesSurviveRoundTrip(t *testing.T) {
	cache := NewSessionCache(testDB(t))
	ctx := context.Background()

	if err := cache.SaveToken(ctx, "plug_cloud", session.Token{AccessToken: "access"}); err != nil {
		t.Fatal(err)
	}

	out, err := cache.Token(ctx, "plug_cloud")
	if err != nil {
		t.Fatal(err)
	}
	if !out.ExpiresAt.IsZero() || !out.LastRefreshedAt.IsZero() {
		t.Errorf("expected zero times, got %+v", out)
	}
}

func TestSessionCache_DeleteToken(t *testing.T) {
	cache := NewSessionCache(testDB(t))
	ctx := context.Background()

	if err := cache.SaveToken(ctx, "plug_cloud", session.Token{AccessToken: "access"}); err != nil {
		t.Fatal(err)
	}
	if err := cache.DeleteToken(ctx, "plug_cloud"); err != nil {
		t.Fatal(err)
	}

	tok, err := cache.Token(ctx, "plug_cloud")
	if err != nil {
		t.Fatal(err)
	}
	if tok != nil {
		t.Error("expected token removed")
	}
}
