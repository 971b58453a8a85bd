package session

import (
	"errors"
	"time"
)

var (
	// ErrAuthExpired indicates a session could not be refreshed or
	// re-validated. Terminal until credentials are fixed out-of-band.
	ErrAuthExpired = errors.New("session auth expired")

	// ErrNoCredentials indicates no credentials are configured for a device
	ErrNoCredentials = errors.New("no credentials configured")
)

// Kind distinguishes how a session authenticates.
type Kind string

// Session kinds
const (
	// KindNone marks devices that require no authentication
	KindNone Kind = "none"

	// KindLocal marks devices using a static username/password pair
	KindLocal Kind = "local_credential"

	// KindOAuth marks cloud integrations using an OAuth token
	KindOAuth Kind = "oauth_token"
)

// Session is the authentication state for one device. The Manager is the
// sole writer; callers receive value snapshots and never mutate them.
type Session struct {
	Kind            Kind
	Username        string
	Password        string
	AccessToken     string
	RefreshToken    string
	ExpiresAt       time.Time
	LastRefreshedAt time.Time
}

// Credentials are the static secrets configured for a device, loaded from
// configuration. They never change at runtime; tokens derived from them do.
type Credentials struct {
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string
}

// Kind derives the session kind the credentials produce.
func (c Credentials) Kind() Kind {
	switch {
	case c.ClientID != "" || c.ClientSecret != "" || c.RefreshToken != "":
		return KindOAuth
	case c.Username != "" || c.Password != "":
		return KindLocal
	default:
		return KindNone
	}
}

// Token is a refreshed OAuth token as returned by an integration's
// token-exchange endpoint and as persisted in the session cache.
type Token struct {
	AccessToken     string
	RefreshToken    string
	ExpiresAt       time.Time
	LastRefreshedAt time.Time
}
