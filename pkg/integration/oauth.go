package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/castellan-home/castellan/pkg/session"
)

// OAuthExchanger implements session.TokenExchanger with a standard
// refresh_token grant against the integration's token endpoint.
type OAuthExchanger struct {
	httpClient *http.Client
}

// NewOAuthExchanger creates an exchanger with a bounded HTTP timeout.
func NewOAuthExchanger() *OAuthExchanger {
	return &OAuthExchanger{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// Exchange swaps the refresh token for a new access token.
func (e *OAuthExchanger) Exchange(ctx context.Context, creds session.Credentials, refreshToken string) (session.Token, error) {
	if creds.TokenURL == "" {
		return session.Token{}, fmt.Errorf("no token endpoint configured")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, creds.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return session.Token{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return session.Token{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return session.Token{}, ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return session.Token{}, fmt.Errorf("token endpoint error (status %d)", resp.StatusCode)
	}

	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return session.Token{}, fmt.Errorf("decode token response: %w", err)
	}
	if out.AccessToken == "" {
		return session.Token{}, fmt.Errorf("token endpoint returned no access token")
	}

	tok := session.Token{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}
	if out.ExpiresIn > 0 {
		tok.ExpiresAt = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	}
	return tok, nil
}
