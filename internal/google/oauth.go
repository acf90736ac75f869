package google

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// LoadOAuthConfig reads an OAuth client file. Both the "installed" and the
// "web" shape are accepted; the first redirect URI is used.
func LoadOAuthConfig(path string, scopes ...string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, missingCredentials(path)
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	conf, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials file %s: %w", path, err)
	}
	return conf, nil
}

// tokenFile is the on-disk token. It accepts the oauth2.Token encoding and
// the millisecond expiry_date written by other Google client libraries.
type tokenFile struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	ExpiryDate   int64     `json:"expiry_date,omitempty"`
	Scope        string    `json:"scope,omitempty"`
}

// LoadToken reads a token file.
//
// A token without a known expiry but with a refresh token is marked as
// expired, so the first request refreshes it instead of being treated as
// valid forever.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, missingToken(path)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var f tokenFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", path, err)
	}
	if f.AccessToken == "" && f.RefreshToken == "" {
		return nil, fmt.Errorf("invalid token file %s: neither access_token nor refresh_token is set", path)
	}

	tok := &oauth2.Token{
		AccessToken:  f.AccessToken,
		TokenType:    f.TokenType,
		RefreshToken: f.RefreshToken,
		Expiry:       f.Expiry,
	}
	if tok.Expiry.IsZero() && f.ExpiryDate > 0 {
		tok.Expiry = time.UnixMilli(f.ExpiryDate)
	}
	if tok.Expiry.IsZero() && tok.RefreshToken != "" {
		tok.Expiry = time.Unix(1, 0)
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	return tok, nil
}

// SaveToken writes tok to path with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// HTTPClient returns an HTTP client that authorizes requests with tok and
// refreshes it in memory through conf. ctx must outlive the client.
//
// HTTP/2 is disabled; the Gmail API intermittently fails long-lived HTTP/2
// connections with protocol errors. Every request, token refreshes
// included, is traced through the global OpenTelemetry providers.
func HTTPClient(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) *http.Client {
	base := &http.Client{Transport: otelhttp.NewTransport(&http.Transport{
		Proxy:        http.ProxyFromEnvironment,
		TLSNextProto: map[string]func(string, *tls.Conn) http.RoundTripper{},
	})}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	return conf.Client(ctx, tok)
}
