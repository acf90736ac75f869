package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadOAuthConfig(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		wantClientID string
		wantRedirect string
		wantErr      bool
	}{
		{
			name: "installed app",
			content: `{"installed":{"client_id":"id-installed","client_secret":"s1",
				"redirect_uris":["http://localhost","urn:ietf:wg:oauth:2.0:oob"],
				"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`,
			wantClientID: "id-installed",
			wantRedirect: "http://localhost",
		},
		{
			name: "web app",
			content: `{"web":{"client_id":"id-web","client_secret":"s2",
				"redirect_uris":["https://example.com/callback"],
				"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`,
			wantClientID: "id-web",
			wantRedirect: "https://example.com/callback",
		},
		{
			name:    "unknown shape",
			content: `{"service_account":{}}`,
			wantErr: true,
		},
		{
			name:    "not json",
			content: `client_id=abc`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "credentials.json", tt.content)

			conf, err := LoadOAuthConfig(path, GmailScopes...)
			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, errors.Is(err, ErrConfigurationMissing))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantClientID, conf.ClientID)
			assert.Equal(t, tt.wantRedirect, conf.RedirectURL)
			assert.Equal(t, GmailScopes, conf.Scopes)
		})
	}
}

func TestLoadOAuthConfig_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	_, err := LoadOAuthConfig(path)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigurationMissing))

	var missing *MissingFileError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, FileCredentials, missing.Kind)
	assert.Equal(t, path, missing.Path)
	assert.Contains(t, err.Error(), "GMAIL_CREDENTIALS_PATH")
}

func TestLoadToken(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantAccess  string
		wantExpiry  time.Time
		wantRefresh string
		wantErr     bool
	}{
		{
			name:        "oauth2 encoding",
			content:     `{"access_token":"at","token_type":"Bearer","refresh_token":"rt","expiry":"2030-01-02T03:04:05Z"}`,
			wantAccess:  "at",
			wantRefresh: "rt",
			wantExpiry:  time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			name:        "millisecond expiry_date",
			content:     `{"access_token":"at","refresh_token":"rt","scope":"https://mail.google.com/","expiry_date":1893553445000}`,
			wantAccess:  "at",
			wantRefresh: "rt",
			wantExpiry:  time.UnixMilli(1893553445000),
		},
		{
			name:        "no expiry forces refresh",
			content:     `{"access_token":"at","refresh_token":"rt"}`,
			wantAccess:  "at",
			wantRefresh: "rt",
			wantExpiry:  time.Unix(1, 0),
		},
		{
			name:    "empty token",
			content: `{}`,
			wantErr: true,
		},
		{
			name:    "garbage",
			content: `at rt`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "token.json", tt.content)

			tok, err := LoadToken(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAccess, tok.AccessToken)
			assert.Equal(t, tt.wantRefresh, tok.RefreshToken)
			assert.Equal(t, "Bearer", tok.TokenType)
			assert.True(t, tt.wantExpiry.Equal(tok.Expiry), "expiry = %v, want %v", tok.Expiry, tt.wantExpiry)
		})
	}
}

func TestLoadToken_Missing(t *testing.T) {
	_, err := LoadToken(filepath.Join(t.TempDir(), "token.json"))

	var missing *MissingFileError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, FileToken, missing.Kind)
	assert.Contains(t, missing.Hint, "gmailmcp auth")
}

func TestSaveToken_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	want := &oauth2.Token{
		AccessToken:  "at",
		TokenType:    "Bearer",
		RefreshToken: "rt",
		Expiry:       time.Date(2031, 5, 6, 7, 8, 9, 0, time.UTC),
	}

	require.NoError(t, SaveToken(path, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.True(t, want.Expiry.Equal(got.Expiry))
}

func TestHTTPClient(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	conf := &oauth2.Config{ClientID: "id"}
	client := HTTPClient(context.Background(), conf, &oauth2.Token{AccessToken: "at", Expiry: time.Now().Add(time.Hour)})

	transport, ok := client.Transport.(*oauth2.Transport)
	require.True(t, ok)
	assert.NotNil(t, transport.Source)
	assert.IsType(t, &otelhttp.Transport{}, transport.Base)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "Bearer at", gotAuth)
}
