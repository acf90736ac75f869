package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gmailmcp/internal/config"
)

func TestResolveConfig_FlagsOverrideFile(t *testing.T) {
	for _, env := range []string{config.EnvCredentialsPath, config.EnvTokenPath, config.EnvReadOnly, config.EnvDebug, config.EnvMetricsAddr} {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
credentials_file = "creds.json"
token_file = "/abs/token.json"
read_only = true
metrics_addr = ":9100"
`), 0o600))

	cmd := newServeCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--token", "/flag/token.json", "--debug"}))

	var opts serveOptions
	opts.configPath, _ = cmd.Flags().GetString("config")
	opts.tokenFile, _ = cmd.Flags().GetString("token")
	opts.debug, _ = cmd.Flags().GetBool("debug")

	cfg, err := resolveConfig(cmd, opts)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "creds.json"), cfg.CredentialsFile)
	assert.Equal(t, "/flag/token.json", cfg.TokenFile)
	assert.True(t, cfg.ReadOnly, "unset flag keeps the file value")
	assert.True(t, cfg.Debug)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
}

func TestResolveConfig_ExplicitFlagFalseWins(t *testing.T) {
	t.Setenv(config.EnvReadOnly, "true")

	cmd := newServeCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--read-only=false"}))

	cfg, err := resolveConfig(cmd, serveOptions{readOnly: false})
	require.NoError(t, err)
	assert.False(t, cfg.ReadOnly)
}
