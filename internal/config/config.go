// Package config resolves gmailmcp settings.
//
// Values are layered, later layers winning:
//
//  1. defaults under the XDG config directory ($XDG_CONFIG_HOME/gmailmcp);
//  2. the optional TOML file (config.toml in the same directory);
//  3. environment variables (GMAIL_CREDENTIALS_PATH, GMAIL_TOKEN_PATH,
//     GMAILMCP_READ_ONLY, GMAILMCP_DEBUG, GMAILMCP_METRICS_ADDR);
//  4. command-line flags, applied by the cmd package.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

// AppName names the per-user configuration directory.
const AppName = "gmailmcp"

// Default file names inside the configuration directory.
const (
	CredentialsFileName = "credentials.json"
	TokenFileName       = "token.json"
	ConfigFileName      = "config.toml"
)

// Environment variables read by Load.
const (
	EnvCredentialsPath = "GMAIL_CREDENTIALS_PATH"
	EnvTokenPath       = "GMAIL_TOKEN_PATH"
	EnvReadOnly        = "GMAILMCP_READ_ONLY"
	EnvDebug           = "GMAILMCP_DEBUG"
	EnvMetricsAddr     = "GMAILMCP_METRICS_ADDR"
)

// Config is the resolved configuration.
type Config struct {
	// CredentialsFile is the OAuth client JSON downloaded from Google.
	CredentialsFile string `toml:"credentials_file"`
	// TokenFile is the OAuth token JSON written by `gmailmcp auth`.
	TokenFile string `toml:"token_file"`
	// ReadOnly hides every tool that changes the mailbox.
	ReadOnly bool `toml:"read_only"`
	// Debug enables debug logging.
	Debug bool `toml:"debug"`
	// MetricsAddr, when set, serves Prometheus metrics on that address.
	MetricsAddr string `toml:"metrics_addr"`
}

// Dir returns the per-user configuration directory.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultPath returns the default location of the TOML file.
func DefaultPath() string {
	return filepath.Join(Dir(), ConfigFileName)
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		CredentialsFile: filepath.Join(Dir(), CredentialsFileName),
		TokenFile:       filepath.Join(Dir(), TokenFileName),
	}
}

// Load resolves the configuration from defaults, the TOML file at path and
// the environment. An empty path means DefaultPath. A missing file is not an
// error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if err := cfg.mergeFile(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return Config{}, err
		}
	}

	if err := cfg.mergeEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var file Config
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	base := filepath.Dir(path)
	if file.CredentialsFile != "" {
		c.CredentialsFile = resolvePath(base, file.CredentialsFile)
	}
	if file.TokenFile != "" {
		c.TokenFile = resolvePath(base, file.TokenFile)
	}
	if file.MetricsAddr != "" {
		c.MetricsAddr = file.MetricsAddr
	}
	c.ReadOnly = c.ReadOnly || file.ReadOnly
	c.Debug = c.Debug || file.Debug
	return nil
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvCredentialsPath); ok && v != "" {
		c.CredentialsFile = expandHome(v)
	}
	if v, ok := lookup(EnvTokenPath); ok && v != "" {
		c.TokenFile = expandHome(v)
	}
	if v, ok := lookup(EnvMetricsAddr); ok && v != "" {
		c.MetricsAddr = v
	}
	for name, target := range map[string]*bool{EnvReadOnly: &c.ReadOnly, EnvDebug: &c.Debug} {
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid value %q for %s: %w", v, name, err)
		}
		*target = b
	}
	return nil
}

// resolvePath makes p absolute relative to the config file's directory.
func resolvePath(base, p string) string {
	p = expandHome(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func expandHome(p string) string {
	if p == "~" {
		return xdg.Home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(xdg.Home, p[2:])
	}
	return p
}
