package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultServerURL      = "http://localhost:3000"
	defaultLogLevel       = "info"
	defaultConfigDir      = ".voicedrop"
	defaultCookieName     = "session"
	defaultRequestTimeout = 30 * time.Second
)

type Config struct {
	Env            string
	ServerURL      string
	LogLevel       string
	ConfigDir      string
	TokenPath      string
	CachePath      string
	CookieName     string
	RecordCommand  []string
	RecordType     string
	PlayCommand    []string
	RequestTimeout time.Duration
}

// Load reads envFile (when present) and the VOICEDROP_* environment.
// An empty envFile falls back to .env in the working directory.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("VOICEDROP")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", EnvLocal)
	v.SetDefault("SERVER_URL", defaultServerURL)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("CONFIG_DIR", "")
	v.SetDefault("COOKIE_NAME", defaultCookieName)
	v.SetDefault("RECORD_COMMAND", "")
	v.SetDefault("RECORD_CONTENT_TYPE", "")
	v.SetDefault("PLAY_COMMAND", "")
	v.SetDefault("REQUEST_TIMEOUT", defaultRequestTimeout)

	configDir := v.GetString("CONFIG_DIR")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		configDir = filepath.Join(home, defaultConfigDir)
	}

	cfg := &Config{
		Env:            v.GetString("APP_ENV"),
		ServerURL:      strings.TrimRight(v.GetString("SERVER_URL"), "/"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		ConfigDir:      configDir,
		TokenPath:      filepath.Join(configDir, "session"),
		CachePath:      filepath.Join(configDir, "inbox.db"),
		CookieName:     v.GetString("COOKIE_NAME"),
		RecordCommand:  strings.Fields(v.GetString("RECORD_COMMAND")),
		RecordType:     v.GetString("RECORD_CONTENT_TYPE"),
		PlayCommand:    strings.Fields(v.GetString("PLAY_COMMAND")),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetServer overrides the server URL, typically from the --server flag.
func (c *Config) SetServer(url string) error {
	if url == "" {
		return nil
	}
	c.ServerURL = strings.TrimRight(url, "/")
	return c.validate()
}

// EnsureDir creates the config directory with owner-only permissions.
func (c *Config) EnsureDir() error {
	if err := os.MkdirAll(c.ConfigDir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("VOICEDROP_SERVER_URL must start with http:// or https://, got %q", c.ServerURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("VOICEDROP_REQUEST_TIMEOUT must be positive")
	}
	return nil
}
