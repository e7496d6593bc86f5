package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultRunAddress      = ":3000"
	defaultMigrations      = "migrations"
	defaultSessionTTL      = 24 * time.Hour
	defaultPurgeInterval   = time.Hour
	defaultCookieName      = "session"
	defaultUploadMaxBytes  = 10 << 20
	defaultShutdownTimeout = 30 * time.Second

	// Sized for a full-size upload over a slow link.
	defaultReadTimeout  = 2 * time.Minute
	defaultWriteTimeout = 2 * time.Minute
)

type Config struct {
	Env     string
	DB      DB
	Server  Server
	Session Session
	Upload  Upload
	Logger  Logger
}

type DB struct {
	DatabaseURI string
	Migrations  string
}

type Server struct {
	RunAddress      string
	TrustProxy      bool
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Session struct {
	TTL           time.Duration
	CookieName    string
	CookieSecure  bool
	PurgeInterval time.Duration
}

type Upload struct {
	MaxBytes   int64
	StagingDir string
}

type Logger struct {
	LogLevel string
}

// MustLoad reads .env (if present) and the process environment.
func MustLoad() *Config {
	cfg, err := Load(envPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", EnvLocal)
	v.SetDefault("RUN_ADDRESS", defaultRunAddress)
	v.SetDefault("MIGRATIONS_PATH", defaultMigrations)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SESSION_TTL", defaultSessionTTL)
	v.SetDefault("SESSION_COOKIE_NAME", defaultCookieName)
	v.SetDefault("SESSION_PURGE_INTERVAL", defaultPurgeInterval)
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("TRUST_PROXY", false)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("UPLOAD_MAX_BYTES", defaultUploadMaxBytes)
	v.SetDefault("STAGING_DIR", os.TempDir())
	v.SetDefault("READ_TIMEOUT", defaultReadTimeout)
	v.SetDefault("WRITE_TIMEOUT", defaultWriteTimeout)
	v.SetDefault("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		DB: DB{
			DatabaseURI: v.GetString("DATABASE_URI"),
			Migrations:  v.GetString("MIGRATIONS_PATH"),
		},
		Server: Server{
			RunAddress:      v.GetString("RUN_ADDRESS"),
			TrustProxy:      v.GetBool("TRUST_PROXY"),
			AllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			ReadTimeout:     v.GetDuration("READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Session: Session{
			TTL:           v.GetDuration("SESSION_TTL"),
			CookieName:    v.GetString("SESSION_COOKIE_NAME"),
			CookieSecure:  v.GetBool("COOKIE_SECURE"),
			PurgeInterval: v.GetDuration("SESSION_PURGE_INTERVAL"),
		},
		Upload: Upload{
			MaxBytes:   v.GetInt64("UPLOAD_MAX_BYTES"),
			StagingDir: v.GetString("STAGING_DIR"),
		},
		Logger: Logger{LogLevel: v.GetString("LOG_LEVEL")},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DB.DatabaseURI == "" {
		return fmt.Errorf("DATABASE_URI must be set")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("READ_TIMEOUT and WRITE_TIMEOUT must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
