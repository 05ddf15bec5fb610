package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds every setting the service reads at startup.
type Config struct {
	AppPort        string
	RequestTimeout time.Duration

	DatabaseDriver string
	DatabaseDSN    string

	RabbitMQURL   string
	RabbitMQQueue string

	Admin    AdminConfig
	Identity IdentityConfig

	LogLevel  string
	LogFormat string
}

// AdminConfig describes who counts as an administrator.
type AdminConfig struct {
	Emails    []string
	TrustRole bool
}

// Configured reports whether any administrator designation is set.
func (a AdminConfig) Configured() bool {
	return len(a.Emails) > 0 || a.TrustRole
}

// Designates reports whether email is on the administrator list.
func (a AdminConfig) Designates(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	for _, e := range a.Emails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// IdentityConfig points at the external identity authority.
type IdentityConfig struct {
	Issuer         string
	Audience       string
	HMACSecret     string
	PublicKeysFile string
	CertsURL       string
}

// Configured reports whether at least one way of checking signatures exists.
func (i IdentityConfig) Configured() bool {
	return i.HMACSecret != "" || i.PublicKeysFile != "" || i.CertsURL != ""
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	v := viper.New()
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:tiffin.db?cache=shared")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "order_events")
	v.SetDefault("ADMIN_EMAILS", "")
	v.SetDefault("ADMIN_TRUST_ROLE", false)
	v.SetDefault("IDENTITY_ISSUER", "")
	v.SetDefault("IDENTITY_AUDIENCE", "")
	v.SetDefault("IDENTITY_HMAC_SECRET", "")
	v.SetDefault("IDENTITY_PUBLIC_KEYS_FILE", "")
	v.SetDefault("IDENTITY_CERTS_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:        v.GetString("APP_PORT"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		DatabaseDriver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		RabbitMQQueue:  v.GetString("RABBITMQ_QUEUE"),
		Admin: AdminConfig{
			Emails:    splitList(v.GetString("ADMIN_EMAILS")),
			TrustRole: v.GetBool("ADMIN_TRUST_ROLE"),
		},
		Identity: IdentityConfig{
			Issuer:         v.GetString("IDENTITY_ISSUER"),
			Audience:       v.GetString("IDENTITY_AUDIENCE"),
			HMACSecret:     v.GetString("IDENTITY_HMAC_SECRET"),
			PublicKeysFile: v.GetString("IDENTITY_PUBLIC_KEYS_FILE"),
			CertsURL:       v.GetString("IDENTITY_CERTS_URL"),
		},
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// NewLogger builds the process logger from the log settings.
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
