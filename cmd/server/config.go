package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/imagix/accounts"
	"github.com/imagix/accounts/mailer"
)

// PersistenceConfig satisfies the getters the persistence client reads.
type PersistenceConfig struct {
	Debug                 bool
	Driver                string
	DSN                   string
	Server                string
	Database              string
	PingTimeoutExpression string
}

func (p PersistenceConfig) GetDebug() bool    { return p.Debug }
func (p PersistenceConfig) GetDriver() string { return p.Driver }
func (p PersistenceConfig) GetDSN() string    { return p.DSN }
func (p PersistenceConfig) GetServer() string { return p.Server }

func (p PersistenceConfig) GetOtelIdentifier() string { return "" }
func (p PersistenceConfig) GetDatabase() string {
	return p.Database
}

func (p PersistenceConfig) GetPingTimeout() time.Duration {
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		return 5 * time.Second
	}
	return dur
}

// Config is the process configuration, built once at start from the
// environment and passed by reference into the constructors that need it.
// No component reads ambient globals.
type Config struct {
	ListenAddr    string
	Debug         bool
	SigningKey    string
	Issuer        string
	Audience      []string
	ActivationTTL time.Duration
	BcryptCost    int
	BaseURL       string
	Persistence   PersistenceConfig
	SMTP          mailer.SMTPConfig
}

func (c *Config) GetSigningKey() string           { return c.SigningKey }
func (c *Config) GetIssuer() string               { return c.Issuer }
func (c *Config) GetAudience() []string           { return c.Audience }
func (c *Config) GetActivationTTL() time.Duration { return c.ActivationTTL }
func (c *Config) GetBcryptCost() int              { return c.BcryptCost }
func (c *Config) GetBaseURL() string              { return c.BaseURL }

func (c *Config) GetPersistence() PersistenceConfig { return c.Persistence }

// ConfigFromEnv builds the process configuration from the environment.
func ConfigFromEnv() *Config {
	cfg := &Config{
		ListenAddr:    envOr("LISTEN_ADDR", ":3000"),
		Debug:         envBool("DEBUG"),
		SigningKey:    os.Getenv("TOKEN_SECRET"),
		Issuer:        envOr("TOKEN_ISSUER", "imagix:accounts"),
		ActivationTTL: envDuration("ACTIVATION_TTL", accounts.DefaultActivationTTL),
		BcryptCost:    envInt("BCRYPT_COST", accounts.DefaultBcryptCost),
		BaseURL:       envOr("BASE_URL", "http://localhost:3000"),
		Persistence: PersistenceConfig{
			Debug:                 envBool("DEBUG"),
			Driver:                envOr("DB_DRIVER", "sqlite"),
			DSN:                   envOr("DB_DSN", "file::memory:?cache=shared"),
			PingTimeoutExpression: envOr("DB_PING_TIMEOUT", "5s"),
		},
	}

	if aud := os.Getenv("TOKEN_AUDIENCE"); aud != "" {
		cfg.Audience = strings.Split(aud, ",")
	}

	cfg.SMTP = mailer.SMTPConfig{
		Host:     envOr("SMTP_HOST", "localhost"),
		Port:     envInt("SMTP_PORT", 587),
		Username: os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     envOr("SMTP_FROM", "no-reply@imagix.dev"),
		BaseURL:  cfg.BaseURL,
	}

	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
