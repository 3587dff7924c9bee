package main

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the process-wide configuration, loaded once in main and passed
// explicitly to the components that need it. Request handlers never read the
// environment directly.
type Config struct {
	Env        string `env:"APP_ENV" env-default:"development"`
	ListenAddr string `env:"LISTEN_ADDR" env-default:":8081"`

	DatabaseDSN string `env:"DB_DSN" env-required:"true"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE" env-default:"true"`

	JWTSecret               string        `env:"JWT_SECRET" env-required:"true"`
	AccessTokenTTL          time.Duration `env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL         time.Duration `env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	RevocationSweepInterval time.Duration `env:"REVOCATION_SWEEP_INTERVAL" env-default:"1h"`

	CORSOrigins []string `env:"CORS_ORIGINS" env-default:"http://localhost:5173"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	MailFrom     string `env:"MAIL_FROM" env-default:"noreply@docman.local"`
	AppURL       string `env:"APP_URL" env-default:"http://localhost:5173"`

	// RevealUnknownEmail restores the legacy forgot-password behavior that
	// answers 404 for addresses with no account. Off by default: the response
	// is then indistinguishable, so the endpoint can't be used to enumerate
	// accounts.
	RevealUnknownEmail bool `env:"AUTH_REVEAL_UNKNOWN_EMAIL" env-default:"false"`
}

// loadConfig reads a local .env (if present, never overriding real env vars)
// and then the environment. Missing required values fail here, before
// anything else starts.
func loadConfig() (*Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) production() bool { return c.Env == "production" }
