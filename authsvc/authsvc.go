package authsvc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// TokenConfig is shared by the service that issues access tokens and every
// service that accepts them. Both sides must be provisioned with the same
// values.
type TokenConfig struct {
	Secret   string `env:"ACCESS_SECRET"`
	Issuer   string `env:"ACCESS_ISSUER" envDefault:"TaskTracker.IdentityService"`
	Audience string `env:"ACCESS_AUDIENCE" envDefault:"TaskTracker"`
}

// LoadTokenConfig reads the token configuration from the environment. A
// missing secret is an error; callers are expected to abort startup.
func LoadTokenConfig() (TokenConfig, error) {
	var cfg TokenConfig
	if err := env.Parse(&cfg); err != nil {
		return TokenConfig{}, fmt.Errorf("parse token env: %w", err)
	}

	cfg.Secret = strings.TrimSpace(cfg.Secret)
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	cfg.Audience = strings.TrimSpace(cfg.Audience)

	if err := cfg.Validate(); err != nil {
		return TokenConfig{}, err
	}
	return cfg, nil
}

func (c TokenConfig) Validate() error {
	switch {
	case c.Secret == "":
		return ErrSecretMissing
	case c.Issuer == "":
		return fmt.Errorf("%w: ACCESS_ISSUER is empty", ErrConfigInvalid)
	case c.Audience == "":
		return fmt.Errorf("%w: ACCESS_AUDIENCE is empty", ErrConfigInvalid)
	}
	return nil
}

type contextKey string

const (
	TokenContextKey    contextKey = "AccessToken"
	SubjectContextKey  contextKey = "Subject"
	UserNameContextKey contextKey = "UserName"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrTokenMissing    = errors.New("access token was not passed through the context")
	ErrSecretMissing   = errors.New("ACCESS_SECRET is required")
	ErrConfigInvalid   = errors.New("invalid token configuration")
)
