package authservice

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ichigozero/tasktracker/authsvc"
	"github.com/ichigozero/tasktracker/usersvc"
	"github.com/twinj/uuid"
)

// Claims is the claim set carried by an access token.
type Claims struct {
	Name string `json:"unique_name,omitempty"`
	jwt.RegisteredClaims
}

type Tokenizer interface {
	Generate(user usersvc.User) (string, error)
}

type Validator interface {
	Validate(raw string) (Claims, error)
}

func AccessTokenExpiry() time.Duration {
	return time.Hour * 8
}

// ClockSkew is how far past its expiry a token is still accepted.
func ClockSkew() time.Duration {
	return time.Minute
}

type tokenizer struct {
	cfg authsvc.TokenConfig
	now func() time.Time
}

// NewTokenizer signs tokens with cfg. A nil now defaults to time.Now.
func NewTokenizer(cfg authsvc.TokenConfig, now func() time.Time) Tokenizer {
	if now == nil {
		now = time.Now
	}
	return &tokenizer{cfg: cfg, now: now}
}

func (t *tokenizer) Generate(user usersvc.User) (string, error) {
	if user.ID == "" {
		return "", authsvc.ErrInvalidArgument
	}

	now := t.now().UTC()
	claims := Claims{
		Name: user.UserName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewV4().String(),
			Subject:   user.ID,
			Issuer:    t.cfg.Issuer,
			Audience:  jwt.ClaimStrings{t.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenExpiry())),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(t.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signed, nil
}

type validator struct {
	cfg    authsvc.TokenConfig
	parser *jwt.Parser
}

// NewValidator checks tokens against cfg. A nil now defaults to time.Now.
func NewValidator(cfg authsvc.TokenConfig, now func() time.Time) Validator {
	if now == nil {
		now = time.Now
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(ClockSkew()),
		jwt.WithTimeFunc(now),
	)

	return &validator{cfg: cfg, parser: parser}
}

// Validate returns a descriptive error for logging. Callers must not pass
// it on to clients.
func (v *validator) Validate(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrTokenMalformed
	}

	var claims Claims
	_, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(v.cfg.Secret), nil
	})
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, ErrSubjectMissing
	}

	return claims, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fmt.Errorf("%w: %v", ErrIssuerMismatch, err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return fmt.Errorf("%w: %v", ErrAudienceMismatch, err)
	}
	return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
}

var (
	ErrTokenInvalid     = errors.New("access token is invalid")
	ErrTokenMalformed   = errors.New("access token is malformed")
	ErrSignatureInvalid = errors.New("access token signature is invalid")
	ErrIssuerMismatch   = errors.New("access token issuer mismatch")
	ErrAudienceMismatch = errors.New("access token audience mismatch")
	ErrTokenExpired     = errors.New("access token is expired")
	ErrSubjectMissing   = errors.New("access token subject is missing")
)
