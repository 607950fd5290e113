package authservice_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ichigozero/tasktracker/authsvc"
	"github.com/ichigozero/tasktracker/authsvc/pkg/authservice"
	"github.com/ichigozero/tasktracker/usersvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = authsvc.TokenConfig{
	Secret:   "test-secret",
	Issuer:   "TaskTracker.IdentityService",
	Audience: "TaskTracker",
}

var alice = usersvc.User{ID: "0b6f1a2e-6c55-4c1b-9d1e-7f6f2b1c9a10", UserName: "alice"}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGenerateThenValidate(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	raw, err := authservice.NewTokenizer(testConfig, fixedClock(now)).Generate(alice)
	require.NoError(t, err)
	assert.Len(t, strings.Split(raw, "."), 3)

	claims, err := authservice.NewValidator(testConfig, fixedClock(now)).Validate(raw)
	require.NoError(t, err)

	assert.Equal(t, alice.ID, claims.Subject)
	assert.Equal(t, alice.UserName, claims.Name)
	assert.Equal(t, testConfig.Issuer, claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{testConfig.Audience}, claims.Audience)
	assert.Equal(t, now, claims.IssuedAt.Time.UTC())
	assert.Equal(t, now.Add(8*time.Hour), claims.ExpiresAt.Time.UTC())
	assert.NotEmpty(t, claims.ID)
}

func TestGenerateRequiresSubject(t *testing.T) {
	_, err := authservice.NewTokenizer(testConfig, nil).Generate(usersvc.User{UserName: "alice"})
	assert.ErrorIs(t, err, authsvc.ErrInvalidArgument)
}

func TestValidateRejects(t *testing.T) {
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	mint := func(cfg authsvc.TokenConfig) string {
		raw, err := authservice.NewTokenizer(cfg, fixedClock(issued)).Generate(alice)
		require.NoError(t, err)
		return raw
	}
	withSecret := testConfig
	withSecret.Secret = "another-secret"
	withIssuer := testConfig
	withIssuer.Issuer = "someone-else"
	withAudience := testConfig
	withAudience.Audience = "another-api"

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, authservice.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   alice.ID,
			Issuer:    testConfig.Issuer,
			Audience:  jwt.ClaimStrings{testConfig.Audience},
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, authservice.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testConfig.Issuer,
			Audience:  jwt.ClaimStrings{testConfig.Audience},
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		},
	}).SignedString([]byte(testConfig.Secret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, authservice.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  alice.ID,
			Issuer:   testConfig.Issuer,
			Audience: jwt.ClaimStrings{testConfig.Audience},
		},
	}).SignedString([]byte(testConfig.Secret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		raw     string
		now     time.Time
		wantErr error
	}{
		{name: "empty", raw: "", now: issued, wantErr: authservice.ErrTokenMalformed},
		{name: "garbage", raw: "not-a-token", now: issued, wantErr: authservice.ErrTokenMalformed},
		{name: "foreign secret", raw: mint(withSecret), now: issued, wantErr: authservice.ErrSignatureInvalid},
		{name: "foreign issuer", raw: mint(withIssuer), now: issued, wantErr: authservice.ErrIssuerMismatch},
		{name: "foreign audience", raw: mint(withAudience), now: issued, wantErr: authservice.ErrAudienceMismatch},
		{name: "expired beyond skew", raw: mint(testConfig), now: issued.Add(8*time.Hour + 2*time.Minute), wantErr: authservice.ErrTokenExpired},
		{name: "alg none", raw: unsigned, now: issued, wantErr: authservice.ErrSignatureInvalid},
		{name: "missing subject", raw: noSubject, now: issued, wantErr: authservice.ErrSubjectMissing},
		{name: "missing expiry", raw: noExpiry, now: issued, wantErr: authservice.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authservice.NewValidator(testConfig, fixedClock(tt.now)).Validate(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateToleratesClockSkew(t *testing.T) {
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	raw, err := authservice.NewTokenizer(testConfig, fixedClock(issued)).Generate(alice)
	require.NoError(t, err)

	justExpired := issued.Add(8*time.Hour + 30*time.Second)
	claims, err := authservice.NewValidator(testConfig, fixedClock(justExpired)).Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, claims.Subject)
}
