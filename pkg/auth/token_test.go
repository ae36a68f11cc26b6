package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/souq-backend/pkg/config"
	"github.com/angelmondragon/souq-backend/pkg/enums"
)

func jwtConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "souq", ExpirationMinutes: 30}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := jwtConfig()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, time.Now().UTC(), Principal{UserID: userID, Role: enums.MemberRoleVendor, Email: "v@example.com"})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, enums.MemberRoleVendor, claims.Role)
	assert.Equal(t, "v@example.com", claims.Email)
	assert.Equal(t, "souq", claims.Issuer)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.IsVendor())
	assert.False(t, claims.IsAdmin())
}

func TestParseRejectsBadTokens(t *testing.T) {
	cfg := jwtConfig()
	principal := Principal{UserID: uuid.New(), Role: enums.MemberRoleCustomer}

	expired, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), principal)
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, expired)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)

	token, err := MintAccessToken(cfg, time.Now(), principal)
	require.NoError(t, err)

	other := cfg
	other.Secret = "different"
	_, err = ParseAccessToken(other, token)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	other = cfg
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, token)
	require.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	_, err = ParseAccessToken(config.JWTConfig{}, token)
	require.ErrorIs(t, err, errSecretRequired)
}

func TestParseRejectsUnknownRole(t *testing.T) {
	cfg := jwtConfig()
	claims := AccessTokenClaims{
		UserID: uuid.New(),
		Role:   "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, raw)
	require.ErrorContains(t, err, "invalid member role")
}

func TestMintValidatesInput(t *testing.T) {
	now := time.Now()
	_, err := MintAccessToken(config.JWTConfig{}, now, Principal{UserID: uuid.New(), Role: enums.MemberRoleAdmin})
	require.ErrorIs(t, err, errSecretRequired)

	_, err = MintAccessToken(jwtConfig(), now, Principal{Role: enums.MemberRoleAdmin})
	require.ErrorIs(t, err, errMissingSubject)

	_, err = MintAccessToken(jwtConfig(), now, Principal{UserID: uuid.New(), Role: "root"})
	require.Error(t, err)

	cfg := jwtConfig()
	cfg.ExpirationMinutes = 0
	_, err = MintAccessToken(cfg, now, Principal{UserID: uuid.New(), Role: enums.MemberRoleAdmin})
	require.Error(t, err)
}
