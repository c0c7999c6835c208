package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storefront",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()

	token, minted, err := MintAccessToken(cfg, time.Now().UTC(), AccessTokenPayload{
		UserID: userID,
		Email:  "shopper@example.com",
		Role:   RoleCustomer,
	})
	require.NoError(t, err)
	require.NotEmpty(t, minted.ID)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "shopper@example.com", claims.Email)
	assert.Equal(t, RoleCustomer, claims.Role)
	assert.Equal(t, minted.ID, claims.ID)
	assert.Equal(t, "storefront", claims.Issuer)
}

func TestMintKeepsProvidedJTI(t *testing.T) {
	_, claims, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   RoleAdmin,
		JTI:    "fixed-jti",
	})
	require.NoError(t, err)
	assert.Equal(t, "fixed-jti", claims.ID)
}

func TestMintValidatesInput(t *testing.T) {
	cfg := testJWTConfig()
	_, _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Role: RoleCustomer})
	assert.Error(t, err, "missing user id")

	_, _, err = MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: "root"})
	assert.Error(t, err, "invalid role")

	cfg.Secret = ""
	_, _, err = MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: RoleCustomer})
	assert.Error(t, err, "missing secret")
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	token, _, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{UserID: uuid.New(), Role: RoleCustomer})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseRejectsWrongIssuerAndSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: RoleCustomer})
	require.NoError(t, err)

	other := cfg
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, token)
	assert.Error(t, err)

	other = cfg
	other.Secret = "different"
	_, err = ParseAccessToken(other, token)
	assert.Error(t, err)

	_, err = ParseAccessToken(cfg, strings.TrimSuffix(token, token[len(token)-2:]))
	assert.Error(t, err)
}

func TestActor(t *testing.T) {
	owner := uuid.New()
	assert.True(t, Actor{UserID: owner}.CanAccess(owner))
	assert.False(t, Actor{UserID: uuid.New()}.CanAccess(owner))
	assert.True(t, Actor{UserID: uuid.New(), IsAdmin: true}.CanAccess(owner))
	assert.Nil(t, Actor{}.Ref())
	assert.Equal(t, owner, *Actor{UserID: owner}.Ref())
	assert.Equal(t, RoleAdmin, RoleFor(true))
}
