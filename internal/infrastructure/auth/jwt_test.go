package auth

import (
	"testing"
	"time"

	"github.com/erp/numbering/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	cfg := config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	}
	return NewJWTService(cfg)
}

func newTestInput() GenerateTokenInput {
	return GenerateTokenInput{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Username:    "testuser",
		Permissions: []string{"numbering:read", "numbering:write", "voucher:create"},
	}
}

func TestNewJWTService(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:                "test-secret",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	}

	svc := NewJWTService(cfg)

	assert.NotNil(t, svc)
	assert.Equal(t, []byte(cfg.Secret), svc.secret)
	assert.Equal(t, cfg.AccessTokenExpiration, svc.expiration)
	assert.Equal(t, cfg.Issuer, svc.issuer)
}

func TestGenerateAccessToken(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	token, expiresAt, err := svc.GenerateAccessToken(input)

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
}

func TestValidateAccessToken_Success(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	token, _, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)

	require.NoError(t, err)
	assert.Equal(t, input.TenantID.String(), claims.TenantID)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, input.Username, claims.Username)
	assert.Equal(t, input.Permissions, claims.Permissions)
	assert.Equal(t, "test-issuer", claims.Issuer)
}

func TestValidateAccessToken_ExpiredToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: -1 * time.Minute, // Already expired
		Issuer:                "test-issuer",
	}
	svc := NewJWTService(cfg)

	token, _, err := svc.GenerateAccessToken(newTestInput())
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	svc := newTestJWTService()

	token, _, err := svc.GenerateAccessToken(newTestInput())
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:                "a-completely-different-secret-key",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})

	claims, err := other.ValidateAccessToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	svc := newTestJWTService()

	claims, err := svc.ValidateAccessToken("not.a.token")

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestValidateAccessToken_NilTenantUUID(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()
	input.TenantID = uuid.Nil

	token, _, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)

	// uuid.Nil serializes to a non-empty string, so validation passes
	// and the caller sees the zero UUID
	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	parsed, err := claims.GetTenantUUID()
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, parsed)
}

func TestClaims_GetTenantUUID(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	token, _, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	tenantID, err := claims.GetTenantUUID()
	require.NoError(t, err)
	assert.Equal(t, input.TenantID, tenantID)

	userID, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, input.UserID, userID)
}

func TestClaims_GetTenantUUID_Invalid(t *testing.T) {
	claims := &Claims{TenantID: "not-a-uuid"}

	_, err := claims.GetTenantUUID()
	assert.Error(t, err)
}

func TestClaims_HasPermission(t *testing.T) {
	claims := &Claims{
		Permissions: []string{"numbering:read", "numbering:write"},
	}

	assert.True(t, claims.HasPermission("numbering:read"))
	assert.False(t, claims.HasPermission("tenant:delete"))

	assert.True(t, claims.HasAnyPermission("tenant:delete", "numbering:write"))
	assert.False(t, claims.HasAnyPermission("tenant:delete", "tenant:create"))
}

func TestClaims_GetExpiresAtTime(t *testing.T) {
	svc := newTestJWTService()

	token, expiresAt, err := svc.GenerateAccessToken(newTestInput())
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	assert.WithinDuration(t, expiresAt, claims.GetExpiresAtTime(), time.Second)
}

func TestClaims_GetExpiresAtTime_Empty(t *testing.T) {
	claims := &Claims{}
	assert.True(t, claims.GetExpiresAtTime().IsZero())
}

func TestGetAccessTokenExpiration(t *testing.T) {
	svc := newTestJWTService()
	assert.Equal(t, 15*time.Minute, svc.GetAccessTokenExpiration())
}
