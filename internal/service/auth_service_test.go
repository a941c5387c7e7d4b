package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ermuhamett/slagfield-api/internal/models"
	"github.com/ermuhamett/slagfield-api/pkg/config"
	appErrors "github.com/ermuhamett/slagfield-api/pkg/errors"
)

func authFixture(t *testing.T) *AuthService {
	t.Helper()
	svc, err := NewAuthService(config.AuthConfig{
		Username:    "operator",
		Password:    "yard-secret",
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "slagfield-api",
	}, nil, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc := authFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "operator", Password: "yard-secret"})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	assert.True(t, res.ExpiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Username)
	assert.Equal(t, "slagfield-api", claims.Issuer)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := authFixture(t)

	var appErr *appErrors.Error

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "operator", Password: "wrong"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "intruder", Password: "yard-secret"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := authFixture(t)

	_, err := svc.ValidateToken("not.a.token")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	svc := authFixture(t)
	other, err := NewAuthService(config.AuthConfig{
		Username:    "operator",
		Password:    "yard-secret",
		TokenSecret: "different-secret",
		TokenExpiry: time.Hour,
		Issuer:      "slagfield-api",
	}, nil, zap.NewNop())
	require.NoError(t, err)

	res, err := other.Login(context.Background(), models.LoginRequest{Username: "operator", Password: "yard-secret"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(res.AccessToken)
	assert.Error(t, err)
}
