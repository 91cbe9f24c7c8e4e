package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/ereceipt-api/pkg/jwt"
)

const (
	testSecret = "test-secret-key-for-unit-tests"
	testUserID = "00000000-0000-0000-0000-000000000001"
	testEmail  = "owner@shop.test"
	testIssuer = "ereceipt-test"
)

func TestGenerateAndParse_Access(t *testing.T) {
	tok, err := pkgjwt.GenerateAccess(testSecret, testUserID, testEmail, testIssuer, 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := pkgjwt.Parse(testSecret, pkgjwt.KindAccess, tok)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.UserID)
	assert.Equal(t, testEmail, claims.Email)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.Equal(t, pkgjwt.KindAccess, claims.Kind)
}

func TestGenerateAndParse_Refresh(t *testing.T) {
	tok, err := pkgjwt.GenerateRefresh(testSecret, testUserID, testEmail, testIssuer, 30)
	require.NoError(t, err)

	claims, err := pkgjwt.Parse(testSecret, pkgjwt.KindRefresh, tok)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.UserID)
	assert.True(t, claims.ExpiresAt.After(time.Now().Add(29*24*time.Hour)))
}

func TestParse_RefreshNoSirveComoAccess(t *testing.T) {
	tok, err := pkgjwt.GenerateRefresh(testSecret, testUserID, testEmail, testIssuer, 30)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, pkgjwt.KindAccess, tok)
	assert.ErrorIs(t, err, pkgjwt.ErrWrongKind)
}

func TestParse_AccessNoSirveComoRefresh(t *testing.T) {
	tok, err := pkgjwt.GenerateAccess(testSecret, testUserID, testEmail, testIssuer, 60)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, pkgjwt.KindRefresh, tok)
	assert.ErrorIs(t, err, pkgjwt.ErrWrongKind)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := pkgjwt.GenerateAccess(testSecret, testUserID, testEmail, testIssuer, -1)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, pkgjwt.KindAccess, tok)
	require.Error(t, err)
	assert.True(t, pkgjwt.IsExpired(err))
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := pkgjwt.GenerateAccess(testSecret, testUserID, testEmail, testIssuer, 60)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro-secret-completamente-distinto", pkgjwt.KindAccess, tok)
	assert.Error(t, err)
	assert.False(t, pkgjwt.IsExpired(err))
}

func TestGenerate_Errores(t *testing.T) {
	_, err := pkgjwt.GenerateAccess("", testUserID, testEmail, testIssuer, 60)
	assert.Error(t, err, "secret vacío debe fallar")

	_, err = pkgjwt.Generate(testSecret, "session", testUserID, testEmail, testIssuer, time.Hour)
	assert.Error(t, err, "tipo desconocido debe fallar")
}
