package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jmcardona/atalaya/backend/internal/config"
	"github.com/jmcardona/atalaya/backend/internal/database"
	"github.com/jmcardona/atalaya/backend/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Comment{}))
	return db
}

func testAuthService(t *testing.T) *AuthService {
	return NewAuthService(testDB(t), config.Config{SessionSecret: "test-secret"})
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc := testAuthService(t)

	user, err := svc.Register("Ana@Example.com", "Ana", "contraseña-segura")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "contraseña-segura", user.PasswordHash)

	token, logged, err := svc.Login("ana@example.com", "contraseña-segura")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, logged.ID)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc := testAuthService(t)

	_, err := svc.Register("ana@example.com", "Ana", "contraseña-segura")
	require.NoError(t, err)

	_, err = svc.Register("ana@example.com", "Otra", "otra-clave-123")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	svc := testAuthService(t)

	_, err := svc.Register("ana@example.com", "Ana", "contraseña-segura")
	require.NoError(t, err)

	_, _, err = svc.Login("ana@example.com", "incorrecta")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("nadie@example.com", "lo-que-sea")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_VerifyToken(t *testing.T) {
	svc := testAuthService(t)

	_, err := svc.Register("ana@example.com", "Ana", "contraseña-segura")
	require.NoError(t, err)
	token, _, err := svc.Login("ana@example.com", "contraseña-segura")
	require.NoError(t, err)

	user, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)

	_, err = svc.VerifyToken("basura")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_GoogleAuthURL(t *testing.T) {
	svc := NewAuthService(nil, config.Config{
		GoogleClientID:    "client-123",
		GoogleRedirectURL: "https://example.com/callback",
	})

	u := svc.GoogleAuthURL("estado-abc")
	assert.Contains(t, u, "accounts.google.com")
	assert.Contains(t, u, "client_id=client-123")
	assert.Contains(t, u, "state=estado-abc")

	disabled := NewAuthService(nil, config.Config{})
	assert.Empty(t, disabled.GoogleAuthURL("x"))
}
