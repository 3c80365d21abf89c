package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvforge/internal/auth"
	"cvforge/internal/database"
)

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/v1/auth/register", "", map[string]any{
		"username": "carol",
		"email":    "Carol@Example.com",
		"password": "s3cure-passphrase",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	assert.Equal(t, "carol@example.com", created["email"])

	w = s.do(http.MethodPost, "/v1/auth/register", "", map[string]any{
		"username": "carol",
		"email":    "other@example.com",
		"password": "s3cure-passphrase",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/v1/auth/register", "", map[string]any{
		"username": "dave",
		"email":    "dave@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, login := range []string{"carol", "carol@example.com"} {
		w = s.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"username": login, "password": "s3cure-passphrase"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		tokens := decode[tokenResponse](t, w)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.Equal(t, "Bearer", tokens.TokenType)
		assert.Equal(t, database.RoleUser, tokens.Role)

		// 刷新令牌只通过 Cookie 下发。
		var found bool
		for _, cookie := range w.Result().Cookies() {
			if cookie.Name == refreshTokenCookieName {
				found = cookie.HttpOnly && cookie.Value != ""
			}
		}
		assert.True(t, found, "refresh cookie for %s", login)

		w = s.do(http.MethodGet, "/v1/documents/cv", tokens.AccessToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w = s.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"username": "carol", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMustChangePasswordGate(t *testing.T) {
	s := newTestServer(t)
	hash, err := auth.HashPassword("temporary-pass")
	require.NoError(t, err)
	user := database.User{Username: "erin", Email: "erin@example.com", PasswordHash: hash, Role: database.RoleUser, MustChangePassword: true}
	require.NoError(t, s.db.Create(&user).Error)

	w := s.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"username": "erin", "password": "temporary-pass"})
	require.Equal(t, http.StatusOK, w.Code)
	tokens := decode[tokenResponse](t, w)
	assert.True(t, tokens.MustChangePassword)

	w = s.do(http.MethodGet, "/v1/documents/cv", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/v1/auth/change-password", tokens.AccessToken, map[string]any{
		"currentPassword": "temporary-pass",
		"newPassword":     "brand-new-pass",
		"confirmPassword": "brand-new-pass",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fresh := decode[tokenResponse](t, w)
	assert.False(t, fresh.MustChangePassword)

	w = s.do(http.MethodGet, "/v1/documents/cv", fresh.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var stored database.User
	require.NoError(t, s.db.First(&stored, user.ID).Error)
	assert.False(t, stored.MustChangePassword)
	assert.True(t, auth.CheckPasswordHash("brand-new-pass", stored.PasswordHash))
}

func TestChangePasswordValidation(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser("frank", database.RoleUser)

	w := s.do(http.MethodPost, "/v1/auth/change-password", token, map[string]any{
		"currentPassword": "correct horse battery",
		"newPassword":     "brand-new-pass",
		"confirmPassword": "different-pass",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/v1/auth/change-password", token, map[string]any{
		"currentPassword": "not my password",
		"newPassword":     "brand-new-pass",
		"confirmPassword": "brand-new-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
