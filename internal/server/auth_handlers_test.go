package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	s := newTestServer(t)
	app := s.App()

	t.Run("Success", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"username": "alice",
			"email":    "alice@example.com",
			"password": testPassword,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeEnvelope(t, resp)
		assert.Equal(t, true, body["success"])
		data := body["data"].(map[string]any)
		assert.NotEmpty(t, data["token"])

		user := data["user"].(map[string]any)
		assert.Equal(t, "alice", user["username"])
		// The password hash must never leave the server.
		assert.NotContains(t, user, "password")
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"username": "alice2",
			"email":    "alice@example.com",
			"password": testPassword,
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Weak Password", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"username": "bob",
			"email":    "bob@example.com",
			"password": "short1!",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Reserved Username", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"username": "admin",
			"email":    "admin@example.com",
			"password": testPassword,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Missing Fields", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"username": "carol",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	app := s.App()
	signupUser(t, app, "dave", "dave@example.com")

	t.Run("Success", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "dave@example.com",
			"password": testPassword,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeEnvelope(t, resp)
		data := body["data"].(map[string]any)
		assert.NotEmpty(t, data["token"])
	})

	t.Run("Wrong Password", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "dave@example.com",
			"password": "WrongPass123!",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Unknown Email", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "nobody@example.com",
			"password": testPassword,
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)
	app := s.App()

	t.Run("No Token", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/feed", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Garbage Token", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/feed", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	})
}
