package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/fullmoon-jpg/paceon-sub000/internal/config"
	"github.com/fullmoon-jpg/paceon-sub000/internal/database"
	"github.com/fullmoon-jpg/paceon-sub000/internal/models"
)

const testPassword = "SecurePass12!@"

// newTestServer builds a Server on an in-memory database without Redis.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := database.ConnectTest()
	require.NoError(t, err)

	cfg := &config.Config{
		JWTSecret:       "test-secret-key-that-is-long-enough",
		Port:            "0",
		Env:             "test",
		FeedPollSeconds: 30,
		FeedPageSize:    10,
		ProfileCacheTTL: 60,
	}
	s, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)
	return s
}

// signupUser registers a user through the API and returns its bearer token
// and user ID.
func signupUser(t *testing.T, app *fiber.App, username, email string) (string, uint) {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": username,
		"email":    email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	data := body["data"].(map[string]any)
	token := data["token"].(string)
	user := data["user"].(map[string]any)
	return token, uint(user["id"].(float64))
}

// promoteToAdmin flips the user's role directly in the database.
func promoteToAdmin(t *testing.T, s *Server, userID uint) {
	t.Helper()
	require.NoError(t, s.db.Model(&models.User{}).
		Where("id = ?", userID).Update("role", models.RoleAdmin).Error)
}

// createPost creates a post through the API and returns the created item's
// string ID.
func createPost(t *testing.T, app *fiber.App, token, body string) string {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/posts/", token, map[string]any{
		"body": body,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	item := env["data"].(map[string]any)
	return item["id"].(string)
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// uniqueEmail avoids collisions between subtests sharing a server.
func uniqueEmail(prefix string, n int) string {
	return fmt.Sprintf("%s%d@example.com", prefix, n)
}
