package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedPagination(t *testing.T) {
	s := newTestServer(t)
	app := s.App()
	token, _ := signupUser(t, app, "feeder", uniqueEmail("feeder", 1))

	for i := 0; i < 3; i++ {
		createPost(t, app, token, "hello from the feed")
	}

	t.Run("First Page", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/feed?page=1&page_size=2", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeEnvelope(t, resp)
		data := body["data"].(map[string]any)
		assert.Len(t, data["items"], 2)
		assert.Equal(t, true, data["has_more"])
	})

	t.Run("Last Page", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/feed?page=2&page_size=2", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeEnvelope(t, resp)
		data := body["data"].(map[string]any)
		assert.Len(t, data["items"], 1)
		assert.Equal(t, false, data["has_more"])
	})

	t.Run("Yours Filter", func(t *testing.T) {
		otherToken, _ := signupUser(t, app, "bystander", uniqueEmail("bystander", 2))

		resp := doJSON(t, app, http.MethodGet, "/api/feed?filter=yours", otherToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeEnvelope(t, resp)
		data := body["data"].(map[string]any)
		assert.Empty(t, data["items"])
	})
}

func TestRecentFeed(t *testing.T) {
	s := newTestServer(t)
	app := s.App()
	token, _ := signupUser(t, app, "pollster", uniqueEmail("pollster", 1))
	createPost(t, app, token, "fresh post")

	t.Run("Missing Since", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/feed/recent", token, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Bad Since", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/feed/recent?since=yesterday", token, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Finds New Posts", func(t *testing.T) {
		since := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339Nano)
		resp := doJSON(t, app, http.MethodGet, "/api/feed/recent?since="+since, token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeEnvelope(t, resp)
		assert.Len(t, body["data"], 1)
	})

	t.Run("Nothing New", func(t *testing.T) {
		since := time.Now().Add(time.Hour).UTC().Format(time.RFC3339Nano)
		resp := doJSON(t, app, http.MethodGet, "/api/feed/recent?since="+since, token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeEnvelope(t, resp)
		assert.Empty(t, body["data"])
	})
}

func TestCreatePostValidation(t *testing.T) {
	s := newTestServer(t)
	app := s.App()
	token, _ := signupUser(t, app, "creator", uniqueEmail("creator", 1))

	t.Run("Empty Body", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts/", token, map[string]any{
			"body": "   ",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Author Name Resolved", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts/", token, map[string]any{
			"body": "with an author",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeEnvelope(t, resp)
		item := body["data"].(map[string]any)
		assert.Equal(t, "creator", item["author_name"])
	})
}

func TestUpdatePostAuthorization(t *testing.T) {
	s := newTestServer(t)
	app := s.App()

	authorToken, _ := signupUser(t, app, "author1", uniqueEmail("author", 1))
	otherToken, otherID := signupUser(t, app, "intruder", uniqueEmail("intruder", 2))
	postID := createPost(t, app, authorToken, "original body")

	t.Run("Author Can Edit", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPatch, "/api/posts/"+postID, authorToken, map[string]any{
			"body": "edited body",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeEnvelope(t, resp)
		item := body["data"].(map[string]any)
		assert.Equal(t, "edited body", item["body"])
	})

	t.Run("Stranger Cannot Edit", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPatch, "/api/posts/"+postID, otherToken, map[string]any{
			"body": "hijacked",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Admin Can Delete", func(t *testing.T) {
		promoteToAdmin(t, s, otherID)

		resp := doJSON(t, app, http.MethodDelete, "/api/posts/"+postID, otherToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		resp = doJSON(t, app, http.MethodGet, "/api/posts/"+postID, authorToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestToggleLike(t *testing.T) {
	s := newTestServer(t)
	app := s.App()
	token, _ := signupUser(t, app, "liker", uniqueEmail("liker", 1))
	postID := createPost(t, app, token, "like me")

	t.Run("Like", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts/"+postID+"/like", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeEnvelope(t, resp)
		data := body["data"].(map[string]any)
		assert.Equal(t, true, data["liked"])
		assert.Equal(t, float64(1), data["like_count"])
	})

	t.Run("Unlike", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts/"+postID+"/like", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeEnvelope(t, resp)
		data := body["data"].(map[string]any)
		assert.Equal(t, false, data["liked"])
		assert.Equal(t, float64(0), data["like_count"])
	})

	t.Run("Missing Post", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts/99999/like", token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestToggleSave(t *testing.T) {
	s := newTestServer(t)
	app := s.App()
	token, _ := signupUser(t, app, "saver", uniqueEmail("saver", 1))
	postID := createPost(t, app, token, "save me")

	resp := doJSON(t, app, http.MethodPost, "/api/posts/"+postID+"/save", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	assert.Equal(t, true, body["data"].(map[string]any)["saved"])

	resp = doJSON(t, app, http.MethodPost, "/api/posts/"+postID+"/save", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeEnvelope(t, resp)
	assert.Equal(t, false, body["data"].(map[string]any)["saved"])

	// Saved state is per-viewer.
	otherToken, _ := signupUser(t, app, "viewer", uniqueEmail("viewer", 2))
	resp = doJSON(t, app, http.MethodGet, "/api/posts/"+postID, otherToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeEnvelope(t, resp)
	assert.Equal(t, false, body["data"].(map[string]any)["saved"])
}
