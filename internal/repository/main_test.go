package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fullmoon-jpg/paceon-sub000/internal/database"
	"github.com/fullmoon-jpg/paceon-sub000/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.ConnectTest()
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "hashed",
		DisplayName: username,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedPost(t *testing.T, db *gorm.DB, userID uint, body string, createdAt time.Time) *models.Post {
	t.Helper()
	post := &models.Post{
		Body:   body,
		UserID: userID,
	}
	require.NoError(t, db.Create(post).Error)
	// gorm sets CreatedAt on insert; rewrite it for deterministic ordering.
	require.NoError(t, db.Model(post).UpdateColumn("created_at", createdAt).Error)
	post.CreatedAt = createdAt
	return post
}

func ctx() context.Context {
	return context.Background()
}
