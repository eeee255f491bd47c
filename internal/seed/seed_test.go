package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fullmoon-jpg/paceon-sub000/internal/database"
	"github.com/fullmoon-jpg/paceon-sub000/internal/models"
)

func TestSeederRun(t *testing.T) {
	db, err := database.ConnectTest()
	require.NoError(t, err)

	s := NewSeeder(db)
	require.NoError(t, s.Run(Options{Users: 5, Posts: 10, Comments: 8, Clean: true}))

	var userCount, postCount, commentCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&commentCount).Error)

	assert.EqualValues(t, 5, userCount)
	assert.EqualValues(t, 10, postCount)
	assert.EqualValues(t, 8, commentCount)

	var admin models.User
	require.NoError(t, db.Where("username = ?", "demoadmin").First(&admin).Error)
	assert.True(t, admin.IsAdmin())
}

func TestSeederClean(t *testing.T) {
	db, err := database.ConnectTest()
	require.NoError(t, err)

	s := NewSeeder(db)
	require.NoError(t, s.Run(Options{Users: 3, Posts: 4, Clean: false}))
	// A clean run replaces, not appends.
	require.NoError(t, s.Run(Options{Users: 2, Posts: 2, Clean: true}))

	var userCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.EqualValues(t, 2, userCount)
}
