package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fullmoon-jpg/paceon-sub000/internal/models"
)

func TestUserService_IsAdmin(t *testing.T) {
	repo := &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			role := models.RoleMember
			if id == 1 {
				role = models.RoleAdmin
			}
			return &models.User{ID: id, Role: role}, nil
		},
	}
	svc := NewUserService(repo)

	admin, err := svc.IsAdmin(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, admin)

	admin, err = svc.IsAdmin(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, admin)
}

func TestUserService_UpdateProfile(t *testing.T) {
	var updated *models.User
	repo := &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, DisplayName: "Old", AvatarURL: "old.png"}, nil
		},
		updateFn: func(_ context.Context, u *models.User) error {
			updated = u
			return nil
		},
	}
	svc := NewUserService(repo)

	got, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 3, DisplayName: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", got.DisplayName)
	assert.Equal(t, "old.png", updated.AvatarURL)

	_, err = svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 3, DisplayName: strings.Repeat("x", 61)})
	assert.Error(t, err)
}
