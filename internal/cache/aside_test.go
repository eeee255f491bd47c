package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	InitRedis(mr.Addr())
	t.Cleanup(func() { client = nil })
	require.NotNil(t, GetClient())
	return mr
}

func TestGetOrLoadJSON(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) (Profile, error) {
		loads++
		return Profile{UserID: 42, Name: "Grace"}, nil
	}

	got, err := GetOrLoadJSON(ctx, ProfileKey(42), ProfileTTL, load)
	require.NoError(t, err)
	assert.Equal(t, "Grace", got.Name)
	assert.Equal(t, 1, loads)

	// Second call is served from the cache.
	got, err = GetOrLoadJSON(ctx, ProfileKey(42), ProfileTTL, load)
	require.NoError(t, err)
	assert.Equal(t, "Grace", got.Name)
	assert.Equal(t, 1, loads)
}

func TestGetOrLoadJSON_LoadErrorNotCached(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	boom := errors.New("db down")
	_, err := GetOrLoadJSON(ctx, PostKey(7), PostTTL, func(context.Context) (Profile, error) {
		return Profile{}, boom
	})
	assert.ErrorIs(t, err, boom)

	var p Profile
	assert.False(t, GetJSON(ctx, PostKey(7), &p))
}

func TestGetOrLoadJSON_TTLExpiry(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) (Profile, error) {
		loads++
		return Profile{UserID: 1}, nil
	}

	_, err := GetOrLoadJSON(ctx, ProfileKey(1), ProfileTTL, load)
	require.NoError(t, err)

	mr.FastForward(ProfileTTL + time.Second)

	_, err = GetOrLoadJSON(ctx, ProfileKey(1), ProfileTTL, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestInvalidate(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	SetJSON(ctx, ProfileKey(9), Profile{UserID: 9}, ProfileTTL)
	var p Profile
	require.True(t, GetJSON(ctx, ProfileKey(9), &p))

	InvalidateProfile(ctx, 9)
	assert.False(t, GetJSON(ctx, ProfileKey(9), &p))
}

func TestCacheUnavailable(t *testing.T) {
	client = nil
	ctx := context.Background()

	var p Profile
	assert.False(t, GetJSON(ctx, ProfileKey(1), &p))
	SetJSON(ctx, ProfileKey(1), Profile{}, ProfileTTL) // no panic
	assert.False(t, Available(ctx))

	got, err := GetOrLoadJSON(ctx, ProfileKey(1), ProfileTTL, func(context.Context) (Profile, error) {
		return Profile{UserID: 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), got.UserID)
}
