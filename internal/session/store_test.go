package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsilvagit/joblist/internal/model"
)

func TestMemoryStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	user := &model.User{ID: "u1", Email: "ana@example.com", ProfileImage: "/img/ana.png", Token: "t"}
	require.NoError(t, s.Put(ctx, "sid", user))

	got, err := s.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	got.Email = "changed"
	again, _ := s.Get(ctx, "sid")
	assert.Equal(t, "ana@example.com", again.Email, "store hands out copies")

	require.NoError(t, s.Delete(ctx, "sid"))
	_, err = s.Get(ctx, "sid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "sid", &model.User{ID: "u1"}))
	_, err := s.Get(ctx, "sid")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Get(ctx, "sid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_DropsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "a", &model.User{ID: "u1"}))
	require.NoError(t, s.Put(ctx, "b", &model.User{ID: "u2"}))
	assert.Equal(t, 2, s.Len())

	now = now.Add(2 * time.Minute)
	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Put(ctx, "c", &model.User{ID: "u3"}))
	assert.Equal(t, 1, s.Len())
	_, err = s.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestUserContext(t *testing.T) {
	assert.Nil(t, UserFromContext(context.Background()))

	u := &model.User{ID: "u1"}
	assert.Same(t, u, UserFromContext(WithUser(context.Background(), u)))
}

func TestBuildKey(t *testing.T) {
	assert.Equal(t, "joblist:session:abc", buildKey("abc"))
}

func TestNewRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore("not a url", time.Hour)
	require.Error(t, err)
}
