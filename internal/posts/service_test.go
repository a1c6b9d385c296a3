package posts

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/socialnet/backend/internal/models"
	"github.com/ayush/socialnet/backend/internal/notify"
	"github.com/ayush/socialnet/backend/internal/store"
)

var pngURI = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG fake"))

type fixture struct {
	svc   *Service
	mem   *store.MemoryStore
	media *store.MemoryMedia
}

func newFixture(t *testing.T, usernames ...string) fixture {
	t.Helper()
	mem := store.NewMemoryStore()
	media := store.NewMemoryMedia()
	for _, name := range usernames {
		u := models.NewUser(name, name, name+"@x.com", "digest", "", time.Now())
		require.NoError(t, mem.CreateUser(context.Background(), u))
	}
	svc := NewService(mem, mem, media, notify.NewEmitter(mem))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc.WithNowFunc(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	return fixture{svc: svc, mem: mem, media: media}
}

func TestCreateRequiresContent(t *testing.T) {
	f := newFixture(t, "a")
	_, err := f.svc.Create(context.Background(), "a", models.CreatePostRequest{})
	assert.ErrorIs(t, err, ErrEmptyPost)

	_, err = f.svc.Create(context.Background(), "ghost", models.CreatePostRequest{Text: "hi"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateUploadsImage(t *testing.T) {
	f := newFixture(t, "a")
	p, err := f.svc.Create(context.Background(), "a", models.CreatePostRequest{Img: pngURI})
	require.NoError(t, err)
	assert.NotEmpty(t, p.Img)
	assert.Equal(t, 1, f.media.Stored())

	_, err = f.svc.Create(context.Background(), "a", models.CreatePostRequest{Img: "not-a-data-uri"})
	assert.ErrorIs(t, err, store.ErrInvalidImage)
}

func TestDeleteChecksOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "a", "b")
	p, err := f.svc.Create(ctx, "a", models.CreatePostRequest{Text: "hi", Img: pngURI})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, "b", p.ID), ErrNotOwner)
	assert.Empty(t, f.media.Deleted())

	require.NoError(t, f.svc.Delete(ctx, "a", p.ID))
	assert.Equal(t, []string{p.Img}, f.media.Deleted())

	_, err = f.mem.PostByID(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, "a", p.ID), ErrPostNotFound)
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "a", "b")
	p, err := f.svc.Create(ctx, "a", models.CreatePostRequest{Text: "hi"})
	require.NoError(t, err)

	res, err := f.svc.ToggleLike(ctx, "b", p.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, models.IDSet{"b"}, res.Likes)

	b, err := f.mem.UserByID(ctx, "b")
	require.NoError(t, err)
	assert.True(t, b.LikedPosts.Has(p.ID))

	res, err = f.svc.ToggleLike(ctx, "b", p.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Empty(t, res.Likes)

	b, err = f.mem.UserByID(ctx, "b")
	require.NoError(t, err)
	assert.False(t, b.LikedPosts.Has(p.ID))

	list, err := f.mem.ListNotifications(ctx, "a")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationLike, list[0].Type)
	assert.Equal(t, "b", list[0].From)

	_, err = f.svc.ToggleLike(ctx, "b", "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestCommentEmitsNoNotification(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "a", "b")
	p, err := f.svc.Create(ctx, "a", models.CreatePostRequest{Text: "hi"})
	require.NoError(t, err)

	_, err = f.svc.Comment(ctx, "b", p.ID, "")
	assert.ErrorIs(t, err, ErrEmptyComment)

	updated, err := f.svc.Comment(ctx, "b", p.ID, "nice")
	require.NoError(t, err)
	require.Len(t, updated.Comments, 1)
	assert.Equal(t, "b", updated.Comments[0].UserID)

	list, err := f.mem.ListNotifications(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.svc.Comment(ctx, "b", "missing", "nice")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestFeeds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "a", "b", "c")
	pa, err := f.svc.Create(ctx, "a", models.CreatePostRequest{Text: "from a"})
	require.NoError(t, err)
	pb, err := f.svc.Create(ctx, "b", models.CreatePostRequest{Text: "from b"})
	require.NoError(t, err)
	_, err = f.svc.Comment(ctx, "c", pa.ID, "hello")
	require.NoError(t, err)

	all, err := f.svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, pb.ID, all[0].ID, "newest first")
	require.NotNil(t, all[1].User)
	assert.Equal(t, "a", all[1].User.Username)
	assert.Empty(t, all[1].User.Password)
	require.Len(t, all[1].Comments, 1)
	assert.Equal(t, "c", all[1].Comments[0].User.Username)

	following, err := f.svc.Following(ctx, "c")
	require.NoError(t, err)
	assert.Empty(t, following, "following nobody yields an empty feed")

	_, err = f.mem.Follow(ctx, "c", "a")
	require.NoError(t, err)
	following, err = f.svc.Following(ctx, "c")
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, pa.ID, following[0].ID)

	_, err = f.svc.ToggleLike(ctx, "c", pb.ID)
	require.NoError(t, err)
	liked, err := f.svc.LikedBy(ctx, "c")
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, pb.ID, liked[0].ID)

	byUser, err := f.svc.ByUser(ctx, "b")
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, pb.ID, byUser[0].ID)

	_, err = f.svc.ByUser(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
