package repositories

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/pkg/config"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDB(config.DatabaseConfig{
		Driver:   "sqlite",
		FilePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { config.CloseDB(db) })
	return db
}

func mustUser(t *testing.T, repo UserRepository, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u
}

func mustPost(t *testing.T, repo PostRepository, author *models.User, group *models.Group, text string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID, PubDate: at}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, repo.CreatePost(context.Background(), p))
	return p
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(newTestDB(t))

	leo := mustUser(t, users, "leo")

	got, err := users.GetUserByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, leo.ID, got.ID)

	_, err = users.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	err = users.CreateUser(ctx, &models.User{Username: "leo"})
	assert.ErrorIs(t, err, ErrDuplicate)

	uid := "fb-123"
	ann := &models.User{Username: "ann", FirebaseUID: &uid}
	require.NoError(t, users.CreateUser(ctx, ann))
	got, err = users.GetUserByFirebaseUID(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "ann", got.Username)
}

func TestGroupRepository(t *testing.T) {
	ctx := context.Background()
	groups := NewGroupRepository(newTestDB(t))

	require.NoError(t, groups.CreateGroup(ctx, &models.Group{Title: "Dogs", Slug: "dogs"}))
	require.NoError(t, groups.CreateGroup(ctx, &models.Group{Title: "Cats", Slug: "cats"}))
	assert.ErrorIs(t, groups.CreateGroup(ctx, &models.Group{Title: "Cats again", Slug: "cats"}), ErrDuplicate)

	g, err := groups.GetGroupBySlug(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, "Cats", g.Title)

	_, err = groups.GetGroupBySlug(ctx, "birds")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := groups.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Cats", all[0].Title)
}

func TestListPostsNewestFirstAndClamped(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)

	leo := mustUser(t, users, "leo")
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 23; i++ {
		mustPost(t, posts, leo, nil, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	page, err := posts.ListPosts(ctx, PostFilter{}, "1", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, page.NumPages)
	require.Len(t, page.Posts, 10)
	assert.Equal(t, "post 22", page.Posts[0].Text)
	assert.Equal(t, "leo", page.Posts[0].Author.Username)

	last, err := posts.ListPosts(ctx, PostFilter{}, "99", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, last.Number)
	require.Len(t, last.Posts, 3)
	assert.Equal(t, "post 0", last.Posts[2].Text)

	first, err := posts.ListPosts(ctx, PostFilter{}, "junk", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Number)
}

func TestListPostsEmpty(t *testing.T) {
	posts := NewPostRepository(newTestDB(t))

	page, err := posts.ListPosts(context.Background(), PostFilter{}, "4", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Number)
	assert.Empty(t, page.Posts)
}

func TestListPostsFilters(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	groups := NewGroupRepository(db)
	posts := NewPostRepository(db)
	follows := NewFollowRepository(db)

	leo := mustUser(t, users, "leo")
	ann := mustUser(t, users, "ann")
	bob := mustUser(t, users, "bob")
	cats := &models.Group{Title: "Cats", Slug: "cats"}
	require.NoError(t, groups.CreateGroup(ctx, cats))

	now := time.Now()
	mustPost(t, posts, leo, cats, "leo in cats", now)
	mustPost(t, posts, ann, nil, "ann alone", now.Add(time.Second))
	mustPost(t, posts, bob, cats, "bob in cats", now.Add(2*time.Second))

	byGroup, err := posts.ListPosts(ctx, PostFilter{GroupID: cats.ID}, "", 10)
	require.NoError(t, err)
	require.Len(t, byGroup.Posts, 2)
	assert.Equal(t, "bob in cats", byGroup.Posts[0].Text)
	require.NotNil(t, byGroup.Posts[0].Group)
	assert.Equal(t, "cats", byGroup.Posts[0].Group.Slug)

	byAuthor, err := posts.ListPosts(ctx, PostFilter{AuthorID: ann.ID}, "", 10)
	require.NoError(t, err)
	require.Len(t, byAuthor.Posts, 1)
	assert.Equal(t, "ann alone", byAuthor.Posts[0].Text)

	_, err = follows.Follow(ctx, leo.ID, ann.ID)
	require.NoError(t, err)
	_, err = follows.Follow(ctx, leo.ID, bob.ID)
	require.NoError(t, err)

	feed, err := posts.ListPosts(ctx, PostFilter{FollowerID: leo.ID}, "", 10)
	require.NoError(t, err)
	require.Len(t, feed.Posts, 2)
	assert.Equal(t, "bob in cats", feed.Posts[0].Text)
	assert.Equal(t, "ann alone", feed.Posts[1].Text)

	empty, err := posts.ListPosts(ctx, PostFilter{FollowerID: bob.ID}, "", 10)
	require.NoError(t, err)
	assert.Empty(t, empty.Posts)
}

func TestGetAuthorPostAndUpdate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	groups := NewGroupRepository(db)
	posts := NewPostRepository(db)

	leo := mustUser(t, users, "leo")
	mustUser(t, users, "ann")
	cats := &models.Group{Title: "Cats", Slug: "cats"}
	dogs := &models.Group{Title: "Dogs", Slug: "dogs"}
	require.NoError(t, groups.CreateGroup(ctx, cats))
	require.NoError(t, groups.CreateGroup(ctx, dogs))

	p := mustPost(t, posts, leo, cats, "hello", time.Now())

	got, err := posts.GetAuthorPost(ctx, "leo", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)

	_, err = posts.GetAuthorPost(ctx, "ann", p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	pubDate := got.PubDate
	got.Text = "edited"
	got.GroupID = &dogs.ID
	img := "posts/x.png"
	got.Image = &img
	require.NoError(t, posts.UpdatePost(ctx, got))

	reloaded, err := posts.GetAuthorPost(ctx, "leo", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", reloaded.Text)
	require.NotNil(t, reloaded.Group)
	assert.Equal(t, "dogs", reloaded.Group.Slug)
	assert.Equal(t, "posts/x.png", reloaded.ImageKey())
	assert.True(t, pubDate.Equal(reloaded.PubDate), "pub date is immutable")

	reloaded.GroupID = nil
	reloaded.Image = nil
	require.NoError(t, posts.UpdatePost(ctx, reloaded))
	cleared, err := posts.GetAuthorPost(ctx, "leo", p.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.GroupID)
	assert.False(t, cleared.HasImage())

	inCats, err := posts.CountPosts(ctx, PostFilter{GroupID: cats.ID})
	require.NoError(t, err)
	assert.Zero(t, inCats)
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	groups := NewGroupRepository(db)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	follows := NewFollowRepository(db)

	leo := mustUser(t, users, "leo")
	ann := mustUser(t, users, "ann")
	cats := &models.Group{Title: "Cats", Slug: "cats"}
	require.NoError(t, groups.CreateGroup(ctx, cats))
	p := mustPost(t, posts, leo, cats, "hello", time.Now())
	require.NoError(t, comments.CreateComment(ctx, &models.Comment{PostID: p.ID, AuthorID: ann.ID, Text: "hi"}))

	// deleting a group only detaches its posts
	require.NoError(t, db.Delete(&models.Group{}, cats.ID).Error)
	kept, err := posts.GetAuthorPost(ctx, "leo", p.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.GroupID)

	require.NoError(t, posts.DeletePost(ctx, p.ID))
	remaining, err := comments.GetCommentsByPostID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	assert.ErrorIs(t, posts.DeletePost(ctx, p.ID), ErrNotFound)

	_, err = follows.Follow(ctx, ann.ID, leo.ID)
	require.NoError(t, err)
	mustPost(t, posts, leo, nil, "again", time.Now())
	require.NoError(t, users.DeleteUser(ctx, leo.ID))

	left, err := posts.CountPosts(ctx, PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, left)
	following, err := follows.GetFollowingCount(ctx, ann.ID)
	require.NoError(t, err)
	assert.Zero(t, following)
}

func TestCommentsNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)

	leo := mustUser(t, users, "leo")
	p := mustPost(t, posts, leo, nil, "hello", time.Now())

	base := time.Now()
	for i, text := range []string{"first", "second", "third"} {
		c := &models.Comment{PostID: p.ID, AuthorID: leo.ID, Text: text, Created: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, comments.CreateComment(ctx, c))
	}

	list, err := comments.GetCommentsByPostID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Text)
	assert.Equal(t, "leo", list[0].Author.Username)

	err = comments.CreateComment(ctx, &models.Comment{PostID: 9999, AuthorID: leo.ID, Text: "orphan"})
	assert.Error(t, err)
}

func TestFollowIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	follows := NewFollowRepository(db)

	leo := mustUser(t, users, "leo")
	ann := mustUser(t, users, "ann")

	created, err := follows.Follow(ctx, leo.ID, ann.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = follows.Follow(ctx, leo.ID, ann.ID)
	require.NoError(t, err)
	assert.False(t, created)

	var rows int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	ok, err := follows.IsFollowing(ctx, leo.ID, ann.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	followers, err := follows.GetFollowersCount(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)

	following, err := follows.GetFollowingCount(ctx, leo.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), following)

	removed, err := follows.Unfollow(ctx, leo.ID, ann.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = follows.Unfollow(ctx, leo.ID, ann.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, db.Model(&models.Follow{}).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestFollowSelfIsNoop(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	follows := NewFollowRepository(db)

	leo := mustUser(t, users, "leo")
	created, err := follows.Follow(ctx, leo.ID, leo.ID)
	require.NoError(t, err)
	assert.False(t, created)

	n, err := follows.GetFollowingCount(ctx, leo.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
