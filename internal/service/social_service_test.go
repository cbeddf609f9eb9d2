package service

import (
	"context"
	"testing"
	"time"

	"github.com/prperemyshlev/social-service/internal/domain"
	"github.com/prperemyshlev/social-service/internal/dto"
	"github.com/prperemyshlev/social-service/internal/repository"
	"github.com/prperemyshlev/social-service/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type socialFixture struct {
	repos     *repository.Repositories
	store     *memory.Store
	users     UserService
	tweets    TweetService
	bookmarks BookmarkService
}

func newSocialFixture(t *testing.T) *socialFixture {
	t.Helper()
	repos, store := memory.NewRepositories()
	return &socialFixture{
		repos:     repos,
		store:     store,
		users:     NewUserService(repos, zap.NewNop()),
		tweets:    NewTweetService(repos),
		bookmarks: NewBookmarkService(repos),
	}
}

func (f *socialFixture) addUser(t *testing.T, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:        username + "@example.com",
		Name:         username,
		Username:     username,
		PasswordHash: "hash",
		Verify:       domain.Verified,
		DateOfBirth:  time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.repos.User.Create(context.Background(), u))
	return u
}

func (f *socialFixture) addTweet(t *testing.T, author *domain.User, audience domain.TweetAudience) *domain.Tweet {
	t.Helper()
	tweet, err := f.tweets.CreateTweet(context.Background(), author.ID, &dto.CreateTweetRequest{
		Type:     domain.TweetTypeTweet,
		Audience: audience,
		Content:  "hello",
	})
	require.NoError(t, err)
	return tweet
}

func strPtr(s string) *string { return &s }

func TestUserService_GetMeAndProfile(t *testing.T) {
	f := newSocialFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")

	me, err := f.users.GetMe(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Empty(t, me.Providers)

	profile, err := f.users.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, profile.ID)

	_, err = f.users.GetProfile(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserService_UpdateMe(t *testing.T) {
	f := newSocialFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	f.addUser(t, "bobby")

	updated, err := f.users.UpdateMe(ctx, alice.ID, &dto.UpdateMeRequest{
		Bio:         strPtr("gopher"),
		Username:    strPtr("alice_2"),
		DateOfBirth: strPtr("1991-02-03"),
	})
	require.NoError(t, err)
	assert.Equal(t, "gopher", updated.Bio)
	assert.Equal(t, "alice_2", updated.Username)
	assert.Equal(t, "1991-02-03", updated.DateOfBirth)
	assert.Equal(t, "alice", updated.Name)

	tests := []struct {
		name string
		req  *dto.UpdateMeRequest
		want error
		kind domain.ErrorKind
	}{
		{name: "taken username", req: &dto.UpdateMeRequest{Username: strPtr("bobby")}, want: domain.ErrUsernameAlreadyUsed, kind: domain.KindConflict},
		{name: "digits only username", req: &dto.UpdateMeRequest{Username: strPtr("123456")}, kind: domain.KindValidation},
		{name: "short username", req: &dto.UpdateMeRequest{Username: strPtr("abc")}, kind: domain.KindValidation},
		{name: "bad date", req: &dto.UpdateMeRequest{DateOfBirth: strPtr("03/02/1991")}, kind: domain.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.UpdateMe(ctx, alice.ID, tt.req)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Equal(t, tt.kind, domain.KindOf(err))
		})
	}
}

func TestUserService_Follow(t *testing.T) {
	f := newSocialFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bobby")

	result, err := f.users.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, result.AlreadyFollowing)
	assert.True(t, f.store.FollowExists(alice.ID, bob.ID))

	result, err = f.users.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, result.AlreadyFollowing)

	_, err = f.users.Follow(ctx, alice.ID, alice.ID)
	assert.ErrorIs(t, err, domain.ErrCannotFollowSelf)

	_, err = f.users.Follow(ctx, alice.ID, "5f1d7f0e-2b55-4b0a-8c4e-6f2f3b1f9e77")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = f.users.Follow(ctx, alice.ID, "not-a-uuid")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	require.NoError(t, f.users.Unfollow(ctx, alice.ID, bob.ID))
	require.NoError(t, f.users.Unfollow(ctx, alice.ID, bob.ID))
	assert.False(t, f.store.FollowExists(alice.ID, bob.ID))
}

func TestUserService_Circle(t *testing.T) {
	f := newSocialFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bobby")

	require.NoError(t, f.users.AddToCircle(ctx, alice.ID, bob.ID))
	require.NoError(t, f.users.AddToCircle(ctx, alice.ID, bob.ID))

	got, err := f.repos.User.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, got.Circle)

	assert.Equal(t, domain.KindValidation, domain.KindOf(f.users.AddToCircle(ctx, alice.ID, alice.ID)))

	require.NoError(t, f.users.RemoveFromCircle(ctx, alice.ID, bob.ID))
	got, err = f.repos.User.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Circle)
}

func TestTweetService_CreateTweet_ShapeRules(t *testing.T) {
	f := newSocialFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	parent := f.addTweet(t, alice, domain.AudienceEveryone)
	missing := "7d3c1f0a-9a43-4c55-8b3e-3a5b3c2f1e00"

	tests := []struct {
		name string
		req  dto.CreateTweetRequest
		want domain.ErrorKind
	}{
		{name: "tweet", req: dto.CreateTweetRequest{Type: domain.TweetTypeTweet, Content: "hi"}},
		{name: "tweet with only hashtags", req: dto.CreateTweetRequest{Type: domain.TweetTypeTweet, Hashtags: []string{"#go"}}},
		{name: "tweet with parent", req: dto.CreateTweetRequest{Type: domain.TweetTypeTweet, Content: "hi", ParentID: &parent.ID}, want: domain.KindValidation},
		{name: "empty tweet", req: dto.CreateTweetRequest{Type: domain.TweetTypeTweet, Content: "  "}, want: domain.KindValidation},
		{name: "retweet", req: dto.CreateTweetRequest{Type: domain.TweetTypeRetweet, ParentID: &parent.ID}},
		{name: "retweet with content", req: dto.CreateTweetRequest{Type: domain.TweetTypeRetweet, ParentID: &parent.ID, Content: "x"}, want: domain.KindValidation},
		{name: "comment without parent", req: dto.CreateTweetRequest{Type: domain.TweetTypeComment, Content: "x"}, want: domain.KindValidation},
		{name: "comment on missing parent", req: dto.CreateTweetRequest{Type: domain.TweetTypeComment, Content: "x", ParentID: &missing}, want: domain.KindNotFound},
		{name: "quote tweet", req: dto.CreateTweetRequest{Type: domain.TweetTypeQuoteTweet, Content: "x", ParentID: &parent.ID}},
		{name: "bad mention", req: dto.CreateTweetRequest{Type: domain.TweetTypeTweet, Content: "x", Mentions: []string{"bob"}}, want: domain.KindValidation},
		{name: "bad type", req: dto.CreateTweetRequest{Type: domain.TweetType(9), Content: "x"}, want: domain.KindValidation},
		{name: "bad audience", req: dto.CreateTweetRequest{Audience: domain.TweetAudience(5), Content: "x"}, want: domain.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tweet, err := f.tweets.CreateTweet(ctx, alice.ID, &tt.req)
			if tt.want == domain.KindInternal {
				require.NoError(t, err)
				assert.Equal(t, alice.ID, tweet.UserID)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, domain.KindOf(err))
		})
	}
}

func TestTweetService_CreateTweet_NormalizesTags(t *testing.T) {
	f := newSocialFixture(t)
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bobby")

	tweet, err := f.tweets.CreateTweet(context.Background(), alice.ID, &dto.CreateTweetRequest{
		Content:  "hi",
		Hashtags: []string{"#go", "go", " rust "},
		Mentions: []string{bob.ID, bob.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust"}, tweet.Hashtags)
	assert.Equal(t, []string{bob.ID}, tweet.Mentions)
}

func TestTweetService_GetTweet_CountsViews(t *testing.T) {
	f := newSocialFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	tweet := f.addTweet(t, alice, domain.AudienceEveryone)

	got, err := f.tweets.GetTweet(ctx, tweet.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.GuestViews)

	got, err = f.tweets.GetTweet(ctx, tweet.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UserViews)
	assert.Equal(t, int64(1), got.GuestViews)

	_, err = f.tweets.GetTweet(ctx, "0e7a9c55-0000-4000-8000-000000000000", "")
	assert.ErrorIs(t, err, domain.ErrTweetNotFound)
}

func TestTweetService_GetTweet_CircleGate(t *testing.T) {
	f := newSocialFixture(t)
	ctx := context.Background()
	author := f.addUser(t, "author")
	member := f.addUser(t, "member")
	outsider := f.addUser(t, "outsider")
	require.NoError(t, f.repos.User.AddToCircle(ctx, author.ID, member.ID))

	tweet := f.addTweet(t, author, domain.AudienceTwitterCircle)

	_, err := f.tweets.GetTweet(ctx, tweet.ID, "")
	assert.ErrorIs(t, err, domain.ErrTokenMissing)

	_, err = f.tweets.GetTweet(ctx, tweet.ID, outsider.ID)
	assert.ErrorIs(t, err, domain.ErrTweetNotPublic)

	_, err = f.tweets.GetTweet(ctx, tweet.ID, member.ID)
	assert.NoError(t, err)

	_, err = f.tweets.GetTweet(ctx, tweet.ID, author.ID)
	assert.NoError(t, err)

	f.store.SetVerify(author.ID, domain.Banned)
	_, err = f.tweets.GetTweet(ctx, tweet.ID, member.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestBookmarkService(t *testing.T) {
	f := newSocialFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice")
	tweet := f.addTweet(t, alice, domain.AudienceEveryone)

	first, err := f.bookmarks.Bookmark(ctx, alice.ID, tweet.ID)
	require.NoError(t, err)
	second, err := f.bookmarks.Bookmark(ctx, alice.ID, tweet.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = f.bookmarks.Bookmark(ctx, alice.ID, "0e7a9c55-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, domain.ErrTweetNotFound)

	require.NoError(t, f.bookmarks.Unbookmark(ctx, alice.ID, tweet.ID))
	require.NoError(t, f.bookmarks.Unbookmark(ctx, alice.ID, tweet.ID))
}
