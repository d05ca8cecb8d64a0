package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthhub/internal/model"
	"healthhub/internal/paging"
)

func TestFeedRegistryEvictsIdleFeeds(t *testing.T) {
	env := newTestEnv(t)
	env.api.groups = []model.Group{{ID: 1, Name: "Runners"}}
	reg := NewFeedRegistry[model.Group](FeedSettings{DefaultPageSize: 10}, env.alerts)
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	now := start
	reg.now = func() time.Time { return now }
	ctx := context.Background()

	old := reg.Feed(1, "groups", env.api.ListGroups)
	_, err := reg.Apply(ctx, old, FeedQuery{})
	require.NoError(t, err)

	now = start.Add(30 * time.Minute)
	reg.Feed(2, "groups", env.api.ListGroups)

	assert.Equal(t, 1, reg.EvictIdle(start.Add(10*time.Minute)))
	_, ok := reg.Lookup(1, "groups")
	assert.False(t, ok, "idle feed dropped")
	_, ok = reg.Lookup(2, "groups")
	assert.True(t, ok)

	fresh := reg.Feed(1, "groups", env.api.ListGroups)
	assert.NotSame(t, old, fresh)
	assert.Empty(t, fresh.State().Items, "evicted feed starts over")
}

func TestFeedRegistryKeepsFeedsInFlight(t *testing.T) {
	env := newTestEnv(t)
	reg := NewFeedRegistry[int](FeedSettings{DefaultPageSize: 10}, env.alerts)
	started := make(chan struct{})
	release := make(chan struct{})
	acc := reg.Feed(1, "slow", func(ctx context.Context, req paging.Request) (paging.Page[int], error) {
		close(started)
		<-release
		return paging.Page[int]{Items: []int{1}, PageNumber: 1, PageSize: 10, TotalCount: 1, TotalPages: 1}, nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := reg.Apply(context.Background(), acc, FeedQuery{})
		done <- err
	}()
	<-started

	assert.Zero(t, reg.EvictIdle(time.Now().Add(time.Hour)))
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, reg.EvictIdle(time.Now().Add(time.Hour)))
}

func TestConversationsEvictIdle(t *testing.T) {
	convs := NewConversations()
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	now := start
	convs.now = func() time.Time { return now }

	convs.For(1).Reset("s-1", []model.Message{{MessageID: "m1"}})
	busy := convs.For(2)
	busy.begin()

	now = start.Add(2 * time.Hour)
	convs.For(3)

	assert.Equal(t, 1, convs.EvictIdle(start.Add(time.Hour)))
	assert.Empty(t, convs.For(1).SessionID(), "evicted conversation starts empty")
	assert.Same(t, busy, convs.For(2), "a send in flight keeps the conversation")
	busy.end()
}

func TestCommunityEvictIdleDropsReactionBooks(t *testing.T) {
	svc, env := newCommunity(t, 10)
	env.api.posts[1] = []model.GroupPost{{ID: 1, GroupID: 1, Status: model.StatusActive, MyReaction: model.ReactionLike}}
	ctx := context.Background()
	_, err := svc.ListGroupPosts(ctx, 1, 1, FeedQuery{})
	require.NoError(t, err)
	require.Equal(t, model.ReactionLike, svc.reactions.For(1).Get(1))

	assert.Equal(t, 2, svc.EvictIdle(time.Now().Add(time.Minute)), "post feed and reaction book")
	assert.Empty(t, svc.reactions.For(1).Get(1))

	_, err = svc.ListGroupPosts(ctx, 1, 1, FeedQuery{})
	require.NoError(t, err)
	assert.Equal(t, model.ReactionLike, svc.reactions.For(1).Get(1), "reseeded from the next fetch")
}
