package feed

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockResolver implements HandleResolver for service tests
type mockResolver struct {
	dids  map[string]string
	err   error
	calls int
}

func (m *mockResolver) ResolveHandle(ctx context.Context, handle string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	did, ok := m.dids[handle]
	if !ok {
		return "", errors.New("unknown handle")
	}
	return did, nil
}

func newTestService(client *mockClient, store *memStore) Service {
	resolver := &mockResolver{dids: map[string]string{"alice.test": targetDID}}
	cache := NewCache(store, slog.Default())
	return NewService(client, resolver, cache, WithLogger(slog.Default()))
}

func feedPage(cursor *string, entries ...*FeedEntry) *FeedPage {
	return &FeedPage{Entries: entries, Cursor: cursor}
}

func TestService_FetchPostsAssemblesThreads(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	client := newMockClient()
	client.feedPages[""] = feedPage(strPtr("c1"),
		testEntry("at://root", targetDID, base, ""),
		testEntry("at://child", targetDID, base.Add(time.Minute), "at://root"),
	)
	// The filter verifies reply chains against the AppView, not the batch.
	client.posts["at://root"] = testPost("at://root", targetDID, base, "")

	svc := newTestService(client, newMemStore())

	resp, err := svc.FetchPosts(context.Background(), FetchPostsRequest{Handle: "alice.test", UseCache: true})
	require.NoError(t, err)
	require.Len(t, resp.Threads, 1)
	assert.Equal(t, "at://root", resp.Threads[0].Entry.Post.URI)
	require.Len(t, resp.Threads[0].Children, 1)
	require.NotNil(t, resp.Cursor)
	assert.Equal(t, "c1", *resp.Cursor)
}

func TestService_FirstPageServedFromCache(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	client := newMockClient()
	client.feedPages[""] = feedPage(strPtr("c1"), testEntry("at://a", targetDID, base, ""))

	store := newMemStore()
	svc := newTestService(client, store)
	ctx := context.Background()

	_, err := svc.FetchPosts(ctx, FetchPostsRequest{Handle: "alice.test", UseCache: true})
	require.NoError(t, err)
	require.Equal(t, 1, client.feedCalls)

	// Second initial load must be cache-served: no network at all.
	resp, err := svc.FetchPosts(ctx, FetchPostsRequest{Handle: "alice.test", UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, 1, client.feedCalls, "cached first page must not refetch")
	require.Len(t, resp.Threads, 1)
}

func TestService_FreshRequestBypassesCache(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	client := newMockClient()
	client.feedPages[""] = feedPage(strPtr("c1"), testEntry("at://a", targetDID, base, ""))

	svc := newTestService(client, newMemStore())
	ctx := context.Background()

	_, err := svc.FetchPosts(ctx, FetchPostsRequest{Handle: "alice.test", UseCache: true})
	require.NoError(t, err)

	_, err = svc.FetchPosts(ctx, FetchPostsRequest{Handle: "alice.test", UseCache: false})
	require.NoError(t, err)
	assert.Equal(t, 2, client.feedCalls, "UseCache=false must hit the network")
}

func TestService_PaginatedPageNeverCacheServed(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	client := newMockClient()
	client.feedPages[""] = feedPage(strPtr("c1"), testEntry("at://a", targetDID, base, ""))
	client.feedPages["c1"] = feedPage(strPtr("c2"), testEntry("at://b", targetDID, base.Add(-time.Minute), ""))

	store := newMemStore()
	svc := newTestService(client, store)
	ctx := context.Background()

	_, err := svc.FetchPosts(ctx, FetchPostsRequest{Handle: "alice.test", UseCache: true})
	require.NoError(t, err)

	resp, err := svc.FetchPosts(ctx, FetchPostsRequest{Handle: "alice.test", Cursor: "c1", UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, 2, client.feedCalls)
	require.Len(t, resp.Threads, 1)
	assert.Equal(t, "at://b", resp.Threads[0].Entry.Post.URI)

	// The cache accumulated both pages.
	cache := NewCache(store, slog.Default())
	snap := cache.GetPosts(ctx, "alice.test")
	assert.Equal(t, []string{"at://a", "at://b"}, rootURIs(t, snap))
	require.NotNil(t, snap.Cursor)
	assert.Equal(t, "c2", *snap.Cursor)
}

func TestService_ResolutionFailurePropagates(t *testing.T) {
	client := newMockClient()
	cache := NewCache(newMemStore(), slog.Default())
	resolver := &mockResolver{err: errors.New("plc unreachable")}
	svc := NewService(client, resolver, cache)

	_, err := svc.FetchPosts(context.Background(), FetchPostsRequest{Handle: "alice.test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alice.test")
}

func TestService_TransportFailurePropagates(t *testing.T) {
	client := newMockClient()
	client.feedErr = errors.New("getAuthorFeed: unexpected status 502")

	svc := newTestService(client, newMemStore())

	_, err := svc.FetchPosts(context.Background(), FetchPostsRequest{Handle: "alice.test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestService_EmptyHandleRejected(t *testing.T) {
	svc := newTestService(newMockClient(), newMemStore())

	_, err := svc.FetchPosts(context.Background(), FetchPostsRequest{})
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestService_FetchProfileCachesAndAbsorbsFailure(t *testing.T) {
	client := newMockClient()
	client.profiles["alice.test"] = &Profile{DID: targetDID, Handle: "alice.test", Avatar: "https://cdn/a.jpg"}

	svc := newTestService(client, newMemStore())
	ctx := context.Background()

	profile := svc.FetchProfile(ctx, "alice.test")
	require.NotNil(t, profile)
	assert.Equal(t, targetDID, profile.DID)

	// Second call is cache-served.
	svc.FetchProfile(ctx, "alice.test")
	assert.Equal(t, 1, client.profileCalls["alice.test"])

	// Failures surface as nil, never as an error.
	assert.Nil(t, svc.FetchProfile(ctx, "nobody.test"))
}

func TestService_PreloadAppendsBehindCachedCursor(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	client := newMockClient()
	client.feedPages[""] = feedPage(strPtr("c1"), testEntry("at://a", targetDID, base, ""))
	client.feedPages["c1"] = feedPage(strPtr("c2"), testEntry("at://b", targetDID, base.Add(-time.Minute), ""))

	store := newMemStore()
	svc := newTestService(client, store)
	ctx := context.Background()

	_, err := svc.FetchPosts(ctx, FetchPostsRequest{Handle: "alice.test", UseCache: true})
	require.NoError(t, err)

	svc.PreloadNextBatch(ctx, "alice.test")

	cache := NewCache(store, slog.Default())
	require.Eventually(t, func() bool {
		snap := cache.GetPosts(ctx, "alice.test")
		return snap != nil && len(snap.Threads) == 2
	}, 2*time.Second, 10*time.Millisecond, "preload should append the next page")

	snap := cache.GetPosts(ctx, "alice.test")
	assert.Equal(t, []string{"at://a", "at://b"}, rootURIs(t, snap))
}

func TestService_PreloadWithoutCachedCursorIsNoop(t *testing.T) {
	client := newMockClient()
	svc := newTestService(client, newMemStore())

	svc.PreloadNextBatch(context.Background(), "alice.test")

	assert.Never(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return client.feedCalls > 0
	}, 200*time.Millisecond, 20*time.Millisecond, "no cursor means nothing to preload")
}

func TestService_PreloadReentrancyGuard(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	client := newMockClient()
	client.feedPages[""] = feedPage(strPtr("c1"), testEntry("at://a", targetDID, base, ""))
	client.feedPages["c1"] = feedPage(strPtr("c2"), testEntry("at://b", targetDID, base.Add(-time.Minute), ""))

	store := newMemStore()
	svc := newTestService(client, store)
	ctx := context.Background()

	_, err := svc.FetchPosts(ctx, FetchPostsRequest{Handle: "alice.test", UseCache: true})
	require.NoError(t, err)
	callsAfterFetch := client.feedCalls

	// First preload blocks inside the feed call; the second must no-op.
	release := make(chan struct{})
	client.mu.Lock()
	client.feedBlock = release
	client.mu.Unlock()

	svc.PreloadNextBatch(ctx, "alice.test")
	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return client.feedCalls == callsAfterFetch+1
	}, 2*time.Second, 10*time.Millisecond)

	svc.PreloadNextBatch(ctx, "alice.test")
	close(release)

	require.Eventually(t, func() bool {
		snap := NewCache(store, slog.Default()).GetPosts(ctx, "alice.test")
		return snap != nil && len(snap.Threads) == 2
	}, 2*time.Second, 10*time.Millisecond)

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, callsAfterFetch+1, client.feedCalls, "second preload while one is in flight must not fetch")
}
