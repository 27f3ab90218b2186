package feed

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

const (
	// postRecordType is the only record $type eligible for display.
	postRecordType = "app.bsky.feed.post"

	// maxAncestorDepth bounds the reply chain walk against pathological or
	// cyclic data. Exceeding it rejects the reply (fail closed).
	maxAncestorDepth = 50

	// maxConcurrentWalks bounds how many reply chains are verified at once.
	maxConcurrentWalks = 8
)

// threadFilter decides which feed entries are eligible for display: the
// account's own posts and quote posts, plus reply chains involving only
// that account. Reshares and conversations with other accounts are dropped
// so the feed reads like a personal stream.
type threadFilter struct {
	client    Client
	targetDID string
	logger    *slog.Logger
}

func newThreadFilter(client Client, targetDID string, logger *slog.Logger) *threadFilter {
	return &threadFilter{
		client:    client,
		targetDID: targetDID,
		logger:    logger,
	}
}

// filter prunes ineligible entries, preserving feed order. Reply chain
// walks for different entries run concurrently; each walk is sequential
// because every step depends on the previous ancestor lookup.
func (f *threadFilter) filter(ctx context.Context, entries []*FeedEntry) []*FeedEntry {
	keep := make([]bool, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentWalks)

	for i, entry := range entries {
		if entry == nil || entry.Post == nil {
			continue
		}

		// Reshares carry no original content.
		if entry.Repost != nil {
			continue
		}

		// Only post records belong in the feed.
		if entry.Post.RecordType != "" && entry.Post.RecordType != postRecordType {
			continue
		}

		// Original posts and quote posts are kept unconditionally.
		if entry.Post.Reply == nil {
			keep[i] = true
			continue
		}

		i, post := i, entry.Post
		g.Go(func() error {
			keep[i] = f.isSelfThread(gctx, post)
			return nil
		})
	}

	// Walks never return errors; rejection is encoded in keep.
	_ = g.Wait()

	kept := make([]*FeedEntry, 0, len(entries))
	for i, entry := range entries {
		if keep[i] {
			kept = append(kept, entry)
		}
	}
	return kept
}

// isSelfThread walks the ancestor chain from a reply toward its root and
// reports whether every author along the way is the target account. Any
// unreachable ancestor disqualifies the reply: ambiguity resolves to
// exclusion, never inclusion.
func (f *threadFilter) isSelfThread(ctx context.Context, post *Post) bool {
	visited := make(map[string]struct{})
	current := post

	for depth := 0; depth < maxAncestorDepth; depth++ {
		if current.Author == nil {
			return false
		}
		visited[current.Author.DID] = struct{}{}
		if current.Author.DID != f.targetDID {
			return false
		}

		if current.Reply == nil {
			// Reached the root: accept only a pure self-thread.
			if len(visited) != 1 {
				return false
			}
			_, ok := visited[f.targetDID]
			return ok
		}

		parent, err := f.client.GetPost(ctx, current.Reply.ParentURI)
		if err != nil || parent == nil {
			f.logger.Debug("ancestor unreachable, excluding reply",
				"post", post.URI, "parent", current.Reply.ParentURI, "error", err)
			return false
		}
		current = parent
	}

	f.logger.Warn("ancestor walk exceeded depth bound, excluding reply",
		"post", post.URI, "maxDepth", maxAncestorDepth)
	return false
}
