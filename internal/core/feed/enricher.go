package feed

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentProfileLookups bounds the avatar resolution fan-out.
const maxConcurrentProfileLookups = 8

// profileLookup resolves an author DID to a profile, cache-first.
// Returns nil on any failure; enrichment degrades to "no avatar".
type profileLookup func(ctx context.Context, did string) *Profile

// avatarEnricher attaches up-to-date avatar URLs to every distinct author
// appearing anywhere in a thread forest, including inside quoted records.
// The feed endpoint does not always return fresh avatars inline for quoted
// authors, so each author is re-resolved against the profile cache.
type avatarEnricher struct {
	lookup profileLookup
}

// enrich resolves avatars for the forest and returns a new forest with
// avatar fields filled where known. The input is never mutated, so a post
// reachable from two paths (thread child and quote target) cannot alias.
// Running enrich twice with an unchanged profile cache is idempotent.
func (e *avatarEnricher) enrich(ctx context.Context, threads []*ThreadNode) []*ThreadNode {
	dids := collectAuthorDIDs(threads)
	if len(dids) == 0 {
		return threads
	}

	var mu sync.Mutex
	avatars := make(map[string]string, len(dids))

	// All lookups are independent; one failure must not block the others.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentProfileLookups)
	for _, did := range dids {
		did := did
		g.Go(func() error {
			profile := e.lookup(gctx, did)
			if profile != nil && profile.Avatar != "" {
				mu.Lock()
				avatars[did] = profile.Avatar
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	enriched := make([]*ThreadNode, len(threads))
	for i, node := range threads {
		enriched[i] = cloneNodeWithAvatars(node, avatars)
	}
	return enriched
}

// collectAuthorDIDs gathers the distinct author DIDs reachable from the
// forest, in first-seen order.
func collectAuthorDIDs(threads []*ThreadNode) []string {
	seen := make(map[string]struct{})
	var dids []string

	add := func(author *Author) {
		if author == nil || author.DID == "" {
			return
		}
		if _, ok := seen[author.DID]; ok {
			return
		}
		seen[author.DID] = struct{}{}
		dids = append(dids, author.DID)
	}

	var walk func(node *ThreadNode)
	walk = func(node *ThreadNode) {
		if node == nil || node.Entry == nil {
			return
		}
		if post := node.Entry.Post; post != nil {
			add(post.Author)
			if post.Embed != nil && post.Embed.Quote != nil {
				add(post.Embed.Quote.Author)
			}
		}
		if node.Entry.Repost != nil {
			add(node.Entry.Repost.By)
		}
		for _, child := range node.Children {
			walk(child)
		}
	}
	for _, node := range threads {
		walk(node)
	}
	return dids
}

func cloneNodeWithAvatars(node *ThreadNode, avatars map[string]string) *ThreadNode {
	if node == nil {
		return nil
	}
	out := &ThreadNode{
		Entry:  cloneEntryWithAvatars(node.Entry, avatars),
		IsRoot: node.IsRoot,
	}
	if len(node.Children) > 0 {
		out.Children = make([]*ThreadNode, len(node.Children))
		for i, child := range node.Children {
			out.Children[i] = cloneNodeWithAvatars(child, avatars)
		}
	}
	return out
}

func cloneEntryWithAvatars(entry *FeedEntry, avatars map[string]string) *FeedEntry {
	if entry == nil {
		return nil
	}
	out := &FeedEntry{}
	if entry.Post != nil {
		post := *entry.Post
		post.Author = cloneAuthorWithAvatar(entry.Post.Author, avatars)
		if entry.Post.Embed != nil {
			embed := *entry.Post.Embed
			if entry.Post.Embed.Quote != nil {
				quote := *entry.Post.Embed.Quote
				quote.Author = cloneAuthorWithAvatar(entry.Post.Embed.Quote.Author, avatars)
				embed.Quote = &quote
			}
			post.Embed = &embed
		}
		out.Post = &post
	}
	if entry.Repost != nil {
		repost := *entry.Repost
		repost.By = cloneAuthorWithAvatar(entry.Repost.By, avatars)
		out.Repost = &repost
	}
	return out
}

// cloneAuthorWithAvatar copies an author, overwriting the avatar when a
// resolved profile carried one. A missing profile or missing avatar leaves
// the field as fetched.
func cloneAuthorWithAvatar(author *Author, avatars map[string]string) *Author {
	if author == nil {
		return nil
	}
	out := *author
	if avatar, ok := avatars[author.DID]; ok {
		out.Avatar = avatar
	}
	return &out
}
