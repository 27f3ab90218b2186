// Package appview is a read-only client for the public Bluesky AppView
// (public.api.bsky.app). It speaks three XRPC endpoints (getAuthorFeed,
// getPosts and getProfile) and maps their loosely-typed JSON envelopes
// into the closed domain types of internal/core/feed.
package appview

import (
	"encoding/json"
	"errors"
)

// Sentinel errors for typed error checking
var (
	// ErrNotFound indicates a post or profile does not exist or is not visible
	ErrNotFound = errors.New("not found")

	// ErrCircuitOpen indicates the breaker is open for an endpoint
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// Known $type tags in AppView responses.
const (
	typeReasonRepost    = "app.bsky.feed.defs#reasonRepost"
	typeEmbedImagesView = "app.bsky.embed.images#view"
	typeEmbedRecordView = "app.bsky.embed.record#view"
	typeEmbedRecordMedia = "app.bsky.embed.recordWithMedia#view"
	typeViewRecord       = "app.bsky.embed.record#viewRecord"
	typeViewNotFound     = "app.bsky.embed.record#viewNotFound"
	typeViewBlocked      = "app.bsky.embed.record#viewBlocked"
)

// apiFeedResponse is the envelope of app.bsky.feed.getAuthorFeed.
type apiFeedResponse struct {
	Feed   []apiFeedItem `json:"feed"`
	Cursor *string       `json:"cursor,omitempty"`
}

// apiFeedItem is one feed slice: a post plus an optional repost reason.
type apiFeedItem struct {
	Post   apiPost    `json:"post"`
	Reason *apiReason `json:"reason,omitempty"`
}

// apiReason marks a feed item as a reshare.
type apiReason struct {
	Type      string     `json:"$type"`
	By        *apiAuthor `json:"by,omitempty"`
	IndexedAt string     `json:"indexedAt,omitempty"`
}

// apiPostsResponse is the envelope of app.bsky.feed.getPosts.
type apiPostsResponse struct {
	Posts []apiPost `json:"posts"`
}

// apiPost is a hydrated post view.
type apiPost struct {
	URI         string        `json:"uri"`
	CID         string        `json:"cid"`
	Author      apiAuthor     `json:"author"`
	Record      apiRecord     `json:"record"`
	Embed       *apiEmbedView `json:"embed,omitempty"`
	IndexedAt   string        `json:"indexedAt"`
	ReplyCount  int           `json:"replyCount"`
	RepostCount int           `json:"repostCount"`
	LikeCount   int           `json:"likeCount"`
}

// apiAuthor is an author reference in a post view.
type apiAuthor struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// apiRecord is the post record inside a view.
type apiRecord struct {
	Type      string          `json:"$type"`
	Text      string          `json:"text"`
	CreatedAt string          `json:"createdAt"`
	Reply     *apiReplyRef    `json:"reply,omitempty"`
	Facets    json.RawMessage `json:"facets,omitempty"`
}

// apiReplyRef carries the parent and root references of a reply record.
type apiReplyRef struct {
	Parent apiStrongRef `json:"parent"`
	Root   apiStrongRef `json:"root"`
}

type apiStrongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// apiEmbedView is the resolved embed on a post view, discriminated by $type.
type apiEmbedView struct {
	Type   string          `json:"$type"`
	Images []apiImage      `json:"images,omitempty"`
	Record json.RawMessage `json:"record,omitempty"`
	Media  *apiEmbedMedia  `json:"media,omitempty"`
}

// apiEmbedMedia is the media half of a recordWithMedia embed.
type apiEmbedMedia struct {
	Type   string     `json:"$type"`
	Images []apiImage `json:"images,omitempty"`
}

// apiImage is one resolved image attachment.
type apiImage struct {
	Thumb    string `json:"thumb"`
	Fullsize string `json:"fullsize"`
	Alt      string `json:"alt,omitempty"`
}

// apiViewRecord is the quoted record inside a record embed. For
// recordWithMedia#view the same shape appears one level deeper under
// "record".
type apiViewRecord struct {
	Type      string          `json:"$type"`
	URI       string          `json:"uri"`
	CID       string          `json:"cid"`
	Author    *apiAuthor      `json:"author,omitempty"`
	Value     *apiRecordValue `json:"value,omitempty"`
	IndexedAt string          `json:"indexedAt,omitempty"`
	Record    json.RawMessage `json:"record,omitempty"`
}

// apiRecordValue is the post content of a quoted record.
type apiRecordValue struct {
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

// apiProfile is the envelope of app.bsky.actor.getProfile.
type apiProfile struct {
	DID            string `json:"did"`
	Handle         string `json:"handle"`
	DisplayName    string `json:"displayName,omitempty"`
	Description    string `json:"description,omitempty"`
	Avatar         string `json:"avatar,omitempty"`
	FollowersCount int    `json:"followersCount"`
	FollowsCount   int    `json:"followsCount"`
	PostsCount     int    `json:"postsCount"`
}
