package feed

import (
	"encoding/json"
	"time"
)

// EmbedType discriminates the closed set of embed shapes we understand.
// Server payloads with any other $type map to EmbedUnknown and render as
// plain text on the UI side.
type EmbedType string

const (
	EmbedImages         EmbedType = "images"
	EmbedQuote          EmbedType = "quote"
	EmbedQuoteWithMedia EmbedType = "quoteWithMedia"
	EmbedUnknown        EmbedType = "unknown"
)

// Author identifies a post author. Avatar is the only field mutated after
// construction; the enricher fills it from the profile cache.
type Author struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// ReplyRef points at the immediate parent and the thread root of a reply.
type ReplyRef struct {
	ParentURI string `json:"parentUri"`
	RootURI   string `json:"rootUri"`
}

// Image is a single image attachment.
type Image struct {
	Thumb    string `json:"thumb"`
	Fullsize string `json:"fullsize"`
	Alt      string `json:"alt,omitempty"`
}

// QuotedPost is an embedded (quoted) record. Quotes are resolved one level
// deep; a quote inside a quote is dropped.
type QuotedPost struct {
	URI         string    `json:"uri"`
	CID         string    `json:"cid"`
	Author      *Author   `json:"author,omitempty"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"createdAt"`
	Unavailable bool      `json:"unavailable,omitempty"`
}

// Embed is the resolved embed attached to a post. Exactly the fields
// implied by Type are populated.
type Embed struct {
	Type   EmbedType   `json:"type"`
	Images []Image     `json:"images,omitempty"`
	Quote  *QuotedPost `json:"quote,omitempty"`
}

// Post is one post as returned by the AppView, keyed by its AT-URI.
type Post struct {
	URI         string          `json:"uri"`
	CID         string          `json:"cid"`
	RecordType  string          `json:"recordType"`
	Author      *Author         `json:"author"`
	Text        string          `json:"text"`
	Facets      json.RawMessage `json:"facets,omitempty"`
	Reply       *ReplyRef       `json:"reply,omitempty"`
	Embed       *Embed          `json:"embed,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	IndexedAt   time.Time       `json:"indexedAt"`
	LikeCount   int             `json:"likeCount"`
	RepostCount int             `json:"repostCount"`
	ReplyCount  int             `json:"replyCount"`
}

// RepostMarker flags a feed entry as a reshare rather than original content.
type RepostMarker struct {
	By        *Author   `json:"by,omitempty"`
	IndexedAt time.Time `json:"indexedAt"`
}

// FeedEntry is one unit of the raw paginated author feed.
type FeedEntry struct {
	Post   *Post         `json:"post"`
	Repost *RepostMarker `json:"repost,omitempty"`
}

// FeedPage is one page of the raw author feed plus the server cursor for
// the next page.
type FeedPage struct {
	Entries []*FeedEntry `json:"entries"`
	Cursor  *string      `json:"cursor,omitempty"`
}

// ThreadNode wraps a feed entry with its replies. Children are only ever
// entries from the same fetched page; a reply whose parent fell outside the
// page is promoted to a root in its own batch.
type ThreadNode struct {
	Entry    *FeedEntry    `json:"entry"`
	Children []*ThreadNode `json:"children,omitempty"`
	IsRoot   bool          `json:"isRoot"`
}

// Profile is an account profile snapshot from the AppView.
type Profile struct {
	DID            string `json:"did"`
	Handle         string `json:"handle"`
	DisplayName    string `json:"displayName,omitempty"`
	Description    string `json:"description,omitempty"`
	Avatar         string `json:"avatar,omitempty"`
	FollowersCount int    `json:"followersCount"`
	FollowsCount   int    `json:"followsCount"`
	PostsCount     int    `json:"postsCount"`
}

// CacheFreshness reports how old a cached feed snapshot is.
type CacheFreshness struct {
	IsFresh bool          `json:"isFresh"`
	Age     time.Duration `json:"age"`
}

// FetchPostsRequest defines the parameters for a feed fetch.
type FetchPostsRequest struct {
	Handle   string
	Cursor   string
	Limit    int
	UseCache bool
}

// FetchPostsResponse is the assembled result of a feed fetch: the ordered
// thread forest for this page plus the cursor for the next one.
type FetchPostsResponse struct {
	Threads []*ThreadNode `json:"threads"`
	Cursor  *string       `json:"cursor,omitempty"`
}
