package appview

import (
	"encoding/json"
	"log"
	"time"

	"skyview/internal/core/feed"
)

// mapFeedItem converts one getAuthorFeed slice into a domain feed entry.
func mapFeedItem(item *apiFeedItem) *feed.FeedEntry {
	entry := &feed.FeedEntry{Post: mapPost(&item.Post)}
	if item.Reason != nil && item.Reason.Type == typeReasonRepost {
		entry.Repost = &feed.RepostMarker{
			By:        mapAuthor(item.Reason.By),
			IndexedAt: parseTime(item.Reason.IndexedAt, item.Post.URI),
		}
	}
	return entry
}

// mapPost converts an AppView post view into the domain post.
func mapPost(post *apiPost) *feed.Post {
	out := &feed.Post{
		URI:         post.URI,
		CID:         post.CID,
		RecordType:  post.Record.Type,
		Author:      mapAuthor(&post.Author),
		Text:        post.Record.Text,
		Facets:      post.Record.Facets,
		CreatedAt:   parseTime(post.Record.CreatedAt, post.URI),
		IndexedAt:   parseTime(post.IndexedAt, post.URI),
		LikeCount:   post.LikeCount,
		RepostCount: post.RepostCount,
		ReplyCount:  post.ReplyCount,
	}
	if post.Record.Reply != nil {
		out.Reply = &feed.ReplyRef{
			ParentURI: post.Record.Reply.Parent.URI,
			RootURI:   post.Record.Reply.Root.URI,
		}
	}
	if post.Embed != nil {
		out.Embed = mapEmbed(post.Embed)
	}
	return out
}

// mapEmbed converts a $type-discriminated embed view into the closed
// domain variant. Unrecognized shapes degrade to EmbedUnknown rather than
// being dropped, so the UI can still show a placeholder.
func mapEmbed(embed *apiEmbedView) *feed.Embed {
	switch embed.Type {
	case typeEmbedImagesView:
		return &feed.Embed{Type: feed.EmbedImages, Images: mapImages(embed.Images)}

	case typeEmbedRecordView:
		return &feed.Embed{Type: feed.EmbedQuote, Quote: mapQuotedRecord(embed.Record)}

	case typeEmbedRecordMedia:
		out := &feed.Embed{Type: feed.EmbedQuoteWithMedia}
		// For recordWithMedia#view the quoted record sits one level deeper.
		var wrapper apiViewRecord
		if err := json.Unmarshal(embed.Record, &wrapper); err == nil && wrapper.Record != nil {
			out.Quote = mapQuotedRecord(wrapper.Record)
		}
		if embed.Media != nil && embed.Media.Type == typeEmbedImagesView {
			out.Images = mapImages(embed.Media.Images)
		}
		return out

	default:
		return &feed.Embed{Type: feed.EmbedUnknown}
	}
}

// mapQuotedRecord converts the quoted record of a record embed. Deleted and
// blocked quotes map to an unavailable stub; quotes are resolved one level
// deep only.
func mapQuotedRecord(raw json.RawMessage) *feed.QuotedPost {
	if len(raw) == 0 {
		return nil
	}
	var record apiViewRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		log.Printf("[APPVIEW] Warning: failed to parse quoted record: %v", err)
		return nil
	}

	switch record.Type {
	case typeViewNotFound, typeViewBlocked:
		return &feed.QuotedPost{URI: record.URI, Unavailable: true}
	}

	quote := &feed.QuotedPost{
		URI:    record.URI,
		CID:    record.CID,
		Author: mapAuthor(record.Author),
	}
	if record.Value != nil {
		quote.Text = record.Value.Text
		quote.CreatedAt = parseTime(record.Value.CreatedAt, record.URI)
	}
	return quote
}

func mapImages(images []apiImage) []feed.Image {
	if len(images) == 0 {
		return nil
	}
	out := make([]feed.Image, len(images))
	for i, img := range images {
		out[i] = feed.Image{Thumb: img.Thumb, Fullsize: img.Fullsize, Alt: img.Alt}
	}
	return out
}

func mapAuthor(author *apiAuthor) *feed.Author {
	if author == nil {
		return nil
	}
	return &feed.Author{
		DID:         author.DID,
		Handle:      author.Handle,
		DisplayName: author.DisplayName,
		Avatar:      author.Avatar,
	}
}

// parseTime parses an RFC3339 timestamp, tolerating the empty string. A
// malformed timestamp is logged and zeroed rather than failing the fetch.
func parseTime(value, uri string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		log.Printf("[APPVIEW] Warning: failed to parse timestamp %q for %s: %v", value, uri, err)
		return time.Time{}
	}
	return t
}
