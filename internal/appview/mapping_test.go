package appview

import (
	"encoding/json"
	"testing"

	"skyview/internal/core/feed"
)

func TestMapEmbed_Images(t *testing.T) {
	embed := &apiEmbedView{
		Type: typeEmbedImagesView,
		Images: []apiImage{
			{Thumb: "https://cdn/t1.jpg", Fullsize: "https://cdn/f1.jpg", Alt: "one"},
			{Thumb: "https://cdn/t2.jpg", Fullsize: "https://cdn/f2.jpg"},
		},
	}

	mapped := mapEmbed(embed)

	if mapped.Type != feed.EmbedImages {
		t.Fatalf("expected images embed, got %s", mapped.Type)
	}
	if len(mapped.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(mapped.Images))
	}
	if mapped.Images[0].Alt != "one" {
		t.Errorf("alt text not mapped: %q", mapped.Images[0].Alt)
	}
}

func TestMapEmbed_QuotedRecord(t *testing.T) {
	record := json.RawMessage(`{
		"$type": "app.bsky.embed.record#viewRecord",
		"uri": "at://did:plc:q/app.bsky.feed.post/1",
		"cid": "cidq",
		"author": {"did": "did:plc:q", "handle": "q.test", "avatar": "https://cdn/q.jpg"},
		"value": {"text": "quoted", "createdAt": "2026-01-10T12:00:00Z"}
	}`)

	mapped := mapEmbed(&apiEmbedView{Type: typeEmbedRecordView, Record: record})

	if mapped.Type != feed.EmbedQuote {
		t.Fatalf("expected quote embed, got %s", mapped.Type)
	}
	if mapped.Quote == nil {
		t.Fatal("quote should be mapped")
	}
	if mapped.Quote.Text != "quoted" {
		t.Errorf("quote text not mapped: %q", mapped.Quote.Text)
	}
	if mapped.Quote.Author == nil || mapped.Quote.Author.DID != "did:plc:q" {
		t.Errorf("quote author not mapped: %+v", mapped.Quote.Author)
	}
}

func TestMapEmbed_QuoteWithMedia(t *testing.T) {
	record := json.RawMessage(`{
		"record": {
			"$type": "app.bsky.embed.record#viewRecord",
			"uri": "at://did:plc:q/app.bsky.feed.post/2",
			"cid": "cidq2",
			"author": {"did": "did:plc:q", "handle": "q.test"},
			"value": {"text": "nested quote", "createdAt": "2026-01-10T12:00:00Z"}
		}
	}`)
	embed := &apiEmbedView{
		Type:   typeEmbedRecordMedia,
		Record: record,
		Media: &apiEmbedMedia{
			Type:   typeEmbedImagesView,
			Images: []apiImage{{Thumb: "https://cdn/t.jpg", Fullsize: "https://cdn/f.jpg"}},
		},
	}

	mapped := mapEmbed(embed)

	if mapped.Type != feed.EmbedQuoteWithMedia {
		t.Fatalf("expected quoteWithMedia embed, got %s", mapped.Type)
	}
	if mapped.Quote == nil || mapped.Quote.Text != "nested quote" {
		t.Errorf("nested quote not mapped: %+v", mapped.Quote)
	}
	if len(mapped.Images) != 1 {
		t.Errorf("media images not mapped: %d", len(mapped.Images))
	}
}

func TestMapEmbed_UnavailableQuote(t *testing.T) {
	tests := []struct {
		name string
		tag  string
	}{
		{name: "deleted", tag: typeViewNotFound},
		{name: "blocked", tag: typeViewBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := json.RawMessage(`{"$type": "` + tt.tag + `", "uri": "at://gone"}`)
			mapped := mapEmbed(&apiEmbedView{Type: typeEmbedRecordView, Record: record})

			if mapped.Quote == nil || !mapped.Quote.Unavailable {
				t.Errorf("expected unavailable quote stub, got %+v", mapped.Quote)
			}
		})
	}
}

func TestMapEmbed_UnknownTypeDegrades(t *testing.T) {
	mapped := mapEmbed(&apiEmbedView{Type: "app.bsky.embed.video#view"})

	if mapped.Type != feed.EmbedUnknown {
		t.Errorf("unrecognized embed must degrade to unknown, got %s", mapped.Type)
	}
	if mapped.Quote != nil || len(mapped.Images) != 0 {
		t.Error("unknown embed must carry no payload")
	}
}

func TestMapFeedItem_PlainEntryHasNoRepostMarker(t *testing.T) {
	item := &apiFeedItem{
		Post: apiPost{
			URI:       "at://p",
			Author:    apiAuthor{DID: "did:plc:a", Handle: "a.test"},
			Record:    apiRecord{Type: "app.bsky.feed.post", Text: "hi", CreatedAt: "2026-01-10T12:00:00Z"},
			IndexedAt: "2026-01-10T12:00:01Z",
		},
	}

	entry := mapFeedItem(item)

	if entry.Repost != nil {
		t.Error("entry without reason must not carry a repost marker")
	}
	if entry.Post.Text != "hi" {
		t.Errorf("post not mapped: %+v", entry.Post)
	}
}

func TestMapPost_MalformedTimestampTolerated(t *testing.T) {
	post := &apiPost{
		URI:       "at://p",
		Author:    apiAuthor{DID: "did:plc:a", Handle: "a.test"},
		Record:    apiRecord{Type: "app.bsky.feed.post", Text: "hi", CreatedAt: "not-a-time"},
		IndexedAt: "2026-01-10T12:00:01Z",
	}

	mapped := mapPost(post)

	if !mapped.CreatedAt.IsZero() {
		t.Error("malformed createdAt should map to zero time")
	}
	if mapped.IndexedAt.IsZero() {
		t.Error("valid indexedAt should still parse")
	}
}
