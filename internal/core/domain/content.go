package domain

import (
	"math"
	"time"
)

// SourceType identifies where a content item was ingested from.
type SourceType string

// Supported source types.
const (
	// SourceTypeVideo is a YouTube video (transcript chunks).
	SourceTypeVideo SourceType = "video"

	// SourceTypePost is a Reddit post or comment thread.
	SourceTypePost SourceType = "post"

	// SourceTypeArticle is a blog article fetched via RSS.
	SourceTypeArticle SourceType = "article"
)

// IsValid returns true if the source type is recognised.
func (t SourceType) IsValid() bool {
	switch t {
	case SourceTypeVideo, SourceTypePost, SourceTypeArticle:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t SourceType) String() string {
	return string(t)
}

// ContentItem is an ingested video, post, or article. Retrieval reads
// its display fields and engagement metadata; it never writes them.
type ContentItem struct {
	// ID is the unique identifier for the item.
	ID string

	// Title is the human-readable title.
	Title string

	// Author is the uploader, poster, or writer.
	Author string

	// SourceType identifies the originating platform.
	SourceType SourceType

	// PublishedAt is when the item was published upstream.
	// Nil when the source did not report a date.
	PublishedAt *time.Time

	// ChannelID identifies the owning channel, subreddit, or feed.
	ChannelID string

	// ChannelName is the display name of the owning channel.
	ChannelName string

	// Engagement holds source-specific popularity metrics.
	Engagement Engagement
}

// Engagement holds source-specific popularity metrics as a tagged union.
// Exactly one variant applies per source type; unrecognised upstream
// fields land in the Extra bag.
type Engagement interface {
	// SourceType returns the variant's source type tag.
	SourceType() SourceType

	// EngagementScore normalises raw popularity metrics onto [0, 1].
	EngagementScore() float64
}

// VideoEngagement carries YouTube view and like counts.
type VideoEngagement struct {
	ViewCount int64
	LikeCount int64
	Extra     map[string]any
}

// SourceType returns the video tag.
func (VideoEngagement) SourceType() SourceType { return SourceTypeVideo }

// EngagementScore maps views and likes onto [0, 1]. Views saturate at
// 10^7 (log scale), likes at 10,000 (linear).
func (e VideoEngagement) EngagementScore() float64 {
	views := clamp01(math.Log10(float64(e.ViewCount)+1) / 7)
	likes := clamp01(float64(e.LikeCount) / 10000)
	return (views + likes) / 2
}

// PostEngagement carries Reddit score and comment counts.
type PostEngagement struct {
	Score        int64
	CommentCount int64
	Extra        map[string]any
}

// SourceType returns the post tag.
func (PostEngagement) SourceType() SourceType { return SourceTypePost }

// EngagementScore maps post score and comment count onto [0, 1].
// Score saturates at 1,000 upvotes, comments at 100.
func (e PostEngagement) EngagementScore() float64 {
	score := clamp01(float64(e.Score) / 1000)
	comments := clamp01(float64(e.CommentCount) / 100)
	return (score + comments) / 2
}

// ArticleEngagement is the variant for blog articles, which carry no
// popularity metrics. Articles are scored on recency alone.
type ArticleEngagement struct {
	Extra map[string]any
}

// SourceType returns the article tag.
func (ArticleEngagement) SourceType() SourceType { return SourceTypeArticle }

// EngagementScore always returns 0: articles contribute no engagement
// signal.
func (ArticleEngagement) EngagementScore() float64 { return 0 }

// clamp01 clamps v to the [0, 1] interval.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
