package domain

import (
	"encoding/json"
	"fmt"
)

// engagementEnvelope is the storage form of the Engagement union. The
// source_type field selects the variant; unused counter fields stay at
// zero for the other variants.
type engagementEnvelope struct {
	SourceType   SourceType     `json:"source_type"`
	ViewCount    int64          `json:"view_count,omitempty"`
	LikeCount    int64          `json:"like_count,omitempty"`
	Score        int64          `json:"score,omitempty"`
	CommentCount int64          `json:"comment_count,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// MarshalEngagement serialises an engagement variant to JSON for
// storage. Nil serialises to JSON null.
func MarshalEngagement(e Engagement) ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}

	env := engagementEnvelope{SourceType: e.SourceType()}
	switch v := e.(type) {
	case VideoEngagement:
		env.ViewCount = v.ViewCount
		env.LikeCount = v.LikeCount
		env.Extra = v.Extra
	case PostEngagement:
		env.Score = v.Score
		env.CommentCount = v.CommentCount
		env.Extra = v.Extra
	case ArticleEngagement:
		env.Extra = v.Extra
	default:
		return nil, fmt.Errorf("%w: unknown engagement variant %T", ErrInvalidInput, e)
	}
	return json.Marshal(env)
}

// UnmarshalEngagement deserialises a stored engagement value. JSON
// null and empty input both yield nil.
func UnmarshalEngagement(data []byte) (Engagement, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var env engagementEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal engagement: %w", err)
	}

	switch env.SourceType {
	case SourceTypeVideo:
		return VideoEngagement{ViewCount: env.ViewCount, LikeCount: env.LikeCount, Extra: env.Extra}, nil
	case SourceTypePost:
		return PostEngagement{Score: env.Score, CommentCount: env.CommentCount, Extra: env.Extra}, nil
	case SourceTypeArticle:
		return ArticleEngagement{Extra: env.Extra}, nil
	default:
		return nil, fmt.Errorf("%w: unknown engagement source type %q", ErrInvalidInput, env.SourceType)
	}
}
