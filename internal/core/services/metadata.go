package services

import (
	"math"
	"time"

	"github.com/siftlabs/sift/internal/core/domain"
)

// recencyWindowDays is the span over which the recency signal decays
// linearly from 1 to 0.
const recencyWindowDays = 365

// metadataScore combines recency decay and engagement normalisation
// into one [0, 1] signal. Each half is capped independently before the
// halves are summed at equal weight.
func metadataScore(item domain.ContentItem, now time.Time) float64 {
	recency := recencyScore(item.PublishedAt, now)

	engagement := 0.0
	if item.Engagement != nil {
		engagement = clampUnit(item.Engagement.EngagementScore())
	}

	return clampUnit(0.5*recency + 0.5*engagement)
}

// recencyScore decays linearly with content age: 1.0 today, 0.0 at a
// year and beyond. Items without a publish date contribute nothing.
func recencyScore(publishedAt *time.Time, now time.Time) float64 {
	if publishedAt == nil {
		return 0
	}
	days := now.Sub(*publishedAt).Hours() / 24
	return clampUnit(math.Max(0, 1-days/recencyWindowDays))
}

// clampUnit clamps v to [0, 1].
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
