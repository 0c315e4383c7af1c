package news

import (
	"sort"

	"tickerdesk/internal/domain"
)

// DefaultLimit caps the ranked feed.
const DefaultLimit = 25

// Rank moves stock items ahead of general ones, keeping relative order inside
// each group, and truncates to limit.
func Rank(items []domain.NewsItem, limit int) []domain.NewsItem {
	if limit <= 0 {
		limit = DefaultLimit
	}
	out := make([]domain.NewsItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Tag == domain.TagStock && out[j].Tag != domain.TagStock
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
