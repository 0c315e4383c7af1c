package news

import (
	"strings"

	"tickerdesk/internal/domain"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

var folder = cases.Fold()

// Normalize folds case and full-width forms and collapses whitespace.
func Normalize(s string) string {
	s = width.Fold.String(s)
	s = folder.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// TitleKey is the duplicate key of a headline. Empty means unusable.
func TitleKey(title string) string {
	return Normalize(title)
}

// Dedup keeps the first item for every title key, in input order. Items with
// an empty key are dropped.
func Dedup(items []domain.RawItem) []domain.RawItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.RawItem, 0, len(items))
	for _, it := range items {
		key := TitleKey(it.Title)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}
