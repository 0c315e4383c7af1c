package news

import (
	"context"

	"tickerdesk/internal/domain"
)

// Source is one upstream news feed. Fetch either returns the feed's items in
// its own order or fails; a failing source never affects the others.
type Source interface {
	Name() string
	Lang() domain.Lang
	Fetch(ctx context.Context) ([]domain.RawItem, error)
}
