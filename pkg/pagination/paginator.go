package pagination

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Page is one page of a cursor-paginated upstream listing, mirroring the
// upstream wire shape.
type Page[T any] struct {
	Data               []T     `json:"data"`
	NextPageCursor     *string `json:"nextPageCursor"`
	PreviousPageCursor *string `json:"previousPageCursor"`
}

// HasNext reports whether another page follows.
func (p Page[T]) HasNext() bool {
	return p.NextPageCursor != nil && *p.NextPageCursor != ""
}

// PageFunc fetches one page. An empty cursor requests the first page.
type PageFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// CollectAll walks all pages, appending items in upstream page order until
// the next cursor is absent. A fetch error stops the walk early, returning
// what was accumulated so far.
func CollectAll[T any](ctx context.Context, fn PageFunc[T]) []T {
	var all []T
	cursor := ""
	pages := 0

	for {
		page, err := fn(ctx, cursor)
		if err != nil {
			log.Warn().
				Err(err).
				Int("pages", pages).
				Int("accumulated", len(all)).
				Msg("Pagination stopped early - returning partial results")
			return all
		}

		all = append(all, page.Data...)
		pages++

		if !page.HasNext() {
			break
		}
		cursor = *page.NextPageCursor
	}

	log.Debug().
		Int("pages", pages).
		Int("accumulated", len(all)).
		Msg("Pagination complete")

	return all
}
