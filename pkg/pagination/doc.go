// Package pagination accumulates cursor-paginated upstream listings.
//
// The Roblox platform paginates listing endpoints with opaque cursors: each
// page carries a nextPageCursor, and its absence signals completion. The
// collector follows cursors sequentially (pages cannot be fetched out of
// order), appends items in arrival order, and performs no deduplication.
//
// A page fetch that reports unavailability stops the walk early and returns
// whatever was accumulated, never an error: partial listings degrade to
// shorter results rather than failing the caller.
//
// Example usage:
//
//	universes := pagination.CollectAll(ctx, func(ctx context.Context, cursor string) (pagination.Page[Universe], error) {
//	    return client.UniversesByCreator(ctx, userID, cursor)
//	})
package pagination
