package server

// paginateSlice trims items fetched with limit+1 and returns the page,
// the next cursor if any, and whether more items exist.
func paginateSlice[T any](items []T, limit int, getCursor func(T) string) ([]T, *string, bool) {
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor *string
	if hasMore && len(items) > 0 {
		c := getCursor(items[len(items)-1])
		nextCursor = &c
	}

	return items, nextCursor, hasMore
}
