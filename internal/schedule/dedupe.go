package schedule

// DedupeByID collapses rows sharing an identifier down to one representative
// each, keeping the first occurrence encountered. With items sorted newest
// first, "first encountered" means "most recent" — which is how the flat task
// view shows a recurring task once, on its latest date, instead of once per
// materialized occurrence.
//
// The grouped views deliberately do NOT dedupe: there, each occurrence sits
// under its own date group and every row is a distinct entry.
func DedupeByID[T any](items []T, id func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))

	for _, item := range items {
		k := id(item)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}

	return out
}
