package schedule

import (
	"encoding/json"
	"sort"
)

// Group is an ordered collection of items sharing a derived key — a category
// label or a date string.
//
// FLATTENED WIRE SHAPE:
// The frontend iterates each group positionally as ["key", item, item, ...],
// so MarshalJSON emits that flat heterogeneous array. Internally we keep the
// key and items separate; the flattening happens only at the serialization
// boundary.
type Group[T any] struct {
	Key   string
	Items []T
}

// MarshalJSON renders the group as ["key", item1, item2, ...].
func (g Group[T]) MarshalJSON() ([]byte, error) {
	flat := make([]any, 0, len(g.Items)+1)
	flat = append(flat, g.Key)
	for _, item := range g.Items {
		flat = append(flat, item)
	}
	return json.Marshal(flat)
}

// GroupBy partitions items into groups keyed by key(item), preserving
// first-seen key order: the order of distinct keys is the order in which
// they are first encountered while scanning items front to back.
//
// Input order within a group is preserved too, so callers control both
// orderings by sorting items before grouping.
func GroupBy[T any](items []T, key func(T) string) []Group[T] {
	index := make(map[string]int, len(items))
	groups := make([]Group[T], 0)

	for _, item := range items {
		k := key(item)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[T]{Key: k})
		}
		groups[i].Items = append(groups[i].Items, item)
	}

	return groups
}

// SortByDate sorts items ascending by their YYYY-MM-DD date string, in place.
// ISO dates compare correctly as plain strings, so no parsing is needed here.
// The sort is stable: same-day items keep their relative order.
//
// This runs before EITHER grouping (category or date) — category groups don't
// strictly need it, but a consistent pre-sort means group contents always
// read oldest-first.
func SortByDate[T any](items []T, date func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return date(items[i]) < date(items[j])
	})
}
