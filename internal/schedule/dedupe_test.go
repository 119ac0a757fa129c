package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeByID_KeepsFirstOccurrence(t *testing.T) {
	items := []labeled{
		{ID: "a", Date: "2025-03-12"},
		{ID: "b", Date: "2025-03-11"},
		{ID: "a", Date: "2025-03-05"},
		{ID: "c", Date: "2025-03-01"},
	}

	out := DedupeByID(items, func(l labeled) string { return l.ID })

	assert.Len(t, out, 3)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
	assert.Equal(t, "c", out[2].ID)

	// With newest-first input, the survivor for "a" is its latest date.
	assert.Equal(t, "2025-03-12", out[0].Date)
}

func TestDedupeByID_NoDuplicates(t *testing.T) {
	items := []labeled{{ID: "a"}, {ID: "b"}}

	out := DedupeByID(items, func(l labeled) string { return l.ID })
	assert.Equal(t, items, out)
}

func TestDedupeByID_Empty(t *testing.T) {
	out := DedupeByID(nil, func(l labeled) string { return l.ID })
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
