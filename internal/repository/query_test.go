package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFilters(t *testing.T) {
	t.Run("Should translate comma-joined values into set membership", func(t *testing.T) {
		filters := BuildFilters(map[string]string{"status": "a,b,c"})

		require.Len(t, filters, 1)
		assert.Equal(t, InFilter, filters[0].Operator)
		assert.Equal(t, []string{"a", "b", "c"}, filters[0].Values)
		assert.Empty(t, filters[0].Value)
	})

	t.Run("Should use equality for scalar values", func(t *testing.T) {
		filters := BuildFilters(map[string]string{"owner_id": "u-1"})

		require.Len(t, filters, 1)
		assert.Equal(t, Filter{Column: "owner_id", Operator: Equals, Value: "u-1"}, filters[0])
	})

	t.Run("Should order by column and skip empty values", func(t *testing.T) {
		filters := BuildFilters(map[string]string{
			"status":   "open",
			"assignee": "",
			"priority": " high , ,low ",
			"blank":    " , ",
		})

		require.Len(t, filters, 2)
		assert.Equal(t, "priority", filters[0].Column)
		assert.Equal(t, []string{"high", "low"}, filters[0].Values)
		assert.Equal(t, "status", filters[1].Column)
	})

	t.Run("Should return nil without filters", func(t *testing.T) {
		assert.Nil(t, BuildFilters(nil))
	})
}

func TestFilter_Matches(t *testing.T) {
	in := Filter{Column: "status", Operator: InFilter, Values: []string{"a", "b", "c"}}
	assert.True(t, in.Matches("b"))
	assert.False(t, in.Matches("a,b,c"))

	eq := Filter{Column: "status", Operator: Equals, Value: "a"}
	assert.True(t, eq.Matches("a"))
	assert.False(t, eq.Matches("b"))
}
