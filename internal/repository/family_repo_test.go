package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projecttracker/internal/model"
)

func TestSingleFamily(t *testing.T) {
	t.Run("no links means no family", func(t *testing.T) {
		id, err := singleFamily(1, nil)
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("one link resolves to its family", func(t *testing.T) {
		id, err := singleFamily(1, []int{7})
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, 7, *id)
	})

	t.Run("multiple links are a consistency violation", func(t *testing.T) {
		id, err := singleFamily(1, []int{7, 9})
		require.Error(t, err)
		assert.Nil(t, id)

		var consistency *model.ConsistencyError
		require.ErrorAs(t, err, &consistency)
		assert.Contains(t, consistency.Detail, "2 families")
	})
}
