package random

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffle_KeepsElements(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, Shuffle(in))
	sorted := append([]int(nil), in...)
	sort.Ints(sorted)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, sorted)
}

func TestSample(t *testing.T) {
	items := []int{10, 20, 30, 40, 50}

	t.Run("subset is distinct", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			got, err := Sample(items, 3)
			require.NoError(t, err)
			require.Len(t, got, 3)
			seen := map[int]bool{}
			for _, v := range got {
				assert.Contains(t, items, v)
				assert.False(t, seen[v], "duplicate %d", v)
				seen[v] = true
			}
		}
	})

	t.Run("k at least len returns all", func(t *testing.T) {
		got, err := Sample(items, 10)
		require.NoError(t, err)
		assert.ElementsMatch(t, items, got)
	})

	t.Run("zero", func(t *testing.T) {
		got, err := Sample(items, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("input untouched", func(t *testing.T) {
		_, err := Sample(items, 2)
		require.NoError(t, err)
		assert.Equal(t, []int{10, 20, 30, 40, 50}, items)
	})
}

func TestToken(t *testing.T) {
	a, err := Token(16)
	require.NoError(t, err)
	b, err := Token(16)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
