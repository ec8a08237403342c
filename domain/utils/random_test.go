package utils

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffle_IsPermutation(t *testing.T) {
	t.Parallel()

	ids := []int64{1, 2, 3, 4, 5, 6, 7, 8}
	shuffled := slices.Clone(ids)

	require.NoError(t, ShuffleIDs(shuffled))

	sorted := slices.Clone(shuffled)
	slices.Sort(sorted)
	assert.Equal(t, ids, sorted)
}

func TestShuffle_Uniformity(t *testing.T) {
	t.Parallel()

	const rounds = 6000
	counts := map[int64]int{}
	for i := 0; i < rounds; i++ {
		ids := []int64{1, 2, 3}
		require.NoError(t, ShuffleIDs(ids))
		counts[ids[0]]++
	}

	// Each id should lead roughly a third of the time
	for _, id := range []int64{1, 2, 3} {
		assert.InDelta(t, rounds/3, counts[id], rounds/10, "id %d", id)
	}
}

func TestShuffle_EmptyAndSingle(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Shuffle([]string{}))
	one := []string{"a"}
	assert.NoError(t, Shuffle(one))
	assert.Equal(t, []string{"a"}, one)
}
