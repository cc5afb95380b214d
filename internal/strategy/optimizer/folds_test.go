package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardFolds(t *testing.T) {
	blocks := StandardFolds(600, 3)
	require.Len(t, blocks, 3)
	assert.Equal(t, Block{Start: 0, End: 200}, blocks[0])
	assert.Equal(t, Block{Start: 200, End: 400}, blocks[1])
	assert.Equal(t, Block{Start: 400, End: 600}, blocks[2])

	// last block absorbs the remainder
	blocks = StandardFolds(100, 3)
	require.Len(t, blocks, 3)
	assert.Equal(t, 100, blocks[2].End)
	assert.Equal(t, 66, blocks[2].Start)

	assert.Nil(t, StandardFolds(0, 3))
	assert.Nil(t, StandardFolds(100, 0))
}

func TestPurgedSplitDisjointness(t *testing.T) {
	cases := []struct {
		n, folds, purge, embargo int
	}{
		{600, 3, 5, 5},
		{600, 5, 21, 21},
		{500, 4, 0, 0},
		{250, 5, 10, 3},
		{1000, 2, 50, 50},
	}

	for _, tc := range cases {
		blocks := StandardFolds(tc.n, tc.folds)
		for _, block := range blocks {
			train, test, purged := PurgedSplit(tc.n, block.Start, block.End, tc.purge, tc.embargo)

			assert.Equal(t, tc.n, len(train)+len(test)+len(purged))

			inTest := indexSet(test)
			inZone := map[int]bool{}
			for i := block.Start - tc.purge; i < block.End+tc.embargo; i++ {
				inZone[i] = true
			}
			for _, idx := range train {
				assert.False(t, inTest[idx], "train index %d inside test", idx)
				assert.False(t, inZone[idx], "train index %d inside purge zone", idx)
			}
			for _, idx := range purged {
				assert.False(t, inTest[idx], "purged index %d inside test", idx)
			}
		}
	}
}

func TestCombinationsCapAndShape(t *testing.T) {
	for k := 1; k <= 12; k++ {
		combos := Combinations(k)
		assert.LessOrEqual(t, len(combos), MaxCombinations, "k=%d", k)
		for _, combo := range combos {
			assert.GreaterOrEqual(t, len(combo), 1)
			assert.LessOrEqual(t, len(combo), 3)
			for _, b := range combo {
				assert.GreaterOrEqual(t, b, 0)
				assert.Less(t, b, k)
			}
		}
	}

	// sizes come out in order: all singles, then pairs, then triples
	combos := Combinations(3)
	require.Len(t, combos, 7)
	assert.Equal(t, [][]int{{0}, {1}, {2}, {0, 1}, {0, 2}, {1, 2}, {0, 1, 2}}, combos)

	combos = Combinations(5)
	assert.Len(t, combos, 20) // 5 + 10 truncates inside the triples
}

func TestPurgedSplitFromIndices(t *testing.T) {
	n := 100
	train, test, purged := PurgedSplitFromIndices(n, []int{50, 51, 52, 51, 50}, 2, 3)

	assert.Equal(t, []int{50, 51, 52}, test)
	assert.Equal(t, []int{48, 49, 53, 54, 55}, purged)
	assert.Equal(t, n, len(train)+len(test)+len(purged))

	inExcluded := indexSet(append(append([]int{}, test...), purged...))
	for _, idx := range train {
		assert.False(t, inExcluded[idx])
	}
}

func TestPurgedSplitFromIndicesClipsAtBounds(t *testing.T) {
	train, test, purged := PurgedSplitFromIndices(10, []int{0, 9}, 3, 3)
	assert.Equal(t, []int{0, 9}, test)
	assert.Equal(t, []int{1, 2, 3, 6, 7, 8}, purged)
	assert.Equal(t, []int{4, 5}, train)
}

func indexSet(indices []int) map[int]bool {
	set := make(map[int]bool, len(indices))
	for _, idx := range indices {
		set[idx] = true
	}
	return set
}
