package optimizer

import "sort"

// Size floors below which a combinatorial fold is discarded: too little data
// to trust the fit or the evaluation.
const (
	MinTrainSize = 50
	MinTestSize  = 20
)

// MaxCombinations caps combinatorial fold enumeration. A compute-budget
// ceiling, not a statistical requirement.
const MaxCombinations = 20

// Fold represents one purged train/test partition, derived deterministically
// from (dataLength, foldCount, purgeGap, embargoGap).
type Fold struct {
	Number        int   `json:"fold_number"`
	Combinatorial bool  `json:"is_combinatorial"`
	TestIndices   []int `json:"test_indices"`
	PurgeGap      int   `json:"purge_gap"`
	EmbargoGap    int   `json:"embargo_gap"`
}

// Block represents one contiguous test block [Start, End)
type Block struct {
	Start int
	End   int
}

// StandardFolds splits [0, n) into k contiguous, approximately equal blocks;
// block i is the test set for fold i. The last block absorbs the remainder.
func StandardFolds(n, k int) []Block {
	if k <= 0 || n <= 0 {
		return nil
	}
	size := n / k
	blocks := make([]Block, k)
	for i := 0; i < k; i++ {
		start := i * size
		end := start + size
		if i == k-1 {
			end = n
		}
		blocks[i] = Block{Start: start, End: end}
	}
	return blocks
}

// PurgedSplit classifies every index of [0, n): test inside
// [testStart, testEnd), purged inside [testStart-purgeGap, testEnd+embargoGap)
// but outside test, train otherwise.
func PurgedSplit(n, testStart, testEnd, purgeGap, embargoGap int) (train, test, purged []int) {
	zoneStart := testStart - purgeGap
	zoneEnd := testEnd + embargoGap

	for i := 0; i < n; i++ {
		switch {
		case i >= testStart && i < testEnd:
			test = append(test, i)
		case i >= zoneStart && i < zoneEnd:
			purged = append(purged, i)
		default:
			train = append(train, i)
		}
	}
	return train, test, purged
}

// Combinations enumerates all subsets of {0..k-1} of size 1, 2 and 3, in that
// order, lexicographic within each size, truncated to MaxCombinations.
func Combinations(k int) [][]int {
	var combos [][]int
	for size := 1; size <= 3; size++ {
		appendCombos(&combos, k, size)
	}
	if len(combos) > MaxCombinations {
		combos = combos[:MaxCombinations]
	}
	return combos
}

func appendCombos(out *[][]int, k, size int) {
	indices := make([]int, size)
	var build func(start, depth int)
	build = func(start, depth int) {
		if depth == size {
			combo := make([]int, size)
			copy(combo, indices)
			*out = append(*out, combo)
			return
		}
		for i := start; i < k; i++ {
			indices[depth] = i
			build(i+1, depth+1)
		}
	}
	if size <= k {
		build(0, 0)
	}
}

// PurgedSplitFromIndices builds the purge zone as the union over every test
// index of [idx-purgeGap, idx+embargoGap], then classifies every remaining
// index as train. Test indices are sorted and deduplicated first.
func PurgedSplitFromIndices(n int, testIndices []int, purgeGap, embargoGap int) (train, test, purged []int) {
	test = normalizeIndices(testIndices, n)

	inTest := make([]bool, n)
	for _, idx := range test {
		inTest[idx] = true
	}

	inZone := make([]bool, n)
	for _, idx := range test {
		lo := idx - purgeGap
		if lo < 0 {
			lo = 0
		}
		hi := idx + embargoGap
		if hi >= n {
			hi = n - 1
		}
		for i := lo; i <= hi; i++ {
			inZone[i] = true
		}
	}

	for i := 0; i < n; i++ {
		switch {
		case inTest[i]:
		case inZone[i]:
			purged = append(purged, i)
		default:
			train = append(train, i)
		}
	}
	return train, test, purged
}

// normalizeIndices sorts ascending, deduplicates and drops out-of-range
// entries.
func normalizeIndices(indices []int, n int) []int {
	out := make([]int, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < n {
			out = append(out, idx)
		}
	}
	sort.Ints(out)
	dedup := out[:0]
	for i, idx := range out {
		if i == 0 || idx != out[i-1] {
			dedup = append(dedup, idx)
		}
	}
	return dedup
}

// blockIndices expands a set of fold blocks into their data indices.
func blockIndices(blocks []Block, combo []int) []int {
	var indices []int
	for _, b := range combo {
		if b < 0 || b >= len(blocks) {
			continue
		}
		for i := blocks[b].Start; i < blocks[b].End; i++ {
			indices = append(indices, i)
		}
	}
	return indices
}
