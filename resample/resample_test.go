package resample

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EmmanuelUgo/ML-models/dataset"
)

// classTable builds n rows with a binary class split 70/30.
func classTable(t *testing.T, n int) *dataset.Table {
	t.Helper()
	records := [][]string{{"class", "x"}}
	for i := 0; i < n; i++ {
		class := "a"
		if i%10 >= 7 {
			class = "b"
		}
		records = append(records, []string{class, strconv.Itoa(i)})
	}
	tbl, err := dataset.FromRecords(records)
	require.NoError(t, err)
	return tbl
}

func classCounts(t *testing.T, tbl *dataset.Table, rows []int) map[string]int {
	t.Helper()
	recs, err := tbl.Strings("class")
	require.NoError(t, err)
	counts := make(map[string]int)
	for _, i := range rows {
		counts[recs[i]]++
	}
	return counts
}

func TestInitialSplit(t *testing.T) {
	tbl := classTable(t, 100)

	split, err := InitialSplit(tbl, WithProp(0.75), WithSeed(1))
	require.NoError(t, err)
	assert.Len(t, split.Train, 75)
	assert.Len(t, split.Test, 25)

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, split.Train...), split.Test...) {
		assert.False(t, seen[i], "row %d assigned twice", i)
		seen[i] = true
	}
	assert.Len(t, seen, 100)
}

func TestInitialSplitStratified(t *testing.T) {
	tbl := classTable(t, 100)

	split, err := InitialSplit(tbl, WithProp(0.75), WithStrata("class"), WithSeed(1))
	require.NoError(t, err)

	train := classCounts(t, tbl, split.Train)
	// 70 "a" rows at prop 0.75 rounds to 52 or 53; 30 "b" rows to 22 or 23.
	assert.InDelta(t, 52.5, float64(train["a"]), 1.0)
	assert.InDelta(t, 22.5, float64(train["b"]), 1.0)
}

func TestInitialSplitDeterministic(t *testing.T) {
	tbl := classTable(t, 50)

	s1, err := InitialSplit(tbl, WithSeed(9))
	require.NoError(t, err)
	s2, err := InitialSplit(tbl, WithSeed(9))
	require.NoError(t, err)
	assert.Equal(t, s1.Train, s2.Train)

	s3, err := InitialSplit(tbl, WithSeed(10))
	require.NoError(t, err)
	assert.NotEqual(t, s1.Train, s3.Train)
}

func TestInitialSplitValidation(t *testing.T) {
	tbl := classTable(t, 10)
	_, err := InitialSplit(tbl, WithProp(1.5))
	assert.Error(t, err)
	_, err = InitialSplit(tbl, WithStrata("missing"))
	assert.Error(t, err)
}

func TestVFold(t *testing.T) {
	tbl := classTable(t, 100)

	folds, err := VFold(tbl, WithV(5), WithSeed(2))
	require.NoError(t, err)
	require.Len(t, folds, 5)

	covered := make(map[int]int)
	for _, f := range folds {
		assert.Len(t, f.Test, 20)
		assert.Len(t, f.Train, 80)
		for _, i := range f.Test {
			covered[i]++
		}
	}
	// Every row is assessed exactly once across folds.
	assert.Len(t, covered, 100)
	for i, n := range covered {
		assert.Equal(t, 1, n, "row %d assessed %d times", i, n)
	}
}

func TestVFoldStratified(t *testing.T) {
	tbl := classTable(t, 100)

	folds, err := VFold(tbl, WithV(5), WithStrata("class"), WithSeed(2))
	require.NoError(t, err)

	for _, f := range folds {
		counts := classCounts(t, tbl, f.Test)
		assert.InDelta(t, 14, float64(counts["a"]), 1.0)
		assert.InDelta(t, 6, float64(counts["b"]), 1.0)
	}
}

func TestVFoldRepeats(t *testing.T) {
	tbl := classTable(t, 40)

	folds, err := VFold(tbl, WithV(4), WithRepeats(2), WithSeed(3))
	require.NoError(t, err)
	assert.Len(t, folds, 8)
	assert.Equal(t, "Repeat1.Fold01", folds[0].ID)
	assert.Equal(t, "Repeat2.Fold04", folds[7].ID)
}

func TestVFoldValidation(t *testing.T) {
	tbl := classTable(t, 10)
	_, err := VFold(tbl, WithV(1))
	assert.Error(t, err)
	_, err = VFold(tbl, WithV(11))
	assert.Error(t, err)
}

func TestBootstraps(t *testing.T) {
	tbl := classTable(t, 50)

	boots, err := Bootstraps(tbl, WithTimes(10), WithSeed(4))
	require.NoError(t, err)
	require.Len(t, boots, 10)

	for _, b := range boots {
		assert.Len(t, b.Train, 50, "bootstrap draws n rows with replacement")
		assert.NotEmpty(t, b.Test, "out-of-bag rows form the assessment set")

		inBag := make(map[int]bool)
		for _, i := range b.Train {
			inBag[i] = true
		}
		for _, i := range b.Test {
			assert.False(t, inBag[i], "row %d is both in-bag and out-of-bag", i)
		}
	}
}

func TestSplitMaterialize(t *testing.T) {
	tbl := classTable(t, 20)
	split, err := InitialSplit(tbl, WithProp(0.75), WithSeed(5))
	require.NoError(t, err)

	training, err := split.Training()
	require.NoError(t, err)
	held, err := split.Testing()
	require.NoError(t, err)
	assert.Equal(t, 15, training.NRow())
	assert.Equal(t, 5, held.NRow())
}
