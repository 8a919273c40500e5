package recipe

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EmmanuelUgo/ML-models/dataset"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
)

func trainingTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.FromRecords([][]string{
		{"outcome", "x1", "x2", "color"},
		{"yes", "1", "10", "red"},
		{"yes", "2", "20", "red"},
		{"no", "3", "30", "blue"},
		{"no", "4", "40", "blue"},
	})
	require.NoError(t, err)
	return tbl
}

func TestPrepBakeContract(t *testing.T) {
	rec := New("outcome").Normalize(AllNumericPredictors())

	prepped, err := rec.Prep(trainingTable(t))
	require.NoError(t, err)
	assert.True(t, prepped.IsPrepped())
	assert.False(t, rec.IsPrepped(), "Prep must not mutate the receiver")

	juiced, err := prepped.Juice()
	require.NoError(t, err)
	x1, err := juiced.Floats("x1")
	require.NoError(t, err)

	// Standardized training column has zero mean.
	var sum float64
	for _, v := range x1 {
		sum += v
	}
	assert.InDelta(t, 0, sum, 1e-9)

	// New data is scaled with training statistics, not its own.
	test, err := dataset.FromRecords([][]string{
		{"outcome", "x1", "x2", "color"},
		{"yes", "2.5", "25", "red"},
	})
	require.NoError(t, err)
	baked, err := prepped.Bake(test)
	require.NoError(t, err)
	got, err := baked.Floats("x1")
	require.NoError(t, err)
	// Training mean 2.5, sd ~1.29.
	assert.InDelta(t, 0, got[0], 1e-9)
}

func TestBakeBeforePrep(t *testing.T) {
	rec := New("outcome").Normalize(AllNumeric())
	_, err := rec.Bake(trainingTable(t))
	assert.Error(t, err)
	_, err = rec.Juice()
	assert.Error(t, err)
}

func TestStepDummy(t *testing.T) {
	rec := New("outcome").Dummy(Cols("color"))
	prepped, err := rec.Prep(trainingTable(t))
	require.NoError(t, err)

	juiced, err := prepped.Juice()
	require.NoError(t, err)
	assert.False(t, juiced.HasColumn("color"))
	require.True(t, juiced.HasColumn("color_red"), "non-reference level gets an indicator")

	vals, err := juiced.Floats("color_red")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 0, 0}, vals)
}

func TestStepImputeMedian(t *testing.T) {
	tbl, err := dataset.FromRecords([][]string{
		{"outcome", "x1"},
		{"a", "1"},
		{"b", "3"},
		{"a", "NA"},
		{"b", "5"},
	})
	require.NoError(t, err)

	rec := New("outcome").Impute(Cols("x1"), ImputeMedian)
	prepped, err := rec.Prep(tbl)
	require.NoError(t, err)
	juiced, err := prepped.Juice()
	require.NoError(t, err)

	vals, err := juiced.Floats("x1")
	require.NoError(t, err)
	for _, v := range vals {
		assert.False(t, math.IsNaN(v))
	}
	assert.InDelta(t, 3, vals[2], 1e-12)
}

func TestStepImputeAllMissing(t *testing.T) {
	tbl, err := dataset.FromRecords([][]string{
		{"outcome", "x"},
		{"a", "NaN"},
		{"b", "NaN"},
	})
	require.NoError(t, err)

	_, err = New("outcome").Impute(Cols("x"), ImputeMean).Prep(tbl)
	require.Error(t, err)
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve), "entirely missing column should fail with ValueError, got %v", err)
}

func TestBakeMissingColumn(t *testing.T) {
	prepped, err := New("outcome").Normalize(AllNumericPredictors()).Prep(trainingTable(t))
	require.NoError(t, err)

	narrow, err := trainingTable(t).Drop("color")
	require.NoError(t, err)
	_, err = prepped.Bake(narrow)
	require.Error(t, err)
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de), "missing training column should fail with DimensionError, got %v", err)

	// The outcome alone may be absent on new data.
	unlabeled, err := trainingTable(t).Drop("outcome")
	require.NoError(t, err)
	_, err = prepped.Bake(unlabeled)
	assert.NoError(t, err)
}

func TestStepZV(t *testing.T) {
	tbl, err := dataset.FromRecords([][]string{
		{"outcome", "flat", "x"},
		{"a", "7", "1"},
		{"b", "7", "2"},
	})
	require.NoError(t, err)

	prepped, err := New("outcome").ZV(AllPredictors()).Prep(tbl)
	require.NoError(t, err)
	juiced, err := prepped.Juice()
	require.NoError(t, err)
	assert.False(t, juiced.HasColumn("flat"))
	assert.True(t, juiced.HasColumn("x"))
}

func TestStepNZV(t *testing.T) {
	// 39 of 40 rows share one value: ratio 39 > 19 and 5% unique < 10%.
	records := [][]string{{"outcome", "rare", "spread"}}
	for i := 0; i < 40; i++ {
		rare := "0"
		if i == 0 {
			rare = "1"
		}
		records = append(records, []string{"a", rare, strconv.Itoa(i)})
	}
	tbl, err := dataset.FromRecords(records)
	require.NoError(t, err)

	prepped, err := New("outcome").NZV(AllPredictors()).Prep(tbl)
	require.NoError(t, err)
	juiced, err := prepped.Juice()
	require.NoError(t, err)
	assert.False(t, juiced.HasColumn("rare"))
	assert.True(t, juiced.HasColumn("spread"))
}

func TestStepCorr(t *testing.T) {
	// x2 is an exact linear copy of x1; one of the pair must go.
	tbl, err := dataset.FromRecords([][]string{
		{"outcome", "x1", "x2", "x3"},
		{"a", "1", "2", "5"},
		{"b", "2", "4", "1"},
		{"a", "3", "6", "4"},
		{"b", "4", "8", "2"},
	})
	require.NoError(t, err)

	prepped, err := New("outcome").Corr(AllNumericPredictors(), WithCorrThreshold(0.95)).Prep(tbl)
	require.NoError(t, err)
	juiced, err := prepped.Juice()
	require.NoError(t, err)

	kept := 0
	for _, c := range []string{"x1", "x2"} {
		if juiced.HasColumn(c) {
			kept++
		}
	}
	assert.Equal(t, 1, kept, "exactly one of the correlated pair survives")
	assert.True(t, juiced.HasColumn("x3"))
}

func TestStepDownsampleTrainingOnly(t *testing.T) {
	tbl, err := dataset.FromRecords([][]string{
		{"outcome", "x"},
		{"yes", "1"},
		{"yes", "2"},
		{"yes", "3"},
		{"no", "4"},
	})
	require.NoError(t, err)

	prepped, err := New("outcome").Downsample("outcome", 7).Prep(tbl)
	require.NoError(t, err)

	juiced, err := prepped.Juice()
	require.NoError(t, err)
	assert.Equal(t, 2, juiced.NRow(), "training rows balance to the minority count")

	baked, err := prepped.Bake(tbl)
	require.NoError(t, err)
	assert.Equal(t, 4, baked.NRow(), "assessment rows keep their balance")
}

func TestStepOther(t *testing.T) {
	tbl, err := dataset.FromRecords([][]string{
		{"outcome", "cat"},
		{"a", "common"},
		{"a", "common"},
		{"a", "common"},
		{"a", "common"},
		{"a", "rare"},
	})
	require.NoError(t, err)

	prepped, err := New("outcome").Other(Cols("cat"), WithThreshold(0.3)).Prep(tbl)
	require.NoError(t, err)
	juiced, err := prepped.Juice()
	require.NoError(t, err)

	recs, err := juiced.Strings("cat")
	require.NoError(t, err)
	assert.Equal(t, "other", recs[4])
	assert.Equal(t, "common", recs[0])
}

func TestStepPCA(t *testing.T) {
	tbl, err := dataset.FromRecords([][]string{
		{"outcome", "x1", "x2", "x3"},
		{"a", "1", "2", "0.5"},
		{"b", "2", "4", "0.1"},
		{"a", "3", "6", "0.9"},
		{"b", "4", "8", "0.3"},
	})
	require.NoError(t, err)

	prepped, err := New("outcome").PCA(AllNumericPredictors(), 2).Prep(tbl)
	require.NoError(t, err)
	juiced, err := prepped.Juice()
	require.NoError(t, err)

	assert.True(t, juiced.HasColumn("PC1"))
	assert.True(t, juiced.HasColumn("PC2"))
	assert.False(t, juiced.HasColumn("x1"))
	assert.True(t, juiced.HasColumn("outcome"))
}

func TestCloneIsUntrained(t *testing.T) {
	rec := New("outcome").Normalize(AllNumericPredictors())
	prepped, err := rec.Prep(trainingTable(t))
	require.NoError(t, err)

	clone := prepped.Clone()
	assert.False(t, clone.IsPrepped())
	_, err = clone.Bake(trainingTable(t))
	assert.Error(t, err)
}

func TestRecipeString(t *testing.T) {
	rec := New("outcome").Normalize(AllNumeric()).Dummy(AllNominalPredictors())
	assert.Equal(t, "recipe(outcome ~ .) + normalize + dummy", rec.String())
}
