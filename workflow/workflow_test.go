package workflow

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EmmanuelUgo/ML-models/core/model"
	"github.com/EmmanuelUgo/ML-models/dataset"
	"github.com/EmmanuelUgo/ML-models/linear_model"
	"github.com/EmmanuelUgo/ML-models/metrics"
	"github.com/EmmanuelUgo/ML-models/neighbors"
	tferrors "github.com/EmmanuelUgo/ML-models/pkg/errors"
	"github.com/EmmanuelUgo/ML-models/recipe"
	"github.com/EmmanuelUgo/ML-models/resample"
)

// classData builds a separable binary table with one nominal noise column.
func classData(t *testing.T, n int) *dataset.Table {
	t.Helper()
	rng := rand.New(rand.NewSource(11))
	records := [][]string{{"class", "x1", "x2", "color"}}
	for i := 0; i < n; i++ {
		class, offset := "a", 0.0
		if i%2 == 1 {
			class, offset = "b", 6.0
		}
		color := "red"
		if rng.Float64() < 0.5 {
			color = "blue"
		}
		records = append(records, []string{
			class,
			fmt.Sprintf("%f", offset+rng.NormFloat64()),
			fmt.Sprintf("%f", offset+rng.NormFloat64()),
			color,
		})
	}
	tbl, err := dataset.FromRecords(records)
	require.NoError(t, err)
	return tbl
}

// regData builds y = 2*x + 1 with slight noise.
func regData(t *testing.T, n int) *dataset.Table {
	t.Helper()
	rng := rand.New(rand.NewSource(13))
	records := [][]string{{"y", "x"}}
	for i := 0; i < n; i++ {
		x := rng.Float64() * 10
		records = append(records, []string{
			fmt.Sprintf("%f", 2*x+1+0.01*rng.NormFloat64()),
			fmt.Sprintf("%f", x),
		})
	}
	tbl, err := dataset.FromRecords(records)
	require.NoError(t, err)
	return tbl
}

func logisticWorkflow(name string) *Workflow {
	rec := recipe.New("class").
		Dummy(recipe.Cols("color")).
		Normalize(recipe.AllNumericPredictors())
	return New(name, rec, Classification, func(p Params) (model.Estimator, error) {
		return linear_model.NewLogisticRegression(
			linear_model.WithLRMaxIter(p.Int("max_iter", 200)),
		), nil
	})
}

func knnWorkflow(name string) *Workflow {
	rec := recipe.New("class").
		Dummy(recipe.Cols("color")).
		Normalize(recipe.AllNumericPredictors())
	return New(name, rec, Classification, func(p Params) (model.Estimator, error) {
		return neighbors.NewKNNClassifier(
			neighbors.WithK(p.Int("neighbors", 5)),
		), nil
	})
}

func TestWorkflowFitPredict(t *testing.T) {
	data := classData(t, 80)
	wf := logisticWorkflow("logit")

	require.NoError(t, wf.Fit(data))
	assert.True(t, wf.IsFitted())
	assert.Equal(t, []string{"a", "b"}, wf.Levels(), "levels sorted ascending")

	levels, err := wf.PredictLevels(data)
	require.NoError(t, err)
	require.Len(t, levels, 80)

	truth, err := data.Strings("class")
	require.NoError(t, err)
	correct := 0
	for i := range levels {
		if levels[i] == truth[i] {
			correct++
		}
	}
	assert.GreaterOrEqual(t, correct, 76, "separable data should classify nearly perfectly")

	proba, err := wf.PredictProba(data)
	require.NoError(t, err)
	r, c := proba.Dims()
	assert.Equal(t, 80, r)
	assert.Equal(t, 2, c)
}

func TestWorkflowPredictBeforeFit(t *testing.T) {
	wf := logisticWorkflow("logit")
	_, err := wf.Predict(classData(t, 10))
	assert.Error(t, err)
}

func TestWorkflowPredictMissingColumn(t *testing.T) {
	data := classData(t, 40)
	wf := logisticWorkflow("logit")
	require.NoError(t, wf.Fit(data))

	narrow, err := data.Drop("color")
	require.NoError(t, err)
	_, err = wf.Predict(narrow)
	require.Error(t, err)
	var de *tferrors.DimensionError
	assert.True(t, tferrors.As(err, &de), "missing training column should fail with DimensionError, got %v", err)
}

func TestWorkflowPositiveIndex(t *testing.T) {
	data := classData(t, 40)
	wf := logisticWorkflow("logit")
	require.NoError(t, wf.Fit(data))

	assert.Equal(t, 1, wf.PositiveIndex(), "default event is the last sorted level")
	wf.WithPositive("a")
	assert.Equal(t, 0, wf.PositiveIndex())
}

func TestWorkflowEvaluate(t *testing.T) {
	data := classData(t, 80)
	wf := logisticWorkflow("logit")
	require.NoError(t, wf.Fit(data))

	set, err := metrics.ClassificationSet("accuracy", "roc_auc")
	require.NoError(t, err)
	results, err := wf.Evaluate(data, set)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.GreaterOrEqual(t, res.Value, 0.9, res.Name)
	}
}

func TestFitResamples(t *testing.T) {
	data := classData(t, 90)
	folds, err := resample.VFold(data, resample.WithV(3), resample.WithStrata("class"), resample.WithSeed(1))
	require.NoError(t, err)

	set, err := metrics.ClassificationSet("accuracy")
	require.NoError(t, err)
	rr, err := FitResamples(logisticWorkflow("logit"), folds, set)
	require.NoError(t, err)

	assert.NotEmpty(t, rr.RunID)
	assert.Len(t, rr.Folds, 3)

	s, ok := rr.Summary("accuracy")
	require.True(t, ok)
	assert.Equal(t, 3, s.N)
	assert.GreaterOrEqual(t, s.Mean, 0.9)
}

func TestTuneGridSelectBest(t *testing.T) {
	data := classData(t, 90)
	folds, err := resample.VFold(data, resample.WithV(3), resample.WithStrata("class"), resample.WithSeed(2))
	require.NoError(t, err)
	set, err := metrics.ClassificationSet("accuracy")
	require.NoError(t, err)

	grid := GridRegular(map[string][]interface{}{
		"neighbors": {1, 5, 45},
	})
	tuned, err := TuneGrid(knnWorkflow("knn"), folds, grid, set)
	require.NoError(t, err)
	require.Len(t, tuned.Candidates, 3)

	best, err := tuned.SelectBest("accuracy")
	require.NoError(t, err)
	assert.NotEqual(t, 45, best.Int("neighbors", 0),
		"a neighborhood spanning most of one fold's class should not win")
}

func TestTuneGridEmptyGrid(t *testing.T) {
	data := classData(t, 60)
	folds, err := resample.VFold(data, resample.WithV(3), resample.WithSeed(3))
	require.NoError(t, err)
	set, err := metrics.ClassificationSet("accuracy")
	require.NoError(t, err)

	tuned, err := TuneGrid(logisticWorkflow("logit"), folds, nil, set)
	require.NoError(t, err)
	assert.Len(t, tuned.Candidates, 1, "empty grid degenerates to the base workflow")
}

func TestWorkflowSetRanking(t *testing.T) {
	data := classData(t, 90)
	folds, err := resample.VFold(data, resample.WithV(3), resample.WithStrata("class"), resample.WithSeed(4))
	require.NoError(t, err)
	set, err := metrics.ClassificationSet("accuracy")
	require.NoError(t, err)

	ws, err := NewSet(logisticWorkflow("logit"), knnWorkflow("knn"))
	require.NoError(t, err)
	results, err := ws.FitResamples(folds, set)
	require.NoError(t, err)
	require.Len(t, results, 2)

	ranked, err := RankResults(results, "accuracy", set)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.GreaterOrEqual(t, ranked[0].Mean, ranked[1].Mean)
}

func TestLastFit(t *testing.T) {
	data := classData(t, 100)
	split, err := resample.InitialSplit(data, resample.WithProp(0.75), resample.WithStrata("class"), resample.WithSeed(5))
	require.NoError(t, err)
	set, err := metrics.ClassificationSet("accuracy")
	require.NoError(t, err)

	final, err := LastFit(logisticWorkflow("logit"), split, set)
	require.NoError(t, err)
	assert.True(t, final.Workflow.IsFitted())
	require.Len(t, final.Metrics, 1)
	assert.GreaterOrEqual(t, final.Metrics[0].Value, 0.85)
	assert.Equal(t, len(split.Test), final.Predictions.NRow())
}

func TestRegressionWorkflow(t *testing.T) {
	data := regData(t, 60)
	rec := recipe.New("y").Normalize(recipe.AllNumericPredictors())
	wf := New("linear", rec, Regression, func(p Params) (model.Estimator, error) {
		return linear_model.NewLinearRegression(), nil
	})

	require.NoError(t, wf.Fit(data))
	set, err := metrics.RegressionSet("rmse", "rsq")
	require.NoError(t, err)
	results, err := wf.Evaluate(data, set)
	require.NoError(t, err)
	for _, res := range results {
		if res.Name == "rsq" {
			assert.GreaterOrEqual(t, res.Value, 0.99)
		}
	}
}

func TestGridRegular(t *testing.T) {
	grid := GridRegular(map[string][]interface{}{
		"a": {1, 2},
		"b": {"x", "y"},
	})
	require.Len(t, grid, 4)
	assert.Equal(t, 1, grid[0].Int("a", 0))
	assert.Equal(t, "x", grid[0].String("b", ""))

	assert.Nil(t, GridRegular(nil))
	assert.Nil(t, GridRegular(map[string][]interface{}{"a": {}}))
}

func TestGridRandomDeterministic(t *testing.T) {
	space := map[string]Range{
		"cost":  {Low: -2, High: 1, Log: true},
		"trees": {Low: 10, High: 100, Int: true},
	}
	g1 := GridRandom(space, 5, 9)
	g2 := GridRandom(space, 5, 9)
	require.Len(t, g1, 5)
	assert.Equal(t, g1, g2)

	for _, p := range g1 {
		cost := p.Float("cost", -1)
		assert.GreaterOrEqual(t, cost, 0.01)
		assert.LessOrEqual(t, cost, 10.0)
		trees := p.Int("trees", 0)
		assert.GreaterOrEqual(t, trees, 10)
		assert.LessOrEqual(t, trees, 100)
	}
}
