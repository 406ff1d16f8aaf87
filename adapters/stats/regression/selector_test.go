package regression

import (
	"context"
	"math"
	"testing"

	"socialstats/domain/core"
	"socialstats/domain/dataset"
	"socialstats/internal/errors"
	"socialstats/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testOptions(models ...string) Options {
	opts := DefaultOptions()
	opts.Tune = false
	opts.BootstrapRounds = 0
	opts.Models = models
	return opts
}

func TestFitAndSelect_LinearTarget(t *testing.T) {
	ds := testkit.Linear(7, 200, 0, []float64{3, -2}, 0.01)
	s := NewSelector(testOptions(), nil)

	result, err := s.FitAndSelect(context.Background(), ds, "target", []string{"feature1", "feature2"})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Len(t, result.Candidates, 6)
	assert.Equal(t, 200, result.Rows)
	assert.Equal(t, 160, result.TrainRows)
	assert.Equal(t, 40, result.TestRows)
	assert.Greater(t, result.BestTestR2, 0.95)
	assert.Equal(t, []string{"feature1", "feature2"}, result.TopFeatures)
	require.NotNil(t, result.Residuals)
	assert.NotNil(t, result.Model)

	linear, ok := result.Candidate(ModelLinear)
	require.True(t, ok)
	assert.Equal(t, "coefficient", linear.ImportanceKind)
	assert.Greater(t, linear.FeatureImportance["feature1"], 0.0)
	assert.Less(t, linear.FeatureImportance["feature2"], 0.0)
	assert.Len(t, linear.CVScores, 5)
	assert.False(t, linear.Overfitting)

	forest, ok := result.Candidate(ModelRandomForest)
	require.True(t, ok)
	assert.Equal(t, "impurity", forest.ImportanceKind)
	assert.InDelta(t, 1.0, forest.FeatureImportance["feature1"]+forest.FeatureImportance["feature2"], 1e-9)
}

func TestFitAndSelect_NoisyLinearCandidate(t *testing.T) {
	ds := testkit.Linear(11, 200, 5, []float64{2, 1, 0.5}, 2)
	s := NewSelector(testOptions(ModelLinear, ModelRidge, ModelLasso), nil)

	result, err := s.FitAndSelect(context.Background(), ds, "target", []string{"feature1", "feature2", "feature3"})
	require.NoError(t, err)
	require.NotNil(t, result)

	linear, ok := result.Candidate(ModelLinear)
	require.True(t, ok)
	assert.Greater(t, linear.Test.R2, 0.8)
	assert.Equal(t, "feature1", result.FeatureRanking[0].Feature)
	assert.Equal(t, 1, result.FeatureRanking[0].Rank)
}

func TestFitAndSelect_Inapplicable(t *testing.T) {
	s := NewSelector(testOptions(ModelLinear), nil)
	ctx := context.Background()

	small := testkit.Linear(1, 9, 0, []float64{1}, 0.1)
	result, err := s.FitAndSelect(ctx, small, "target", []string{"feature1"})
	require.NoError(t, err)
	assert.Nil(t, result)

	ds := testkit.Linear(1, 30, 0, []float64{1}, 0.1)
	result, err = s.FitAndSelect(ctx, ds, "missing", []string{"feature1"})
	require.NoError(t, err)
	assert.Nil(t, result)

	result, err = s.FitAndSelect(ctx, ds, "target", []string{"target", "nope"})
	require.NoError(t, err)
	assert.Nil(t, result)

	labels, err := ds.WithColumn(dataset.NewCategoricalColumn("platform", make([]string, 30)))
	require.NoError(t, err)
	result, err = s.FitAndSelect(ctx, labels, "target", []string{"platform"})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestFitAndSelect_UnknownModel(t *testing.T) {
	ds := testkit.Linear(1, 30, 0, []float64{1}, 0.1)
	s := NewSelector(testOptions("svm"), nil)

	result, err := s.FitAndSelect(context.Background(), ds, "target", []string{"feature1"})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, core.ErrModelNotFound)
	assert.True(t, core.IsNotFoundError(err))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.Contains(t, err.Error(), `model "svm" not found`)
}

func TestFitAndSelect_Cancelled(t *testing.T) {
	ds := testkit.Linear(1, 30, 0, []float64{1}, 0.1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewSelector(testOptions(), nil).FitAndSelect(ctx, ds, "target", []string{"feature1"})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFitAndSelect_Deterministic(t *testing.T) {
	ds := testkit.Linear(3, 80, 1, []float64{1.5, -0.5}, 1)
	features := []string{"feature1", "feature2"}
	opts := testOptions(ModelLinear, ModelRandomForest, ModelGradientBoosting)
	opts.BootstrapRounds = 5

	a, err := NewSelector(opts, nil).FitAndSelect(context.Background(), ds, "target", features)
	require.NoError(t, err)
	b, err := NewSelector(opts, nil).FitAndSelect(context.Background(), ds, "target", features)
	require.NoError(t, err)

	assert.Equal(t, a.Best, b.Best)
	assert.Equal(t, a.Candidates, b.Candidates)
	assert.Equal(t, a.FeatureRanking, b.FeatureRanking)
	assert.Equal(t, a.Stability, b.Stability)
}

func TestPredictOne(t *testing.T) {
	ds := testkit.Linear(5, 100, 0, []float64{3, -2}, 0.01)

	for _, mode := range []string{ScalerTrain, ScalerFull} {
		t.Run(mode, func(t *testing.T) {
			opts := testOptions(ModelLinear)
			opts.ScalerMode = mode
			result, err := NewSelector(opts, nil).FitAndSelect(context.Background(), ds, "target", []string{"feature1", "feature2"})
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, mode, result.ScalerMode)

			v, err := PredictOne(result.Model, map[string]float64{"feature1": 1, "feature2": 1})
			require.NoError(t, err)
			assert.InDelta(t, 1.0, v, 0.05)

			_, err = PredictOne(result.Model, map[string]float64{"feature1": 1, "likes": 2})
			assert.ErrorIs(t, err, core.ErrFeatureMismatch)
			assert.True(t, core.IsUsageError(err))
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
			assert.Contains(t, err.Error(), "missing [feature2], unexpected [likes]")

			_, err = PredictOne(result.Model, map[string]float64{"feature1": 1, "feature2": 1, "likes": 2})
			assert.ErrorIs(t, err, core.ErrFeatureMismatch)
		})
	}

	_, err := PredictOne(nil, map[string]float64{"feature1": 1})
	assert.ErrorIs(t, err, core.ErrModelNotFitted)
}

func TestTuningAndBootstrap(t *testing.T) {
	ds := testkit.Linear(9, 60, 0, []float64{2, 1}, 0.5)
	opts := testOptions(ModelRidge)
	opts.Tune = true
	opts.BootstrapRounds = 10

	result, err := NewSelector(opts, nil).FitAndSelect(context.Background(), ds, "target", []string{"feature1", "feature2"})
	require.NoError(t, err)
	require.NotNil(t, result.Tuning)
	assert.Equal(t, ModelRidge, result.Tuning.Model)
	assert.Equal(t, 4, result.Tuning.Evaluated)
	assert.Equal(t, 3, result.Tuning.Folds)
	assert.Contains(t, []float64{0.1, 1, 10, 100}, result.Tuning.BestParams["alpha"])

	require.NotNil(t, result.Stability)
	assert.Equal(t, 10, result.Stability.Rounds)
	assert.True(t, result.Stability.Stable)
}

func TestLookupModels(t *testing.T) {
	all, err := LookupModels(nil)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	some, err := LookupModels([]string{" Lasso", "linear", "lasso"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, ModelLasso, some[0].Name)
	assert.Equal(t, ModelLinear, some[1].Name)

	_, err = LookupModels([]string{"linear", "svm"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrModelNotFound)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.Contains(t, err.Error(), "known: linear")
}

func TestShrinkage(t *testing.T) {
	x := make([][]float64, 10)
	y := make([]float64, 10)
	for i := range x {
		x[i] = []float64{float64(i + 1)}
		y[i] = 2 * float64(i+1)
	}

	ridge := &Ridge{}
	require.NoError(t, ridge.Fit(x, y))
	assert.InDelta(t, 2.0, ridge.Coefficients()[0], 1e-9)

	lasso := &ElasticNet{Alpha: 0, L1Ratio: 1}
	require.NoError(t, lasso.Fit(x, y))
	assert.InDelta(t, 2.0, lasso.Coefficients()[0], 1e-6)

	strong := &ElasticNet{Alpha: 100, L1Ratio: 1}
	require.NoError(t, strong.Fit(x, y))
	assert.Zero(t, strong.Coefficients()[0])
	assert.InDelta(t, 11.0, strong.Predict([]float64{3}), 1e-9)
}

func TestEnsembles(t *testing.T) {
	x := make([][]float64, 40)
	y := make([]float64, 40)
	for i := range x {
		x[i] = []float64{float64(i), float64(i % 3)}
		y[i] = 0
		if i >= 20 {
			y[i] = 10
		}
	}

	forest := &RandomForest{Trees: 20, Seed: 1}
	require.NoError(t, forest.Fit(x, y))
	assert.InDelta(t, 0.0, forest.Predict([]float64{5, 2}), 1.0)
	assert.InDelta(t, 10.0, forest.Predict([]float64{35, 2}), 1.0)
	assert.Greater(t, forest.Importances()[0], forest.Importances()[1])

	boost := &GradientBoosting{Stages: 50}
	require.NoError(t, boost.Fit(x, y))
	assert.InDelta(t, 0.0, boost.Predict([]float64{5, 0}), 0.1)
	assert.InDelta(t, 10.0, boost.Predict([]float64{35, 0}), 0.1)

	var unfitted RandomForest
	assert.True(t, math.IsNaN(unfitted.Predict([]float64{1, 1})))
}

func TestKFold(t *testing.T) {
	folds := KFold(10, 3)
	require.Len(t, folds, 3)
	assert.Equal(t, []int{0, 1, 2, 3}, folds[0])
	assert.Equal(t, []int{4, 5, 6}, folds[1])
	assert.Equal(t, []int{7, 8, 9}, folds[2])
	assert.Equal(t, []int{0, 1, 2, 3, 7, 8, 9}, complement(10, folds[1]))
}

func TestTrainTestSplitPartitions(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 300).Draw(t, "n")
		size := rapid.Float64Range(0.05, 0.5).Draw(t, "size")
		seed := rapid.Int64().Draw(t, "seed")

		train, test := TrainTestSplit(n, size, seed)
		if len(train)+len(test) != n || len(train) == 0 || len(test) == 0 {
			t.Fatalf("bad split sizes %d/%d for n=%d", len(train), len(test), n)
		}
		seen := make(map[int]bool, n)
		for _, i := range append(append([]int(nil), train...), test...) {
			if seen[i] || i < 0 || i >= n {
				t.Fatalf("index %d repeated or out of range", i)
			}
			seen[i] = true
		}
	})

	_, test := TrainTestSplit(11, 0.2, 1)
	assert.Len(t, test, 3)
}

func binaryTarget(n, every int) *dataset.Dataset {
	flag := make([]float64, n)
	target := make([]float64, n)
	for i := range flag {
		if i%every == 0 {
			flag[i] = 1
		}
		target[i] = 3*flag[i] + 1
	}
	return dataset.MustNew(
		dataset.NewNumericColumn("flag", flag),
		dataset.NewNumericColumn("target", target),
	)
}

func TestFitAndSelect_BinaryFeatureKeepsResult(t *testing.T) {
	ds := binaryTarget(40, 8)
	for _, seed := range []int64{1, 2, 3, 42} {
		opts := DefaultOptions()
		opts.Seed = seed
		opts.Tune = false
		opts.Models = []string{ModelLinear}

		result, err := NewSelector(opts, nil).FitAndSelect(context.Background(), ds, "target", []string{"flag"})
		require.NoError(t, err, "seed %d", seed)
		require.NotNil(t, result, "seed %d", seed)
		require.Len(t, result.Candidates, 1)
		assert.False(t, result.Candidates[0].Failed(), "seed %d", seed)
		assert.NotNil(t, result.Model)
	}
}

func TestBootstrapSkipsDegenerateResamples(t *testing.T) {
	xTrain := make([][]float64, 20)
	yTrain := make([]float64, 20)
	for i := range xTrain {
		xTrain[i] = []float64{0}
		yTrain[i] = 1
	}
	xTrain[0][0], yTrain[0] = 1, 4

	specs, err := LookupModels([]string{ModelLinear})
	require.NoError(t, err)
	tr := trainer{seed: 42, mode: ScalerTrain, workers: 2}

	stability, err := tr.bootstrap(context.Background(), specs[0], xTrain, yTrain, [][]float64{{0}, {1}}, []float64{1, 4}, 100)
	require.NoError(t, err)
	require.NotNil(t, stability)
	assert.Greater(t, stability.Rounds, 1)
	assert.Less(t, stability.Rounds, 100)
	assert.InDelta(t, 1.0, stability.MeanR2, 1e-6)
	assert.True(t, stability.Stable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.bootstrap(ctx, specs[0], xTrain, yTrain, [][]float64{{0}, {1}}, []float64{1, 4}, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCrossValidateSkipsUnfittableFolds(t *testing.T) {
	specs, err := LookupModels([]string{ModelLinear})
	require.NoError(t, err)
	tr := trainer{seed: 42, mode: ScalerTrain, workers: 2}

	x := make([][]float64, 10)
	y := make([]float64, 10)
	for i := range x {
		x[i] = []float64{0}
		y[i] = 1
	}
	// Rows 0 and 1 form the first fold; without them the feature is constant
	x[0][0], y[0] = 1, 4
	x[1][0], y[1] = 1, 4

	cv, err := tr.crossValidate(context.Background(), specs[0], x, y, 5)
	require.NoError(t, err)
	assert.Len(t, cv.Scores, 4)
	assert.InDelta(t, 0, cv.RMSE, 1e-6)

	for i := range x {
		x[i][0] = 0
	}
	_, err = tr.crossValidate(context.Background(), specs[0], x, y, 5)
	assert.Error(t, err)
}
