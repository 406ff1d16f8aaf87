package cluster

import (
	"context"
	"math"
	"testing"

	"socialstats/domain/dataset"
	"socialstats/domain/stats"
	"socialstats/internal/errors"
	"socialstats/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var threeBlobs = [][]float64{{0, 0}, {10, 10}, {-10, 10}}

func TestClusterFindsBlobs(t *testing.T) {
	ds := testkit.Blobs(3, threeBlobs, 30, 0.5)
	a := NewAnalyzer(DefaultOptions(), nil)

	result, err := a.Cluster(context.Background(), ds, []string{"x0", "x1"}, 0)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.AutoSelected)
	assert.Equal(t, 3, result.K)
	assert.Equal(t, 90, result.Rows)
	assert.Len(t, result.SilhouetteByK, 9)
	assert.Greater(t, result.Silhouette, 0.8)
	require.Len(t, result.Profiles, 3)

	// Every blob lands in a single cluster
	blob, _ := ds.Labels("blob")
	byBlob := map[string]int{}
	for _, as := range result.Assignments {
		if l, ok := byBlob[blob[as.Row]]; ok {
			assert.Equal(t, l, as.Label)
		}
		byBlob[blob[as.Row]] = as.Label
	}

	total := 0.0
	for _, p := range result.Profiles {
		assert.Equal(t, 30, p.Size)
		total += p.Percentage
	}
	assert.InDelta(t, 100, total, 1e-9)

	// Labels follow first appearance, so the first blob is cluster 0 at (0, 0)
	assert.InDelta(t, 0, result.Profiles[0].Centroid["x0"], 0.5)
	assert.InDelta(t, 0, result.Profiles[0].Centroid["x1"], 0.5)

	require.NotNil(t, result.Projection)
	assert.Equal(t, 2, result.Projection.Components)
	assert.Len(t, result.Projection.Points, 90)
	assert.InDelta(t, 1, result.Projection.ExplainedVarianceRatio[0]+result.Projection.ExplainedVarianceRatio[1], 1e-9)
	assert.GreaterOrEqual(t, result.Projection.ExplainedVarianceRatio[0], result.Projection.ExplainedVarianceRatio[1])
}

func TestClusterExplicitK(t *testing.T) {
	ds := testkit.Blobs(5, threeBlobs, 20, 0.5)
	a := NewAnalyzer(DefaultOptions(), nil)

	result, err := a.Cluster(context.Background(), ds, []string{"x0", "x1"}, 2)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.AutoSelected)
	assert.Equal(t, 2, result.K)
	assert.Nil(t, result.SilhouetteByK)

	_, err = a.Cluster(context.Background(), ds, []string{"x0"}, 1)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
	_, err = a.Cluster(context.Background(), ds, []string{"x0"}, 60)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
}

func TestClusterDeterministic(t *testing.T) {
	ds := testkit.Blobs(8, [][]float64{{0, 0, 0}, {3, 3, 3}}, 25, 1.5)
	cols := []string{"x0", "x1", "x2"}

	a, err := NewAnalyzer(DefaultOptions(), nil).Cluster(context.Background(), ds, cols, 0)
	require.NoError(t, err)
	b, err := NewAnalyzer(DefaultOptions(), nil).Cluster(context.Background(), ds, cols, 0)
	require.NoError(t, err)

	assert.Equal(t, a.K, b.K)
	assert.Equal(t, a.Assignments, b.Assignments)
	assert.Equal(t, a.SilhouetteByK, b.SilhouetteByK)
}

func TestClusterInapplicable(t *testing.T) {
	a := NewAnalyzer(DefaultOptions(), nil)
	ctx := context.Background()

	small := testkit.Blobs(1, [][]float64{{0, 0}}, 9, 1)
	result, err := a.Cluster(ctx, small, []string{"x0", "x1"}, 0)
	require.NoError(t, err)
	assert.Nil(t, result)

	ds := testkit.Blobs(1, threeBlobs, 10, 1)
	result, err = a.Cluster(ctx, ds, []string{"x0", "blob"}, 0)
	require.NoError(t, err)
	assert.Nil(t, result)

	result, err = a.Cluster(ctx, ds, []string{"x0", "nope"}, 0)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestClusterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ds := testkit.Blobs(1, threeBlobs, 10, 1)

	_, err := NewAnalyzer(DefaultOptions(), nil).Cluster(ctx, ds, []string{"x0", "x1"}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithLabelsMarksIncompleteRows(t *testing.T) {
	x0 := make([]float64, 30)
	x1 := make([]float64, 30)
	for i := range x0 {
		x0[i] = float64(i % 2 * 10)
		x1[i] = float64(i%2*10) + float64(i)/100
	}
	x0[4] = math.NaN()
	ds := dataset.MustNew(dataset.NewNumericColumn("x0", x0), dataset.NewNumericColumn("x1", x1))

	result, err := NewAnalyzer(DefaultOptions(), nil).Cluster(context.Background(), ds, []string{"x0", "x1"}, 2)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 29, result.Rows)

	labeled, err := WithLabels(ds, result)
	require.NoError(t, err)
	assert.False(t, ds.Has(LabelColumn))
	labels, ok := labeled.Numeric(LabelColumn)
	require.True(t, ok)
	assert.True(t, math.IsNaN(labels[4]))
	assert.Equal(t, labels[0], labels[2])
	assert.NotEqual(t, labels[0], labels[1])
}

func TestProfilePercentagesSumTo100(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(MinRows, 40).Draw(t, "n")
		x0 := rapid.SliceOfN(rapid.Float64Range(-100, 100), n, n).Draw(t, "x0")
		x1 := rapid.SliceOfN(rapid.Float64Range(-100, 100), n, n).Draw(t, "x1")
		ds := dataset.MustNew(dataset.NewNumericColumn("x0", x0), dataset.NewNumericColumn("x1", x1))

		opts := DefaultOptions()
		opts.MaxClusters = 4
		opts.Restarts = 2
		result, err := NewAnalyzer(opts, nil).Cluster(context.Background(), ds, []string{"x0", "x1"}, 0)
		if err != nil || result == nil {
			t.Fatalf("cluster failed: %v", err)
		}
		total, size := 0.0, 0
		for _, p := range result.Profiles {
			total += p.Percentage
			size += p.Size
		}
		if math.Abs(total-100) > 1e-9 || size != n {
			t.Fatalf("percentages sum to %v over %d rows", total, size)
		}
		if result.Silhouette < -1 || result.Silhouette > 1 {
			t.Fatalf("silhouette %v out of range", result.Silhouette)
		}
	})
}

func TestBestScoreKeepsSmallestK(t *testing.T) {
	scores := []stats.SilhouetteScore{{K: 2, Score: 0.5}, {K: 3, Score: 0.7}, {K: 4, Score: 0.7}}
	assert.Equal(t, 1, bestScore(scores))
}
