package app

import (
	"context"
	"testing"
	"time"

	"socialstats/adapters/stats/hypothesis"
	"socialstats/domain/dataset"
	"socialstats/domain/stats"
	"socialstats/internal/config"
	"socialstats/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Analysis.Tune = false
	cfg.Analysis.BootstrapRounds = 0
	cfg.Analysis.Lowess = false
	cfg.Analysis.Workers = 2
	return cfg
}

func samplePosts(t *testing.T) *dataset.Dataset {
	t.Helper()
	gen := testkit.DefaultSocialConfig()
	gen.Posts = 200
	gen.MissingRate = 0
	return testkit.NewSocialDataGenerator(gen).Generate()
}

func fullPlan() Plan {
	return Plan{
		Derive: true,
		Tests: []hypothesis.Spec{
			hypothesis.KruskalSpec{Value: "engagement_rate", Group: "platform"},
			hypothesis.SpearmanSpec{X: "likes", Y: "comments"},
		},
		Regressions: []RegressionRequest{
			{Target: "likes", Features: []string{"followers", "impressions"}},
			{Target: "no_such_column"},
		},
		Clusters: []ClusterRequest{
			{Columns: []string{"likes", "comments", "shares"}, K: 3},
			{Columns: []string{"likes", "comments"}, K: 1},
		},
	}
}

func TestRunFullPlan(t *testing.T) {
	svc := NewAnalysisService(testConfig(), nil)

	run, err := svc.Run(context.Background(), samplePosts(t), fullPlan())
	require.NoError(t, err)

	require.NotNil(t, run.Derivation)
	assert.Equal(t, "likes/followers", run.Derivation.Method)
	assert.True(t, run.Dataset.Has("engagement_rate"))

	report := run.Report
	assert.Len(t, report.Tests, 2)
	assert.Len(t, report.Models, 1)
	assert.Len(t, report.Clusters, 1)
	assert.Equal(t, 3, report.Clusters[0].K)
	assert.Equal(t, 4, report.TotalAnalyses)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, stats.Failure{
		Operation: "clustering",
		Target:    "likes, comments",
		Error:     report.Failures[0].Error,
	}, report.Failures[0])
	assert.Contains(t, report.Failures[0].Error, "k must be 0 (auto) or at least 2")

	assert.Equal(t, 200, report.Data.Rows)
	assert.NotEmpty(t, report.Recommendations)
}

func TestRunIsDeterministic(t *testing.T) {
	svc := NewAnalysisService(testConfig(), nil)
	ds := samplePosts(t)

	a, err := svc.Run(context.Background(), ds, fullPlan())
	require.NoError(t, err)
	b, err := svc.Run(context.Background(), ds, fullPlan())
	require.NoError(t, err)

	assert.Equal(t, a.Report.AnalysesPerformed, b.Report.AnalysesPerformed)
	assert.Equal(t, a.Report.Recommendations, b.Report.Recommendations)
	assert.Equal(t, a.Report.Models[0].Best, b.Report.Models[0].Best)
	assert.Equal(t, a.Report.Clusters[0].Assignments, b.Report.Clusters[0].Assignments)
}

func TestRunTimeoutRecordsFailures(t *testing.T) {
	cfg := testConfig()
	cfg.Analysis.Timeout = time.Nanosecond
	svc := NewAnalysisService(cfg, nil)

	plan := fullPlan()
	plan.Derive = false
	plan.Tests = []hypothesis.Spec{hypothesis.SpearmanSpec{X: "likes", Y: "comments"}}
	plan.Regressions = plan.Regressions[:1]
	plan.Clusters = plan.Clusters[:1]

	run, err := svc.Run(context.Background(), samplePosts(t), plan)
	require.NoError(t, err)
	assert.Empty(t, run.Report.Tests)
	assert.Empty(t, run.Report.Models)
	assert.Empty(t, run.Report.Clusters)
	assert.Len(t, run.Report.Failures, 3)
}

func TestRunDerive(t *testing.T) {
	svc := NewAnalysisService(testConfig(), nil)

	t.Run("no inputs keeps dataset", func(t *testing.T) {
		ds := dataset.MustNew(dataset.NewCategoricalColumn("platform", []string{"TikTok", "Instagram"}))
		run, err := svc.Run(context.Background(), ds, Plan{Derive: true})
		require.NoError(t, err)
		assert.Nil(t, run.Derivation)
		assert.Same(t, ds, run.Dataset)
		assert.Empty(t, run.Report.Failures)
	})

	t.Run("non-numeric input is a failure", func(t *testing.T) {
		ds := dataset.MustNew(
			dataset.NewCategoricalColumn("likes", []string{"many", "few"}),
			dataset.NewNumericColumn("followers", []float64{100, 200}),
		)
		run, err := svc.Run(context.Background(), ds, Plan{Derive: true})
		require.NoError(t, err)
		require.Len(t, run.Report.Failures, 1)
		assert.Equal(t, "derive", run.Report.Failures[0].Operation)
		assert.Same(t, ds, run.Dataset)
	})
}

func TestRunModelsCancelledKeepsPlanOrder(t *testing.T) {
	svc := NewAnalysisService(testConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := svc.runModels(ctx, samplePosts(t), Plan{
		Regressions: []RegressionRequest{
			{Target: "likes", Features: []string{"followers"}},
			{Target: "comments", Features: []string{"followers"}},
		},
		Clusters: []ClusterRequest{{Columns: []string{"likes", "comments"}, K: 3}},
	})

	require.Len(t, results, 3)
	var targets []string
	for _, r := range results {
		f, ok := r.(stats.Failure)
		require.True(t, ok, "%T", r)
		assert.Contains(t, f.Error, context.Canceled.Error())
		targets = append(targets, f.Operation+": "+f.Target)
	}
	assert.Equal(t, []string{
		"regression: likes ~ followers",
		"regression: comments ~ followers",
		"clustering: likes, comments",
	}, targets)
}

func TestRunRequiresDataset(t *testing.T) {
	svc := NewAnalysisService(testConfig(), nil)
	_, err := svc.Run(context.Background(), nil, Plan{})
	assert.Error(t, err)
}

func TestIsolateRecoversPanics(t *testing.T) {
	svc := NewAnalysisService(testConfig(), nil)
	r := svc.isolate(context.Background(), "clustering", "likes", func(context.Context) (stats.Result, error) {
		panic("boom")
	})
	assert.Equal(t, stats.Failure{Operation: "clustering", Target: "likes", Error: "panic: boom"}, r)
}

func TestRestrictModels(t *testing.T) {
	svc := NewAnalysisService(testConfig(), nil)
	require.NoError(t, svc.RestrictModels([]string{"linear", "ridge"}))

	run, err := svc.Run(context.Background(), samplePosts(t), Plan{
		Regressions: []RegressionRequest{{Target: "likes", Features: []string{"followers", "impressions"}}},
	})
	require.NoError(t, err)
	require.Len(t, run.Report.Models, 1)
	assert.Len(t, run.Report.Models[0].Candidates, 2)

	assert.Error(t, svc.RestrictModels([]string{"perceptron"}))
}

type staticReader struct {
	ds  *dataset.Dataset
	err error
}

func (r staticReader) ReadData() (*dataset.Dataset, error) { return r.ds, r.err }

func TestLoad(t *testing.T) {
	svc := NewAnalysisService(testConfig(), nil)
	ds := samplePosts(t)

	got, err := svc.Load(staticReader{ds: ds})
	require.NoError(t, err)
	assert.Same(t, ds, got)

	_, err = svc.Load(staticReader{err: assert.AnError})
	assert.ErrorIs(t, err, assert.AnError)
}
