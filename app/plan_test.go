package app

import (
	"context"
	"testing"

	"socialstats/adapters/stats/hypothesis"
	"socialstats/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPlanForDerivedPosts(t *testing.T) {
	svc := NewAnalysisService(testConfig(), nil)
	ds, _, err := svc.Deriver.Derive(samplePosts(t))
	require.NoError(t, err)

	plan := DefaultPlan(ds)

	assert.Contains(t, plan.Tests, hypothesis.Spec(hypothesis.KruskalSpec{Value: "engagement_rate", Group: "platform"}))
	assert.Contains(t, plan.Tests, hypothesis.Spec(hypothesis.KruskalSpec{Value: "engagement_rate", Group: "content_type"}))
	assert.Contains(t, plan.Tests, hypothesis.Spec(hypothesis.ChiSquareSpec{Row: "engagement_level", Column: "platform"}))
	assert.Contains(t, plan.Tests, hypothesis.Spec(hypothesis.SpearmanSpec{X: "engagement_rate", Y: "impressions"}))
	assert.Contains(t, plan.Tests, hypothesis.Spec(hypothesis.DistributionSpec{Column: "engagement_rate", Distribution: hypothesis.Normal}))

	require.Len(t, plan.Regressions, 1)
	assert.Equal(t, "engagement_rate", plan.Regressions[0].Target)
	assert.Equal(t, []string{"followers", "impressions", "likes", "comments", "shares", "saves"}, plan.Regressions[0].Features)

	require.Len(t, plan.Clusters, 1)
	assert.Equal(t, []string{"likes", "comments", "shares", "saves"}, plan.Clusters[0].Columns)
	assert.Zero(t, plan.Clusters[0].K)
}

func TestDefaultPlanWithoutTarget(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewNumericColumn("a", []float64{1, 2, 3}),
		dataset.NewNumericColumn("b", []float64{3, 2, 1}),
		dataset.NewNumericColumn("c", []float64{1, 3, 2}),
	)
	plan := DefaultPlan(ds)
	assert.Len(t, plan.Tests, 3)
	assert.Empty(t, plan.Regressions)
	require.Len(t, plan.Clusters, 1)
	assert.Equal(t, []string{"a", "b", "c"}, plan.Clusters[0].Columns)
}

func TestExplore(t *testing.T) {
	svc := NewAnalysisService(testConfig(), nil)

	run, err := svc.Explore(context.Background(), samplePosts(t))
	require.NoError(t, err)
	require.NotNil(t, run.Derivation)
	assert.NotEmpty(t, run.Report.Tests)
	assert.Len(t, run.Report.Models, 1)
	assert.Len(t, run.Report.Clusters, 1)
	assert.Empty(t, run.Report.Failures)

	_, err = svc.Explore(context.Background(), nil)
	assert.Error(t, err)
}
