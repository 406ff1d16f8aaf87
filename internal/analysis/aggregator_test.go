package analysis

import (
	"math"
	"testing"

	"socialstats/domain/dataset"
	"socialstats/domain/stats"
	"socialstats/domain/stats/brief"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workingData() *dataset.Dataset {
	return dataset.MustNew(
		dataset.NewCategoricalColumn("platform", []string{"A", "B", "A", "C"}),
		dataset.NewNumericColumn("likes", []float64{1, math.NaN(), 3, 4}),
	)
}

func TestAggregateFullSession(t *testing.T) {
	kruskal := &stats.TestResult{
		Test:        stats.TestKruskalWallis,
		Variables:   []string{"engagement_rate", "platform"},
		Significant: true,
		Groups: []brief.StatisticalBrief{
			{Group: "A", Summary: brief.SummaryStats{Mean: 5}},
			{Group: "C", Summary: brief.SummaryStats{Mean: 9}},
			{Group: "B", Summary: brief.SummaryStats{Mean: 4.8}},
		},
		Details: &stats.KruskalDetails{ValueColumn: "engagement_rate", GroupColumn: "platform"},
	}
	spearman := &stats.TestResult{
		Test:        stats.TestSpearman,
		Variables:   []string{"likes", "shares"},
		Significant: true,
		Details:     &stats.SpearmanDetails{Correlation: -0.92},
	}
	model := &stats.ModelSelectionResult{
		Target:      "engagement_rate",
		Features:    []string{"likes", "shares"},
		Best:        "ridge",
		BestTestR2:  0.82,
		TopFeatures: []string{"likes", "shares"},
		Candidates:  []stats.ModelCandidate{{Name: "ridge", Overfitting: true}},
	}
	clusters := &stats.ClusterResult{
		Columns:  []string{"likes", "shares"},
		Profiles: []stats.ClusterProfile{{Label: 0, Percentage: 60}, {Label: 1, Percentage: 40}},
	}
	failure := stats.Failure{Operation: "chi_square", Target: "platform", Error: "boom"}

	report := Aggregate(workingData(), kruskal, spearman, model, clusters, failure)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 4, report.TotalAnalyses)
	assert.Equal(t, []string{
		"kruskal_wallis(engagement_rate, platform)",
		"spearman(likes, shares)",
		"regression(engagement_rate ~ likes + shares)",
		"clustering(likes, shares)",
	}, report.AnalysesPerformed)
	assert.Len(t, report.Tests, 2)
	assert.Len(t, report.Models, 1)
	assert.Len(t, report.Clusters, 1)
	assert.Equal(t, []stats.Failure{failure}, report.Failures)

	assert.Equal(t, []string{
		"engagement_rate differs significantly across platform: tailor the strategy per group",
		"Focus on C, the best performing group (mean 9.00)",
		"Improve B, the weakest group (mean 4.80)",
		"Strong correlation between likes and shares (rho -0.92): exploit it for optimization",
		"Predictive model for engagement_rate is reliable (ridge, test R² 0.82): use it for planning",
		"Optimize the most informative features for engagement_rate: likes, shares",
		"ridge overfits engagement_rate: reduce model complexity or grow the sample",
		"Segment 0 is dominant (60.0% of rows): make it the primary strategy",
		"Segment 1 is dominant (40.0% of rows): make it the primary strategy",
		"1 analyses failed and were skipped; check the failures section",
	}, report.Recommendations)
}

func TestAggregateToleratesAbsentResults(t *testing.T) {
	var nilTest *stats.TestResult
	var nilModel *stats.ModelSelectionResult
	report := Aggregate(workingData(), nilTest, nilModel, nil)

	assert.Zero(t, report.TotalAnalyses)
	assert.Empty(t, report.AnalysesPerformed)
	assert.Empty(t, report.Recommendations)
	assert.Nil(t, report.Tests)
	require.Len(t, report.Insights, 3)
}

func TestAggregateNoPattern(t *testing.T) {
	weak := &stats.TestResult{
		Test:      stats.TestSpearman,
		Variables: []string{"a", "b"},
		Details:   &stats.SpearmanDetails{Correlation: 0.1},
	}
	report := Aggregate(workingData(), weak)
	assert.Equal(t, []string{"No strong pattern detected: collect more data or add explanatory variables"}, report.Recommendations)
}

func TestSummarizeQualityScore(t *testing.T) {
	s := Summarize(workingData())
	assert.Equal(t, 8, s.TotalCells)
	assert.Equal(t, 1, s.MissingCells)
	assert.InDelta(t, 87.5, s.QualityScore, 1e-12)
	assert.Equal(t, map[string]int{"platform": 0, "likes": 1}, s.MissingByColumn)

	report := Aggregate(workingData())
	assert.Equal(t, []string{
		"Data quality is good (87.5% complete cells)",
		"Sample size is small (4 rows)",
		"Column likes has the most missing cells (1)",
	}, report.Insights)

	assert.Zero(t, Summarize(nil).QualityScore)
}
