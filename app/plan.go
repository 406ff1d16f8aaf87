package app

import (
	"context"

	"socialstats/adapters/stats/engagement"
	"socialstats/adapters/stats/hypothesis"
	"socialstats/domain/dataset"
	"socialstats/internal/errors"
)

// maxLevels bounds the categorical columns used as grouping factors
const maxLevels = 20

var derivedMetrics = map[string]bool{
	engagement.EngagementRate:           true,
	engagement.LikeRate:                 true,
	engagement.CommentRate:              true,
	engagement.ShareRate:                true,
	engagement.CommentLikeRatio:         true,
	engagement.ViralityScore:            true,
	engagement.ContentQualityScore:      true,
	engagement.EmotionalEngagementScore: true,
	engagement.OrganicReachScore:        true,
	engagement.GrowthScore:              true,
	engagement.EngagementLevel:          true,
}

// DefaultPlan proposes the standard analyses for a post table that already
// carries derived metrics. Engagement rate is the outcome when present.
func DefaultPlan(ds *dataset.Dataset) Plan {
	var plan Plan
	var raw, factors []string
	for _, c := range ds.Columns() {
		switch {
		case derivedMetrics[c.Name]:
		case c.Type == dataset.TypeNumeric:
			raw = append(raw, c.Name)
		case c.Type == dataset.TypeCategorical && levels(c) >= 2 && levels(c) <= maxLevels:
			factors = append(factors, c.Name)
		}
	}

	target := engagement.EngagementRate
	if !ds.Has(target) {
		for i := range raw {
			for j := i + 1; j < len(raw); j++ {
				plan.Tests = append(plan.Tests, hypothesis.SpearmanSpec{X: raw[i], Y: raw[j]})
			}
		}
		plan.Clusters = clusterRequest(ds, raw)
		return plan
	}

	for _, f := range factors {
		plan.Tests = append(plan.Tests, hypothesis.KruskalSpec{Value: target, Group: f})
		if ds.Has(engagement.EngagementLevel) {
			plan.Tests = append(plan.Tests, hypothesis.ChiSquareSpec{Row: engagement.EngagementLevel, Column: f})
		}
	}
	for _, r := range raw {
		plan.Tests = append(plan.Tests, hypothesis.SpearmanSpec{X: target, Y: r})
	}
	rates := []string{engagement.LikeRate, engagement.CommentRate, engagement.ShareRate}
	if ds.Has(rates[0]) && ds.Has(rates[1]) && ds.Has(rates[2]) {
		plan.Tests = append(plan.Tests, hypothesis.FriedmanSpec{Columns: rates})
	}
	plan.Tests = append(plan.Tests, hypothesis.DistributionSpec{Column: target, Distribution: hypothesis.Normal})

	if len(raw) > 0 {
		plan.Regressions = []RegressionRequest{{Target: target, Features: raw}}
	}
	plan.Clusters = clusterRequest(ds, raw)
	return plan
}

// clusterRequest clusters on interaction counts when at least two exist,
// else on every raw numeric column
func clusterRequest(ds *dataset.Dataset, raw []string) []ClusterRequest {
	var columns []string
	for _, name := range []string{engagement.Likes, engagement.Comments, engagement.Shares, engagement.Saves} {
		if ds.Has(name) {
			columns = append(columns, name)
		}
	}
	if len(columns) < 2 {
		columns = raw
	}
	if len(columns) < 2 {
		return nil
	}
	return []ClusterRequest{{Columns: columns}}
}

func levels(c *dataset.Column) int {
	seen := make(map[string]struct{})
	for _, l := range c.Labels() {
		if l != "" {
			seen[l] = struct{}{}
		}
	}
	return len(seen)
}

// Explore derives metrics, then runs DefaultPlan on the result
func (s *AnalysisService) Explore(ctx context.Context, ds *dataset.Dataset) (*Run, error) {
	if ds == nil {
		return nil, errors.InvalidInput("dataset is required")
	}
	var derivation *engagement.Derivation
	if out, d, err := s.Deriver.Derive(ds); err != nil {
		s.logger.Warn("metric derivation failed, exploring raw columns: %v", err)
	} else {
		ds = out
		if len(d.Derived) > 0 {
			derivation = &d
		}
	}
	run, err := s.Run(ctx, ds, DefaultPlan(ds))
	if err != nil {
		return nil, err
	}
	run.Derivation = derivation
	return run, nil
}
