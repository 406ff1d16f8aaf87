package hypothesis

import (
	"math"

	"socialstats/domain/dataset"
	"socialstats/domain/stats"
	"socialstats/internal/analysis/numeric"
)

type group struct {
	name   string
	values []float64
}

// groupValues splits a numeric column by the labels of another column in
// first-seen order. Rows missing either cell are skipped, so every returned
// group is non-empty.
func groupValues(ds *dataset.Dataset, valueColumn, groupColumn string) ([]group, bool) {
	values, ok := ds.Numeric(valueColumn)
	if !ok {
		return nil, false
	}
	labels, ok := ds.Labels(groupColumn)
	if !ok {
		return nil, false
	}

	var groups []group
	index := make(map[string]int)
	for i, v := range values {
		if math.IsNaN(v) || labels[i] == "" {
			continue
		}
		j, seen := index[labels[i]]
		if !seen {
			j = len(groups)
			index[labels[i]] = j
			groups = append(groups, group{name: labels[i]})
		}
		groups[j].values = append(groups[j].values, v)
	}
	return groups, true
}

// KruskalWallis compares the distribution of valueColumn across the groups of
// groupColumn. Every unordered pair of groups gets a Mann-Whitney follow-up.
// Returns nil when a column is missing or fewer than two groups have data.
func (s *Suite) KruskalWallis(ds *dataset.Dataset, valueColumn, groupColumn string) *stats.TestResult {
	groups, ok := groupValues(ds, valueColumn, groupColumn)
	if !ok {
		s.logger.Debug("kruskal-wallis %s by %s: column missing or not numeric", valueColumn, groupColumn)
		return nil
	}
	if len(groups) < 2 {
		s.logger.Debug("kruskal-wallis %s by %s: %d non-empty groups", valueColumn, groupColumn, len(groups))
		return nil
	}

	samples := make([][]float64, len(groups))
	total := 0
	for i, g := range groups {
		samples[i] = g.values
		total += len(g.values)
	}

	h, p, ok := numeric.KruskalWallis(samples)
	if !ok {
		return nil
	}

	k := len(groups)
	eta := 0.0
	if total > k {
		eta = math.Max(0, (h-float64(k)+1)/float64(total-k))
	}

	r := newResult(stats.TestKruskalWallis, valueColumn, groupColumn)
	r.Statistic = h
	r.PValue = p
	r.SampleSize = total
	r.Effect = stats.EffectSize{
		Measure:   "eta_squared",
		Value:     eta,
		Magnitude: stats.Bucket(eta, 0.01, 0.06, 0.14),
	}

	details := &stats.KruskalDetails{
		ValueColumn:      valueColumn,
		GroupColumn:      groupColumn,
		GroupCount:       k,
		DegreesOfFreedom: k - 1,
	}
	for _, g := range groups {
		r.Groups = append(r.Groups, s.describe(g.values, valueColumn, g.name))
		details.Normality = append(details.Normality, stats.GroupNormality{
			Group:     g.name,
			Normality: numeric.NormalityReport(g.values),
		})
	}

	if w, pw, ok := numeric.Levene(samples); ok {
		details.Levene = stats.NewDiagnostic(stats.TestLevene, w, pw)
	}
	if t, pt, ok := numeric.Bartlett(samples); ok {
		details.Bartlett = stats.NewDiagnostic(stats.TestBartlett, t, pt)
	}
	if x2, px, ok := numeric.Fligner(samples); ok {
		details.Fligner = stats.NewDiagnostic(stats.TestFligner, x2, px)
	}
	if details.Bartlett == nil || details.Fligner == nil {
		s.logger.Warn("kruskal-wallis %s by %s: homogeneity diagnostics partially unavailable", valueColumn, groupColumn)
	}
	r.Details = details

	r.PostHoc = s.mannWhitneyPairs(groups)
	return finish(r)
}

func (s *Suite) mannWhitneyPairs(groups []group) []stats.PostHocComparison {
	var out []stats.PostHocComparison
	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			a, b := groups[i], groups[j]
			u, p, ok := numeric.MannWhitney(a.values, b.values)
			if !ok {
				continue
			}
			n1, n2 := float64(len(a.values)), float64(len(b.values))
			rbc := 1 - 2*u/(n1*n2)

			meanA, _ := numeric.MeanStd(a.values)
			meanB, _ := numeric.MeanStd(b.values)

			cmp := stats.PostHocComparison{
				GroupA:      a.name,
				GroupB:      b.name,
				Test:        stats.TestMannWhitney,
				Statistic:   u,
				PValue:      p,
				Significant: p < stats.Alpha,
				Effect: stats.EffectSize{
					Measure:   "rank_biserial",
					Value:     rbc,
					Magnitude: stats.Bucket(rbc, 0.1, 0.3, 0.5),
				},
				MeanDifference:   meanA - meanB,
				MedianDifference: numeric.Median(a.values) - numeric.Median(b.values),
			}
			if d, pks, ok := numeric.KolmogorovSmirnovTwoSample(a.values, b.values); ok {
				cmp.KolmogorovSmirnov = stats.NewDiagnostic(stats.TestKSTwoSample, d, pks)
			}
			out = append(out, cmp)
		}
	}
	return out
}
