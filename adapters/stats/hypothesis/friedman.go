package hypothesis

import (
	"math"

	"socialstats/domain/dataset"
	"socialstats/domain/stats"
	"socialstats/internal/analysis/numeric"
)

// Friedman compares repeated measurements stored in columns, one subject per
// row. Only rows complete on every column take part. Each pair of conditions
// gets a Wilcoxon signed-rank follow-up. Returns nil with fewer than two
// columns, a non-numeric column or fewer than three complete subjects.
func (s *Suite) Friedman(ds *dataset.Dataset, columns []string) *stats.TestResult {
	if len(columns) < 2 {
		s.logger.Debug("friedman: %d conditions", len(columns))
		return nil
	}
	data, _, ok := ds.NumericMatrix(columns)
	if !ok {
		s.logger.Debug("friedman %v: column missing or not numeric", columns)
		return nil
	}
	n, k := len(data), len(columns)
	if n < 3 {
		s.logger.Debug("friedman %v: %d complete subjects", columns, n)
		return nil
	}

	q, p, rankMeans, ok := numeric.Friedman(data)
	if !ok {
		return nil
	}
	w := math.Min(1, math.Max(0, q/(float64(n)*float64(k-1))))

	r := newResult(stats.TestFriedman, columns...)
	r.Statistic = q
	r.PValue = p
	r.SampleSize = n
	r.Effect = stats.EffectSize{
		Measure:   "kendalls_w",
		Value:     w,
		Magnitude: stats.Bucket(w, 0.1, 0.3, 0.5),
	}

	conditions := make([][]float64, k)
	for j := range columns {
		conditions[j] = make([]float64, n)
		for i, row := range data {
			conditions[j][i] = row[j]
		}
		b := s.describe(conditions[j], columns[j], columns[j])
		rankMean := rankMeans[j]
		b.RankMean = &rankMean
		r.Groups = append(r.Groups, b)
	}

	details := &stats.FriedmanDetails{
		Conditions:       append([]string(nil), columns...),
		Subjects:         n,
		DegreesOfFreedom: k - 1,
		Consistency:      consistency(w),
	}
	if k == 2 {
		diffs := make([]float64, n)
		for i := range diffs {
			diffs[i] = conditions[0][i] - conditions[1][i]
		}
		report := numeric.NormalityReport(diffs)
		details.DifferenceNormality = &report
	}
	r.Details = details

	for a := 0; a < k; a++ {
		for b := a + 1; b < k; b++ {
			res, ok := numeric.WilcoxonSignedRank(conditions[a], conditions[b])
			if !ok {
				continue
			}
			effect := 0.0
			if res.N > 0 {
				effect = math.Abs(res.Z) / math.Sqrt(float64(res.N))
			}
			meanA, _ := numeric.MeanStd(conditions[a])
			meanB, _ := numeric.MeanStd(conditions[b])
			r.PostHoc = append(r.PostHoc, stats.PostHocComparison{
				GroupA:      columns[a],
				GroupB:      columns[b],
				Test:        stats.TestWilcoxon,
				Statistic:   res.Statistic,
				PValue:      res.PValue,
				Significant: res.PValue < stats.Alpha,
				Effect: stats.EffectSize{
					Measure:   "wilcoxon_r",
					Value:     effect,
					Magnitude: stats.Bucket(effect, 0.1, 0.3, 0.5),
				},
				MeanDifference:   meanA - meanB,
				MedianDifference: numeric.Median(conditions[a]) - numeric.Median(conditions[b]),
			})
		}
	}
	return finish(r)
}

func consistency(w float64) string {
	switch {
	case w >= 0.7:
		return "very strong agreement"
	case w >= 0.5:
		return "strong agreement"
	case w >= 0.3:
		return "moderate agreement"
	case w >= 0.1:
		return "weak agreement"
	default:
		return "no agreement"
	}
}
