package hypothesis

import (
	"math"

	"socialstats/domain/dataset"
	"socialstats/domain/stats"
	"socialstats/domain/stats/brief"
	"socialstats/internal/analysis/numeric"

	"gonum.org/v1/gonum/stat"
)

const (
	mahalanobisThreshold = 3.0
	zScoreThreshold      = 3.0
	iqrMultiplier        = 1.5
	// a quadratic fit must add this much R² before the relation is called non-linear
	linearityTolerance = 0.05
	stabilityTolerance = 0.2
)

// rankCorrelation is Pearson's r on average ranks. ok is false when either
// variable is constant.
func rankCorrelation(x, y []float64) (float64, bool) {
	rx, _ := numeric.Rank(x)
	ry, _ := numeric.Rank(y)
	rho := stat.Correlation(rx, ry, nil)
	if math.IsNaN(rho) || math.IsInf(rho, 0) {
		return 0, false
	}
	return math.Max(-1, math.Min(1, rho)), true
}

// Spearman measures the monotonic association between two numeric columns
// over the rows where both are present. Returns nil with fewer than three
// complete rows or when either column is constant.
func (s *Suite) Spearman(ds *dataset.Dataset, columnX, columnY string) *stats.TestResult {
	x, y, rows, ok := ds.PairwiseComplete(columnX, columnY)
	if !ok {
		s.logger.Debug("spearman %s~%s: column missing or not numeric", columnX, columnY)
		return nil
	}
	n := len(x)
	if n < 3 {
		s.logger.Debug("spearman %s~%s: %d complete rows", columnX, columnY, n)
		return nil
	}
	rho, ok := rankCorrelation(x, y)
	if !ok {
		s.logger.Debug("spearman %s~%s: constant column", columnX, columnY)
		return nil
	}
	p := s.dist.CorrelationPValue(rho, n)

	r := newResult(stats.TestSpearman, columnX, columnY)
	r.Statistic = rho
	r.PValue = p
	r.SampleSize = n
	r.Effect = stats.EffectSize{
		Measure:   "spearman_rho",
		Value:     rho,
		Magnitude: stats.Bucket(rho, 0.1, 0.3, 0.5),
	}
	r.Groups = []brief.StatisticalBrief{
		s.describe(x, columnX, columnX),
		s.describe(y, columnY, columnY),
	}

	details := &stats.SpearmanDetails{
		Correlation:       rho,
		RSquared:          rho * rho,
		Strength:          correlationStrength(rho),
		Direction:         correlationDirection(rho),
		SignificanceLevel: significanceLevel(p),
		DegreesOfFreedom:  n - 2,
		Residuals:         linearResiduals(x, y),
		IQROutliers: []stats.Outliers{
			outliers(columnX, "iqr", iqrMultiplier, mapRows(numeric.IQROutliers(x), rows)),
			outliers(columnY, "iqr", iqrMultiplier, mapRows(numeric.IQROutliers(y), rows)),
		},
		ZScoreOutliers: []stats.Outliers{
			outliers(columnX, "zscore", zScoreThreshold, mapRows(numeric.ZScoreOutliers(x, zScoreThreshold), rows)),
			outliers(columnY, "zscore", zScoreThreshold, mapRows(numeric.ZScoreOutliers(y, zScoreThreshold), rows)),
		},
	}

	pairs := make([][]float64, n)
	for i := range x {
		pairs[i] = []float64{x[i], y[i]}
	}
	if flagged, ok := numeric.MahalanobisOutliers(pairs, mahalanobisThreshold); ok {
		m := outliers("", "mahalanobis", mahalanobisThreshold, mapRows(flagged, rows))
		details.Mahalanobis = &m
	} else {
		s.logger.Debug("spearman %s~%s: covariance not invertible, skipping mahalanobis", columnX, columnY)
	}

	details.Linearity = linearity(x, y)
	details.Stability = s.stability(x, y)

	if s.opts.Lowess {
		details.Trend = numeric.Lowess(x, y, s.opts.LowessFrac, s.opts.LowessIterations)
		if details.Trend == nil {
			s.logger.Warn("spearman %s~%s: lowess trend unavailable", columnX, columnY)
		}
	}

	r.Details = details
	return finish(r)
}

func outliers(column, method string, threshold float64, rows []int) stats.Outliers {
	if rows == nil {
		rows = []int{}
	}
	return stats.Outliers{Column: column, Method: method, Threshold: threshold, Count: len(rows), Rows: rows}
}

func correlationStrength(rho float64) string {
	a := math.Abs(rho)
	switch {
	case a >= 0.9:
		return "very strong"
	case a >= 0.7:
		return "strong"
	case a >= 0.5:
		return "moderate"
	case a >= 0.3:
		return "weak"
	default:
		return "very weak"
	}
}

func correlationDirection(rho float64) string {
	switch {
	case rho > 0:
		return "positive"
	case rho < 0:
		return "negative"
	default:
		return "none"
	}
}

func significanceLevel(p float64) string {
	switch {
	case p < 0.001:
		return "p < 0.001"
	case p < 0.01:
		return "p < 0.01"
	case p < 0.05:
		return "p < 0.05"
	case p < 0.1:
		return "p < 0.1"
	default:
		return "not significant"
	}
}

// linearResiduals fits y on x by least squares and summarizes y − ŷ
func linearResiduals(x, y []float64) stats.ResidualSummary {
	alpha, beta := numeric.LinearFit(x, y)
	res := make([]float64, len(x))
	for i := range x {
		res[i] = y[i] - (alpha + beta*x[i])
	}
	mean, std := numeric.MeanStd(res)
	return stats.ResidualSummary{Mean: mean, Std: std, Normality: numeric.NormalityReport(res)}
}

func linearity(x, y []float64) *stats.LinearityCheck {
	lin, ok := numeric.PolynomialR2(x, y, 1)
	if !ok {
		return nil
	}
	quad, ok := numeric.PolynomialR2(x, y, 2)
	if !ok {
		return nil
	}
	improvement := quad - lin
	return &stats.LinearityCheck{
		LinearR2:    lin,
		QuadraticR2: quad,
		Improvement: improvement,
		Linear:      improvement < linearityTolerance,
	}
}

// stability computes Spearman's rho over consecutive windows in row order.
// Windows where either variable is constant are skipped; nil when fewer than
// two windows remain.
func (s *Suite) stability(x, y []float64) *stats.StabilityCheck {
	n := len(x)
	window := max(s.opts.MinStabilityWindow, n/10)
	if n < window+1 {
		return nil
	}

	var rhos []float64
	for start := 0; start+window <= n; start++ {
		if rho, ok := rankCorrelation(x[start:start+window], y[start:start+window]); ok {
			rhos = append(rhos, rho)
		}
	}
	if len(rhos) < 2 {
		return nil
	}
	mean, std := numeric.MeanStd(rhos)
	return &stats.StabilityCheck{
		Window:  window,
		Windows: len(rhos),
		Mean:    mean,
		Std:     std,
		Stable:  std < stabilityTolerance,
	}
}
