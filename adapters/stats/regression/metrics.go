package regression

import (
	"math"

	"socialstats/domain/stats"
	"socialstats/internal/analysis/numeric"
)

func predictAll(m Regressor, x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = m.Predict(row)
	}
	return out
}

// Metrics scores predictions against actual values
func Metrics(actual, predicted []float64) stats.ModelMetrics {
	n := float64(len(actual))
	if n == 0 {
		return stats.ModelMetrics{}
	}
	sq, abs := 0.0, 0.0
	res := make([]float64, len(actual))
	for i, a := range actual {
		res[i] = a - predicted[i]
		sq += res[i] * res[i]
		abs += math.Abs(res[i])
	}

	return stats.ModelMetrics{
		R2:                numeric.RSquared(actual, predicted),
		RMSE:              math.Sqrt(sq / n),
		MAE:               abs / n,
		ExplainedVariance: explainedVariance(actual, res),
	}
}

func explainedVariance(actual, residuals []float64) float64 {
	vy := numeric.PopulationStd(actual)
	vr := numeric.PopulationStd(residuals)
	if vy == 0 {
		if vr == 0 {
			return 1
		}
		return 0
	}
	return 1 - (vr*vr)/(vy*vy)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func allFinite(values []float64) bool {
	for _, v := range values {
		if !finite(v) {
			return false
		}
	}
	return true
}
