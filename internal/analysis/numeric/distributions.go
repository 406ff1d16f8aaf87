package numeric

import (
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// StatisticalDistributions provides unified access to the reference
// distributions used for p-values
type StatisticalDistributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *StatisticalDistributions {
	return &StatisticalDistributions{}
}

var distributions = NewDistributions()

// TTestPValue computes the two-tailed p-value of a t statistic
func (sd *StatisticalDistributions) TTestPValue(tStatistic, degreesOfFreedom float64) float64 {
	if degreesOfFreedom <= 0 || math.IsNaN(tStatistic) {
		return 1.0
	}
	if math.IsInf(tStatistic, 0) {
		return 0
	}

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: degreesOfFreedom}
	return clampProbability(2 * tDist.Survival(math.Abs(tStatistic)))
}

// CorrelationPValue computes the p-value of a correlation coefficient via the t transform
func (sd *StatisticalDistributions) CorrelationPValue(correlation float64, sampleSize int) float64 {
	if sampleSize < 3 || math.IsNaN(correlation) {
		return 1.0
	}

	denom := 1 - correlation*correlation
	if denom <= 0 {
		return 0
	}

	df := float64(sampleSize - 2)
	tStatistic := correlation * math.Sqrt(df/denom)
	return sd.TTestPValue(tStatistic, df)
}

// FTestPValue computes the upper-tail p-value of an F statistic
func (sd *StatisticalDistributions) FTestPValue(fStatistic float64, df1, df2 float64) float64 {
	if df1 <= 0 || df2 <= 0 || math.IsNaN(fStatistic) {
		return 1.0
	}
	if fStatistic <= 0 {
		return 1.0
	}

	fDist := distuv.F{D1: df1, D2: df2}
	return clampProbability(fDist.Survival(fStatistic))
}

// ChiSquarePValue computes the upper-tail p-value of a chi-square statistic
func (sd *StatisticalDistributions) ChiSquarePValue(chiSquare float64, degreesOfFreedom float64) float64 {
	if degreesOfFreedom <= 0 || math.IsNaN(chiSquare) {
		return 1.0
	}
	if chiSquare <= 0 {
		return 1.0
	}

	chiDist := distuv.ChiSquared{K: degreesOfFreedom}
	return clampProbability(chiDist.Survival(chiSquare))
}

// NormalCDF computes cumulative distribution function for standard normal
func (sd *StatisticalDistributions) NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormalQuantile computes quantile function for standard normal (inverse CDF)
func (sd *StatisticalDistributions) NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// NormalTwoSidedPValue computes the two-sided p-value of a z score
func (sd *StatisticalDistributions) NormalTwoSidedPValue(z float64) float64 {
	if math.IsNaN(z) {
		return 1.0
	}
	return clampProbability(2 * distuv.UnitNormal.Survival(math.Abs(z)))
}

// KolmogorovPValue computes the asymptotic p-value of a KS distance for an
// effective sample size, with the Stephens small-sample adjustment
func (sd *StatisticalDistributions) KolmogorovPValue(d, effectiveN float64) float64 {
	if effectiveN <= 0 || math.IsNaN(d) {
		return 1.0
	}
	en := math.Sqrt(effectiveN)
	return kolmogorovSurvival((en + 0.12 + 0.11/en) * d)
}

// kolmogorovSurvival is Q_KS(lambda) = 2 Σ (−1)^(j−1) exp(−2 j² lambda²)
func kolmogorovSurvival(lambda float64) float64 {
	if lambda < 0.2 {
		return 1.0
	}

	a2 := -2 * lambda * lambda
	fac := 2.0
	sum := 0.0
	prev := 0.0
	for j := 1; j <= 100; j++ {
		term := fac * math.Exp(a2*float64(j*j))
		sum += term
		if math.Abs(term) <= 0.001*prev || math.Abs(term) <= 1e-8*sum {
			return clampProbability(sum)
		}
		fac = -fac
		prev = math.Abs(term)
	}
	return 1.0
}

// LogChoose computes ln C(n, k)
func (sd *StatisticalDistributions) LogChoose(n, k int) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	return -math.Log(float64(n+1)) - mathext.Lbeta(float64(n-k+1), float64(k+1))
}

func clampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 1.0
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
