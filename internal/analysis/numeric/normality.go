package numeric

import (
	"math"

	"socialstats/domain/stats"

	"gonum.org/v1/gonum/stat/distuv"
)

// Royston (1995) polynomial coefficients for the Shapiro-Wilk weights and p-value
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.5440, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
	swG  = []float64{-2.273, 0.459}
)

func poly(c []float64, x float64) float64 {
	result := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		result = result*x + c[i]
	}
	return result
}

// ShapiroWilk computes the W statistic and p-value with Royston's
// approximation. ok is false for n < 3 or a constant sample.
func ShapiroWilk(data []float64) (w, pValue float64, ok bool) {
	n := len(data)
	if n < 3 {
		return 0, 1, false
	}
	x := Sorted(data)
	if x[n-1]-x[0] < 1e-19 {
		return 0, 1, false
	}

	a := shapiroWilkWeights(n)

	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)

	num, ssq := 0.0, 0.0
	for i, v := range x {
		num += a[i] * v
		ssq += (v - mean) * (v - mean)
	}
	w = num * num / ssq
	if w > 1 {
		w = 1
	}

	return w, shapiroWilkPValue(w, n), true
}

// shapiroWilkWeights returns the antisymmetric coefficients a_1..a_n
func shapiroWilkWeights(n int) []float64 {
	a := make([]float64, n)
	if n == 3 {
		a[0], a[2] = -math.Sqrt(0.5), math.Sqrt(0.5)
		return a
	}

	m := make([]float64, n)
	summ2 := 0.0
	for i := 0; i < n; i++ {
		m[i] = distributions.NormalQuantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
		summ2 += m[i] * m[i]
	}
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(float64(n))

	an := m[n-1]/ssumm2 + poly(swC1, rsn)
	var phi float64
	lo := 1
	if n > 5 {
		an1 := m[n-2]/ssumm2 + poly(swC2, rsn)
		phi = (summ2 - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) / (1 - 2*an*an - 2*an1*an1)
		a[n-2], a[1] = an1, -an1
		lo = 2
	} else {
		phi = (summ2 - 2*m[n-1]*m[n-1]) / (1 - 2*an*an)
	}
	a[n-1], a[0] = an, -an

	sphi := math.Sqrt(phi)
	for i := lo; i < n-lo; i++ {
		a[i] = m[i] / sphi
	}
	return a
}

func shapiroWilkPValue(w float64, n int) float64 {
	if n == 3 {
		p := 6 / math.Pi * (math.Asin(math.Sqrt(w)) - math.Asin(math.Sqrt(0.75)))
		return clampProbability(p)
	}

	w1 := math.Log(1 - w)
	if math.IsInf(w1, -1) {
		return 1.0
	}

	nf := float64(n)
	var z float64
	if n <= 11 {
		gamma := poly(swG, nf)
		if w1 >= gamma {
			return 0
		}
		mu := poly(swC3, nf)
		sigma := math.Exp(poly(swC4, nf))
		z = (-math.Log(gamma-w1) - mu) / sigma
	} else {
		ln := math.Log(nf)
		mu := poly(swC5, ln)
		sigma := math.Exp(poly(swC6, ln))
		z = (w1 - mu) / sigma
	}
	return clampProbability(distuv.UnitNormal.Survival(z))
}

// JarqueBera computes the JB statistic from biased skewness and kurtosis,
// with a chi-square(2) p-value
func JarqueBera(data []float64) (jb, pValue float64, ok bool) {
	n := len(data)
	if n < 3 {
		return 0, 1, false
	}
	skew, kurt := Shape(data)
	if skew == 0 && kurt == 0 {
		// constant sample
		if _, std := MeanStd(data); std == 0 {
			return 0, 1, false
		}
	}
	jb = float64(n) / 6 * (skew*skew + kurt*kurt/4)
	return jb, distributions.ChiSquarePValue(jb, 2), true
}

// KolmogorovSmirnov computes the one-sample KS distance of data against cdf
func KolmogorovSmirnov(data []float64, cdf func(float64) float64) float64 {
	x := Sorted(data)
	n := float64(len(x))
	d := 0.0
	for i, v := range x {
		f := cdf(v)
		if up := float64(i+1)/n - f; up > d {
			d = up
		}
		if down := f - float64(i)/n; down > d {
			d = down
		}
	}
	return d
}

// KolmogorovSmirnovTest runs the one-sample KS test against cdf
func KolmogorovSmirnovTest(data []float64, cdf func(float64) float64) (d, pValue float64, ok bool) {
	if len(data) < 3 {
		return 0, 1, false
	}
	d = KolmogorovSmirnov(data, cdf)
	return d, distributions.KolmogorovPValue(d, float64(len(data))), true
}

// KolmogorovSmirnovNormal tests data against a normal with the sample's mean and std
func KolmogorovSmirnovNormal(data []float64) (d, pValue float64, ok bool) {
	mean, std := MeanStd(data)
	if std == 0 {
		return 0, 1, false
	}
	normal := distuv.Normal{Mu: mean, Sigma: std}
	return KolmogorovSmirnovTest(data, normal.CDF)
}

var (
	adSignificance = []float64{15, 10, 5, 2.5, 1}
	adCritical     = []float64{0.576, 0.656, 0.787, 0.918, 1.092}
)

// AndersonDarling tests normality with estimated mean and std. Critical values
// are adjusted for the sample size.
func AndersonDarling(data []float64) (*stats.AndersonDarling, bool) {
	n := len(data)
	if n < 3 {
		return nil, false
	}
	mean, std := MeanStd(data)
	if std == 0 {
		return nil, false
	}

	x := Sorted(data)
	nf := float64(n)
	sum := 0.0
	for i := 0; i < n; i++ {
		lo := distributions.NormalCDF((x[i] - mean) / std)
		hi := distributions.NormalCDF((x[n-1-i] - mean) / std)
		lo = math.Max(lo, 1e-300)
		hi = math.Min(hi, 1-1e-16)
		sum += float64(2*i+1) * (math.Log(lo) + math.Log1p(-hi))
	}
	a2 := -nf - sum/nf

	factor := 1 + 4/nf - 25/(nf*nf)
	critical := make([]float64, len(adCritical))
	for i, c := range adCritical {
		critical[i] = math.Round(c/factor*1000) / 1000
	}
	levels := make([]float64, len(adSignificance))
	copy(levels, adSignificance)

	return &stats.AndersonDarling{
		Statistic:          a2,
		CriticalValues:     critical,
		SignificanceLevels: levels,
		Normal:             a2 < critical[2],
	}, true
}

// NormalityReport runs Shapiro-Wilk, Kolmogorov-Smirnov and Jarque-Bera on data.
// Checks whose preconditions fail are left nil.
func NormalityReport(data []float64) stats.NormalityReport {
	var report stats.NormalityReport
	if w, p, ok := ShapiroWilk(data); ok {
		report.ShapiroWilk = stats.NewDiagnostic(stats.TestShapiroWilk, w, p)
	}
	if d, p, ok := KolmogorovSmirnovNormal(data); ok {
		report.KolmogorovSmirnov = stats.NewDiagnostic(stats.TestKolmogorovSmirnov, d, p)
	}
	if jb, p, ok := JarqueBera(data); ok {
		report.JarqueBera = stats.NewDiagnostic(stats.TestJarqueBera, jb, p)
	}
	return report
}
