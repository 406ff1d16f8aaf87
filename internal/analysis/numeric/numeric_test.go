package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// normalScores returns n evenly spaced standard-normal quantiles
func normalScores(n int, mean, std float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + std*distributions.NormalQuantile((float64(i)+0.5)/float64(n))
	}
	return out
}

func TestRankAveragesTies(t *testing.T) {
	ranks, ties := Rank([]float64{3, 1, 2, 2})
	assert.Equal(t, []float64{4, 1, 2.5, 2.5}, ranks)
	assert.Equal(t, 6.0, ties)
}

func TestQuantileInterpolates(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, Quantile(sorted, 0.25), 1e-12)
	assert.InDelta(t, 3.25, Quantile(sorted, 0.75), 1e-12)
	assert.Equal(t, 4.0, Quantile(sorted, 1))
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestComputeBrief(t *testing.T) {
	c := NewComputer()
	b, err := c.ComputeBrief([]float64{1, 2, 3, 4, 5, 100}, "likes")
	require.NoError(t, err)

	assert.Equal(t, 6, b.SampleSize)
	assert.InDelta(t, 19.1667, b.Summary.Mean, 1e-3)
	assert.InDelta(t, 3.5, b.Summary.Median, 1e-12)
	assert.Equal(t, 99.0, b.Summary.Range)
	assert.Equal(t, 1, b.Quality.IQROutliers)
	assert.Greater(t, b.Distribution.Skewness, 1.0)
	assert.False(t, b.Distribution.IsSymmetric)

	_, err = c.ComputeBrief(nil, "empty")
	assert.Error(t, err)
}

func TestShapiroWilk(t *testing.T) {
	w, p, ok := ShapiroWilk(normalScores(50, 10, 2))
	require.True(t, ok)
	assert.Greater(t, w, 0.95)
	assert.Greater(t, p, 0.05)

	skewed := make([]float64, 50)
	for i := range skewed {
		skewed[i] = math.Exp(float64(i) / 5)
	}
	_, p, ok = ShapiroWilk(skewed)
	require.True(t, ok)
	assert.Less(t, p, 0.05)

	_, _, ok = ShapiroWilk([]float64{1, 2})
	assert.False(t, ok)
	_, _, ok = ShapiroWilk([]float64{3, 3, 3, 3})
	assert.False(t, ok)
}

func TestNormalityReportOnNormalScores(t *testing.T) {
	report := NormalityReport(normalScores(80, 0, 1))
	require.NotNil(t, report.ShapiroWilk)
	require.NotNil(t, report.KolmogorovSmirnov)
	require.NotNil(t, report.JarqueBera)
	assert.True(t, report.Normal())

	ad, ok := AndersonDarling(normalScores(80, 0, 1))
	require.True(t, ok)
	assert.True(t, ad.Normal)
	assert.Len(t, ad.CriticalValues, 5)
}

func TestKruskalWallisKnownValue(t *testing.T) {
	h, p, ok := KruskalWallis([][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})
	require.True(t, ok)
	assert.InDelta(t, 7.2, h, 1e-9)
	assert.InDelta(t, math.Exp(-3.6), p, 1e-9)

	h, p, ok = KruskalWallis([][]float64{{2, 2}, {2, 2}})
	require.True(t, ok)
	assert.Equal(t, 0.0, h)
	assert.Equal(t, 1.0, p)
}

func TestMannWhitneyExact(t *testing.T) {
	u, p, ok := MannWhitney([]float64{1, 2, 3}, []float64{4, 5, 6})
	require.True(t, ok)
	assert.Equal(t, 0.0, u)
	assert.InDelta(t, 0.1, p, 1e-12)
	assert.InDelta(t, 0.05, mannWhitneyExactCDF(0, 3, 3), 1e-12)
}

func TestMannWhitneyIdenticalSamples(t *testing.T) {
	a := normalScores(30, 5, 1)
	u, p, ok := MannWhitney(a, a)
	require.True(t, ok)
	assert.Equal(t, 450.0, u)
	assert.Equal(t, 1.0, p)
}

func TestWilcoxonExact(t *testing.T) {
	res, ok := WilcoxonSignedRank([]float64{2, 4, 6, 8, 10}, []float64{1, 2, 3, 4, 5})
	require.True(t, ok)
	assert.True(t, res.Exact)
	assert.Equal(t, 0.0, res.Statistic)
	assert.InDelta(t, 0.0625, res.PValue, 1e-12)
	assert.Equal(t, 5, res.N)
	assert.Less(t, res.Z, 0.0)

	res, ok = WilcoxonSignedRank([]float64{1, 2}, []float64{1, 2})
	require.True(t, ok)
	assert.Equal(t, 1.0, res.PValue)
	assert.Zero(t, res.N)
}

func TestFriedmanPerfectAgreement(t *testing.T) {
	rows := [][]float64{{1, 2, 3}, {2, 4, 6}, {3, 5, 9}, {1, 7, 8}}
	q, p, rankMeans, ok := Friedman(rows)
	require.True(t, ok)
	assert.InDelta(t, 8.0, q, 1e-9)
	assert.InDelta(t, math.Exp(-4), p, 1e-9)
	assert.Equal(t, []float64{1, 2, 3}, rankMeans)
}

func TestFisherExact(t *testing.T) {
	odds, p := FisherExact(8, 2, 1, 5)
	assert.InDelta(t, 20.0, odds, 1e-12)
	assert.InDelta(t, 400.0/11440.0, p, 1e-9)

	odds, _ = FisherExact(3, 0, 0, 3)
	assert.True(t, math.IsInf(odds, 1))
}

func TestHomogeneityKnownValues(t *testing.T) {
	groups := [][]float64{{1, 2, 3, 4, 5}, {2, 4, 6, 8, 10}}

	w, p, ok := Levene(groups)
	require.True(t, ok)
	assert.InDelta(t, 2.05714, w, 1e-4)
	assert.Greater(t, p, 0.05)

	b, p, ok := Bartlett(groups)
	require.True(t, ok)
	assert.InDelta(t, 1.5868, b, 1e-3)
	assert.InDelta(t, 0.2078, p, 1e-3)

	_, p, ok = Fligner(groups)
	require.True(t, ok)
	assert.Greater(t, p, 0.0)

	_, _, ok = Bartlett([][]float64{{1, 1, 1}, {2, 3, 4}})
	assert.False(t, ok, "zero variance group")
}

func TestKolmogorovSmirnovTwoSample(t *testing.T) {
	d, p, ok := KolmogorovSmirnovTwoSample([]float64{1, 2, 3}, []float64{4, 5, 6})
	require.True(t, ok)
	assert.Equal(t, 1.0, d)
	assert.Less(t, p, 0.1)

	same := normalScores(40, 0, 1)
	d, p, _ = KolmogorovSmirnovTwoSample(same, same)
	assert.Equal(t, 0.0, d)
	assert.Equal(t, 1.0, p)
}

func TestOutliers(t *testing.T) {
	data := append(normalScores(40, 0, 1), 25)
	assert.Equal(t, []int{40}, IQROutliers(data))
	assert.Equal(t, []int{40}, ZScoreOutliers(data, 3))

	rows := make([][]float64, 0, 41)
	for i, v := range normalScores(40, 0, 1) {
		rows = append(rows, []float64{v, float64(i%5) + v*0.5})
	}
	rows = append(rows, []float64{8, -8})
	flagged, ok := MahalanobisOutliers(rows, 3)
	require.True(t, ok)
	assert.Contains(t, flagged, 40)

	_, ok = MahalanobisOutliers([][]float64{{1, 1}, {2, 2}, {3, 3}, {4, 4}}, 3)
	assert.False(t, ok, "singular covariance")
}

func TestPolynomialR2(t *testing.T) {
	x := []float64{-3, -2, -1, 0, 1, 2, 3}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = v * v
	}
	linear, ok := PolynomialR2(x, y, 1)
	require.True(t, ok)
	quadratic, ok := PolynomialR2(x, y, 2)
	require.True(t, ok)
	assert.InDelta(t, 0, linear, 1e-9)
	assert.InDelta(t, 1, quadratic, 1e-9)
}

func TestLowessRecoversLine(t *testing.T) {
	x := make([]float64, 30)
	y := make([]float64, 30)
	for i := range x {
		x[i] = float64(30 - i)
		y[i] = 2*x[i] + 1
	}
	trend := Lowess(x, y, 0.3, 3)
	require.Len(t, trend, 30)
	for _, pt := range trend {
		assert.InDelta(t, 2*pt.X+1, pt.Y, 1e-9)
	}
	assert.Equal(t, 1.0, trend[0].X, "sorted by x")
	assert.Nil(t, Lowess([]float64{1, 2}, []float64{1, 2}, 0.3, 3))
}

func TestPValuesStayInUnitInterval(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		k := rapid.IntRange(2, 4).Draw(rt, "groups")
		groups := make([][]float64, k)
		for i := range groups {
			groups[i] = rapid.SliceOfN(rapid.Float64Range(-100, 100), 1, 15).Draw(rt, "group")
		}

		_, p, ok := KruskalWallis(groups)
		require.True(rt, ok)
		assert.GreaterOrEqual(rt, p, 0.0)
		assert.LessOrEqual(rt, p, 1.0)

		_, p, _ = MannWhitney(groups[0], groups[1])
		assert.GreaterOrEqual(rt, p, 0.0)
		assert.LessOrEqual(rt, p, 1.0)

		if _, p, ok := Levene(groups); ok {
			assert.GreaterOrEqual(rt, p, 0.0)
			assert.LessOrEqual(rt, p, 1.0)
		}
	})
}
