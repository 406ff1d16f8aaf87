package numeric

import (
	"math"
)

// Levene computes the Brown-Forsythe variant of Levene's test (deviations
// from group medians). ok is false with fewer than two groups or when every
// group is constant.
func Levene(groups [][]float64) (w, pValue float64, ok bool) {
	k := len(groups)
	if k < 2 {
		return 0, 1, false
	}

	z := make([][]float64, k)
	means := make([]float64, k)
	total, grand := 0, 0.0
	for i, g := range groups {
		if len(g) == 0 {
			return 0, 1, false
		}
		med := Median(g)
		z[i] = make([]float64, len(g))
		for j, v := range g {
			z[i][j] = math.Abs(v - med)
			means[i] += z[i][j]
		}
		grand += means[i]
		means[i] /= float64(len(g))
		total += len(g)
	}
	if total <= k {
		return 0, 1, false
	}
	grand /= float64(total)

	between, within := 0.0, 0.0
	for i, zi := range z {
		between += float64(len(zi)) * (means[i] - grand) * (means[i] - grand)
		for _, v := range zi {
			within += (v - means[i]) * (v - means[i])
		}
	}
	if within <= 0 {
		return 0, 1, false
	}

	df1, df2 := float64(k-1), float64(total-k)
	w = df2 / df1 * between / within
	return w, distributions.FTestPValue(w, df1, df2), true
}

// Bartlett computes Bartlett's test for equal variances. ok is false when a
// group has fewer than two observations or zero variance.
func Bartlett(groups [][]float64) (t, pValue float64, ok bool) {
	k := len(groups)
	if k < 2 {
		return 0, 1, false
	}

	total := 0
	pooled := 0.0
	sumLog := 0.0
	sumInv := 0.0
	for _, g := range groups {
		if len(g) < 2 {
			return 0, 1, false
		}
		_, std := MeanStd(g)
		v := std * std
		if v <= 0 {
			return 0, 1, false
		}
		ni := float64(len(g) - 1)
		pooled += ni * v
		sumLog += ni * math.Log(v)
		sumInv += 1 / ni
		total += len(g)
	}

	nk := float64(total - k)
	pooled /= nk
	numer := nk*math.Log(pooled) - sumLog
	denom := 1 + (sumInv-1/nk)/(3*float64(k-1))
	t = numer / denom
	return t, distributions.ChiSquarePValue(t, float64(k-1)), true
}

// Fligner computes the median-centred Fligner-Killeen test. ok is false when
// the normal scores have no spread.
func Fligner(groups [][]float64) (x2, pValue float64, ok bool) {
	k := len(groups)
	if k < 2 {
		return 0, 1, false
	}

	var pooled []float64
	sizes := make([]int, k)
	for i, g := range groups {
		if len(g) == 0 {
			return 0, 1, false
		}
		med := Median(g)
		for _, v := range g {
			pooled = append(pooled, math.Abs(v-med))
		}
		sizes[i] = len(g)
	}
	n := len(pooled)
	if n <= k {
		return 0, 1, false
	}

	ranks, _ := Rank(pooled)
	scores := make([]float64, n)
	for i, r := range ranks {
		scores[i] = distributions.NormalQuantile(r/(2*(float64(n)+1)) + 0.5)
	}

	overall, spread := MeanStd(scores)
	if spread == 0 {
		return 0, 1, false
	}

	stat := 0.0
	offset := 0
	for _, size := range sizes {
		groupMean := 0.0
		for _, s := range scores[offset : offset+size] {
			groupMean += s
		}
		groupMean /= float64(size)
		stat += float64(size) * (groupMean - overall) * (groupMean - overall)
		offset += size
	}
	x2 = stat / (spread * spread)
	return x2, distributions.ChiSquarePValue(x2, float64(k-1)), true
}
