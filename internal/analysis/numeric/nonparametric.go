package numeric

import (
	"math"
)

// KruskalWallis computes the tie-corrected H statistic across groups. When
// every observation is tied, H is 0 and the p-value 1.
func KruskalWallis(groups [][]float64) (h, pValue float64, ok bool) {
	k := len(groups)
	if k < 2 {
		return 0, 1, false
	}

	var pooled []float64
	for _, g := range groups {
		if len(g) == 0 {
			return 0, 1, false
		}
		pooled = append(pooled, g...)
	}
	n := float64(len(pooled))
	ranks, ties := Rank(pooled)

	correction := 1 - ties/(n*n*n-n)
	if correction <= 0 {
		return 0, 1, true
	}

	sum := 0.0
	offset := 0
	for _, g := range groups {
		rankSum := 0.0
		for _, r := range ranks[offset : offset+len(g)] {
			rankSum += r
		}
		sum += rankSum * rankSum / float64(len(g))
		offset += len(g)
	}

	h = (12/(n*(n+1))*sum - 3*(n+1)) / correction
	if h < 0 {
		h = 0
	}
	return h, distributions.ChiSquarePValue(h, float64(k-1)), true
}

// MannWhitney computes the U statistic of a (U1) with a two-sided p-value.
// Small samples without ties use the exact distribution, otherwise the
// tie-corrected normal approximation with continuity correction.
func MannWhitney(a, b []float64) (u, pValue float64, ok bool) {
	n1, n2 := len(a), len(b)
	if n1 == 0 || n2 == 0 {
		return 0, 1, false
	}

	pooled := make([]float64, 0, n1+n2)
	pooled = append(pooled, a...)
	pooled = append(pooled, b...)
	ranks, ties := Rank(pooled)

	r1 := 0.0
	for _, r := range ranks[:n1] {
		r1 += r
	}
	u = r1 - float64(n1*(n1+1))/2
	u2 := float64(n1*n2) - u

	if n1 <= 8 && n2 <= 8 && ties == 0 {
		small := int(math.Round(math.Min(u, u2)))
		return u, clampProbability(2 * mannWhitneyExactCDF(small, n1, n2)), true
	}

	n := float64(n1 + n2)
	mu := float64(n1*n2) / 2
	variance := float64(n1*n2) / 12 * ((n + 1) - ties/(n*(n-1)))
	if variance <= 0 {
		return u, 1, true
	}
	z := (math.Max(u, u2) - mu - 0.5) / math.Sqrt(variance)
	return u, clampProbability(2 * distributions.NormalCDF(-z)), true
}

// mannWhitneyExactCDF returns P(U <= u) under the null for sample sizes m and n
func mannWhitneyExactCDF(u, m, n int) float64 {
	maxU := m * n
	// counts[i][j][s] built incrementally: ways to get U = s with i from a and j from b
	prev := make([][]float64, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = make([]float64, maxU+1)
		prev[j][0] = 1
	}
	for i := 1; i <= m; i++ {
		cur := make([][]float64, n+1)
		cur[0] = make([]float64, maxU+1)
		cur[0][0] = 1
		for j := 1; j <= n; j++ {
			cur[j] = make([]float64, maxU+1)
			for s := 0; s <= i*j; s++ {
				// largest element from a contributes j to U, or largest is from b
				if s >= j {
					cur[j][s] += prev[j][s-j]
				}
				cur[j][s] += cur[j-1][s]
			}
		}
		prev = cur
	}

	total := 0.0
	cum := 0.0
	for s, c := range prev[n] {
		total += c
		if s <= u {
			cum += c
		}
	}
	if total == 0 {
		return 1
	}
	return cum / total
}

// KolmogorovSmirnovTwoSample computes the two-sample KS distance with an
// asymptotic p-value
func KolmogorovSmirnovTwoSample(a, b []float64) (d, pValue float64, ok bool) {
	n1, n2 := len(a), len(b)
	if n1 == 0 || n2 == 0 {
		return 0, 1, false
	}
	x, y := Sorted(a), Sorted(b)

	i, j := 0, 0
	for i < n1 && j < n2 {
		v := math.Min(x[i], y[j])
		for i < n1 && x[i] <= v {
			i++
		}
		for j < n2 && y[j] <= v {
			j++
		}
		if diff := math.Abs(float64(i)/float64(n1) - float64(j)/float64(n2)); diff > d {
			d = diff
		}
	}
	en := float64(n1*n2) / float64(n1+n2)
	return d, distributions.KolmogorovPValue(d, en), true
}

// WilcoxonResult is the outcome of a Wilcoxon signed-rank test
type WilcoxonResult struct {
	Statistic float64 // min(W+, W−)
	PValue    float64
	Z         float64 // normal-approximation z, used for the effect size
	N         int     // pairs with a non-zero difference
	Exact     bool
}

// WilcoxonSignedRank tests paired samples, discarding zero differences.
// Small samples without ties use the exact null distribution.
func WilcoxonSignedRank(x, y []float64) (WilcoxonResult, bool) {
	if len(x) != len(y) || len(x) == 0 {
		return WilcoxonResult{PValue: 1}, false
	}

	var diffs []float64
	for i := range x {
		if d := x[i] - y[i]; d != 0 {
			diffs = append(diffs, d)
		}
	}
	n := len(diffs)
	if n == 0 {
		return WilcoxonResult{PValue: 1}, true
	}

	abs := make([]float64, n)
	for i, d := range diffs {
		abs[i] = math.Abs(d)
	}
	ranks, ties := Rank(abs)

	plus, minus := 0.0, 0.0
	for i, d := range diffs {
		if d > 0 {
			plus += ranks[i]
		} else {
			minus += ranks[i]
		}
	}
	t := math.Min(plus, minus)

	nf := float64(n)
	mu := nf * (nf + 1) / 4
	variance := nf*(nf+1)*(2*nf+1)/24 - ties/48
	z := 0.0
	if variance > 0 {
		z = (t - mu) / math.Sqrt(variance)
	}

	res := WilcoxonResult{Statistic: t, Z: z, N: n}
	switch {
	case n <= 25 && ties == 0:
		res.Exact = true
		res.PValue = wilcoxonExactTwoSided(t, n)
	case variance > 0:
		res.PValue = distributions.NormalTwoSidedPValue(z)
	default:
		res.PValue = 1
	}
	return res, true
}

func wilcoxonExactTwoSided(tStatistic float64, n int) float64 {
	totalRankSum := n * (n + 1) / 2
	w := int(math.Round(tStatistic))
	if w < 0 {
		w = 0
	}
	if totalRankSum-w < w {
		w = totalRankSum - w
	}

	// dp[s] = number of sign assignments producing W+ = s
	dp := make([]uint64, totalRankSum+1)
	dp[0] = 1
	for r := 1; r <= n; r++ {
		for s := totalRankSum; s >= r; s-- {
			dp[s] += dp[s-r]
		}
	}

	var cum uint64
	for s := 0; s <= w; s++ {
		cum += dp[s]
	}
	total := float64(uint64(1) << uint(n))
	return clampProbability(2 * float64(cum) / total)
}

// Friedman ranks each row (subject) across k conditions and computes the
// tie-corrected Friedman chi-square. rankMeans holds the mean rank per condition.
func Friedman(rows [][]float64) (q, pValue float64, rankMeans []float64, ok bool) {
	n := len(rows)
	if n == 0 {
		return 0, 1, nil, false
	}
	k := len(rows[0])
	if k < 2 {
		return 0, 1, nil, false
	}

	rankSums := make([]float64, k)
	ties := 0.0
	for _, row := range rows {
		if len(row) != k {
			return 0, 1, nil, false
		}
		r, t := Rank(row)
		for j, v := range r {
			rankSums[j] += v
		}
		ties += t
	}

	nf, kf := float64(n), float64(k)
	rankMeans = make([]float64, k)
	sumSq := 0.0
	for j, s := range rankSums {
		rankMeans[j] = s / nf
		sumSq += s * s
	}

	correction := 1 - ties/(nf*kf*(kf*kf-1))
	if correction <= 0 {
		return 0, 1, rankMeans, true
	}
	q = (12/(nf*kf*(kf+1))*sumSq - 3*nf*(kf+1)) / correction
	if q < 0 {
		q = 0
	}
	return q, distributions.ChiSquarePValue(q, kf-1), rankMeans, true
}

// FisherExact computes the sample odds ratio and the two-sided p-value of
// the 2×2 table [[a, b], [c, d]]. The odds ratio is +Inf when b·c = 0 < a·d
// and NaN when both products are zero.
func FisherExact(a, b, c, d int) (oddsRatio, pValue float64) {
	switch {
	case b*c != 0:
		oddsRatio = float64(a*d) / float64(b*c)
	case a*d != 0:
		oddsRatio = math.Inf(1)
	default:
		oddsRatio = math.NaN()
	}

	row1, col1, n := a+b, a+c, a+b+c+d
	if n == 0 {
		return oddsRatio, 1
	}
	lo := max(0, col1-(n-row1))
	hi := min(row1, col1)

	logDenom := distributions.LogChoose(n, col1)
	prob := func(x int) float64 {
		return math.Exp(distributions.LogChoose(row1, x) + distributions.LogChoose(n-row1, col1-x) - logDenom)
	}

	observed := prob(a)
	cutoff := observed * (1 + 1e-7)
	for x := lo; x <= hi; x++ {
		if p := prob(x); p <= cutoff {
			pValue += p
		}
	}
	return oddsRatio, clampProbability(pValue)
}
