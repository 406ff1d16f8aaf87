package regression

import (
	"math"
	"sort"

	"socialstats/domain/stats"
	"socialstats/internal/analysis/numeric"

	"gonum.org/v1/gonum/stat"
)

const (
	informationBins = 10
	topFeatures     = 3
)

// RankFeatures scores every feature column against y by univariate F
// statistic and binned mutual information, then ranks them by the mean of the
// two max-normalized scores. Ties keep input order.
func RankFeatures(names []string, x [][]float64, y []float64) []stats.FeatureScore {
	n := len(y)
	yBins := discretize(y, informationBins)
	scores := make([]stats.FeatureScore, len(names))
	maxF, maxMI := 0.0, 0.0

	for j, name := range names {
		col := make([]float64, n)
		for i := range x {
			col[i] = x[i][j]
		}
		f, p := fScore(col, y)
		mi := mutualInformation(discretize(col, informationBins), yBins)
		scores[j] = stats.FeatureScore{Feature: name, FScore: f, FPValue: p, MutualInformation: mi}
		maxF = math.Max(maxF, f)
		maxMI = math.Max(maxMI, mi)
	}

	for j := range scores {
		var combined float64
		if maxF > 0 {
			combined += scores[j].FScore / maxF
		}
		if maxMI > 0 {
			combined += scores[j].MutualInformation / maxMI
		}
		scores[j].Combined = combined / 2
	}

	sort.SliceStable(scores, func(a, b int) bool { return scores[a].Combined > scores[b].Combined })
	for i := range scores {
		scores[i].Rank = i + 1
	}
	return scores
}

// TopFeatures returns the names of the first k ranked features
func TopFeatures(ranking []stats.FeatureScore, k int) []string {
	k = min(k, len(ranking))
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = ranking[i].Feature
	}
	return out
}

// fScore is the univariate regression F statistic r²/(1−r²)·(n−2)
func fScore(x, y []float64) (f, pValue float64) {
	n := len(x)
	if n < 3 {
		return 0, 1
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, 1
	}
	r2 := r * r
	if 1-r2 <= 0 {
		return math.MaxFloat64, 0
	}
	f = r2 / (1 - r2) * float64(n-2)
	return f, numeric.NewDistributions().FTestPValue(f, 1, float64(n-2))
}

// discretize assigns each value to one of numBins quantile bins
func discretize(data []float64, numBins int) []int {
	if len(data) == 0 {
		return []int{}
	}
	sorted := numeric.Sorted(data)

	bins := make([]int, len(data))
	for i, val := range data {
		bin := 0
		for b := 1; b < numBins; b++ {
			if val >= sorted[(len(sorted)*b)/numBins] {
				bin = b
			} else {
				break
			}
		}
		bins[i] = bin
	}
	return bins
}

// mutualInformation is I(X;Y) = H(X) + H(Y) − H(X,Y) in bits
func mutualInformation(xBins, yBins []int) float64 {
	hX := entropy(counts(xBins, func(i int) [2]int { return [2]int{xBins[i], 0} }), len(xBins))
	hY := entropy(counts(yBins, func(i int) [2]int { return [2]int{yBins[i], 0} }), len(yBins))
	hXY := entropy(counts(xBins, func(i int) [2]int { return [2]int{xBins[i], yBins[i]} }), len(xBins))
	return math.Max(0, hX+hY-hXY)
}

func counts(bins []int, key func(i int) [2]int) map[[2]int]int {
	out := make(map[[2]int]int)
	for i := range bins {
		out[key(i)]++
	}
	return out
}

// entropy sums in key order so repeated runs agree bit for bit
func entropy(freq map[[2]int]int, n int) float64 {
	if n == 0 {
		return 0
	}
	keys := make([][2]int, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a][0] != keys[b][0] {
			return keys[a][0] < keys[b][0]
		}
		return keys[a][1] < keys[b][1]
	})

	h := 0.0
	for _, k := range keys {
		p := float64(freq[k]) / float64(n)
		h -= p * math.Log2(p)
	}
	return h
}
