package regression

import (
	"math"
	"math/rand"
	"sort"
)

type treeNode struct {
	feature     int
	threshold   float64
	left, right int
	value       float64
	leaf        bool
}

// regressionTree is a CART tree minimizing squared error
type regressionTree struct {
	maxDepth       int // 0 means unbounded
	minSamplesLeaf int
	// maxFeatures limits the features tried per split; 0 tries all
	maxFeatures int
	rng         *rand.Rand

	nodes      []treeNode
	importance []float64
}

func newTree(maxDepth int, rng *rand.Rand) *regressionTree {
	return &regressionTree{maxDepth: maxDepth, minSamplesLeaf: 1, rng: rng}
}

// fit grows the tree on the rows listed in idx (duplicates allowed)
func (t *regressionTree) fit(x [][]float64, y []float64, idx []int) {
	t.nodes = t.nodes[:0]
	t.importance = make([]float64, len(x[0]))
	t.grow(x, y, idx, 0)
}

func (t *regressionTree) grow(x [][]float64, y []float64, idx []int, depth int) int {
	sum, sumSq := 0.0, 0.0
	for _, i := range idx {
		sum += y[i]
		sumSq += y[i] * y[i]
	}
	n := float64(len(idx))
	node := len(t.nodes)
	t.nodes = append(t.nodes, treeNode{value: sum / n, leaf: true})

	if (t.maxDepth > 0 && depth >= t.maxDepth) || len(idx) < 2*t.minSamplesLeaf {
		return node
	}
	if sumSq-sum*sum/n <= 1e-12 {
		return node
	}

	feature, threshold, gain, ok := t.bestSplit(x, y, idx, sum)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	t.importance[feature] += gain

	l := t.grow(x, y, left, depth+1)
	r := t.grow(x, y, right, depth+1)
	t.nodes[node] = treeNode{feature: feature, threshold: threshold, left: l, right: r, value: sum / n}
	return node
}

func (t *regressionTree) candidateFeatures(p int) []int {
	if t.maxFeatures <= 0 || t.maxFeatures >= p || t.rng == nil {
		out := make([]int, p)
		for j := range out {
			out[j] = j
		}
		return out
	}
	return t.rng.Perm(p)[:t.maxFeatures]
}

// bestSplit scans every threshold between distinct sorted values and returns
// the one with the largest reduction of the sum of squared errors
func (t *regressionTree) bestSplit(x [][]float64, y []float64, idx []int, total float64) (feature int, threshold, gain float64, ok bool) {
	n := len(idx)
	parent := total * total / float64(n)
	sorted := make([]int, n)

	for _, f := range t.candidateFeatures(len(x[0])) {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool { return x[sorted[a]][f] < x[sorted[b]][f] })

		leftSum := 0.0
		for k := 0; k < n-1; k++ {
			leftSum += y[sorted[k]]
			nl := k + 1
			if nl < t.minSamplesLeaf || n-nl < t.minSamplesLeaf {
				continue
			}
			lo, hi := x[sorted[k]][f], x[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			rightSum := total - leftSum
			g := leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(n-nl) - parent
			if g > gain+1e-12 {
				feature, threshold, gain, ok = f, lo+(hi-lo)/2, g, true
			}
		}
	}
	return feature, threshold, gain, ok
}

func (t *regressionTree) predict(row []float64) float64 {
	if len(t.nodes) == 0 {
		return math.NaN()
	}
	i := 0
	for !t.nodes[i].leaf {
		if row[t.nodes[i].feature] <= t.nodes[i].threshold {
			i = t.nodes[i].left
		} else {
			i = t.nodes[i].right
		}
	}
	return t.nodes[i].value
}

// normalized returns importances scaled to sum to one
func normalized(imp []float64) []float64 {
	total := 0.0
	for _, v := range imp {
		total += v
	}
	out := make([]float64, len(imp))
	if total == 0 {
		return out
	}
	for j, v := range imp {
		out[j] = v / total
	}
	return out
}
