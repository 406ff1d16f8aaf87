package regression

import (
	"math"
	"math/rand"
)

// Scaler standardizes columns to zero mean and unit variance. Constant
// columns keep a unit scale so they map to zero.
type Scaler struct {
	Mean []float64
	Std  []float64
}

// FitScaler learns column means and population standard deviations
func FitScaler(x [][]float64) *Scaler {
	p := len(x[0])
	s := &Scaler{Mean: make([]float64, p), Std: make([]float64, p)}
	n := float64(len(x))
	for _, row := range x {
		for j, v := range row {
			s.Mean[j] += v
		}
	}
	for j := range s.Mean {
		s.Mean[j] /= n
	}
	for _, row := range x {
		for j, v := range row {
			d := v - s.Mean[j]
			s.Std[j] += d * d
		}
	}
	for j := range s.Std {
		s.Std[j] = math.Sqrt(s.Std[j] / n)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return s
}

// TransformRow standardizes one row into a new slice
func (s *Scaler) TransformRow(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}

// Transform standardizes every row
func (s *Scaler) Transform(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = s.TransformRow(row)
	}
	return out
}

// scaled fits a scaler on its training data before fitting the inner model
type scaled struct {
	scaler *Scaler
	inner  Regressor
}

func (m *scaled) Fit(x [][]float64, y []float64) error {
	m.scaler = FitScaler(x)
	return m.inner.Fit(m.scaler.Transform(x), y)
}

func (m *scaled) Predict(row []float64) float64 {
	return m.inner.Predict(m.scaler.TransformRow(row))
}

// TrainTestSplit shuffles 0..n-1 with seed and holds out ceil(n·testSize)
// indices for testing, keeping at least one row on each side
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Ceil(float64(n) * testSize))
	nTest = max(1, min(nTest, n-1))
	return perm[nTest:], perm[:nTest]
}

// KFold splits positions 0..n-1 into k contiguous folds; the first n mod k
// folds get one extra position
func KFold(n, k int) [][]int {
	if k > n {
		k = n
	}
	folds := make([][]int, k)
	start := 0
	for f := 0; f < k; f++ {
		size := n / k
		if f < n%k {
			size++
		}
		folds[f] = make([]int, size)
		for i := range folds[f] {
			folds[f][i] = start + i
		}
		start += size
	}
	return folds
}

func pick(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for k, i := range idx {
		xs[k] = x[i]
		ys[k] = y[i]
	}
	return xs, ys
}

// complement returns 0..n-1 without the positions in fold
func complement(n int, fold []int) []int {
	skip := make(map[int]bool, len(fold))
	for _, i := range fold {
		skip[i] = true
	}
	out := make([]int, 0, n-len(fold))
	for i := 0; i < n; i++ {
		if !skip[i] {
			out = append(out, i)
		}
	}
	return out
}
