package numeric

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// IQROutliers returns positions of values outside [Q1 − 1.5·IQR, Q3 + 1.5·IQR]
func IQROutliers(data []float64) []int {
	if len(data) < 4 {
		return nil
	}
	sorted := Sorted(data)
	q1, q3 := Quantile(sorted, 0.25), Quantile(sorted, 0.75)
	iqr := q3 - q1
	lower, upper := q1-1.5*iqr, q3+1.5*iqr

	var out []int
	for i, v := range data {
		if v < lower || v > upper {
			out = append(out, i)
		}
	}
	return out
}

// ZScoreOutliers returns positions whose population z-score exceeds threshold
func ZScoreOutliers(data []float64, threshold float64) []int {
	if len(data) < 2 {
		return nil
	}
	mean := stat.Mean(data, nil)
	std := PopulationStd(data)
	if std == 0 {
		return nil
	}

	var out []int
	for i, v := range data {
		if math.Abs(v-mean)/std > threshold {
			out = append(out, i)
		}
	}
	return out
}

// MahalanobisOutliers returns positions of rows whose Mahalanobis distance
// from the column means exceeds threshold. ok is false when the covariance
// matrix is not positive definite.
func MahalanobisOutliers(rows [][]float64, threshold float64) ([]int, bool) {
	n := len(rows)
	if n < 3 {
		return nil, false
	}
	p := len(rows[0])
	if n <= p {
		return nil, false
	}

	x := mat.NewDense(n, p, nil)
	for i, row := range rows {
		x.SetRow(i, row)
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, x, nil)

	var chol mat.Cholesky
	if ok := chol.Factorize(&cov); !ok {
		return nil, false
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, false
	}

	means := make([]float64, p)
	for j := 0; j < p; j++ {
		means[j] = stat.Mean(mat.Col(nil, j, x), nil)
	}

	var out []int
	diff := mat.NewVecDense(p, nil)
	for i, row := range rows {
		for j, v := range row {
			diff.SetVec(j, v-means[j])
		}
		d2 := mat.Inner(diff, &inv, diff)
		if d2 > 0 && math.Sqrt(d2) > threshold {
			out = append(out, i)
		}
	}
	return out, true
}
