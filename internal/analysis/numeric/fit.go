package numeric

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LinearFit fits y = alpha + beta·x by least squares
func LinearFit(x, y []float64) (alpha, beta float64) {
	return stat.LinearRegression(x, y, nil, false)
}

// RSquared is 1 − SSres/SStot. A constant target scores 1 when predicted
// exactly and 0 otherwise.
func RSquared(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	mean := stat.Mean(actual, nil)
	ssRes, ssTot := 0.0, 0.0
	for i, a := range actual {
		ssRes += (a - predicted[i]) * (a - predicted[i])
		ssTot += (a - mean) * (a - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// PolynomialR2 fits y on the powers 1..degree of x with an intercept and
// returns the in-sample R². ok is false when the design is rank deficient.
func PolynomialR2(x, y []float64, degree int) (float64, bool) {
	n := len(x)
	if n <= degree+1 {
		return 0, false
	}
	design := mat.NewDense(n, degree+1, nil)
	for i, v := range x {
		term := 1.0
		for d := 0; d <= degree; d++ {
			design.Set(i, d, term)
			term *= v
		}
	}

	var qr mat.QR
	qr.Factorize(design)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, mat.NewDense(n, 1, append([]float64(nil), y...))); err != nil {
		return 0, false
	}

	var fitted mat.Dense
	fitted.Mul(design, &beta)
	return RSquared(y, mat.Col(nil, 0, &fitted)), true
}

// OLSRSquared regresses y on the columns of x (with intercept) and returns R².
// ok is false when the design is rank deficient.
func OLSRSquared(x [][]float64, y []float64) (float64, bool) {
	n := len(x)
	if n == 0 {
		return 0, false
	}
	p := len(x[0])
	if n <= p+1 {
		return 0, false
	}
	design := mat.NewDense(n, p+1, nil)
	for i, row := range x {
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}

	var qr mat.QR
	qr.Factorize(design)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, mat.NewDense(n, 1, append([]float64(nil), y...))); err != nil {
		return 0, false
	}
	var fitted mat.Dense
	fitted.Mul(design, &beta)
	return RSquared(y, mat.Col(nil, 0, &fitted)), true
}
