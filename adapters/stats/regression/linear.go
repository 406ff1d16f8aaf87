package regression

import (
	"fmt"
	"math"

	"socialstats/domain/core"

	sajari "github.com/sajari/regression"
	"gonum.org/v1/gonum/mat"
)

// OLS is ordinary least squares with an intercept
type OLS struct {
	model *sajari.Regression
	coef  []float64
}

func (m *OLS) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 {
		return core.NewInsufficientDataError("ols", 0, 2)
	}
	r := new(sajari.Regression)
	r.SetObserved("target")
	for j := range x[0] {
		r.SetVar(j, fmt.Sprintf("x%d", j))
	}
	for i, row := range x {
		r.Train(sajari.DataPoint(y[i], row))
	}
	if err := r.Run(); err != nil {
		return fmt.Errorf("ols: %w", err)
	}

	coef := make([]float64, len(x[0]))
	for j := range coef {
		coef[j] = r.Coeff(j + 1)
		if math.IsNaN(coef[j]) || math.IsInf(coef[j], 0) {
			return fmt.Errorf("ols: design matrix is rank deficient")
		}
	}
	m.model, m.coef = r, coef
	return nil
}

func (m *OLS) Predict(row []float64) float64 {
	if m.model == nil {
		return math.NaN()
	}
	v, err := m.model.Predict(row)
	if err != nil {
		return math.NaN()
	}
	return v
}

func (m *OLS) Coefficients() []float64 { return m.coef }

// center returns the column means of x and the mean of y
func center(x [][]float64, y []float64) (xMean []float64, yMean float64) {
	p := len(x[0])
	xMean = make([]float64, p)
	for i, row := range x {
		for j, v := range row {
			xMean[j] += v
		}
		yMean += y[i]
	}
	n := float64(len(x))
	for j := range xMean {
		xMean[j] /= n
	}
	return xMean, yMean / n
}

// Ridge minimizes ||y − Xβ − b||² + α||β||² with an unpenalized intercept
type Ridge struct {
	Alpha float64

	coef      []float64
	intercept float64
}

func (m *Ridge) Fit(x [][]float64, y []float64) error {
	if len(x) < 2 {
		return core.NewInsufficientDataError("ridge", len(x), 2)
	}
	p := len(x[0])
	xMean, yMean := center(x, y)

	gram := mat.NewSymDense(p, nil)
	xty := mat.NewVecDense(p, nil)
	for i, row := range x {
		for a := 0; a < p; a++ {
			da := row[a] - xMean[a]
			xty.SetVec(a, xty.AtVec(a)+da*(y[i]-yMean))
			for b := a; b < p; b++ {
				gram.SetSym(a, b, gram.At(a, b)+da*(row[b]-xMean[b]))
			}
		}
	}
	for a := 0; a < p; a++ {
		gram.SetSym(a, a, gram.At(a, a)+m.Alpha)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return fmt.Errorf("ridge: normal equations are not positive definite")
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, xty); err != nil {
		return fmt.Errorf("ridge: %w", err)
	}

	m.coef = make([]float64, p)
	m.intercept = yMean
	for j := range m.coef {
		m.coef[j] = beta.AtVec(j)
		m.intercept -= m.coef[j] * xMean[j]
	}
	return nil
}

func (m *Ridge) Predict(row []float64) float64 {
	return linearPredict(m.intercept, m.coef, row)
}

func (m *Ridge) Coefficients() []float64 { return m.coef }

func linearPredict(intercept float64, coef, row []float64) float64 {
	if coef == nil {
		return math.NaN()
	}
	v := intercept
	for j, c := range coef {
		v += c * row[j]
	}
	return v
}

// ElasticNet minimizes 1/(2n)·||y − Xβ − b||² + α·ρ·||β||₁ + α·(1−ρ)/2·||β||²
// by cyclic coordinate descent. L1Ratio ρ = 1 is the lasso.
type ElasticNet struct {
	Alpha   float64
	L1Ratio float64
	// MaxIter and Tol default to 1000 and 1e-4
	MaxIter int
	Tol     float64

	coef      []float64
	intercept float64
}

func softThreshold(z, gamma float64) float64 {
	switch {
	case z > gamma:
		return z - gamma
	case z < -gamma:
		return z + gamma
	default:
		return 0
	}
}

func (m *ElasticNet) Fit(x [][]float64, y []float64) error {
	n := len(x)
	if n < 2 {
		return core.NewInsufficientDataError("elastic net", n, 2)
	}
	maxIter, tol := m.MaxIter, m.Tol
	if maxIter <= 0 {
		maxIter = 1000
	}
	if tol <= 0 {
		tol = 1e-4
	}

	p := len(x[0])
	xMean, yMean := center(x, y)
	nf := float64(n)

	// centered columns and their scaled squared norms
	cols := make([][]float64, p)
	norms := make([]float64, p)
	for j := 0; j < p; j++ {
		cols[j] = make([]float64, n)
		for i, row := range x {
			cols[j][i] = row[j] - xMean[j]
			norms[j] += cols[j][i] * cols[j][i]
		}
		norms[j] /= nf
	}
	residual := make([]float64, n)
	for i := range residual {
		residual[i] = y[i] - yMean
	}

	l1 := m.Alpha * m.L1Ratio
	l2 := m.Alpha * (1 - m.L1Ratio)
	coef := make([]float64, p)
	for iter := 0; iter < maxIter; iter++ {
		maxDelta, maxCoef := 0.0, 0.0
		for j := 0; j < p; j++ {
			if norms[j] == 0 {
				continue
			}
			old := coef[j]
			rho := 0.0
			for i, v := range cols[j] {
				rho += v * (residual[i] + v*old)
			}
			rho /= nf
			coef[j] = softThreshold(rho, l1) / (norms[j] + l2)

			if delta := coef[j] - old; delta != 0 {
				for i, v := range cols[j] {
					residual[i] -= v * delta
				}
				maxDelta = math.Max(maxDelta, math.Abs(delta))
			}
			maxCoef = math.Max(maxCoef, math.Abs(coef[j]))
		}
		if maxCoef == 0 || maxDelta/maxCoef < tol {
			break
		}
	}

	m.coef = coef
	m.intercept = yMean
	for j := range coef {
		m.intercept -= coef[j] * xMean[j]
	}
	return nil
}

func (m *ElasticNet) Predict(row []float64) float64 {
	return linearPredict(m.intercept, m.coef, row)
}

func (m *ElasticNet) Coefficients() []float64 { return m.coef }
