package numeric

import (
	"math"
	"sort"

	"socialstats/domain/stats"
)

// Lowess smooths y against x with locally weighted linear regression using
// a tricube kernel over the nearest frac·n points and robustifying
// iterations with bisquare weights. Points are returned sorted by x.
func Lowess(x, y []float64, frac float64, iterations int) []stats.TrendPoint {
	n := len(x)
	if n < 3 || len(y) != n || frac <= 0 {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return x[order[a]] < x[order[b]] })
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, o := range order {
		xs[i], ys[i] = x[o], y[o]
	}

	window := int(math.Ceil(frac * float64(n)))
	if window < 2 {
		window = 2
	}
	if window > n {
		window = n
	}

	robust := make([]float64, n)
	for i := range robust {
		robust[i] = 1
	}
	fitted := make([]float64, n)
	dist := make([]float64, n)
	weights := make([]float64, n)

	for iter := 0; iter <= iterations; iter++ {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				dist[j] = math.Abs(xs[j] - xs[i])
			}
			h := kthSmallest(dist, window)

			for j := 0; j < n; j++ {
				w := 0.0
				switch {
				case h == 0:
					if dist[j] == 0 {
						w = 1
					}
				case dist[j] < h:
					u := dist[j] / h
					t := 1 - u*u*u
					w = t * t * t
				}
				weights[j] = w * robust[j]
			}
			// keep the previous fit when robust weights zero out the window
			if v := weightedLinearAt(xs, ys, weights, xs[i]); !math.IsNaN(v) {
				fitted[i] = v
			} else if iter == 0 {
				fitted[i] = ys[i]
			}
		}

		if iter == iterations {
			break
		}

		residuals := make([]float64, n)
		for i := range residuals {
			residuals[i] = math.Abs(ys[i] - fitted[i])
		}
		s := Median(residuals)
		if s == 0 {
			break
		}
		for i, r := range residuals {
			u := r / (6 * s)
			if u < 1 {
				b := 1 - u*u
				robust[i] = b * b
			} else {
				robust[i] = 0
			}
		}
	}

	out := make([]stats.TrendPoint, n)
	for i := range out {
		out[i] = stats.TrendPoint{X: xs[i], Y: fitted[i]}
	}
	return out
}

// weightedLinearAt evaluates the weighted least-squares line at x0, falling
// back to the weighted mean when x has no weighted spread
func weightedLinearAt(x, y, w []float64, x0 float64) float64 {
	sw, sx, sy := 0.0, 0.0, 0.0
	for i := range x {
		sw += w[i]
		sx += w[i] * x[i]
		sy += w[i] * y[i]
	}
	if sw == 0 {
		return math.NaN()
	}
	mx, my := sx/sw, sy/sw

	sxx, sxy := 0.0, 0.0
	for i := range x {
		dx := x[i] - mx
		sxx += w[i] * dx * dx
		sxy += w[i] * dx * (y[i] - my)
	}
	if sxx <= 1e-12*sw {
		return my
	}
	return my + sxy/sxx*(x0-mx)
}

func kthSmallest(data []float64, k int) float64 {
	cp := Sorted(data)
	return cp[k-1]
}
