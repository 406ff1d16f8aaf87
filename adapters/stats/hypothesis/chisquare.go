package hypothesis

import (
	"math"
	"sort"

	"socialstats/domain/dataset"
	"socialstats/domain/stats"
	"socialstats/internal/analysis/numeric"
)

type contingency struct {
	rows, cols []string
	observed   [][]float64
	rowSums    []float64
	colSums    []float64
	total      float64
}

// crossTabulate counts label pairs over rows where both labels are present.
// Categories are sorted so the table layout does not depend on row order.
func crossTabulate(a, b []string) contingency {
	rowIdx := make(map[string]int)
	colIdx := make(map[string]int)
	for i := range a {
		if a[i] == "" || b[i] == "" {
			continue
		}
		rowIdx[a[i]] = 0
		colIdx[b[i]] = 0
	}

	t := contingency{rows: sortedKeys(rowIdx), cols: sortedKeys(colIdx)}
	for i, r := range t.rows {
		rowIdx[r] = i
	}
	for j, c := range t.cols {
		colIdx[c] = j
	}

	t.observed = make([][]float64, len(t.rows))
	for i := range t.observed {
		t.observed[i] = make([]float64, len(t.cols))
	}
	t.rowSums = make([]float64, len(t.rows))
	t.colSums = make([]float64, len(t.cols))
	for i := range a {
		if a[i] == "" || b[i] == "" {
			continue
		}
		r, c := rowIdx[a[i]], colIdx[b[i]]
		t.observed[r][c]++
		t.rowSums[r]++
		t.colSums[c]++
		t.total++
	}
	return t
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ChiSquare tests independence of two categorical columns. Tables with one
// degree of freedom use the Yates continuity correction; 2×2 tables also get
// Fisher's exact test. Returns nil unless both variables have at least two
// observed categories.
func (s *Suite) ChiSquare(ds *dataset.Dataset, rowColumn, colColumn string) *stats.TestResult {
	a, okA := ds.Labels(rowColumn)
	b, okB := ds.Labels(colColumn)
	if !okA || !okB {
		s.logger.Debug("chi-square %s×%s: column missing", rowColumn, colColumn)
		return nil
	}
	t := crossTabulate(a, b)
	if len(t.rows) < 2 || len(t.cols) < 2 {
		s.logger.Debug("chi-square %s×%s: table is %d×%d", rowColumn, colColumn, len(t.rows), len(t.cols))
		return nil
	}

	dof := (len(t.rows) - 1) * (len(t.cols) - 1)
	yates := dof == 1

	expected := make([][]float64, len(t.rows))
	residuals := make([][]float64, len(t.rows))
	chi2, g := 0.0, 0.0
	minExpected := math.Inf(1)
	var maxCell stats.CellContribution
	maxCell.Contribution = -1

	for i := range t.rows {
		expected[i] = make([]float64, len(t.cols))
		residuals[i] = make([]float64, len(t.cols))
		for j := range t.cols {
			o := t.observed[i][j]
			e := t.rowSums[i] * t.colSums[j] / t.total
			expected[i][j] = e
			minExpected = math.Min(minExpected, e)

			diff := o - e
			residuals[i][j] = diff / math.Sqrt(e)

			contribution := diff * diff / e
			if contribution > maxCell.Contribution {
				maxCell = stats.CellContribution{
					Row:          t.rows[i],
					Column:       t.cols[j],
					Observed:     o,
					Expected:     e,
					Contribution: contribution,
				}
			}

			if yates {
				adj := math.Max(0, math.Abs(diff)-0.5)
				chi2 += adj * adj / e
			} else {
				chi2 += contribution
			}
			if o > 0 {
				g += 2 * o * math.Log(o/e)
			}
		}
	}

	p := s.dist.ChiSquarePValue(chi2, float64(dof))
	minDim := math.Min(float64(len(t.rows)), float64(len(t.cols)))
	v := math.Sqrt(chi2 / (t.total * (minDim - 1)))

	r := newResult(stats.TestChiSquare, rowColumn, colColumn)
	r.Statistic = chi2
	r.PValue = p
	r.SampleSize = int(t.total)
	r.Effect = stats.EffectSize{
		Measure:   "cramers_v",
		Value:     v,
		Magnitude: stats.Bucket(v, 0.1, 0.3, 0.5),
	}

	details := &stats.ChiSquareDetails{
		RowVariable:           rowColumn,
		ColumnVariable:        colColumn,
		RowLabels:             t.rows,
		ColumnLabels:          t.cols,
		Observed:              t.observed,
		Expected:              expected,
		StandardizedResiduals: residuals,
		DegreesOfFreedom:      dof,
		YatesCorrected:        yates,
		MinExpected:           minExpected,
		LikelihoodRatio:       stats.NewDiagnostic(stats.TestLikelihoodRatio, g, s.dist.ChiSquarePValue(g, float64(dof))),
		MaxContribution:       maxCell,
	}
	if minExpected < 5 {
		s.logger.Debug("chi-square %s×%s: minimum expected count %.2f below 5", rowColumn, colColumn, minExpected)
	}

	if len(t.rows) == 2 && len(t.cols) == 2 {
		o := t.observed
		odds, fp := numeric.FisherExact(int(o[0][0]), int(o[0][1]), int(o[1][0]), int(o[1][1]))
		fisher := &stats.FisherExact{PValue: fp, Significant: fp < stats.Alpha}
		if !math.IsInf(odds, 0) && !math.IsNaN(odds) {
			fisher.OddsRatio = &odds
		}
		details.Fisher = fisher
	}

	r.Details = details
	return finish(r)
}
