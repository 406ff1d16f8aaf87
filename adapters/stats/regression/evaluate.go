package regression

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"socialstats/domain/stats"
	"socialstats/internal/analysis/numeric"

	"golang.org/x/sync/errgroup"
)

// Scaler modes
const (
	ScalerTrain = "train"
	ScalerFull  = "full"
)

// trainer builds and scores models with the selector's shared settings
type trainer struct {
	seed    int64
	mode    string
	workers int
}

// model returns an untrained regressor; in train mode the scaler is part of the fit
func (t trainer) model(spec ModelSpec) Regressor {
	m := spec.New(t.seed)
	if t.mode == ScalerTrain {
		return &scaled{inner: m}
	}
	return m
}

func (t trainer) fit(spec ModelSpec, x [][]float64, y []float64) (Regressor, error) {
	m := t.model(spec)
	if err := m.Fit(x, y); err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Name, err)
	}
	return m, nil
}

// cvScores holds per-fold held-out R² and the pooled RMSE
type cvScores struct {
	Scores []float64
	Mean   float64
	Std    float64
	RMSE   float64
}

// crossValidate runs k-fold CV over x, y; folds are fitted concurrently.
// A fold whose training part cannot be fitted is skipped; at least two folds
// must succeed.
func (t trainer) crossValidate(ctx context.Context, spec ModelSpec, x [][]float64, y []float64, k int) (cvScores, error) {
	folds := KFold(len(y), k)
	scores := make([]float64, len(folds))
	sse := make([]float64, len(folds))
	fitErrs := make([]error, len(folds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for f, fold := range folds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			xTrain, yTrain := pick(x, y, complement(len(y), fold))
			xHold, yHold := pick(x, y, fold)
			m, err := t.fit(spec, xTrain, yTrain)
			if err != nil {
				fitErrs[f] = err
				return nil
			}
			pred := predictAll(m, xHold)
			scores[f] = numeric.RSquared(yHold, pred)
			for i := range pred {
				d := yHold[i] - pred[i]
				sse[f] += d * d
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return cvScores{}, err
	}

	var kept []float64
	total, rows := 0.0, 0
	var firstErr error
	for f, fold := range folds {
		if fitErrs[f] != nil {
			if firstErr == nil {
				firstErr = fitErrs[f]
			}
			continue
		}
		kept = append(kept, scores[f])
		total += sse[f]
		rows += len(fold)
	}
	if len(kept) < 2 {
		return cvScores{}, fmt.Errorf("cross-validation: %d of %d folds fitted: %w", len(kept), len(folds), firstErr)
	}
	mean, _ := numeric.MeanStd(kept)
	return cvScores{
		Scores: kept,
		Mean:   mean,
		Std:    numeric.PopulationStd(kept),
		RMSE:   math.Sqrt(total / float64(rows)),
	}, nil
}

// tune grid-searches the family of spec with k-fold CV on the training
// split. The first combination with the highest mean score wins.
func (t trainer) tune(ctx context.Context, spec ModelSpec, x [][]float64, y []float64, k int) (*stats.TuningResult, error) {
	grid := spec.Grid()
	if len(grid) == 0 {
		return nil, nil
	}
	means := make([]float64, len(grid))
	ok := make([]bool, len(grid))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for i, params := range grid {
		g.Go(func() error {
			cv, err := t.crossValidate(gctx, spec.With(params), x, y, k)
			if err != nil {
				// A grid point that cannot be fitted drops out of the search
				return gctx.Err()
			}
			means[i], ok[i] = cv.Mean, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best, evaluated := -1, 0
	for i, m := range means {
		if !ok[i] {
			continue
		}
		evaluated++
		if best < 0 || m > means[best] {
			best = i
		}
	}
	if best < 0 {
		return nil, nil
	}
	return &stats.TuningResult{
		Model:      spec.Name,
		BestParams: spec.With(grid[best]).params(),
		BestScore:  means[best],
		Folds:      k,
		Evaluated:  evaluated,
	}, nil
}

// bootstrap refits spec on training resamples and scores each refit on the test split
func (t trainer) bootstrap(ctx context.Context, spec ModelSpec, xTrain [][]float64, yTrain []float64, xTest [][]float64, yTest []float64, rounds int) (*stats.BootstrapStability, error) {
	if rounds <= 0 {
		return nil, nil
	}
	rng := rand.New(rand.NewSource(t.seed))
	samples := make([][]int, rounds)
	for r := range samples {
		samples[r] = make([]int, len(yTrain))
		for i := range samples[r] {
			samples[r][i] = rng.Intn(len(yTrain))
		}
	}

	r2 := make([]float64, rounds)
	ok := make([]bool, rounds)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for r, idx := range samples {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			xs, ys := pick(xTrain, yTrain, idx)
			m, err := t.fit(spec, xs, ys)
			if err != nil {
				// Degenerate resamples are skipped
				return nil
			}
			r2[r], ok[r] = numeric.RSquared(yTest, predictAll(m, xTest)), true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scores := make([]float64, 0, rounds)
	for r, v := range r2 {
		if ok[r] && finite(v) {
			scores = append(scores, v)
		}
	}
	if len(scores) < 2 {
		return nil, nil
	}
	mean, _ := numeric.MeanStd(scores)
	std := numeric.PopulationStd(scores)
	return &stats.BootstrapStability{Rounds: len(scores), MeanR2: mean, StdR2: std, Stable: std < 0.1}, nil
}

// residualDiagnostics summarizes test residuals and runs Breusch-Pagan by
// regressing the squared residuals on the test features
func residualDiagnostics(xTest [][]float64, residuals []float64) *stats.ResidualDiagnostics {
	mean, std := numeric.MeanStd(residuals)
	out := &stats.ResidualDiagnostics{
		ResidualSummary: stats.ResidualSummary{
			Mean:      mean,
			Std:       std,
			Normality: numeric.NormalityReport(residuals),
		},
	}

	sq := make([]float64, len(residuals))
	for i, e := range residuals {
		sq[i] = e * e
	}
	if r2, ok := numeric.OLSRSquared(xTest, sq); ok && finite(r2) {
		lm := float64(len(sq)) * r2
		df := float64(len(xTest[0]))
		out.BreuschPagan = stats.NewDiagnostic(stats.TestBreuschPagan, lm, numeric.NewDistributions().ChiSquarePValue(lm, df))
	}
	return out
}
