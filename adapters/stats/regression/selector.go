package regression

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"socialstats/domain/core"
	"socialstats/domain/dataset"
	"socialstats/domain/stats"
	"socialstats/internal"
	"socialstats/internal/errors"

	"golang.org/x/sync/errgroup"
)

// MinRows is the smallest number of complete rows a fit accepts
const MinRows = 10

const overfitGap = 0.1

// Options configures a Selector
type Options struct {
	Seed            int64
	TestSize        float64
	CVFolds         int
	TuningFolds     int
	Tune            bool
	BootstrapRounds int
	ScalerMode      string
	Workers         int
	// Models restricts the candidate set by name; empty means every model
	Models []string
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{
		Seed:            42,
		TestSize:        0.2,
		CVFolds:         5,
		TuningFolds:     3,
		Tune:            true,
		BootstrapRounds: 100,
		ScalerMode:      ScalerTrain,
		Workers:         runtime.GOMAXPROCS(0),
	}
}

// Selector trains the candidate models and picks the best by test R²
type Selector struct {
	opts   Options
	logger *internal.Logger
}

// NewSelector normalizes opts; a nil logger falls back to the default
func NewSelector(opts Options, logger *internal.Logger) *Selector {
	def := DefaultOptions()
	if opts.TestSize <= 0 || opts.TestSize >= 1 {
		opts.TestSize = def.TestSize
	}
	if opts.CVFolds < 2 {
		opts.CVFolds = def.CVFolds
	}
	if opts.TuningFolds < 2 {
		opts.TuningFolds = def.TuningFolds
	}
	if opts.BootstrapRounds < 0 {
		opts.BootstrapRounds = 0
	}
	opts.ScalerMode = strings.ToLower(opts.ScalerMode)
	if opts.ScalerMode != ScalerFull {
		opts.ScalerMode = ScalerTrain
	}
	if opts.Workers < 1 {
		opts.Workers = def.Workers
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Selector{opts: opts, logger: logger.With("regression")}
}

// usableFeatures keeps numeric, distinct, non-target columns in request order
func usableFeatures(ds *dataset.Dataset, target string, features []string) []string {
	seen := map[string]bool{target: true}
	var out []string
	for _, f := range features {
		if seen[f] {
			continue
		}
		seen[f] = true
		if t, ok := ds.Type(f); ok && t == dataset.TypeNumeric {
			out = append(out, f)
		}
	}
	return out
}

// FitAndSelect trains every configured candidate on an 80/20 split of the
// rows complete on target and features. It returns nil when the target is
// absent, no feature is usable, or fewer than MinRows rows are complete.
// Unknown model names and cancellation are errors; a failing candidate is
// recorded on the candidate instead.
func (s *Selector) FitAndSelect(ctx context.Context, ds *dataset.Dataset, target string, features []string) (*stats.ModelSelectionResult, error) {
	specs, err := LookupModels(s.opts.Models)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, nil
	}
	if t, ok := ds.Type(target); !ok || t != dataset.TypeNumeric {
		s.logger.Debug("target %q is absent or not numeric", target)
		return nil, nil
	}
	features = usableFeatures(ds, target, features)
	if len(features) == 0 {
		s.logger.Debug("no usable features for target %q", target)
		return nil, nil
	}
	data, _, _ := ds.NumericMatrix(append([]string{target}, features...))
	if len(data) < MinRows {
		s.logger.Debug("%s: %d complete rows, need %d", target, len(data), MinRows)
		return nil, nil
	}

	x := make([][]float64, len(data))
	y := make([]float64, len(data))
	for i, row := range data {
		y[i] = row[0]
		x[i] = row[1:]
	}

	var full *Scaler
	if s.opts.ScalerMode == ScalerFull {
		full = FitScaler(x)
		x = full.Transform(x)
	}

	trainIdx, testIdx := TrainTestSplit(len(y), s.opts.TestSize, s.opts.Seed)
	xTrain, yTrain := pick(x, y, trainIdx)
	xTest, yTest := pick(x, y, testIdx)
	t := trainer{seed: s.opts.Seed, mode: s.opts.ScalerMode, workers: s.opts.Workers}

	candidates := make([]stats.ModelCandidate, len(specs))
	models := make([]Regressor, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, spec := range specs {
		g.Go(func() error {
			c, m, err := s.evaluate(gctx, t, spec, features, xTrain, yTrain, xTest, yTest)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.logger.Warn("%s on %s failed: %v", spec.Name, target, err)
				c = stats.ModelCandidate{Name: spec.Name, Hyperparameters: spec.params(), Error: err.Error()}
			}
			candidates[i] = c
			models[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := -1
	for i, c := range candidates {
		if c.Failed() {
			continue
		}
		if best < 0 || c.Test.R2 > candidates[best].Test.R2 {
			best = i
		}
	}
	if best < 0 {
		return nil, errors.InternalError(fmt.Sprintf("every candidate model failed for target %q", target))
	}

	result := &stats.ModelSelectionResult{
		ID:         core.NewID(),
		Target:     target,
		Features:   features,
		Rows:       len(y),
		TrainRows:  len(yTrain),
		TestRows:   len(yTest),
		Seed:       s.opts.Seed,
		ScalerMode: s.opts.ScalerMode,
		Candidates: candidates,
		Best:       candidates[best].Name,
		BestTestR2: candidates[best].Test.R2,
		ComputedAt: core.Now(),
		Model:      &fittedModel{name: candidates[best].Name, features: append([]string(nil), features...), scaler: full, model: models[best]},
	}

	pred := predictAll(models[best], xTest)
	residuals := make([]float64, len(yTest))
	for i := range yTest {
		residuals[i] = yTest[i] - pred[i]
	}
	result.Residuals = residualDiagnostics(xTest, residuals)
	result.FeatureRanking = RankFeatures(features, x, y)
	result.TopFeatures = TopFeatures(result.FeatureRanking, topFeatures)

	bestSpec := specs[best]
	if s.opts.Tune {
		if result.Tuning, err = t.tune(ctx, bestSpec, xTrain, yTrain, s.opts.TuningFolds); err != nil {
			return nil, err
		}
		if result.Tuning == nil {
			s.logger.Warn("%s: no %s grid point could be fitted, tuning skipped", target, bestSpec.Name)
		}
	}
	if result.Stability, err = t.bootstrap(ctx, bestSpec, xTrain, yTrain, xTest, yTest, s.opts.BootstrapRounds); err != nil {
		return nil, err
	}
	if result.Stability == nil && s.opts.BootstrapRounds > 0 {
		s.logger.Warn("%s: too few bootstrap refits of %s succeeded, stability skipped", target, bestSpec.Name)
	}

	s.logger.Info("%s: selected %s (test R²=%.3f) from %d candidates", target, result.Best, result.BestTestR2, len(candidates))
	return result, nil
}

// evaluate fits one candidate on the training split and scores it
func (s *Selector) evaluate(ctx context.Context, t trainer, spec ModelSpec, features []string, xTrain [][]float64, yTrain []float64, xTest [][]float64, yTest []float64) (stats.ModelCandidate, Regressor, error) {
	if err := ctx.Err(); err != nil {
		return stats.ModelCandidate{}, nil, err
	}
	m, err := t.fit(spec, xTrain, yTrain)
	if err != nil {
		return stats.ModelCandidate{}, nil, err
	}
	trainPred := predictAll(m, xTrain)
	testPred := predictAll(m, xTest)
	if !allFinite(trainPred) || !allFinite(testPred) {
		return stats.ModelCandidate{}, nil, fmt.Errorf("%s: non-finite predictions", spec.Name)
	}

	cv, err := t.crossValidate(ctx, spec, xTrain, yTrain, s.opts.CVFolds)
	if err != nil {
		return stats.ModelCandidate{}, nil, err
	}

	c := stats.ModelCandidate{
		Name:            spec.Name,
		Hyperparameters: spec.params(),
		Train:           Metrics(yTrain, trainPred),
		Test:            Metrics(yTest, testPred),
		CVScores:        cv.Scores,
		CVMean:          cv.Mean,
		CVStd:           cv.Std,
		CVRMSE:          cv.RMSE,
	}
	c.Overfitting = c.Train.R2-c.Test.R2 > overfitGap
	c.FeatureImportance, c.ImportanceKind = importance(m, features)
	return c, m, nil
}

// importance maps features to coefficients or impurity importances
func importance(m Regressor, features []string) (map[string]float64, string) {
	if s, ok := m.(*scaled); ok {
		m = s.inner
	}
	var values []float64
	var kind string
	switch v := m.(type) {
	case importanceModel:
		values, kind = v.Importances(), "impurity"
	case coefficientModel:
		values, kind = v.Coefficients(), "coefficient"
	default:
		return nil, ""
	}
	if len(values) != len(features) {
		return nil, ""
	}
	out := make(map[string]float64, len(features))
	for j, f := range features {
		out[f] = values[j]
	}
	return out, kind
}
