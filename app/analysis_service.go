package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"socialstats/adapters/stats/cluster"
	"socialstats/adapters/stats/engagement"
	"socialstats/adapters/stats/hypothesis"
	"socialstats/adapters/stats/regression"
	"socialstats/domain/dataset"
	"socialstats/domain/stats"
	"socialstats/internal"
	"socialstats/internal/analysis"
	"socialstats/internal/config"
	"socialstats/internal/errors"
	"socialstats/ports"

	"golang.org/x/sync/semaphore"
)

// Semaphore weights per operation kind; a regression fans out into many fits
const (
	regressionWeight = 2
	clusterWeight    = 1
)

// RegressionRequest asks for model selection on Target; empty Features means
// every other numeric column
type RegressionRequest struct {
	Target   string
	Features []string
}

// ClusterRequest asks for a clustering of Columns; K == 0 searches k
type ClusterRequest struct {
	Columns []string
	K       int
}

// Plan lists the analyses of one batch run
type Plan struct {
	// Derive adds engagement metrics before anything else runs
	Derive      bool
	Tests       []hypothesis.Spec
	Regressions []RegressionRequest
	Clusters    []ClusterRequest
}

// Run is the outcome of a batch: the report and the dataset it describes
type Run struct {
	Report     *stats.AnalysisReport
	Dataset    *dataset.Dataset
	Derivation *engagement.Derivation
	RuntimeMs  int64
}

// AnalysisService wires the engines together and runs plans against a dataset
type AnalysisService struct {
	Deriver  *engagement.Deriver
	Suite    *hypothesis.Suite
	Selector *regression.Selector
	Analyzer *cluster.Analyzer

	analysis config.AnalysisConfig
	workers  int64
	timeout  time.Duration
	logger   *internal.Logger
}

// NewAnalysisService builds every engine from cfg
func NewAnalysisService(cfg *config.Config, logger *internal.Logger) *AnalysisService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	a := cfg.Analysis
	workers := max(a.Workers, 1)

	suiteOpts := hypothesis.DefaultOptions()
	suiteOpts.Lowess = a.Lowess
	suiteOpts.LowessFrac = a.LowessFrac

	return &AnalysisService{
		Deriver:  engagement.NewDeriver(engagement.DefaultConfig(), logger),
		Suite:    hypothesis.NewSuite(suiteOpts, logger),
		Selector: regression.NewSelector(selectorOptions(a, nil), logger),
		Analyzer: cluster.NewAnalyzer(cluster.Options{
			Seed:        a.Seed,
			MaxClusters: a.MaxClusters,
			Workers:     workers,
		}, logger),
		analysis: a,
		workers:  int64(workers),
		timeout:  a.Timeout,
		logger:   logger.With("analysis"),
	}
}

func selectorOptions(a config.AnalysisConfig, models []string) regression.Options {
	return regression.Options{
		Seed:            a.Seed,
		TestSize:        a.TestSize,
		CVFolds:         a.CVFolds,
		TuningFolds:     a.TuningFolds,
		Tune:            a.Tune,
		BootstrapRounds: a.BootstrapRounds,
		ScalerMode:      a.ScalerMode,
		Workers:         max(a.Workers, 1),
		Models:          models,
	}
}

// RestrictModels limits regression to the named candidates
func (s *AnalysisService) RestrictModels(names []string) error {
	if _, err := regression.LookupModels(names); err != nil {
		return err
	}
	s.Selector = regression.NewSelector(selectorOptions(s.analysis, names), s.logger)
	return nil
}

// Load reads a dataset through reader
func (s *AnalysisService) Load(reader ports.DatasetReader) (*dataset.Dataset, error) {
	ds, err := reader.ReadData()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load dataset")
	}
	s.logger.Info("loaded dataset %s: %d rows x %d columns", ds.Fingerprint().Short(), ds.Len(), ds.Width())
	return ds, nil
}

// Run executes plan against ds. Failing operations are recorded as report
// failures; an error is returned only when no report can be built.
func (s *AnalysisService) Run(ctx context.Context, ds *dataset.Dataset, plan Plan) (*Run, error) {
	if ds == nil {
		return nil, errors.InvalidInput("dataset is required")
	}
	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out := &Run{Dataset: ds}
	var results []stats.Result

	if plan.Derive {
		derived, d, err := s.Deriver.Derive(ds)
		if err != nil {
			s.logger.Warn("metric derivation failed: %v", err)
			results = append(results, stats.Failure{Operation: "derive", Target: "engagement", Error: err.Error()})
		} else {
			out.Dataset = derived
			if len(d.Derived) > 0 {
				out.Derivation = &d
			}
		}
	}
	ds = out.Dataset

	for _, o := range s.Suite.RunAll(ctx, ds, plan.Tests) {
		if f, failed := o.Failure(); failed {
			results = append(results, f)
			continue
		}
		if o.Result == nil {
			s.logger.Debug("%s not applicable", o.Spec.Name())
			continue
		}
		results = append(results, o.Result)
	}

	results = append(results, s.runModels(ctx, ds, plan)...)

	out.Report = analysis.Aggregate(ds, results...)
	out.RuntimeMs = time.Since(start).Milliseconds()
	s.logger.Info("batch finished in %dms: %d analyses, %d failures",
		out.RuntimeMs, out.Report.TotalAnalyses, len(out.Report.Failures))
	return out, nil
}

// runModels runs the regression and clustering requests under a weighted
// semaphore. Results keep plan order.
func (s *AnalysisService) runModels(ctx context.Context, ds *dataset.Dataset, plan Plan) []stats.Result {
	type job struct {
		name   string
		op     string
		weight int64
		run    func(context.Context) (stats.Result, error)
	}

	var jobs []job
	for _, req := range plan.Regressions {
		jobs = append(jobs, job{
			name:   fmt.Sprintf("%s ~ %s", req.Target, strings.Join(req.Features, " + ")),
			op:     "regression",
			weight: min(regressionWeight, s.workers),
			run: func(ctx context.Context) (stats.Result, error) {
				r, err := s.Selector.FitAndSelect(ctx, ds, req.Target, req.Features)
				if r == nil {
					return nil, err
				}
				return r, err
			},
		})
	}
	for _, req := range plan.Clusters {
		jobs = append(jobs, job{
			name:   strings.Join(req.Columns, ", "),
			op:     "clustering",
			weight: clusterWeight,
			run: func(ctx context.Context) (stats.Result, error) {
				r, err := s.Analyzer.Cluster(ctx, ds, req.Columns, req.K)
				if r == nil {
					return nil, err
				}
				return r, err
			},
		})
	}

	results := make([]stats.Result, len(jobs))
	sem := semaphore.NewWeighted(s.workers)
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, j.weight); err != nil {
				s.logger.Warn("%s(%s) not started: %v", j.op, j.name, err)
				results[i] = stats.Failure{Operation: j.op, Target: j.name, Error: err.Error()}
				return
			}
			defer sem.Release(j.weight)
			results[i] = s.isolate(ctx, j.op, j.name, j.run)
		}()
	}
	wg.Wait()

	kept := results[:0]
	for _, r := range results {
		if r != nil {
			kept = append(kept, r)
		}
	}
	return kept
}

// isolate runs one operation, turning errors and panics into failures
func (s *AnalysisService) isolate(ctx context.Context, op, name string, run func(context.Context) (stats.Result, error)) (result stats.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("%s(%s) panicked: %v\n%s", op, name, rec, debug.Stack())
			result = stats.Failure{Operation: op, Target: name, Error: fmt.Sprintf("panic: %v", rec)}
		}
	}()

	r, err := run(ctx)
	if err != nil {
		s.logger.Warn("%s(%s) failed: %v", op, name, err)
		return stats.Failure{Operation: op, Target: name, Error: err.Error()}
	}
	if r == nil {
		s.logger.Debug("%s(%s) not applicable", op, name)
	}
	return r
}
