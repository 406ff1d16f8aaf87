package hypothesis

import (
	"math"

	"socialstats/domain/core"
	"socialstats/domain/stats"
	"socialstats/domain/stats/brief"
	"socialstats/internal"
	"socialstats/internal/analysis/numeric"
)

// Options tunes the optional parts of the suite
type Options struct {
	// Lowess enables the smoothed trend curve on Spearman results
	Lowess           bool
	LowessFrac       float64
	LowessIterations int
	// MinStabilityWindow is the smallest rolling window for the stability check
	MinStabilityWindow int
}

// DefaultOptions returns the options used by the CLI when nothing is configured
func DefaultOptions() Options {
	return Options{
		Lowess:             true,
		LowessFrac:         0.3,
		LowessIterations:   3,
		MinStabilityWindow: 10,
	}
}

// Suite runs the group-comparison, correlation, association, repeated-measures
// and distribution-fit tests. Every test returns nil when it is not applicable
// to the data it was given. Suite holds no per-call state and is safe for
// concurrent use.
type Suite struct {
	opts     Options
	computer *numeric.StatisticalBriefComputer
	dist     *numeric.StatisticalDistributions
	logger   *internal.Logger
}

// NewSuite creates a test suite; a nil logger falls back to the default
func NewSuite(opts Options, logger *internal.Logger) *Suite {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if opts.LowessFrac <= 0 || opts.LowessFrac > 1 {
		opts.LowessFrac = 0.3
	}
	if opts.LowessIterations < 0 {
		opts.LowessIterations = 0
	}
	if opts.MinStabilityWindow < 3 {
		opts.MinStabilityWindow = 10
	}
	return &Suite{
		opts:     opts,
		computer: numeric.NewComputer(),
		dist:     numeric.NewDistributions(),
		logger:   logger.With("hypothesis"),
	}
}

func newResult(test stats.TestType, variables ...string) *stats.TestResult {
	return &stats.TestResult{
		ID:         core.NewID(),
		Test:       test,
		Variables:  variables,
		ComputedAt: core.Now(),
	}
}

// finish sets the derived fields shared by every test
func finish(r *stats.TestResult) *stats.TestResult {
	if math.IsNaN(r.PValue) {
		r.PValue = 1
	}
	r.Significant = r.PValue < stats.Alpha
	r.Interpretation = Interpret(r)
	return r
}

func (s *Suite) describe(data []float64, field, group string) brief.StatisticalBrief {
	return s.computer.MustBrief(data, field, group)
}

// present drops NaN values
func present(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// mapRows translates positions within a filtered sample back to dataset rows
func mapRows(positions, rows []int) []int {
	out := make([]int, len(positions))
	for i, p := range positions {
		out[i] = rows[p]
	}
	return out
}
