package hypothesis

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"socialstats/domain/dataset"
	"socialstats/domain/stats"
)

// Spec is the sealed set of test requests a batch can carry
type Spec interface {
	// Name identifies the request in logs and failure records
	Name() string
	spec()
}

// KruskalSpec requests a Kruskal-Wallis comparison of Value across Group
type KruskalSpec struct {
	Value string
	Group string
}

// SpearmanSpec requests a rank correlation between X and Y
type SpearmanSpec struct {
	X, Y string
}

// ChiSquareSpec requests an independence test of two categorical columns
type ChiSquareSpec struct {
	Row    string
	Column string
}

// FriedmanSpec requests a repeated-measures comparison of Columns
type FriedmanSpec struct {
	Columns []string
}

// DistributionSpec requests a Kolmogorov-Smirnov fit of Column to Distribution
type DistributionSpec struct {
	Column       string
	Distribution Distribution
	Params       map[string]float64
}

func (s KruskalSpec) Name() string   { return fmt.Sprintf("kruskal_wallis(%s by %s)", s.Value, s.Group) }
func (s SpearmanSpec) Name() string  { return fmt.Sprintf("spearman(%s, %s)", s.X, s.Y) }
func (s ChiSquareSpec) Name() string { return fmt.Sprintf("chi_square(%s, %s)", s.Row, s.Column) }
func (s FriedmanSpec) Name() string {
	return fmt.Sprintf("friedman(%s)", strings.Join(s.Columns, ", "))
}
func (s DistributionSpec) Name() string {
	return fmt.Sprintf("kolmogorov_smirnov(%s ~ %s)", s.Column, s.Distribution)
}

func (KruskalSpec) spec()      {}
func (SpearmanSpec) spec()     {}
func (ChiSquareSpec) spec()    {}
func (FriedmanSpec) spec()     {}
func (DistributionSpec) spec() {}

// Run dispatches one request. A nil result means the test did not apply.
func (s *Suite) Run(ds *dataset.Dataset, spec Spec) *stats.TestResult {
	switch sp := spec.(type) {
	case KruskalSpec:
		return s.KruskalWallis(ds, sp.Value, sp.Group)
	case SpearmanSpec:
		return s.Spearman(ds, sp.X, sp.Y)
	case ChiSquareSpec:
		return s.ChiSquare(ds, sp.Row, sp.Column)
	case FriedmanSpec:
		return s.Friedman(ds, sp.Columns)
	case DistributionSpec:
		return s.KolmogorovSmirnov(ds, sp.Column, sp.Distribution, sp.Params)
	default:
		return nil
	}
}

// Outcome pairs a request with its result. Result is nil when the test was
// not applicable or failed; Err is set only on failure.
type Outcome struct {
	Spec   Spec
	Result *stats.TestResult
	Err    error
}

// Failure converts a failed outcome into a report entry
func (o Outcome) Failure() (stats.Failure, bool) {
	if o.Err == nil {
		return stats.Failure{}, false
	}
	return stats.Failure{Operation: "hypothesis", Target: o.Spec.Name(), Error: o.Err.Error()}, true
}

// RunAll runs every request concurrently. Outcomes keep the order of specs.
// A panic inside one test is recovered and recorded on its outcome only.
func (s *Suite) RunAll(ctx context.Context, ds *dataset.Dataset, specs []Spec) []Outcome {
	outcomes := make([]Outcome, len(specs))

	type outcomeWithIndex struct {
		outcome Outcome
		index   int
	}
	resultChan := make(chan outcomeWithIndex, len(specs))

	for i, spec := range specs {
		go func(spec Spec, idx int) {
			resultChan <- outcomeWithIndex{outcome: s.runIsolated(ctx, ds, spec), index: idx}
		}(spec, i)
	}

	for range specs {
		res := <-resultChan
		outcomes[res.index] = res.outcome
	}
	return outcomes
}

func (s *Suite) runIsolated(ctx context.Context, ds *dataset.Dataset, spec Spec) (out Outcome) {
	out.Spec = spec
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("%s panicked: %v\n%s", spec.Name(), rec, debug.Stack())
			out.Result = nil
			out.Err = fmt.Errorf("%s: panic: %v", spec.Name(), rec)
		}
	}()
	out.Result = s.Run(ds, spec)
	return out
}
