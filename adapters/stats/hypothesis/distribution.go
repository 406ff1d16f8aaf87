package hypothesis

import (
	"fmt"
	"math"
	"strings"

	"socialstats/domain/core"
	"socialstats/domain/dataset"
	"socialstats/domain/stats"
	"socialstats/internal/analysis/numeric"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution names a reference distribution for the goodness-of-fit test
type Distribution string

const (
	Normal      Distribution = "normal"
	Uniform     Distribution = "uniform"
	Exponential Distribution = "exponential"
	LogNormal   Distribution = "lognormal"
)

// Distributions lists the supported reference distributions
func Distributions() []Distribution {
	return []Distribution{Normal, Uniform, Exponential, LogNormal}
}

// ParseDistribution resolves a distribution name, case-insensitively
func ParseDistribution(name string) (Distribution, error) {
	d := Distribution(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Distributions() {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownDistribution, name)
}

// reference builds the CDF of dist. Parameters missing from params are
// estimated from data. ok is false when the parameters are degenerate or the
// data falls outside the distribution's support.
func reference(dist Distribution, data []float64, params map[string]float64) (cdf func(float64) float64, used map[string]float64, estimated bool, ok bool) {
	param := func(key string, estimate func() float64) float64 {
		if v, given := params[key]; given {
			return v
		}
		estimated = true
		return estimate()
	}
	minimum := func() float64 { return numeric.Sorted(data)[0] }

	switch dist {
	case Normal:
		mean, std := numeric.MeanStd(data)
		mu := param("mean", func() float64 { return mean })
		sigma := param("std", func() float64 { return std })
		if sigma <= 0 {
			return nil, nil, estimated, false
		}
		d := distuv.Normal{Mu: mu, Sigma: sigma}
		return d.CDF, map[string]float64{"mean": mu, "std": sigma}, estimated, true

	case Uniform:
		sorted := numeric.Sorted(data)
		lo := param("min", func() float64 { return sorted[0] })
		hi := param("max", func() float64 { return sorted[len(sorted)-1] })
		if hi <= lo {
			return nil, nil, estimated, false
		}
		d := distuv.Uniform{Min: lo, Max: hi}
		return d.CDF, map[string]float64{"min": lo, "max": hi}, estimated, true

	case Exponential:
		if minimum() < 0 {
			return nil, nil, false, false
		}
		mean, _ := numeric.MeanStd(data)
		rate := param("rate", func() float64 {
			if mean <= 0 {
				return 0
			}
			return 1 / mean
		})
		if rate <= 0 {
			return nil, nil, estimated, false
		}
		d := distuv.Exponential{Rate: rate}
		return d.CDF, map[string]float64{"rate": rate}, estimated, true

	case LogNormal:
		if minimum() <= 0 {
			return nil, nil, false, false
		}
		logs := make([]float64, len(data))
		for i, v := range data {
			logs[i] = math.Log(v)
		}
		mean, std := numeric.MeanStd(logs)
		mu := param("mu", func() float64 { return mean })
		sigma := param("sigma", func() float64 { return std })
		if sigma <= 0 {
			return nil, nil, estimated, false
		}
		d := distuv.LogNormal{Mu: mu, Sigma: sigma}
		return d.CDF, map[string]float64{"mu": mu, "sigma": sigma}, estimated, true
	}
	return nil, nil, false, false
}

// KolmogorovSmirnov tests whether a numeric column follows dist. Parameters
// not supplied in params are estimated from the sample (normal: mean, std;
// uniform: min, max; exponential: rate; lognormal: mu, sigma of the log).
// Returns nil for an unknown distribution, fewer than three values or data
// the distribution cannot describe.
func (s *Suite) KolmogorovSmirnov(ds *dataset.Dataset, column string, dist Distribution, params map[string]float64) *stats.TestResult {
	values, ok := ds.Numeric(column)
	if !ok {
		s.logger.Debug("ks %s: column missing or not numeric", column)
		return nil
	}
	data := present(values)
	if len(data) < 3 {
		s.logger.Debug("ks %s: %d values", column, len(data))
		return nil
	}

	cdf, used, estimated, ok := reference(dist, data, params)
	if !ok {
		if _, err := ParseDistribution(string(dist)); err != nil {
			s.logger.Warn("ks %s: %v", column, err)
		} else {
			s.logger.Debug("ks %s: data outside the support of %s or degenerate parameters", column, dist)
		}
		return nil
	}

	d, p, ok := numeric.KolmogorovSmirnovTest(data, cdf)
	if !ok {
		return nil
	}

	r := newResult(stats.TestKolmogorovSmirnov, column)
	r.Statistic = d
	r.PValue = p
	r.SampleSize = len(data)
	r.Effect = stats.EffectSize{
		Measure:   "ks_d",
		Value:     d,
		Magnitude: stats.Bucket(d, 0.05, 0.1, 0.2),
	}

	descriptives := s.describe(data, column, "")
	r.Groups = append(r.Groups, descriptives)

	details := &stats.DistributionDetails{
		Distribution: string(dist),
		Parameters:   used,
		Estimated:    estimated,
		Descriptives: descriptives,
		IQROutliers:  len(numeric.IQROutliers(data)),
		Symmetric:    math.Abs(descriptives.Distribution.Skewness) < 0.5,
	}
	if jb, pjb, ok := numeric.JarqueBera(data); ok {
		details.JarqueBera = stats.NewDiagnostic(stats.TestJarqueBera, jb, pjb)
	}
	if ad, ok := numeric.AndersonDarling(data); ok {
		details.AndersonDarling = ad
	}
	r.Details = details
	return finish(r)
}
