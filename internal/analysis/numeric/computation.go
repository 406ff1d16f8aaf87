package numeric

import (
	"fmt"
	"math"

	"socialstats/domain/stats/brief"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// StatisticalBriefComputer builds descriptive briefs of a sample
type StatisticalBriefComputer struct{}

// NewComputer creates a new brief computer
func NewComputer() *StatisticalBriefComputer {
	return &StatisticalBriefComputer{}
}

// ComputeBrief computes summary, shape and outlier statistics of data.
// NaN values must be removed by the caller.
func (c *StatisticalBriefComputer) ComputeBrief(data []float64, fieldKey string) (*brief.StatisticalBrief, error) {
	if len(data) == 0 {
		return nil, NewComputationError(fmt.Sprintf("empty sample for %s", fieldKey), nil)
	}

	b := &brief.StatisticalBrief{FieldKey: fieldKey, SampleSize: len(data)}
	b.Summary = c.computeSummary(data)

	skewness, kurtosis := Shape(data)
	b.Distribution = brief.DistributionStats{
		Skewness:    skewness,
		Kurtosis:    kurtosis,
		IsSymmetric: math.Abs(skewness) < 0.5,
	}

	b.Quality = brief.QualityStats{
		IQROutliers:    len(IQROutliers(data)),
		ZScoreOutliers: len(ZScoreOutliers(data, 3)),
	}

	return b, nil
}

// MustBrief is ComputeBrief for callers that already checked len(data) > 0
func (c *StatisticalBriefComputer) MustBrief(data []float64, fieldKey, group string) brief.StatisticalBrief {
	b, err := c.ComputeBrief(data, fieldKey)
	if err != nil {
		return brief.StatisticalBrief{FieldKey: fieldKey, Group: group}
	}
	b.Group = group
	return *b
}

func (c *StatisticalBriefComputer) computeSummary(data []float64) brief.SummaryStats {
	mean, _ := stats.Mean(data)
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)
	median, _ := stats.Median(data)

	var stdDev, variance float64
	if len(data) > 1 {
		stdDev, _ = stats.StandardDeviationSample(data)
		variance, _ = stats.SampleVariance(data)
	}

	sorted := Sorted(data)
	q25 := Quantile(sorted, 0.25)
	q75 := Quantile(sorted, 0.75)

	cv := 0.0
	if mean != 0 {
		cv = stdDev / math.Abs(mean)
	}

	return brief.SummaryStats{
		Mean:     mean,
		StdDev:   stdDev,
		Variance: variance,
		Min:      min,
		Max:      max,
		Range:    max - min,
		Median:   median,
		Q25:      q25,
		Q75:      q75,
		IQR:      q75 - q25,
		CV:       cv,
	}
}

// Shape returns the biased skewness m3/m2^1.5 and excess kurtosis m4/m2² − 3.
// Both are zero for constant or too-short samples.
func Shape(data []float64) (skewness, kurtosis float64) {
	if len(data) < 3 {
		return 0, 0
	}
	m2 := stat.Moment(2, data, nil)
	if m2 <= 1e-300 {
		return 0, 0
	}
	m3 := stat.Moment(3, data, nil)
	m4 := stat.Moment(4, data, nil)
	return m3 / math.Pow(m2, 1.5), m4/(m2*m2) - 3
}

// Quantile computes the p-quantile of sorted data with linear interpolation
// between closest ranks (numpy's default)
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	lo := math.Floor(h)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// MeanStd returns the mean and the sample standard deviation (ddof = 1)
func MeanStd(data []float64) (mean, std float64) {
	if len(data) == 0 {
		return 0, 0
	}
	mean, _ = stats.Mean(data)
	if len(data) > 1 {
		std, _ = stats.StandardDeviationSample(data)
	}
	return mean, std
}

// PopulationStd returns the standard deviation with ddof = 0
func PopulationStd(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	std, _ := stats.StandardDeviationPopulation(data)
	return std
}

// Median returns the median, zero for an empty sample
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	m, _ := stats.Median(data)
	return m
}

// ComputationError represents an error during statistical computation
type ComputationError struct {
	Message string
	Cause   error
}

func (e ComputationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e ComputationError) Unwrap() error { return e.Cause }

// NewComputationError creates a new computation error
func NewComputationError(message string, cause error) ComputationError {
	return ComputationError{Message: message, Cause: cause}
}
