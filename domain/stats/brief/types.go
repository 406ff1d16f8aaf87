package brief

import (
	"fmt"
	"math"
)

// StatisticalBrief is the descriptive summary of one sample: a whole column,
// one group of a grouped test, one condition of a paired test, or one cluster.
type StatisticalBrief struct {
	FieldKey   string `json:"field_key"`
	Group      string `json:"group,omitempty"`
	SampleSize int    `json:"sample_size"`

	Summary      SummaryStats      `json:"summary"`
	Distribution DistributionStats `json:"distribution"`
	Quality      QualityStats      `json:"quality"`

	// RankMean is set for paired designs where observations are ranked within subjects
	RankMean *float64 `json:"rank_mean,omitempty"`
}

// SummaryStats contains basic descriptive statistics
type SummaryStats struct {
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Range    float64 `json:"range"`
	Median   float64 `json:"median"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	IQR      float64 `json:"iqr"`
	// CV is std/|mean|, zero when the mean is zero
	CV float64 `json:"cv"`
}

// DistributionStats contains distribution shape analysis
type DistributionStats struct {
	Skewness    float64 `json:"skewness"`
	Kurtosis    float64 `json:"kurtosis"` // excess, normal = 0
	IsSymmetric bool    `json:"is_symmetric"`
}

// QualityStats contains outlier counts
type QualityStats struct {
	IQROutliers    int `json:"iqr_outliers"`
	ZScoreOutliers int `json:"zscore_outliers"`
}

// Shape returns a short label for the distribution shape
func (b StatisticalBrief) Shape() string {
	skewness := b.Distribution.Skewness
	kurtosis := b.Distribution.Kurtosis

	var skewLabel string
	switch {
	case math.Abs(skewness) < 0.5:
		skewLabel = "symmetric"
	case skewness > 0:
		skewLabel = "right-skewed"
	default:
		skewLabel = "left-skewed"
	}

	var kurtLabel string
	switch {
	case kurtosis < -0.5:
		kurtLabel = "light tails"
	case kurtosis > 1:
		kurtLabel = "heavy tails"
	default:
		kurtLabel = "normal tails"
	}

	if skewLabel == "symmetric" && kurtLabel == "normal tails" {
		return "normal-like"
	}
	return fmt.Sprintf("%s, %s", skewLabel, kurtLabel)
}
