package stats

import "socialstats/domain/stats/brief"

// GroupNormality is the normality report of one group
type GroupNormality struct {
	Group     string          `json:"group"`
	Normality NormalityReport `json:"normality"`
}

// KruskalDetails is the payload of a Kruskal-Wallis group comparison
type KruskalDetails struct {
	ValueColumn      string           `json:"value_column"`
	GroupColumn      string           `json:"group_column"`
	GroupCount       int              `json:"group_count"`
	DegreesOfFreedom int              `json:"degrees_of_freedom"`
	Normality        []GroupNormality `json:"normality"`
	Levene           *DiagnosticTest  `json:"levene,omitempty"`
	Bartlett         *DiagnosticTest  `json:"bartlett,omitempty"`
	Fligner          *DiagnosticTest  `json:"fligner,omitempty"`
}

// LinearityCheck compares a linear and a quadratic fit of y on x
type LinearityCheck struct {
	LinearR2    float64 `json:"linear_r2"`
	QuadraticR2 float64 `json:"quadratic_r2"`
	Improvement float64 `json:"improvement"`
	Linear      bool    `json:"linear"`
}

// StabilityCheck summarizes rolling-window correlations
type StabilityCheck struct {
	Window  int     `json:"window"`
	Windows int     `json:"windows"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	Stable  bool    `json:"stable"`
}

// TrendPoint is one point of a smoothed trend curve
type TrendPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ResidualSummary describes the residuals of a fit and their normality
type ResidualSummary struct {
	Mean      float64         `json:"mean"`
	Std       float64         `json:"std"`
	Normality NormalityReport `json:"normality"`
}

// SpearmanDetails is the payload of a Spearman rank correlation
type SpearmanDetails struct {
	Correlation       float64         `json:"correlation"`
	RSquared          float64         `json:"r_squared"`
	Strength          string          `json:"strength"`
	Direction         string          `json:"direction"`
	SignificanceLevel string          `json:"significance_level"`
	DegreesOfFreedom  int             `json:"degrees_of_freedom"`
	Residuals         ResidualSummary `json:"residuals"`
	IQROutliers       []Outliers      `json:"iqr_outliers"`
	ZScoreOutliers    []Outliers      `json:"zscore_outliers"`
	Mahalanobis       *Outliers       `json:"mahalanobis,omitempty"`
	Linearity         *LinearityCheck `json:"linearity,omitempty"`
	Stability         *StabilityCheck `json:"stability,omitempty"`
	Trend             []TrendPoint    `json:"trend,omitempty"`
}

// CellContribution identifies one contingency cell
type CellContribution struct {
	Row          string  `json:"row"`
	Column       string  `json:"column"`
	Observed     float64 `json:"observed"`
	Expected     float64 `json:"expected"`
	Contribution float64 `json:"contribution"`
}

// FisherExact is Fisher's exact test on a 2×2 table. OddsRatio is nil when infinite.
type FisherExact struct {
	OddsRatio   *float64 `json:"odds_ratio,omitempty"`
	PValue      float64  `json:"p_value"`
	Significant bool     `json:"significant"`
}

// ChiSquareDetails is the payload of a chi-square association test
type ChiSquareDetails struct {
	RowVariable           string           `json:"row_variable"`
	ColumnVariable        string           `json:"column_variable"`
	RowLabels             []string         `json:"row_labels"`
	ColumnLabels          []string         `json:"column_labels"`
	Observed              [][]float64      `json:"observed"`
	Expected              [][]float64      `json:"expected"`
	StandardizedResiduals [][]float64      `json:"standardized_residuals"`
	DegreesOfFreedom      int              `json:"degrees_of_freedom"`
	YatesCorrected        bool             `json:"yates_corrected"`
	MinExpected           float64          `json:"min_expected"`
	LikelihoodRatio       *DiagnosticTest  `json:"likelihood_ratio,omitempty"`
	Fisher                *FisherExact     `json:"fisher,omitempty"`
	MaxContribution       CellContribution `json:"max_contribution"`
}

// FriedmanDetails is the payload of a Friedman repeated-measures test
type FriedmanDetails struct {
	Conditions       []string `json:"conditions"`
	Subjects         int      `json:"subjects"`
	DegreesOfFreedom int      `json:"degrees_of_freedom"`
	Consistency      string   `json:"consistency"`
	// DifferenceNormality is set only for exactly two conditions
	DifferenceNormality *NormalityReport `json:"difference_normality,omitempty"`
}

// DistributionDetails is the payload of a Kolmogorov-Smirnov distribution fit
type DistributionDetails struct {
	Distribution    string                 `json:"distribution"`
	Parameters      map[string]float64     `json:"parameters"`
	Estimated       bool                   `json:"estimated"`
	Descriptives    brief.StatisticalBrief `json:"descriptives"`
	JarqueBera      *DiagnosticTest        `json:"jarque_bera,omitempty"`
	AndersonDarling *AndersonDarling       `json:"anderson_darling,omitempty"`
	IQROutliers     int                    `json:"iqr_outliers"`
	Symmetric       bool                   `json:"symmetric"`
}

func (*KruskalDetails) testDetails()      {}
func (*SpearmanDetails) testDetails()     {}
func (*ChiSquareDetails) testDetails()    {}
func (*FriedmanDetails) testDetails()     {}
func (*DistributionDetails) testDetails() {}
