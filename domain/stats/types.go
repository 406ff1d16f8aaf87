package stats

import (
	"math"

	"socialstats/domain/core"
	"socialstats/domain/stats/brief"
)

// Alpha is the significance threshold used throughout
const Alpha = 0.05

// TestType identifies a statistical test
type TestType string

const (
	TestKruskalWallis     TestType = "kruskal_wallis"
	TestSpearman          TestType = "spearman"
	TestChiSquare         TestType = "chi_square"
	TestFriedman          TestType = "friedman"
	TestKolmogorovSmirnov TestType = "kolmogorov_smirnov"

	// Follow-up and diagnostic tests
	TestMannWhitney     TestType = "mann_whitney"
	TestWilcoxon        TestType = "wilcoxon"
	TestKSTwoSample     TestType = "ks_two_sample"
	TestShapiroWilk     TestType = "shapiro_wilk"
	TestJarqueBera      TestType = "jarque_bera"
	TestAndersonDarling TestType = "anderson_darling"
	TestLevene          TestType = "levene"
	TestBartlett        TestType = "bartlett"
	TestFligner         TestType = "fligner_killeen"
	TestFisherExact     TestType = "fisher_exact"
	TestLikelihoodRatio TestType = "likelihood_ratio"
	TestBreuschPagan    TestType = "breusch_pagan"
)

// Magnitude is the qualitative bucket of an effect size
type Magnitude string

const (
	MagnitudeNegligible Magnitude = "negligible"
	MagnitudeSmall      Magnitude = "small"
	MagnitudeMedium     Magnitude = "medium"
	MagnitudeLarge      Magnitude = "large"
)

// EffectSize is a standardized effect with its qualitative bucket
type EffectSize struct {
	Measure   string    `json:"measure"` // eta_squared, rank_biserial, spearman_rho, cramers_v, kendalls_w, ks_d, wilcoxon_r
	Value     float64   `json:"value"`
	Magnitude Magnitude `json:"magnitude"`
}

// Bucket classifies |value| against ascending small/medium/large thresholds
func Bucket(value, small, medium, large float64) Magnitude {
	v := math.Abs(value)
	switch {
	case v >= large:
		return MagnitudeLarge
	case v >= medium:
		return MagnitudeMedium
	case v >= small:
		return MagnitudeSmall
	default:
		return MagnitudeNegligible
	}
}

// TestResult is the immutable record of one statistical test. Details carries
// the test-specific payload and is one of *KruskalDetails, *SpearmanDetails,
// *ChiSquareDetails, *FriedmanDetails or *DistributionDetails.
type TestResult struct {
	ID          core.ID                  `json:"id"`
	Test        TestType                 `json:"test"`
	Variables   []string                 `json:"variables"`
	Statistic   float64                  `json:"statistic"`
	PValue      float64                  `json:"p_value"`
	Significant bool                     `json:"significant"`
	Effect      EffectSize               `json:"effect"`
	SampleSize  int                      `json:"sample_size"`
	Groups      []brief.StatisticalBrief `json:"groups,omitempty"`
	PostHoc     []PostHocComparison      `json:"post_hoc,omitempty"`
	Details     TestDetails              `json:"details"`
	// Interpretation is derived from the numeric fields only
	Interpretation string         `json:"interpretation"`
	ComputedAt     core.Timestamp `json:"computed_at"`
}

// TestDetails is the sealed set of test-specific payloads
type TestDetails interface {
	testDetails()
}

// PostHocComparison is a pairwise follow-up owned by its parent TestResult
type PostHocComparison struct {
	GroupA           string     `json:"group_a"`
	GroupB           string     `json:"group_b"`
	Test             TestType   `json:"test"`
	Statistic        float64    `json:"statistic"`
	PValue           float64    `json:"p_value"`
	Significant      bool       `json:"significant"`
	Effect           EffectSize `json:"effect"`
	MeanDifference   float64    `json:"mean_difference"`   // A − B
	MedianDifference float64    `json:"median_difference"` // A − B
	// KolmogorovSmirnov compares the full distributions of the pair
	KolmogorovSmirnov *DiagnosticTest `json:"kolmogorov_smirnov,omitempty"`
}

// DiagnosticTest is a secondary test reported alongside a main result.
// Passed means the null hypothesis was not rejected at Alpha (normal, equal variances, ...).
type DiagnosticTest struct {
	Test      TestType `json:"test"`
	Statistic float64  `json:"statistic"`
	PValue    float64  `json:"p_value"`
	Passed    bool     `json:"passed"`
}

// NewDiagnostic fills Passed from the p-value
func NewDiagnostic(test TestType, statistic, pValue float64) *DiagnosticTest {
	return &DiagnosticTest{Test: test, Statistic: statistic, PValue: pValue, Passed: pValue >= Alpha}
}

// AndersonDarling is the Anderson-Darling normality statistic with its critical values
type AndersonDarling struct {
	Statistic          float64   `json:"statistic"`
	CriticalValues     []float64 `json:"critical_values"`
	SignificanceLevels []float64 `json:"significance_levels"` // percent
	Normal             bool      `json:"normal"`              // statistic below the 5% critical value
}

// NormalityReport groups the normality checks run on one sample; nil entries
// were not applicable.
type NormalityReport struct {
	ShapiroWilk       *DiagnosticTest  `json:"shapiro_wilk,omitempty"`
	KolmogorovSmirnov *DiagnosticTest  `json:"kolmogorov_smirnov,omitempty"`
	JarqueBera        *DiagnosticTest  `json:"jarque_bera,omitempty"`
	AndersonDarling   *AndersonDarling `json:"anderson_darling,omitempty"`
}

// Normal reports whether every available check passed; false when none ran
func (n NormalityReport) Normal() bool {
	ran := false
	for _, d := range []*DiagnosticTest{n.ShapiroWilk, n.KolmogorovSmirnov, n.JarqueBera} {
		if d == nil {
			continue
		}
		ran = true
		if !d.Passed {
			return false
		}
	}
	if n.AndersonDarling != nil {
		ran = true
		if !n.AndersonDarling.Normal {
			return false
		}
	}
	return ran
}

// Outliers lists flagged rows; Rows are indices into the source dataset
type Outliers struct {
	Column    string  `json:"column,omitempty"`
	Method    string  `json:"method"` // iqr, zscore, mahalanobis
	Threshold float64 `json:"threshold"`
	Count     int     `json:"count"`
	Rows      []int   `json:"rows"`
}
