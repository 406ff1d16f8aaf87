package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"socialstats/domain/core"
	"socialstats/domain/dataset"
	"socialstats/domain/stats"
	"socialstats/domain/stats/brief"
)

// Recommendation thresholds
const (
	strongCorrelation   = 0.7
	moderateCorrelation = 0.5
	strongAssociation   = 0.3
	reliableModel       = 0.7
	acceptableModel     = 0.5
	dominantSegment     = 30.0
)

// Aggregate composes the results of one session into a report. It never
// mutates its inputs; nil results and typed nil pointers are skipped, and any
// subset of result kinds may be absent.
func Aggregate(ds *dataset.Dataset, results ...stats.Result) *stats.AnalysisReport {
	report := &stats.AnalysisReport{
		ID:                core.NewReportID(),
		GeneratedAt:       core.Now(),
		Data:              Summarize(ds),
		AnalysesPerformed: []string{},
		Recommendations:   []string{},
	}

	for _, r := range results {
		switch v := r.(type) {
		case *stats.TestResult:
			if v == nil {
				continue
			}
			report.Tests = append(report.Tests, *v)
			report.AnalysesPerformed = append(report.AnalysesPerformed,
				fmt.Sprintf("%s(%s)", v.Test, strings.Join(v.Variables, ", ")))
		case *stats.ModelSelectionResult:
			if v == nil {
				continue
			}
			report.Models = append(report.Models, *v)
			report.AnalysesPerformed = append(report.AnalysesPerformed,
				fmt.Sprintf("regression(%s ~ %s)", v.Target, strings.Join(v.Features, " + ")))
		case *stats.ClusterResult:
			if v == nil {
				continue
			}
			report.Clusters = append(report.Clusters, *v)
			report.AnalysesPerformed = append(report.AnalysesPerformed,
				fmt.Sprintf("clustering(%s)", strings.Join(v.Columns, ", ")))
		case stats.Failure:
			report.Failures = append(report.Failures, v)
		case *stats.Failure:
			if v != nil {
				report.Failures = append(report.Failures, *v)
			}
		}
	}
	report.TotalAnalyses = len(report.AnalysesPerformed)

	for i := range report.Tests {
		report.Recommendations = append(report.Recommendations, testRecommendations(&report.Tests[i])...)
	}
	for i := range report.Models {
		report.Recommendations = append(report.Recommendations, modelRecommendations(&report.Models[i])...)
	}
	for i := range report.Clusters {
		report.Recommendations = append(report.Recommendations, clusterRecommendations(&report.Clusters[i])...)
	}
	if n := len(report.Failures); n > 0 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("%d analyses failed and were skipped; check the failures section", n))
	}
	if len(report.Recommendations) == 0 && report.TotalAnalyses > 0 {
		report.Recommendations = append(report.Recommendations,
			"No strong pattern detected: collect more data or add explanatory variables")
	}
	report.Insights = insights(report.Data)
	return report
}

// Summarize describes the working dataset; the quality score is the share of
// non-missing cells in percent, zero for an empty dataset
func Summarize(ds *dataset.Dataset) stats.DataSummary {
	if ds == nil {
		return stats.DataSummary{MissingByColumn: map[string]int{}}
	}
	s := stats.DataSummary{
		Rows:            ds.Len(),
		Columns:         ds.Width(),
		TotalCells:      ds.TotalCells(),
		MissingCells:    ds.MissingCells(),
		MissingByColumn: ds.MissingByColumn(),
		Fingerprint:     ds.Fingerprint(),
	}
	if s.TotalCells > 0 {
		s.QualityScore = float64(s.TotalCells-s.MissingCells) / float64(s.TotalCells) * 100
	}
	return s
}

func testRecommendations(r *stats.TestResult) []string {
	switch d := r.Details.(type) {
	case *stats.KruskalDetails:
		if !r.Significant {
			return nil
		}
		out := []string{fmt.Sprintf("%s differs significantly across %s: tailor the strategy per group", d.ValueColumn, d.GroupColumn)}
		if best, worst, ok := extremeGroups(r.Groups); ok {
			out = append(out,
				fmt.Sprintf("Focus on %s, the best performing group (mean %.2f)", best.Group, best.Summary.Mean),
				fmt.Sprintf("Improve %s, the weakest group (mean %.2f)", worst.Group, worst.Summary.Mean))
		}
		return out
	case *stats.SpearmanDetails:
		a, b := pair(r.Variables)
		switch rho := math.Abs(d.Correlation); {
		case rho >= strongCorrelation && r.Significant:
			return []string{fmt.Sprintf("Strong correlation between %s and %s (rho %.2f): exploit it for optimization", a, b, d.Correlation)}
		case rho >= moderateCorrelation && r.Significant:
			return []string{fmt.Sprintf("Moderate correlation between %s and %s: test it across content types and monitor it over time", a, b)}
		}
	case *stats.ChiSquareDetails:
		if r.Significant && r.Effect.Value >= strongAssociation {
			return []string{fmt.Sprintf("Strong association between %s and %s: personalize content per category", d.RowVariable, d.ColumnVariable)}
		}
	case *stats.FriedmanDetails:
		if r.Significant {
			return []string{fmt.Sprintf("Conditions %s differ within subjects (%s agreement): prioritize the top ranked condition", strings.Join(d.Conditions, ", "), d.Consistency)}
		}
	case *stats.DistributionDetails:
		if r.Significant && len(r.Variables) > 0 {
			return []string{fmt.Sprintf("%s does not follow a %s distribution: prefer rank-based methods for it", r.Variables[0], d.Distribution)}
		}
	}
	return nil
}

func modelRecommendations(m *stats.ModelSelectionResult) []string {
	var out []string
	switch {
	case m.BestTestR2 >= reliableModel:
		out = append(out, fmt.Sprintf("Predictive model for %s is reliable (%s, test R² %.2f): use it for planning", m.Target, m.Best, m.BestTestR2))
		if len(m.TopFeatures) > 0 {
			out = append(out, fmt.Sprintf("Optimize the most informative features for %s: %s", m.Target, strings.Join(m.TopFeatures, ", ")))
		}
	case m.BestTestR2 >= acceptableModel:
		out = append(out, fmt.Sprintf("Model for %s is acceptable (test R² %.2f): improve it with more data or variables", m.Target, m.BestTestR2))
	default:
		out = append(out, fmt.Sprintf("Model for %s is unreliable (test R² %.2f): revisit the features or try non-linear approaches", m.Target, m.BestTestR2))
	}
	if best, ok := m.Candidate(m.Best); ok && best.Overfitting {
		out = append(out, fmt.Sprintf("%s overfits %s: reduce model complexity or grow the sample", m.Best, m.Target))
	}
	return out
}

func clusterRecommendations(c *stats.ClusterResult) []string {
	var out []string
	for _, p := range c.Profiles {
		if p.Percentage > dominantSegment {
			out = append(out, fmt.Sprintf("Segment %d is dominant (%.1f%% of rows): make it the primary strategy", p.Label, p.Percentage))
		}
	}
	return out
}

func insights(s stats.DataSummary) []string {
	var quality string
	switch {
	case s.QualityScore >= 90:
		quality = "excellent"
	case s.QualityScore >= 75:
		quality = "good"
	default:
		quality = "needs attention"
	}
	var size string
	switch {
	case s.Rows >= 1000:
		size = "large"
	case s.Rows >= 100:
		size = "moderate"
	default:
		size = "small"
	}

	out := []string{
		fmt.Sprintf("Data quality is %s (%.1f%% complete cells)", quality, s.QualityScore),
		fmt.Sprintf("Sample size is %s (%d rows)", size, s.Rows),
	}
	if worst, n := mostMissing(s.MissingByColumn); n > 0 {
		out = append(out, fmt.Sprintf("Column %s has the most missing cells (%d)", worst, n))
	}
	return out
}

// mostMissing returns the column with the most missing cells, ties by name
func mostMissing(byColumn map[string]int) (string, int) {
	names := make([]string, 0, len(byColumn))
	for name := range byColumn {
		names = append(names, name)
	}
	sort.Strings(names)
	worst, most := "", 0
	for _, name := range names {
		if byColumn[name] > most {
			worst, most = name, byColumn[name]
		}
	}
	return worst, most
}

func extremeGroups(groups []brief.StatisticalBrief) (best, worst brief.StatisticalBrief, ok bool) {
	if len(groups) == 0 {
		return best, worst, false
	}
	best, worst = groups[0], groups[0]
	for _, g := range groups[1:] {
		if g.Summary.Mean > best.Summary.Mean {
			best = g
		}
		if g.Summary.Mean < worst.Summary.Mean {
			worst = g
		}
	}
	return best, worst, true
}

func pair(vars []string) (string, string) {
	if len(vars) < 2 {
		return strings.Join(vars, ""), ""
	}
	return vars[0], vars[1]
}
