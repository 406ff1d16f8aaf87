package hypothesis

import (
	"fmt"
	"strings"

	"socialstats/domain/stats"
)

// Interpret renders a one-paragraph summary of a test result. It reads only
// the numeric fields already on r, so the same result always yields the same
// text.
func Interpret(r *stats.TestResult) string {
	if r == nil {
		return ""
	}

	var b strings.Builder
	switch d := r.Details.(type) {
	case *stats.KruskalDetails:
		interpretKruskal(&b, r, d)
	case *stats.SpearmanDetails:
		interpretSpearman(&b, r, d)
	case *stats.ChiSquareDetails:
		interpretChiSquare(&b, r, d)
	case *stats.FriedmanDetails:
		interpretFriedman(&b, r, d)
	case *stats.DistributionDetails:
		interpretDistribution(&b, r, d)
	default:
		fmt.Fprintf(&b, "%s: statistic %.4f, %s.", r.Test, r.Statistic, formatP(r.PValue))
	}
	return b.String()
}

func formatP(p float64) string {
	if p < 0.001 {
		return "p < 0.001"
	}
	return fmt.Sprintf("p = %.3f", p)
}

func verdict(significant bool) string {
	if significant {
		return "statistically significant"
	}
	return "not statistically significant"
}

func interpretKruskal(b *strings.Builder, r *stats.TestResult, d *stats.KruskalDetails) {
	fmt.Fprintf(b, "The difference in %s across %d %s groups is %s (H = %.3f, %s) with a %s effect (η² = %.3f).",
		d.ValueColumn, d.GroupCount, d.GroupColumn, verdict(r.Significant), r.Statistic, formatP(r.PValue),
		r.Effect.Magnitude, r.Effect.Value)

	if len(r.Groups) > 0 {
		top := r.Groups[0]
		for _, g := range r.Groups[1:] {
			if g.Summary.Median > top.Summary.Median {
				top = g
			}
		}
		fmt.Fprintf(b, " %s has the highest median (%.3f).", top.Group, top.Summary.Median)
	}

	var differing []string
	for _, c := range r.PostHoc {
		if c.Significant {
			differing = append(differing, c.GroupA+" vs "+c.GroupB)
		}
	}
	switch {
	case len(r.PostHoc) == 0:
	case len(differing) == 0:
		b.WriteString(" No pair of groups differs significantly.")
	default:
		fmt.Fprintf(b, " Significant pairs: %s.", strings.Join(differing, ", "))
	}
}

func interpretSpearman(b *strings.Builder, r *stats.TestResult, d *stats.SpearmanDetails) {
	x, y := r.Variables[0], r.Variables[1]
	fmt.Fprintf(b, "%s and %s show a %s %s monotonic relationship (ρ = %.3f, %s, n = %d), which is %s.",
		x, y, d.Strength, d.Direction, d.Correlation, formatP(r.PValue), r.SampleSize, verdict(r.Significant))
	fmt.Fprintf(b, " The ranks of one explain %.1f%% of the variation in the other.", d.RSquared*100)

	if d.Mahalanobis != nil && d.Mahalanobis.Count > 0 {
		fmt.Fprintf(b, " %d joint outliers were flagged and kept.", d.Mahalanobis.Count)
	}
	if d.Linearity != nil && !d.Linearity.Linear {
		fmt.Fprintf(b, " A quadratic fit improves R² by %.3f, so the relationship is curved.", d.Linearity.Improvement)
	}
	if d.Stability != nil && !d.Stability.Stable {
		b.WriteString(" The correlation varies across the data and should be treated with caution.")
	}
}

func interpretChiSquare(b *strings.Builder, r *stats.TestResult, d *stats.ChiSquareDetails) {
	fmt.Fprintf(b, "The association between %s and %s is %s (χ² = %.3f, df = %d, %s) with a %s effect (Cramér's V = %.3f).",
		d.RowVariable, d.ColumnVariable, verdict(r.Significant), r.Statistic, d.DegreesOfFreedom, formatP(r.PValue),
		r.Effect.Magnitude, r.Effect.Value)
	fmt.Fprintf(b, " The largest contribution comes from %s=%s, %s=%s with %.0f observed against %.1f expected.",
		d.RowVariable, d.MaxContribution.Row, d.ColumnVariable, d.MaxContribution.Column,
		d.MaxContribution.Observed, d.MaxContribution.Expected)
	if d.MinExpected < 5 {
		fmt.Fprintf(b, " Some expected counts are below 5 (minimum %.2f).", d.MinExpected)
	}
	if d.Fisher != nil {
		fmt.Fprintf(b, " Fisher's exact test gives %s.", formatP(d.Fisher.PValue))
	}
}

func interpretFriedman(b *strings.Builder, r *stats.TestResult, d *stats.FriedmanDetails) {
	fmt.Fprintf(b, "Across %d subjects, the %d conditions (%s) differ in a way that is %s (χ² = %.3f, %s); Kendall's W = %.3f indicates %s.",
		d.Subjects, len(d.Conditions), strings.Join(d.Conditions, ", "), verdict(r.Significant), r.Statistic, formatP(r.PValue),
		r.Effect.Value, d.Consistency)

	sig := 0
	for _, c := range r.PostHoc {
		if c.Significant {
			sig++
		}
	}
	if len(r.PostHoc) > 0 {
		fmt.Fprintf(b, " %d of %d pairwise Wilcoxon comparisons are significant.", sig, len(r.PostHoc))
	}
}

func interpretDistribution(b *strings.Builder, r *stats.TestResult, d *stats.DistributionDetails) {
	fit := "is consistent with"
	if r.Significant {
		fit = "departs from"
	}
	fmt.Fprintf(b, "%s %s a %s distribution (D = %.3f, %s, %s effect).",
		r.Variables[0], fit, d.Distribution, r.Statistic, formatP(r.PValue), r.Effect.Magnitude)

	shape := "asymmetric"
	if d.Symmetric {
		shape = "symmetric"
	}
	fmt.Fprintf(b, " The sample is %s (skewness %.3f) with %d IQR outliers.", shape, d.Descriptives.Distribution.Skewness, d.IQROutliers)
}
