package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"socialstats/adapters/stats/cluster"
	"socialstats/adapters/stats/hypothesis"
	"socialstats/domain/dataset"
	"socialstats/domain/stats"
	"socialstats/internal/errors"
)

// errorLine renders a command error, prefixed with its code when it carries one
func errorLine(err error) string {
	if errors.IsAppError(err) {
		return fmt.Sprintf("Error [%s]: %v", errors.GetCode(err), err)
	}
	return fmt.Sprintf("Error: %v", err)
}

// testRequest is a parsed test subcommand
type testRequest struct {
	name string
	spec hypothesis.Spec
}

func kruskalRequest(args []string) (testRequest, error) {
	spec := hypothesis.KruskalSpec{Value: args[0], Group: args[1]}
	return testRequest{name: spec.Name(), spec: spec}, nil
}

func spearmanRequest(args []string) (testRequest, error) {
	spec := hypothesis.SpearmanSpec{X: args[0], Y: args[1]}
	return testRequest{name: spec.Name(), spec: spec}, nil
}

func chiSquareRequest(args []string) (testRequest, error) {
	spec := hypothesis.ChiSquareSpec{Row: args[0], Column: args[1]}
	return testRequest{name: spec.Name(), spec: spec}, nil
}

func friedmanRequest(args []string) (testRequest, error) {
	spec := hypothesis.FriedmanSpec{Columns: args}
	return testRequest{name: spec.Name(), spec: spec}, nil
}

func distributionRequest(args []string, dist string) (testRequest, error) {
	d, err := hypothesis.ParseDistribution(dist)
	if err != nil {
		return testRequest{}, err
	}
	spec := hypothesis.DistributionSpec{Column: args[0], Distribution: d}
	return testRequest{name: spec.Name(), spec: spec}, nil
}

// printTest writes the interpretation followed by the full result as JSON
func printTest(w io.Writer, name string, r *stats.TestResult) error {
	if r == nil {
		fmt.Fprintf(w, "%s: not applicable to this data\n", name)
		return nil
	}
	fmt.Fprintf(w, "%s\n", r.Interpretation)
	return writeJSON(w, r)
}

func printModels(w io.Writer, r *stats.ModelSelectionResult) error {
	if r == nil {
		fmt.Fprintln(w, "Regression not applicable: need a numeric target, numeric features and at least 10 complete rows")
		return nil
	}

	fmt.Fprintf(w, "📈 %s ~ %s (%d rows: %d train / %d test, seed %d)\n\n",
		r.Target, strings.Join(r.Features, " + "), r.Rows, r.TrainRows, r.TestRows, r.Seed)
	fmt.Fprintf(w, "%-18s %9s %9s %9s %9s  %s\n", "MODEL", "TRAIN R²", "TEST R²", "CV MEAN", "CV STD", "NOTE")
	for _, c := range r.Candidates {
		if c.Failed() {
			fmt.Fprintf(w, "%-18s %9s %9s %9s %9s  failed: %s\n", c.Name, "-", "-", "-", "-", c.Error)
			continue
		}
		note := ""
		if c.Overfitting {
			note = "overfitting"
		}
		if c.Name == r.Best {
			note = strings.TrimSpace("best " + note)
		}
		fmt.Fprintf(w, "%-18s %9.4f %9.4f %9.4f %9.4f  %s\n",
			c.Name, c.Train.R2, c.Test.R2, c.CVMean, c.CVStd, note)
	}

	fmt.Fprintf(w, "\nBest model: %s (test R² %.4f)\n", r.Best, r.BestTestR2)
	if len(r.TopFeatures) > 0 {
		fmt.Fprintf(w, "Top features: %s\n", strings.Join(r.TopFeatures, ", "))
	}
	if r.Residuals != nil {
		fmt.Fprintf(w, "Residuals: mean %.4f, std %.4f, normal %t\n",
			r.Residuals.Mean, r.Residuals.Std, r.Residuals.Normality.Normal())
	}
	if r.Tuning != nil {
		fmt.Fprintf(w, "Tuning: %s best CV R² %.4f with %v\n", r.Tuning.Model, r.Tuning.BestScore, formatParams(r.Tuning.BestParams))
	}
	if r.Stability != nil {
		fmt.Fprintf(w, "Bootstrap: mean R² %.4f ± %.4f over %d rounds (stable %t)\n",
			r.Stability.MeanR2, r.Stability.StdR2, r.Stability.Rounds, r.Stability.Stable)
	}
	return nil
}

func printClusters(w io.Writer, r *stats.ClusterResult) error {
	if r == nil {
		fmt.Fprintln(w, "Clustering not applicable: need at least two numeric columns and 10 complete rows")
		return nil
	}

	mode := "fixed"
	if r.AutoSelected {
		mode = "silhouette search"
	}
	fmt.Fprintf(w, "🧩 %d clusters on %s (%s, silhouette %.3f, %d rows)\n",
		r.K, strings.Join(r.Columns, ", "), mode, r.Silhouette, r.Rows)
	for _, s := range r.SilhouetteByK {
		fmt.Fprintf(w, "  k=%d silhouette %.3f\n", s.K, s.Score)
	}
	fmt.Fprintln(w)
	for _, p := range r.Profiles {
		fmt.Fprintf(w, "Cluster %d: %d rows (%.1f%%)\n", p.Label, p.Size, p.Percentage)
		for _, col := range r.Columns {
			fmt.Fprintf(w, "  %-20s mean %.3f\n", col, p.Columns[col].Mean)
		}
	}
	return nil
}

func clusterLabels(ds *dataset.Dataset, r *stats.ClusterResult) (*dataset.Dataset, error) {
	return cluster.WithLabels(ds, r)
}

func formatParams(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, params[k])
	}
	return strings.Join(parts, " ")
}
