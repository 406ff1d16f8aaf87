package cluster

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"socialstats/domain/core"
	"socialstats/domain/dataset"
	"socialstats/domain/stats"
	"socialstats/internal"
	"socialstats/internal/analysis/numeric"
	"socialstats/internal/errors"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MinRows is the smallest number of complete rows a run accepts
const MinRows = 10

// LabelColumn is the column WithLabels writes
const LabelColumn = "cluster"

// Options configures an Analyzer
type Options struct {
	Seed int64
	// MaxClusters caps the automatic k search
	MaxClusters int
	Restarts    int
	MaxIter     int
	Tol         float64
	Workers     int
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{
		Seed:        42,
		MaxClusters: 10,
		Restarts:    10,
		MaxIter:     300,
		Tol:         1e-4,
		Workers:     runtime.GOMAXPROCS(0),
	}
}

// Analyzer groups rows by k-means on standardized columns
type Analyzer struct {
	opts   Options
	logger *internal.Logger
}

// NewAnalyzer fills unset options with defaults; a nil logger falls back to the default
func NewAnalyzer(opts Options, logger *internal.Logger) *Analyzer {
	def := DefaultOptions()
	if opts.MaxClusters < 2 {
		opts.MaxClusters = def.MaxClusters
	}
	if opts.Restarts < 1 {
		opts.Restarts = def.Restarts
	}
	if opts.MaxIter < 1 {
		opts.MaxIter = def.MaxIter
	}
	if opts.Tol <= 0 {
		opts.Tol = def.Tol
	}
	if opts.Workers < 1 {
		opts.Workers = def.Workers
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Analyzer{opts: opts, logger: logger.With("cluster")}
}

// Cluster partitions the rows complete on columns into k clusters, or
// searches k in 2..min(MaxClusters, n−1) by silhouette when k is 0. It returns
// nil when a column is absent or not numeric or fewer than MinRows rows are
// complete. An explicit k outside 2..n−1 is a validation error.
func (a *Analyzer) Cluster(ctx context.Context, ds *dataset.Dataset, columns []string, k int) (*stats.ClusterResult, error) {
	if k < 0 || k == 1 {
		return nil, errors.ValidationError(fmt.Sprintf("k must be 0 (auto) or at least 2, got %d", k))
	}
	if ds == nil || len(columns) == 0 {
		return nil, nil
	}
	data, rows, ok := ds.NumericMatrix(columns)
	if !ok {
		a.logger.Debug("cluster columns %v are absent or not numeric", columns)
		return nil, nil
	}
	n := len(data)
	if n < MinRows {
		a.logger.Debug("%d complete rows, need %d", n, MinRows)
		return nil, nil
	}
	if k > n-1 {
		return nil, errors.ValidationError(fmt.Sprintf("k=%d needs more than %d complete rows", k, n))
	}

	points := standardize(data)
	result := &stats.ClusterResult{
		ID:         core.NewID(),
		Columns:    append([]string(nil), columns...),
		Seed:       a.opts.Seed,
		Rows:       n,
		ComputedAt: core.Now(),
	}

	var best partition
	if k == 0 {
		scores, parts, err := a.search(ctx, points, min(a.opts.MaxClusters, n-1))
		if err != nil {
			return nil, err
		}
		chosen := bestScore(scores)
		result.AutoSelected = true
		result.SilhouetteByK = scores
		result.K, result.Silhouette, best = scores[chosen].K, scores[chosen].Score, parts[chosen]
	} else {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		best = a.run(points, k)
		result.K = k
		result.Silhouette = silhouette(points, best.labels, k)
	}

	labels, used := canonical(best.labels)
	result.Inertia = best.inertia
	result.Assignments = make([]stats.ClusterAssignment, n)
	for i, l := range labels {
		result.Assignments[i] = stats.ClusterAssignment{Row: rows[i], Label: l}
	}
	result.Profiles = profiles(columns, data, labels, used)
	result.Projection = project(points)

	a.logger.Info("clustered %d rows on %v into k=%d (silhouette %.3f)", n, columns, result.K, result.Silhouette)
	return result, nil
}

// run clusters with a source seeded from Seed alone, so a given k always
// yields the same partition
func (a *Analyzer) run(points [][]float64, k int) partition {
	rng := rand.New(rand.NewSource(a.opts.Seed))
	return kmeans(points, k, rng, a.opts.Restarts, a.opts.MaxIter, a.opts.Tol)
}

// search scores every k in 2..maxK concurrently
func (a *Analyzer) search(ctx context.Context, points [][]float64, maxK int) ([]stats.SilhouetteScore, []partition, error) {
	count := maxK - 1
	scores := make([]stats.SilhouetteScore, count)
	parts := make([]partition, count)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i := 0; i < count; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			k := i + 2
			parts[i] = a.run(points, k)
			scores[i] = stats.SilhouetteScore{K: k, Score: silhouette(points, parts[i].labels, k)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return scores, parts, nil
}

// bestScore returns the first index holding the highest silhouette
func bestScore(scores []stats.SilhouetteScore) int {
	best := 0
	for i, s := range scores {
		if s.Score > scores[best].Score {
			best = i
		}
	}
	return best
}

// standardize scales columns to zero mean and unit population variance;
// constant columns become zero
func standardize(data [][]float64) [][]float64 {
	p := len(data[0])
	mean := make([]float64, p)
	std := make([]float64, p)
	col := make([]float64, len(data))
	for j := 0; j < p; j++ {
		for i, row := range data {
			col[i] = row[j]
		}
		mean[j], _ = numeric.MeanStd(col)
		std[j] = numeric.PopulationStd(col)
		if std[j] == 0 {
			std[j] = 1
		}
	}

	out := make([][]float64, len(data))
	for i, row := range data {
		out[i] = make([]float64, p)
		for j, v := range row {
			out[i][j] = (v - mean[j]) / std[j]
		}
	}
	return out
}

// profiles summarizes each cluster in original units
func profiles(columns []string, data [][]float64, labels []int, k int) []stats.ClusterProfile {
	members := make([][]int, k)
	for i, l := range labels {
		members[l] = append(members[l], i)
	}

	out := make([]stats.ClusterProfile, k)
	for c, idx := range members {
		p := stats.ClusterProfile{
			Label:      c,
			Size:       len(idx),
			Percentage: float64(len(idx)) / float64(len(labels)) * 100,
			Centroid:   make(map[string]float64, len(columns)),
			Columns:    make(map[string]stats.ColumnSummary, len(columns)),
		}
		values := make([]float64, len(idx))
		for j, name := range columns {
			for m, i := range idx {
				values[m] = data[i][j]
			}
			mean, std := numeric.MeanStd(values)
			sorted := numeric.Sorted(values)
			p.Centroid[name] = mean
			p.Columns[name] = stats.ColumnSummary{
				Mean:   mean,
				Std:    std,
				Median: numeric.Quantile(sorted, 0.5),
				Q25:    numeric.Quantile(sorted, 0.25),
				Q75:    numeric.Quantile(sorted, 0.75),
			}
		}
		out[c] = p
	}
	return out
}

// project maps standardized points onto their first two principal components
func project(points [][]float64) *stats.Projection {
	n, p := len(points), len(points[0])
	x := mat.NewDense(n, p, nil)
	for i, row := range points {
		x.SetRow(i, row)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	components := min(2, p, len(vars))
	total := 0.0
	for _, v := range vars {
		total += v
	}
	ratio := make([]float64, components)
	for c := range ratio {
		if total > 0 {
			ratio[c] = vars[c] / total
		}
	}

	var scores mat.Dense
	scores.Mul(x, vecs.Slice(0, p, 0, components))
	out := make([][]float64, n)
	for i := range out {
		out[i] = mat.Row(nil, i, &scores)
	}
	return &stats.Projection{Components: components, ExplainedVarianceRatio: ratio, Points: out}
}

// WithLabels returns ds with the cluster labels of result in LabelColumn.
// Rows the run skipped for missing data get a missing label.
func WithLabels(ds *dataset.Dataset, result *stats.ClusterResult) (*dataset.Dataset, error) {
	if result == nil {
		return ds, nil
	}
	values := make([]dataset.Value, ds.Len())
	for _, a := range result.Assignments {
		if a.Row < 0 || a.Row >= len(values) {
			return nil, core.NewValidationError(LabelColumn, fmt.Sprintf("row %d outside dataset of %d rows", a.Row, ds.Len()))
		}
		values[a.Row] = dataset.Number(float64(a.Label))
	}
	return ds.WithColumn(dataset.NewColumn(LabelColumn, dataset.TypeNumeric, values))
}
