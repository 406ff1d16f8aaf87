package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"socialstats/adapters/excel"
	"socialstats/app"
	"socialstats/domain/dataset"
	"socialstats/internal"
	"socialstats/internal/config"
	"socialstats/internal/testkit"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// options shared by every command that reads a dataset
type options struct {
	file   string
	sheet  string
	sample int
	seed   int64
}

// env is the per-invocation wiring built from configuration and flags
type env struct {
	cfg     *config.Config
	logger  *internal.Logger
	service *app.AnalysisService
}

func main() {
	// Load .env if present; real environment variables win
	_ = godotenv.Load()

	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "socialstats",
		Short:         "Statistical analysis of social media post tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.file, "file", "", "CSV or XLSX input (default: DATA_FILE)")
	rootCmd.PersistentFlags().StringVar(&opts.sheet, "sheet", "", "Worksheet to read from XLSX input (default: DATA_SHEET)")
	rootCmd.PersistentFlags().IntVar(&opts.sample, "sample", 0, "Analyze N generated posts instead of a file")
	rootCmd.PersistentFlags().Int64Var(&opts.seed, "seed", 0, "Random seed (default: ANALYSIS_SEED)")

	rootCmd.AddCommand(
		newDeriveCmd(opts),
		newTestCmd(opts),
		newRegressCmd(opts),
		newClusterCmd(opts),
		newReportCmd(opts),
		newSampleCmd(opts),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorLine(err))
		os.Exit(1)
	}
}

// setup loads configuration, applies flag overrides and builds the service
func setup(cmd *cobra.Command, opts *options) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Analysis.Seed = opts.seed
	}
	if opts.file != "" {
		cfg.Data.File = opts.file
	}
	if opts.sheet != "" {
		cfg.Data.Sheet = opts.sheet
	}

	level, ok := internal.ParseLogLevel(cfg.LogLevel)
	if !ok {
		level = internal.LogLevelInfo
	}
	logger := internal.NewLogger(level)
	return &env{cfg: cfg, logger: logger, service: app.NewAnalysisService(cfg, logger)}, nil
}

// load returns the generated sample or the configured file
func (e *env) load(opts *options) (*dataset.Dataset, error) {
	if opts.sample > 0 {
		gen := testkit.DefaultSocialConfig()
		gen.Posts = opts.sample
		gen.Seed = e.cfg.Analysis.Seed
		e.logger.Info("generated %d sample posts (seed %d)", gen.Posts, gen.Seed)
		return testkit.NewSocialDataGenerator(gen).Generate(), nil
	}
	if e.cfg.Data.File == "" {
		return nil, fmt.Errorf("no input: pass --file, set DATA_FILE or use --sample N")
	}
	reader := excel.NewDataReader(e.cfg.Data.File, excel.ReaderConfig{
		Sheet:         e.cfg.Data.Sheet,
		MissingPolicy: dataset.MissingPolicy(e.cfg.Data.MissingPolicy),
		Deduplicate:   e.cfg.Data.Deduplicate,
	}, e.logger)
	return e.service.Load(reader)
}

// loadDerived loads the dataset and adds engagement metrics when derive is set
func (e *env) loadDerived(opts *options, derive bool) (*dataset.Dataset, error) {
	ds, err := e.load(opts)
	if err != nil || !derive {
		return ds, err
	}
	out, _, err := e.service.Deriver.Derive(ds)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func newDeriveCmd(opts *options) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Add engagement metrics and write the table as CSV",
		Long: `Derive engagement_rate, engagement_level and every metric whose inputs exist.

Example: socialstats derive --file posts.csv --out posts_enriched.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			ds, err := e.load(opts)
			if err != nil {
				return err
			}
			derived, d, err := e.service.Deriver.Derive(ds)
			if err != nil {
				return err
			}
			if d.Method == "" {
				fmt.Fprintln(os.Stderr, "No engagement inputs found; engagement_rate not derived")
			} else {
				fmt.Fprintf(os.Stderr, "engagement_rate = %s (derived: %s)\n", d.Method, strings.Join(d.Derived, ", "))
			}
			return writeTable(out, derived)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output CSV path (default: stdout)")
	return cmd
}

func newTestCmd(opts *options) *cobra.Command {
	var derive bool
	var dist string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run one hypothesis test",
	}
	cmd.PersistentFlags().BoolVar(&derive, "derive", true, "Derive engagement metrics before testing")

	run := func(build func(args []string) (testRequest, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			req, err := build(args)
			if err != nil {
				return err
			}
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			ds, err := e.loadDerived(opts, derive)
			if err != nil {
				return err
			}
			return printTest(os.Stdout, req.name, e.service.Suite.Run(ds, req.spec))
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "kruskal [value-column] [group-column]",
			Short:   "Kruskal-Wallis comparison across groups with Mann-Whitney post-hoc",
			Example: "socialstats test kruskal engagement_rate platform --sample 500",
			Args:    cobra.ExactArgs(2),
			RunE:    run(kruskalRequest),
		},
		&cobra.Command{
			Use:     "spearman [x] [y]",
			Short:   "Spearman rank correlation",
			Example: "socialstats test spearman likes comments --file posts.csv",
			Args:    cobra.ExactArgs(2),
			RunE:    run(spearmanRequest),
		},
		&cobra.Command{
			Use:     "chisquare [row-column] [column]",
			Short:   "Chi-square test of independence",
			Example: "socialstats test chisquare engagement_level platform --sample 500",
			Args:    cobra.ExactArgs(2),
			RunE:    run(chiSquareRequest),
		},
		&cobra.Command{
			Use:     "friedman [columns...]",
			Short:   "Friedman test across repeated measures with Wilcoxon post-hoc",
			Example: "socialstats test friedman like_rate comment_rate share_rate --sample 500",
			Args:    cobra.MinimumNArgs(2),
			RunE:    run(friedmanRequest),
		},
	)

	ks := &cobra.Command{
		Use:     "ks [column]",
		Short:   "Kolmogorov-Smirnov goodness of fit",
		Example: "socialstats test ks engagement_rate --dist lognormal --sample 500",
		Args:    cobra.ExactArgs(1),
	}
	ks.RunE = run(func(args []string) (testRequest, error) { return distributionRequest(args, dist) })
	ks.Flags().StringVar(&dist, "dist", "normal", "Reference distribution: normal|uniform|exponential|lognormal")
	cmd.AddCommand(ks)

	return cmd
}

func newRegressCmd(opts *options) *cobra.Command {
	var models []string

	cmd := &cobra.Command{
		Use:   "regress [target] [features...]",
		Short: "Train the candidate regression models and pick the best",
		Long: `Fit every candidate on an 80/20 split with 5-fold cross-validation and report
the model with the highest test R². Without features, every other numeric column
is used.

Example: socialstats regress likes followers impressions --sample 500 --models linear,ridge`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if len(models) > 0 {
				if err := e.service.RestrictModels(models); err != nil {
					return err
				}
			}
			ds, err := e.load(opts)
			if err != nil {
				return err
			}
			result, err := e.service.Selector.FitAndSelect(cmd.Context(), ds, args[0], args[1:])
			if err != nil {
				return err
			}
			return printModels(os.Stdout, result)
		},
	}

	cmd.Flags().StringSliceVar(&models, "models", nil, "Candidate models to train (default: all)")
	return cmd
}

func newClusterCmd(opts *options) *cobra.Command {
	var k int
	var out string
	var derive bool

	cmd := &cobra.Command{
		Use:   "cluster [columns...]",
		Short: "Segment rows with k-means",
		Long: `Cluster rows on the standardized columns. With --k 0 the number of clusters is
chosen by silhouette over k = 2..min(ANALYSIS_MAX_CLUSTERS, n-1).

Example: socialstats cluster likes comments shares --sample 500 --out segments.csv`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			ds, err := e.loadDerived(opts, derive)
			if err != nil {
				return err
			}
			result, err := e.service.Analyzer.Cluster(cmd.Context(), ds, args, k)
			if err != nil {
				return err
			}
			if err := printClusters(os.Stdout, result); err != nil {
				return err
			}
			if out == "" || result == nil {
				return nil
			}
			labeled, err := clusterLabels(ds, result)
			if err != nil {
				return err
			}
			return writeTable(out, labeled)
		},
	}

	cmd.Flags().IntVar(&k, "k", 0, "Number of clusters (0 searches)")
	cmd.Flags().StringVar(&out, "out", "", "Write the table with a cluster column to this CSV")
	cmd.Flags().BoolVar(&derive, "derive", false, "Derive engagement metrics before clustering")
	return cmd
}

func newReportCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run the standard analyses and print the report as JSON",
		Long: `Derive engagement metrics, then run the group comparisons, correlations,
regression and clustering that fit the table, and print the aggregated report.

Example: socialstats report --sample 1000 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			ds, err := e.load(opts)
			if err != nil {
				return err
			}
			run, err := e.service.Explore(cmd.Context(), ds)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%d analyses in %dms, %d failures\n",
				run.Report.TotalAnalyses, run.RuntimeMs, len(run.Report.Failures))
			return writeJSON(os.Stdout, run.Report)
		},
	}
	return cmd
}

func newSampleCmd(opts *options) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:     "sample",
		Short:   "Write a seeded synthetic post table as CSV",
		Example: `socialstats sample --sample 1000 --seed 7 --out posts.csv`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.sample <= 0 {
				opts.sample = testkit.DefaultSocialConfig().Posts
			}
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			ds, err := e.load(opts)
			if err != nil {
				return err
			}
			return writeTable(out, ds)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output CSV path (default: stdout)")
	return cmd
}

// writeTable writes ds as CSV to path, or to stdout when path is empty
func writeTable(path string, ds *dataset.Dataset) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	if err := excel.WriteCSV(w, ds); err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintf(os.Stderr, "Wrote %d rows to %s\n", ds.Len(), path)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
