package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"socialstats/adapters/stats/hypothesis"
	"socialstats/adapters/stats/regression"
	"socialstats/app"
	"socialstats/internal/config"
	"socialstats/internal/errors"
	"socialstats/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestRequests(t *testing.T) {
	req, err := kruskalRequest([]string{"engagement_rate", "platform"})
	require.NoError(t, err)
	assert.Equal(t, hypothesis.KruskalSpec{Value: "engagement_rate", Group: "platform"}, req.spec)
	assert.Equal(t, "kruskal_wallis(engagement_rate by platform)", req.name)

	req, err = distributionRequest([]string{"likes"}, "lognormal")
	require.NoError(t, err)
	assert.Equal(t, hypothesis.DistributionSpec{Column: "likes", Distribution: hypothesis.LogNormal}, req.spec)

	_, err = distributionRequest([]string{"likes"}, "cauchy")
	assert.Error(t, err)
}

func TestPrinters(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.Tune = false
	cfg.Analysis.BootstrapRounds = 0
	svc := app.NewAnalysisService(cfg, nil)

	gen := testkit.DefaultSocialConfig()
	gen.Posts = 120
	gen.MissingRate = 0
	ds := testkit.NewSocialDataGenerator(gen).Generate()

	var buf bytes.Buffer
	require.NoError(t, printTest(&buf, "spearman(likes, comments)", svc.Suite.Spearman(ds, "likes", "comments")))
	assert.Contains(t, buf.String(), `"test": "spearman"`)

	buf.Reset()
	require.NoError(t, printTest(&buf, "spearman(likes, platform)", nil))
	assert.Equal(t, "spearman(likes, platform): not applicable to this data\n", buf.String())

	model, err := svc.Selector.FitAndSelect(context.Background(), ds, "likes", []string{"followers", "impressions"})
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, printModels(&buf, model))
	assert.Contains(t, buf.String(), "Best model: "+model.Best)

	clusters, err := svc.Analyzer.Cluster(context.Background(), ds, []string{"likes", "comments"}, 2)
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, printClusters(&buf, clusters))
	assert.Contains(t, buf.String(), "2 clusters on likes, comments (fixed")

	labeled, err := clusterLabels(ds, clusters)
	require.NoError(t, err)
	assert.True(t, labeled.Has("cluster"))
}

func TestFormatParams(t *testing.T) {
	assert.Equal(t, "learning_rate=0.1 n_estimators=100", formatParams(map[string]float64{"n_estimators": 100, "learning_rate": 0.1}))
	assert.Empty(t, formatParams(nil))
}

func TestErrorLine(t *testing.T) {
	_, err := regression.LookupModels([]string{"svm"})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(errorLine(err), `Error [NOT_FOUND]: model "svm" not found`))

	wrapped := errors.Wrap(errors.InvalidInput("--k must be >= 0"), "cluster")
	assert.Equal(t, "Error [INVALID_INPUT]: cluster: --k must be >= 0", errorLine(wrapped))

	assert.Equal(t, "Error: unknown flag: --x", errorLine(stderrors.New("unknown flag: --x")))
}
