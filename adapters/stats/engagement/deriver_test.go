package engagement

import (
	"math"
	"testing"

	"socialstats/domain/core"
	"socialstats/domain/dataset"
	"socialstats/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDerivePrefersLikesOverFollowers(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewNumericColumn("Likes", []float64{50, 0, 10}),
		dataset.NewNumericColumn("follower_count", []float64{1000, 0, 200}),
		dataset.NewNumericColumn("Comments", []float64{5, 1, math.NaN()}),
		dataset.NewNumericColumn("shares", []float64{2, 0, 1}),
		dataset.NewNumericColumn("views", []float64{4000, 10, 100}),
	)

	out, d, err := NewDeriver(DefaultConfig(), nil).Derive(ds)
	require.NoError(t, err)
	assert.Equal(t, "likes/followers", d.Method)
	assert.Equal(t, "Likes", d.Inputs[Likes])
	assert.Equal(t, "follower_count", d.Inputs[Followers])

	rate, ok := out.Numeric(EngagementRate)
	require.True(t, ok)
	assert.InDelta(t, 5.0, rate[0], 1e-12)
	assert.True(t, math.IsNaN(rate[1]), "zero followers is missing, not Inf")
	assert.InDelta(t, 5.0, rate[2], 1e-12)

	level, _ := out.Labels(EngagementLevel)
	assert.Equal(t, []string{"average", "", "average"}, level)

	ratio, _ := out.Numeric(CommentLikeRatio)
	assert.InDelta(t, 5.0/51, ratio[0], 1e-12)
	assert.True(t, math.IsNaN(ratio[2]))

	virality, _ := out.Numeric(ViralityScore)
	assert.InDelta(t, (4+7.5+50)/1000.0, virality[0], 1e-12)

	quality, _ := out.Numeric(ContentQualityScore)
	assert.InDelta(t, (15+4+50)/58.0, quality[0], 1e-12)

	reach, _ := out.Numeric(OrganicReachScore)
	assert.InDelta(t, 4000/1001.0, reach[0], 1e-12)

	growth, _ := out.Numeric(GrowthScore)
	assert.Equal(t, 0.0, growth[0])
	assert.InDelta(t, -1.0, growth[1], 1e-12)
	assert.True(t, math.IsNaN(growth[2]), "growth from zero followers is missing")

	// The input dataset is untouched
	assert.False(t, ds.Has(EngagementRate))
	assert.Equal(t, ds.Width()+len(d.Derived), out.Width())
}

func TestDeriveFallbacks(t *testing.T) {
	views := dataset.MustNew(
		dataset.NewNumericColumn("likes", []float64{10, 20}),
		dataset.NewNumericColumn("impressions", []float64{100, 400}),
	)
	out, d, err := NewDeriver(DefaultConfig(), nil).Derive(views)
	require.NoError(t, err)
	assert.Equal(t, "likes/views", d.Method)
	rate, _ := out.Numeric(EngagementRate)
	assert.InDeltaSlice(t, []float64{10, 5}, rate, 1e-9)

	sum := dataset.MustNew(
		dataset.NewNumericColumn("comments", []float64{3, math.NaN()}),
		dataset.NewNumericColumn("saves", []float64{1, math.NaN()}),
		dataset.NewNumericColumn("audience", []float64{200, 100}),
	)
	out, d, err = NewDeriver(DefaultConfig(), nil).Derive(sum)
	require.NoError(t, err)
	assert.Equal(t, "interactions/followers", d.Method)
	rate, _ = out.Numeric(EngagementRate)
	assert.InDelta(t, 2.0, rate[0], 1e-12)
	assert.True(t, math.IsNaN(rate[1]))
	assert.NotContains(t, d.Derived, LikeRate)
	assert.Contains(t, d.Derived, GrowthScore)
}

func TestDeriveSkipsSilently(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewCategoricalColumn("platform", []string{"a", "b"}),
		dataset.NewNumericColumn("duration", []float64{1, 2}),
	)
	out, d, err := NewDeriver(DefaultConfig(), nil).Derive(ds)
	require.NoError(t, err)
	assert.Empty(t, d.Method)
	assert.Empty(t, d.Derived)
	assert.Equal(t, ds.Names(), out.Names())
}

func TestDeriveInputErrors(t *testing.T) {
	text := dataset.MustNew(dataset.NewCategoricalColumn("likes", []string{"many"}))
	_, _, err := NewDeriver(DefaultConfig(), nil).Derive(text)
	assert.ErrorIs(t, err, core.ErrColumnNotNumeric)

	pinned := DefaultConfig()
	pinned.Columns = map[string]string{Followers: "fans"}
	numeric := dataset.MustNew(dataset.NewNumericColumn("likes", []float64{1}))
	_, _, err = NewDeriver(pinned, nil).Derive(numeric)
	assert.ErrorIs(t, err, core.ErrColumnNotFound)
}

func TestDerivePinnedColumn(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewNumericColumn("hearts", []float64{30}),
		dataset.NewNumericColumn("followers", []float64{600}),
	)
	config := DefaultConfig()
	config.Columns = map[string]string{Likes: "hearts"}

	out, d, err := NewDeriver(config, nil).Derive(ds)
	require.NoError(t, err)
	assert.Equal(t, "likes/followers", d.Method)
	rate, _ := out.Numeric(EngagementRate)
	assert.InDelta(t, 5.0, rate[0], 1e-12)
}

func TestLevel(t *testing.T) {
	assert.Equal(t, "excellent", Level(10.5))
	assert.Equal(t, "good", Level(10))
	assert.Equal(t, "average", Level(4))
	assert.Equal(t, "low", Level(1.5))
	assert.Equal(t, "poor", Level(1))
	assert.Equal(t, "", Level(math.NaN()))
}

func TestDeriveIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		config := testkit.DefaultSocialConfig()
		config.Posts = rapid.IntRange(1, 60).Draw(t, "posts")
		config.Seed = rapid.Int64().Draw(t, "seed")
		config.MissingRate = rapid.Float64Range(0, 0.5).Draw(t, "missing")
		ds := testkit.NewSocialDataGenerator(config).Generate()

		deriver := NewDeriver(DefaultConfig(), nil)
		once, first, err := deriver.Derive(ds)
		if err != nil {
			t.Fatal(err)
		}
		twice, second, err := deriver.Derive(once)
		if err != nil {
			t.Fatal(err)
		}
		if once.Width() != twice.Width() {
			t.Fatalf("width grew from %d to %d", once.Width(), twice.Width())
		}
		if once.Fingerprint() != twice.Fingerprint() {
			t.Fatalf("derived columns changed on the second run")
		}
		if len(first.Derived) != len(second.Derived) {
			t.Fatalf("derived %v then %v", first.Derived, second.Derived)
		}
	})
}
