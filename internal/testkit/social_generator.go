package testkit

import (
	"math"
	"math/rand"
	"time"

	"socialstats/domain/dataset"
)

// SocialGeneratorConfig configures the social-media post generator
type SocialGeneratorConfig struct {
	Posts        int       `json:"posts"`
	Platforms    []string  `json:"platforms"`
	ContentTypes []string  `json:"content_types"`
	StartDate    time.Time `json:"start_date"`
	// MissingRate is the chance that a comments, shares or saves cell is blank
	MissingRate float64 `json:"missing_rate"`
	Seed        int64   `json:"seed"`
}

// DefaultSocialConfig returns sensible defaults for post generation
func DefaultSocialConfig() SocialGeneratorConfig {
	return SocialGeneratorConfig{
		Posts:        500,
		Platforms:    []string{"Instagram", "TikTok", "Twitter", "LinkedIn"},
		ContentTypes: []string{"image", "video", "text", "carousel"},
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MissingRate:  0.02,
		Seed:         42,
	}
}

// Base engagement per follower by platform, and a lift by content type
var (
	platformRate = map[string]float64{
		"Instagram": 0.05,
		"TikTok":    0.08,
		"Twitter":   0.02,
		"LinkedIn":  0.03,
	}
	contentLift = map[string]float64{
		"image":    1.0,
		"video":    1.4,
		"text":     0.7,
		"carousel": 1.2,
	}
)

// SocialDataGenerator generates posts with platform and content effects
type SocialDataGenerator struct {
	config SocialGeneratorConfig
	rng    *rand.Rand
}

// NewSocialDataGenerator creates a new generator
func NewSocialDataGenerator(config SocialGeneratorConfig) *SocialDataGenerator {
	return &SocialDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds the post table: post_date, platform, content_type,
// followers, impressions, likes, comments, shares and saves
func (g *SocialDataGenerator) Generate() *dataset.Dataset {
	n := g.config.Posts
	dates := make([]time.Time, n)
	platforms := make([]string, n)
	contents := make([]string, n)
	followers := make([]float64, n)
	impressions := make([]float64, n)
	likes := make([]float64, n)
	comments := make([]float64, n)
	shares := make([]float64, n)
	saves := make([]float64, n)

	audience := 5000.0
	for i := 0; i < n; i++ {
		// Followers drift upward with occasional dips
		audience = math.Max(100, audience*(1+0.01+g.rng.NormFloat64()*0.02))

		platform := g.config.Platforms[g.rng.Intn(len(g.config.Platforms))]
		content := g.config.ContentTypes[g.rng.Intn(len(g.config.ContentTypes))]
		rate := platformRate[platform]
		if rate == 0 {
			rate = 0.04
		}
		lift := contentLift[content]
		if lift == 0 {
			lift = 1
		}

		dates[i] = g.config.StartDate.Add(time.Duration(i) * 6 * time.Hour)
		platforms[i] = platform
		contents[i] = content
		followers[i] = math.Round(audience)
		impressions[i] = g.count(audience * (1.5 + g.rng.Float64()))
		likes[i] = g.count(audience * rate * lift * math.Exp(g.rng.NormFloat64()*0.25))
		comments[i] = g.maybe(g.count(likes[i] * (0.05 + 0.05*g.rng.Float64())))
		shares[i] = g.maybe(g.count(likes[i] * (0.02 + 0.04*g.rng.Float64())))
		saves[i] = g.maybe(g.count(likes[i] * (0.03 + 0.03*g.rng.Float64())))
	}

	return dataset.MustNew(
		dataset.NewTimestampColumn("post_date", dates),
		dataset.NewCategoricalColumn("platform", platforms),
		dataset.NewCategoricalColumn("content_type", contents),
		dataset.NewNumericColumn("followers", followers),
		dataset.NewNumericColumn("impressions", impressions),
		dataset.NewNumericColumn("likes", likes),
		dataset.NewNumericColumn("comments", comments),
		dataset.NewNumericColumn("shares", shares),
		dataset.NewNumericColumn("saves", saves),
	)
}

func (g *SocialDataGenerator) count(v float64) float64 {
	return math.Max(0, math.Round(v))
}

// maybe blanks v with probability MissingRate
func (g *SocialDataGenerator) maybe(v float64) float64 {
	if g.rng.Float64() < g.config.MissingRate {
		return math.NaN()
	}
	return v
}
