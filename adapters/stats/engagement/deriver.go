package engagement

import (
	"fmt"
	"math"
	"strings"

	"socialstats/domain/core"
	"socialstats/domain/dataset"
	"socialstats/internal"
)

// Canonical input columns
const (
	Likes     = "likes"
	Comments  = "comments"
	Shares    = "shares"
	Saves     = "saves"
	Followers = "followers"
	Views     = "views"
)

// Derived columns
const (
	EngagementRate           = "engagement_rate"
	LikeRate                 = "like_rate"
	CommentRate              = "comment_rate"
	ShareRate                = "share_rate"
	CommentLikeRatio         = "comment_like_ratio"
	ViralityScore            = "virality_score"
	ContentQualityScore      = "content_quality_score"
	EmotionalEngagementScore = "emotional_engagement_score"
	OrganicReachScore        = "organic_reach_score"
	GrowthScore              = "growth_score"
	EngagementLevel          = "engagement_level"
)

// DefaultAliases lists the accepted spellings of each input, matched case-insensitively
func DefaultAliases() map[string][]string {
	return map[string][]string{
		Likes:     {"likes", "like_count", "likes_count", "num_likes"},
		Comments:  {"comments", "comment_count", "comments_count", "num_comments"},
		Shares:    {"shares", "share_count", "shares_count", "retweets", "reposts"},
		Saves:     {"saves", "save_count", "saves_count", "bookmarks"},
		Followers: {"followers", "follower_count", "followers_count", "audience", "audience_size", "subscribers"},
		Views:     {"views", "view_count", "views_count", "impressions", "reach"},
	}
}

// Config pins input columns and overrides the alias table
type Config struct {
	// Columns maps a canonical input to the dataset column to use, overriding aliases
	Columns map[string]string   `json:"columns"`
	Aliases map[string][]string `json:"aliases"`
}

// DefaultConfig returns the alias table with nothing pinned
func DefaultConfig() Config {
	return Config{Aliases: DefaultAliases()}
}

// Derivation reports what one Derive call produced
type Derivation struct {
	// Method is the engagement_rate formula used, empty when none applied
	Method  string   `json:"method"`
	Derived []string `json:"derived"`
	// Inputs maps each canonical input found to its dataset column
	Inputs map[string]string `json:"inputs"`
}

// Deriver adds engagement metrics to a dataset
type Deriver struct {
	config Config
	logger *internal.Logger
}

// NewDeriver creates a deriver; a nil logger falls back to the default
func NewDeriver(config Config, logger *internal.Logger) *Deriver {
	if config.Aliases == nil {
		config.Aliases = DefaultAliases()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Deriver{config: config, logger: logger.With("engagement")}
}

// resolve finds the dataset column for each canonical input. A pinned column
// must exist; a matched column must be numeric.
func (d *Deriver) resolve(ds *dataset.Dataset) (map[string][]float64, map[string]string, error) {
	byLower := make(map[string]string, ds.Width())
	for _, name := range ds.Names() {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := byLower[key]; !dup {
			byLower[key] = name
		}
	}

	values := make(map[string][]float64)
	inputs := make(map[string]string)
	for _, canonical := range []string{Likes, Comments, Shares, Saves, Followers, Views} {
		column := ""
		if pinned, ok := d.config.Columns[canonical]; ok {
			if !ds.Has(pinned) {
				return nil, nil, core.NewColumnNotFoundError(pinned)
			}
			column = pinned
		} else {
			for _, alias := range d.config.Aliases[canonical] {
				if name, ok := byLower[alias]; ok {
					column = name
					break
				}
			}
		}
		if column == "" {
			continue
		}
		v, ok := ds.Numeric(column)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s (%s)", core.ErrColumnNotNumeric, column, canonical)
		}
		values[canonical] = v
		inputs[canonical] = column
	}
	return values, inputs, nil
}

// Derive returns ds with every derivable metric added or overwritten. Each
// metric is gated on its own inputs; missing inputs skip it silently. A zero
// denominator or a missing input cell yields a missing cell.
func (d *Deriver) Derive(ds *dataset.Dataset) (*dataset.Dataset, Derivation, error) {
	values, inputs, err := d.resolve(ds)
	if err != nil {
		return nil, Derivation{}, err
	}
	out := Derivation{Inputs: inputs}
	n := ds.Len()
	has := func(names ...string) bool {
		for _, name := range names {
			if _, ok := values[name]; !ok {
				return false
			}
		}
		return true
	}
	add := func(name string, col *dataset.Column) error {
		next, err := ds.WithColumn(col)
		if err != nil {
			return err
		}
		ds = next
		out.Derived = append(out.Derived, name)
		return nil
	}
	numeric := func(name string, f func(i int) float64) error {
		col := make([]float64, n)
		for i := range col {
			col[i] = f(i)
		}
		return add(name, dataset.NewNumericColumn(name, col))
	}
	l, c, s, sv := values[Likes], values[Comments], values[Shares], values[Saves]
	fo, vw := values[Followers], values[Views]

	var rate []float64
	switch {
	case has(Likes, Followers):
		out.Method = "likes/followers"
		rate = ratio(l, fo, 100)
	case has(Likes, Views):
		out.Method = "likes/views"
		rate = ratio(l, vw, 100)
	case has(Followers) && (has(Likes) || has(Comments) || has(Shares) || has(Saves)):
		out.Method = "interactions/followers"
		rate = ratio(interactions(n, l, c, s, sv), fo, 100)
	}
	if rate != nil {
		if err := add(EngagementRate, dataset.NewNumericColumn(EngagementRate, rate)); err != nil {
			return nil, out, err
		}
		if err := add(EngagementLevel, dataset.NewCategoricalColumn(EngagementLevel, levels(rate))); err != nil {
			return nil, out, err
		}
	}

	type metric struct {
		name     string
		requires []string
		compute  func(i int) float64
	}
	metrics := []metric{
		{LikeRate, []string{Likes, Comments, Shares, Followers}, func(i int) float64 { return div(l[i], fo[i]) * 100 }},
		{CommentRate, []string{Likes, Comments, Shares, Followers}, func(i int) float64 { return div(c[i], fo[i]) * 100 }},
		{ShareRate, []string{Likes, Comments, Shares, Followers}, func(i int) float64 { return div(s[i], fo[i]) * 100 }},
		{CommentLikeRatio, []string{Likes, Comments}, func(i int) float64 { return div(c[i], l[i]+1) }},
		{ViralityScore, []string{Likes, Comments, Shares}, func(i int) float64 {
			return (2*s[i] + 1.5*c[i] + l[i]) / 1000
		}},
		{ContentQualityScore, []string{Likes, Comments, Shares}, func(i int) float64 {
			return div(3*c[i]+2*s[i]+l[i], l[i]+c[i]+s[i]+1)
		}},
		{EmotionalEngagementScore, []string{Likes, Comments, Shares}, func(i int) float64 {
			return div(2*c[i]+1.5*s[i], l[i]+1)
		}},
		{OrganicReachScore, []string{Views, Followers}, func(i int) float64 { return div(vw[i], fo[i]+1) }},
		{GrowthScore, []string{Followers}, func(i int) float64 {
			if i == 0 {
				return 0
			}
			return div(fo[i]-fo[i-1], fo[i-1])
		}},
	}
	for _, m := range metrics {
		if !has(m.requires...) {
			continue
		}
		if err := numeric(m.name, m.compute); err != nil {
			return nil, out, err
		}
	}

	if out.Method == "" {
		d.logger.Debug("no engagement_rate formula applies to columns %v", ds.Names())
	} else {
		d.logger.Info("derived %d metrics, engagement_rate from %s", len(out.Derived), out.Method)
	}
	return ds, out, nil
}

// div returns a/b, or NaN (a missing cell) when b is zero or either side is missing
func div(a, b float64) float64 {
	if b == 0 || math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	return a / b
}

func ratio(num, den []float64, scale float64) []float64 {
	out := make([]float64, len(num))
	for i := range num {
		out[i] = div(num[i], den[i]) * scale
	}
	return out
}

// interactions sums the available interaction counts per row; a row with none present is missing
func interactions(n int, columns ...[]float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		sum, seen := 0.0, false
		for _, col := range columns {
			if col == nil || math.IsNaN(col[i]) {
				continue
			}
			sum += col[i]
			seen = true
		}
		if !seen {
			sum = math.NaN()
		}
		out[i] = sum
	}
	return out
}

// Level buckets an engagement rate in percent
func Level(rate float64) string {
	switch {
	case math.IsNaN(rate):
		return ""
	case rate > 10:
		return "excellent"
	case rate > 5:
		return "good"
	case rate > 3:
		return "average"
	case rate > 1:
		return "low"
	default:
		return "poor"
	}
}

func levels(rate []float64) []string {
	out := make([]string, len(rate))
	for i, r := range rate {
		out[i] = Level(r)
	}
	return out
}
