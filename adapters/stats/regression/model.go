package regression

import (
	"fmt"
	"sort"
	"strings"

	"socialstats/domain/core"
	"socialstats/internal/errors"
)

// Regressor is a trainable model over row-major feature matrices
type Regressor interface {
	Fit(x [][]float64, y []float64) error
	Predict(row []float64) float64
}

// coefficientModel exposes linear coefficients, one per feature
type coefficientModel interface {
	Coefficients() []float64
}

// importanceModel exposes impurity-based importances that sum to one
type importanceModel interface {
	Importances() []float64
}

// Model names
const (
	ModelLinear           = "linear"
	ModelRidge            = "ridge"
	ModelLasso            = "lasso"
	ModelElasticNet       = "elastic_net"
	ModelRandomForest     = "random_forest"
	ModelGradientBoosting = "gradient_boosting"
)

// ModelSpec is a model family with frozen hyperparameters
type ModelSpec struct {
	Name   string
	Params map[string]float64

	build func(params map[string]float64, seed int64) Regressor
	grid  []map[string]float64
}

// New returns an untrained model; seed drives any internal randomness
func (m ModelSpec) New(seed int64) Regressor {
	return m.build(m.Params, seed)
}

// With returns a copy of m with params overriding its defaults
func (m ModelSpec) With(params map[string]float64) ModelSpec {
	merged := make(map[string]float64, len(m.Params)+len(params))
	for k, v := range m.Params {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	m.Params = merged
	return m
}

// Grid returns the bounded hyperparameter grid of the family, nil when untunable
func (m ModelSpec) Grid() []map[string]float64 {
	return m.grid
}

func (m ModelSpec) params() map[string]float64 {
	out := make(map[string]float64, len(m.Params))
	for k, v := range m.Params {
		out[k] = v
	}
	return out
}

func product(axes map[string][]float64) []map[string]float64 {
	keys := make([]string, 0, len(axes))
	for k := range axes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	grid := []map[string]float64{{}}
	for _, k := range keys {
		var next []map[string]float64
		for _, base := range grid {
			for _, v := range axes[k] {
				p := make(map[string]float64, len(base)+1)
				for bk, bv := range base {
					p[bk] = bv
				}
				p[k] = v
				next = append(next, p)
			}
		}
		grid = next
	}
	return grid
}

// DefaultModels returns the full candidate set in reporting order
func DefaultModels() []ModelSpec {
	return []ModelSpec{
		{
			Name:   ModelLinear,
			Params: map[string]float64{},
			build:  func(map[string]float64, int64) Regressor { return &OLS{} },
		},
		{
			Name:   ModelRidge,
			Params: map[string]float64{"alpha": 1},
			build: func(p map[string]float64, _ int64) Regressor {
				return &Ridge{Alpha: p["alpha"]}
			},
			grid: product(map[string][]float64{"alpha": {0.1, 1, 10, 100}}),
		},
		{
			Name:   ModelLasso,
			Params: map[string]float64{"alpha": 0.1},
			build: func(p map[string]float64, _ int64) Regressor {
				return &ElasticNet{Alpha: p["alpha"], L1Ratio: 1}
			},
			grid: product(map[string][]float64{"alpha": {0.01, 0.1, 1, 10}}),
		},
		{
			Name:   ModelElasticNet,
			Params: map[string]float64{"alpha": 0.1, "l1_ratio": 0.5},
			build: func(p map[string]float64, _ int64) Regressor {
				return &ElasticNet{Alpha: p["alpha"], L1Ratio: p["l1_ratio"]}
			},
			grid: product(map[string][]float64{"alpha": {0.01, 0.1, 1}, "l1_ratio": {0.2, 0.5, 0.8}}),
		},
		{
			Name:   ModelRandomForest,
			Params: map[string]float64{"n_estimators": 100, "max_depth": 0},
			build: func(p map[string]float64, seed int64) Regressor {
				return &RandomForest{Trees: int(p["n_estimators"]), MaxDepth: int(p["max_depth"]), Seed: seed}
			},
			grid: product(map[string][]float64{"n_estimators": {50, 100, 200}, "max_depth": {0, 10, 20}}),
		},
		{
			Name:   ModelGradientBoosting,
			Params: map[string]float64{"n_estimators": 100, "learning_rate": 0.1, "max_depth": 3},
			build: func(p map[string]float64, seed int64) Regressor {
				return &GradientBoosting{
					Stages:       int(p["n_estimators"]),
					LearningRate: p["learning_rate"],
					MaxDepth:     int(p["max_depth"]),
				}
			},
			grid: product(map[string][]float64{"n_estimators": {50, 100, 200}, "learning_rate": {0.01, 0.1, 0.2}}),
		},
	}
}

// ModelNames lists the names of the default candidate set
func ModelNames() []string {
	models := DefaultModels()
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Name
	}
	return names
}

// LookupModels resolves model names against the default set, preserving the
// requested order. An empty list selects every model.
func LookupModels(names []string) ([]ModelSpec, error) {
	all := DefaultModels()
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]ModelSpec, len(all))
	for _, m := range all {
		byName[m.Name] = m
	}

	out := make([]ModelSpec, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		m, ok := byName[name]
		if !ok {
			return nil, errors.NotFound(fmt.Sprintf("model %q", name),
				fmt.Errorf("%w (known: %s)", core.ErrModelNotFound, strings.Join(ModelNames(), ", ")))
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, m)
		}
	}
	return out, nil
}
