package regression

import (
	"math"
	"math/rand"
	"runtime"

	"socialstats/domain/core"

	"golang.org/x/sync/errgroup"
)

// RandomForest averages regression trees grown on bootstrap resamples.
// Trees are grown concurrently; tree i draws from its own source seeded with
// Seed+i, so the forest does not depend on scheduling.
type RandomForest struct {
	Trees    int
	MaxDepth int
	// MaxFeatures limits the features tried per split; 0 tries all
	MaxFeatures int
	Seed        int64

	trees      []*regressionTree
	importance []float64
}

func (m *RandomForest) Fit(x [][]float64, y []float64) error {
	n := len(x)
	if n < 2 {
		return core.NewInsufficientDataError("random forest", n, 2)
	}
	count := m.Trees
	if count <= 0 {
		count = 100
	}

	trees := make([]*regressionTree, count)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range trees {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(m.Seed + int64(i)))
			sample := make([]int, n)
			for k := range sample {
				sample[k] = rng.Intn(n)
			}
			tree := newTree(m.MaxDepth, rng)
			tree.maxFeatures = m.MaxFeatures
			tree.fit(x, y, sample)
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	importance := make([]float64, len(x[0]))
	for _, t := range trees {
		for j, v := range normalized(t.importance) {
			importance[j] += v / float64(count)
		}
	}
	m.trees, m.importance = trees, normalized(importance)
	return nil
}

func (m *RandomForest) Predict(row []float64) float64 {
	if len(m.trees) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, t := range m.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(m.trees))
}

func (m *RandomForest) Importances() []float64 { return m.importance }

// GradientBoosting fits shallow trees to the residuals of the running
// prediction under squared loss
type GradientBoosting struct {
	Stages       int
	LearningRate float64
	MaxDepth     int

	init       float64
	trees      []*regressionTree
	importance []float64
}

func (m *GradientBoosting) Fit(x [][]float64, y []float64) error {
	n := len(x)
	if n < 2 {
		return core.NewInsufficientDataError("gradient boosting", n, 2)
	}
	stages, rate, depth := m.Stages, m.LearningRate, m.MaxDepth
	if stages <= 0 {
		stages = 100
	}
	if rate <= 0 {
		rate = 0.1
	}
	if depth <= 0 {
		depth = 3
	}

	m.init = 0
	for _, v := range y {
		m.init += v
	}
	m.init /= float64(n)

	current := make([]float64, n)
	for i := range current {
		current[i] = m.init
	}
	residual := make([]float64, n)
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	importance := make([]float64, len(x[0]))
	m.trees = make([]*regressionTree, 0, stages)
	for s := 0; s < stages; s++ {
		for i := range residual {
			residual[i] = y[i] - current[i]
		}
		tree := newTree(depth, nil)
		tree.fit(x, residual, all)
		for i, row := range x {
			current[i] += rate * tree.predict(row)
		}
		for j, v := range tree.importance {
			importance[j] += v
		}
		m.trees = append(m.trees, tree)
	}
	m.LearningRate, m.importance = rate, normalized(importance)
	return nil
}

func (m *GradientBoosting) Predict(row []float64) float64 {
	if m.trees == nil {
		return math.NaN()
	}
	v := m.init
	for _, t := range m.trees {
		v += m.LearningRate * t.predict(row)
	}
	return v
}

func (m *GradientBoosting) Importances() []float64 { return m.importance }
