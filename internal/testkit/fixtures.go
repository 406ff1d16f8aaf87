package testkit

import (
	"fmt"
	"math/rand"

	"socialstats/domain/dataset"
)

// Group is one normally distributed sample of a grouped fixture
type Group struct {
	Name string
	N    int
	Mean float64
	Std  float64
}

// GroupedNormals draws each group from N(Mean, Std²) into a value column
// next to a categorical group column. Rows keep group order.
func GroupedNormals(seed int64, groupColumn, valueColumn string, groups ...Group) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	var labels []string
	var values []float64
	for _, g := range groups {
		for i := 0; i < g.N; i++ {
			labels = append(labels, g.Name)
			values = append(values, g.Mean+g.Std*rng.NormFloat64())
		}
	}
	return dataset.MustNew(
		dataset.NewCategoricalColumn(groupColumn, labels),
		dataset.NewNumericColumn(valueColumn, values),
	)
}

// Blobs draws perCluster isotropic Gaussian points around each center into
// columns x0, x1, ... and records the generating center in "blob"
func Blobs(seed int64, centers [][]float64, perCluster int, std float64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	dim := len(centers[0])
	cols := make([][]float64, dim)
	var blob []string
	for c, center := range centers {
		for i := 0; i < perCluster; i++ {
			for j := 0; j < dim; j++ {
				cols[j] = append(cols[j], center[j]+std*rng.NormFloat64())
			}
			blob = append(blob, fmt.Sprintf("b%d", c))
		}
	}

	columns := make([]*dataset.Column, 0, dim+1)
	for j := range cols {
		columns = append(columns, dataset.NewNumericColumn(fmt.Sprintf("x%d", j), cols[j]))
	}
	columns = append(columns, dataset.NewCategoricalColumn("blob", blob))
	return dataset.MustNew(columns...)
}

// Linear builds target = intercept + Σ coef[j]·feature(j+1) + N(0, noise²)
// with features drawn uniformly from [0, 10)
func Linear(seed int64, n int, intercept float64, coef []float64, noise float64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	features := make([][]float64, len(coef))
	for j := range features {
		features[j] = make([]float64, n)
	}
	target := make([]float64, n)
	for i := 0; i < n; i++ {
		y := intercept
		for j, c := range coef {
			v := rng.Float64() * 10
			features[j][i] = v
			y += c * v
		}
		target[i] = y + noise*rng.NormFloat64()
	}

	columns := make([]*dataset.Column, 0, len(coef)+1)
	for j := range features {
		columns = append(columns, dataset.NewNumericColumn(fmt.Sprintf("feature%d", j+1), features[j]))
	}
	columns = append(columns, dataset.NewNumericColumn("target", target))
	return dataset.MustNew(columns...)
}
