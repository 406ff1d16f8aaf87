package cluster

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// partition is one k-means solution
type partition struct {
	labels    []int
	centroids [][]float64
	inertia   float64
}

// kmeans keeps the lowest-inertia partition over restarts of k-means++
// seeding followed by Lloyd iterations
func kmeans(points [][]float64, k int, rng *rand.Rand, restarts, maxIter int, tol float64) partition {
	var best partition
	for r := 0; r < restarts; r++ {
		p := lloyd(points, seedCentroids(points, k, rng), maxIter, tol)
		if r == 0 || p.inertia < best.inertia {
			best = p
		}
	}
	return best
}

// seedCentroids picks k starting centroids with D² weighting
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.Intn(len(points))]))

	dist := make([]float64, len(points))
	for i, p := range points {
		dist[i] = sqDistance(p, centroids[0])
	}
	for len(centroids) < k {
		total := floats.Sum(dist)
		next := rng.Intn(len(points))
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range dist {
				target -= d
				if target < 0 {
					next = i
					break
				}
			}
		}
		c := clone(points[next])
		centroids = append(centroids, c)
		for i, p := range points {
			dist[i] = math.Min(dist[i], sqDistance(p, c))
		}
	}
	return centroids
}

// lloyd alternates assignment and centroid updates until the total centroid
// shift falls under tol. An emptied cluster keeps its previous centroid.
func lloyd(points [][]float64, centroids [][]float64, maxIter int, tol float64) partition {
	k, dim := len(centroids), len(points[0])
	labels := make([]int, len(points))

	for iter := 0; iter < maxIter; iter++ {
		for i, p := range points {
			labels[i] = nearest(p, centroids)
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}

		shift := 0.0
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			shift += sqDistance(sums[c], centroids[c])
			centroids[c] = sums[c]
		}
		if shift <= tol {
			break
		}
	}

	inertia := 0.0
	for i, p := range points {
		labels[i] = nearest(p, centroids)
		inertia += sqDistance(p, centroids[labels[i]])
	}
	return partition{labels: labels, centroids: centroids, inertia: inertia}
}

func nearest(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDistance(p, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func sqDistance(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}

// canonical renumbers labels in order of first appearance so equal
// partitions get equal labels
func canonical(labels []int) ([]int, int) {
	mapping := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		m, ok := mapping[l]
		if !ok {
			m = len(mapping)
			mapping[l] = m
		}
		out[i] = m
	}
	return out, len(mapping)
}

// silhouette is the mean silhouette coefficient. Singleton clusters score 0
// and fewer than two clusters score -1.
func silhouette(points [][]float64, labels []int, k int) float64 {
	n := len(points)
	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}
	nonEmpty := 0
	for _, s := range sizes {
		if s > 0 {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		return -1
	}

	total := 0.0
	sums := make([]float64, k)
	for i := 0; i < n; i++ {
		if sizes[labels[i]] == 1 {
			continue
		}
		for c := range sums {
			sums[c] = 0
		}
		for j := 0; j < n; j++ {
			if i != j {
				sums[labels[j]] += floats.Distance(points[i], points[j], 2)
			}
		}
		a := sums[labels[i]] / float64(sizes[labels[i]]-1)
		b := math.Inf(1)
		for c, s := range sums {
			if c != labels[i] && sizes[c] > 0 {
				b = math.Min(b, s/float64(sizes[c]))
			}
		}
		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(n)
}
