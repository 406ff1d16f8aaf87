package numeric

import "sort"

// Rank returns 1-based average ranks of data (ties share the mean rank) and
// the tie term Σ(t³ − t) over groups of tied values
func Rank(data []float64) ([]float64, float64) {
	n := len(data)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return data[order[a]] < data[order[b]] })

	ranks := make([]float64, n)
	ties := 0.0
	for i := 0; i < n; {
		j := i + 1
		for j < n && data[order[j]] == data[order[i]] {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		t := float64(j - i)
		ties += t*t*t - t
		i = j
	}
	return ranks, ties
}

// Sorted returns a sorted copy
func Sorted(data []float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	sort.Float64s(out)
	return out
}
