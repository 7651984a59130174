package geometry

import "sort"

// Cluster1D groups values by single-linkage: after sorting, a new group
// starts whenever the gap to the previous value exceeds threshold. The
// returned groups hold indexes into values; ties keep their input order.
func Cluster1D(values []float64, threshold float64) [][]int {
	if len(values) == 0 {
		return nil
	}
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	var groups [][]int
	current := []int{idx[0]}
	for _, i := range idx[1:] {
		prev := current[len(current)-1]
		if values[i]-values[prev] > threshold {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, i)
	}
	return append(groups, current)
}
