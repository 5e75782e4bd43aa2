package analysis

// Dominates reports whether a dominates b under minimization: a is no
// worse in every objective and strictly better in at least one. Vectors of
// different length never dominate each other.
func Dominates(a, b []float64) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	strict := false
	for k := range a {
		if a[k] > b[k] {
			return false
		}
		if a[k] < b[k] {
			strict = true
		}
	}
	return strict
}

// paretoFront returns the row indices of the non-dominated points, in
// input order. Equal points do not dominate each other, so duplicates on
// the front are all kept. The pairwise scan is quadratic in len(points).
func paretoFront(points []point) []int {
	front := []int{}
	for i, p := range points {
		dominated := false
		for j, q := range points {
			if i != j && Dominates(q.values, p.values) {
				dominated = true
				break
			}
		}
		if !dominated {
			front = append(front, p.index)
		}
	}
	return front
}
