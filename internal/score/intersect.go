// Package score implements the asymmetric overlap scoring engine: sorted-
// array intersection (spec §4.4), bounded top-K selection, and the
// parallel per-source worker loop.
package score

import "sort"

// gallopingRatio is the size-ratio threshold above which galloping
// (binary-search) intersection is preferred over a linear merge (spec
// §4.4: "Preferred when the size ratio exceeds ~32:1").
const gallopingRatio = 32

// Intersect returns |a ∩ b| for two sorted, deduplicated, nonzero u32
// arrays, selecting the algorithm best suited to the operands' size ratio.
// Both algorithms must agree on every input; see intersect_test.go.
func Intersect(a, b []uint32) int {
	small, big := a, b
	if len(small) > len(big) {
		small, big = big, small
	}
	if len(small) == 0 || len(big) == 0 {
		return 0
	}
	if len(big) >= gallopingRatio*len(small) {
		return GallopingIntersect(small, big)
	}
	return LinearMergeIntersect(a, b)
}

// GallopingIntersect computes |small ∩ big| by binary-searching each
// element of small within big. Cost is O(m log n), m = len(small), n =
// len(big). Both inputs must already be sorted ascending.
func GallopingIntersect(small, big []uint32) int {
	count := 0
	lo := 0
	for _, v := range small {
		// Restrict the search window to [lo, len(big)) since both arrays
		// are sorted ascending and small's elements only increase.
		idx := lo + sort.Search(len(big)-lo, func(i int) bool {
			return big[lo+i] >= v
		})
		if idx < len(big) && big[idx] == v {
			count++
			lo = idx + 1
		} else {
			lo = idx
		}
		if lo >= len(big) {
			break
		}
	}
	return count
}

// LinearMergeIntersect computes |a ∩ b| by advancing two indices over both
// sorted arrays in lockstep. Cost is O(len(a)+len(b)).
func LinearMergeIntersect(a, b []uint32) int {
	i, j := 0, 0
	count := 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			count++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return count
}
