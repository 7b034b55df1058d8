package score

import (
	"container/heap"
	"sort"
)

// Candidate is one scored target set.
type Candidate struct {
	TargetID uint32
	Score    float64
}

// TopK maintains the K highest-scoring candidates seen so far via a
// bounded min-heap (spec §4.4, "Maintain top-K by a bounded min-heap of
// size K keyed by score, ties broken by set_id ascending").
type TopK struct {
	k int
	h candidateHeap
}

// NewTopK returns a TopK that retains at most k candidates.
func NewTopK(k int) *TopK {
	return &TopK{k: k}
}

// Offer considers (targetID, score) for inclusion. Scores <= 0 are never
// retained (spec §1, "keeping only positive scores").
func (t *TopK) Offer(targetID uint32, score float64) {
	if score <= 0 || t.k <= 0 {
		return
	}
	if len(t.h) < t.k {
		heap.Push(&t.h, Candidate{TargetID: targetID, Score: score})
		return
	}
	if worse(t.h[0], Candidate{TargetID: targetID, Score: score}) {
		t.h[0] = Candidate{TargetID: targetID, Score: score}
		heap.Fix(&t.h, 0)
	}
}

// Results returns the retained candidates sorted by descending score,
// ties broken by ascending set_id (spec §4.4 step 5, §4.5).
func (t *TopK) Results() []Candidate {
	out := make([]Candidate, len(t.h))
	copy(out, t.h)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].TargetID < out[j].TargetID
	})
	return out
}

// worse reports whether the incoming candidate b should displace the
// current worst-ranked member a of the heap: b is strictly better than a.
func worse(a, b Candidate) bool {
	if a.Score != b.Score {
		return b.Score > a.Score
	}
	return b.TargetID < a.TargetID
}

// candidateHeap is a min-heap ordered so that the single worst-ranked
// candidate (lowest score, ties broken toward the larger set_id) sits at
// index 0 and is the first to be evicted.
type candidateHeap []Candidate

func (h candidateHeap) Len() int { return len(h) }
func (h candidateHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].TargetID > h[j].TargetID
}
func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x interface{}) {
	*h = append(*h, x.(Candidate))
}
func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
