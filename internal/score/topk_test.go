package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopKOrdersByDescendingScoreThenAscendingID(t *testing.T) {
	topk := NewTopK(3)
	topk.Offer(1, 0.5)
	topk.Offer(2, 0.9)
	topk.Offer(3, 0.5)
	topk.Offer(4, 0.1)

	got := topk.Results()
	require.Len(t, got, 3)
	assert.Equal(t, []Candidate{
		{TargetID: 2, Score: 0.9},
		{TargetID: 1, Score: 0.5},
		{TargetID: 3, Score: 0.5},
	}, got)
}

func TestTopKEvictsWorstWhenFull(t *testing.T) {
	topk := NewTopK(2)
	topk.Offer(1, 0.1)
	topk.Offer(2, 0.2)
	topk.Offer(3, 0.9) // should evict id 1 (worst: lowest score)

	got := topk.Results()
	require.Len(t, got, 2)
	assert.Equal(t, uint32(3), got[0].TargetID)
	assert.Equal(t, uint32(2), got[1].TargetID)
}

func TestTopKRejectsNonPositiveScores(t *testing.T) {
	topk := NewTopK(5)
	topk.Offer(1, 0)
	topk.Offer(2, -0.5)
	assert.Empty(t, topk.Results())
}

func TestTopKZeroCapacityKeepsNothing(t *testing.T) {
	topk := NewTopK(0)
	topk.Offer(1, 0.9)
	assert.Empty(t, topk.Results())
}

func TestTopKLenAtMostK(t *testing.T) {
	topk := NewTopK(25)
	for i := uint32(0); i < 100; i++ {
		topk.Offer(i, float64(i)+1)
	}
	assert.Len(t, topk.Results(), 25)
	got := topk.Results()
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}
