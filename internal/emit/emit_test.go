package emit

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiccc/suggestomatic/internal/score"
)

func TestEmitSourceFormatsLinesInGivenOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suggestions.csv")
	w, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, w.EmitSource(10, []score.Candidate{
		{TargetID: 20, Score: 0.6666666666},
		{TargetID: 30, Score: 0.5},
	}))
	require.NoError(t, w.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(got), "\n"), "\n")
	assert.Equal(t, []string{"10,20,0.666667", "10,30,0.5"}, lines)
}

func TestEmitSourceSkipsEmptyResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suggestions.csv")
	w, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, w.EmitSource(10, nil))
	require.NoError(t, w.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suggestions.csv")
	require.NoError(t, os.WriteFile(path, []byte("1,2,1\n"), 0o644))

	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.EmitSource(3, []score.Candidate{{TargetID: 4, Score: 1}}))
	require.NoError(t, w.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1,2,1\n3,4,1\n", string(got))
}

// TestEmitSourceConcurrentWritesDoNotInterleave exercises the "append
// atomicity" guarantee: concurrent EmitSource calls from many goroutines
// each write their whole batch as one contiguous block, so every line
// read back must belong to exactly one source's results and line counts
// must add up exactly.
func TestEmitSourceConcurrentWritesDoNotInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suggestions.csv")
	w, err := Open(path)
	require.NoError(t, err)

	const sources = 50
	var wg sync.WaitGroup
	for i := 0; i < sources; i++ {
		wg.Add(1)
		go func(sourceID uint32) {
			defer wg.Done()
			results := []score.Candidate{
				{TargetID: sourceID + 1, Score: 1},
				{TargetID: sourceID + 2, Score: 0.5},
				{TargetID: sourceID + 3, Score: 0.25},
			}
			assert.NoError(t, w.EmitSource(sourceID, results))
		}(uint32(i))
	}
	wg.Wait()
	require.NoError(t, w.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(got), "\n"), "\n")
	require.Len(t, lines, sources*3)
	for i := 0; i < len(lines); i += 3 {
		prefix := strings.SplitN(lines[i], ",", 2)[0]
		assert.True(t, strings.HasPrefix(lines[i+1], prefix+","))
		assert.True(t, strings.HasPrefix(lines[i+2], prefix+","))
	}
}

func TestCloseTwiceReturnsFileCloseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suggestions.csv")
	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.EmitSource(1, []score.Candidate{{TargetID: 2, Score: 1}}))
	require.NoError(t, w.Close())

	// Closing twice surfaces the underlying os.File's already-closed error
	// rather than panicking.
	assert.Error(t, w.Close())
}
