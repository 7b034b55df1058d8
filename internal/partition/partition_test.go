package partition

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiccc/suggestomatic/internal/layout"
)

func writePairStream(t *testing.T, pairs [][2]uint32) string {
	t.Helper()
	ctx := vcontext.Background()
	path := filepath.Join(t.TempDir(), "pairs.bin")
	out, err := file.Create(ctx, path)
	require.NoError(t, err)
	var buf []byte
	for _, p := range pairs {
		buf = layout.EncodePair(buf, p[0], p[1])
	}
	_, err = out.Writer(ctx).Write(buf)
	require.NoError(t, err)
	require.NoError(t, out.Close(ctx))
	return path
}

func TestEnumerateSetIDsPreservesFirstAppearanceOrder(t *testing.T) {
	path := writePairStream(t, [][2]uint32{{1, 30}, {2, 10}, {3, 30}, {4, 20}, {5, 10}})
	ids, err := EnumerateSetIDs(vcontext.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []uint32{30, 10, 20}, ids)
}

func TestLoadOrEnumerateSetIDsIsIdempotent(t *testing.T) {
	ctx := vcontext.Background()
	pairPath := writePairStream(t, [][2]uint32{{1, 5}, {2, 6}})
	setIDPath := filepath.Join(t.TempDir(), "sets.bin")

	ids1, err := LoadOrEnumerateSetIDs(ctx, pairPath, setIDPath)
	require.NoError(t, err)
	assert.Equal(t, []uint32{5, 6}, ids1)

	// Second call must load the persisted directory rather than
	// re-enumerate, even if the pair stream were to change underneath it.
	ids2, err := LoadOrEnumerateSetIDs(ctx, pairPath, setIDPath)
	require.NoError(t, err)
	assert.Equal(t, ids1, ids2)
}

func TestMaterializeDropsSingletonsAndSortsDedupes(t *testing.T) {
	ctx := vcontext.Background()
	pairPath := writePairStream(t, [][2]uint32{
		{3, 10}, {1, 10}, {2, 10}, {1, 10}, // set 10: {1,2,3} after dedup
		{1, 20}, // set 20: singleton, dropped post-dedup
		{1, 30}, {2, 30}, // set 30: {1,2}
	})
	membersPath := filepath.Join(t.TempDir(), "members.bin")

	offsets, surviving, err := Materialize(ctx, MaterializeOptions{
		PairStreamPath: pairPath,
		MembersPath:    membersPath,
		SegmentSize:    2,
	}, []uint32{10, 20, 30})
	require.NoError(t, err)

	sort.Slice(surviving, func(i, j int) bool { return surviving[i] < surviving[j] })
	assert.Equal(t, []uint32{10, 30}, surviving)
	assert.NotContains(t, offsets, uint32(20))

	require.NoError(t, VerifyOffsets(membersPath, offsets))
}

func TestBuildOffsetIndexLength(t *testing.T) {
	index := BuildOffsetIndex(map[uint32]uint32{2: 40, 5: 80})
	assert.Len(t, index, 6) // max(set_id)+1 = 5+1
	assert.Equal(t, uint32(40), index[2])
	assert.Equal(t, uint32(80), index[5])
	assert.Equal(t, uint32(0), index[0])
}

func TestWriteLoadOffsetIndexRoundTrip(t *testing.T) {
	ctx := vcontext.Background()
	path := filepath.Join(t.TempDir(), "index.bin")
	index := []uint32{0, 4, 0, 16}
	require.NoError(t, WriteOffsetIndex(ctx, path, index))

	got, err := LoadOffsetIndex(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, index, got)
}

func TestFinalizeSetIDDirectoryNarrowsToSurviving(t *testing.T) {
	ctx := vcontext.Background()
	path := filepath.Join(t.TempDir(), "sets.bin")
	require.NoError(t, WriteSetIDDirectory(ctx, path, []uint32{10, 20, 30}))
	require.NoError(t, FinalizeSetIDDirectory(ctx, path, []uint32{10, 30}))

	got, err := LoadSetIDDirectory(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []uint32{10, 30}, got)
}

func TestVerifyOffsetsDetectsCorruption(t *testing.T) {
	offsets := map[uint32]uint32{10: 0, 20: 16}
	path := filepath.Join(t.TempDir(), "members.bin")
	ctx := vcontext.Background()
	out, err := file.Create(ctx, path)
	require.NoError(t, err)
	// 16 bytes: set 10's block (3 words + terminator), but write a nonzero
	// word where the terminator of the first block should be.
	buf := layout.EncodeU32Slice(nil, []uint32{1, 2, 3})
	buf = layout.EncodeU32Slice(buf, []uint32{7}) // should be 0
	_, err = out.Writer(ctx).Write(buf)
	require.NoError(t, err)
	require.NoError(t, out.Close(ctx))

	assert.Error(t, VerifyOffsets(path, offsets))
}
