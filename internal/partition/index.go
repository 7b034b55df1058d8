package partition

import (
	"bufio"
	"context"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"

	"github.com/civiccc/suggestomatic/internal/layout"
)

// BuildOffsetIndex implements spec §4.3: a packed u32 array of length
// max(set_id)+1, entry s holding offsets[s] or zero if s did not survive.
// Looking up index[s+1] for the globally maximal set id is therefore out
// of bounds by construction; internal/memberset never reads index[s+1]
// and instead finds every block's end by scanning the members file for
// its zero terminator.
func BuildOffsetIndex(offsets map[uint32]uint32) []uint32 {
	var maxSet uint32
	for id := range offsets {
		if id > maxSet {
			maxSet = id
		}
	}
	index := make([]uint32, maxSet+1)
	for id, off := range offsets {
		index[id] = off
	}
	return index
}

// WriteOffsetIndex persists index to path.
func WriteOffsetIndex(ctx context.Context, path string, index []uint32) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "partition: create offset index", path)
	}
	w := bufio.NewWriter(out.Writer(ctx))
	buf := layout.EncodeU32Slice(make([]byte, 0, len(index)*layout.WordSize), index)
	if _, err := w.Write(buf); err != nil {
		return errors.E(err, "partition: write offset index")
	}
	closeErr := errors.Once{}
	closeErr.Set(w.Flush())
	closeErr.Set(out.Close(ctx))
	return closeErr.Err()
}

// LoadOffsetIndex reads back an offset index written by WriteOffsetIndex.
func LoadOffsetIndex(ctx context.Context, path string) ([]uint32, error) {
	b, err := file.ReadFile(ctx, path)
	if err != nil {
		return nil, errors.E(err, "partition: read offset index", path)
	}
	return layout.DecodeU32Slice(b), nil
}

// VerifyOffsets implements spec §4.3's verification pass: for every
// recorded offset o >= 4, the word at byte o-4 in the members file must be
// zero (the previous array's terminator). Any violation is fatal and
// indicates corruption.
func VerifyOffsets(membersPath string, offsets map[uint32]uint32) error {
	// #nosec G304 -- path is an operator-supplied CLI flag, not untrusted input.
	f, err := os.Open(membersPath)
	if err != nil {
		return errors.E(err, "partition: open members file for verification", membersPath)
	}
	defer f.Close()

	buf := make([]byte, layout.WordSize)
	for setID, off := range offsets {
		if off < layout.WordSize {
			continue // first array in the file has no predecessor.
		}
		if _, err := f.ReadAt(buf, int64(off)-layout.WordSize); err != nil {
			return errors.E(err, "partition: verify offset", setID)
		}
		if layout.Word(buf) != layout.Zero {
			return errors.Errorf("partition: corruption detected: set_id %d at offset %d is not preceded by a zero terminator", setID, off)
		}
	}
	return nil
}

// FinalizeSetIDDirectory rewrites the set-id directory so it contains
// exactly the surviving set ids in directory order, satisfying invariant 5
// ("The set-id directory enumerates exactly the set_ids with nonzero index
// entries"). The initial enumeration pass (spec §4.2 Step 1) may include
// ids that are later dropped for post-dedup cardinality <= 1; this pass
// narrows the persisted directory to match reality. See DESIGN.md's Open
// Questions for why this second write is necessary.
func FinalizeSetIDDirectory(ctx context.Context, setIDPath string, surviving []uint32) error {
	log.Printf("partition: finalizing set-id directory with %d surviving sets", len(surviving))
	return WriteSetIDDirectory(ctx, setIDPath, surviving)
}
