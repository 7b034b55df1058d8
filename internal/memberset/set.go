package memberset

import (
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// Table resolves a set_id to its member array view in O(1) after a single
// startup scan of the members file.
//
// spec §4.4 describes two conventions for finding a block's end: "paired
// index lookup" (end = index[s+1], skipping gaps) and a "sentinel-zero"
// scan. The former is only unambiguous if blocks are written to the
// members file in ascending set_id order; this implementation preserves
// the partitioner's literal write order (directory order restricted to
// each segment, per spec §4.2's "Determinism" paragraph), which does not
// guarantee that. Rather than trust an index[s+1] value that may belong to
// an unrelated, non-adjacent block, Table resolves every block's true end
// once, up front, by scanning the members file for terminator words — an
// O(file size) pass that replaces both conventions with a single
// unambiguous one. See DESIGN.md's Open Questions for the full reasoning.
type Table struct {
	m     *Map
	index []uint32
	ends  map[uint32]uint32
}

// NewTable builds a Table over m using the given offset index.
func NewTable(m *Map, index []uint32) (*Table, error) {
	ends, err := resolveEnds(m)
	if err != nil {
		return nil, err
	}
	log.Printf("memberset: resolved %d set boundaries", len(ends))
	return &Table{m: m, index: index, ends: ends}, nil
}

// Load returns a zero-copy view of setID's sorted, deduplicated, nonzero
// member ids. The trailing zero terminator is not included in the
// returned slice.
func (t *Table) Load(setID uint32) ([]uint32, error) {
	if int(setID) >= len(t.index) {
		return nil, errors.Errorf("memberset: set_id %d out of offset-index range (len %d)", setID, len(t.index))
	}
	start := t.index[setID]
	end, ok := t.ends[start]
	if !ok {
		return nil, errors.Errorf("memberset: no block boundary recorded for set_id %d at offset %d", setID, start)
	}
	return t.m.Words(start, end), nil
}

// resolveEnds scans the entire mapped region once, recording the byte
// offset at which every contiguous block (as delimited by invariant 2's
// single trailing zero word) ends, keyed by the offset at which it
// started. This requires no knowledge of which set_id owns which block.
func resolveEnds(m *Map) (map[uint32]uint32, error) {
	n := uint32(m.Len())
	ends := make(map[uint32]uint32)
	var blockStart uint32
	for off := uint32(0); off+4 <= n; off += 4 {
		if m.WordAt(off) == 0 {
			ends[blockStart] = off
			blockStart = off + 4
		}
	}
	if blockStart != n {
		return nil, errors.Errorf("memberset: members file ends mid-block at offset %d (size %d); missing terminator", blockStart, n)
	}
	return ends, nil
}
