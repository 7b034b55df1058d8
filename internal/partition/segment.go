package partition

import (
	"bufio"
	"context"
	"os"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"

	"github.com/civiccc/suggestomatic/internal/layout"
	"github.com/civiccc/suggestomatic/internal/pairstream"
)

// DefaultSegmentSize is the default number of set_ids materialized per
// pass over the pair stream (spec §4.2, "default 10,000 set_ids per
// segment").
const DefaultSegmentSize = 10000

// MaterializeOptions configures Materialize.
type MaterializeOptions struct {
	PairStreamPath string
	// MembersPath is opened with os.OpenFile directly (append mode) and
	// later mmap'd by the scoring engine, so it must live on a real local
	// filesystem; this is the one path in the preparation pipeline that
	// bypasses the grailbio/base/file cloud-transparent abstraction (see
	// DESIGN.md).
	MembersPath string
	SegmentSize int
}

// Materialize implements spec §4.2 Step 2: it partitions setIDs into
// contiguous segments, and for each segment makes a full pass over the
// pair stream collecting that segment's member ids, then sorts,
// deduplicates, drops sets whose surviving cardinality is <= 1, and
// appends each remaining set's array (terminated by a zero word) to the
// concatenated members file.
//
// It returns the byte offset (taken before each set's array was written)
// for every set that survived, and the subsequence of setIDs that
// survived, in original directory order.
func Materialize(ctx context.Context, opts MaterializeOptions, setIDs []uint32) (offsets map[uint32]uint32, surviving []uint32, err error) {
	segSize := opts.SegmentSize
	if segSize <= 0 {
		segSize = DefaultSegmentSize
	}

	// #nosec G304 -- path is an operator-supplied CLI flag, not untrusted input.
	membersFile, err := os.OpenFile(opts.MembersPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.E(err, "partition: open members file", opts.MembersPath)
	}
	defer membersFile.Close()
	membersWriter := bufio.NewWriterSize(membersFile, 1<<20)

	offsets = make(map[uint32]uint32, len(setIDs))
	var curOffset uint32

	nSegments := (len(setIDs) + segSize - 1) / segSize
	for segIdx := 0; segIdx*segSize < len(setIDs); segIdx++ {
		start := segIdx * segSize
		end := start + segSize
		if end > len(setIDs) {
			end = len(setIDs)
		}
		segment := setIDs[start:end]
		log.Printf("partition: starting segment %d/%d (%d sets)", segIdx+1, nSegments, len(segment))

		inSegment := make(map[uint32]struct{}, len(segment))
		for _, id := range segment {
			inSegment[id] = struct{}{}
		}
		members := make(map[uint32][]uint32, len(segment))

		if err := scanPairsForSegment(ctx, opts.PairStreamPath, inSegment, members); err != nil {
			return nil, nil, err
		}

		maxLen := 0
		total := 0
		for _, id := range segment {
			ids := members[id]
			total += len(ids)
			if len(ids) > maxLen {
				maxLen = len(ids)
			}
			sorted := dedupSorted(ids)
			if len(sorted) <= 1 {
				continue
			}
			n, writeErr := writeSetArray(membersWriter, sorted)
			if writeErr != nil {
				return nil, nil, writeErr
			}
			offsets[id] = curOffset
			surviving = append(surviving, id)
			curOffset += uint32(n)
		}
		log.Printf("partition: segment %d processed %d total members, largest set had %d", segIdx+1, total, maxLen)
	}

	if err := membersWriter.Flush(); err != nil {
		return nil, nil, errors.E(err, "partition: flush members file")
	}
	if err := membersFile.Sync(); err != nil {
		return nil, nil, errors.E(err, "partition: sync members file")
	}
	return offsets, surviving, nil
}

// writeSetArray writes sorted (ascending, deduplicated, nonzero) member ids
// followed by a single terminating zero word, returning the number of
// bytes written.
func writeSetArray(w *bufio.Writer, sorted []uint32) (int, error) {
	buf := layout.EncodeU32Slice(make([]byte, 0, (len(sorted)+1)*layout.WordSize), sorted)
	buf = layout.EncodeU32Slice(buf, []uint32{layout.Zero})
	if _, err := w.Write(buf); err != nil {
		return 0, errors.E(err, "partition: write set array")
	}
	return len(buf), nil
}

// dedupSorted sorts ids ascending and removes duplicates in place.
func dedupSorted(ids []uint32) []uint32 {
	if len(ids) == 0 {
		return ids
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := ids[:1]
	for _, v := range ids[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// scanPairsForSegment rewinds the pair stream and appends member_id to
// members[set_id] for every pair whose set_id is in the current segment.
// Reading through internal/pairstream keeps this transparent to whether
// the stream was written with --compress-pairs.
func scanPairsForSegment(ctx context.Context, pairStreamPath string, inSegment map[uint32]struct{}, members map[uint32][]uint32) error {
	in, err := pairstream.OpenReader(ctx, pairStreamPath)
	if err != nil {
		return errors.E(err, "partition: open pair stream", pairStreamPath)
	}
	defer in.Close()

	r := bufio.NewReaderSize(in, 1<<20)
	buf := make([]byte, 2*layout.WordSize)
	for {
		_, err := readFull(r, buf)
		if err == errEOF {
			return nil
		}
		if err != nil {
			return errors.E(err, "partition: read pair stream", pairStreamPath)
		}
		member := layout.Word(buf[:layout.WordSize])
		set := layout.Word(buf[layout.WordSize:])
		if _, ok := inSegment[set]; ok {
			members[set] = append(members[set], member)
		}
	}
}
