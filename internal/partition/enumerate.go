package partition

import (
	"bufio"
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"

	"github.com/civiccc/suggestomatic/internal/layout"
	"github.com/civiccc/suggestomatic/internal/pairstream"
)

// enumerateChunkBytes is the buffered read size used while scanning the
// pair stream for distinct set ids (spec §4.2 Step 1: "large buffered
// chunks").
const enumerateChunkBytes = 1 << 20 // 1 MiB, a multiple of the 8-byte pair stride.

// EnumerateSetIDs scans pairStreamPath once and returns the distinct set
// ids it contains, in order of first appearance (spec §3, "Set id
// directory"). The stream is read through internal/pairstream so a
// --compress-pairs run is transparent here.
func EnumerateSetIDs(ctx context.Context, pairStreamPath string) ([]uint32, error) {
	in, err := pairstream.OpenReader(ctx, pairStreamPath)
	if err != nil {
		return nil, errors.E(err, "partition: open pair stream", pairStreamPath)
	}
	defer in.Close()

	r := bufio.NewReaderSize(in, enumerateChunkBytes)
	seen := make(map[uint32]struct{})
	var ordered []uint32

	buf := make([]byte, 2*layout.WordSize)
	var pairsRead int64
	for {
		_, err := readFull(r, buf)
		if err == errEOF {
			break
		}
		if err != nil {
			return nil, errors.E(err, "partition: read pair stream", pairStreamPath)
		}
		setID := layout.Word(buf[layout.WordSize:])
		if _, ok := seen[setID]; !ok {
			seen[setID] = struct{}{}
			ordered = append(ordered, setID)
		}
		pairsRead++
		if pairsRead%(10_000_000) == 0 {
			log.Printf("partition: enumerated %d pairs, %d distinct sets so far", pairsRead, len(ordered))
		}
	}
	log.Printf("partition: %d unique set_ids in pair stream", len(ordered))
	return ordered, nil
}
