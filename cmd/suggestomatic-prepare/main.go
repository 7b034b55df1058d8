// Command suggestomatic-prepare ingests a member/set membership CSV and
// materializes the binary layout (pair stream, set-id directory, members
// file, offset index) that suggestomatic-score reads (spec §4.1-§4.3,
// §6.2).
package main

import (
	"flag"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/civiccc/suggestomatic/internal/ingest"
	"github.com/civiccc/suggestomatic/internal/partition"
)

var (
	csvPath             = flag.String("membership-csv", "", "Input CSV of member_id,set_id pairs. (required)")
	pairStreamPath      = flag.String("membership-filename", "", "Output path for the filtered binary pair stream. (required)")
	setIDPath           = flag.String("set-id-filename", "", "Output path for the set-id directory. (required)")
	membersPath         = flag.String("set-membership-arrays-filename", "", "Output path for the concatenated member arrays file. (required)")
	indexPath           = flag.String("set-members-index-filename", "", "Output path for the offset index. (required)")
	smallGroupThreshold = flag.Uint("small-group-threshold", 1, "Sets with at most this many members after ingest are dropped before materialization.")
	segmentSize         = flag.Int("segment-size", partition.DefaultSegmentSize, "Number of set_ids materialized per bounded-memory segment.")
	writeChecksum       = flag.Bool("write-checksum", false, "Write a seahash sidecar file alongside the members file and the offset index.")
	compressPairs       = flag.Bool("compress-pairs", false, "zstd-frame the binary pair stream. Readers detect this automatically.")
)

func main() {
	flag.Usage = func() {
		log.Printf("usage: suggestomatic-prepare -membership-csv=members.csv -membership-filename=pairs.bin -set-id-filename=sets.bin -set-membership-arrays-filename=members.bin -set-members-index-filename=index.bin")
		flag.PrintDefaults()
	}
	flag.Parse()
	if *csvPath == "" || *pairStreamPath == "" || *setIDPath == "" || *membersPath == "" || *indexPath == "" {
		flag.Usage()
		log.Fatal("suggestomatic-prepare: -membership-csv, -membership-filename, -set-id-filename, -set-membership-arrays-filename and -set-members-index-filename are all required")
	}

	shutdown := grail.Init()
	defer shutdown()
	ctx := vcontext.Background()

	ingestStats, err := ingest.Run(ctx, ingest.Options{
		CSVPath:             *csvPath,
		PairStreamPath:      *pairStreamPath,
		SmallGroupThreshold: uint32(*smallGroupThreshold),
		CompressPairs:       *compressPairs,
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("suggestomatic-prepare: ingest complete: %+v", ingestStats)

	partStats, err := partition.Run(ctx, partition.Options{
		PairStreamPath: *pairStreamPath,
		SetIDPath:      *setIDPath,
		MembersPath:    *membersPath,
		IndexPath:      *indexPath,
		SegmentSize:    *segmentSize,
		WriteChecksum:  *writeChecksum,
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("suggestomatic-prepare: partition complete: %+v", partStats)
	log.Printf("suggestomatic-prepare: done")
}
