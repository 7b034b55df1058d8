// Package partition implements the set-id enumeration, segmented
// per-set materialization, and offset-index construction stages of the
// preparation pipeline (spec §4.2, §4.3).
package partition

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"

	"github.com/civiccc/suggestomatic/internal/layout"
)

// Options configures Run.
type Options struct {
	PairStreamPath string
	SetIDPath      string
	MembersPath    string
	IndexPath      string
	SegmentSize    int
	// WriteChecksum, if true, writes a seahash sidecar for the members
	// file and for the offset index once both are written (supplemental to
	// spec §4.3's zero-word verification; see SPEC_FULL.md's DOMAIN STACK).
	WriteChecksum bool
}

// Stats summarizes one Run.
type Stats struct {
	TotalSetIDs     int
	SurvivingSetIDs int
}

// Run executes set-id enumeration, segmented materialization, the
// verification pass, offset-index construction, and the final set-id
// directory rewrite, in that order.
func Run(ctx context.Context, opts Options) (Stats, error) {
	var stats Stats

	setIDs, err := LoadOrEnumerateSetIDs(ctx, opts.PairStreamPath, opts.SetIDPath)
	if err != nil {
		return stats, err
	}
	stats.TotalSetIDs = len(setIDs)

	offsets, surviving, err := Materialize(ctx, MaterializeOptions{
		PairStreamPath: opts.PairStreamPath,
		MembersPath:    opts.MembersPath,
		SegmentSize:    opts.SegmentSize,
	}, setIDs)
	if err != nil {
		return stats, err
	}
	stats.SurvivingSetIDs = len(surviving)
	log.Printf("partition: %d/%d set_ids survived materialization", len(surviving), len(setIDs))

	if err := VerifyOffsets(opts.MembersPath, offsets); err != nil {
		return stats, errors.E(err, "partition: verification failed")
	}

	index := BuildOffsetIndex(offsets)
	if err := WriteOffsetIndex(ctx, opts.IndexPath, index); err != nil {
		return stats, err
	}

	if err := FinalizeSetIDDirectory(ctx, opts.SetIDPath, surviving); err != nil {
		return stats, err
	}

	if opts.WriteChecksum {
		if err := writeChecksums(opts.MembersPath, opts.IndexPath); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func writeChecksums(membersPath, indexPath string) error {
	for _, p := range []string{membersPath, indexPath} {
		sum, err := layout.ChecksumFile(p)
		if err != nil {
			return err
		}
		if err := layout.WriteSidecar(p, sum); err != nil {
			return err
		}
		log.Printf("partition: wrote checksum sidecar for %s", p)
	}
	return nil
}
