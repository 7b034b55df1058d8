// Package ingest implements the two-pass CSV-to-pair-stream stage of the
// preparation pipeline (spec §4.1): tally membership counts, blacklist
// small sets, and re-emit the surviving (member_id, set_id) pairs as a
// compact binary stream.
package ingest

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"

	"github.com/civiccc/suggestomatic/internal/csvsrc"
	"github.com/civiccc/suggestomatic/internal/layout"
	"github.com/civiccc/suggestomatic/internal/pairstream"
)

// Stats summarizes one Run.
type Stats struct {
	LinesScanned    int
	LinesMalformed  int
	PairsWritten    int
	DistinctSets    int
	BlacklistedSets int
}

// Options configures Run.
type Options struct {
	// CSVPath is the input membership CSV.
	CSVPath string
	// PairStreamPath is the output binary pair stream. Run refuses to
	// overwrite an existing file at this path (spec §4.1 "Failures").
	PairStreamPath string
	// SmallGroupThreshold: sets with count <= threshold are blacklisted.
	// Run applies no default: the zero value blacklists nothing. The
	// -small-group-threshold flag of suggestomatic-prepare defaults to 1.
	SmallGroupThreshold uint32
	// CompressPairs, if true, zstd-frames the output pair stream via
	// internal/pairstream (a supplemented feature; spec.md does not mandate
	// or forbid compressing this intermediate file).
	CompressPairs bool
}

// Run executes both ingest passes and returns summary stats.
func Run(ctx context.Context, opts Options) (Stats, error) {
	var stats Stats

	if _, err := file.Stat(ctx, opts.PairStreamPath); err == nil {
		return stats, errors.Errorf("ingest: pair-stream file %q already exists, refusing to overwrite", opts.PairStreamPath)
	}

	counts := make(map[uint32]uint32, 1<<20)
	if err := scanCSV(ctx, opts.CSVPath, &stats, func(p csvsrc.Pair) error {
		counts[p.Set]++
		return nil
	}); err != nil {
		return stats, err
	}
	stats.DistinctSets = len(counts)

	blacklist := make(map[uint32]struct{}, len(counts))
	for set, n := range counts {
		if n <= opts.SmallGroupThreshold {
			blacklist[set] = struct{}{}
		}
	}
	stats.BlacklistedSets = len(blacklist)
	log.Printf("ingest: pass 1 done, %d distinct sets, %d blacklisted (threshold=%d)",
		stats.DistinctSets, stats.BlacklistedSets, opts.SmallGroupThreshold)

	out, err := file.Create(ctx, opts.PairStreamPath)
	if err != nil {
		return stats, errors.E(err, "ingest: create pair stream", opts.PairStreamPath)
	}
	w, err := pairstream.NewWriter(out.Writer(ctx), opts.CompressPairs)
	if err != nil {
		return stats, err
	}

	pass2Stats := Stats{}
	scanErr := scanCSV(ctx, opts.CSVPath, &pass2Stats, func(p csvsrc.Pair) error {
		if _, bad := blacklist[p.Set]; bad {
			return nil
		}
		var buf [2 * layout.WordSize]byte
		layout.PutWord(buf[:layout.WordSize], p.Member)
		layout.PutWord(buf[layout.WordSize:], p.Set)
		if _, err := w.Write(buf[:]); err != nil {
			return errors.E(err, "ingest: write pair stream")
		}
		stats.PairsWritten++
		return nil
	})
	closeErr := errors.Once{}
	closeErr.Set(w.Flush())
	closeErr.Set(out.Close(ctx))
	if scanErr != nil {
		return stats, scanErr
	}
	if err := closeErr.Err(); err != nil {
		return stats, errors.E(err, "ingest: finalize pair stream")
	}
	stats.LinesScanned += pass2Stats.LinesScanned
	stats.LinesMalformed += pass2Stats.LinesMalformed
	log.Printf("ingest: pass 2 done, %d pairs written", stats.PairsWritten)
	return stats, nil
}

func scanCSV(ctx context.Context, path string, stats *Stats, onPair csvsrc.ScanFunc) error {
	in, err := file.Open(ctx, path)
	if err != nil {
		return errors.E(err, "ingest: open CSV", path)
	}
	defer in.Close(ctx)

	return csvsrc.Scan(in.Reader(ctx), func(p csvsrc.Pair) error {
		stats.LinesScanned++
		return onPair(p)
	}, func(lineno int, lineErr error) {
		stats.LinesMalformed++
		log.Printf("ingest: %s:%d: skipping malformed line: %v", path, lineno, lineErr)
	})
}
