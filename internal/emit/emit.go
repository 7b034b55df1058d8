// Package emit appends suggestion lines to the suggestions output (spec
// §4.5, §6.1): "source_id,target_id,score\n", descending score within a
// source, no ordering guarantee across sources.
package emit

import (
	"bufio"
	"os"
	"strconv"
	"sync"

	"github.com/grailbio/base/errors"

	"github.com/civiccc/suggestomatic/internal/score"
)

// scorePrecision is the number of significant digits used when formatting
// scores (spec §4.5: "enough precision to distinguish ties within the
// top-K but no more than necessary (e.g., 6 significant digits)").
const scorePrecision = 6

// Writer appends suggestion lines to a single output file. It is safe for
// concurrent use by multiple scoring workers: each call to EmitSource
// writes one source's entire batch of lines under a single lock, so no
// two sources' lines can interleave (spec §5, "Append atomicity").
//
// The suggestions file, like the members file, is opened directly with
// os.OpenFile in append mode rather than through grailbio/base/file, which
// in this codebase only ever creates (truncating) or opens for sequential
// read; see DESIGN.md.
type Writer struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

// Open opens path for appending, creating it if it does not exist.
func Open(path string) (*Writer, error) {
	// #nosec G304 -- path is an operator-supplied CLI flag, not untrusted input.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.E(err, "emit: open suggestions file", path)
	}
	return &Writer{f: f, w: bufio.NewWriterSize(f, 1<<16)}, nil
}

// EmitSource implements score.Emitter. It writes results in the order
// given (callers pass them already sorted by descending score) as a
// single contiguous block.
func (w *Writer) EmitSource(sourceID uint32, results []score.Candidate) error {
	if len(results) == 0 {
		return nil
	}
	var buf []byte
	srcStr := strconv.FormatUint(uint64(sourceID), 10)
	for _, c := range results {
		buf = append(buf, srcStr...)
		buf = append(buf, ',')
		buf = strconv.AppendUint(buf, uint64(c.TargetID), 10)
		buf = append(buf, ',')
		buf = strconv.AppendFloat(buf, c.Score, 'g', scorePrecision, 64)
		buf = append(buf, '\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(buf); err != nil {
		return errors.E(err, "emit: write suggestions")
	}
	return nil
}

// Flush flushes buffered output without closing the file, useful for
// periodic durability during a long run.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Flush()
}

// Close flushes and closes the output file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	once := errors.Once{}
	once.Set(w.w.Flush())
	once.Set(w.f.Close())
	return once.Err()
}

var _ score.Emitter = (*Writer)(nil)
