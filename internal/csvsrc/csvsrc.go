// Package csvsrc parses the membership CSV that seeds the preparation
// pipeline (spec §4.1): one "member_id,set_id" pair per nonempty line,
// decimal unsigned integers. Malformed lines are reported to the caller so
// they can be logged and skipped without aborting the scan.
package csvsrc

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Pair is one parsed (member_id, set_id) record.
type Pair struct {
	Member uint32
	Set    uint32
}

// ParseLine parses a single CSV line of the form "member_id,set_id". It
// returns an error wrapping the offending field on malformed input; callers
// are expected to log and skip rather than abort (spec §4.1, §7).
func ParseLine(line string) (Pair, error) {
	comma := strings.IndexByte(line, ',')
	if comma < 0 {
		return Pair{}, errors.Errorf("missing comma in line %q", line)
	}
	memberField := strings.TrimSpace(line[:comma])
	setField := strings.TrimSpace(line[comma+1:])
	member, err := strconv.ParseUint(memberField, 10, 32)
	if err != nil {
		return Pair{}, errors.Wrapf(err, "invalid member_id %q", memberField)
	}
	set, err := strconv.ParseUint(setField, 10, 32)
	if err != nil {
		return Pair{}, errors.Wrapf(err, "invalid set_id %q", setField)
	}
	return Pair{Member: uint32(member), Set: uint32(set)}, nil
}

// ScanFunc is called once per well-formed line.
type ScanFunc func(Pair) error

// LineErrFunc handles a single malformed line. Scan invokes it once per
// malformed line with the line number (1-based) and the parse error; it
// should log and continue, never abort the scan.
type LineErrFunc func(lineno int, err error)

// Scan reads r line by line, calling onPair for every well-formed,
// nonempty line and onLineErr for every malformed one. It returns the
// first error returned by onPair, or an I/O error from the underlying
// scanner.
func Scan(r io.Reader, onPair ScanFunc, onLineErr LineErrFunc) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		pair, err := ParseLine(line)
		if err != nil {
			if onLineErr != nil {
				onLineErr(lineno, err)
			}
			continue
		}
		if err := onPair(pair); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "csvsrc: scan")
	}
	return nil
}
