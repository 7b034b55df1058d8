package partition

import (
	"errors"
	"io"
)

// errEOF signals a clean end of the pair stream, including the case where
// a final, short (truncated) record is encountered; such a trailing
// partial record is silently discarded rather than treated as corruption,
// mirroring the original implementation's fill-buffer-until-short-read
// convention.
var errEOF = errors.New("partition: clean eof")

// readFull reads len(buf) bytes from r, translating io.EOF and a
// short/partial final read into errEOF.
func readFull(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return n, errEOF
	}
	return n, err
}
