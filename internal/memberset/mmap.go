// Package memberset gives read-only, zero-copy access to the concatenated
// members file produced by the preparation pipeline (spec §3, §4.4). The
// file is memory-mapped once and shared, immutably, across every scoring
// worker (spec §5, "Shared state").
package memberset

import (
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// Map is a memory-mapped view of the concatenated members file.
type Map struct {
	f    *os.File
	data mmap.MMap
}

// Open mmaps path read-only. path must be a real local file; this is the
// one place in the system that requires the concatenated members file to
// live on local disk rather than behind the grailbio/base/file cloud
// abstraction (see DESIGN.md).
func Open(path string) (*Map, error) {
	// #nosec G304 -- path is an operator-supplied CLI flag, not untrusted input.
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(err, "memberset: open", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.E(err, "memberset: stat", path)
	}
	data, err := mmap.MapRegion(f, int(info.Size()), mmap.RDONLY, 0, 0)
	if err != nil {
		f.Close()
		return nil, errors.E(err, "memberset: mmap", path)
	}
	log.Printf("memberset: mmap'd %s (%d bytes)", path, info.Size())
	return &Map{f: f, data: data}, nil
}

// Close unmaps and closes the underlying file.
func (m *Map) Close() error {
	once := errors.Once{}
	once.Set(m.data.Unmap())
	once.Set(m.f.Close())
	return once.Err()
}

// Bytes returns the raw mapped region. Callers must not retain slices
// derived from it past Close.
func (m *Map) Bytes() []byte {
	return m.data
}

// Words returns a zero-copy []uint32 view of byte range [start, end) of
// the mapped region.
func (m *Map) Words(start, end uint32) []uint32 {
	return bytesToUint32(m.data[start:end])
}

// WordAt returns the little-endian u32 word at byte offset off.
func (m *Map) WordAt(off uint32) uint32 {
	b := m.data[off : off+4]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// Len returns the size of the mapped region in bytes.
func (m *Map) Len() int {
	return len(m.data)
}
