package partition

import (
	"bufio"
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"

	"github.com/civiccc/suggestomatic/internal/layout"
)

// LoadSetIDDirectory reads a packed u32 set-id directory file.
func LoadSetIDDirectory(ctx context.Context, path string) ([]uint32, error) {
	b, err := file.ReadFile(ctx, path)
	if err != nil {
		return nil, errors.E(err, "partition: read set-id directory", path)
	}
	return layout.DecodeU32Slice(b), nil
}

// WriteSetIDDirectory persists ids to path in directory order, overwriting
// any existing file. Used both for the initial enumeration (spec §4.2 Step
// 1) and for the final rewrite that narrows the directory to exactly the
// surviving sets (invariant 5).
func WriteSetIDDirectory(ctx context.Context, path string, ids []uint32) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "partition: create set-id directory", path)
	}
	w := bufio.NewWriter(out.Writer(ctx))
	buf := make([]byte, 0, layout.WordSize)
	for _, id := range ids {
		buf = layout.EncodeU32Slice(buf[:0], []uint32{id})
		if _, err := w.Write(buf); err != nil {
			return errors.E(err, "partition: write set-id directory")
		}
	}
	closeErr := errors.Once{}
	closeErr.Set(w.Flush())
	closeErr.Set(out.Close(ctx))
	return closeErr.Err()
}

// LoadOrEnumerateSetIDs implements spec §4.2 Step 1's idempotence rule: if
// setIDPath already exists, it is trusted and loaded; otherwise the pair
// stream is scanned once to enumerate the distinct set ids, which are then
// persisted.
func LoadOrEnumerateSetIDs(ctx context.Context, pairStreamPath, setIDPath string) ([]uint32, error) {
	if _, err := file.Stat(ctx, setIDPath); err == nil {
		log.Printf("partition: loading set-id directory from %s", setIDPath)
		return LoadSetIDDirectory(ctx, setIDPath)
	}
	log.Printf("partition: enumerating set_ids from %s -- this may take a while", pairStreamPath)
	ids, err := EnumerateSetIDs(ctx, pairStreamPath)
	if err != nil {
		return nil, err
	}
	if err := WriteSetIDDirectory(ctx, setIDPath, ids); err != nil {
		return nil, err
	}
	return ids, nil
}
