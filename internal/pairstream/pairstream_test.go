package pairstream

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTripUncompressed(t *testing.T) {
	ctx := vcontext.Background()
	path := filepath.Join(t.TempDir(), "pairs.bin")

	out, err := file.Create(ctx, path)
	require.NoError(t, err)
	w, err := NewWriter(out.Writer(ctx), false)
	require.NoError(t, err)
	payload := []byte("raw pair stream bytes")
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	require.NoError(t, out.Close(ctx))

	r, err := OpenReader(ctx, path)
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestWriterReaderRoundTripCompressed(t *testing.T) {
	ctx := vcontext.Background()
	path := filepath.Join(t.TempDir(), "pairs.bin")

	out, err := file.Create(ctx, path)
	require.NoError(t, err)
	w, err := NewWriter(out.Writer(ctx), true)
	require.NoError(t, err)
	payload := []byte("this pair stream is zstd-framed and should decompress transparently")
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	require.NoError(t, out.Close(ctx))

	r, err := OpenReader(ctx, path)
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}
