package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumFileAndSidecarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello members file"), 0o644))

	sum, err := ChecksumFile(path)
	require.NoError(t, err)

	require.NoError(t, WriteSidecar(path, sum))
	got, ok, err := ReadSidecar(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sum, got)

	assert.NoError(t, VerifySidecar(path))
}

func TestVerifySidecarDetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("original contents"), 0o644))
	sum, err := ChecksumFile(path)
	require.NoError(t, err)
	require.NoError(t, WriteSidecar(path, sum))

	require.NoError(t, os.WriteFile(path, []byte("tampered contents!!"), 0o644))
	assert.Error(t, VerifySidecar(path))
}

func TestVerifySidecarNoopWithoutSidecar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("no sidecar yet"), 0o644))
	assert.NoError(t, VerifySidecar(path))
}
