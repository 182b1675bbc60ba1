package hasher

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentHash(t *testing.T) {
	// xxHash64 of the empty input with seed 0.
	require.Equal(t, "ef46db3751d8e999", ContentHash(nil, 0))
	require.Equal(t, "ef46db37", ContentHash(nil, 8))
	require.Len(t, ContentHash([]byte("hueswap"), HexLen), 16)
	require.NotEqual(t, ContentHash([]byte("a"), 0), ContentHash([]byte("b"), 0))
}

func TestContentHashReaderAndFile(t *testing.T) {
	data := bytes.Repeat([]byte{0, 255, 0, 255}, 1024)
	want := ContentHash(data, HexLen)

	got, err := ContentHashReader(bytes.NewReader(data), HexLen)
	require.NoError(t, err)
	require.Equal(t, want, got)

	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	got, err = ContentHashFile(path, HexLen)
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = ContentHashFile(filepath.Join(t.TempDir(), "missing"), HexLen)
	require.Error(t, err)
}
