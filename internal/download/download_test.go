package download

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementFilename(t *testing.T) {
	dir := t.TempDir()
	path, err := Statement(dir, "Mwangi", 17, []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "statement_Mwangi_17.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf"), data)
}

func TestReceiptFilename(t *testing.T) {
	dir := t.TempDir()
	path, err := Receipt(dir, 42, "Jane Doe", []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "receipt_42_Jane Doe.pdf"), path)
}

func TestWriteCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "downloads")
	path, err := Statement(dir, "Doe", 1, []byte("pdf"))
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
