package textextract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDict(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dict.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCharset(t *testing.T) {
	cs, err := loadCharset(writeDict(t, "a\nb\n\nc\n"))
	require.NoError(t, err)
	assert.Len(t, cs.tokens, 3)
	assert.Equal(t, "a", cs.token(1))
	assert.Equal(t, "c", cs.token(3))
}

func TestLoadCharsetStripsBOM(t *testing.T) {
	cs, err := loadCharset(writeDict(t, "\uFEFFx\ny\n"))
	require.NoError(t, err)
	assert.Equal(t, "x", cs.token(1))
}

func TestLoadCharsetEmptyFile(t *testing.T) {
	_, err := loadCharset(writeDict(t, "\n\n"))
	assert.Error(t, err)
}

func TestLoadCharsetMissingFile(t *testing.T) {
	_, err := loadCharset(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
