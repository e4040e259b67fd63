package docload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDir(t *testing.T) {
	t.Run("concatenates supported files with headers", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("brand notes"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "prd.txt"), []byte("product goals"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte{0x89}, 0o644))

		content, err := LoadDir(dir)

		require.NoError(t, err)
		assert.Contains(t, content, "--- File: notes.md ---\nbrand notes")
		assert.Contains(t, content, "--- File: prd.txt ---\nproduct goals")
		assert.NotContains(t, content, "logo.png")
		// Deterministic order.
		assert.Less(t, len("--- File: notes.md ---"), len(content))
		assert.Greater(t, len(content), 0)
	})

	t.Run("empty path is a no-op", func(t *testing.T) {
		content, err := LoadDir("")
		require.NoError(t, err)
		assert.Empty(t, content)
	})

	t.Run("missing dir errors", func(t *testing.T) {
		_, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
		assert.Error(t, err)
	})

	t.Run("skips empty files and subdirectories", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), nil, 0o644))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.md"), 0o755))

		content, err := LoadDir(dir)

		require.NoError(t, err)
		assert.Empty(t, content)
	})
}
