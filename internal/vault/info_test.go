package vault

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeVault(t *testing.T) string {
	t.Helper()
	vaultPath := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(vaultPath, obsidianMarker), 0o755))
	return vaultPath
}

func writeNote(t *testing.T, vaultPath, folder, name string) string {
	t.Helper()
	dir := filepath.Join(vaultPath, folder)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("# note"), 0o644))
	return path
}

func TestValidate(t *testing.T) {
	w := NewWriter(testLogger())

	t.Run("missing path", func(t *testing.T) {
		result := w.Validate("/nonexistent/path")
		assert.False(t, result.Valid)
		assert.Contains(t, result.Error, "does not exist")
	})

	t.Run("path is a file", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "somefile")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

		result := w.Validate(file)
		assert.False(t, result.Valid)
		assert.Contains(t, result.Error, "not a directory")
	})

	t.Run("directory without marker", func(t *testing.T) {
		result := w.Validate(t.TempDir())
		assert.False(t, result.Valid)
		assert.Contains(t, result.Error, ".obsidian")
	})

	t.Run("empty vault warns", func(t *testing.T) {
		result := w.Validate(makeVault(t))
		assert.True(t, result.Valid)
		assert.Equal(t, 0, result.MDFileCount)
		assert.Contains(t, result.Warning, "empty")
	})

	t.Run("vault with notes", func(t *testing.T) {
		vaultPath := makeVault(t)
		writeNote(t, vaultPath, "📥 Inbox", "a.md")
		writeNote(t, vaultPath, "✅ Tasks", "b.md")

		result := w.Validate(vaultPath)
		assert.True(t, result.Valid)
		assert.Equal(t, 2, result.MDFileCount)
		assert.Empty(t, result.Warning)
	})
}

func TestGetStats(t *testing.T) {
	w := NewWriter(testLogger())

	t.Run("missing vault", func(t *testing.T) {
		stats := w.GetStats("/nonexistent/path")
		assert.False(t, stats.Exists)
		assert.Equal(t, 0, stats.TotalFiles)
	})

	t.Run("counts per category folder", func(t *testing.T) {
		vaultPath := makeVault(t)
		writeNote(t, vaultPath, "📥 Inbox", "a.md")
		writeNote(t, vaultPath, "📥 Inbox", "b.md")
		writeNote(t, vaultPath, "💡 Ideas", "c.md")
		// Non-markdown files are not counted
		writeNote(t, vaultPath, "📥 Inbox", "image.png")

		stats := w.GetStats(vaultPath)

		assert.True(t, stats.Exists)
		assert.Equal(t, 3, stats.TotalFiles)
		assert.Equal(t, 2, stats.FileCounts["inbox"])
		assert.Equal(t, 1, stats.FileCounts["ideas"])
		assert.Equal(t, 0, stats.FileCounts["tasks"])
		assert.Len(t, stats.Folders, 6)
	})
}

func TestRecentNotes(t *testing.T) {
	w := NewWriter(testLogger())

	vaultPath := makeVault(t)
	oldPath := writeNote(t, vaultPath, "📥 Inbox", "old.md")
	midPath := writeNote(t, vaultPath, "✅ Tasks", "mid.md")
	newPath := writeNote(t, vaultPath, "💡 Ideas", "new.md")

	// Spread modification times so the ordering is deterministic
	base := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(oldPath, base, base))
	require.NoError(t, os.Chtimes(midPath, base.Add(10*time.Minute), base.Add(10*time.Minute)))
	require.NoError(t, os.Chtimes(newPath, base.Add(30*time.Minute), base.Add(30*time.Minute)))

	t.Run("newest first", func(t *testing.T) {
		notes := w.RecentNotes(vaultPath, 10)
		require.Len(t, notes, 3)
		assert.Equal(t, "new.md", notes[0].Name)
		assert.Equal(t, "old.md", notes[2].Name)
		assert.Equal(t, "💡 Ideas", notes[0].Folder)
	})

	t.Run("limit applied", func(t *testing.T) {
		notes := w.RecentNotes(vaultPath, 2)
		assert.Len(t, notes, 2)
	})

	t.Run("missing vault returns nil", func(t *testing.T) {
		assert.Nil(t, w.RecentNotes("/nonexistent/path", 5))
	})
}
