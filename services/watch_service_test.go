package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddDirsRecursiveWatchesNestedDirectories(t *testing.T) {
	dir := t.TempDir()
	alphaDir := filepath.Join(dir, "Alpha")
	betaDir := filepath.Join(dir, "Beta")
	require.NoError(t, os.MkdirAll(alphaDir, 0o755))
	require.NoError(t, os.MkdirAll(betaDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(alphaDir, "rule1.docx"),
		buildTestDocx(t, "Greek letters may not be altered"),
		0o644,
	))

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, addDirsRecursive(watcher, dir))

	// Documents live one level down, so the organization directories must be
	// watched, not just the root.
	watched := watcher.WatchList()
	assert.Contains(t, watched, dir)
	assert.Contains(t, watched, alphaDir)
	assert.Contains(t, watched, betaDir)
	assert.NotContains(t, watched, filepath.Join(alphaDir, "rule1.docx"))
}

func TestReingestDropsDeletedDocuments(t *testing.T) {
	dir := t.TempDir()
	alphaDir := filepath.Join(dir, "Alpha")
	betaDir := filepath.Join(dir, "Beta")
	require.NoError(t, os.MkdirAll(alphaDir, 0o755))
	require.NoError(t, os.MkdirAll(betaDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(alphaDir, "rule1.docx"),
		buildTestDocx(t, "Greek letters may not be altered"),
		0o644,
	))
	revokedPath := filepath.Join(betaDir, "revoked.docx")
	require.NoError(t, os.WriteFile(
		revokedPath,
		buildTestDocx(t, "This revoked rule no longer applies"),
		0o644,
	))

	pipeline := NewRetrievalPipeline(&fakeEmbedder{}, newFakeIndex(), 32)
	watcher := NewDirectoryWatcher(pipeline)

	watcher.reingest(context.Background(), dir)
	count, err := pipeline.index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, os.Remove(revokedPath))

	watcher.reingest(context.Background(), dir)
	count, err = pipeline.index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count, "deleting a document must shrink the index")

	contextBlock, err := pipeline.Query(context.Background(), "revoked rule no longer applies", 3)
	require.NoError(t, err)
	assert.NotContains(t, contextBlock, "revoked")
}
