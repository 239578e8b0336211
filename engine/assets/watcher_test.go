package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.toml")
	require.NoError(t, os.WriteFile(path, []byte(demoScene), 0o644))

	w, err := NewSceneWatcher(path, 4)
	require.NoError(t, err)
	defer w.Close()
	assert.Empty(t, w.Drain())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(demoScene+"\n"), 0o644))

	var events []SceneEvent
	require.Eventually(t, func() bool {
		events = append(events, w.Drain()...)
		return len(events) > 0
	}, 5*time.Second, 10*time.Millisecond)
	for _, e := range events {
		assert.Equal(t, w.Path(), e.Path)
	}
}

func TestSceneWatcherCloseIsFinal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	w, err := NewSceneWatcher(path, 0)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Error(t, w.Close())
}

func TestSceneWatcherNeedsAnExistingDirectory(t *testing.T) {
	_, err := NewSceneWatcher(filepath.Join(t.TempDir(), "missing", "scene.toml"), 1)
	assert.Error(t, err)
}
