package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/philipparndt/gobim/internal/controller"
	"github.com/philipparndt/gobim/internal/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnManifestChange(t *testing.T) {
	dir := t.TempDir()
	roof, err := os.ReadFile(filepath.Join("testdata", "roof.stl"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "roof.stl"), roof, 0o644))

	manifest := filepath.Join(dir, "scene.yaml")
	write := func(id string) {
		data := "models:\n  - id: roof\n    root:\n      id: " + id + "\n      geometry: roof.stl\n"
		require.NoError(t, os.WriteFile(manifest, []byte(data), 0o644))
	}
	write("roof1")

	session := controller.NewSession(scene.New(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, Feed(ctx, session, manifest))
	require.True(t, session.Scene().Has("roof1"))

	reloaded := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, session, manifest, 20*time.Millisecond, func() {
			select {
			case reloaded <- struct{}{}:
			default:
			}
		})
	}()

	// give the watcher time to register before editing
	time.Sleep(100 * time.Millisecond)
	write("roof2")

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("scene was not reloaded")
	}
	assert.False(t, session.Scene().Has("roof1"))
	assert.True(t, session.Scene().Has("roof2"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchMissingManifest(t *testing.T) {
	session := controller.NewSession(scene.New(), nil, nil)
	err := Watch(context.Background(), session, filepath.Join(t.TempDir(), "none.yaml"), time.Millisecond, nil)
	assert.Error(t, err)
}
