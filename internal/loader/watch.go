package loader

import (
	"context"
	"sync"
	"time"

	"github.com/philipparndt/gobim/internal/controller"
	"github.com/philipparndt/gobim/pkg/watcher"
)

// Watch feeds session again whenever the manifest or a file it depends on
// changes, until ctx is done. The watched set is refreshed before each reload
// so newly referenced geometry is picked up. onReload, if set, runs after
// every successful reload.
func Watch(ctx context.Context, session *controller.Session, manifestPath string, debounce time.Duration, onReload func(), opts ...Option) error {
	logger := buildOptions(opts).logger

	fw, err := watcher.NewFileWatcher(debounce, logger)
	if err != nil {
		return err
	}

	var (
		mu       sync.Mutex
		onChange func(string)
	)
	rewatch := func() error {
		files, err := Dependencies(manifestPath, opts...)
		if err != nil {
			return err
		}
		if err := fw.RemoveAll(); err != nil {
			return err
		}
		return fw.Watch(files, onChange)
	}
	onChange = func(path string) {
		mu.Lock()
		defer mu.Unlock()

		logger.Info("file changed", "file", path)
		if err := rewatch(); err != nil {
			logger.Warn("refresh watched files", "err", err)
		}
		if err := Feed(ctx, session, manifestPath, opts...); err != nil {
			logger.Error("reload failed", "manifest", manifestPath, "err", err)
			return
		}
		logger.Info("scene reloaded", "objects", session.Scene().Len())
		if onReload != nil {
			onReload()
		}
	}

	if err := rewatch(); err != nil {
		_ = fw.Close()
		return err
	}
	fw.Start(ctx)
	<-ctx.Done()
	return fw.Close()
}
