package build

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchDebounce = 300 * time.Millisecond

// Watch rebuilds the container of req whenever one of its services files
// changes, until ctx is done. onBuild receives every result, including the
// initial build.
func (b *Builder) Watch(ctx context.Context, req Request, onBuild func(*Response, error)) error {
	req = req.normalized()
	req.Cache = false

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	watch := func(resources []string) {
		for _, resource := range resources {
			dir := filepath.Dir(resource)
			if watched[dir] {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				b.logger.Warn("failed to watch directory", zap.String("path", dir), zap.Error(err))
				continue
			}
			watched[dir] = true
		}
	}

	resources := map[string]bool{}
	rebuild := func() {
		resp, err := b.Build(ctx, req)
		if err == nil && resp.Artifact != nil {
			clear(resources)
			for _, r := range resp.Artifact.Resources {
				resources[r] = true
			}
			watch(resp.Artifact.Resources)
		}
		onBuild(resp, err)
	}

	config, err := filepath.Abs(req.ConfigPath())
	if err != nil {
		return err
	}
	resources[config] = true
	watch([]string{config})
	rebuild()

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			path, _ := filepath.Abs(event.Name)
			if !resources[path] {
				continue
			}
			b.logger.Info("services file changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			debounce = time.After(watchDebounce)

		case <-debounce:
			debounce = nil
			rebuild()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}
