package provision

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/platinummonkey/modloader/pkg/image"
	"github.com/platinummonkey/modloader/pkg/observability"
)

// DefaultWatchDelay is how long Watch waits for a burst of template changes
// to settle before regenerating
const DefaultWatchDelay = 500 * time.Millisecond

// Watch runs the pipeline once and again whenever the template image or its
// debug companion in templateDir is written or created. Changes arriving
// within delay of each other trigger a single run. Each result is passed to
// onResult; a panicking onResult is logged and does not stop the watch.
// Watch returns when ctx is done.
func (p *Pipeline) Watch(ctx context.Context, templateDir string, in Inputs, delay time.Duration, onResult func(Result)) error {
	if delay <= 0 {
		delay = DefaultWatchDelay
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(templateDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", templateDir, err)
	}

	base := strings.TrimSuffix(p.opts.TemplateName, image.Extension)
	watched := map[string]bool{
		p.opts.TemplateName:           true,
		base + image.SymbolsExtension: true,
	}

	p.deliver(onResult, p.Run(ctx, in))
	p.log.Infof("Watching %s for template changes", templateDir)

	timer := time.NewTimer(delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !watched[filepath.Base(event.Name)] {
				continue
			}
			p.log.Debugf("Template changed: %s", event.Name)
			timer.Reset(delay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.log.WithError(err).Warn("Template watcher error")

		case <-timer.C:
			p.deliver(onResult, p.Run(ctx, in))
		}
	}
}

func (p *Pipeline) deliver(onResult func(Result), res Result) {
	defer observability.RecoverPanic(p.log, "watch result callback")
	onResult(res)
}
