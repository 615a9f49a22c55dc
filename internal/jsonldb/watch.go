// Reloads tables modified by other processes.

package jsonldb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads a table whenever its file is written or replaced, until ctx
// is canceled. A table file that fails to parse keeps its previous content.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = w.Close()
	}()
	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "Table watcher error", "err", err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			name, err := s.reload(ev.Name)
			if name == "" {
				continue
			}
			if err != nil {
				slog.WarnContext(ctx, "Failed to reload table", "table", name, "err", err)
				continue
			}
			slog.DebugContext(ctx, "Reloaded table", "table", name)
		}
	}
}
