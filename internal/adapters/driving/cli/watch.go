package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
	"github.com/custodia-labs/notewise/internal/logger"
)

const defaultWatchDebounce = 500 * time.Millisecond

var defaultWatchPatterns = []string{"**/*.txt", "**/*.md", "**/*.pdf", "**/*.docx"}

// skippedDirs are never walked or watched.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".cache":       true,
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Ingest documents as they appear in a folder",
	Long: `Watch a folder and ingest matching documents whenever they are created or
saved. Deleting a file removes its chunks.

Each file keeps a stable document id derived from its absolute path, so
saving it again replaces the previous chunks. Patterns use ** globs and
are matched against paths relative to the watched folder.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSlice("pattern", defaultWatchPatterns, "Glob patterns of files to ingest")
	watchCmd.Flags().Duration("debounce", defaultWatchDebounce, "Quiet period before a changed file is ingested")
	watchCmd.Flags().Bool("initial", true, "Ingest matching files already present")
	needsServices(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	patterns, _ := cmd.Flags().GetStringSlice("pattern") //nolint:errcheck // flag defined in init
	debounce, _ := cmd.Flags().GetDuration("debounce")   //nolint:errcheck // flag defined in init
	initial, _ := cmd.Flags().GetBool("initial")         //nolint:errcheck // flag defined in init

	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid pattern %q", p)
		}
	}

	owner := ownerID(cmd)
	w := &inboxWatcher{
		root:     root,
		patterns: patterns,
		debounce: debounce,
		ingest: func(ctx context.Context, path string) error {
			doc, err := loadDocument(cmd, path, "")
			if err != nil {
				return err
			}
			result, err := ingestWithRetry(ctx, driving.IngestRequest{
				OwnerID:    owner,
				DocumentID: watchDocumentID(path),
				Text:       doc.Content,
			})
			if err != nil {
				return err
			}
			cmd.Printf("Ingested %s (%s, %d chunks)\n", path, result.DocumentID, result.Chunks)
			return nil
		},
		remove: func(ctx context.Context, path string) error {
			n, err := ingestService.DeleteDocument(ctx, domain.CollectionNotes, watchDocumentID(path))
			if err != nil {
				return err
			}
			cmd.Printf("Removed %s (%d chunks)\n", path, n)
			return nil
		},
	}

	if initial {
		if err := w.scan(cmd.Context()); err != nil {
			return err
		}
	}
	cmd.Printf("Watching %s for %v\n", root, patterns)
	return w.run(cmd.Context())
}

// watchDocumentID derives a stable document id from a file path.
func watchDocumentID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(path))).String()
}

// inboxWatcher ingests matching files under root as they change.
type inboxWatcher struct {
	root     string
	patterns []string
	debounce time.Duration
	ingest   func(ctx context.Context, path string) error
	remove   func(ctx context.Context, path string) error

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

// matches reports whether path falls under one of the patterns.
func (w *inboxWatcher) matches(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	for _, p := range w.patterns {
		if ok, _ := doublestar.Match(p, rel); ok { //nolint:errcheck // patterns validated up front
			return true
		}
	}
	return false
}

// scan ingests every matching file already under root.
func (w *inboxWatcher) scan(ctx context.Context) error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != w.root && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.matches(path) {
			return nil
		}
		if err := w.ingest(ctx, path); err != nil {
			logger.Warn("skipping %s: %v", path, err)
		}
		return ctx.Err()
	})
}

// run watches root until ctx is cancelled.
func (w *inboxWatcher) run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addTree(watcher, w.root); err != nil {
		return err
	}

	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, watcher, event)
		}
	}
}

func (w *inboxWatcher) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && skippedDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (w *inboxWatcher) handle(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(watcher, event.Name); err != nil {
				logger.Warn("%v", err)
			}
			return
		}
		w.schedule(ctx, event.Name, w.ingest)
	case event.Has(fsnotify.Write):
		w.schedule(ctx, event.Name, w.ingest)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.schedule(ctx, event.Name, w.remove)
	}
}

// schedule runs fn for path once no further event for it arrived within
// the debounce window. A newer event replaces the pending action.
func (w *inboxWatcher) schedule(ctx context.Context, path string, fn func(context.Context, string) error) {
	if !w.matches(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timers == nil {
		w.timers = make(map[string]*time.Timer)
	}
	if t, ok := w.timers[path]; ok && t.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.timers[path] == timer {
			delete(w.timers, path)
		}
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		if err := fn(ctx, path); err != nil {
			logger.Warn("%s: %v", path, err)
		}
	})
	w.timers[path] = timer
}

// stop cancels pending actions and waits for running ones.
func (w *inboxWatcher) stop() {
	w.mu.Lock()
	for path, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
