package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"loxkit/internal/log"
)

// FileWatcher watches filesystem changes and reports changed catalog files.
type FileWatcher struct {
	root              string
	watcher           *fsnotify.Watcher
	onChange          func([]string) // called with changed file paths
	onStructureChange func()         // called when files appear, vanish or move
	debounceTime      time.Duration
	mu                sync.Mutex
	pendingEvents     map[string]bool
	structuralChange  bool
	filter            FileFilter
	ignoreMatcher     interface{ MatchesPath(string) bool }
	log               zerolog.Logger
	ctx               context.Context
	cancel            context.CancelFunc
	wg                sync.WaitGroup
}

// NewFileWatcher creates a filesystem watcher for a workspace.
func NewFileWatcher(root string, filter FileFilter, ignoreMatcher interface{ MatchesPath(string) bool }) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	fw := &FileWatcher{
		root:          root,
		watcher:       watcher,
		debounceTime:  500 * time.Millisecond,
		pendingEvents: make(map[string]bool),
		filter:        filter,
		ignoreMatcher: ignoreMatcher,
		log:           log.WithComponent("watcher"),
		ctx:           ctx,
		cancel:        cancel,
	}

	return fw, nil
}

// OnChange sets the callback for file changes. The callback receives
// workspace-relative paths.
func (fw *FileWatcher) OnChange(callback func([]string)) {
	fw.onChange = callback
}

// OnStructureChange sets the callback for structural changes
// (create/delete/rename). A directory created with files already inside
// only reports the directory, so structural changes warrant a rescan.
func (fw *FileWatcher) OnStructureChange(callback func()) {
	fw.onStructureChange = callback
}

// Start begins watching the workspace.
func (fw *FileWatcher) Start() error {
	// Watch every non-ignored directory; fsnotify is not recursive
	err := filepath.WalkDir(fw.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // continue walking
		}

		relPath, err := filepath.Rel(fw.root, path)
		if err != nil {
			return nil
		}

		if fw.ignoreMatcher != nil && fw.ignoreMatcher.MatchesPath(relPath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if err := fw.watcher.Add(path); err != nil {
				fw.log.Warn().Str("event", "watcher.add_failed").Str("path", path).Err(err).Msg("failed to watch directory")
			}
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("failed to walk workspace: %w", err)
	}

	fw.wg.Add(2)
	go fw.eventLoop()
	go fw.debounceLoop()

	return nil
}

// Stop stops the file watcher.
func (fw *FileWatcher) Stop() error {
	fw.cancel()
	fw.wg.Wait()
	return fw.watcher.Close()
}

// eventLoop processes filesystem events.
func (fw *FileWatcher) eventLoop() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warn().Str("event", "watcher.error").Err(err).Msg("watcher error")
		}
	}
}

// handleEvent processes a single filesystem event.
func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(fw.root, event.Name)
	if err != nil {
		return
	}

	if fw.ignoreMatcher != nil && fw.ignoreMatcher.MatchesPath(relPath) {
		return
	}

	// Removals pass through even for unmatched paths so deletes get noticed
	if !fw.filter.Match(relPath) && !event.Has(fsnotify.Remove) {
		if event.Has(fsnotify.Create) {
			info, err := os.Stat(event.Name)
			if err == nil && info.IsDir() {
				if err := fw.watcher.Add(event.Name); err != nil {
					fw.log.Warn().Str("event", "watcher.add_failed").Str("path", event.Name).Err(err).Msg("failed to watch new directory")
				}
				fw.mu.Lock()
				fw.structuralChange = true
				fw.mu.Unlock()
			}
		}
		return
	}

	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		fw.mu.Lock()
		fw.pendingEvents[relPath] = true

		if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			fw.structuralChange = true
		}

		fw.mu.Unlock()
	}
}

// debounceLoop collects pending events and fires callbacks after the
// debounce period.
func (fw *FileWatcher) debounceLoop() {
	defer fw.wg.Done()

	ticker := time.NewTicker(fw.debounceTime)
	defer ticker.Stop()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case <-ticker.C:
			fw.processPendingEvents()
		}
	}
}

// processPendingEvents flushes pending changes to the callbacks.
func (fw *FileWatcher) processPendingEvents() {
	fw.mu.Lock()
	if len(fw.pendingEvents) == 0 && !fw.structuralChange {
		fw.mu.Unlock()
		return
	}

	paths := make([]string, 0, len(fw.pendingEvents))
	for path := range fw.pendingEvents {
		paths = append(paths, path)
	}
	hadStructuralChange := fw.structuralChange
	fw.pendingEvents = make(map[string]bool)
	fw.structuralChange = false
	fw.mu.Unlock()

	if len(paths) > 0 && fw.onChange != nil {
		fw.log.Debug().Str("event", "watcher.changes").Int("files", len(paths)).Msg("detected changed files")
		fw.onChange(paths)
	}

	if hadStructuralChange && fw.onStructureChange != nil {
		fw.onStructureChange()
	}
}
