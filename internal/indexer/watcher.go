package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// IndexerWatcher watches the root directory for file changes and triggers incremental reindexing.
type IndexerWatcher struct {
	indexer      *indexer
	rootDir      string
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	logger       *zap.Logger
	stopCh       chan struct{}
	doneCh       chan struct{}
	stopOnce     sync.Once
}

// NewIndexerWatcher creates a new file watcher for the indexer.
func NewIndexerWatcher(idx Indexer, rootDir string) (*IndexerWatcher, error) {
	indexerImpl, ok := idx.(*indexer)
	if !ok {
		return nil, fmt.Errorf("watcher requires an indexer created by New, got %T", idx)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	iw := &IndexerWatcher{
		indexer:      indexerImpl,
		rootDir:      rootDir,
		watcher:      watcher,
		debounceTime: 500 * time.Millisecond,
		logger:       indexerImpl.logger,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}

	// Add directories to watcher recursively
	if err := iw.addDirectoriesRecursively(rootDir); err != nil {
		watcher.Close()
		return nil, err
	}

	return iw, nil
}

// Start begins watching for file changes.
func (iw *IndexerWatcher) Start(ctx context.Context) {
	go iw.watch(ctx)
}

// Stop stops the file watcher.
func (iw *IndexerWatcher) Stop() {
	iw.stopOnce.Do(func() {
		close(iw.stopCh)
		<-iw.doneCh // Wait for goroutine to finish
		iw.watcher.Close()
	})
}

// watch is the main event loop with debouncing logic.
func (iw *IndexerWatcher) watch(ctx context.Context) {
	defer close(iw.doneCh)

	var debounceTimer *time.Timer
	reindexCh := make(chan struct{}, 1)
	changedFiles := make(map[string]bool) // absolute paths

	stopTimer := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}
	// schedule restarts the debounce window.
	schedule := func() {
		stopTimer()
		debounceTimer = time.AfterFunc(iw.debounceTime, func() {
			select {
			case reindexCh <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return

		case <-iw.stopCh:
			stopTimer()
			return

		case event, ok := <-iw.watcher.Events:
			if !ok {
				return
			}

			// A directory moved or created in one step carries files that
			// never produce their own events.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !iw.shouldWatchDirectory(event.Name) {
						continue
					}
					files, err := iw.watchNewDirectory(event.Name)
					if err != nil {
						iw.logger.Warn("failed to watch new directory", zap.String("dir", event.Name), zap.Error(err))
					}
					for _, f := range files {
						changedFiles[f] = true
					}
					if len(files) > 0 {
						schedule()
					}
					continue
				}
			}

			if !iw.shouldProcessEvent(event) {
				continue
			}
			changedFiles[event.Name] = true
			schedule()

		case <-reindexCh:
			iw.triggerReindex(ctx, changedFiles)
			changedFiles = make(map[string]bool)

		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return
			}
			iw.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

// triggerReindex executes an incremental reindex of the changed files.
func (iw *IndexerWatcher) triggerReindex(ctx context.Context, changedFiles map[string]bool) {
	if len(changedFiles) == 0 {
		return
	}

	fileList := make([]string, 0, len(changedFiles))
	for file := range changedFiles {
		fileList = append(fileList, file)
	}
	sort.Strings(fileList)

	iw.logger.Info("reindexing changed files", zap.Int("files", len(fileList)))
	start := time.Now()

	stats, err := iw.indexer.IndexFiles(ctx, fileList)
	if err != nil {
		iw.logger.Error("incremental reindex failed", zap.Error(err))
		return
	}

	iw.logger.Info("reindex complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("files", stats.FilesProcessed),
		zap.Int("removed", stats.FilesRemoved),
		zap.Int("items", stats.TotalItems))
}

// shouldProcessEvent checks if an event should trigger reindexing.
func (iw *IndexerWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	relPath, err := filepath.Rel(iw.rootDir, event.Name)
	if err != nil {
		return false
	}
	return iw.indexer.discovery.Matches(filepath.ToSlash(relPath))
}

// shouldWatchDirectory checks if a directory should be watched.
func (iw *IndexerWatcher) shouldWatchDirectory(path string) bool {
	relPath, err := filepath.Rel(iw.rootDir, path)
	if err != nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)
	if relPath == "." {
		return true
	}
	return !iw.indexer.discovery.shouldIgnore(relPath)
}

// watchNewDirectory watches dir and its subdirectories and returns the
// matching files already inside it.
func (iw *IndexerWatcher) watchNewDirectory(dir string) ([]string, error) {
	if err := iw.addDirectoriesRecursively(dir); err != nil {
		return nil, err
	}

	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if rel, err := filepath.Rel(iw.rootDir, path); err == nil && iw.indexer.discovery.Matches(filepath.ToSlash(rel)) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// addDirectoriesRecursively adds all directories in the tree to the watcher.
func (iw *IndexerWatcher) addDirectoriesRecursively(rootPath string) error {
	if _, err := os.Stat(rootPath); err != nil {
		return fmt.Errorf("failed to access %s: %w", rootPath, err)
	}

	return filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Log but continue - don't fail the entire watch for one directory
			iw.logger.Warn("error accessing path", zap.String("path", path), zap.Error(err))
			return nil
		}

		if !info.IsDir() {
			return nil
		}

		if !iw.shouldWatchDirectory(path) {
			return filepath.SkipDir
		}

		if err := iw.watcher.Add(path); err != nil {
			iw.logger.Warn("failed to watch directory", zap.String("dir", path), zap.Error(err))
		}
		return nil
	})
}
