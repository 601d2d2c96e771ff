package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ProgramExt is the extension of dice program files.
const ProgramExt = ".dice"

// settleDelay lets a burst of writes to one file finish before it is read.
const settleDelay = 100 * time.Millisecond

// ReportFunc receives every re-evaluation triggered by the watcher.
type ReportFunc func(Result, error)

// StartWatching re-evaluates program files under paths whenever they are
// written. Directories are watched recursively; plain files are watched
// through their parent directory. Unchanged sources are not reported.
func (e *Engine) StartWatching(paths []string, report ReportFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.isWatching {
		return errors.New("already watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}

	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, path := range paths {
		if err := addWatchPath(watcher, path, files, dirs); err != nil {
			watcher.Close()
			return fmt.Errorf("error adding %s to watcher: %w", path, err)
		}
	}

	e.watcher = watcher
	e.watchFiles = files
	e.watchDirs = dirs
	e.watchDone = make(chan struct{})
	e.reportEvent = report
	e.isWatching = true

	go e.watchLoop(watcher, e.watchDone)
	e.logger.Info("watching", zap.Strings("paths", paths))
	return nil
}

func addWatchPath(watcher *fsnotify.Watcher, path string, files, dirs map[string]bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		files[filepath.Clean(path)] = true
		return watcher.Add(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs[filepath.Clean(p)] = true
			return watcher.Add(p)
		}
		return nil
	})
}

func (e *Engine) StopWatching() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isWatching {
		return errors.New("not watching")
	}

	e.isWatching = false
	close(e.watchDone)
	return e.watcher.Close()
}

func (e *Engine) watchLoop(watcher *fsnotify.Watcher, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			e.handleFileEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			e.logger.Error("watch error", zap.Error(err))
		}
	}
}

func (e *Engine) handleFileEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if !e.isWatched(event.Name) {
		return
	}

	// wait for a while after file change to consider multiple changes as one
	time.Sleep(settleDelay)

	result, err := e.Run(event.Name)
	if err == nil && result.Cached {
		e.logger.Debug("unchanged program skipped", zap.String("file", event.Name))
		return
	}
	if err != nil {
		e.logger.Debug("evaluation failed", zap.String("file", event.Name), zap.Error(err))
		result.Filename = event.Name
	}

	e.mu.Lock()
	report := e.reportEvent
	e.mu.Unlock()
	if report != nil {
		report(result, err)
	}
}

func (e *Engine) isWatched(name string) bool {
	name = filepath.Clean(name)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.watchFiles[name] {
		return true
	}
	return filepath.Ext(name) == ProgramExt && e.watchDirs[filepath.Dir(name)]
}
