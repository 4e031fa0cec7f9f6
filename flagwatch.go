package stencil

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FlagWatcher follows the flag file written by FlagFileNotifier and reports
// each new pass number once. It watches the parent directory, so the flag
// file does not need to exist yet.
type FlagWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	last    int
}

// NewFlagWatcher starts watching path. Events are not delivered until Run is
// called, but none written after NewFlagWatcher returns are lost.
func NewFlagWatcher(path string, logger *zap.Logger) (*FlagWatcher, error) {
	if path == "" {
		path = DefaultFlagPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, NewIOError("NewFlagWatcher", "cannot resolve "+path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, NewIOError("NewFlagWatcher", "cannot create watcher", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, NewIOError("NewFlagWatcher", "cannot watch "+filepath.Dir(abs), err)
	}
	return &FlagWatcher{path: abs, watcher: w, logger: logger}, nil
}

// Path returns the absolute path being followed
func (fw *FlagWatcher) Path() string { return fw.path }

// Run delivers pass numbers to fn until ctx is done or the watcher is
// closed. A flag already present when Run starts is reported first.
func (fw *FlagWatcher) Run(ctx context.Context, fn func(pass int)) error {
	defer fw.watcher.Close()

	fw.check(fn)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			fw.check(fn)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn("flag watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher without waiting for Run
func (fw *FlagWatcher) Close() error {
	return fw.watcher.Close()
}

func (fw *FlagWatcher) check(fn func(pass int)) {
	body, err := os.ReadFile(fw.path)
	if err != nil {
		return
	}
	pass, err := ParseFlagMessage(string(body))
	if err != nil {
		// truncated mid-write; the next event carries the full line
		fw.logger.Debug("ignoring partial flag", zap.String("body", string(body)))
		return
	}
	if pass == fw.last {
		return
	}
	fw.last = pass
	fn(pass)
}
