package scheduler

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Signal file names recognized in the signals directory.
const (
	// SignalKill stops the scheduler after draining in-flight items.
	SignalKill = "kill"
	// SignalPause suspends polling while the file exists.
	SignalPause = "pause"
	// SignalPoll triggers an immediate poll; the file is consumed.
	SignalPoll = "poll"
)

// WriteSignal drops a signal file in dir. The file body is the write time,
// which helps when inspecting a stuck scheduler by hand.
func WriteSignal(dir, name string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), []byte(time.Now().Format(time.RFC3339)), 0644)
}

// RemoveSignal deletes a signal file if present.
func RemoveSignal(dir, name string) error {
	err := os.Remove(filepath.Join(dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// SignalWatcher reacts to signal files dropped in a directory. A watcher
// setup failure is not fatal: the Should* methods stat the files directly,
// so signals still land on the next poll.
type SignalWatcher struct {
	dir string

	mu   sync.RWMutex
	stop bool

	onPoll func()

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSignalWatcher watches dir for signal files. onPoll runs whenever a poll
// signal arrives; the poll file is consumed.
func NewSignalWatcher(dir string, onPoll func()) (*SignalWatcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	sw := &SignalWatcher{
		dir:    dir,
		onPoll: onPoll,
		done:   make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Continue without watcher - Should* methods fall back to stat
		return sw, nil
	}
	sw.watcher = watcher

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		sw.watcher = nil
		return sw, nil
	}

	go sw.watch()

	return sw, nil
}

// watch monitors the signals directory for kill and poll files.
func (sw *SignalWatcher) watch() {
	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == 0 && event.Op&fsnotify.Write == 0 {
				continue
			}
			switch filepath.Base(event.Name) {
			case SignalKill:
				sw.mu.Lock()
				sw.stop = true
				sw.mu.Unlock()
			case SignalPoll:
				os.Remove(event.Name)
				if sw.onPoll != nil {
					sw.onPoll()
				}
			}
		case <-sw.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// ShouldStop returns true if a kill signal has been received.
func (sw *SignalWatcher) ShouldStop() bool {
	// Also check the file directly in case the watcher missed it
	if _, err := os.Stat(filepath.Join(sw.dir, SignalKill)); err == nil {
		sw.mu.Lock()
		sw.stop = true
		sw.mu.Unlock()
	}

	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return sw.stop
}

// ShouldPause returns true while a pause signal file exists.
func (sw *SignalWatcher) ShouldPause() bool {
	_, err := os.Stat(filepath.Join(sw.dir, SignalPause))
	return err == nil
}

// Clear removes all signal files and resets signal state.
func (sw *SignalWatcher) Clear() {
	sw.mu.Lock()
	sw.stop = false
	sw.mu.Unlock()

	os.Remove(filepath.Join(sw.dir, SignalKill))
	os.Remove(filepath.Join(sw.dir, SignalPause))
	os.Remove(filepath.Join(sw.dir, SignalPoll))
}

// Close shuts down the watcher.
func (sw *SignalWatcher) Close() {
	close(sw.done)
	if sw.watcher != nil {
		sw.watcher.Close()
	}
}
