// Package watcher notices when a documentation set is regenerated.
//
// A Watcher follows one file, normally the generator's root navigation
// script, through fsnotify on its directory. Remote file systems, or
// NAVPLUS_FORCE_POLL=1, switch it to stat polling. Bursts of events are
// coalesced by a Debouncer before the change callback runs.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultPollInterval is the stat interval in polling mode.
const DefaultPollInterval = 2 * time.Second

// ForcePollEnvVar forces polling mode when set to a true value.
const ForcePollEnvVar = "NAVPLUS_FORCE_POLL"

var (
	ErrFileRemoved    = errors.New("watcher: watched file was removed")
	ErrPermission     = errors.New("watcher: permission denied")
	ErrAlreadyStarted = errors.New("watcher: already started")
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the quiet period before a change is reported.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) { w.debounceDuration = d }
}

// WithPollInterval sets the stat interval for polling mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithOnChange sets the callback run after each coalesced change.
func WithOnChange(fn func()) Option {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError sets the callback run on watch errors. By default errors are
// logged.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// WithForcePoll selects polling mode even where fsnotify works.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// Watcher follows one file.
type Watcher struct {
	path             string
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func()
	onError          func(error)
	forcePoll        bool
	log              *zap.Logger

	fsType    FilesystemType
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	polling   bool
	last      stamp

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
	changeCh chan struct{}
}

// NewWatcher returns a stopped watcher for path.
func NewWatcher(path string, opts ...Option) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:             absPath,
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func() {},
		log:              zap.NewNop(),
		changeCh:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.onError == nil {
		w.onError = func(err error) {
			w.log.Warn("watch error", zap.String("path", w.path), zap.Error(err))
		}
	}
	w.debouncer = NewDebouncer(w.debounceDuration)
	return w, nil
}

// Start begins watching. A missing file is not an error; its creation is
// reported as a change.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())

	w.fsType = DetectFilesystemType(w.path)
	poll := w.forcePoll || envBool(ForcePollEnvVar) || isRemoteFilesystem(w.fsType)

	cur, err := statStamp(w.path)
	if errors.Is(err, ErrPermission) {
		w.cancel()
		return err
	}
	w.last = cur

	w.polling = poll
	if !poll {
		fsw, err := w.watchDir()
		if err != nil {
			w.log.Debug("fsnotify unavailable, polling", zap.Error(err))
			w.polling = true
		} else {
			w.fsWatcher = fsw
			go w.watchFsnotify(fsw.Events, fsw.Errors)
		}
	}
	if w.polling {
		go w.watchPolling()
	}

	w.log.Debug("watching",
		zap.String("path", w.path),
		zap.Stringer("fs", w.fsType),
		zap.Bool("polling", w.polling))
	w.started = true
	return nil
}

// watchDir subscribes to the directory of the watched file. Generators
// replace their output rather than write it in place, which a watch on the
// file itself would lose.
func (w *Watcher) watchDir() (*fsnotify.Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return fsw, nil
}

// Stop stops watching and drops any change still being debounced. The
// change channel stays open.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return nil
	}
	w.cancel()
	w.debouncer.Cancel()
	w.started = false

	var err error
	if w.fsWatcher != nil {
		err = w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	return err
}

// IsPolling reports whether polling mode is active.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// IsStarted reports whether the watcher runs.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed receives after each coalesced change. Sends never block; changes
// made while nobody receives collapse into one.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// FilesystemType returns the classification made at Start.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

// PollInterval returns the stat interval for polling mode.
func (w *Watcher) PollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pollInterval
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func (w *Watcher) watchFsnotify(events <-chan fsnotify.Event, errs <-chan error) {
	target := filepath.Base(w.path)
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			switch {
			case event.Op&fsnotify.Remove != 0:
				w.onError(ErrFileRemoved)
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.debouncer.Trigger(w.notifyChange)
			}

		case err, ok := <-errs:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) watchPolling() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

// stamp identifies one version of the watched file. The zero stamp stands
// for a missing file.
type stamp struct {
	mtime time.Time
	size  int64
}

func (s stamp) exists() bool { return !s.mtime.IsZero() }

// newer reports whether s is a different version than old. Generators
// rewrite the root script in full, so a later mtime or another size is
// enough.
func (s stamp) newer(old stamp) bool {
	return s.mtime.After(old.mtime) || s.size != old.size
}

// statStamp returns the current stamp of path. A missing file yields the zero
// stamp together with os.ErrNotExist.
func statStamp(path string) (stamp, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return stamp{mtime: info.ModTime(), size: info.Size()}, nil
	case os.IsPermission(err):
		return stamp{}, ErrPermission
	default:
		return stamp{}, err
	}
}

func (w *Watcher) poll() {
	cur, err := statStamp(w.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		w.mu.Lock()
		had := w.last.exists()
		w.last = stamp{}
		w.mu.Unlock()
		if had {
			w.onError(ErrFileRemoved)
		}
		return
	case err != nil:
		w.onError(err)
		return
	}

	w.mu.Lock()
	changed := cur.newer(w.last)
	w.last = cur
	w.mu.Unlock()

	if changed {
		w.debouncer.Trigger(w.notifyChange)
	}
}

func (w *Watcher) notifyChange() {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()
	if !started {
		return
	}

	w.onChange()
	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}
