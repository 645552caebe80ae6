package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/templink/internal/logging"
	"github.com/conneroisu/templink/internal/types"
)

// FsnotifySource is the production FileChangeSource, backed by fsnotify.
// It watches the parent directory of each subscribed file and filters
// events by folded file path. Editors and generators save atomically by
// renaming a temp file over the target, which replaces the inode; a
// per-file kernel watch dies on the first such save, while the directory
// watch keeps delivering. Rapid write bursts are debounced per path and
// delivery is marshaled onto the owning goroutine via the Dispatcher.
//
// Subscribe and Unsubscribe are called on the owning goroutine while the
// event loop runs on its own goroutine, so the subscription tables are
// mutex-guarded.
type FsnotifySource struct {
	watcher  *fsnotify.Watcher
	dispatch Dispatcher
	logger   logging.Logger
	debounce time.Duration

	mu       sync.Mutex
	subs     map[Subscription]*fileSub
	refs     map[string]int    // folded file path -> subscriber count
	names    map[string]string // folded file path -> normalized file path
	dirs     map[string]int    // folded dir path -> watched file count
	dirNames map[string]string // folded dir path -> name registered with fsnotify
	timers   map[string]*time.Timer
}

type fileSub struct {
	key   string // folded path
	flags NotifyFlags
	sink  FileSink
}

// NewFsnotifySource creates a source with the given debounce window.
// Call Run to start event delivery and Close when done.
func NewFsnotifySource(debounce time.Duration, dispatch Dispatcher, logger logging.Logger) (*FsnotifySource, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if dispatch == nil {
		dispatch = SynchronousDispatcher
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &FsnotifySource{
		watcher:  watcher,
		dispatch: dispatch,
		logger:   logger.WithComponent("fsnotify"),
		debounce: debounce,
		subs:     make(map[Subscription]*fileSub),
		refs:     make(map[string]int),
		names:    make(map[string]string),
		dirs:     make(map[string]int),
		dirNames: make(map[string]string),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Subscribe implements FileChangeSource. The file must exist; the first
// subscription in a directory registers the directory with fsnotify, and
// later subscriptions share the watch.
func (s *FsnotifySource) Subscribe(path string, flags NotifyFlags, sink FileSink) (Subscription, error) {
	name := types.NormalizePath(path)
	key := types.FoldPath(name)

	if _, err := os.Stat(name); err != nil {
		return Subscription{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs[key] == 0 {
		dir := filepath.Dir(name)
		dirKey := types.FoldPath(dir)

		if s.dirs[dirKey] == 0 {
			if err := s.watcher.Add(dir); err != nil {
				return Subscription{}, err
			}
			s.dirNames[dirKey] = dir
		}
		s.dirs[dirKey]++
		s.names[key] = name
	}

	sub := NewSubscription()
	s.subs[sub] = &fileSub{key: key, flags: flags, sink: sink}
	s.refs[key]++

	return sub, nil
}

// Unsubscribe implements FileChangeSource. The last subscriber for the last
// watched file in a directory removes the underlying fsnotify watch.
func (s *FsnotifySource) Unsubscribe(sub Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fs, ok := s.subs[sub]
	if !ok {
		return nil
	}

	delete(s.subs, sub)
	s.refs[fs.key]--

	if s.refs[fs.key] > 0 {
		return nil
	}

	delete(s.refs, fs.key)
	name := s.names[fs.key]
	delete(s.names, fs.key)

	if timer := s.timers[fs.key]; timer != nil {
		timer.Stop()
		delete(s.timers, fs.key)
	}

	dirKey := types.FoldPath(filepath.Dir(name))
	s.dirs[dirKey]--
	if s.dirs[dirKey] > 0 {
		return nil
	}

	delete(s.dirs, dirKey)
	dirName := s.dirNames[dirKey]
	delete(s.dirNames, dirKey)

	// The directory may already be gone; a failed remove still leaves the
	// subscription cleanly dropped.
	if err := s.watcher.Remove(dirName); err != nil {
		s.logger.Debug(context.Background(), "removing fsnotify watch failed", "path", dirName, "error", err.Error())
	}

	return nil
}

// Run processes fsnotify events until the context is canceled.
func (s *FsnotifySource) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn(ctx, err, "file watcher error")
		}
	}
}

// Close releases the underlying fsnotify watcher.
func (s *FsnotifySource) Close() error {
	s.mu.Lock()
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
	s.mu.Unlock()

	return s.watcher.Close()
}

func (s *FsnotifySource) handleEvent(event fsnotify.Event) {
	// The directory watch reports every entry; a rename-replace save shows
	// up as Create on the target, a delete-and-recreate as Remove then
	// Create. All of them mean the import's content may have changed.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}

	key := types.FoldPath(event.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs[key] == 0 {
		return
	}

	if timer := s.timers[key]; timer != nil {
		timer.Stop()
	}
	s.timers[key] = time.AfterFunc(s.debounce, func() {
		s.flush(key)
	})
}

// flush stats the file and hands delivery to the dispatcher so sinks run on
// the owning goroutine.
func (s *FsnotifySource) flush(key string) {
	s.mu.Lock()
	delete(s.timers, key)
	name := s.names[key]

	sinks := make([]FileSink, 0)
	for _, fs := range s.subs {
		if fs.key == key && fs.flags&(NotifyTime|NotifySize) != 0 {
			sinks = append(sinks, fs.sink)
		}
	}
	s.mu.Unlock()

	if len(sinks) == 0 {
		return
	}

	event := FileEvent{Path: name}
	if info, err := os.Stat(name); err == nil {
		event.ModTime = info.ModTime()
		event.Size = info.Size()
	}

	s.dispatch(func() {
		for _, sink := range sinks {
			sink(event)
		}
	})
}
