package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dmitrijs2005/bidmarket/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// FileNotifier signals through short-lived files next to the session
// database; every process watching the directory picks them up through
// fsnotify.
type FileNotifier struct {
	path    string
	log     logging.Logger
	watcher *fsnotify.Watcher

	mu     sync.Mutex
	subs   map[int]func(string)
	nextID int

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ Notifier = (*FileNotifier)(nil)

func NewFileNotifier(path string, log logging.Logger) (*FileNotifier, error) {
	if log == nil {
		log = logging.Nop()
	}
	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create signal dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	n := &FileNotifier{
		path:    path,
		log:     log,
		watcher: w,
		subs:    make(map[int]func(string)),
		done:    make(chan struct{}),
	}
	n.wg.Add(1)
	go n.loop()
	return n, nil
}

// Publish creates, then removes, a file named "<signal>.<origin>.<random>".
// The origin travels in the name, so each write is reported with its own
// origin even when several land together.
func (n *FileNotifier) Publish(_ context.Context, origin string) error {
	if strings.ContainsAny(origin, `/\`) {
		return fmt.Errorf("invalid origin %q", origin)
	}
	f, err := os.CreateTemp(filepath.Dir(n.path), filepath.Base(n.path)+"."+origin+".*")
	if err != nil {
		return fmt.Errorf("failed to publish signal: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("failed to publish signal: %w", err)
	}
	return os.Remove(name)
}

// originOf extracts the origin from a signal file name.
func (n *FileNotifier) originOf(name string) (string, bool) {
	if filepath.Dir(filepath.Clean(name)) != filepath.Dir(n.path) {
		return "", false
	}
	rest, ok := strings.CutPrefix(filepath.Base(name), filepath.Base(n.path)+".")
	if !ok {
		return "", false
	}
	i := strings.LastIndexByte(rest, '.')
	if i <= 0 {
		return "", false
	}
	return rest[:i], true
}

func (n *FileNotifier) Subscribe(_ context.Context, fn func(origin string)) (func(), error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}, nil
}

func (n *FileNotifier) Close() error {
	var err error
	n.closeOnce.Do(func() {
		close(n.done)
		err = n.watcher.Close()
		n.wg.Wait()
	})
	return err
}

func (n *FileNotifier) loop() {
	defer n.wg.Done()
	for {
		select {
		case <-n.done:
			return
		case ev, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			if origin, ok := n.originOf(ev.Name); ok {
				n.dispatch(origin)
			}
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			n.log.Warn(context.Background(), "session watcher error", "error", err)
		}
	}
}

func (n *FileNotifier) dispatch(origin string) {
	n.mu.Lock()
	fns := make([]func(string), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(origin)
	}
}
