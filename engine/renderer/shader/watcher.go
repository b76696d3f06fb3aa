package shader

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher recompiles library programs when a .wgsl file under root changes on disk.
// Editors often emit several events per save, so changes are coalesced for a
// short debounce window before reloading.
type Watcher struct {
	lib      Library
	root     string
	debounce time.Duration
	watcher  *fsnotify.Watcher

	mu      *sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher starts watching root, which must be the directory the library reads from.
//
// Parameters:
//   - lib: the library to reload
//   - root: the shader directory on disk
//   - debounce: the coalescing window; zero selects 100ms
//
// Returns:
//   - *Watcher: the running watcher
//   - error: an error if the directory cannot be watched
func NewWatcher(lib Library, root string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("shader: create watcher: %w", err)
	}
	if err := fw.Add(root); err != nil {
		fw.Close()
		return nil, fmt.Errorf("shader: watch %s: %w", root, err)
	}
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	w := &Watcher{
		lib:      lib,
		root:     root,
		debounce: debounce,
		watcher:  fw,
		mu:       &sync.Mutex{},
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !strings.HasSuffix(ev.Name, ".wgsl") {
				continue
			}
			w.queue(ev.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[Shader] WARN: watcher: %v", err)
		}
	}
}

func (w *Watcher) queue(name string) {
	rel, err := filepath.Rel(w.root, name)
	if err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[filepath.ToSlash(rel)] = struct{}{}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.flush)
	} else {
		w.timer.Reset(w.debounce)
	}
}

func (w *Watcher) flush() {
	w.mu.Lock()
	names := make([]string, 0, len(w.pending))
	for n := range w.pending {
		names = append(names, n)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	w.mu.Unlock()

	for _, n := range names {
		if _, err := w.lib.Reload(n); err != nil {
			log.Printf("[Shader] ERROR: reload %s: %v", n, err)
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
//
// Returns:
//   - error: the error from closing the underlying watcher
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}
