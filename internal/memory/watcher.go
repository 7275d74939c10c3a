package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// NotesWatcher keeps a Store in sync with a directory of plain-text notes.
// Each .md or .txt file becomes one note sourced from its filename.
type NotesWatcher struct {
	dir          string
	store        *Store
	watcher      *fsnotify.Watcher
	debounceTime time.Duration

	mu      sync.Mutex
	pending map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewNotesWatcher creates a watcher over dir that indexes changed files
// into store.
func NewNotesWatcher(dir string, store *Store) (*NotesWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("memory: creating watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &NotesWatcher{
		dir:          dir,
		store:        store,
		watcher:      watcher,
		debounceTime: 500 * time.Millisecond,
		pending:      make(map[string]bool),
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Start indexes the existing notes and begins watching for changes.
func (nw *NotesWatcher) Start() error {
	if err := nw.indexAll(); err != nil {
		return err
	}

	if err := nw.watcher.Add(nw.dir); err != nil {
		return fmt.Errorf("memory: watching %s: %w", nw.dir, err)
	}

	nw.wg.Add(2)
	go nw.eventLoop()
	go nw.debounceLoop()

	return nil
}

// Stop stops the watcher and waits for its goroutines.
func (nw *NotesWatcher) Stop() error {
	nw.cancel()
	nw.wg.Wait()
	return nw.watcher.Close()
}

func (nw *NotesWatcher) indexAll() error {
	entries, err := os.ReadDir(nw.dir)
	if err != nil {
		return fmt.Errorf("memory: reading notes dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isNoteFile(entry.Name()) {
			continue
		}
		if err := nw.indexFile(filepath.Join(nw.dir, entry.Name())); err != nil {
			debugLog("notes watcher: index %s: %v", entry.Name(), err)
		}
	}

	return nil
}

func (nw *NotesWatcher) indexFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// The doc id is the file path, so rewrites update in place and an
	// emptied file drops its note.
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nw.store.Forget(noteDocID(path))
	}

	return nw.store.Upsert(noteDocID(path), "", text, filepath.Base(path))
}

// noteDocID derives the stable index id for a note file.
func noteDocID(path string) string {
	return "file:" + filepath.Clean(path)
}

func (nw *NotesWatcher) eventLoop() {
	defer nw.wg.Done()

	for {
		select {
		case <-nw.ctx.Done():
			return
		case event, ok := <-nw.watcher.Events:
			if !ok {
				return
			}
			if !isNoteFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				nw.mu.Lock()
				delete(nw.pending, event.Name)
				nw.mu.Unlock()
				if err := nw.store.Forget(noteDocID(event.Name)); err != nil {
					debugLog("notes watcher: forget %s: %v", event.Name, err)
				}
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			nw.mu.Lock()
			nw.pending[event.Name] = true
			nw.mu.Unlock()
		case err, ok := <-nw.watcher.Errors:
			if !ok {
				return
			}
			debugLog("notes watcher: %v", err)
		}
	}
}

func (nw *NotesWatcher) debounceLoop() {
	defer nw.wg.Done()

	ticker := time.NewTicker(nw.debounceTime)
	defer ticker.Stop()

	for {
		select {
		case <-nw.ctx.Done():
			return
		case <-ticker.C:
			nw.mu.Lock()
			if len(nw.pending) == 0 {
				nw.mu.Unlock()
				continue
			}
			paths := make([]string, 0, len(nw.pending))
			for p := range nw.pending {
				paths = append(paths, p)
			}
			nw.pending = make(map[string]bool)
			nw.mu.Unlock()

			for _, p := range paths {
				if err := nw.indexFile(p); err != nil {
					debugLog("notes watcher: reindex %s: %v", p, err)
				}
			}
		}
	}
}

func isNoteFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".txt"
}
