package watcher

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports changes to a single file, typically the config file.
// The parent directory is watched so editors that save by rename are seen too.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	events   chan Event
	done     chan struct{}
	stopOnce sync.Once
}

// Event represents a debounced file change
type Event struct {
	Type     EventType
	FilePath string
}

// EventType represents the type of file event
type EventType int

const (
	EventCreated EventType = iota
	EventModified
	EventDeleted
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// NewWatcher creates a new file watcher for path
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		path:     abs,
		debounce: debounce,
		watcher:  fsWatcher,
		events:   make(chan Event, 1),
		done:     make(chan struct{}),
	}, nil
}

// Start begins monitoring the file's directory
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch folder %s: %w", dir, err)
	}
	log.Printf("👀 Watching %s for changes", w.path)

	go w.processEvents()

	return nil
}

// processEvents collapses bursts of fsnotify events for the watched file
// into one Event. It owns and finally closes the events channel.
func (w *Watcher) processEvents() {
	defer close(w.events)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var pending *Event

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}

			ev, ok := convert(event)
			if !ok {
				continue
			}
			pending = &ev
			timer.Reset(w.debounce)

		case <-timer.C:
			if pending == nil {
				continue
			}
			log.Printf("File %s: %s", pending.Type, pending.FilePath)
			select {
			case w.events <- *pending:
			case <-w.done:
				return
			}
			pending = nil

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)

		case <-w.done:
			return
		}
	}
}

func convert(event fsnotify.Event) (Event, bool) {
	var eventType EventType

	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		eventType = EventCreated
	case event.Op&fsnotify.Write == fsnotify.Write:
		eventType = EventModified
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		eventType = EventDeleted
	default:
		return Event{}, false // chmod
	}

	return Event{Type: eventType, FilePath: event.Name}, true
}

// Events returns the event channel. It is closed after Stop.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
