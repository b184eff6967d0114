package corpus

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to corpus files under a set of directories.
// Bursts of events are coalesced: one value is sent on Changes once no
// corpus file has changed for the debounce interval.
type Watcher struct {
	Changes <-chan []string // changed file paths, sorted by first event

	changes  chan []string
	done     chan struct{}
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// NewWatcher creates a watcher over dirs. Call Start to begin receiving events.
func NewWatcher(dirs []string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if err := fw.Add(d); err != nil {
			fw.Close()
			return nil, err
		}
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	ch := make(chan []string, 4)
	return &Watcher{
		Changes:  ch,
		changes:  ch,
		done:     make(chan struct{}),
		watcher:  fw,
		debounce: debounce,
	}, nil
}

// Start begins watching in the background.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop closes the watcher and the Changes channel.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	var pending []string
	seen := make(map[string]bool)
	var last time.Time
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !IsCorpusFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				if !seen[event.Name] {
					seen[event.Name] = true
					pending = append(pending, event.Name)
				}
				last = time.Now()
			}

		case <-ticker.C:
			if len(pending) == 0 || time.Since(last) < w.debounce {
				continue
			}
			select {
			case w.changes <- pending:
			default:
				// Receiver is behind; keep the batch for the next tick.
				continue
			}
			pending = nil
			seen = make(map[string]bool)

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal.
		}
	}
}
