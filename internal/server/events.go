package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/oakwood-commons/jvx/pkg/logger"
)

const keepaliveInterval = 10 * time.Second

// broker fans reload notifications out to connected event streams.
type broker struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
	nextID  int
}

func newBroker() *broker {
	return &broker{clients: make(map[chan string]struct{})}
}

// publish sends msg to every client. Slow clients miss messages rather than
// block the sender.
func (b *broker) publish(msg string) {
	b.mu.Lock()
	b.nextID++
	formatted := "id: " + strconv.Itoa(b.nextID) + "\ndata: " + msg
	b.mu.Unlock()

	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.clients {
		select {
		case c <- formatted:
		default:
		}
	}
}

func (b *broker) subscribe() chan string {
	c := make(chan string, 10)
	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()
	return c
}

func (b *broker) unsubscribe(c chan string) {
	b.mu.Lock()
	delete(b.clients, c)
	b.mu.Unlock()
}

func (b *broker) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ServeHTTP streams server-sent events until the client goes away.
func (b *broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	c := b.subscribe()
	defer b.unsubscribe(c)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case msg := <-c:
			if _, err := fmt.Fprintf(w, "%s\n\n", msg); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// watchFile publishes "reload" whenever path is written or replaced. The
// parent directory is watched so editors that save by rename keep working.
// It returns once the watcher is set up; events are handled until ctx ends.
func watchFile(ctx context.Context, path string, b *broker) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	lgr := logger.FromContext(ctx).WithValues("file", abs)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					lgr.V(1).Info("file changed, notifying clients", "op", event.Op.String())
					b.publish("reload")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				lgr.Error(err, "watcher error")
			}
		}
	}()
	return nil
}
