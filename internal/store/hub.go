package store

import (
	"context"
	"sync"
)

// LoadFunc reloads the current snapshot of a collection.
type LoadFunc func(ctx context.Context, path string) ([]Document, error)

// Hub fans collection-change notifications out to subscribers. The SQL
// drivers share it: they call Notify after every committed mutation and the
// hub's per-subscriber goroutine reloads and re-delivers the full snapshot.
// Each subscriber's channel holds at most one snapshot; a newer one
// replaces an undelivered older one.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[int]*subscriber
	next int
}

type subscriber struct {
	wake chan struct{}
	out  chan []Document
	stop chan struct{}
	once sync.Once
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]*subscriber)}
}

// Notify wakes every subscriber of path.
func (h *Hub) Notify(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs[path] {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

// Subscribe registers a subscriber for path and starts its delivery loop.
func (h *Hub) Subscribe(ctx context.Context, path string, load LoadFunc) (<-chan []Document, func(), error) {
	s := &subscriber{
		wake: make(chan struct{}, 1),
		out:  make(chan []Document, 1),
		stop: make(chan struct{}),
	}

	// Register before the initial load. A mutation committed while the
	// load runs lands in wake and triggers a reload, so the subscriber
	// never sticks on a snapshot that missed it.
	h.mu.Lock()
	id := h.next
	h.next++
	if h.subs[path] == nil {
		h.subs[path] = make(map[int]*subscriber)
	}
	h.subs[path][id] = s
	h.mu.Unlock()

	cancel := func() {
		s.once.Do(func() {
			close(s.stop)
			h.mu.Lock()
			delete(h.subs[path], id)
			h.mu.Unlock()
		})
	}

	// The initial snapshot is loaded synchronously so a failing path is
	// reported to the caller instead of dying inside a goroutine.
	initial, err := load(ctx, path)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	s.out <- initial

	go func() {
		for {
			select {
			case <-s.stop:
				return
			case <-ctx.Done():
				cancel()
				return
			case <-s.wake:
			}

			docs, err := load(ctx, path)
			if err != nil {
				continue // transient load failure; next change retries
			}
			select {
			case <-s.out:
			default:
			}
			s.out <- docs
		}
	}()

	return s.out, cancel, nil
}
