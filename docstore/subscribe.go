// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package docstore

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// hub fans write notifications out to collection subscribers.
type hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan struct{}
}

func newHub() *hub {
	return &hub{subs: map[string]map[int]chan struct{}{}}
}

func (h *hub) register(collection string) (int, chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	// Buffered by one: a pending notification already covers any number of
	// writes, since subscribers re-read the full snapshot.
	ch := make(chan struct{}, 1)

	if h.subs[collection] == nil {
		h.subs[collection] = map[int]chan struct{}{}
	}
	h.subs[collection][id] = ch
	return id, ch
}

func (h *hub) unregister(collection string, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[collection], id)
}

func (h *hub) notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[collection] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscription is a cancellable live view of a collection. Every committed
// write to the collection yields a fresh full snapshot on C; consumers
// replace their local view wholesale rather than patching deltas. C is
// closed after Cancel.
type Subscription struct {
	C      <-chan []Document
	cancel context.CancelFunc
}

func (s *Subscription) Cancel() {
	s.cancel()
}

// Subscribe returns a live snapshot feed for a collection. Slow consumers
// see only the latest snapshot; intermediate states are coalesced.
func (s *Store) Subscribe(collection string) *Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	id, notify := s.hub.register(collection)
	out := make(chan []Document, 1)

	go func() {
		defer close(out)
		defer s.hub.unregister(collection, id)
		for {
			select {
			case <-ctx.Done():
				return
			case <-notify:
				docs, err := s.GetAll(ctx, collection)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						slog.Warn("subscription snapshot failed", "collection", collection, "error", err)
					}
					continue
				}
				// Latest wins: replace an unconsumed snapshot.
				select {
				case <-out:
				default:
				}
				select {
				case out <- docs:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{C: out, cancel: cancel}
}

// DocEvent is a snapshot of a single document. Exists is false once the
// document has been deleted.
type DocEvent struct {
	Doc    Document
	Exists bool
}

// DocSubscription is a cancellable live view of one document.
type DocSubscription struct {
	C      <-chan DocEvent
	cancel context.CancelFunc
}

func (s *DocSubscription) Cancel() {
	s.cancel()
}

// SubscribeDoc returns a live snapshot feed for a single document. The
// viewer's own user record is watched this way so an admin block or delete
// reaches the client mid-session.
func (s *Store) SubscribeDoc(collection, id string) *DocSubscription {
	ctx, cancel := context.WithCancel(context.Background())
	subID, notify := s.hub.register(collection)
	out := make(chan DocEvent, 1)

	go func() {
		defer close(out)
		defer s.hub.unregister(collection, subID)
		for {
			select {
			case <-ctx.Done():
				return
			case <-notify:
				event := DocEvent{Exists: true}
				doc, err := s.Get(ctx, collection, id)
				switch {
				case errors.Is(err, ErrNotFound):
					event.Exists = false
				case err != nil:
					if !errors.Is(err, context.Canceled) {
						slog.Warn("doc subscription snapshot failed",
							"collection", collection, "id", id, "error", err)
					}
					continue
				default:
					event.Doc = doc
				}

				select {
				case <-out:
				default:
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return &DocSubscription{C: out, cancel: cancel}
}
