package session

import (
	"context"
	"sync"

	"quotecard/internal/observe"
)

// Registry owns all live sessions. It serialises event handling per [Key]:
// events for the same key are applied strictly in arrival order with no
// overlap, while different keys proceed in parallel.
//
// Serialisation works by giving each key a FIFO queue drained by at most one
// goroutine at a time. Dispatch never blocks on session work.
type Registry struct {
	deps Deps

	mu      sync.Mutex
	entries map[Key]*entry
	wg      sync.WaitGroup
}

type entry struct {
	sess    *Session
	queue   []Event
	running bool
}

// NewRegistry creates an empty registry whose sessions share deps.
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:    deps,
		entries: make(map[Key]*entry),
	}
}

// Dispatch enqueues ev for key and ensures a drain goroutine is running.
// Events for keys with no session in progress are answered directly: a start
// event creates the session, a cancel gets a confirmation, anything else is
// ignored.
//
// ctx should outlive the conversation; replies triggered by ev are sent
// under it.
func (r *Registry) Dispatch(ctx context.Context, key Key, ev Event) {
	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		if ev.Kind != EventStart {
			r.mu.Unlock()
			r.withoutSession(ctx, key, ev)
			return
		}
		e = &entry{sess: newSession(key, r.deps)}
		r.entries[key] = e
	}
	e.queue = append(e.queue, ev)
	if !e.running {
		e.running = true
		r.wg.Add(1)
		go r.drain(ctx, key, e)
	}
	r.mu.Unlock()
}

// drain applies queued events for one key until the queue empties, then
// removes the entry if the session has returned to idle.
func (r *Registry) drain(ctx context.Context, key Key, e *entry) {
	defer r.wg.Done()
	for {
		r.mu.Lock()
		if len(e.queue) == 0 {
			e.running = false
			if e.sess.State() == StateIdle {
				delete(r.entries, key)
			}
			r.mu.Unlock()
			return
		}
		ev := e.queue[0]
		e.queue = e.queue[1:]
		r.mu.Unlock()

		if err := e.sess.Handle(ctx, ev); err != nil {
			observe.Logger(ctx).Error("session event failed",
				"user_id", key.UserID,
				"chat_id", key.ChatID,
				"event", ev.Kind.String(),
				"error", err,
			)
		}
	}
}

// withoutSession answers events that arrive with no session in progress.
func (r *Registry) withoutSession(ctx context.Context, key Key, ev Event) {
	if ev.Kind != EventCancel {
		observe.Logger(ctx).Debug("event without session ignored",
			"user_id", key.UserID,
			"chat_id", key.ChatID,
			"event", ev.Kind.String(),
		)
		return
	}
	if err := r.deps.Out.SendText(ctx, key.ChatID, promptCancelled); err != nil {
		observe.Logger(ctx).Error("cancel reply failed",
			"chat_id", key.ChatID,
			"error", err,
		)
	}
}

// Active returns the number of sessions currently tracked.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Wait blocks until all in-flight event handling has drained. Call during
// shutdown after the event source has stopped.
func (r *Registry) Wait() {
	r.wg.Wait()
}
