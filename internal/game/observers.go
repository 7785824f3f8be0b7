package game

import (
	"slices"
	"sync"

	"github.com/jason-s-yu/unoparty/internal/models"
)

// Observer receives a private copy of the session state after every change.
// Host observers run on the session goroutine and must not block or call back
// into the Host synchronously.
type Observer func(models.SessionState)

// Observers is a registry of state observers with revocable handles. It is
// shared by the host and the remote proxy.
type Observers struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]Observer
}

// NewObservers returns an empty registry.
func NewObservers() *Observers {
	return &Observers{subs: make(map[uint64]Observer)}
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id   uint64
	reg  *Observers
	once sync.Once
}

// Subscribe registers fn. It stays registered until Unsubscribe is called.
func (o *Observers) Subscribe(fn Observer) *Subscription {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextID++
	o.subs[o.nextID] = fn
	return &Subscription{id: o.nextID, reg: o}
}

// Unsubscribe removes the observer. After it returns the observer receives no
// further notifications that had not already started. Safe to call twice.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.reg.mu.Lock()
		delete(s.reg.subs, s.id)
		s.reg.mu.Unlock()
	})
}

// Publish calls every registered observer, in subscription order, each with
// its own clone of state.
func (o *Observers) Publish(state *models.SessionState) {
	o.mu.Lock()
	ids := make([]uint64, 0, len(o.subs))
	for id := range o.subs {
		ids = append(ids, id)
	}
	o.mu.Unlock()
	slices.Sort(ids)

	for _, id := range ids {
		o.mu.Lock()
		fn, ok := o.subs[id]
		o.mu.Unlock()
		if !ok {
			continue
		}
		fn(state.Clone())
	}
}

// Len is the number of live subscriptions.
func (o *Observers) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}
