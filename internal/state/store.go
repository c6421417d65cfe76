package state

import "sync"

// Store holds the current snapshot and applies actions through the
// reducer. Dispatch is serialized; an action dispatched from inside a
// subscriber is queued and applied after the current notification
// finishes instead of re-entering the reducer.
type Store struct {
	mu       sync.Mutex
	snapshot Snapshot
	queue    []Action
	draining bool
	nextSub  int
	subs     map[int]func(Snapshot)
	order    []int
}

func NewStore(initial Snapshot) *Store {
	return &Store{
		snapshot: initial.Clone(),
		subs:     make(map[int]func(Snapshot)),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// Subscribe registers a function invoked synchronously after every
// transition with the resulting snapshot. The returned function
// removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn
	s.order = append(s.order, id)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
		for i, sid := range s.order {
			if sid == id {
				s.order = append(s.order[:i:i], s.order[i+1:]...)
				return
			}
		}
	}
}

// Dispatch applies the action and notifies subscribers. It returns the
// snapshot after the dispatch queue drains. When called while another
// dispatch is draining (including from a subscriber), the action is
// enqueued for the draining call and the pre-drain snapshot is
// returned.
func (s *Store) Dispatch(action Action) Snapshot {
	s.mu.Lock()
	s.queue = append(s.queue, action)
	if s.draining {
		snap := s.snapshot.Clone()
		s.mu.Unlock()
		return snap
	}

	s.draining = true
	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.snapshot = Apply(s.snapshot, next)

		snap := s.snapshot.Clone()
		fns := make([]func(Snapshot), 0, len(s.order))
		for _, id := range s.order {
			if fn, ok := s.subs[id]; ok {
				fns = append(fns, fn)
			}
		}
		s.mu.Unlock()

		for _, fn := range fns {
			fn(snap)
		}
		s.mu.Lock()
	}
	s.draining = false
	out := s.snapshot.Clone()
	s.mu.Unlock()
	return out
}
