package game

import (
	"sort"
	"sync"
)

// Store indexes running sessions by room code.
type Store struct {
	mu    sync.Mutex
	hosts map[string]*Host
}

func NewStore() *Store {
	return &Store{
		hosts: make(map[string]*Host),
	}
}

// Add registers h and drops it again once the session closes.
func (s *Store) Add(h *Host) {
	s.mu.Lock()
	s.hosts[h.RoomID()] = h
	s.mu.Unlock()

	go func() {
		<-h.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.hosts[h.RoomID()] == h {
			delete(s.hosts, h.RoomID())
		}
	}()
}

// Get looks up a session by code. The code is matched case-insensitively.
func (s *Store) Get(code string) (*Host, bool) {
	code, ok := NormalizeRoomCode(code)
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h, exists := s.hosts[code]
	return h, exists
}

// Codes lists the registered room codes in sorted order.
func (s *Store) Codes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.hosts))
	for code := range s.hosts {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
