package server

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"daemonfield/session"
	"daemonfield/storage"
)

// frameQueueDepth bounds how many pending autoplay events a session holds
// before the oldest is dropped; a client that stops polling falls behind
// rather than blocking the autoplay loop.
const frameQueueDepth = 64

// sessionEntry pairs a live Controller with the autoplay event queue that
// stands in for the push side of the bidirectional channel described in
// spec.md §6 (see the server package's DESIGN.md entry for why this is
// polled over plain HTTP instead of a websocket).
type sessionEntry struct {
	ctrl   *session.Controller
	events chan any
}

func newSessionEntry(ctrl *session.Controller) *sessionEntry {
	return &sessionEntry{ctrl: ctrl, events: make(chan any, frameQueueDepth)}
}

func (e *sessionEntry) publish(msg any) {
	select {
	case e.events <- msg:
	default:
		select {
		case <-e.events:
		default:
		}
		select {
		case e.events <- msg:
		default:
		}
	}
}

// sessionStore owns every live session, keyed by its Controller's uuid. One
// store serves the whole process; sessions share no mutable state with each
// other (spec.md §5).
type sessionStore struct {
	mu       sync.Mutex
	sessions      map[uuid.UUID]*sessionEntry
	newController func() *session.Controller
	logger        *storage.SessionLogger
}

func newSessionStore(newController func() *session.Controller, logger *storage.SessionLogger) *sessionStore {
	return &sessionStore{
		sessions:      make(map[uuid.UUID]*sessionEntry),
		newController: newController,
		logger:        logger,
	}
}

func (s *sessionStore) create() *sessionEntry {
	ctrl := s.newController()
	entry := newSessionEntry(ctrl)

	s.mu.Lock()
	s.sessions[ctrl.ID] = entry
	s.mu.Unlock()
	return entry
}

func (s *sessionStore) get(id uuid.UUID) (*sessionEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	return entry, ok
}

func (s *sessionStore) remove(id uuid.UUID) {
	s.mu.Lock()
	entry, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		entry.ctrl.Close()
	}
}

func parseSessionID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("malformed session id %q: %w", raw, err)
	}
	return id, nil
}
