package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
)

// SessionStore keeps sessions in process memory. It is intended for tests
// and dev environments.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]store.ParkingSession
	active   map[string]string // driverID -> sessionID
	newID    func() string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]store.ParkingSession),
		active:   make(map[string]string),
		newID:    store.NewSessionID,
	}
}

func (s *SessionStore) FindActiveSession(_ context.Context, driverID string) (*store.ParkingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.active[driverID]
	if !ok {
		return nil, nil
	}
	sess := s.sessions[id]
	return &sess, nil
}

func (s *SessionStore) CreateSession(_ context.Context, d store.SessionDraft) (store.ParkingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.active[d.DriverID]; ok {
		return store.ParkingSession{}, store.ErrActiveSessionExists
	}
	sess := store.NewSession(s.newID(), d)
	s.sessions[sess.ID] = sess
	s.active[sess.DriverID] = sess.ID
	return sess, nil
}

func (s *SessionStore) CloseSession(_ context.Context, sessionID string, c store.SessionClose) (store.ParkingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.Status != store.SessionActive {
		return store.ParkingSession{}, store.ErrNotFound
	}

	exit := store.Timestamp(c.ExitTime)
	sess.ExitTime = &exit
	sess.ExitGate = c.ExitGate
	sess.ExitGuardID = c.ExitGuardID
	sess.ExitGuardName = c.ExitGuardName
	sess.Status = store.SessionCompleted

	s.sessions[sessionID] = sess
	delete(s.active, sess.DriverID)
	return sess, nil
}

func (s *SessionStore) ListRecent(_ context.Context, f store.SessionFilter) ([]store.ParkingSession, error) {
	f = f.Normalized()

	s.mu.RLock()
	var out []store.ParkingSession
	for _, sess := range s.sessions {
		if matches(sess, f) {
			out = append(out, sess)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].EntryTime.Equal(out[j].EntryTime) {
			return out[i].ID > out[j].ID
		}
		return out[i].EntryTime.After(out[j].EntryTime)
	})

	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matches(s store.ParkingSession, f store.SessionFilter) bool {
	if f.DriverID != "" && s.DriverID != f.DriverID {
		return false
	}
	if f.Gate != "" && s.GateLocation != f.Gate {
		return false
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && s.EntryTime.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !s.EntryTime.Before(f.To) {
		return false
	}
	return true
}
