package memory

import (
	"context"
	"sync"

	"silicon-lab-service/internal/domain"
)

// Store is an in-memory implementation of app.Store, useful for tests and
// single-process demos where no Redis is configured.
type Store struct {
	mu         sync.RWMutex
	classrooms map[string]domain.Classroom
	rosters    map[string][]domain.StudentResult
	sessions   map[string]domain.GameSession
}

func NewStore() *Store {
	return &Store{
		classrooms: make(map[string]domain.Classroom),
		rosters:    make(map[string][]domain.StudentResult),
		sessions:   make(map[string]domain.GameSession),
	}
}

func (s *Store) SaveClassroom(_ context.Context, classroom domain.Classroom) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classrooms[classroom.Code] = classroom
	return nil
}

func (s *Store) Classroom(_ context.Context, code string) (domain.Classroom, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	classroom, ok := s.classrooms[code]
	return classroom, ok, nil
}

func (s *Store) Classrooms(_ context.Context) ([]domain.Classroom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Classroom, 0, len(s.classrooms))
	for _, c := range s.classrooms {
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) Roster(_ context.Context, code string) ([]domain.StudentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roster := s.rosters[code]
	out := make([]domain.StudentResult, len(roster))
	copy(out, roster)
	return out, nil
}

func (s *Store) SaveRoster(_ context.Context, code string, roster []domain.StudentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]domain.StudentResult, len(roster))
	copy(stored, roster)
	s.rosters[code] = stored
	return nil
}

func (s *Store) Session(_ context.Context, code, nickname string) (domain.GameSession, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionKey(code, nickname)]
	return session, ok, nil
}

func (s *Store) SaveSession(_ context.Context, code, nickname string, session domain.GameSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionKey(code, nickname)] = session
	return nil
}

func (s *Store) Wipe(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classrooms = make(map[string]domain.Classroom)
	s.rosters = make(map[string][]domain.StudentResult)
	s.sessions = make(map[string]domain.GameSession)
	return nil
}

func sessionKey(code, nickname string) string {
	return code + ":" + nickname
}
