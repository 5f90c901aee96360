package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"silicon-lab-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Store persists classroom, roster, and session records as JSON strings in
// Redis, one key per record:
//
//	classroom:<code>          -> Classroom
//	roster:<code>             -> []StudentResult
//	session:<code>:<nickname> -> GameSession
//
// Records carry no TTL: classroom expiry is a join-time rule, not a storage
// concern, and teachers expect rosters to survive the class window.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) SaveClassroom(ctx context.Context, classroom domain.Classroom) error {
	return s.setJSON(ctx, classroomKey(classroom.Code), classroom)
}

func (s *Store) Classroom(ctx context.Context, code string) (domain.Classroom, bool, error) {
	var classroom domain.Classroom
	ok, err := s.getJSON(ctx, classroomKey(code), &classroom)
	return classroom, ok, err
}

func (s *Store) Classrooms(ctx context.Context) ([]domain.Classroom, error) {
	var out []domain.Classroom
	iter := s.client.Scan(ctx, 0, classroomKey("*"), 0).Iterator()
	for iter.Next(ctx) {
		var classroom domain.Classroom
		ok, err := s.getJSON(ctx, iter.Val(), &classroom)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, classroom)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan classrooms: %w", err)
	}
	return out, nil
}

func (s *Store) Roster(ctx context.Context, code string) ([]domain.StudentResult, error) {
	var roster []domain.StudentResult
	if _, err := s.getJSON(ctx, rosterKey(code), &roster); err != nil {
		return nil, err
	}
	return roster, nil
}

func (s *Store) SaveRoster(ctx context.Context, code string, roster []domain.StudentResult) error {
	return s.setJSON(ctx, rosterKey(code), roster)
}

func (s *Store) Session(ctx context.Context, code, nickname string) (domain.GameSession, bool, error) {
	var session domain.GameSession
	ok, err := s.getJSON(ctx, sessionKey(code, nickname), &session)
	return session, ok, err
}

func (s *Store) SaveSession(ctx context.Context, code, nickname string, session domain.GameSession) error {
	return s.setJSON(ctx, sessionKey(code, nickname), session)
}

// Wipe drops the whole database. Administrative reset only.
func (s *Store) Wipe(ctx context.Context) error {
	return s.client.FlushDB(ctx).Err()
}

func (s *Store) setJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *Store) getJSON(ctx context.Context, key string, out any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func classroomKey(code string) string {
	return "classroom:" + code
}

func rosterKey(code string) string {
	return "roster:" + code
}

func sessionKey(code, nickname string) string {
	return "session:" + code + ":" + nickname
}
