// Package session keeps per-browser training state: each session owns at
// most one training result at a time, replaced wholesale on retrain and
// swept by a background janitor once idle past the TTL.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/dropout-studio/dropout-studio-go/ml"
	"github.com/dropout-studio/dropout-studio-go/utils"
)

// Session is one browser's training state
type Session struct {
	ID       string
	Result   *ml.TrainResult // nil until a training run succeeds
	LastSeen time.Time
}

// Store holds all live sessions
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	janitor  *cron.Cron
}

// NewStore creates a session store with the given idle TTL
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// NewSessionID generates a fresh session identifier
func NewSessionID() string {
	return uuid.New().String()
}

// Touch marks a session live, creating it on first sight
func (s *Store) Touch(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{ID: id}
		s.sessions[id] = sess
	}
	sess.LastSeen = time.Now()
	return sess
}

// SetResult replaces the session's training result wholesale
func (s *Store) SetResult(id string, result *ml.TrainResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{ID: id}
		s.sessions[id] = sess
	}
	sess.Result = result
	sess.LastSeen = time.Now()
}

// Result returns the session's current training result, if any
func (s *Store) Result(id string) (*ml.TrainResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok || sess.Result == nil {
		return nil, false
	}
	return sess.Result, true
}

// Count returns the number of live sessions
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle past the TTL and returns how many went
func (s *Store) Sweep() int {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if sess.LastSeen.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// StartJanitor schedules periodic sweeps on the given cron expression
func (s *Store) StartJanitor(schedule string) error {
	logger := utils.GetLogger()

	janitor := cron.New()
	_, err := janitor.AddFunc(schedule, func() {
		if evicted := s.Sweep(); evicted > 0 {
			logger.Info("Swept idle sessions",
				utils.Component("session"),
				utils.Int("evicted", evicted),
				utils.Int("remaining", s.Count()))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	janitor.Start()
	s.janitor = janitor

	logger.Info("Session janitor started",
		utils.Component("session"),
		utils.String("schedule", schedule))
	return nil
}

// StopJanitor halts the sweep schedule and waits for a running sweep
func (s *Store) StopJanitor() {
	if s.janitor != nil {
		<-s.janitor.Stop().Done()
		s.janitor = nil
	}
}
