package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lojf/pairsurvey/internal/models"
)

// memStore is an in-memory SessionStore; one mutex stands in for the
// transaction boundary.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	reports  map[string][]byte
	seq      int

	createErr   error
	completeErr error
	calls       map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		sessions: map[string]*models.Session{},
		reports:  map[string][]byte{},
		calls:    map[string]int{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

// snapshot deep-copies a session so callers cannot mutate store state.
func snapshot(s *models.Session) *models.Session {
	cp := *s
	cp.Participants = make([]models.Participant, len(s.Participants))
	for i, p := range s.Participants {
		p.Answers = append([]models.Answer(nil), p.Answers...)
		cp.Participants[i] = p
	}
	if s.Report != nil {
		r := *s.Report
		cp.Report = &r
	}
	return &cp
}

func (m *memStore) CreateSession(_ context.Context, p *models.Participant) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["CreateSession"]++
	if m.createErr != nil {
		return nil, NewStoreError("create session", m.createErr)
	}
	sess := &models.Session{ID: m.nextID("S"), JoinCode: fmt.Sprintf("CODE%02d", m.seq), Status: models.StatusPending}
	part := *p
	part.ID = m.nextID("P")
	part.SessionID = sess.ID
	sess.Participants = []models.Participant{part}
	m.sessions[sess.ID] = sess
	return snapshot(sess), nil
}

func (m *memStore) FindSessionByJoinCode(_ context.Context, code string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["FindSessionByJoinCode"]++
	for _, s := range m.sessions {
		if s.JoinCode == code {
			return snapshot(s), nil
		}
	}
	return nil, nil
}

func (m *memStore) AddParticipant(_ context.Context, sessionID string, p *models.Participant) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["AddParticipant"]++
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, NewNotFoundError("survey session not found")
	}
	if len(sess.Participants) >= models.MaxParticipants {
		return nil, ErrSessionFull
	}
	if sess.Find(p.Role) != nil {
		return nil, NewRoleConflictError(string(p.Role))
	}
	part := *p
	part.ID = m.nextID("P")
	part.SessionID = sessionID
	sess.Participants = append(sess.Participants, part)
	return snapshot(sess), nil
}

func (m *memStore) RecordAnswersAndComplete(_ context.Context, sessionID, participantID string, answers []models.Answer) (*SubmitOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["RecordAnswersAndComplete"]++
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, NewNotFoundError("survey session not found")
	}
	var part *models.Participant
	for i := range sess.Participants {
		if sess.Participants[i].ID == participantID {
			part = &sess.Participants[i]
		}
	}
	if part == nil {
		return nil, NewNotFoundError("participant not found in this survey session")
	}
	out := &SubmitOutcome{}
	if !part.IsCompleted {
		for _, a := range answers {
			a.ID = uint(len(part.Answers) + 1)
			a.ParticipantID = participantID
			part.Answers = append(part.Answers, a)
		}
		part.IsCompleted = true
		out.Completed = true
	}
	out.Session = snapshot(sess)
	out.AllCompleted = sess.AllCompleted()
	return out, nil
}

func (m *memStore) TransitionStatus(_ context.Context, sessionID string, from, to models.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["TransitionStatus"]++
	sess, ok := m.sessions[sessionID]
	if !ok || sess.Status != from {
		return false, nil
	}
	sess.Status = to
	return true, nil
}

func (m *memStore) UpdateSessionStatus(_ context.Context, sessionID string, status models.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["UpdateSessionStatus"]++
	sess, ok := m.sessions[sessionID]
	if !ok {
		return NewNotFoundError("survey session not found")
	}
	sess.Status = status
	return nil
}

func (m *memStore) CompleteWithReport(_ context.Context, sessionID string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["CompleteWithReport"]++
	if m.completeErr != nil {
		return NewStoreError("save report", m.completeErr)
	}
	sess, ok := m.sessions[sessionID]
	if !ok || sess.Status != models.StatusProcessing {
		return NewStoreError("save report", errors.New("session is no longer PROCESSING"))
	}
	m.reports[sessionID] = append([]byte(nil), content...)
	sess.Report = &models.Report{SessionID: sessionID, Content: content}
	sess.Status = models.StatusCompleted
	return nil
}

func (m *memStore) GetSessionWithAnswers(_ context.Context, sessionID string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		return snapshot(s), nil
	}
	return nil, nil
}

func (m *memStore) GetSessionWithReport(ctx context.Context, sessionID string) (*models.Session, error) {
	return m.GetSessionWithAnswers(ctx, sessionID)
}

func (m *memStore) status(sessionID string) models.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[sessionID].Status
}

// seed stores a session directly, bypassing the orchestrator.
func (m *memStore) seed(s *models.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

type stubTrigger struct {
	mu  sync.Mutex
	ids []string
}

func (t *stubTrigger) Trigger(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ids = append(t.ids, sessionID)
}

func (t *stubTrigger) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}
