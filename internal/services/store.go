package services

import (
	"context"

	"github.com/lojf/pairsurvey/internal/models"
)

// SubmitOutcome describes what a RecordAnswersAndComplete call changed.
type SubmitOutcome struct {
	Session *models.Session
	// Completed is true only for the call that flipped the participant's flag.
	Completed bool
	// AllCompleted is true when every present participant has submitted.
	AllCompleted bool
}

// SessionStore is the persistence surface the orchestrator and pipeline use.
// All errors other than ServiceErrors are treated as store failures.
type SessionStore interface {
	// CreateSession stores a new PENDING session with p as its first participant.
	CreateSession(ctx context.Context, p *models.Participant) (*models.Session, error)
	// FindSessionByJoinCode returns nil, nil when no session matches.
	FindSessionByJoinCode(ctx context.Context, code string) (*models.Session, error)
	// AddParticipant attaches p atomically, failing with ErrNotFound,
	// ErrSessionFull or ErrRoleConflict.
	AddParticipant(ctx context.Context, sessionID string, p *models.Participant) (*models.Session, error)
	// RecordAnswersAndComplete inserts answers and sets the completion flag
	// in one transaction.
	RecordAnswersAndComplete(ctx context.Context, sessionID, participantID string, answers []models.Answer) (*SubmitOutcome, error)
	// TransitionStatus moves a session from one status to another, reporting
	// false when the session was not in the expected state.
	TransitionStatus(ctx context.Context, sessionID string, from, to models.Status) (bool, error)
	UpdateSessionStatus(ctx context.Context, sessionID string, status models.Status) error
	// CompleteWithReport stores the report and moves PROCESSING -> COMPLETED
	// in one transaction.
	CompleteWithReport(ctx context.Context, sessionID string, content []byte) error
	// GetSessionWithAnswers returns nil, nil for an unknown session.
	GetSessionWithAnswers(ctx context.Context, sessionID string) (*models.Session, error)
	// GetSessionWithReport returns nil, nil for an unknown session.
	GetSessionWithReport(ctx context.Context, sessionID string) (*models.Session, error)
}
