package models

import (
	"time"

	"gorm.io/datatypes"
)

// Role of a participant inside a session.
type Role string

const (
	RoleParent Role = "Parent"
	RoleChild  Role = "Child"
)

// Status: PENDING -> PROCESSING -> COMPLETED | FAILED
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// MaxParticipants is the number of seats in a session (one Parent, one Child).
const MaxParticipants = 2

type Session struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time

	JoinCode string `gorm:"uniqueIndex;size:6;not null"`
	Status   Status `gorm:"index;size:16;not null;default:PENDING"`

	Participants []Participant
	Report       *Report
}

type Participant struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time

	SessionID   string `gorm:"index;size:36;not null"`
	Name        string
	Age         int
	Gender      string
	Role        Role `gorm:"size:8;not null"`
	IsCompleted bool `gorm:"not null;default:false"`

	Answers []Answer
}

// Answer is one selected value; multi-select questions produce one row per option.
type Answer struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	ParticipantID string `gorm:"size:36;not null;uniqueIndex:idx_answer_unique,priority:1"`
	QuestionID    string `gorm:"not null;uniqueIndex:idx_answer_unique,priority:2"`
	Value         string `gorm:"not null;uniqueIndex:idx_answer_unique,priority:3"`
}

type Report struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	SessionID string         `gorm:"uniqueIndex;size:36;not null"`
	Content   datatypes.JSON `gorm:"not null"`
}

// Find returns the first participant with the given role, or nil.
func (s *Session) Find(role Role) *Participant {
	for i := range s.Participants {
		if s.Participants[i].Role == role {
			return &s.Participants[i]
		}
	}
	return nil
}

// AllCompleted reports whether every present participant has submitted.
// A session with no participants is never complete.
func (s *Session) AllCompleted() bool {
	if len(s.Participants) == 0 {
		return false
	}
	for _, p := range s.Participants {
		if !p.IsCompleted {
			return false
		}
	}
	return true
}

func (r Role) Valid() bool {
	return r == RoleParent || r == RoleChild
}
