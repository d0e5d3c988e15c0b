package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lojf/pairsurvey/internal/joincode"
	"github.com/lojf/pairsurvey/internal/models"
	"github.com/lojf/pairsurvey/internal/services"
)

// MaxJoinCodeAttempts bounds join-code regeneration on unique collisions.
const MaxJoinCodeAttempts = 10

// answerBatchSize keeps each multi-row answer INSERT under SQLite's
// bound-parameter limit (999 on older builds); an answer row binds 4 values.
const answerBatchSize = 200

// ErrJoinCodeExhausted is returned when every generated join code collided.
var ErrJoinCodeExhausted = errors.New("unable to allocate a unique join code")

// Store is the GORM implementation of services.SessionStore.
type Store struct {
	conn    *gorm.DB
	newID   func() string
	newCode func() string
}

var _ services.SessionStore = (*Store)(nil)

func NewStore(conn *gorm.DB) *Store {
	return &Store{conn: conn, newID: uuid.NewString, newCode: joincode.Generate}
}

func (s *Store) CreateSession(ctx context.Context, p *models.Participant) (*models.Session, error) {
	// try up to MaxJoinCodeAttempts times to avoid unique collisions
	for i := 0; i < MaxJoinCodeAttempts; i++ {
		sess := &models.Session{ID: s.newID(), JoinCode: s.newCode(), Status: models.StatusPending}
		part := *p
		part.ID = s.newID()
		part.SessionID = sess.ID
		part.IsCompleted = false
		part.Answers = nil

		err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit(clause.Associations).Create(sess).Error; err != nil {
				return err
			}
			return tx.Omit(clause.Associations).Create(&part).Error
		})
		if err == nil {
			sess.Participants = []models.Participant{part}
			return sess, nil
		}
		if !isUniqueViolation(err) {
			return nil, services.NewStoreError("create session", err)
		}
	}
	return nil, services.NewStoreError("create session", ErrJoinCodeExhausted)
}

func (s *Store) FindSessionByJoinCode(ctx context.Context, code string) (*models.Session, error) {
	var sess models.Session
	err := s.conn.WithContext(ctx).Preload("Participants").Where("join_code = ?", code).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, services.NewStoreError("find session by join code", err)
	}
	return &sess, nil
}

func (s *Store) AddParticipant(ctx context.Context, sessionID string, p *models.Participant) (*models.Session, error) {
	var out *models.Session
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sess, err := lockSession(tx, sessionID)
		if err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Order("created_at").Find(&sess.Participants).Error; err != nil {
			return err
		}
		if len(sess.Participants) >= models.MaxParticipants {
			return services.ErrSessionFull
		}
		if sess.Find(p.Role) != nil {
			return services.NewRoleConflictError(string(p.Role))
		}

		part := *p
		part.ID = s.newID()
		part.SessionID = sessionID
		part.IsCompleted = false
		part.Answers = nil
		if err := tx.Omit(clause.Associations).Create(&part).Error; err != nil {
			return err
		}
		sess.Participants = append(sess.Participants, part)
		out = sess
		return nil
	})
	if err != nil {
		return nil, services.NewStoreError("add participant", err)
	}
	return out, nil
}

func (s *Store) RecordAnswersAndComplete(ctx context.Context, sessionID, participantID string, answers []models.Answer) (*services.SubmitOutcome, error) {
	out := &services.SubmitOutcome{}
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSession(tx, sessionID); err != nil {
			return err
		}

		var part models.Participant
		err := tx.Where("id = ? AND session_id = ?", participantID, sessionID).First(&part).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.NewNotFoundError("participant not found in this survey session")
		}
		if err != nil {
			return err
		}

		// A completed participant is never mutated again.
		if !part.IsCompleted {
			if len(answers) > 0 {
				rows := make([]models.Answer, len(answers))
				for i, a := range answers {
					rows[i] = models.Answer{ParticipantID: participantID, QuestionID: a.QuestionID, Value: a.Value}
				}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, answerBatchSize).Error; err != nil {
					return err
				}
			}
			res := tx.Model(&models.Participant{}).
				Where("id = ? AND is_completed = ?", participantID, false).
				Update("is_completed", true)
			if res.Error != nil {
				return res.Error
			}
			out.Completed = res.RowsAffected == 1
		}

		// Re-read the full participant set inside the same transaction.
		var sess models.Session
		err = tx.Preload("Participants").First(&sess, "id = ?", sessionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.NewNotFoundError("survey session not found")
		}
		if err != nil {
			return err
		}
		out.Session = &sess
		out.AllCompleted = sess.AllCompleted()
		return nil
	})
	if err != nil {
		return nil, services.NewStoreError("record answers", err)
	}
	return out, nil
}

func (s *Store) TransitionStatus(ctx context.Context, sessionID string, from, to models.Status) (bool, error) {
	res := s.conn.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND status = ?", sessionID, from).
		Update("status", to)
	if res.Error != nil {
		return false, services.NewStoreError("transition status", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) UpdateSessionStatus(ctx context.Context, sessionID string, status models.Status) error {
	res := s.conn.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", sessionID).
		Update("status", status)
	if res.Error != nil {
		return services.NewStoreError("update status", res.Error)
	}
	if res.RowsAffected == 0 {
		return services.NewNotFoundError("survey session not found")
	}
	return nil
}

func (s *Store) CompleteWithReport(ctx context.Context, sessionID string, content []byte) error {
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Report{SessionID: sessionID, Content: datatypes.JSON(content)}).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Session{}).
			Where("id = ? AND status = ?", sessionID, models.StatusProcessing).
			Update("status", models.StatusCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("session is no longer PROCESSING")
		}
		return nil
	})
	return services.NewStoreError("save report", err)
}

func (s *Store) GetSessionWithAnswers(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.getSession(ctx, sessionID, "Participants.Answers")
}

func (s *Store) GetSessionWithReport(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.getSession(ctx, sessionID, "Report")
}

// CountStuckSessions counts sessions that entered PROCESSING before olderThan
// and have not left it since.
func (s *Store) CountStuckSessions(ctx context.Context, olderThan time.Time) (int64, error) {
	var n int64
	err := s.conn.WithContext(ctx).Model(&models.Session{}).
		Where("status = ? AND updated_at < ?", models.StatusProcessing, olderThan).
		Count(&n).Error
	if err != nil {
		return 0, services.NewStoreError("count stuck sessions", err)
	}
	return n, nil
}

// CountStalledSessions counts PENDING sessions whose participants all
// completed before olderThan. Such a session lost its report trigger, for
// example when the task was dropped at shutdown.
func (s *Store) CountStalledSessions(ctx context.Context, olderThan time.Time) (int64, error) {
	var n int64
	err := s.conn.WithContext(ctx).Model(&models.Session{}).
		Where("status = ?", models.StatusPending).
		Where("EXISTS (SELECT 1 FROM participants p WHERE p.session_id = sessions.id)").
		Where("NOT EXISTS (SELECT 1 FROM participants p WHERE p.session_id = sessions.id AND (p.is_completed = ? OR p.updated_at >= ?))", false, olderThan).
		Count(&n).Error
	if err != nil {
		return 0, services.NewStoreError("count stalled sessions", err)
	}
	return n, nil
}

func (s *Store) getSession(ctx context.Context, sessionID, preload string) (*models.Session, error) {
	var sess models.Session
	err := s.conn.WithContext(ctx).Preload(preload).First(&sess, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, services.NewStoreError("get session", err)
	}
	return &sess, nil
}

// lockSession loads the session row under a row lock. SQLite ignores the
// locking clause; its single-writer connection serialises the transaction.
func lockSession(tx *gorm.DB, sessionID string) (*models.Session, error) {
	var sess models.Session
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sess, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.NewNotFoundError("survey session not found")
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// isUniqueViolation relies on TranslateError; NOT NULL and foreign-key
// failures must not be retried as join-code collisions.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
