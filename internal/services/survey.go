package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/lojf/pairsurvey/internal/metrics"
	"github.com/lojf/pairsurvey/internal/models"
)

// ReportTrigger hands a completed session to the report pipeline without
// blocking the caller.
type ReportTrigger interface {
	Trigger(sessionID string)
}

// SurveyService owns the session lifecycle: initiate, join, submit, poll.
type SurveyService struct {
	store   SessionStore
	trigger ReportTrigger
	log     *slog.Logger
}

type InitiateResult struct {
	SessionID     string `json:"surveySessionId"`
	ParticipantID string `json:"participantId"`
	JoinCode      string `json:"joinCode"`
}

type JoinResult struct {
	SessionID     string `json:"surveySessionId"`
	ParticipantID string `json:"participantId"`
}

// ReportStatus is what pollers see; Report is non-nil only when COMPLETED.
type ReportStatus struct {
	Status models.Status   `json:"status"`
	Report json.RawMessage `json:"report"`
}

func NewSurveyService(store SessionStore, trigger ReportTrigger, log *slog.Logger) *SurveyService {
	if log == nil {
		log = slog.Default()
	}
	return &SurveyService{store: store, trigger: trigger, log: log.With("component", "survey")}
}

// Initiate creates a session with in as its first participant.
func (s *SurveyService) Initiate(ctx context.Context, in ParticipantInput) (*InitiateResult, error) {
	in, err := in.Validate()
	if err != nil {
		return nil, err
	}
	sess, err := s.store.CreateSession(ctx, toParticipant(in))
	if err != nil {
		return nil, err
	}
	if len(sess.Participants) == 0 {
		return nil, NewStoreError("create session", errNoParticipant)
	}

	metrics.SessionsInitiated.WithLabelValues(string(in.Role)).Inc()
	s.log.Info("survey session initiated", "session_id", sess.ID, "role", in.Role)
	return &InitiateResult{
		SessionID:     sess.ID,
		ParticipantID: sess.Participants[0].ID,
		JoinCode:      sess.JoinCode,
	}, nil
}

// Join attaches the second participant to the session identified by code.
func (s *SurveyService) Join(ctx context.Context, code string, in ParticipantInput) (*JoinResult, error) {
	res, err := s.join(ctx, code, in)
	metrics.JoinAttempts.WithLabelValues(resultLabel(err)).Inc()
	return res, err
}

func (s *SurveyService) join(ctx context.Context, code string, in ParticipantInput) (*JoinResult, error) {
	code, err := NormJoinCode(code)
	if err != nil {
		return nil, err
	}
	in, err = in.Validate()
	if err != nil {
		return nil, err
	}

	sess, err := s.store.FindSessionByJoinCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, NewNotFoundError("invalid join code")
	}
	if len(sess.Participants) >= models.MaxParticipants {
		return nil, ErrSessionFull
	}
	if sess.Find(in.Role) != nil {
		return nil, NewRoleConflictError(string(in.Role))
	}

	// The store re-checks seat count and roles inside its transaction.
	updated, err := s.store.AddParticipant(ctx, sess.ID, toParticipant(in))
	if err != nil {
		return nil, err
	}
	joined := updated.Find(in.Role)
	if joined == nil {
		return nil, NewStoreError("add participant", errNoParticipant)
	}

	s.log.Info("participant joined survey session", "session_id", sess.ID, "role", in.Role)
	return &JoinResult{SessionID: sess.ID, ParticipantID: joined.ID}, nil
}

// LookupJoinCode returns the id of the session a join code belongs to.
func (s *SurveyService) LookupJoinCode(ctx context.Context, code string) (string, error) {
	code, err := NormJoinCode(code)
	if err != nil {
		return "", err
	}
	sess, err := s.store.FindSessionByJoinCode(ctx, code)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", NewNotFoundError("invalid join code")
	}
	return sess.ID, nil
}

// SubmitAnswers records a participant's answers and completion flag
// atomically. The submission that completes the last participant triggers
// the report pipeline and returns without waiting for it.
func (s *SurveyService) SubmitAnswers(ctx context.Context, sessionID, participantID string, answers []AnswerInput) error {
	err := s.submit(ctx, sessionID, participantID, answers)
	metrics.Submissions.WithLabelValues(resultLabel(err)).Inc()
	return err
}

func (s *SurveyService) submit(ctx context.Context, sessionID, participantID string, answers []AnswerInput) error {
	sessionID = strings.TrimSpace(sessionID)
	participantID = strings.TrimSpace(participantID)
	if sessionID == "" || participantID == "" {
		return NewInvalidError("session id and participant id are required")
	}
	answers, err := normalizeAnswers(answers)
	if err != nil {
		return err
	}

	rows := make([]models.Answer, len(answers))
	for i, a := range answers {
		rows[i] = models.Answer{QuestionID: a.QuestionID, Value: a.Answer}
	}
	out, err := s.store.RecordAnswersAndComplete(ctx, sessionID, participantID, rows)
	if err != nil {
		return err
	}

	log := s.log.With("session_id", sessionID, "participant_id", participantID)
	if !out.Completed {
		log.Info("participant already completed, submission ignored")
		return nil
	}
	log.Info("answers recorded", "answers", len(rows))

	if out.AllCompleted {
		log.Info("all participants completed, triggering report generation")
		s.trigger.Trigger(sessionID)
	}
	return nil
}

// Report returns the session status and, once COMPLETED, the report content.
func (s *SurveyService) Report(ctx context.Context, sessionID string) (*ReportStatus, error) {
	sess, err := s.store.GetSessionWithReport(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, NewNotFoundError("survey session not found")
	}
	out := &ReportStatus{Status: sess.Status}
	if sess.Status == models.StatusCompleted && sess.Report != nil {
		out.Report = json.RawMessage(sess.Report.Content)
	}
	return out, nil
}

func toParticipant(in ParticipantInput) *models.Participant {
	return &models.Participant{Name: in.Name, Age: in.Age, Gender: in.Gender, Role: in.Role}
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if se, ok := AsServiceError(err); ok {
		return string(se.Code)
	}
	return "error"
}
