// Package handlers serves the survey JSON API.
package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/lojf/pairsurvey/internal/services"
)

// Survey is the orchestrator surface the handlers call.
type Survey interface {
	Initiate(ctx context.Context, in services.ParticipantInput) (*services.InitiateResult, error)
	Join(ctx context.Context, code string, in services.ParticipantInput) (*services.JoinResult, error)
	SubmitAnswers(ctx context.Context, sessionID, participantID string, answers []services.AnswerInput) error
	Report(ctx context.Context, sessionID string) (*services.ReportStatus, error)
	LookupJoinCode(ctx context.Context, code string) (string, error)
}

// PingFunc reports whether a backing dependency is reachable.
type PingFunc func(ctx context.Context) error

type Handlers struct {
	survey Survey
	ping   PingFunc
	log    *slog.Logger
	now    func() time.Time
}

// New wires the handlers; ping may be nil.
func New(survey Survey, ping PingFunc, log *slog.Logger) *Handlers {
	if log == nil {
		log = slog.Default()
	}
	return &Handlers{survey: survey, ping: ping, log: log.With("component", "http"), now: time.Now}
}
