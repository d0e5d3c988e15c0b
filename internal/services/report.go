package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lojf/pairsurvey/internal/analysis"
	"github.com/lojf/pairsurvey/internal/metrics"
	"github.com/lojf/pairsurvey/internal/models"
)

// MaxAnalysisAttempts bounds the corrective retry loop.
const MaxAnalysisAttempts = 3

// failTimeout bounds the best-effort FAILED write after a fault.
const failTimeout = 10 * time.Second

// Spawner runs a task in the background; worker.Runner implements it.
type Spawner interface {
	Go(name string, task func(ctx context.Context)) bool
}

// ReportPipeline turns a completed session into a stored AI report. It is the
// only writer of the PROCESSING, COMPLETED and FAILED statuses.
type ReportPipeline struct {
	store    SessionStore
	analyzer analysis.Analyzer
	spawner  Spawner
	log      *slog.Logger
	now      func() time.Time
}

var _ ReportTrigger = (*ReportPipeline)(nil)

func NewReportPipeline(store SessionStore, analyzer analysis.Analyzer, spawner Spawner, log *slog.Logger) *ReportPipeline {
	if log == nil {
		log = slog.Default()
	}
	return &ReportPipeline{
		store:    store,
		analyzer: analyzer,
		spawner:  spawner,
		log:      log.With("component", "report"),
		now:      time.Now,
	}
}

// Trigger schedules Run for sessionID and returns immediately.
func (p *ReportPipeline) Trigger(sessionID string) {
	ok := p.spawner.Go("report:"+sessionID, func(ctx context.Context) {
		p.Run(ctx, sessionID)
	})
	if !ok {
		// Nothing re-triggers a rejected session.
		log := p.log.With("session_id", sessionID)
		log.Error("report generation not scheduled")
		p.markFailed(context.Background(), sessionID, log)
	}
}

// Run generates the report for sessionID. It never returns an error or
// panics; every failure ends with the session marked FAILED.
func (p *ReportPipeline) Run(ctx context.Context, sessionID string) {
	log := p.log.With("session_id", sessionID)
	start := p.now()
	metrics.PipelinesInFlight.Inc()
	defer metrics.PipelinesInFlight.Dec()

	status := models.StatusFailed
	defer func() {
		if r := recover(); r != nil {
			log.Error("report pipeline panicked", "panic", r)
			status = models.StatusFailed
			p.markFailed(ctx, sessionID, log)
		}
		metrics.PipelineRuns.WithLabelValues(string(status)).Inc()
		metrics.PipelineDuration.Observe(p.now().Sub(start).Seconds())
	}()

	log.Info("starting report generation")
	started, err := p.store.TransitionStatus(ctx, sessionID, models.StatusPending, models.StatusProcessing)
	if err != nil {
		log.Error("failed to mark session processing", "error", err)
		p.markFailed(ctx, sessionID, log)
		return
	}
	if !started {
		log.Warn("session is not pending, report generation skipped")
		status = "SKIPPED"
		return
	}

	if err := p.generate(ctx, sessionID, log); err != nil {
		log.Error("failed to generate report", "error", err)
		p.markFailed(ctx, sessionID, log)
		return
	}
	status = models.StatusCompleted
	log.Info("report generated and saved")
}

func (p *ReportPipeline) generate(ctx context.Context, sessionID string, log *slog.Logger) error {
	sess, err := p.store.GetSessionWithAnswers(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return NewNotFoundError("survey session not found")
	}
	if len(sess.Participants) < models.MaxParticipants {
		return NewIncompleteSessionError("session is not ready for report generation")
	}
	parent, child := sess.Find(models.RoleParent), sess.Find(models.RoleChild)
	if parent == nil || child == nil {
		return NewIncompleteSessionError("session must have one Parent and one Child")
	}
	if !sess.AllCompleted() {
		return NewIncompleteSessionError("not every participant has submitted answers")
	}

	prompt := BuildAnalysisPrompt(parent, child)
	var lastErr error
	for attempt := 1; attempt <= MaxAnalysisAttempts; attempt++ {
		log.Info("AI analysis attempt", "attempt", attempt, "max", MaxAnalysisAttempts)
		log.Debug("sending analysis prompt", "attempt", attempt, "prompt", prompt)

		raw, err := p.analyzer.Analyze(ctx, prompt)
		if err == nil {
			log.Debug("received analysis response", "attempt", attempt, "response", string(raw))
			err = ValidateReport(raw)
		}
		if err == nil {
			metrics.AnalysisAttempts.WithLabelValues("success").Inc()
			return p.store.CompleteWithReport(ctx, sessionID, raw)
		}

		metrics.AnalysisAttempts.WithLabelValues("failure").Inc()
		lastErr = err
		log.Warn("AI analysis attempt failed", "attempt", attempt, "error", err)
		if ctx.Err() != nil {
			return fmt.Errorf("analysis aborted: %w", ctx.Err())
		}
		if attempt < MaxAnalysisAttempts {
			prompt += CorrectivePrompt(err)
		}
	}
	return fmt.Errorf("AI analysis failed after %d attempts: %w", MaxAnalysisAttempts, lastErr)
}

// markFailed records FAILED even when ctx is already cancelled.
func (p *ReportPipeline) markFailed(ctx context.Context, sessionID string, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failTimeout)
	defer cancel()
	if err := p.store.UpdateSessionStatus(ctx, sessionID, models.StatusFailed); err != nil {
		log.Error("failed to mark session failed", "error", err)
	}
}
