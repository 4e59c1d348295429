package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/myc-roast/server-go/internal/config"
	"github.com/myc-roast/server-go/internal/database"
	"github.com/myc-roast/server-go/internal/email"
	apperrors "github.com/myc-roast/server-go/internal/errors"
	"github.com/myc-roast/server-go/internal/model"
	"github.com/myc-roast/server-go/internal/monitoring"
	"github.com/myc-roast/server-go/internal/repository"
)

// txRunner runs a function inside a database transaction. *database.DB
// satisfies it; tests substitute a pass-through.
type txRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

// LiveSessionService owns the reviewer-side session lifecycle: one active
// window per reviewer, fixed duration, and the capacity bookkeeping tied
// to it.
type LiveSessionService struct {
	tx       txRunner
	sessions repository.LiveSessionRepository
	entries  repository.QueueEntryRepository
	profiles repository.ProfileRepository
	mail     email.Sender
	opsEmail string
}

func NewLiveSessionService(
	tx txRunner,
	sessions repository.LiveSessionRepository,
	entries repository.QueueEntryRepository,
	profiles repository.ProfileRepository,
	mail email.Sender,
	opsEmail string,
) *LiveSessionService {
	return &LiveSessionService{
		tx:       tx,
		sessions: sessions,
		entries:  entries,
		profiles: profiles,
		mail:     mail,
		opsEmail: opsEmail,
	}
}

// GoLive opens a live session for the reviewer. The window length is fixed
// at creation; ends_at never moves afterwards.
func (s *LiveSessionService) GoLive(ctx context.Context, reviewerID string, durationMinutes int) (*model.LiveSession, error) {
	if durationMinutes < config.MinSessionDurationMinutes || durationMinutes > config.MaxSessionDurationMinutes {
		return nil, apperrors.InvalidInput("durationMinutes",
			"must be between 5 and 240")
	}

	existing, err := s.sessions.FindActiveByReviewer(ctx, reviewerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		return nil, apperrors.AlreadyLive()
	}

	session, err := s.sessions.Create(ctx, model.CreateLiveSessionParams{
		ReviewerID:   reviewerID,
		EndsAt:       time.Now().Add(time.Duration(durationMinutes) * time.Minute),
		MaxQueueSize: config.MaxQueueSize,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("reviewerId", reviewerID).
		Time("endsAt", session.EndsAt).
		Msg("live session started")

	s.notifyWentLive(ctx, reviewerID, durationMinutes)

	return session, nil
}

// notifyWentLive tells the ops mailbox a roaster is live. Best-effort.
func (s *LiveSessionService) notifyWentLive(ctx context.Context, reviewerID string, durationMinutes int) {
	if s.opsEmail == "" {
		return
	}

	reviewer, err := s.profiles.FindByID(ctx, reviewerID)
	if err != nil || reviewer == nil {
		log.Warn().Err(err).Str("reviewerId", reviewerID).Msg("went-live notification: reviewer lookup failed")
		return
	}

	company := ""
	if reviewer.Company != nil {
		company = *reviewer.Company
	}
	msg := email.WentLive(s.opsEmail, reviewer.DisplayName("Unknown"), company, durationMinutes)
	if err := s.mail.Send(ctx, msg); err != nil {
		log.Warn().Err(err).Msg("went-live notification failed")
	}
}

// EndSession flips the session to ended and flushes everyone still waiting
// or holding a turn to skipped. Entries already joined or completed are left
// alone so an in-flight conversation can still be marked complete.
func (s *LiveSessionService) EndSession(ctx context.Context, sessionID, reviewerID string) error {
	var flushed int64

	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		sessions := s.sessions.WithTx(tx)
		entries := s.entries.WithTx(tx)

		ended, err := sessions.MarkEnded(ctx, sessionID, reviewerID)
		if err != nil {
			return apperrors.Database(err)
		}
		if !ended {
			session, err := sessions.FindByID(ctx, sessionID)
			if err != nil {
				return apperrors.Database(err)
			}
			if session == nil {
				return apperrors.NotFound("Live session")
			}
			if session.ReviewerID != reviewerID {
				return apperrors.Unauthorized("You do not own this session")
			}
			// Already ended; treat the retry as a no-op.
			return nil
		}

		flushed, err = entries.SkipAllOpen(ctx, sessionID)
		if err != nil {
			return apperrors.Database(err)
		}
		if flushed > 0 {
			if err := sessions.DecrementQueueSize(ctx, sessionID, int(flushed)); err != nil {
				return apperrors.Database(err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("sessionId", sessionID).
		Str("reviewerId", reviewerID).
		Int64("flushed", flushed).
		Msg("live session ended")

	return nil
}

// GetCurrentSession returns the reviewer's active session, or nil. No row
// is a valid answer, not an error.
func (s *LiveSessionService) GetCurrentSession(ctx context.Context, reviewerID string) (*model.LiveSession, error) {
	session, err := s.sessions.FindActiveByReviewer(ctx, reviewerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return session, nil
}

// GetActiveRoasters lists the sessions applicants can queue for, with the
// reviewer profile attached where one still exists.
func (s *LiveSessionService) GetActiveRoasters(ctx context.Context) ([]model.LiveSessionView, error) {
	sessions, err := s.sessions.FindActive(ctx, time.Now())
	if err != nil {
		return nil, apperrors.Database(err)
	}

	monitoring.SetActiveSessions(len(sessions))

	ids := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		ids = append(ids, sess.ReviewerID)
	}
	reviewers, err := s.profiles.FindSummariesByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	views := make([]model.LiveSessionView, 0, len(sessions))
	for _, sess := range sessions {
		view := model.LiveSessionView{LiveSession: sess}
		if reviewer, ok := reviewers[sess.ReviewerID]; ok {
			r := reviewer
			view.Reviewer = &r
		}
		views = append(views, view)
	}
	return views, nil
}

// GetSessionQueue returns the active entries for a session in queue order,
// with applicant projections for the reviewer's dashboard.
func (s *LiveSessionService) GetSessionQueue(ctx context.Context, sessionID string) ([]model.QueueEntryView, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Live session")
	}

	entries, err := s.entries.FindActiveBySession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ApplicantID)
	}
	applicants, err := s.profiles.FindSummariesByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	views := make([]model.QueueEntryView, 0, len(entries))
	for _, e := range entries {
		view := model.QueueEntryView{QueueEntry: e}
		if applicant, ok := applicants[e.ApplicantID]; ok {
			a := applicant
			view.Applicant = &a
		}
		views = append(views, view)
	}
	return views, nil
}

// CloseExpired force-ends sessions whose window elapsed without an explicit
// end call, flushing their queues the same way EndSession does. Invoked by
// the sweeper.
func (s *LiveSessionService) CloseExpired(ctx context.Context) (int, error) {
	overdue, err := s.sessions.FindOverdueActive(ctx, time.Now())
	if err != nil {
		return 0, apperrors.Database(err)
	}

	closed := 0
	for _, sess := range overdue {
		if err := s.EndSession(ctx, sess.ID, sess.ReviewerID); err != nil {
			log.Error().Err(err).Str("sessionId", sess.ID).Msg("failed to close expired session")
			continue
		}
		closed++
	}
	return closed, nil
}
