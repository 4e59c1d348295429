package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/myc-roast/server-go/internal/config"
	"github.com/myc-roast/server-go/internal/email"
	apperrors "github.com/myc-roast/server-go/internal/errors"
	"github.com/myc-roast/server-go/internal/meet"
	"github.com/myc-roast/server-go/internal/model"
	"github.com/myc-roast/server-go/internal/monitoring"
	"github.com/myc-roast/server-go/internal/repository"
)

// QueueService drives the live queue state machine. Every transition is a
// status-guarded write so concurrent callers and retries resolve to exactly
// one winner; the capacity counter only moves when a row actually flipped.
type QueueService struct {
	sessions repository.LiveSessionRepository
	entries  repository.QueueEntryRepository
	meetings repository.MeetingRepository
	profiles repository.ProfileRepository
	rooms    meet.Provider
	mail     email.Sender
}

func NewQueueService(
	sessions repository.LiveSessionRepository,
	entries repository.QueueEntryRepository,
	meetings repository.MeetingRepository,
	profiles repository.ProfileRepository,
	rooms meet.Provider,
	mail email.Sender,
) *QueueService {
	return &QueueService{
		sessions: sessions,
		entries:  entries,
		meetings: meetings,
		profiles: profiles,
		rooms:    rooms,
		mail:     mail,
	}
}

// JoinResult is what an applicant gets back after a successful join.
type JoinResult struct {
	Entry    *model.QueueEntry `json:"entry"`
	Position int               `json:"position"`
}

// AdvanceResult is the reviewer's view after pulling the next applicant.
type AdvanceResult struct {
	Entry       *model.QueueEntry `json:"entry"`
	Meeting     *model.Meeting    `json:"meeting"`
	MeetingLink string            `json:"meetingLink"`
}

// PositionResult reports an applicant's live rank in a session's queue.
type PositionResult struct {
	Entry    *model.QueueEntry `json:"entry"`
	Position int               `json:"position"`
}

// JoinQueue admits an applicant into a session's queue. Admission itself is
// a single conditional counter increment against the session row, so two
// racing joins for the last slot cannot both win.
func (s *QueueService) JoinQueue(ctx context.Context, sessionID, applicantID string) (*JoinResult, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Live session")
	}

	now := time.Now()
	if !session.AcceptingJoins(now) {
		return nil, apperrors.SessionInactive()
	}

	// A visibly full queue is reported before the duplicate check; the
	// conditional increment below still decides admission under race.
	if session.CurrentQueueSize >= session.MaxQueueSize {
		monitoring.RecordQueueOperation("join", "rejected")
		return nil, apperrors.QueueFull()
	}

	existing, err := s.entries.FindActiveByApplicant(ctx, sessionID, applicantID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		return nil, apperrors.AlreadyQueued()
	}

	admitted, err := s.sessions.TryIncrementQueueSize(ctx, sessionID, now)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if !admitted {
		// Lost the race. Re-read to tell a full queue apart from a
		// session that closed under us.
		current, err := s.sessions.FindByID(ctx, sessionID)
		if err == nil && current != nil && !current.AcceptingJoins(time.Now()) {
			return nil, apperrors.SessionInactive()
		}
		monitoring.RecordQueueOperation("join", "rejected")
		return nil, apperrors.QueueFull()
	}

	entry, err := s.entries.Create(ctx, model.CreateQueueEntryParams{
		LiveSessionID: sessionID,
		ApplicantID:   applicantID,
	})
	if err != nil {
		// Give the admission slot back before reporting the failure.
		if derr := s.sessions.DecrementQueueSize(ctx, sessionID, 1); derr != nil {
			log.Error().Err(derr).Str("sessionId", sessionID).
				Msg("failed to release admission slot after entry insert failure")
		}
		return nil, apperrors.Database(err)
	}

	position := entry.Position
	ahead, err := s.entries.CountActiveAhead(ctx, sessionID, entry.Position)
	if err != nil {
		log.Warn().Err(err).Str("entryId", entry.ID).Msg("rank lookup failed, reporting raw position")
	} else {
		position = ahead + 1
	}

	monitoring.RecordQueueOperation("join", "ok")
	log.Info().
		Str("sessionId", sessionID).
		Str("applicantId", applicantID).
		Str("entryId", entry.ID).
		Int("position", position).
		Msg("applicant joined queue")

	return &JoinResult{Entry: entry, Position: position}, nil
}

// AdvanceQueue pulls the next waiting entry, provisions a meeting room, and
// hands the applicant their turn. The conditional waiting -> your_turn
// update is the write that activates the meeting; if it loses a race the
// meeting is cancelled and the caller should retry.
func (s *QueueService) AdvanceQueue(ctx context.Context, sessionID, reviewerID string) (*AdvanceResult, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil || session.ReviewerID != reviewerID {
		return nil, apperrors.NotFound("Live session")
	}

	next, err := s.entries.NextWaiting(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if next == nil {
		return nil, apperrors.EmptyQueue()
	}

	link, err := s.rooms.CreateRoom(ctx)
	if err != nil {
		monitoring.RecordMeetingLink("error")
		return nil, apperrors.MeetingCreationFailed(err)
	}
	monitoring.RecordMeetingLink("ok")

	now := time.Now()
	expiresAt := now.Add(config.MeetingExpiry)
	meeting, err := s.meetings.Create(ctx, model.CreateMeetingParams{
		ApplicantID:  next.ApplicantID,
		ReviewerID:   reviewerID,
		RoastType:    model.RoastTypePitch,
		Status:       model.MeetingStatusAccepted,
		MeetingLink:  &link,
		AcceptedAt:   &now,
		ExpiresAt:    &expiresAt,
		ScheduledFor: &now,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	activated, err := s.entries.MarkYourTurn(ctx, next.ID, meeting.ID, now)
	if err != nil || !activated {
		// Orphaned meeting, nobody will show up. Best effort cleanup.
		if cerr := s.meetings.MarkCancelled(ctx, meeting.ID); cerr != nil {
			log.Warn().Err(cerr).Str("meetingId", meeting.ID).Msg("failed to cancel orphaned meeting")
		}
		if err != nil {
			return nil, apperrors.Database(err)
		}
		monitoring.RecordQueueOperation("advance", "conflict")
		return nil, apperrors.Conflict("Queue entry is no longer waiting")
	}

	updated, err := s.entries.FindByID(ctx, next.ID)
	if err != nil || updated == nil {
		// Fall back to what we know; the transition already committed.
		next.Status = model.EntryStatusYourTurn
		next.MeetingID = &meeting.ID
		next.NotifiedAt = &now
		updated = next
	}

	s.notifyYourTurn(ctx, updated.ApplicantID, link)

	monitoring.RecordQueueOperation("advance", "ok")
	log.Info().
		Str("sessionId", sessionID).
		Str("entryId", updated.ID).
		Str("meetingId", meeting.ID).
		Msg("queue advanced")

	return &AdvanceResult{Entry: updated, Meeting: meeting, MeetingLink: link}, nil
}

// notifyYourTurn emails the applicant their room link. Best-effort; a mail
// failure never rolls back the turn.
func (s *QueueService) notifyYourTurn(ctx context.Context, applicantID, link string) {
	applicant, err := s.profiles.FindByID(ctx, applicantID)
	if err != nil || applicant == nil || applicant.Email == nil {
		log.Warn().Err(err).Str("applicantId", applicantID).Msg("your-turn email skipped, no address")
		return
	}
	msg := email.YourTurn(*applicant.Email, applicant.DisplayName(""), link)
	if err := s.mail.Send(ctx, msg); err != nil {
		log.Warn().Err(err).Str("applicantId", applicantID).Msg("your-turn email failed")
	}
}

// ConfirmJoin records that the applicant actually entered the room,
// stopping the two minute turn timer.
func (s *QueueService) ConfirmJoin(ctx context.Context, entryID, applicantID string) error {
	ok, err := s.entries.MarkJoined(ctx, entryID, applicantID, time.Now())
	if err != nil {
		return apperrors.Database(err)
	}
	if !ok {
		return apperrors.NotFound("Queue entry")
	}
	monitoring.RecordQueueOperation("confirm", "ok")
	return nil
}

// CompleteEntry finishes a turn and frees its capacity slot. Valid from
// your_turn as well as joined, since an applicant may be mid-call without
// ever confirming.
func (s *QueueService) CompleteEntry(ctx context.Context, entryID string) error {
	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		return apperrors.Database(err)
	}
	if entry == nil {
		return apperrors.NotFound("Queue entry")
	}

	ok, err := s.entries.MarkCompleted(ctx, entryID, time.Now())
	if err != nil {
		return apperrors.Database(err)
	}
	if !ok {
		return apperrors.Conflict("Queue entry cannot be completed from its current state")
	}

	if err := s.sessions.DecrementQueueSize(ctx, entry.LiveSessionID, 1); err != nil {
		log.Error().Err(err).Str("entryId", entryID).Msg("failed to release slot after completion")
	}

	monitoring.RecordQueueOperation("complete", "ok")
	log.Info().Str("entryId", entryID).Msg("queue entry completed")
	return nil
}

// SkipEntry lets the session's reviewer drop a waiting or stalled entry.
// Racing with the expiry sweep is fine: whichever write lands first wins
// and the other is a no-op.
func (s *QueueService) SkipEntry(ctx context.Context, entryID, reviewerID string) error {
	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		return apperrors.Database(err)
	}
	if entry == nil {
		return apperrors.NotFound("Queue entry")
	}

	session, err := s.sessions.FindByID(ctx, entry.LiveSessionID)
	if err != nil {
		return apperrors.Database(err)
	}
	if session == nil {
		return apperrors.NotFound("Live session")
	}
	if session.ReviewerID != reviewerID {
		return apperrors.Unauthorized("You do not own this session")
	}

	ok, err := s.entries.MarkSkipped(ctx, entryID)
	if err != nil {
		return apperrors.Database(err)
	}
	if !ok {
		// Someone else already moved it out of an active state.
		return nil
	}

	if err := s.sessions.DecrementQueueSize(ctx, entry.LiveSessionID, 1); err != nil {
		log.Error().Err(err).Str("entryId", entryID).Msg("failed to release slot after skip")
	}

	monitoring.RecordQueueOperation("skip", "ok")
	log.Info().Str("entryId", entryID).Str("sessionId", entry.LiveSessionID).Msg("queue entry skipped")
	return nil
}

// AutoSkipExpired sweeps your_turn entries whose two minute window lapsed
// without the applicant joining, skipping each and releasing its slot.
// Returns how many entries were actually flipped.
func (s *QueueService) AutoSkipExpired(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-config.TurnTimeout)
	expired, err := s.entries.FindExpiredTurns(ctx, cutoff)
	if err != nil {
		return 0, apperrors.Database(err)
	}

	skipped := 0
	for _, e := range expired {
		ok, err := s.entries.MarkSkipped(ctx, e.ID)
		if err != nil {
			log.Error().Err(err).Str("entryId", e.ID).Msg("auto-skip failed")
			continue
		}
		if !ok {
			continue
		}
		if err := s.sessions.DecrementQueueSize(ctx, e.LiveSessionID, 1); err != nil {
			log.Error().Err(err).Str("entryId", e.ID).Msg("failed to release slot after auto-skip")
		}
		skipped++
	}

	if skipped > 0 {
		monitoring.RecordAutoSkipped(skipped)
		log.Info().Int("skipped", skipped).Msg("auto-skipped expired turns")
	}
	return skipped, nil
}

// GetQueuePosition reports the applicant's current rank, counting only
// entries still active ahead of theirs. Rank 1 means next up.
func (s *QueueService) GetQueuePosition(ctx context.Context, sessionID, applicantID string) (*PositionResult, error) {
	entry, err := s.entries.FindActiveByApplicant(ctx, sessionID, applicantID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if entry == nil {
		return nil, apperrors.NotInQueue()
	}

	ahead, err := s.entries.CountActiveAhead(ctx, sessionID, entry.Position)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &PositionResult{Entry: entry, Position: ahead + 1}, nil
}
