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

// RoastService handles asynchronous roast requests, the slower path next to
// the live queue: an applicant asks a specific roaster, who later accepts,
// declines, or lets the request expire.
type RoastService struct {
	meetings repository.MeetingRepository
	profiles repository.ProfileRepository
	limits   *RequestLimitService
	rooms    meet.Provider
	mail     email.Sender
}

func NewRoastService(
	meetings repository.MeetingRepository,
	profiles repository.ProfileRepository,
	limits *RequestLimitService,
	rooms meet.Provider,
	mail email.Sender,
) *RoastService {
	return &RoastService{
		meetings: meetings,
		profiles: profiles,
		limits:   limits,
		rooms:    rooms,
		mail:     mail,
	}
}

// CreateRequest files a roast request against a specific reviewer, subject
// to the daily budget, cooldown, and one-request-per-roaster rules.
func (s *RoastService) CreateRequest(ctx context.Context, applicantID, reviewerID string, roastType model.RoastType) (*model.Meeting, error) {
	if !roastType.Valid() {
		return nil, apperrors.InvalidInput("roastType", "must be application, pitch, or idea")
	}
	if applicantID == reviewerID {
		return nil, apperrors.InvalidInput("reviewerId", "cannot request a roast from yourself")
	}

	if err := s.limits.CanRequest(ctx, applicantID); err != nil {
		return nil, err
	}

	requested, err := s.limits.HasRequested(ctx, applicantID, reviewerID)
	if err != nil {
		return nil, err
	}
	if requested {
		return nil, apperrors.Conflict("You already requested this roaster")
	}

	reviewer, err := s.profiles.FindByID(ctx, reviewerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if reviewer == nil {
		return nil, apperrors.NotFound("Roaster")
	}

	meeting, err := s.meetings.Create(ctx, model.CreateMeetingParams{
		ApplicantID: applicantID,
		ReviewerID:  reviewerID,
		RoastType:   roastType,
		Status:      model.MeetingStatusRequested,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	if err := s.limits.RecordRequest(ctx, applicantID, reviewerID); err != nil {
		log.Error().Err(err).Str("applicantId", applicantID).Msg("failed to record request against limit")
	}

	s.notifyNewRequest(ctx, reviewer, applicantID, roastType)

	log.Info().
		Str("meetingId", meeting.ID).
		Str("applicantId", applicantID).
		Str("reviewerId", reviewerID).
		Str("roastType", string(roastType)).
		Msg("roast request created")

	return meeting, nil
}

func (s *RoastService) notifyNewRequest(ctx context.Context, reviewer *model.Profile, applicantID string, roastType model.RoastType) {
	if reviewer.Email == nil {
		return
	}
	applicant, err := s.profiles.FindByID(ctx, applicantID)
	if err != nil || applicant == nil {
		log.Warn().Err(err).Str("applicantId", applicantID).Msg("new-request email skipped, applicant lookup failed")
		return
	}
	company := ""
	if applicant.Company != nil {
		company = *applicant.Company
	}
	msg := email.NewRequest(*reviewer.Email, reviewer.DisplayName(""), applicant.DisplayName("A founder"), company, roastType.Label())
	if err := s.mail.Send(ctx, msg); err != nil {
		log.Warn().Err(err).Str("reviewerId", reviewer.ID).Msg("new-request email failed")
	}
}

// AcceptRequest lets the reviewer take a pending request: a room is
// provisioned and the meeting moves to accepted with a 24 hour expiry.
func (s *RoastService) AcceptRequest(ctx context.Context, meetingID, reviewerID string) (*model.Meeting, error) {
	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if meeting == nil || meeting.ReviewerID != reviewerID {
		return nil, apperrors.NotFound("Meeting")
	}
	if meeting.Status != model.MeetingStatusRequested {
		return nil, apperrors.Conflict("Meeting is no longer pending")
	}

	link, err := s.rooms.CreateRoom(ctx)
	if err != nil {
		monitoring.RecordMeetingLink("error")
		return nil, apperrors.MeetingCreationFailed(err)
	}
	monitoring.RecordMeetingLink("ok")

	now := time.Now()
	ok, err := s.meetings.MarkAccepted(ctx, meetingID, link, now, now.Add(config.MeetingExpiry))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if !ok {
		return nil, apperrors.Conflict("Meeting is no longer pending")
	}

	updated, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil || updated == nil {
		expiresAt := now.Add(config.MeetingExpiry)
		meeting.Status = model.MeetingStatusAccepted
		meeting.MeetingLink = &link
		meeting.AcceptedAt = &now
		meeting.ExpiresAt = &expiresAt
		updated = meeting
	}

	s.notifyAccepted(ctx, updated, link)

	log.Info().Str("meetingId", meetingID).Str("reviewerId", reviewerID).Msg("roast request accepted")
	return updated, nil
}

// notifyAccepted emails both sides the room link. Best-effort.
func (s *RoastService) notifyAccepted(ctx context.Context, meeting *model.Meeting, link string) {
	applicant, aerr := s.profiles.FindByID(ctx, meeting.ApplicantID)
	reviewer, rerr := s.profiles.FindByID(ctx, meeting.ReviewerID)
	if aerr != nil || rerr != nil || applicant == nil || reviewer == nil {
		log.Warn().Str("meetingId", meeting.ID).Msg("confirmation emails skipped, profile lookup failed")
		return
	}
	label := meeting.RoastType.Label()
	if applicant.Email != nil {
		msg := email.Confirmation(*applicant.Email, applicant.DisplayName(""), reviewer.DisplayName("your roaster"), link, label)
		if err := s.mail.Send(ctx, msg); err != nil {
			log.Warn().Err(err).Str("meetingId", meeting.ID).Msg("applicant confirmation email failed")
		}
	}
	if reviewer.Email != nil {
		msg := email.Confirmation(*reviewer.Email, reviewer.DisplayName(""), applicant.DisplayName("the founder"), link, label)
		if err := s.mail.Send(ctx, msg); err != nil {
			log.Warn().Err(err).Str("meetingId", meeting.ID).Msg("reviewer confirmation email failed")
		}
	}
}

// CompleteMeeting closes out a held meeting and credits both participants'
// roast counts.
func (s *RoastService) CompleteMeeting(ctx context.Context, meetingID string) error {
	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return apperrors.Database(err)
	}
	if meeting == nil {
		return apperrors.NotFound("Meeting")
	}

	ok, err := s.meetings.MarkCompleted(ctx, meetingID, time.Now())
	if err != nil {
		return apperrors.Database(err)
	}
	if !ok {
		return apperrors.Conflict("Meeting cannot be completed from its current state")
	}

	for _, id := range []string{meeting.ReviewerID, meeting.ApplicantID} {
		if err := s.profiles.IncrementRoastCount(ctx, id); err != nil {
			log.Error().Err(err).Str("profileId", id).Msg("failed to bump roast count")
		}
	}

	log.Info().Str("meetingId", meetingID).Msg("meeting completed")
	return nil
}

// DeclineRequest cancels a pending request and starts the applicant's
// cooldown.
func (s *RoastService) DeclineRequest(ctx context.Context, meetingID, reviewerID string) error {
	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return apperrors.Database(err)
	}
	if meeting == nil || meeting.ReviewerID != reviewerID {
		return apperrors.NotFound("Meeting")
	}

	if err := s.meetings.MarkCancelled(ctx, meetingID); err != nil {
		return apperrors.Database(err)
	}

	if err := s.limits.RecordRejection(ctx, meeting.ApplicantID); err != nil {
		log.Error().Err(err).Str("applicantId", meeting.ApplicantID).Msg("failed to start rejection cooldown")
	}

	log.Info().Str("meetingId", meetingID).Str("reviewerId", reviewerID).Msg("roast request declined")
	return nil
}

// ExpireOverdue marks accepted meetings past their expiry window as
// expired. Invoked by the sweeper.
func (s *RoastService) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.meetings.ExpireOverdue(ctx, time.Now())
	if err != nil {
		return 0, apperrors.Database(err)
	}
	if n > 0 {
		log.Info().Int64("expired", n).Msg("expired overdue meetings")
	}
	return n, nil
}
