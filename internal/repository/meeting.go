package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/myc-roast/server-go/internal/model"
)

type MeetingRepository interface {
	FindByID(ctx context.Context, id string) (*model.Meeting, error)
	FindRequestedByReviewer(ctx context.Context, reviewerID string) ([]model.Meeting, error)
	Create(ctx context.Context, params model.CreateMeetingParams) (*model.Meeting, error)
	// MarkAccepted attaches the link to a pending request. Guarded on
	// status so accepting twice fails cleanly.
	MarkAccepted(ctx context.Context, id, meetingLink string, acceptedAt, expiresAt time.Time) (bool, error)
	MarkCompleted(ctx context.Context, id string, now time.Time) (bool, error)
	MarkCancelled(ctx context.Context, id string) error
	// ExpireOverdue flips accepted meetings whose expiry has passed.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) MeetingRepository
}

type meetingRepo struct {
	db sessionDB
}

func NewMeetingRepository(db *sqlx.DB) MeetingRepository {
	return &meetingRepo{db: db}
}

func (r *meetingRepo) WithTx(tx *sqlx.Tx) MeetingRepository {
	return &meetingRepo{db: tx}
}

func (r *meetingRepo) FindByID(ctx context.Context, id string) (*model.Meeting, error) {
	var meeting model.Meeting
	err := r.db.GetContext(ctx, &meeting, `
		SELECT * FROM meetings WHERE id = $1
	`, id)
	return HandleNotFound(&meeting, err)
}

func (r *meetingRepo) FindRequestedByReviewer(ctx context.Context, reviewerID string) ([]model.Meeting, error) {
	var meetings []model.Meeting
	err := r.db.SelectContext(ctx, &meetings, `
		SELECT * FROM meetings
		WHERE reviewer_id = $1 AND status = 'requested'
		ORDER BY requested_at DESC
	`, reviewerID)
	if err != nil {
		return nil, err
	}
	return meetings, nil
}

func (r *meetingRepo) Create(ctx context.Context, params model.CreateMeetingParams) (*model.Meeting, error) {
	var meeting model.Meeting
	err := r.db.GetContext(ctx, &meeting, `
		INSERT INTO meetings (
			applicant_id, reviewer_id, roast_type, status, meeting_link,
			requested_at, accepted_at, expires_at, scheduled_for
		)
		VALUES ($1, $2, $3, $4, $5, NOW(), $6, $7, $8)
		RETURNING *
	`, params.ApplicantID, params.ReviewerID, params.RoastType, params.Status,
		params.MeetingLink, params.AcceptedAt, params.ExpiresAt, params.ScheduledFor)
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (r *meetingRepo) MarkAccepted(ctx context.Context, id, meetingLink string, acceptedAt, expiresAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE meetings SET
			status = 'accepted',
			meeting_link = $2,
			accepted_at = $3,
			expires_at = $4,
			updated_at = $3
		WHERE id = $1 AND status = 'requested'
	`, id, meetingLink, acceptedAt, expiresAt)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *meetingRepo) MarkCompleted(ctx context.Context, id string, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE meetings SET
			status = 'completed',
			completed_at = $2,
			updated_at = $2
		WHERE id = $1 AND status IN ('requested', 'accepted')
	`, id, now)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *meetingRepo) MarkCancelled(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE meetings SET
			status = 'cancelled',
			updated_at = NOW()
		WHERE id = $1 AND status IN ('requested', 'accepted')
	`, id)
	return err
}

func (r *meetingRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE meetings SET
			status = 'expired',
			updated_at = $1
		WHERE status = 'accepted' AND expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
