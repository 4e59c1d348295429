package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/myc-roast/server-go/internal/model"
)

type LiveSessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.LiveSession, error)
	FindActiveByReviewer(ctx context.Context, reviewerID string) (*model.LiveSession, error)
	FindActive(ctx context.Context, now time.Time) ([]model.LiveSession, error)
	FindOverdueActive(ctx context.Context, now time.Time) ([]model.LiveSession, error)
	Create(ctx context.Context, params model.CreateLiveSessionParams) (*model.LiveSession, error)
	MarkEnded(ctx context.Context, id, reviewerID string) (bool, error)
	// TryIncrementQueueSize performs the admission check and the capacity
	// increment as one conditional update. It reports false when the session
	// is not active, past its window, or already at capacity.
	TryIncrementQueueSize(ctx context.Context, id string, now time.Time) (bool, error)
	// DecrementQueueSize reclaims capacity, floored at zero.
	DecrementQueueSize(ctx context.Context, id string, by int) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) LiveSessionRepository
}

// sessionDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type sessionDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type liveSessionRepo struct {
	db sessionDB
}

func NewLiveSessionRepository(db *sqlx.DB) LiveSessionRepository {
	return &liveSessionRepo{db: db}
}

func (r *liveSessionRepo) WithTx(tx *sqlx.Tx) LiveSessionRepository {
	return &liveSessionRepo{db: tx}
}

func (r *liveSessionRepo) FindByID(ctx context.Context, id string) (*model.LiveSession, error) {
	var session model.LiveSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM live_sessions WHERE id = $1
	`, id)
	return HandleNotFound(&session, err)
}

func (r *liveSessionRepo) FindActiveByReviewer(ctx context.Context, reviewerID string) (*model.LiveSession, error) {
	var session model.LiveSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM live_sessions
		WHERE reviewer_id = $1 AND status = 'active'
	`, reviewerID)
	return HandleNotFound(&session, err)
}

func (r *liveSessionRepo) FindActive(ctx context.Context, now time.Time) ([]model.LiveSession, error) {
	var sessions []model.LiveSession
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM live_sessions
		WHERE status = 'active' AND ends_at > $1
		ORDER BY created_at DESC
	`, now)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *liveSessionRepo) FindOverdueActive(ctx context.Context, now time.Time) ([]model.LiveSession, error) {
	var sessions []model.LiveSession
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM live_sessions
		WHERE status = 'active' AND ends_at <= $1
	`, now)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *liveSessionRepo) Create(ctx context.Context, params model.CreateLiveSessionParams) (*model.LiveSession, error) {
	var session model.LiveSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO live_sessions (reviewer_id, status, max_queue_size, current_queue_size, starts_at, ends_at)
		VALUES ($1, 'active', $2, 0, NOW(), $3)
		RETURNING *
	`, params.ReviewerID, params.MaxQueueSize, params.EndsAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *liveSessionRepo) MarkEnded(ctx context.Context, id, reviewerID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE live_sessions SET
			status = 'ended',
			updated_at = NOW()
		WHERE id = $1 AND reviewer_id = $2 AND status IN ('active', 'paused')
	`, id, reviewerID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *liveSessionRepo) TryIncrementQueueSize(ctx context.Context, id string, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE live_sessions SET
			current_queue_size = current_queue_size + 1,
			updated_at = NOW()
		WHERE id = $1
		AND status = 'active'
		AND ends_at > $2
		AND current_queue_size < max_queue_size
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

func (r *liveSessionRepo) DecrementQueueSize(ctx context.Context, id string, by int) error {
	if by <= 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE live_sessions SET
			current_queue_size = GREATEST(current_queue_size - $2, 0),
			updated_at = NOW()
		WHERE id = $1
	`, id, by)
	return err
}
