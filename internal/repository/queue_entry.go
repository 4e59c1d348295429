package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/myc-roast/server-go/internal/model"
)

type QueueEntryRepository interface {
	FindByID(ctx context.Context, id string) (*model.QueueEntry, error)
	FindActiveByApplicant(ctx context.Context, sessionID, applicantID string) (*model.QueueEntry, error)
	FindActiveBySession(ctx context.Context, sessionID string) ([]model.QueueEntry, error)
	// NextWaiting returns the waiting entry with the lowest position, or nil.
	NextWaiting(ctx context.Context, sessionID string) (*model.QueueEntry, error)
	// Create inserts an entry with the next position for the session.
	// Positions only ever grow; they are never reused after a removal.
	Create(ctx context.Context, params model.CreateQueueEntryParams) (*model.QueueEntry, error)
	// The Mark* transitions are guarded on current status so a racing sweep,
	// manual skip, or double fire is a no-op reported as false.
	MarkYourTurn(ctx context.Context, id, meetingID string, now time.Time) (bool, error)
	MarkJoined(ctx context.Context, id, applicantID string, now time.Time) (bool, error)
	MarkCompleted(ctx context.Context, id string, now time.Time) (bool, error)
	MarkSkipped(ctx context.Context, id string) (bool, error)
	// SkipAllOpen flushes every waiting/your_turn entry for a session and
	// returns how many rows flipped.
	SkipAllOpen(ctx context.Context, sessionID string) (int64, error)
	FindExpiredTurns(ctx context.Context, cutoff time.Time) ([]model.QueueEntry, error)
	// CountActiveAhead counts active entries with a strictly smaller
	// position, which is how display rank is derived.
	CountActiveAhead(ctx context.Context, sessionID string, position int) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) QueueEntryRepository
}

type queueEntryRepo struct {
	db sessionDB
}

func NewQueueEntryRepository(db *sqlx.DB) QueueEntryRepository {
	return &queueEntryRepo{db: db}
}

func (r *queueEntryRepo) WithTx(tx *sqlx.Tx) QueueEntryRepository {
	return &queueEntryRepo{db: tx}
}

func (r *queueEntryRepo) FindByID(ctx context.Context, id string) (*model.QueueEntry, error) {
	var entry model.QueueEntry
	err := r.db.GetContext(ctx, &entry, `
		SELECT * FROM queue_entries WHERE id = $1
	`, id)
	return HandleNotFound(&entry, err)
}

func (r *queueEntryRepo) FindActiveByApplicant(ctx context.Context, sessionID, applicantID string) (*model.QueueEntry, error) {
	var entry model.QueueEntry
	err := r.db.GetContext(ctx, &entry, `
		SELECT * FROM queue_entries
		WHERE live_session_id = $1
		AND applicant_id = $2
		AND status IN ('waiting', 'your_turn', 'joined')
	`, sessionID, applicantID)
	return HandleNotFound(&entry, err)
}

func (r *queueEntryRepo) FindActiveBySession(ctx context.Context, sessionID string) ([]model.QueueEntry, error) {
	var entries []model.QueueEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM queue_entries
		WHERE live_session_id = $1
		AND status IN ('waiting', 'your_turn', 'joined')
		ORDER BY position ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *queueEntryRepo) NextWaiting(ctx context.Context, sessionID string) (*model.QueueEntry, error) {
	var entry model.QueueEntry
	err := r.db.GetContext(ctx, &entry, `
		SELECT * FROM queue_entries
		WHERE live_session_id = $1 AND status = 'waiting'
		ORDER BY position ASC
		LIMIT 1
	`, sessionID)
	return HandleNotFound(&entry, err)
}

func (r *queueEntryRepo) Create(ctx context.Context, params model.CreateQueueEntryParams) (*model.QueueEntry, error) {
	var entry model.QueueEntry
	err := r.db.GetContext(ctx, &entry, `
		INSERT INTO queue_entries (live_session_id, applicant_id, position, status)
		SELECT $1, $2, COALESCE(MAX(position), 0) + 1, 'waiting'
		FROM queue_entries
		WHERE live_session_id = $1
		RETURNING *
	`, params.LiveSessionID, params.ApplicantID)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *queueEntryRepo) MarkYourTurn(ctx context.Context, id, meetingID string, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE queue_entries SET
			status = 'your_turn',
			meeting_id = $2,
			notified_at = $3,
			updated_at = $3
		WHERE id = $1 AND status = 'waiting'
	`, id, meetingID, now)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *queueEntryRepo) MarkJoined(ctx context.Context, id, applicantID string, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE queue_entries SET
			status = 'joined',
			joined_at = $3,
			updated_at = $3
		WHERE id = $1 AND applicant_id = $2 AND status = 'your_turn'
	`, id, applicantID, now)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *queueEntryRepo) MarkCompleted(ctx context.Context, id string, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE queue_entries SET
			status = 'completed',
			completed_at = $2,
			updated_at = $2
		WHERE id = $1 AND status IN ('your_turn', 'joined')
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

func (r *queueEntryRepo) MarkSkipped(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE queue_entries SET
			status = 'skipped',
			updated_at = NOW()
		WHERE id = $1 AND status IN ('waiting', 'your_turn')
	`, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *queueEntryRepo) SkipAllOpen(ctx context.Context, sessionID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE queue_entries SET
			status = 'skipped',
			updated_at = NOW()
		WHERE live_session_id = $1 AND status IN ('waiting', 'your_turn')
	`, sessionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *queueEntryRepo) FindExpiredTurns(ctx context.Context, cutoff time.Time) ([]model.QueueEntry, error) {
	var entries []model.QueueEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM queue_entries
		WHERE status = 'your_turn' AND notified_at < $1
	`, cutoff)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *queueEntryRepo) CountActiveAhead(ctx context.Context, sessionID string, position int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM queue_entries
		WHERE live_session_id = $1
		AND status IN ('waiting', 'your_turn', 'joined')
		AND position < $2
	`, sessionID, position)
	if err != nil {
		return 0, err
	}
	return count, nil
}
