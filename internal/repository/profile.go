package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/myc-roast/server-go/internal/model"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*model.Profile, error)
	// FindSummariesByIDs returns the read projection for a batch of ids,
	// keyed by id. Missing profiles are simply absent from the map.
	FindSummariesByIDs(ctx context.Context, ids []string) (map[string]model.ProfileSummary, error)
	IncrementRoastCount(ctx context.Context, id string) error
	FindFeatured(ctx context.Context, now time.Time) (*model.Profile, error)
	// FindFeatureCandidate picks the next reviewer to feature: available,
	// not featured in the last week, most roasts first.
	FindFeatureCandidate(ctx context.Context, notFeaturedSince time.Time) (*model.Profile, error)
	MarkFeatured(ctx context.Context, id string, until, now time.Time) error
	FindAvailableByIndustry(ctx context.Context, industry string, limit int) ([]model.Profile, error)
	FindAvailableReviewers(ctx context.Context, limit int) ([]model.Profile, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) ProfileRepository
}

type profileRepo struct {
	db sessionDB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) WithTx(tx *sqlx.Tx) ProfileRepository {
	return &profileRepo{db: tx}
}

func (r *profileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `
		SELECT * FROM profiles WHERE id = $1
	`, id)
	return HandleNotFound(&profile, err)
}

func (r *profileRepo) FindSummariesByIDs(ctx context.Context, ids []string) (map[string]model.ProfileSummary, error) {
	if len(ids) == 0 {
		return map[string]model.ProfileSummary{}, nil
	}

	var summaries []model.ProfileSummary
	err := r.db.SelectContext(ctx, &summaries, `
		SELECT id, name, company, industry, yc_batch, roast_count
		FROM profiles
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.ProfileSummary, len(summaries))
	for _, s := range summaries {
		byID[s.ID] = s
	}
	return byID, nil
}

func (r *profileRepo) IncrementRoastCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET roast_count = roast_count + 1 WHERE id = $1
	`, id)
	return err
}

func (r *profileRepo) FindFeatured(ctx context.Context, now time.Time) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `
		SELECT * FROM profiles
		WHERE role = 'reviewer'
		AND is_available = TRUE
		AND featured_until > $1
		LIMIT 1
	`, now)
	return HandleNotFound(&profile, err)
}

func (r *profileRepo) FindFeatureCandidate(ctx context.Context, notFeaturedSince time.Time) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `
		SELECT * FROM profiles
		WHERE role = 'reviewer'
		AND is_available = TRUE
		AND (last_featured IS NULL OR last_featured < $1)
		ORDER BY roast_count DESC
		LIMIT 1
	`, notFeaturedSince)
	return HandleNotFound(&profile, err)
}

func (r *profileRepo) MarkFeatured(ctx context.Context, id string, until, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET
			featured_until = $2,
			last_featured = $3
		WHERE id = $1
	`, id, until, now)
	return err
}

func (r *profileRepo) FindAvailableByIndustry(ctx context.Context, industry string, limit int) ([]model.Profile, error) {
	var profiles []model.Profile
	err := r.db.SelectContext(ctx, &profiles, `
		SELECT * FROM profiles
		WHERE role = 'reviewer'
		AND is_available = TRUE
		AND industry = $1
		ORDER BY roast_count DESC
		LIMIT $2
	`, industry, limit)
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *profileRepo) FindAvailableReviewers(ctx context.Context, limit int) ([]model.Profile, error) {
	var profiles []model.Profile
	err := r.db.SelectContext(ctx, &profiles, `
		SELECT * FROM profiles
		WHERE role = 'reviewer'
		AND is_available = TRUE
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return profiles, nil
}
