package model

import (
	"time"
)

type Profile struct {
	ID            string     `db:"id" json:"id"`
	Role          Role       `db:"role" json:"role"`
	Industry      *string    `db:"industry" json:"industry,omitempty"`
	QuickContext  *string    `db:"quick_context" json:"quickContext,omitempty"`
	RoastCount    int        `db:"roast_count" json:"roastCount"`
	IsAvailable   bool       `db:"is_available" json:"isAvailable"`
	Email         *string    `db:"email" json:"email,omitempty"`
	Name          *string    `db:"name" json:"name,omitempty"`
	Company       *string    `db:"company" json:"company,omitempty"`
	YCBatch       *string    `db:"yc_batch" json:"ycBatch,omitempty"`
	FeaturedUntil *time.Time `db:"featured_until" json:"featuredUntil,omitempty"`
	LastFeatured  *time.Time `db:"last_featured" json:"lastFeatured,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
}

// DisplayName falls back to a neutral label when the profile has no name.
func (p *Profile) DisplayName(fallback string) string {
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	return fallback
}

// ProfileSummary is the denormalized read projection attached to queue and
// session views. Every optional column is an explicit pointer; callers
// branch on nil instead of relying on a baked-in default.
type ProfileSummary struct {
	ID         string  `db:"id" json:"id"`
	Name       *string `db:"name" json:"name,omitempty"`
	Company    *string `db:"company" json:"company,omitempty"`
	Industry   *string `db:"industry" json:"industry,omitempty"`
	YCBatch    *string `db:"yc_batch" json:"ycBatch,omitempty"`
	RoastCount int     `db:"roast_count" json:"roastCount"`
}

func (p *Profile) Summary() ProfileSummary {
	return ProfileSummary{
		ID:         p.ID,
		Name:       p.Name,
		Company:    p.Company,
		Industry:   p.Industry,
		YCBatch:    p.YCBatch,
		RoastCount: p.RoastCount,
	}
}
