package model

import (
	"time"
)

type LiveSession struct {
	ID               string        `db:"id" json:"id"`
	ReviewerID       string        `db:"reviewer_id" json:"reviewerId"`
	Status           SessionStatus `db:"status" json:"status"`
	MaxQueueSize     int           `db:"max_queue_size" json:"maxQueueSize"`
	CurrentQueueSize int           `db:"current_queue_size" json:"currentQueueSize"`
	StartsAt         time.Time     `db:"starts_at" json:"startsAt"`
	EndsAt           time.Time     `db:"ends_at" json:"endsAt"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updatedAt"`
}

// Expired reports whether the session window has elapsed. An expired session
// must be treated as ended for admission purposes even before the sweeper
// flips its status.
func (s *LiveSession) Expired(now time.Time) bool {
	return now.After(s.EndsAt)
}

func (s *LiveSession) AcceptingJoins(now time.Time) bool {
	return s.Status == SessionStatusActive && !s.Expired(now)
}

type CreateLiveSessionParams struct {
	ReviewerID   string
	EndsAt       time.Time
	MaxQueueSize int
}

// LiveSessionView is the discovery projection returned to applicants,
// with the reviewer profile attached when one could be resolved.
type LiveSessionView struct {
	LiveSession
	Reviewer *ProfileSummary `json:"reviewer,omitempty"`
}
