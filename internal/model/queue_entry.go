package model

import (
	"time"
)

type QueueEntry struct {
	ID            string      `db:"id" json:"id"`
	LiveSessionID string      `db:"live_session_id" json:"liveSessionId"`
	ApplicantID   string      `db:"applicant_id" json:"applicantId"`
	Position      int         `db:"position" json:"position"`
	Status        EntryStatus `db:"status" json:"status"`
	MeetingID     *string     `db:"meeting_id" json:"meetingId,omitempty"`
	NotifiedAt    *time.Time  `db:"notified_at" json:"notifiedAt,omitempty"`
	JoinedAt      *time.Time  `db:"joined_at" json:"joinedAt,omitempty"`
	CompletedAt   *time.Time  `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updatedAt"`
}

type CreateQueueEntryParams struct {
	LiveSessionID string
	ApplicantID   string
}

// QueueEntryView attaches the applicant profile for the reviewer-facing
// queue listing. Applicant is nil when the profile row is gone.
type QueueEntryView struct {
	QueueEntry
	Applicant *ProfileSummary `json:"applicant,omitempty"`
}
