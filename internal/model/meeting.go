package model

import (
	"time"
)

type Meeting struct {
	ID           string        `db:"id" json:"id"`
	ApplicantID  string        `db:"applicant_id" json:"applicantId"`
	ReviewerID   string        `db:"reviewer_id" json:"reviewerId"`
	RoastType    RoastType     `db:"roast_type" json:"roastType"`
	Status       MeetingStatus `db:"status" json:"status"`
	MeetingLink  *string       `db:"meeting_link" json:"meetingLink,omitempty"`
	RequestedAt  time.Time     `db:"requested_at" json:"requestedAt"`
	AcceptedAt   *time.Time    `db:"accepted_at" json:"acceptedAt,omitempty"`
	ExpiresAt    *time.Time    `db:"expires_at" json:"expiresAt,omitempty"`
	ScheduledFor *time.Time    `db:"scheduled_for" json:"scheduledFor,omitempty"`
	CompletedAt  *time.Time    `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updatedAt"`
}

type CreateMeetingParams struct {
	ApplicantID  string
	ReviewerID   string
	RoastType    RoastType
	Status       MeetingStatus
	MeetingLink  *string
	AcceptedAt   *time.Time
	ExpiresAt    *time.Time
	ScheduledFor *time.Time
}
