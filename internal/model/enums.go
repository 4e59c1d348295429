package model

type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusPaused SessionStatus = "paused"
	SessionStatusEnded  SessionStatus = "ended"
)

type EntryStatus string

const (
	EntryStatusWaiting   EntryStatus = "waiting"
	EntryStatusYourTurn  EntryStatus = "your_turn"
	EntryStatusJoined    EntryStatus = "joined"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusSkipped   EntryStatus = "skipped"
)

// ActiveEntryStatuses are the states that count against session capacity.
var ActiveEntryStatuses = []EntryStatus{
	EntryStatusWaiting,
	EntryStatusYourTurn,
	EntryStatusJoined,
}

func (s EntryStatus) Active() bool {
	switch s {
	case EntryStatusWaiting, EntryStatusYourTurn, EntryStatusJoined:
		return true
	}
	return false
}

func (s EntryStatus) Terminal() bool {
	return s == EntryStatusCompleted || s == EntryStatusSkipped
}

type MeetingStatus string

const (
	MeetingStatusRequested MeetingStatus = "requested"
	MeetingStatusAccepted  MeetingStatus = "accepted"
	MeetingStatusCompleted MeetingStatus = "completed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
	MeetingStatusExpired   MeetingStatus = "expired"
)

type RoastType string

const (
	RoastTypeApplication RoastType = "application"
	RoastTypePitch       RoastType = "pitch"
	RoastTypeIdea        RoastType = "idea"
)

func (t RoastType) Valid() bool {
	switch t {
	case RoastTypeApplication, RoastTypePitch, RoastTypeIdea:
		return true
	}
	return false
}

// Label is the human-readable form used in notification emails.
func (t RoastType) Label() string {
	switch t {
	case RoastTypeApplication:
		return "Application"
	case RoastTypePitch:
		return "Pitch Deck"
	case RoastTypeIdea:
		return "Idea"
	}
	return string(t)
}

type Role string

const (
	RoleApplicant Role = "applicant"
	RoleReviewer  Role = "reviewer"
)
