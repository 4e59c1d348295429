package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/myc-roast/server-go/internal/database"
	"github.com/myc-roast/server-go/internal/email"
	"github.com/myc-roast/server-go/internal/model"
	"github.com/myc-roast/server-go/internal/repository"
)

// passthroughTx runs the transaction body directly, without a database.
type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.LiveSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LiveSession), args.Error(1)
}

func (m *mockSessionRepo) FindActiveByReviewer(ctx context.Context, reviewerID string) (*model.LiveSession, error) {
	args := m.Called(ctx, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LiveSession), args.Error(1)
}

func (m *mockSessionRepo) FindActive(ctx context.Context, now time.Time) ([]model.LiveSession, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LiveSession), args.Error(1)
}

func (m *mockSessionRepo) FindOverdueActive(ctx context.Context, now time.Time) ([]model.LiveSession, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LiveSession), args.Error(1)
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateLiveSessionParams) (*model.LiveSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LiveSession), args.Error(1)
}

func (m *mockSessionRepo) MarkEnded(ctx context.Context, id, reviewerID string) (bool, error) {
	args := m.Called(ctx, id, reviewerID)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionRepo) TryIncrementQueueSize(ctx context.Context, id string, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionRepo) DecrementQueueSize(ctx context.Context, id string, by int) error {
	args := m.Called(ctx, id, by)
	return args.Error(0)
}

func (m *mockSessionRepo) WithTx(tx *sqlx.Tx) repository.LiveSessionRepository {
	return m
}

type mockEntryRepo struct {
	mock.Mock
}

func (m *mockEntryRepo) FindByID(ctx context.Context, id string) (*model.QueueEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QueueEntry), args.Error(1)
}

func (m *mockEntryRepo) FindActiveByApplicant(ctx context.Context, sessionID, applicantID string) (*model.QueueEntry, error) {
	args := m.Called(ctx, sessionID, applicantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QueueEntry), args.Error(1)
}

func (m *mockEntryRepo) FindActiveBySession(ctx context.Context, sessionID string) ([]model.QueueEntry, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.QueueEntry), args.Error(1)
}

func (m *mockEntryRepo) NextWaiting(ctx context.Context, sessionID string) (*model.QueueEntry, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QueueEntry), args.Error(1)
}

func (m *mockEntryRepo) Create(ctx context.Context, params model.CreateQueueEntryParams) (*model.QueueEntry, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QueueEntry), args.Error(1)
}

func (m *mockEntryRepo) MarkYourTurn(ctx context.Context, id, meetingID string, now time.Time) (bool, error) {
	args := m.Called(ctx, id, meetingID, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockEntryRepo) MarkJoined(ctx context.Context, id, applicantID string, now time.Time) (bool, error) {
	args := m.Called(ctx, id, applicantID, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockEntryRepo) MarkCompleted(ctx context.Context, id string, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockEntryRepo) MarkSkipped(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockEntryRepo) SkipAllOpen(ctx context.Context, sessionID string) (int64, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockEntryRepo) FindExpiredTurns(ctx context.Context, cutoff time.Time) ([]model.QueueEntry, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.QueueEntry), args.Error(1)
}

func (m *mockEntryRepo) CountActiveAhead(ctx context.Context, sessionID string, position int) (int, error) {
	args := m.Called(ctx, sessionID, position)
	return args.Int(0), args.Error(1)
}

func (m *mockEntryRepo) WithTx(tx *sqlx.Tx) repository.QueueEntryRepository {
	return m
}

type mockMeetingRepo struct {
	mock.Mock
}

func (m *mockMeetingRepo) FindByID(ctx context.Context, id string) (*model.Meeting, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Meeting), args.Error(1)
}

func (m *mockMeetingRepo) FindRequestedByReviewer(ctx context.Context, reviewerID string) ([]model.Meeting, error) {
	args := m.Called(ctx, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Meeting), args.Error(1)
}

func (m *mockMeetingRepo) Create(ctx context.Context, params model.CreateMeetingParams) (*model.Meeting, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Meeting), args.Error(1)
}

func (m *mockMeetingRepo) MarkAccepted(ctx context.Context, id, meetingLink string, acceptedAt, expiresAt time.Time) (bool, error) {
	args := m.Called(ctx, id, meetingLink, acceptedAt, expiresAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockMeetingRepo) MarkCompleted(ctx context.Context, id string, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockMeetingRepo) MarkCancelled(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockMeetingRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMeetingRepo) WithTx(tx *sqlx.Tx) repository.MeetingRepository {
	return m
}

type mockProfileRepo struct {
	mock.Mock
}

func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *mockProfileRepo) FindSummariesByIDs(ctx context.Context, ids []string) (map[string]model.ProfileSummary, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]model.ProfileSummary), args.Error(1)
}

func (m *mockProfileRepo) IncrementRoastCount(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProfileRepo) FindFeatured(ctx context.Context, now time.Time) (*model.Profile, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *mockProfileRepo) FindFeatureCandidate(ctx context.Context, notFeaturedSince time.Time) (*model.Profile, error) {
	args := m.Called(ctx, notFeaturedSince)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *mockProfileRepo) MarkFeatured(ctx context.Context, id string, until, now time.Time) error {
	args := m.Called(ctx, id, until, now)
	return args.Error(0)
}

func (m *mockProfileRepo) FindAvailableByIndustry(ctx context.Context, industry string, limit int) ([]model.Profile, error) {
	args := m.Called(ctx, industry, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Profile), args.Error(1)
}

func (m *mockProfileRepo) FindAvailableReviewers(ctx context.Context, limit int) ([]model.Profile, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Profile), args.Error(1)
}

func (m *mockProfileRepo) WithTx(tx *sqlx.Tx) repository.ProfileRepository {
	return m
}

type mockRoomProvider struct {
	mock.Mock
}

func (m *mockRoomProvider) CreateRoom(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockRoomProvider) Name() string {
	return "mock"
}

type mockMailSender struct {
	mock.Mock
}

func (m *mockMailSender) Send(ctx context.Context, msg email.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
