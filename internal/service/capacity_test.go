package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/myc-roast/server-go/internal/errors"
	"github.com/myc-roast/server-go/internal/model"
	"github.com/myc-roast/server-go/internal/repository"
)

// fakeStore is an in-memory stand-in for the session and entry tables. Its
// conditional writes hold the same mutex, so it reproduces the atomicity the
// SQL statements provide row-level.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*model.LiveSession
	entries  map[string]*model.QueueEntry
	nextPos  map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[string]*model.LiveSession),
		entries:  make(map[string]*model.QueueEntry),
		nextPos:  make(map[string]int),
	}
}

func (f *fakeStore) addSession(s *model.LiveSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *s
	f.sessions[s.ID] = &copied
}

func (f *fakeStore) sessionState(id string) model.LiveSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.sessions[id]
}

func (f *fakeStore) activeEntryCount(sessionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.entries {
		if e.LiveSessionID == sessionID && e.Status.Active() {
			n++
		}
	}
	return n
}

type fakeSessionRepo struct{ store *fakeStore }

func (r *fakeSessionRepo) FindByID(ctx context.Context, id string) (*model.LiveSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSessionRepo) FindActiveByReviewer(ctx context.Context, reviewerID string) (*model.LiveSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.sessions {
		if s.ReviewerID == reviewerID && s.Status == model.SessionStatusActive {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindActive(ctx context.Context, now time.Time) ([]model.LiveSession, error) {
	return nil, nil
}

func (r *fakeSessionRepo) FindOverdueActive(ctx context.Context, now time.Time) ([]model.LiveSession, error) {
	return nil, nil
}

func (r *fakeSessionRepo) Create(ctx context.Context, params model.CreateLiveSessionParams) (*model.LiveSession, error) {
	return nil, fmt.Errorf("not supported")
}

func (r *fakeSessionRepo) MarkEnded(ctx context.Context, id, reviewerID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.sessions[id]
	if !ok || s.ReviewerID != reviewerID || s.Status != model.SessionStatusActive {
		return false, nil
	}
	s.Status = model.SessionStatusEnded
	return true, nil
}

func (r *fakeSessionRepo) TryIncrementQueueSize(ctx context.Context, id string, now time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.sessions[id]
	if !ok || s.Status != model.SessionStatusActive || !s.EndsAt.After(now) || s.CurrentQueueSize >= s.MaxQueueSize {
		return false, nil
	}
	s.CurrentQueueSize++
	return true, nil
}

func (r *fakeSessionRepo) DecrementQueueSize(ctx context.Context, id string, by int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if s, ok := r.store.sessions[id]; ok {
		s.CurrentQueueSize -= by
		if s.CurrentQueueSize < 0 {
			s.CurrentQueueSize = 0
		}
	}
	return nil
}

func (r *fakeSessionRepo) WithTx(tx *sqlx.Tx) repository.LiveSessionRepository { return r }

type fakeEntryRepo struct{ store *fakeStore }

func (r *fakeEntryRepo) FindByID(ctx context.Context, id string) (*model.QueueEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.entries[id]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (r *fakeEntryRepo) FindActiveByApplicant(ctx context.Context, sessionID, applicantID string) (*model.QueueEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range r.store.entries {
		if e.LiveSessionID == sessionID && e.ApplicantID == applicantID && e.Status.Active() {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeEntryRepo) FindActiveBySession(ctx context.Context, sessionID string) ([]model.QueueEntry, error) {
	return nil, nil
}

func (r *fakeEntryRepo) NextWaiting(ctx context.Context, sessionID string) (*model.QueueEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var next *model.QueueEntry
	for _, e := range r.store.entries {
		if e.LiveSessionID != sessionID || e.Status != model.EntryStatusWaiting {
			continue
		}
		if next == nil || e.Position < next.Position {
			next = e
		}
	}
	if next == nil {
		return nil, nil
	}
	copied := *next
	return &copied, nil
}

func (r *fakeEntryRepo) Create(ctx context.Context, params model.CreateQueueEntryParams) (*model.QueueEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.nextPos[params.LiveSessionID]++
	e := &model.QueueEntry{
		ID:            uuid.NewString(),
		LiveSessionID: params.LiveSessionID,
		ApplicantID:   params.ApplicantID,
		Position:      r.store.nextPos[params.LiveSessionID],
		Status:        model.EntryStatusWaiting,
		CreatedAt:     time.Now(),
	}
	r.store.entries[e.ID] = e
	copied := *e
	return &copied, nil
}

func (r *fakeEntryRepo) MarkYourTurn(ctx context.Context, id, meetingID string, now time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.entries[id]
	if !ok || e.Status != model.EntryStatusWaiting {
		return false, nil
	}
	e.Status = model.EntryStatusYourTurn
	e.MeetingID = &meetingID
	notified := now
	e.NotifiedAt = &notified
	return true, nil
}

func (r *fakeEntryRepo) MarkJoined(ctx context.Context, id, applicantID string, now time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.entries[id]
	if !ok || e.Status != model.EntryStatusYourTurn || e.ApplicantID != applicantID {
		return false, nil
	}
	e.Status = model.EntryStatusJoined
	return true, nil
}

func (r *fakeEntryRepo) MarkCompleted(ctx context.Context, id string, now time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.entries[id]
	if !ok || (e.Status != model.EntryStatusYourTurn && e.Status != model.EntryStatusJoined) {
		return false, nil
	}
	e.Status = model.EntryStatusCompleted
	return true, nil
}

func (r *fakeEntryRepo) MarkSkipped(ctx context.Context, id string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.entries[id]
	if !ok || (e.Status != model.EntryStatusWaiting && e.Status != model.EntryStatusYourTurn) {
		return false, nil
	}
	e.Status = model.EntryStatusSkipped
	return true, nil
}

func (r *fakeEntryRepo) SkipAllOpen(ctx context.Context, sessionID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, e := range r.store.entries {
		if e.LiveSessionID == sessionID && (e.Status == model.EntryStatusWaiting || e.Status == model.EntryStatusYourTurn) {
			e.Status = model.EntryStatusSkipped
			n++
		}
	}
	return n, nil
}

func (r *fakeEntryRepo) FindExpiredTurns(ctx context.Context, cutoff time.Time) ([]model.QueueEntry, error) {
	return nil, nil
}

func (r *fakeEntryRepo) CountActiveAhead(ctx context.Context, sessionID string, position int) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	n := 0
	for _, e := range r.store.entries {
		if e.LiveSessionID == sessionID && e.Position < position && e.Status.Active() {
			n++
		}
	}
	return n, nil
}

func (r *fakeEntryRepo) WithTx(tx *sqlx.Tx) repository.QueueEntryRepository { return r }

// TestCapacity_ConcurrentJoinsNeverExceedMax hammers the last few slots with
// parallel joins and checks exactly one winner per slot.
func TestCapacity_ConcurrentJoinsNeverExceedMax(t *testing.T) {
	store := newFakeStore()
	session := activeSession("sess-1", "rev-1")
	session.CurrentQueueSize = 8
	store.addSession(session)

	svc := newQueueService(&fakeSessionRepo{store: store}, &fakeEntryRepo{store: store},
		new(mockMeetingRepo), new(mockProfileRepo), new(mockRoomProvider), new(mockMailSender))

	const contenders = 20
	var wg sync.WaitGroup
	results := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.JoinQueue(context.Background(), "sess-1", fmt.Sprintf("app-%d", i))
			results[i] = err
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, err := range results {
		if err == nil {
			admitted++
		} else {
			require.Equal(t, apperrors.ErrCodeQueueFull, apperrors.GetCode(err))
		}
	}
	assert.Equal(t, 2, admitted, "only the two free slots may admit")

	final := store.sessionState("sess-1")
	assert.Equal(t, 10, final.CurrentQueueSize)
	assert.Equal(t, final.CurrentQueueSize-8, store.activeEntryCount("sess-1"))
}

// TestAdvanceQueue_ServesInArrivalOrder drains a populated queue and checks
// applicants come out strictly in the order they joined, each advance taking
// the lowest waiting position.
func TestAdvanceQueue_ServesInArrivalOrder(t *testing.T) {
	store := newFakeStore()
	store.addSession(activeSession("sess-1", "rev-1"))

	meetings := new(mockMeetingRepo)
	meetings.On("Create", mock.Anything, mock.Anything).Return(&model.Meeting{ID: "meet-1"}, nil)
	profiles := new(mockProfileRepo)
	profiles.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)
	rooms := new(mockRoomProvider)
	rooms.On("CreateRoom", mock.Anything).Return("https://meet.example/room", nil)

	entryRepo := &fakeEntryRepo{store: store}
	svc := newQueueService(&fakeSessionRepo{store: store}, entryRepo, meetings, profiles, rooms, new(mockMailSender))

	ctx := context.Background()
	applicants := []string{"app-a", "app-b", "app-c"}
	entryIDs := make(map[string]string, len(applicants))
	for _, id := range applicants {
		result, err := svc.JoinQueue(ctx, "sess-1", id)
		require.NoError(t, err)
		entryIDs[id] = result.Entry.ID
	}

	first, err := svc.AdvanceQueue(ctx, "sess-1", "rev-1")
	require.NoError(t, err)
	assert.Equal(t, "app-a", first.Entry.ApplicantID)

	// Later arrivals must be untouched while an earlier one was selectable.
	second, err := entryRepo.FindByID(ctx, entryIDs["app-b"])
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusWaiting, second.Status)

	served := []string{first.Entry.ApplicantID}
	for range applicants[1:] {
		result, err := svc.AdvanceQueue(ctx, "sess-1", "rev-1")
		require.NoError(t, err)
		served = append(served, result.Entry.ApplicantID)
	}
	assert.Equal(t, applicants, served)

	_, err = svc.AdvanceQueue(ctx, "sess-1", "rev-1")
	assert.Equal(t, apperrors.ErrCodeEmptyQueue, apperrors.GetCode(err))
}

// TestCapacity_RandomWorkloadKeepsCounterConsistent runs a random mix of
// joins, skips, and completions and checks the counter always equals the
// number of active entries.
func TestCapacity_RandomWorkloadKeepsCounterConsistent(t *testing.T) {
	store := newFakeStore()
	session := activeSession("sess-1", "rev-1")
	store.addSession(session)

	svc := newQueueService(&fakeSessionRepo{store: store}, &fakeEntryRepo{store: store},
		new(mockMeetingRepo), new(mockProfileRepo), new(mockRoomProvider), new(mockMailSender))

	ctx := context.Background()
	joined := make([]string, 0, 64)

	for i := 0; i < 400; i++ {
		switch rand.Intn(3) {
		case 0:
			result, err := svc.JoinQueue(ctx, "sess-1", fmt.Sprintf("app-%d", i))
			if err == nil {
				joined = append(joined, result.Entry.ID)
			} else {
				code := apperrors.GetCode(err)
				require.Contains(t, []apperrors.ErrorCode{apperrors.ErrCodeQueueFull, apperrors.ErrCodeAlreadyQueued}, code)
			}
		case 1:
			if len(joined) > 0 {
				idx := rand.Intn(len(joined))
				_ = svc.SkipEntry(ctx, joined[idx], "rev-1")
			}
		case 2:
			if len(joined) > 0 {
				idx := rand.Intn(len(joined))
				_ = svc.CompleteEntry(ctx, joined[idx])
			}
		}

		state := store.sessionState("sess-1")
		require.GreaterOrEqual(t, state.CurrentQueueSize, 0)
		require.LessOrEqual(t, state.CurrentQueueSize, state.MaxQueueSize)
		require.Equal(t, store.activeEntryCount("sess-1"), state.CurrentQueueSize, "counter must track active entries")
	}
}
