package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingQueueSweeper struct {
	calls   atomic.Int64
	skipped int
}

func (m *countingQueueSweeper) AutoSkipExpired(ctx context.Context) (int, error) {
	m.calls.Add(1)
	return m.skipped, nil
}

type countingSessionCloser struct {
	calls  atomic.Int64
	closed int
}

func (m *countingSessionCloser) CloseExpired(ctx context.Context) (int, error) {
	m.calls.Add(1)
	return m.closed, nil
}

type countingMeetingExpirer struct {
	calls   atomic.Int64
	expired int64
}

func (m *countingMeetingExpirer) ExpireOverdue(ctx context.Context) (int64, error) {
	m.calls.Add(1)
	return m.expired, nil
}

func TestSweeper_RunsAllSweepsImmediately(t *testing.T) {
	queue := &countingQueueSweeper{skipped: 2}
	sessions := &countingSessionCloser{closed: 1}
	meetings := &countingMeetingExpirer{expired: 3}

	job := NewSweeperJob(queue, sessions, meetings, time.Hour)
	job.Start()
	defer job.Stop()

	assert.Eventually(t, func() bool {
		return queue.calls.Load() >= 1 && sessions.calls.Load() >= 1 && meetings.calls.Load() >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestSweeper_TicksRepeatedly(t *testing.T) {
	queue := &countingQueueSweeper{}
	sessions := &countingSessionCloser{}

	job := NewSweeperJob(queue, sessions, nil, 20*time.Millisecond)
	job.Start()
	defer job.Stop()

	assert.Eventually(t, func() bool {
		return queue.calls.Load() >= 3
	}, time.Second, 10*time.Millisecond)
}

func TestSweeper_StopHaltsTicks(t *testing.T) {
	queue := &countingQueueSweeper{}
	sessions := &countingSessionCloser{}

	job := NewSweeperJob(queue, sessions, nil, 10*time.Millisecond)
	job.Start()

	assert.Eventually(t, func() bool {
		return queue.calls.Load() >= 1
	}, time.Second, 5*time.Millisecond)

	job.Stop()
	after := queue.calls.Load()
	time.Sleep(50 * time.Millisecond)

	assert.LessOrEqual(t, queue.calls.Load(), after+1)
}
