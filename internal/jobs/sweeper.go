package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type queueSweeper interface {
	AutoSkipExpired(ctx context.Context) (int, error)
}

type sessionCloser interface {
	CloseExpired(ctx context.Context) (int, error)
}

type meetingExpirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// SweeperJob is the in-process fallback for the external scheduler. Each
// tick it skips timed-out turns, force-ends overdue sessions, and expires
// stale meetings. Every pass is idempotent, so running alongside the cron
// endpoints is safe.
type SweeperJob struct {
	queue    queueSweeper
	sessions sessionCloser
	meetings meetingExpirer
	interval time.Duration
	done     chan struct{}
}

func NewSweeperJob(queue queueSweeper, sessions sessionCloser, meetings meetingExpirer, interval time.Duration) *SweeperJob {
	return &SweeperJob{
		queue:    queue,
		sessions: sessions,
		meetings: meetings,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *SweeperJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("sweeper started")
}

func (j *SweeperJob) Stop() {
	close(j.done)
	log.Info().Msg("sweeper stopped")
}

func (j *SweeperJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *SweeperJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if skipped, err := j.queue.AutoSkipExpired(ctx); err != nil {
		log.Error().Err(err).Msg("sweeper: auto-skip failed")
	} else if skipped > 0 {
		log.Info().Int("count", skipped).Msg("sweeper: skipped expired turns")
	}

	if closed, err := j.sessions.CloseExpired(ctx); err != nil {
		log.Error().Err(err).Msg("sweeper: closing overdue sessions failed")
	} else if closed > 0 {
		log.Info().Int("count", closed).Msg("sweeper: closed overdue sessions")
	}

	if j.meetings != nil {
		if expired, err := j.meetings.ExpireOverdue(ctx); err != nil {
			log.Error().Err(err).Msg("sweeper: expiring meetings failed")
		} else if expired > 0 {
			log.Info().Int64("count", expired).Msg("sweeper: expired meetings")
		}
	}
}
