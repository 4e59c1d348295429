package service

import (
	"context"
	"math"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/myc-roast/server-go/internal/config"
	apperrors "github.com/myc-roast/server-go/internal/errors"
	"github.com/myc-roast/server-go/internal/redis"
)

// RequestLimitService enforces the per-applicant roast request budget: a
// daily counter that resets at UTC midnight, a cooldown after a rejection,
// and a history set that blocks duplicate requests to the same roaster.
// All state lives in Redis with TTLs, so nothing needs a cleanup pass.
type RequestLimitService struct {
	rdb goredis.Cmdable
}

func NewRequestLimitService(rdb goredis.Cmdable) *RequestLimitService {
	return &RequestLimitService{rdb: rdb}
}

// CanRequest returns nil when the applicant may send another roast request,
// or the limit error explaining why not. Cooldown outranks the daily count.
func (s *RequestLimitService) CanRequest(ctx context.Context, applicantID string) error {
	ttl, err := s.rdb.TTL(ctx, redis.RejectionKey(applicantID)).Result()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeExternal, "cooldown check failed", err)
	}
	if ttl > 0 {
		hours := int(math.Ceil(ttl.Hours()))
		return apperrors.CooldownActive(hours)
	}

	used, err := s.RequestsUsed(ctx, applicantID)
	if err != nil {
		return err
	}
	if used >= config.DailyRequestLimit {
		return apperrors.RequestLimitReached(config.DailyRequestLimit)
	}
	return nil
}

// RequestsUsed reports how many requests the applicant has sent today (UTC).
func (s *RequestLimitService) RequestsUsed(ctx context.Context, applicantID string) (int, error) {
	count, err := s.rdb.Get(ctx, redis.RequestCountKey(applicantID, time.Now())).Int()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrCodeExternal, "request count lookup failed", err)
	}
	return count, nil
}

// RecordRequest bumps today's counter and remembers the reviewer so the
// applicant cannot request them twice. The counter expires at the next UTC
// midnight, the history set after the cooldown horizon.
func (s *RequestLimitService) RecordRequest(ctx context.Context, applicantID, reviewerID string) error {
	now := time.Now().UTC()
	countKey := redis.RequestCountKey(applicantID, now)
	midnight := now.Truncate(24 * time.Hour).Add(24 * time.Hour)

	pipe := s.rdb.TxPipeline()
	pipe.Incr(ctx, countKey)
	pipe.ExpireAt(ctx, countKey, midnight)
	pipe.SAdd(ctx, redis.RequestHistoryKey(applicantID), reviewerID)
	pipe.Expire(ctx, redis.RequestHistoryKey(applicantID), config.RejectionCooldown)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeExternal, "failed to record request", err)
	}
	return nil
}

// HasRequested reports whether the applicant already has an outstanding
// request to this reviewer.
func (s *RequestLimitService) HasRequested(ctx context.Context, applicantID, reviewerID string) (bool, error) {
	member, err := s.rdb.SIsMember(ctx, redis.RequestHistoryKey(applicantID), reviewerID).Result()
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrCodeExternal, "request history lookup failed", err)
	}
	return member, nil
}

// RecordRejection starts the 48 hour cooldown after a roaster declines.
func (s *RequestLimitService) RecordRejection(ctx context.Context, applicantID string) error {
	key := redis.RejectionKey(applicantID)
	if err := s.rdb.Set(ctx, key, time.Now().Unix(), config.RejectionCooldown).Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeExternal, "failed to record rejection", err)
	}
	log.Info().Str("applicantId", applicantID).Msg("rejection cooldown started")
	return nil
}
