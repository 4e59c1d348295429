package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// RequestCountKey is the daily roast-request counter for an applicant,
// keyed by UTC date so the limit resets at midnight.
func RequestCountKey(applicantID string, day time.Time) string {
	return fmt.Sprintf("reqlimit:%s:%s", applicantID, day.UTC().Format("2006-01-02"))
}

// RejectionKey holds the timestamp of an applicant's last rejection for the
// post-rejection cooldown.
func RejectionKey(applicantID string) string {
	return fmt.Sprintf("reqcooldown:%s", applicantID)
}

// RequestHistoryKey is the set of reviewer IDs an applicant has already
// requested, used to block duplicate requests to the same roaster.
func RequestHistoryKey(applicantID string) string {
	return fmt.Sprintf("reqhist:%s", applicantID)
}
