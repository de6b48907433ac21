package replog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2beens/powerpush/internal/pushups"
	"github.com/2beens/powerpush/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
)

const DefaultLatestRecordTTL = 6 * time.Hour

var _ Sink = (*RedisSink)(nil)

// RedisSink publishes every record on the session channel, for live
// dashboards, and keeps the latest record of each session.
type RedisSink struct {
	rdb       *redis.Client
	latestTTL time.Duration
}

func NewRedisSink(rdb *redis.Client, latestTTL time.Duration) *RedisSink {
	return &RedisSink{
		rdb:       rdb,
		latestTTL: latestTTL,
	}
}

func RepetitionsChannel(sessionID string) string {
	return fmt.Sprintf("powerpush:session:%s:reps", sessionID)
}

func LatestRecordKey(sessionID string) string {
	return fmt.Sprintf("powerpush:session:%s:latest", sessionID)
}

func (s *RedisSink) Name() string {
	return "redis"
}

func (s *RedisSink) Write(ctx context.Context, rec pushups.Record) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "replog.redis.write")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if err := s.rdb.Publish(ctx, RepetitionsChannel(rec.SessionID), string(payload)).Err(); err != nil {
		return fmt.Errorf("publish record: %w", err)
	}
	if err := s.rdb.Set(ctx, LatestRecordKey(rec.SessionID), string(payload), s.latestTTL).Err(); err != nil {
		return fmt.Errorf("set latest record: %w", err)
	}

	return nil
}

// Latest returns the last record written for the session, or nil if there is none.
func (s *RedisSink) Latest(ctx context.Context, sessionID string) (*pushups.Record, error) {
	payload, err := s.rdb.Get(ctx, LatestRecordKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest record: %w", err)
	}

	var rec pushups.Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal latest record: %w", err)
	}
	return &rec, nil
}
