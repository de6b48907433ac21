//go:build integration

package replog_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/2beens/powerpush/internal/pushups"
	"github.com/2beens/powerpush/internal/replog"
	testingpkg "github.com/2beens/powerpush/pkg/testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSink_PublishesToSubscribers(t *testing.T) {
	ctx, rdb := testingpkg.GetRedisClientAndCtx(t)
	sink := replog.NewRedisSink(rdb, time.Minute)

	sessionID := "it-" + time.Now().Format("150405.000000")
	t.Cleanup(func() {
		rdb.Del(ctx, replog.LatestRecordKey(sessionID))
	})

	sub := rdb.Subscribe(ctx, replog.RepetitionsChannel(sessionID))
	defer sub.Close()
	// wait for the subscription confirmation before publishing
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	rec := pushups.NewRecord(sessionID, time.Now(), 1, 0.47, 3*time.Second)
	require.NoError(t, sink.Write(ctx, rec))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var got pushups.Record
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, rec.Count, got.Count)
	assert.Equal(t, rec.SessionID, got.SessionID)

	latest, err := sink.Latest(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 1, latest.Count)

	ttl, err := rdb.TTL(ctx, replog.LatestRecordKey(sessionID)).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)
}
