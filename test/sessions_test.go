//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/2beens/powerpush/internal/pose"
	"github.com/2beens/powerpush/internal/pushups"
	"github.com/2beens/powerpush/internal/replog"
	"github.com/2beens/powerpush/internal/sessions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func armsFrame(seq int64, deg float64) pose.Frame {
	rad := (90 + deg) * math.Pi / 180
	wrist := pose.Landmark{X: math.Cos(rad), Y: math.Sin(rad), Visibility: 1}
	return pose.Frame{
		Seq: seq,
		Landmarks: map[pose.LandmarkName]pose.Landmark{
			pose.LeftShoulder:  {X: 0, Y: 1, Visibility: 1},
			pose.LeftElbow:     {X: 0, Y: 0, Visibility: 1},
			pose.LeftWrist:     wrist,
			pose.RightShoulder: {X: 0, Y: 1, Visibility: 1},
			pose.RightElbow:    {X: 0, Y: 0, Visibility: 1},
			pose.RightWrist:    wrist,
		},
	}
}

func (s *IntegrationTestSuite) doJSON(ctx context.Context, method, path string, body, dest any) int {
	t := s.T()

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if dest != nil && resp.StatusCode < 300 {
		require.NoError(t, json.Unmarshal(respBytes, dest), string(respBytes))
	}
	return resp.StatusCode
}

func (s *IntegrationTestSuite) TestSessionEndToEnd() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	var info sessions.SessionInfo
	status := s.doJSON(ctx, "POST", "/sessions", sessions.StartParams{BodyWeightKg: 80}, &info)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, info.ID)

	// subscribe before the first repetition is published
	sub := s.rdb.Subscribe(ctx, replog.RepetitionsChannel(info.ID))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	var res pushups.FrameResult
	seq := int64(0)
	for rep := 0; rep < 3; rep++ {
		for _, deg := range []float64{170, 80} {
			seq++
			status = s.doJSON(ctx, "POST", fmt.Sprintf("/sessions/%s/frames", info.ID), armsFrame(seq, deg), &res)
			require.Equal(t, http.StatusOK, status)
		}
	}
	assert.Equal(t, 3, res.Count)

	// retried frame is answered from cache
	var replayed pushups.FrameResult
	status = s.doJSON(ctx, "POST", fmt.Sprintf("/sessions/%s/frames", info.ID), armsFrame(seq, 80), &replayed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, replayed.Count)

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var published pushups.Record
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &published))
	assert.Equal(t, 1, published.Count)
	assert.Equal(t, info.ID, published.SessionID)

	var repetitions struct {
		Repetitions []pushups.Record `json:"repetitions"`
		Total       int              `json:"total"`
	}
	require.Eventually(t, func() bool {
		status := s.doJSON(ctx, "GET", fmt.Sprintf("/sessions/%s/repetitions", info.ID), nil, &repetitions)
		return status == http.StatusOK && repetitions.Total == 3
	}, 5*time.Second, 100*time.Millisecond)
	for i, rec := range repetitions.Repetitions {
		assert.Equal(t, i+1, rec.Count)
	}

	var final pushups.MetricsSnapshot
	status = s.doJSON(ctx, "POST", fmt.Sprintf("/sessions/%s/finish", info.ID), nil, &final)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, final.Count)

	status = s.doJSON(ctx, "GET", fmt.Sprintf("/sessions/%s/metrics", info.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	latest, err := replog.NewRedisSink(s.rdb, time.Minute).Latest(ctx, info.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 3, latest.Count)

	// still readable over http after the session is finished
	var latestOverHTTP pushups.Record
	status = s.doJSON(ctx, "GET", fmt.Sprintf("/sessions/%s/latest", info.ID), nil, &latestOverHTTP)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, latestOverHTTP.Count)

	f, err := os.Open(s.csvLogPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 4)
	assert.Equal(t, []string{"Timestamp", "Push-ups", "Calories", "Session_Time"}, rows[0])
}

func (s *IntegrationTestSuite) TestMetricsEndpoint() {
	t := s.T()

	resp, err := s.httpClient.Get(metricsEndpoint)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "powerpush_main_life_signal 1")
	assert.Contains(t, string(body), "pgxpool_")
}
