package replog_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/2beens/powerpush/internal/pushups"
	"github.com/2beens/powerpush/internal/replog"
	"github.com/2beens/powerpush/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// idle keep-alive connections of the docker client in integration runs
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

func testRecord(count int) pushups.Record {
	return pushups.NewRecord(
		"s1",
		time.Date(2024, 3, 1, 10, 0, count, 0, time.UTC),
		count,
		float64(count)*0.15,
		time.Duration(count)*time.Second,
	)
}

func TestDispatcher_WritesToAllSinks(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := NewMockSink(ctrl)
	second := NewMockSink(ctrl)

	rec1, rec2 := testRecord(1), testRecord(2)
	gomock.InOrder(
		first.EXPECT().Write(gomock.Any(), rec1).Return(nil),
		first.EXPECT().Write(gomock.Any(), rec2).Return(nil),
	)
	gomock.InOrder(
		second.EXPECT().Write(gomock.Any(), rec1).Return(nil),
		second.EXPECT().Write(gomock.Any(), rec2).Return(nil),
	)

	d := replog.NewDispatcher(10, metrics.NewTestManager(), first, second)
	d.Record(rec1)
	d.Record(rec2)
	d.Close()
}

func TestDispatcher_FailingSinkDoesNotStopOthers(t *testing.T) {
	ctrl := gomock.NewController(t)
	failing := NewMockSink(ctrl)
	healthy := NewMockSink(ctrl)
	metricsManager := metrics.NewTestManager()

	rec := testRecord(1)
	failing.EXPECT().Name().Return("failing").AnyTimes()
	failing.EXPECT().Write(gomock.Any(), rec).Return(errors.New("disk full"))
	healthy.EXPECT().Write(gomock.Any(), rec).Return(nil)

	d := replog.NewDispatcher(10, metricsManager, failing, healthy)
	d.Record(rec)
	d.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(metricsManager.CounterSinkFailures.WithLabelValues("failing")))
}

type blockingSink struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once

	mu      sync.Mutex
	written []int
}

func (s *blockingSink) Name() string {
	return "blocking"
}

func (s *blockingSink) Write(_ context.Context, rec pushups.Record) error {
	s.once.Do(func() {
		close(s.started)
		<-s.release
	})
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = append(s.written, rec.Count)
	return nil
}

func TestDispatcher_DropsWhenBufferFull(t *testing.T) {
	metricsManager := metrics.NewTestManager()
	sink := &blockingSink{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}

	d := replog.NewDispatcher(1, metricsManager, sink)

	d.Record(testRecord(1))
	<-sink.started // worker holds record 1 inside the sink

	recordReturned := make(chan struct{})
	go func() {
		d.Record(testRecord(2)) // buffered
		d.Record(testRecord(3)) // dropped
		close(recordReturned)
	}()

	select {
	case <-recordReturned:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full buffer")
	}

	close(sink.release)
	d.Close()

	assert.Equal(t, []int{1, 2}, sink.written)
	assert.Equal(t, 1.0, testutil.ToFloat64(metricsManager.CounterDroppedRecords))
}

func TestDispatcher_RecordAfterClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)

	d := replog.NewDispatcher(1, nil, sink)
	d.Close()
	d.Close()

	require.NotPanics(t, func() {
		d.Record(testRecord(1))
	})
}
