package replog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/powerpush/internal/pushups"
	"github.com/2beens/powerpush/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

//go:generate mockgen -source=$GOFILE -destination=dispatcher_mocks_test.go -package=replog_test

// Sink persists repetition records somewhere.
type Sink interface {
	Name() string
	Write(ctx context.Context, rec pushups.Record) error
}

var _ pushups.Recorder = (*Dispatcher)(nil)

// Dispatcher hands repetition records over to the sinks from its own goroutine,
// so a slow or failing sink never holds up frame processing. When the buffer is
// full, new records are dropped.
type Dispatcher struct {
	sinks        []Sink
	records      chan pushups.Record
	writeTimeout time.Duration
	metrics      *metrics.Manager

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(bufferSize int, metricsManager *metrics.Manager, sinks ...Sink) *Dispatcher {
	d := &Dispatcher{
		sinks:        sinks,
		records:      make(chan pushups.Record, bufferSize),
		writeTimeout: 5 * time.Second,
		metrics:      metricsManager,
		done:         make(chan struct{}),
	}
	go d.run()
	return d
}

// Record never blocks.
func (d *Dispatcher) Record(rec pushups.Record) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		log.WithField("session", rec.SessionID).Warnf("record dispatcher closed, dropping repetition %d", rec.Count)
		return
	}

	select {
	case d.records <- rec:
	default:
		if d.metrics != nil {
			d.metrics.CounterDroppedRecords.Inc()
		}
		log.WithField("session", rec.SessionID).Warnf("record buffer full, dropping repetition %d", rec.Count)
	}
}

// Close stops accepting records and waits until the buffered ones are written.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.records)
	d.mu.Unlock()

	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for rec := range d.records {
		if err := d.write(rec); err != nil {
			log.WithField("session", rec.SessionID).Warnf("write repetition %d: %s", rec.Count, err)
		}
	}
}

func (d *Dispatcher) write(rec pushups.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.writeTimeout)
	defer cancel()

	var err error
	for _, sink := range d.sinks {
		if sinkErr := sink.Write(ctx, rec); sinkErr != nil {
			if d.metrics != nil {
				d.metrics.CounterSinkFailures.WithLabelValues(sink.Name()).Inc()
			}
			err = multierr.Append(err, fmt.Errorf("%s: %w", sink.Name(), sinkErr))
		}
	}
	return err
}
