package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/2beens/powerpush/internal/pose"
	"github.com/2beens/powerpush/internal/pushups"
	"github.com/2beens/powerpush/internal/replog"

	log "github.com/sirupsen/logrus"
)

var errNoFrames = errors.New("no frames with a timestamp in input")

// frameClock tells the session the time of the frame being replayed.
type frameClock struct {
	now time.Time
}

func (c *frameClock) Now() time.Time {
	return c.now
}

// sinkRecorder writes each record right away, a replay has no frame rate to keep up with.
type sinkRecorder struct {
	ctx      context.Context
	sink     replog.Sink
	failures int
}

func (r *sinkRecorder) Record(rec pushups.Record) {
	if err := r.sink.Write(r.ctx, rec); err != nil {
		r.failures++
		log.Errorf("write repetition %d to %s: %s", rec.Count, r.sink.Name(), err)
	}
}

type bellNotifier struct {
	out  io.Writer
	bell bool
}

func (n *bellNotifier) MilestoneReached(_ string, ev pushups.MilestoneEvent) {
	prefix := ""
	if n.bell {
		prefix = "\a"
	}
	fmt.Fprintf(n.out, "%s%d push-ups: %s\n", prefix, ev.Count, ev.Label)
}

type replayParams struct {
	SessionID string
	Config    pushups.Config
	Sink      replog.Sink // optional
	Bell      bool
}

type replaySummary struct {
	Frames        int
	SkippedFrames int
	BadLines      int
	Warnings      map[pushups.WarningKind]int
	Snapshot      pushups.MetricsSnapshot
}

// replay drives a single session over the JSON-lines frames read from in,
// using the frames' own timestamps as the session clock.
func replay(ctx context.Context, in io.Reader, out io.Writer, params replayParams) (*replaySummary, error) {
	clock := &frameClock{}
	var recorder *sinkRecorder
	opts := []pushups.Option{
		pushups.WithClock(clock),
		pushups.WithNotifier(&bellNotifier{out: out, bell: params.Bell}),
	}
	if params.Sink != nil {
		recorder = &sinkRecorder{ctx: ctx, sink: params.Sink}
		opts = append(opts, pushups.WithRecorder(recorder))
	}

	summary := &replaySummary{
		Warnings: make(map[pushups.WarningKind]int),
	}

	var session *pushups.Session
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var frame pose.Frame
		if err := json.Unmarshal(line, &frame); err != nil {
			summary.BadLines++
			log.Warnf("line %d: invalid frame: %s", lineNo, err)
			continue
		}
		if frame.Timestamp.IsZero() {
			summary.BadLines++
			log.Warnf("line %d: frame without ts", lineNo)
			continue
		}
		if !clock.now.IsZero() && frame.Timestamp.Before(clock.now) {
			log.Warnf("line %d: frame ts %s goes back in time", lineNo, frame.Timestamp.Format(time.RFC3339Nano))
		}
		clock.now = frame.Timestamp

		if session == nil {
			var err error
			session, err = pushups.NewSession(params.SessionID, params.Config, opts...)
			if err != nil {
				return nil, err
			}
		}

		res := session.ProcessFrame(frame)
		summary.Frames++
		if res.Skipped {
			summary.SkippedFrames++
		}
		for _, w := range res.Warnings {
			summary.Warnings[w.Kind]++
			log.Debugf("line %d: form warning: %s", lineNo, w.Kind)
		}
		if res.Repetition != nil {
			log.WithField("count", res.Repetition.Count).Debugf("line %d: push-up counted", lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}

	if session == nil {
		return nil, errNoFrames
	}
	if recorder != nil && recorder.failures > 0 {
		log.Warnf("%d repetition records could not be written", recorder.failures)
	}

	summary.Snapshot = session.Snapshot()
	return summary, nil
}

func printSummary(out io.Writer, s *replaySummary) {
	fmt.Fprintf(out, "Push-ups:     %d\n", s.Snapshot.Count)
	fmt.Fprintf(out, "Session time: %s\n", s.Snapshot.Timer)
	fmt.Fprintf(out, "Calories:     %.2f\n", s.Snapshot.Calories)
	fmt.Fprintf(out, "Average pace: %.2fs\n", s.Snapshot.AveragePaceSeconds)
	fmt.Fprintf(out, "Frames:       %d (%d skipped, %d bad lines)\n", s.Frames, s.SkippedFrames, s.BadLines)
	fmt.Fprintf(out, "Warnings:     %d incomplete, %d too fast\n",
		s.Warnings[pushups.WarningIncomplete], s.Warnings[pushups.WarningTooFast])
}
