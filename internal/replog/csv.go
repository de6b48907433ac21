package replog

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/2beens/powerpush/internal/pushups"
	"github.com/2beens/powerpush/pkg"
)

// TimestampLayout is ISO-8601 in local time.
const TimestampLayout = "2006-01-02T15:04:05"

var csvHeader = []string{"Timestamp", "Push-ups", "Calories", "Session_Time"}

var _ Sink = (*CSVSink)(nil)

type CSVSink struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVSink appends to the file at path, creating it with a header row if needed.
func NewCSVSink(path string) (*CSVSink, error) {
	exists, err := pkg.PathExists(path, false)
	if err != nil {
		return nil, fmt.Errorf("check csv log %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv log %s: %w", path, err)
	}

	sink := &CSVSink{
		file:   file,
		writer: csv.NewWriter(file),
	}
	if !exists {
		if err := sink.writeRow(csvHeader); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
	}

	return sink, nil
}

func (s *CSVSink) Name() string {
	return "csv"
}

func (s *CSVSink) Write(_ context.Context, rec pushups.Record) error {
	return s.writeRow(RecordRow(rec))
}

func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}

func (s *CSVSink) writeRow(row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writer.Write(row); err != nil {
		return err
	}
	s.writer.Flush()
	return s.writer.Error()
}

// RecordRow formats a record the way it is persisted:
// local ISO-8601 timestamp, count, calories with 2 decimals, whole elapsed seconds.
func RecordRow(rec pushups.Record) []string {
	return []string{
		rec.Timestamp.Local().Format(TimestampLayout),
		strconv.Itoa(rec.Count),
		strconv.FormatFloat(rec.Calories, 'f', 2, 64),
		strconv.Itoa(rec.ElapsedSeconds),
	}
}
