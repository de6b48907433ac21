package replog

import (
	"context"

	"github.com/2beens/powerpush/internal/pushups"
	"github.com/2beens/powerpush/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var _ Sink = (*PostgresRepo)(nil)

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{
		db: db,
	}
}

func (r *PostgresRepo) Name() string {
	return "postgres"
}

// Write inserts the record. A record for an already stored (session, count)
// pair is ignored, so retried writes stay idempotent.
func (r *PostgresRepo) Write(ctx context.Context, rec pushups.Record) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.pushups.repetitions.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session", rec.SessionID))

	_, err = r.db.Exec(ctx, `
		INSERT INTO pushup_repetition (session_id, count, calories, elapsed_seconds, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, count) DO NOTHING
	`,
		rec.SessionID,
		rec.Count,
		rec.Calories,
		rec.ElapsedSeconds,
		rec.Timestamp,
	)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, sessionID string) (_ []pushups.Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.pushups.repetitions.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session", sessionID))

	rows, err := r.db.Query(ctx, `
		SELECT session_id, count, calories, elapsed_seconds, timestamp
		FROM pushup_repetition
		WHERE session_id = $1
		ORDER BY count ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]pushups.Record, 0)
	for rows.Next() {
		var rec pushups.Record
		if err := rows.Scan(
			&rec.SessionID,
			&rec.Count,
			&rec.Calories,
			&rec.ElapsedSeconds,
			&rec.Timestamp,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
