package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const attemptsTable = "attempts"

var attemptColumns = []string{
	"id", "seq", "user_id", "target_major", "status", "trigger_kind",
	"answered", "total", "duration_secs", "receipt_id", "error_message",
	"answered_ids", "final_score", "readiness",
	"started_at", "finished_at",
}

// attemptRepo implements AttemptRepo with ent's SQL builder.
type attemptRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func encodeIDs(ids []int) (string, error) {
	if ids == nil {
		ids = []int{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode answered ids: %w", err)
	}
	return string(raw), nil
}

func (r *attemptRepo) Record(ctx context.Context, a *Attempt) error {
	existing, err := r.Get(ctx, a.ID)
	if err != nil {
		return err
	}
	ids, err := encodeIDs(a.AnsweredIDs)
	if err != nil {
		return err
	}

	if existing == nil {
		seq, err := r.seq.Next(ctx)
		if err != nil {
			return err
		}
		a.Seq = seq
		query, args := entsql.Dialect(dialect.SQLite).
			Insert(attemptsTable).
			Columns(attemptColumns...).
			Values(
				a.ID, a.Seq, a.UserID, a.TargetMajor, string(a.Status), a.Trigger,
				a.Answered, a.Total, a.DurationSecs, a.ReceiptID, a.ErrorMessage,
				ids, a.FinalScore, a.Readiness,
				a.StartedAt.UTC(), nullableTime(a.FinishedAt),
			).
			Query()
		if err := r.drv.Exec(ctx, query, args, nil); err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}
		return nil
	}

	a.Seq = existing.Seq
	query, args := entsql.Dialect(dialect.SQLite).
		Update(attemptsTable).
		Set("target_major", a.TargetMajor).
		Set("status", string(a.Status)).
		Set("trigger_kind", a.Trigger).
		Set("answered", a.Answered).
		Set("total", a.Total).
		Set("duration_secs", a.DurationSecs).
		Set("receipt_id", a.ReceiptID).
		Set("error_message", a.ErrorMessage).
		Set("answered_ids", ids).
		Set("final_score", a.FinalScore).
		Set("readiness", a.Readiness).
		Set("finished_at", nullableTime(a.FinishedAt)).
		Where(entsql.EQ("id", a.ID)).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	return nil
}

func (r *attemptRepo) Get(ctx context.Context, id string) (*Attempt, error) {
	t := entsql.Table(attemptsTable)
	query, args := entsql.Dialect(dialect.SQLite).
		Select(attemptSelectColumns(t)...).
		From(t).
		Where(entsql.EQ(t.C("id"), id)).
		Limit(1).
		Query()

	attempts, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query attempt: %w", err)
	}
	if len(attempts) == 0 {
		return nil, nil
	}
	return &attempts[0], nil
}

func (r *attemptRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Attempt, error) {
	t := entsql.Table(attemptsTable)
	sel := entsql.Dialect(dialect.SQLite).
		Select(attemptSelectColumns(t)...).
		From(t).
		Where(entsql.EQ(t.C("user_id"), userID)).
		OrderBy(entsql.Desc(t.C("started_at")), entsql.Desc(t.C("seq")))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	attempts, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

func attemptSelectColumns(t *entsql.SelectTable) []string {
	cols := make([]string, len(attemptColumns))
	for i, c := range attemptColumns {
		cols[i] = t.C(c)
	}
	return cols
}

func (r *attemptRepo) query(ctx context.Context, query string, args []any) ([]Attempt, error) {
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var (
			a        Attempt
			status   string
			ids      string
			finished sql.NullTime
		)
		if err := rows.Scan(
			&a.ID, &a.Seq, &a.UserID, &a.TargetMajor, &status, &a.Trigger,
			&a.Answered, &a.Total, &a.DurationSecs, &a.ReceiptID, &a.ErrorMessage,
			&ids, &a.FinalScore, &a.Readiness,
			&a.StartedAt, &finished,
		); err != nil {
			return nil, err
		}
		a.Status = AttemptStatus(status)
		if err := json.Unmarshal([]byte(ids), &a.AnsweredIDs); err != nil {
			return nil, fmt.Errorf("decode answered ids of %s: %w", a.ID, err)
		}
		if finished.Valid {
			a.FinishedAt = finished.Time
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
