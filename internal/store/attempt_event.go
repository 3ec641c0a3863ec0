package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo with ent's SQL builder.
type eventRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

func (r *eventRepo) AppendAttemptEvent(ctx context.Context, data AttemptEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert("attempt_events").
		Columns("sequence", "attempt_id", "timestamp", "action", "trigger_kind", "answered", "message").
		Values(seqNum, data.AttemptID, time.Now().UTC(), data.Action, data.Trigger, data.Answered, data.Message).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save attempt event: %w", err)
	}
	return nil
}

func (r *eventRepo) AttemptEvents(ctx context.Context, attemptID string) ([]AttemptEvent, error) {
	t := entsql.Table("attempt_events")
	query, args := entsql.Dialect(dialect.SQLite).
		Select(t.C("sequence"), t.C("timestamp"), t.C("attempt_id"), t.C("action"), t.C("trigger_kind"), t.C("answered"), t.C("message")).
		From(t).
		Where(entsql.EQ(t.C("attempt_id"), attemptID)).
		OrderBy(t.C("sequence")).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query attempt events: %w", err)
	}
	defer rows.Close()

	var out []AttemptEvent
	for rows.Next() {
		var e AttemptEvent
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.AttemptID, &e.Action, &e.Trigger, &e.Answered, &e.Message); err != nil {
			return nil, fmt.Errorf("scan attempt event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
