package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if seq <= last {
			t.Fatalf("sequence not increasing: %d after %d", seq, last)
		}
		last = seq
	}
}

func TestMigrationIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "again.db")
	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestAttemptRecordAndGet(t *testing.T) {
	repo := openTestStore(t).AttemptRepo()
	ctx := context.Background()

	got, err := repo.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	started := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	a := &Attempt{
		ID:          "att-1",
		UserID:      "user-demo-001",
		TargetMajor: "Computer Science",
		Status:      StatusInProgress,
		Total:       5,
		StartedAt:   started,
	}
	require.NoError(t, repo.Record(ctx, a))
	assert.NotZero(t, a.Seq)
	firstSeq := a.Seq

	got, err = repo.Get(ctx, "att-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StatusInProgress, got.Status)
	assert.True(t, got.StartedAt.Equal(started))
	assert.True(t, got.FinishedAt.IsZero())

	// Updating keeps the sequence.
	a.Status = StatusAnalyzing
	a.Trigger = "manual"
	a.Answered = 5
	a.DurationSecs = 600
	a.ReceiptID = "sub-1"
	a.FinishedAt = started.Add(10 * time.Minute)
	require.NoError(t, repo.Record(ctx, a))
	assert.Equal(t, firstSeq, a.Seq)

	got, err = repo.Get(ctx, "att-1")
	require.NoError(t, err)
	assert.Equal(t, StatusAnalyzing, got.Status)
	assert.Equal(t, "manual", got.Trigger)
	assert.Equal(t, 5, got.Answered)
	assert.Equal(t, "sub-1", got.ReceiptID)
	assert.True(t, got.FinishedAt.Equal(a.FinishedAt))
	assert.Equal(t, firstSeq, got.Seq)
}

func TestAttemptListByUserNewestFirst(t *testing.T) {
	repo := openTestStore(t).AttemptRepo()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Record(ctx, &Attempt{
			ID:        id,
			UserID:    "u1",
			Status:    StatusAnalyzing,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, repo.Record(ctx, &Attempt{ID: "other", UserID: "u2", Status: StatusFailed, StartedAt: base}))

	list, err := repo.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{list[0].ID, list[1].ID, list[2].ID})

	list, err = repo.ListByUser(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = repo.ListByUser(ctx, "nobody", 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAttemptEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AttemptRepo().Record(ctx, &Attempt{ID: "att-1", UserID: "u", Status: StatusInProgress, StartedAt: time.Now()}))

	events := s.EventRepo()
	for _, action := range []string{ActionStart, ActionSubmit, ActionSubmitFailed, ActionSubmit, ActionConfirmed} {
		require.NoError(t, events.AppendAttemptEvent(ctx, AttemptEventData{AttemptID: "att-1", Action: action, Trigger: "manual"}))
	}

	got, err := events.AttemptEvents(ctx, "att-1")
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, ActionStart, got[0].Action)
	assert.Equal(t, ActionConfirmed, got[4].Action)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].Sequence, got[i-1].Sequence)
	}
}

func TestAttemptEventRequiresAttempt(t *testing.T) {
	s := openTestStore(t)
	err := s.EventRepo().AppendAttemptEvent(context.Background(), AttemptEventData{AttemptID: "ghost", Action: ActionStart})
	assert.Error(t, err)
}

func TestAttemptResultFields(t *testing.T) {
	repo := openTestStore(t).AttemptRepo()
	ctx := context.Background()

	a := &Attempt{
		ID:          "att-r",
		UserID:      "u",
		Status:      StatusAnalyzing,
		Answered:    3,
		Total:       5,
		AnsweredIDs: []int{1, 3, 4},
		StartedAt:   time.Now(),
	}
	require.NoError(t, repo.Record(ctx, a))

	got, err := repo.Get(ctx, "att-r")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4}, got.AnsweredIDs)
	assert.Zero(t, got.FinalScore)
	assert.True(t, got.HasResult())

	got.Status = StatusCompleted
	got.FinalScore = 82
	got.Readiness = "Siap"
	require.NoError(t, repo.Record(ctx, got))

	got, err = repo.Get(ctx, "att-r")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 82, got.FinalScore)
	assert.Equal(t, "Siap", got.Readiness)
	assert.True(t, got.HasResult())

	assert.False(t, (&Attempt{Status: StatusUnconfirmed}).HasResult())
	assert.False(t, (&Attempt{Status: StatusFailed}).HasResult())
}

func TestMigrateAddsResultColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE attempts (
		id TEXT PRIMARY KEY, seq INTEGER NOT NULL, user_id TEXT NOT NULL,
		target_major TEXT NOT NULL DEFAULT '', status TEXT NOT NULL,
		trigger_kind TEXT NOT NULL DEFAULT '', answered INTEGER NOT NULL DEFAULT 0,
		total INTEGER NOT NULL DEFAULT 0, duration_secs INTEGER NOT NULL DEFAULT 0,
		receipt_id TEXT NOT NULL DEFAULT '', error_message TEXT NOT NULL DEFAULT '',
		started_at DATETIME NOT NULL, finished_at DATETIME)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO attempts (id, seq, user_id, status, started_at) VALUES ('old', 1, 'u', 'analyzing', ?)`, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	got, err := s.AttemptRepo().Get(context.Background(), "old")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.AnsweredIDs)
	assert.Zero(t, got.FinalScore)
}
