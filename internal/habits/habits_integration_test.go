package habits

import (
	"context"
	"testing"
	"time"

	"github.com/perchapp/perch/internal/log"
	"github.com/perchapp/perch/internal/testutil"
)

func TestStoreCompleteAndRollover(t *testing.T) {
	pool := testutil.SetupPostgres(t)
	store := NewStore(pool, log.NewNop())
	ctx := context.Background()

	day1 := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC) // a Tuesday
	store.now = func() time.Time { return day1 }

	kept, err := store.Create(ctx, CreateInput{Name: "stretch"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	missed, err := store.Create(ctx, CreateInput{Name: "read"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	done, err := store.Complete(ctx, kept.ID)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if done.Streak != 1 || !done.DoneToday {
		t.Fatalf("Complete() = streak %d doneToday %v, want 1 and true", done.Streak, done.DoneToday)
	}

	// Completing again in the same period must not advance the streak.
	again, err := store.Complete(ctx, kept.ID)
	if err != nil {
		t.Fatalf("Complete() twice error = %v", err)
	}
	if again.Streak != 1 {
		t.Errorf("Complete() twice streak = %d, want 1", again.Streak)
	}

	// Give the missed habit an existing streak so the rollover has
	// something to break.
	if _, err := pool.Exec(ctx, `UPDATE habits SET streak = 5 WHERE id = $1`, missed.ID); err != nil {
		t.Fatalf("seeding streak: %v", err)
	}

	day2 := day1.AddDate(0, 0, 1)
	if err := store.Rollover(ctx, day2); err != nil {
		t.Fatalf("Rollover() error = %v", err)
	}

	got, err := store.Get(ctx, kept.ID)
	if err != nil {
		t.Fatalf("Get(kept) error = %v", err)
	}
	if got.Streak != 1 || got.DoneToday {
		t.Errorf("kept habit after rollover = streak %d doneToday %v, want 1 and false", got.Streak, got.DoneToday)
	}

	got, err = store.Get(ctx, missed.ID)
	if err != nil {
		t.Fatalf("Get(missed) error = %v", err)
	}
	if got.Streak != 0 {
		t.Errorf("missed habit streak after rollover = %d, want 0", got.Streak)
	}

	// The next day's completion extends the kept streak.
	store.now = func() time.Time { return day2.Add(9 * time.Hour) }
	done, err = store.Complete(ctx, kept.ID)
	if err != nil {
		t.Fatalf("Complete() next day error = %v", err)
	}
	if done.Streak != 2 {
		t.Errorf("Complete() next day streak = %d, want 2", done.Streak)
	}
}

func TestStoreRolloverWeekly(t *testing.T) {
	pool := testutil.SetupPostgres(t)
	store := NewStore(pool, log.NewNop())
	ctx := context.Background()

	h, err := store.Create(ctx, CreateInput{Name: "plan week", Frequency: FrequencyWeekly})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := pool.Exec(ctx, `UPDATE habits SET streak = 3 WHERE id = $1`, h.ID); err != nil {
		t.Fatalf("seeding streak: %v", err)
	}

	// Mid-week rollovers leave weekly habits untouched.
	wednesday := time.Date(2026, 3, 11, 0, 0, 5, 0, time.UTC)
	if err := store.Rollover(ctx, wednesday); err != nil {
		t.Fatalf("Rollover(wednesday) error = %v", err)
	}
	got, err := store.Get(ctx, h.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Streak != 3 {
		t.Errorf("weekly streak after mid-week rollover = %d, want 3", got.Streak)
	}

	// Monday closes out the week and breaks the missed streak.
	monday := time.Date(2026, 3, 16, 0, 0, 5, 0, time.UTC)
	if err := store.Rollover(ctx, monday); err != nil {
		t.Fatalf("Rollover(monday) error = %v", err)
	}
	got, err = store.Get(ctx, h.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Streak != 0 || got.DoneToday {
		t.Errorf("weekly habit after Monday rollover = streak %d doneToday %v, want 0 and false", got.Streak, got.DoneToday)
	}
}
