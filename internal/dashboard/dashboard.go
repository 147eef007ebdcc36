// Package dashboard assembles the landing-page counters from the
// individual domain stores.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Snapshot is the set of counters shown on the dashboard.
type Snapshot struct {
	OpenTodos       int     `json:"openTodos"`
	EventsToday     int     `json:"eventsToday"`
	Notes           int     `json:"notes"`
	ActiveGoals     int     `json:"activeGoals"`
	HabitsDoneToday int     `json:"habitsDoneToday"`
	MonthSpend      float64 `json:"monthSpend"`
	Documents       int     `json:"documents"`
	ChatMessages    int     `json:"chatMessages"`
}

// Counter sources, one per domain store.
type (
	TodoCounter     interface{ CountOpen(ctx context.Context) (int, error) }
	EventCounter    interface{ CountOn(ctx context.Context, day time.Time) (int, error) }
	NoteCounter     interface{ Count(ctx context.Context) (int, error) }
	GoalCounter     interface{ CountActive(ctx context.Context) (int, error) }
	HabitCounter    interface{ CountDoneToday(ctx context.Context) (int, error) }
	SpendTotaler    interface{ MonthToDate(ctx context.Context, now time.Time) (float64, error) }
	DocumentCounter interface{ Count(ctx context.Context) (int, error) }
	MessageCounter  interface{ Count(ctx context.Context) (int, error) }
)

// Service collects dashboard counters.
type Service struct {
	todos     TodoCounter
	events    EventCounter
	notes     NoteCounter
	goals     GoalCounter
	habits    HabitCounter
	expenses  SpendTotaler
	documents DocumentCounter
	messages  MessageCounter
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the dashboard to its counter sources.
func NewService(todos TodoCounter, events EventCounter, notes NoteCounter, goals GoalCounter,
	habits HabitCounter, expenses SpendTotaler, documents DocumentCounter, messages MessageCounter,
	logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		todos:     todos,
		events:    events,
		notes:     notes,
		goals:     goals,
		habits:    habits,
		expenses:  expenses,
		documents: documents,
		messages:  messages,
		logger:    logger,
		now:       time.Now,
	}
}

// Snapshot gathers all counters. The first failing source aborts the
// call; counters are cheap single-row aggregates.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	now := s.now()
	var snap Snapshot
	var err error

	if snap.OpenTodos, err = s.todos.CountOpen(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("counting open todos: %w", err)
	}
	if snap.EventsToday, err = s.events.CountOn(ctx, now); err != nil {
		return Snapshot{}, fmt.Errorf("counting today's events: %w", err)
	}
	if snap.Notes, err = s.notes.Count(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("counting notes: %w", err)
	}
	if snap.ActiveGoals, err = s.goals.CountActive(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("counting active goals: %w", err)
	}
	if snap.HabitsDoneToday, err = s.habits.CountDoneToday(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("counting completed habits: %w", err)
	}
	if snap.MonthSpend, err = s.expenses.MonthToDate(ctx, now); err != nil {
		return Snapshot{}, fmt.Errorf("totaling month spend: %w", err)
	}
	if snap.Documents, err = s.documents.Count(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("counting documents: %w", err)
	}
	if snap.ChatMessages, err = s.messages.Count(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("counting chat messages: %w", err)
	}

	return snap, nil
}
