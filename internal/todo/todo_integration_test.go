package todo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/perchapp/perch/internal/log"
	"github.com/perchapp/perch/internal/testutil"
	"github.com/perchapp/perch/internal/todo"
)

func TestStoreCRUD(t *testing.T) {
	pool := testutil.SetupPostgres(t)
	store := todo.NewStore(pool, log.NewNop())
	ctx := context.Background()

	created, err := store.Create(ctx, todo.CreateInput{Title: "water the plants"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Priority != todo.PriorityMedium {
		t.Errorf("Create() priority = %q, want default medium", created.Priority)
	}
	if created.Done {
		t.Error("Create() done = true, want false")
	}

	done := true
	high := todo.PriorityHigh
	updated, err := store.Update(ctx, created.ID, todo.UpdateInput{Done: &done, Priority: &high})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !updated.Done || updated.Priority != todo.PriorityHigh {
		t.Errorf("Update() = %+v, want done high-priority todo", updated)
	}
	if updated.Title != "water the plants" {
		t.Errorf("Update() title = %q, want unchanged", updated.Title)
	}

	open, err := store.CountOpen(ctx)
	if err != nil {
		t.Fatalf("CountOpen() error = %v", err)
	}
	if open != 0 {
		t.Errorf("CountOpen() = %d, want 0 after completion", open)
	}

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, todo.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestStoreListOrdersOpenFirst(t *testing.T) {
	pool := testutil.SetupPostgres(t)
	store := todo.NewStore(pool, log.NewNop())
	ctx := context.Background()

	first, err := store.Create(ctx, todo.CreateInput{Title: "finished chore"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := store.Create(ctx, todo.CreateInput{Title: "pending chore"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	done := true
	if _, err := store.Update(ctx, first.ID, todo.UpdateInput{Done: &done}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	todos, total, err := store.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 2 || len(todos) != 2 {
		t.Fatalf("List() total = %d, len = %d, want 2 and 2", total, len(todos))
	}
	if todos[0].Title != "pending chore" || todos[1].Title != "finished chore" {
		t.Errorf("List() order = %q, %q, want open items first", todos[0].Title, todos[1].Title)
	}
}

func TestStoreUpdateMissing(t *testing.T) {
	pool := testutil.SetupPostgres(t)
	store := todo.NewStore(pool, log.NewNop())

	done := true
	_, err := store.Update(context.Background(), uuid.New(), todo.UpdateInput{Done: &done})
	if !errors.Is(err, todo.ErrNotFound) {
		t.Errorf("Update() on missing id error = %v, want ErrNotFound", err)
	}
}
