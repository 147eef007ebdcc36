package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/perchapp/perch/internal/calendar"
	"github.com/perchapp/perch/internal/chat"
	"github.com/perchapp/perch/internal/dashboard"
	"github.com/perchapp/perch/internal/expenses"
	"github.com/perchapp/perch/internal/goals"
	"github.com/perchapp/perch/internal/habits"
	"github.com/perchapp/perch/internal/knowledge"
	"github.com/perchapp/perch/internal/log"
	"github.com/perchapp/perch/internal/notes"
	"github.com/perchapp/perch/internal/todo"
)

type fakeChat struct{}

func (fakeChat) Ask(_ context.Context, query string) (chat.Message, error) {
	if strings.TrimSpace(query) == "" {
		return chat.Message{}, chat.ErrEmptyMessage
	}
	return chat.Message{
		ID:        uuid.New(),
		Role:      chat.RoleAssistant,
		Content:   "answer to: " + query,
		Sources:   []chat.Source{},
		CreatedAt: time.Now(),
	}, nil
}

func (fakeChat) History(context.Context, int, int) ([]chat.Message, int, error) {
	return []chat.Message{}, 0, nil
}

func (fakeChat) Clear(context.Context) error { return nil }

type fakeTodos struct{}

func (fakeTodos) Create(_ context.Context, in todo.CreateInput) (todo.Todo, error) {
	if strings.TrimSpace(in.Title) == "" {
		return todo.Todo{}, todo.ErrEmptyTitle
	}
	priority := in.Priority
	if priority == "" {
		priority = todo.PriorityMedium
	}
	return todo.Todo{ID: uuid.New(), Title: in.Title, Priority: priority}, nil
}

func (fakeTodos) List(context.Context, int, int) ([]todo.Todo, int, error) {
	return []todo.Todo{{ID: uuid.New(), Title: "existing", Priority: todo.PriorityLow}}, 1, nil
}

func (fakeTodos) Update(context.Context, uuid.UUID, todo.UpdateInput) (todo.Todo, error) {
	return todo.Todo{}, todo.ErrNotFound
}

func (fakeTodos) Delete(context.Context, uuid.UUID) error { return todo.ErrNotFound }

type fakeEvents struct{}

func (fakeEvents) Create(_ context.Context, in calendar.Input) (calendar.Event, error) {
	return calendar.Event{ID: uuid.New(), Title: in.Title, StartsAt: in.StartsAt, EndsAt: in.EndsAt}, nil
}

func (fakeEvents) List(context.Context, time.Time, time.Time) ([]calendar.Event, error) {
	return nil, nil
}

func (fakeEvents) Update(context.Context, uuid.UUID, calendar.Input) (calendar.Event, error) {
	return calendar.Event{}, calendar.ErrNotFound
}

func (fakeEvents) Delete(context.Context, uuid.UUID) error { return nil }

type fakeNotes struct{}

func (fakeNotes) Create(_ context.Context, in notes.Input) (notes.Note, error) {
	return notes.Note{ID: uuid.New(), Title: in.Title, Content: in.Content}, nil
}

func (fakeNotes) List(context.Context, string, int, int) ([]notes.Note, int, error) {
	return nil, 0, nil
}

func (fakeNotes) Update(context.Context, uuid.UUID, notes.Input) (notes.Note, error) {
	return notes.Note{}, notes.ErrNotFound
}

func (fakeNotes) Delete(context.Context, uuid.UUID) error { return nil }

type fakeGoals struct{}

func (fakeGoals) Create(_ context.Context, in goals.CreateInput) (goals.Goal, error) {
	if in.Target <= 0 {
		return goals.Goal{}, goals.ErrInvalidTarget
	}
	return goals.Goal{ID: uuid.New(), Title: in.Title, Target: in.Target, Status: goals.StatusActive}, nil
}

func (fakeGoals) List(context.Context, int, int) ([]goals.Goal, int, error) { return nil, 0, nil }

func (fakeGoals) Update(context.Context, uuid.UUID, goals.UpdateInput) (goals.Goal, error) {
	return goals.Goal{}, goals.ErrNotFound
}

func (fakeGoals) Delete(context.Context, uuid.UUID) error { return nil }

type fakeHabits struct{}

func (fakeHabits) Create(_ context.Context, in habits.CreateInput) (habits.Habit, error) {
	return habits.Habit{ID: uuid.New(), Name: in.Name, Frequency: habits.FrequencyDaily}, nil
}

func (fakeHabits) List(context.Context) ([]habits.Habit, error) { return nil, nil }

func (fakeHabits) Complete(_ context.Context, id uuid.UUID) (habits.Habit, error) {
	return habits.Habit{ID: id, Name: "exercise", Frequency: habits.FrequencyDaily, Streak: 4, DoneToday: true}, nil
}

func (fakeHabits) Delete(context.Context, uuid.UUID) error { return nil }

type fakeExpenses struct{}

func (fakeExpenses) Create(_ context.Context, in expenses.Input) (expenses.Expense, error) {
	if in.Amount <= 0 {
		return expenses.Expense{}, expenses.ErrInvalidAmount
	}
	return expenses.Expense{ID: uuid.New(), Amount: in.Amount, Category: in.Category}, nil
}

func (fakeExpenses) List(_ context.Context, month string, _, _ int) ([]expenses.Expense, int, error) {
	if month != "" && len(month) != 7 {
		return nil, 0, expenses.ErrInvalidMonth
	}
	return nil, 0, nil
}

func (fakeExpenses) Summarize(_ context.Context, month string) (expenses.Summary, error) {
	return expenses.Summary{Month: month, Categories: []expenses.CategoryTotal{}}, nil
}

func (fakeExpenses) Delete(context.Context, uuid.UUID) error { return nil }

type fakeDocuments struct{}

func (fakeDocuments) Upload(_ context.Context, name string, data []byte, contentType string) (knowledge.Document, error) {
	return knowledge.Document{ID: uuid.New(), Name: name, SizeBytes: int64(len(data)), ContentType: contentType}, nil
}

func (fakeDocuments) IngestURL(context.Context, string) (knowledge.Document, error) {
	return knowledge.Document{}, nil
}

func (fakeDocuments) List(context.Context, int, int) ([]knowledge.Document, int, error) {
	return nil, 0, nil
}

func (fakeDocuments) Delete(context.Context, uuid.UUID) error { return nil }

func (fakeDocuments) Search(_ context.Context, query string, _ ...knowledge.SearchOption) ([]knowledge.Result, error) {
	return []knowledge.Result{
		{Document: knowledge.Document{ID: uuid.New(), Name: "doc.md", Content: "matched " + query}, Similarity: 0.8},
	}, nil
}

type fakeDashboard struct{}

func (fakeDashboard) Snapshot(context.Context) (dashboard.Snapshot, error) {
	return dashboard.Snapshot{OpenTodos: 2, Notes: 5}, nil
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	srv := NewServer(ServerConfig{
		Logger:    log.NewNop(),
		Chat:      fakeChat{},
		Todos:     fakeTodos{},
		Events:    fakeEvents{},
		Notes:     fakeNotes{},
		Goals:     fakeGoals{},
		Habits:    fakeHabits{},
		Expenses:  fakeExpenses{},
		Documents: fakeDocuments{},
		Dashboard: fakeDashboard{},
		IsDev:     true,
		RateBurst: 1000,
	})
	return srv.Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServerHealth(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want 200", rec.Code)
	}

	rec = doJSON(t, handler, "GET", "/ready", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /ready status = %d, want 200 without a pool", rec.Code)
	}
}

func TestServerChat(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, "POST", "/api/v1/chat", map[string]string{"message": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/v1/chat status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var reply chat.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("invalid reply JSON: %v", err)
	}
	if reply.Role != chat.RoleAssistant {
		t.Errorf("reply role = %q, want assistant", reply.Role)
	}

	rec = doJSON(t, handler, "POST", "/api/v1/chat", map[string]string{"message": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty message status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, handler, "POST", "/api/v1/chat", map[string]string{"bogus": "field"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, handler, "GET", "/api/v1/chat/messages", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/v1/chat/messages status = %d, want 200", rec.Code)
	}

	rec = doJSON(t, handler, "DELETE", "/api/v1/chat/messages", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("DELETE /api/v1/chat/messages status = %d, want 204", rec.Code)
	}
}

func TestServerTodos(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, "POST", "/api/v1/todos", map[string]any{"title": "write report", "priority": "high"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/v1/todos status = %d, want 201: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, handler, "POST", "/api/v1/todos", map[string]any{"title": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty title status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, handler, "GET", "/api/v1/todos", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/todos status = %d, want 200", rec.Code)
	}
	var list listResponse[todo.Todo]
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("invalid list JSON: %v", err)
	}
	if list.Total != 1 || len(list.Items) != 1 {
		t.Errorf("list = %+v, want one item", list)
	}

	rec = doJSON(t, handler, "PATCH", "/api/v1/todos/"+uuid.NewString(), map[string]any{"done": true})
	if rec.Code != http.StatusNotFound {
		t.Errorf("PATCH unknown todo status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, handler, "DELETE", "/api/v1/todos/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("DELETE invalid id status = %d, want 400", rec.Code)
	}
}

func TestServerGoalsValidation(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, "POST", "/api/v1/goals", map[string]any{"title": "read books", "target": 0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero target status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, handler, "POST", "/api/v1/goals", map[string]any{"title": "read books", "target": 12})
	if rec.Code != http.StatusCreated {
		t.Errorf("valid goal status = %d, want 201: %s", rec.Code, rec.Body)
	}
}

func TestServerHabitsComplete(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, "POST", "/api/v1/habits/"+uuid.NewString()+"/complete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var h habits.Habit
	if err := json.Unmarshal(rec.Body.Bytes(), &h); err != nil {
		t.Fatalf("invalid habit JSON: %v", err)
	}
	if !h.DoneToday || h.Streak != 4 {
		t.Errorf("habit = %+v, want done with streak 4", h)
	}
}

func TestServerExpensesMonthValidation(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, "GET", "/api/v1/expenses?month=20260301", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad month status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, handler, "GET", "/api/v1/expenses?month=2026-03", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("valid month status = %d, want 200", rec.Code)
	}

	rec = doJSON(t, handler, "GET", "/api/v1/expenses/summary?month=2026-03", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("summary status = %d, want 200", rec.Code)
	}
}

func TestServerDocumentsSearch(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, "GET", "/api/v1/documents/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing q status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, handler, "GET", "/api/v1/documents/search?q=golang&k=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var list listResponse[searchResult]
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("invalid search JSON: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].Similarity != 0.8 {
		t.Errorf("search results = %+v", list.Items)
	}
}

func TestServerDocumentUpload(t *testing.T) {
	handler := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := part.Write([]byte("some text")); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var info documentInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("invalid document JSON: %v", err)
	}
	if info.Name != "notes.txt" || info.SizeBytes != 9 {
		t.Errorf("document = %+v", info)
	}
}

func TestServerDashboard(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, "GET", "/api/v1/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, want 200", rec.Code)
	}
	var snap dashboard.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid dashboard JSON: %v", err)
	}
	if snap.OpenTodos != 2 || snap.Notes != 5 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestServerUnknownRoute(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, "GET", "/api/v1/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", rec.Code)
	}
}
