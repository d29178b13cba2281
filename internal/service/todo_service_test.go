package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Tomlord1122/todos-api/internal/api"
	"github.com/Tomlord1122/todos-api/internal/domain"
	"github.com/Tomlord1122/todos-api/internal/repository"
)

// stepClock returns start, start+step, start+2*step, ... on successive calls.
type stepClock struct {
	next time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}

func newTestService(t *testing.T) (TodoService, *stepClock) {
	t.Helper()
	clock := &stepClock{
		next: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		step: time.Second,
	}
	return NewTodoService(repository.NewMemoryTodoRepository(), WithClock(clock.Now)), clock
}

// mockRepository lets tests inject repository failures.
type mockRepository struct {
	findManyFn   func(ctx context.Context, order repository.SortOrder) ([]domain.Todo, error)
	findUniqueFn func(ctx context.Context, id string) (*domain.Todo, error)
	createFn     func(ctx context.Context, todo *domain.Todo) error
	updateFn     func(ctx context.Context, id string, fields domain.TodoFields) (*domain.Todo, error)
	deleteFn     func(ctx context.Context, id string) error
}

func (m *mockRepository) FindMany(ctx context.Context, order repository.SortOrder) ([]domain.Todo, error) {
	if m.findManyFn != nil {
		return m.findManyFn(ctx, order)
	}
	return nil, nil
}

func (m *mockRepository) FindUnique(ctx context.Context, id string) (*domain.Todo, error) {
	if m.findUniqueFn != nil {
		return m.findUniqueFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockRepository) Create(ctx context.Context, todo *domain.Todo) error {
	if m.createFn != nil {
		return m.createFn(ctx, todo)
	}
	return nil
}

func (m *mockRepository) Update(ctx context.Context, id string, fields domain.TodoFields) (*domain.Todo, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, fields)
	}
	return nil, repository.ErrNotFound
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func assertErrorStatus(t *testing.T, err error, status int) {
	t.Helper()
	var domErr *domain.Error
	if !errors.As(err, &domErr) {
		t.Fatalf("expected *domain.Error, got %T (%v)", err, err)
	}
	if domErr.Status != status {
		t.Fatalf("status = %d, want %d (%v)", domErr.Status, status, err)
	}
}

func TestCreateTodo_Defaults(t *testing.T) {
	svc, _ := newTestService(t)

	todo, err := svc.CreateTodo(context.Background(), api.CreateTodoRequest{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}

	if todo.ID == "" {
		t.Error("expected an id to be assigned")
	}
	if todo.Title != "Buy milk" {
		t.Errorf("title = %q, want %q", todo.Title, "Buy milk")
	}
	if todo.IsCompleted {
		t.Error("new todos must not be completed")
	}
	if todo.CreatedAt.IsZero() || todo.UpdatedAt.IsZero() {
		t.Error("timestamps must be set")
	}
	if !todo.UpdatedAt.Equal(todo.CreatedAt) {
		t.Errorf("updatedAt %v != createdAt %v at creation", todo.UpdatedAt, todo.CreatedAt)
	}
}

func TestCreateTodo_KeepsTitleVerbatim(t *testing.T) {
	svc, _ := newTestService(t)

	todo, err := svc.CreateTodo(context.Background(), api.CreateTodoRequest{Title: "  padded  "})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	if todo.Title != "  padded  " {
		t.Errorf("title = %q, want it stored untrimmed", todo.Title)
	}
}

func TestCreateTodo_RejectsEmptyTitle(t *testing.T) {
	svc, _ := newTestService(t)

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := svc.CreateTodo(context.Background(), api.CreateTodoRequest{Title: title})
		assertErrorStatus(t, err, http.StatusBadRequest)
	}

	todos, err := svc.ListTodos(context.Background())
	if err != nil {
		t.Fatalf("ListTodos: %v", err)
	}
	if len(todos) != 0 {
		t.Errorf("rejected creates must not persist, got %d todos", len(todos))
	}
}

func TestListTodos_NewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, title := range []string{"t1", "t2", "t3"} {
		if _, err := svc.CreateTodo(ctx, api.CreateTodoRequest{Title: title}); err != nil {
			t.Fatalf("CreateTodo(%s): %v", title, err)
		}
	}

	todos, err := svc.ListTodos(ctx)
	if err != nil {
		t.Fatalf("ListTodos: %v", err)
	}

	want := []string{"t3", "t2", "t1"}
	if len(todos) != len(want) {
		t.Fatalf("got %d todos, want %d", len(todos), len(want))
	}
	for i, title := range want {
		if todos[i].Title != title {
			t.Errorf("todos[%d].Title = %q, want %q", i, todos[i].Title, title)
		}
	}
}

func TestListTodos_EmptyIsNonNil(t *testing.T) {
	svc, _ := newTestService(t)

	todos, err := svc.ListTodos(context.Background())
	if err != nil {
		t.Fatalf("ListTodos: %v", err)
	}
	if todos == nil {
		t.Fatal("expected an empty slice so the envelope renders []")
	}
}

func TestUpdateTodo_ExplicitFalseIsApplied(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTodo(ctx, api.CreateTodoRequest{Title: "Walk dog"})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	if _, err := svc.UpdateTodo(ctx, created.ID, api.UpdateTodoRequest{IsCompleted: api.Bool(true)}); err != nil {
		t.Fatalf("UpdateTodo(true): %v", err)
	}

	updated, err := svc.UpdateTodo(ctx, created.ID, api.UpdateTodoRequest{IsCompleted: api.Bool(false)})
	if err != nil {
		t.Fatalf("UpdateTodo(false): %v", err)
	}
	if updated.IsCompleted {
		t.Error("explicit isCompleted=false must be applied")
	}
	if updated.Title != "Walk dog" {
		t.Errorf("title changed to %q by a completion-only patch", updated.Title)
	}
}

func TestUpdateTodo_MergesFieldsIndependently(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTodo(ctx, api.CreateTodoRequest{Title: "Draft"})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}

	renamed, err := svc.UpdateTodo(ctx, created.ID, api.UpdateTodoRequest{Title: api.String("Final")})
	if err != nil {
		t.Fatalf("UpdateTodo(title): %v", err)
	}
	if renamed.Title != "Final" || renamed.IsCompleted {
		t.Errorf("after rename got %+v", renamed)
	}

	both, err := svc.UpdateTodo(ctx, created.ID, api.UpdateTodoRequest{
		Title:       api.String("Shipped"),
		IsCompleted: api.Bool(true),
	})
	if err != nil {
		t.Fatalf("UpdateTodo(both): %v", err)
	}
	if both.Title != "Shipped" || !both.IsCompleted {
		t.Errorf("after full patch got %+v", both)
	}
	if both.ID != created.ID || !both.CreatedAt.Equal(created.CreatedAt) {
		t.Error("id and createdAt must be immutable")
	}
}

func TestUpdateTodo_EmptyPatchRefreshesUpdatedAt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTodo(ctx, api.CreateTodoRequest{Title: "Same"})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}

	updated, err := svc.UpdateTodo(ctx, created.ID, api.UpdateTodoRequest{})
	if err != nil {
		t.Fatalf("UpdateTodo: %v", err)
	}
	if updated.Title != created.Title || updated.IsCompleted != created.IsCompleted {
		t.Errorf("empty patch changed fields: %+v", updated)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("updatedAt %v should be after %v", updated.UpdatedAt, created.UpdatedAt)
	}
}

func TestUpdateTodo_UpdatedAtNeverBeforeCreatedAt(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTodo(ctx, api.CreateTodoRequest{Title: "Time travel"})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}

	clock.next = created.CreatedAt.Add(-time.Hour)
	updated, err := svc.UpdateTodo(ctx, created.ID, api.UpdateTodoRequest{IsCompleted: api.Bool(true)})
	if err != nil {
		t.Fatalf("UpdateTodo: %v", err)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Errorf("updatedAt %v before createdAt %v", updated.UpdatedAt, updated.CreatedAt)
	}
}

func TestUpdateTodo_RejectsEmptyTitle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTodo(ctx, api.CreateTodoRequest{Title: "Keep me"})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}

	_, err = svc.UpdateTodo(ctx, created.ID, api.UpdateTodoRequest{Title: api.String("")})
	assertErrorStatus(t, err, http.StatusBadRequest)

	got, err := svc.GetTodoByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTodoByID: %v", err)
	}
	if got.Title != "Keep me" {
		t.Errorf("title = %q after rejected update", got.Title)
	}
}

func TestUpdateTodo_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateTodo(context.Background(), "9b2f0f57-2a52-4b43-9a39-2a1f4a9d8f00", api.UpdateTodoRequest{IsCompleted: api.Bool(true)})
	assertErrorStatus(t, err, http.StatusNotFound)
	if !domain.IsNotFound(err) {
		t.Error("expected a not-found error")
	}
}

func TestUpdateTodo_RowVanishesBeforeWrite(t *testing.T) {
	repo := &mockRepository{
		findUniqueFn: func(ctx context.Context, id string) (*domain.Todo, error) {
			return &domain.Todo{ID: id, Title: "racing"}, nil
		},
		updateFn: func(ctx context.Context, id string, fields domain.TodoFields) (*domain.Todo, error) {
			return nil, repository.ErrNotFound
		},
	}
	svc := NewTodoService(repo)

	_, err := svc.UpdateTodo(context.Background(), "some-id", api.UpdateTodoRequest{})
	assertErrorStatus(t, err, http.StatusNotFound)
}

func TestDeleteTodo(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	keep, err := svc.CreateTodo(ctx, api.CreateTodoRequest{Title: "keep"})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	drop, err := svc.CreateTodo(ctx, api.CreateTodoRequest{Title: "drop"})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}

	if err := svc.DeleteTodo(ctx, drop.ID); err != nil {
		t.Fatalf("DeleteTodo: %v", err)
	}

	todos, err := svc.ListTodos(ctx)
	if err != nil {
		t.Fatalf("ListTodos: %v", err)
	}
	if len(todos) != 1 || todos[0].ID != keep.ID {
		t.Errorf("after delete got %+v, want only %s", todos, keep.ID)
	}

	err = svc.DeleteTodo(ctx, drop.ID)
	assertErrorStatus(t, err, http.StatusNotFound)
}

func TestRoundTrip_CreateUpdateList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTodo(ctx, api.CreateTodoRequest{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	updated, err := svc.UpdateTodo(ctx, created.ID, api.UpdateTodoRequest{IsCompleted: api.Bool(true)})
	if err != nil {
		t.Fatalf("UpdateTodo: %v", err)
	}

	todos, err := svc.ListTodos(ctx)
	if err != nil {
		t.Fatalf("ListTodos: %v", err)
	}
	if len(todos) != 1 {
		t.Fatalf("got %d todos, want exactly 1", len(todos))
	}
	got := todos[0]
	if got.ID != updated.ID || got.Title != updated.Title || got.IsCompleted != updated.IsCompleted ||
		!got.CreatedAt.Equal(updated.CreatedAt) || !got.UpdatedAt.Equal(updated.UpdatedAt) {
		t.Errorf("listed %+v, want %+v", got, *updated)
	}
}

func TestRepositoryFailuresBecomeInternalErrors(t *testing.T) {
	boom := errors.New("connection refused")
	repo := &mockRepository{
		findManyFn: func(ctx context.Context, order repository.SortOrder) ([]domain.Todo, error) {
			return nil, boom
		},
		findUniqueFn: func(ctx context.Context, id string) (*domain.Todo, error) {
			return nil, boom
		},
		createFn: func(ctx context.Context, todo *domain.Todo) error {
			return boom
		},
	}
	svc := NewTodoService(repo)
	ctx := context.Background()

	_, err := svc.ListTodos(ctx)
	assertErrorStatus(t, err, http.StatusInternalServerError)
	if !errors.Is(err, boom) {
		t.Error("internal errors must keep their cause")
	}

	_, err = svc.CreateTodo(ctx, api.CreateTodoRequest{Title: "x"})
	assertErrorStatus(t, err, http.StatusInternalServerError)

	_, err = svc.UpdateTodo(ctx, "id", api.UpdateTodoRequest{})
	assertErrorStatus(t, err, http.StatusInternalServerError)

	err = svc.DeleteTodo(ctx, "id")
	assertErrorStatus(t, err, http.StatusInternalServerError)

	var domErr *domain.Error
	errors.As(err, &domErr)
	if domErr.Message != domain.MsgInternal {
		t.Errorf("message = %q, want the generic %q", domErr.Message, domain.MsgInternal)
	}
}
