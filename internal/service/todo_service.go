package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Tomlord1122/todos-api/internal/api"
	"github.com/Tomlord1122/todos-api/internal/domain"
	"github.com/Tomlord1122/todos-api/internal/repository"
)

// TodoService defines the operations for managing todos.
// Failures are *domain.Error values carrying the HTTP status to report.
type TodoService interface {
	// ListTodos returns every todo, newest first.
	ListTodos(ctx context.Context) ([]api.Todo, error)

	// CreateTodo stores a new, not yet completed todo.
	CreateTodo(ctx context.Context, req api.CreateTodoRequest) (*api.Todo, error)

	// GetTodoByID retrieves a single todo item by its ID.
	GetTodoByID(ctx context.Context, id string) (*api.Todo, error)

	// UpdateTodo merges the fields present in req onto the stored todo.
	UpdateTodo(ctx context.Context, id string, req api.UpdateTodoRequest) (*api.Todo, error)

	// DeleteTodo removes a todo permanently.
	DeleteTodo(ctx context.Context, id string) error
}

// Option configures a todoService.
type Option func(*todoService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *todoService) {
		s.now = now
	}
}

// todoService implements the TodoService interface.
// It depends on a TodoRepository to interact with the data layer.
type todoService struct {
	repo repository.TodoRepository
	now  func() time.Time
}

// NewTodoService creates a new instance of todoService.
func NewTodoService(repo repository.TodoRepository, opts ...Option) TodoService {
	s := &todoService{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp returns the current time at the precision PostgreSQL stores.
func (s *todoService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// ListTodos implements the logic to fetch all todos, newest first.
func (s *todoService) ListTodos(ctx context.Context) ([]api.Todo, error) {
	todos, err := s.repo.FindMany(ctx, repository.NewestFirst)
	if err != nil {
		return nil, domain.NewInternalError(fmt.Errorf("list todos: %w", err))
	}

	responses := make([]api.Todo, 0, len(todos))
	for i := range todos {
		responses = append(responses, toResponse(&todos[i]))
	}
	return responses, nil
}

// CreateTodo implements the logic to create a new todo.
func (s *todoService) CreateTodo(ctx context.Context, req api.CreateTodoRequest) (*api.Todo, error) {
	if err := validateTitle(req.Title); err != nil {
		return nil, err
	}

	now := s.timestamp()
	newTodo := &domain.Todo{
		Title:       req.Title,
		IsCompleted: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, newTodo); err != nil {
		return nil, domain.NewInternalError(fmt.Errorf("create todo: %w", err))
	}

	response := toResponse(newTodo)
	return &response, nil
}

// GetTodoByID implements the logic to fetch a single todo.
func (s *todoService) GetTodoByID(ctx context.Context, id string) (*api.Todo, error) {
	todo, err := s.repo.FindUnique(ctx, id)
	if err != nil {
		return nil, translate(err, "get todo %s", id)
	}

	response := toResponse(todo)
	return &response, nil
}

// UpdateTodo implements the logic to merge a partial update onto a todo.
func (s *todoService) UpdateTodo(ctx context.Context, id string, req api.UpdateTodoRequest) (*api.Todo, error) {
	if req.Title != nil {
		if err := validateTitle(*req.Title); err != nil {
			return nil, err
		}
	}

	existing, err := s.repo.FindUnique(ctx, id)
	if err != nil {
		return nil, translate(err, "find todo %s for update", id)
	}

	fields := domain.TodoFields{
		Title:       existing.Title,
		IsCompleted: existing.IsCompleted,
		UpdatedAt:   s.timestamp(),
	}
	if req.Title != nil {
		fields.Title = *req.Title
	}
	if req.IsCompleted != nil {
		fields.IsCompleted = *req.IsCompleted
	}
	// A clock that moved backwards must not break updatedAt >= createdAt.
	if fields.UpdatedAt.Before(existing.CreatedAt) {
		fields.UpdatedAt = existing.CreatedAt
	}

	updated, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, translate(err, "update todo %s", id)
	}

	response := toResponse(updated)
	return &response, nil
}

// DeleteTodo implements the logic to delete a todo.
func (s *todoService) DeleteTodo(ctx context.Context, id string) error {
	if _, err := s.repo.FindUnique(ctx, id); err != nil {
		return translate(err, "find todo %s for deletion", id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return translate(err, "delete todo %s", id)
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return domain.NewValidationError("title cannot be empty")
	}
	return nil
}

// translate maps repository.ErrNotFound to a 404 and anything else to a 500
// that keeps the cause for logging.
func translate(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NewNotFoundError()
	}
	return domain.NewInternalError(fmt.Errorf(format+": %w", append(args, err)...))
}

func toResponse(todo *domain.Todo) api.Todo {
	return api.Todo{
		ID:          todo.ID,
		Title:       todo.Title,
		IsCompleted: todo.IsCompleted,
		CreatedAt:   todo.CreatedAt.UTC(),
		UpdatedAt:   todo.UpdatedAt.UTC(),
	}
}
