package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/todos-api/internal/domain"
)

// ErrNotFound is returned when no todo matches the requested id.
var ErrNotFound = errors.New("todo not found")

// SortOrder selects the createdAt ordering of FindMany.
type SortOrder int

const (
	NewestFirst SortOrder = iota
	OldestFirst
)

// TodoRepository defines the interface for todo data operations
type TodoRepository interface {
	// FindMany returns every todo ordered by createdAt.
	FindMany(ctx context.Context, order SortOrder) ([]domain.Todo, error)
	// FindUnique returns the todo with the given id or ErrNotFound.
	FindUnique(ctx context.Context, id string) (*domain.Todo, error)
	// Create inserts todo, assigning its ID when empty.
	Create(ctx context.Context, todo *domain.Todo) error
	// Update overwrites the mutable columns and returns the stored row.
	Update(ctx context.Context, id string, fields domain.TodoFields) (*domain.Todo, error)
	// Delete removes the row permanently or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// gormTodoRepository implements TodoRepository using GORM
type gormTodoRepository struct {
	db *gorm.DB
}

// NewGormTodoRepository creates a new GORM todo repository
func NewGormTodoRepository(db *gorm.DB) TodoRepository {
	return &gormTodoRepository{db: db}
}

// FindMany retrieves all todos ordered by creation time.
func (r *gormTodoRepository) FindMany(ctx context.Context, order SortOrder) ([]domain.Todo, error) {
	var todos []domain.Todo
	// id breaks ties between equal timestamps so the order is stable.
	orderBy := "created_at DESC, id DESC"
	if order == OldestFirst {
		orderBy = "created_at ASC, id ASC"
	}
	result := r.db.WithContext(ctx).Order(orderBy).Find(&todos)
	if result.Error != nil {
		return nil, fmt.Errorf("find todos: %w", result.Error)
	}
	return todos, nil
}

// FindUnique retrieves a single todo by its ID.
func (r *gormTodoRepository) FindUnique(ctx context.Context, id string) (*domain.Todo, error) {
	var todo domain.Todo
	result := r.db.WithContext(ctx).First(&todo, "id = ?", id)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &todo, nil
}

// Create inserts a new todo into the database.
func (r *gormTodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	if err := r.db.WithContext(ctx).Create(todo).Error; err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

// Update writes fields onto the todo and returns the stored row.
func (r *gormTodoRepository) Update(ctx context.Context, id string, fields domain.TodoFields) (*domain.Todo, error) {
	todo := domain.Todo{ID: id}
	// A map is used so that false and "" are written; Updates with a struct
	// skips zero values.
	result := r.db.WithContext(ctx).
		Model(&todo).
		Clauses(clause.Returning{}).
		Updates(map[string]any{
			"title":        fields.Title,
			"is_completed": fields.IsCompleted,
			"updated_at":   fields.UpdatedAt,
		})
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &todo, nil
}

// Delete removes a todo by its ID.
func (r *gormTodoRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Todo{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// translateError maps driver errors that mean "no such row" onto ErrNotFound.
// 22P02 (invalid_text_representation) is what PostgreSQL reports for an id
// that is not a valid uuid.
func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
		return ErrNotFound
	}
	return err
}
