package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/Tomlord1122/todos-api/internal/domain"
)

type memoryEntry struct {
	todo domain.Todo
	seq  uint64
}

// MemoryTodoRepository implements TodoRepository in process memory. It backs
// the "memory" storage mode and the service tests.
type MemoryTodoRepository struct {
	mu    sync.RWMutex
	todos map[string]*memoryEntry
	seq   uint64
}

// NewMemoryTodoRepository creates an empty in-memory repository.
func NewMemoryTodoRepository() *MemoryTodoRepository {
	return &MemoryTodoRepository{todos: make(map[string]*memoryEntry)}
}

// FindMany returns copies of every todo. Equal timestamps keep insertion order.
func (r *MemoryTodoRepository) FindMany(ctx context.Context, order SortOrder) ([]domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	entries := make([]*memoryEntry, 0, len(r.todos))
	for _, e := range r.todos {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	// Insertion sequence breaks ties between equal timestamps.
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.todo.CreatedAt.Equal(b.todo.CreatedAt) {
			if order == OldestFirst {
				return a.todo.CreatedAt.Before(b.todo.CreatedAt)
			}
			return a.todo.CreatedAt.After(b.todo.CreatedAt)
		}
		if order == OldestFirst {
			return a.seq < b.seq
		}
		return a.seq > b.seq
	})

	todos := make([]domain.Todo, 0, len(entries))
	for _, e := range entries {
		todos = append(todos, e.todo)
	}
	return todos, nil
}

// FindUnique returns a copy of the todo with the given id.
func (r *MemoryTodoRepository) FindUnique(ctx context.Context, id string) (*domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.todos[id]
	if !ok {
		return nil, ErrNotFound
	}
	todo := e.todo
	return &todo, nil
}

// Create stores a copy of todo, assigning a uuid when ID is empty.
func (r *MemoryTodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if todo.ID == "" {
		todo.ID = uuid.NewString()
	}
	if _, exists := r.todos[todo.ID]; exists {
		return fmt.Errorf("create todo: duplicate id %s", todo.ID)
	}
	r.seq++
	r.todos[todo.ID] = &memoryEntry{todo: *todo, seq: r.seq}
	return nil
}

// Update overwrites the mutable fields of an existing todo.
func (r *MemoryTodoRepository) Update(ctx context.Context, id string, fields domain.TodoFields) (*domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.todos[id]
	if !ok {
		return nil, ErrNotFound
	}
	fields.Apply(&e.todo)
	todo := e.todo
	return &todo, nil
}

// Delete removes the todo with the given id.
func (r *MemoryTodoRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.todos[id]; !ok {
		return ErrNotFound
	}
	delete(r.todos, id)
	return nil
}

// Health reports the store as always up along with its size.
func (r *MemoryTodoRepository) Health(_ context.Context) map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[string]string{
		"status":  "up",
		"message": "It's healthy",
		"storage": "memory",
		"todos":   strconv.Itoa(len(r.todos)),
	}
}
