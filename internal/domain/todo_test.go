package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBeforeCreate_AssignsUUID(t *testing.T) {
	todo := &Todo{Title: "x"}
	if err := todo.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if _, err := uuid.Parse(todo.ID); err != nil {
		t.Fatalf("ID %q is not a uuid: %v", todo.ID, err)
	}
}

func TestBeforeCreate_KeepsExistingID(t *testing.T) {
	todo := &Todo{ID: "1f0e2c8a-3b7d-4d59-9a63-5f1c2b3a4d5e"}
	if err := todo.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if todo.ID != "1f0e2c8a-3b7d-4d59-9a63-5f1c2b3a4d5e" {
		t.Errorf("ID overwritten: %q", todo.ID)
	}
}

func TestTodoFields_Apply(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	todo := &Todo{ID: "id", Title: "old", IsCompleted: true, CreatedAt: created, UpdatedAt: created}

	TodoFields{Title: "new", IsCompleted: false, UpdatedAt: created.Add(time.Minute)}.Apply(todo)

	if todo.Title != "new" || todo.IsCompleted {
		t.Errorf("fields not applied: %+v", todo)
	}
	if !todo.UpdatedAt.Equal(created.Add(time.Minute)) {
		t.Errorf("UpdatedAt = %v", todo.UpdatedAt)
	}
	if todo.ID != "id" || !todo.CreatedAt.Equal(created) {
		t.Error("ID and CreatedAt must not change")
	}
}
