package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Todo is the only persisted entity. IDs are UUID strings assigned by the
// persistence layer; timestamps are set by the service.
type Todo struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	Title       string    `gorm:"not null"`
	IsCompleted bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"not null;index:idx_todos_created_at,sort:desc"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// BeforeCreate assigns a fresh UUID when the caller left ID empty.
func (t *Todo) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// TodoFields is the complete set of mutable columns written by an update.
// The service computes it by merging a patch onto the stored record.
type TodoFields struct {
	Title       string
	IsCompleted bool
	UpdatedAt   time.Time
}

// Apply copies the fields onto t.
func (f TodoFields) Apply(t *Todo) {
	t.Title = f.Title
	t.IsCompleted = f.IsCompleted
	t.UpdatedAt = f.UpdatedAt
}
