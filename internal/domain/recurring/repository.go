package recurring

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository manages recurring-transaction templates.
type Repository interface {
	ListActive(ctx context.Context) ([]*Template, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Template, error)
	// UpdateNextExecution advances the template's schedule after a
	// successful firing.
	UpdateNextExecution(ctx context.Context, id uuid.UUID, next time.Time) error
}

// ErrTemplateNotFound indicates a missing recurring-transaction template
type ErrTemplateNotFound struct {
	TemplateID uuid.UUID
}

func (e ErrTemplateNotFound) Error() string {
	return "recurring template not found: " + e.TemplateID.String()
}

// Is implements the errors.Is interface for ErrTemplateNotFound
func (e ErrTemplateNotFound) Is(target error) bool {
	t, ok := target.(ErrTemplateNotFound)
	if !ok {
		return false
	}
	if t.TemplateID == uuid.Nil {
		return true
	}
	return e.TemplateID == t.TemplateID
}

// ErrSchedulingConflict indicates a double-fire attempt for an already-posted
// recurrence date
type ErrSchedulingConflict struct {
	TemplateID uuid.UUID
	Date       time.Time
}

func (e ErrSchedulingConflict) Error() string {
	return "recurrence already fired for " + e.Date.Format("2006-01-02") +
		" on template " + e.TemplateID.String()
}

// Is implements the errors.Is interface for ErrSchedulingConflict
func (e ErrSchedulingConflict) Is(target error) bool {
	t, ok := target.(ErrSchedulingConflict)
	if !ok {
		return false
	}
	if t.TemplateID == uuid.Nil {
		return true
	}
	return e.TemplateID == t.TemplateID && (t.Date.IsZero() || e.Date.Equal(t.Date))
}
