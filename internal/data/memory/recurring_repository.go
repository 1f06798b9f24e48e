package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openledger-engine/internal/domain/recurring"
)

// TemplateRepository stores recurring-transaction templates in memory.
type TemplateRepository struct {
	mu        sync.RWMutex
	templates map[uuid.UUID]*recurring.Template
}

// NewTemplateRepository creates an empty in-memory template store.
func NewTemplateRepository() *TemplateRepository {
	return &TemplateRepository{templates: make(map[uuid.UUID]*recurring.Template)}
}

// Add registers a template.
func (r *TemplateRepository) Add(tpl *recurring.Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *tpl
	r.templates[stored.ID] = &stored
}

// ListActive returns all active templates ordered by name.
func (r *TemplateRepository) ListActive(_ context.Context) ([]*recurring.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*recurring.Template, 0, len(r.templates))
	for _, tpl := range r.templates {
		if !tpl.IsActive {
			continue
		}
		c := *tpl
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetByID returns a copy of the template with the given id.
func (r *TemplateRepository) GetByID(_ context.Context, id uuid.UUID) (*recurring.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tpl, ok := r.templates[id]
	if !ok {
		return nil, recurring.ErrTemplateNotFound{TemplateID: id}
	}
	out := *tpl
	return &out, nil
}

// UpdateNextExecution advances the template's schedule.
func (r *TemplateRepository) UpdateNextExecution(_ context.Context, id uuid.UUID, next time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tpl, ok := r.templates[id]
	if !ok {
		return recurring.ErrTemplateNotFound{TemplateID: id}
	}
	tpl.NextExecution = next
	return nil
}
