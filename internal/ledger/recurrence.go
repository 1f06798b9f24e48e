package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openledger-engine/internal/domain/journal"
	"github.com/openledger-engine/internal/domain/money"
	"github.com/openledger-engine/internal/domain/recurring"
	"github.com/panjf2000/ants/v2"
)

// recurrenceRefPrefix marks transactions generated by the recurrence engine.
// The full reference is "recurring:<template id>:<scheduled date>", which
// makes the committed transaction itself the durable firing record.
const recurrenceRefPrefix = "recurring:"

func recurrenceReference(templateID uuid.UUID, dateKey string) string {
	return recurrenceRefPrefix + templateID.String() + ":" + dateKey
}

// parseRecurrenceReference inverts recurrenceReference; ok is false for
// transactions not generated by the recurrence engine.
func parseRecurrenceReference(ref string) (templateID uuid.UUID, dateKey string, ok bool) {
	rest, found := strings.CutPrefix(ref, recurrenceRefPrefix)
	if !found {
		return uuid.Nil, "", false
	}
	idx := strings.LastIndex(rest, ":")
	if idx < 0 {
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(rest[:idx])
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, rest[idx+1:], true
}

// RecurrenceResult reports one attempted firing of one template.
type RecurrenceResult struct {
	TemplateID  uuid.UUID
	Date        time.Time
	Transaction *journal.Transaction
	Err         error
}

// RecurrenceEngine fires due recurring-transaction templates. Firing is
// idempotent per (template, scheduled date): a fired date is remembered and a
// second attempt reports ErrSchedulingConflict instead of double-posting.
// The guard survives restarts because every generated transaction carries a
// (template, date) reference and the fired index is rebuilt from the replayed
// committed log.
type RecurrenceEngine struct {
	poster    *Poster
	templates recurring.Repository
	pool      *ants.Pool
	logger    *slog.Logger

	mu      sync.Mutex // one tick at a time
	firedMu sync.Mutex
	fired   map[uuid.UUID]map[string]uuid.UUID
}

// NewRecurrenceEngine creates a recurrence engine posting through the given
// poster. The fired index is seeded from log so dates fired before a restart
// stay blocked even when the stored schedule was never advanced. pool may be
// nil to run templates sequentially.
func NewRecurrenceEngine(poster *Poster, templates recurring.Repository, log *Log, pool *ants.Pool, logger *slog.Logger) *RecurrenceEngine {
	e := &RecurrenceEngine{
		poster:    poster,
		templates: templates,
		pool:      pool,
		logger:    logger,
		fired:     make(map[uuid.UUID]map[string]uuid.UUID),
	}
	if log != nil {
		for _, tx := range log.Transactions() {
			if templateID, dateKey, ok := parseRecurrenceReference(tx.Reference); ok {
				e.recordFired(templateID, dateKey, tx.ID)
			}
		}
	}
	return e
}

// Tick fires every active template whose next execution date is due, catching
// up multiple missed dates. A posting failure leaves the template's schedule
// unadvanced so the next tick retries it; failures are isolated per template.
func (e *RecurrenceEngine) Tick(ctx context.Context, today time.Time) []RecurrenceResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	templates, err := e.templates.ListActive(ctx)
	if err != nil {
		e.logger.Error("Failed to list active templates", "error", err)
		return []RecurrenceResult{{Err: fmt.Errorf("failed to list active templates: %w", err)}}
	}

	cutoff := dateOnly(today)
	perTemplate := make([][]RecurrenceResult, len(templates))
	tasks := make([]func(), len(templates))
	for i, tpl := range templates {
		i, tpl := i, tpl
		tasks[i] = func() {
			perTemplate[i] = e.tickTemplate(ctx, tpl, cutoff)
		}
	}
	runTasks(e.pool, tasks)

	var results []RecurrenceResult
	for _, rs := range perTemplate {
		results = append(results, rs...)
	}
	return results
}

func (e *RecurrenceEngine) tickTemplate(ctx context.Context, tpl *recurring.Template, today time.Time) []RecurrenceResult {
	var results []RecurrenceResult

	for tpl.DueOn(today) {
		scheduled := dateOnly(tpl.NextExecution)
		dateKey := scheduled.Format("2006-01-02")

		if txID, ok := e.alreadyFired(tpl.ID, dateKey); ok {
			results = append(results, RecurrenceResult{
				TemplateID: tpl.ID,
				Date:       scheduled,
				Err:        recurring.ErrSchedulingConflict{TemplateID: tpl.ID, Date: scheduled},
			})
			e.logger.Warn("Skipping already-fired recurrence date",
				"template_id", tpl.ID.String(), "date", dateKey, "transaction_id", txID.String())
			break
		}

		tx, err := e.fire(ctx, tpl, scheduled)
		if err != nil {
			// Schedule not advanced: the next tick retries this date.
			results = append(results, RecurrenceResult{TemplateID: tpl.ID, Date: scheduled, Err: err})
			e.logger.Error("Failed to fire recurring transaction",
				"template_id", tpl.ID.String(), "date", dateKey, "error", err)
			break
		}
		results = append(results, RecurrenceResult{TemplateID: tpl.ID, Date: scheduled, Transaction: tx})

		e.recordFired(tpl.ID, dateKey, tx.ID)

		next := tpl.Cadence.Advance(scheduled, tpl.AnchorDay())
		tpl.NextExecution = next
		if err := e.templates.UpdateNextExecution(ctx, tpl.ID, next); err != nil {
			// The firing itself is recorded, so a re-run cannot double-post;
			// still surface the persistence failure.
			results = append(results, RecurrenceResult{
				TemplateID: tpl.ID,
				Date:       scheduled,
				Err:        fmt.Errorf("fired but failed to advance schedule: %w", err),
			})
			break
		}
	}

	return results
}

func (e *RecurrenceEngine) alreadyFired(templateID uuid.UUID, dateKey string) (uuid.UUID, bool) {
	e.firedMu.Lock()
	defer e.firedMu.Unlock()
	txID, ok := e.fired[templateID][dateKey]
	return txID, ok
}

func (e *RecurrenceEngine) recordFired(templateID uuid.UUID, dateKey string, txID uuid.UUID) {
	e.firedMu.Lock()
	defer e.firedMu.Unlock()
	if e.fired[templateID] == nil {
		e.fired[templateID] = make(map[string]uuid.UUID)
	}
	e.fired[templateID][dateKey] = txID
}

func (e *RecurrenceEngine) fire(ctx context.Context, tpl *recurring.Template, scheduled time.Time) (*journal.Transaction, error) {
	draft := &journal.Draft{
		Date:        scheduled,
		Type:        journal.TypeGeneralJournal,
		Description: fmt.Sprintf("Recurring: %s", tpl.Name),
		Reference:   recurrenceReference(tpl.ID, scheduled.Format("2006-01-02")),
		CreatedBy:   "recurrence-engine",
		Entries: []journal.DraftEntry{
			{AccountID: tpl.DebitAccountID, Debit: tpl.Amount, Credit: money.Zero(money.AmountScale)},
			{AccountID: tpl.CreditAccountID, Debit: money.Zero(money.AmountScale), Credit: tpl.Amount},
		},
	}
	return e.poster.Post(ctx, draft)
}
