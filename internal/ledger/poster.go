package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openledger-engine/internal/domain/account"
	"github.com/openledger-engine/internal/domain/journal"
	"github.com/openledger-engine/internal/domain/money"
)

// Poster validates and commits transaction drafts. Validation and commit run
// inside a single global posting critical section so that the balanced-sum
// check can never race with another commit touching the same accounts.
// Posting is not the system's throughput bottleneck; the global section keeps
// the serializability argument trivial.
type Poster struct {
	chart  *account.Chart
	log    *Log
	repo   journal.Repository
	agg    *Aggregator
	logger *slog.Logger

	mu         sync.Mutex
	nextNumber int64
}

// NewPoster creates a poster over the given chart and committed log. repo
// receives the durable write-through; agg (optional) has cached balances
// invalidated for every touched account.
func NewPoster(chart *account.Chart, log *Log, repo journal.Repository, agg *Aggregator, logger *slog.Logger) *Poster {
	return &Poster{
		chart:      chart,
		log:        log,
		repo:       repo,
		agg:        agg,
		logger:     logger,
		nextNumber: log.LastNumber() + 1,
	}
}

// Post validates the draft and commits it as a numbered transaction. The
// validation pipeline short-circuits on the first failure and is side-effect
// free: a rejected draft leaves no state change anywhere.
func (p *Poster) Post(ctx context.Context, draft *journal.Draft) (*journal.Transaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.validate(draft); err != nil {
		return nil, err
	}

	txType := draft.Type
	if txType == "" {
		txType = journal.TypeGeneralJournal
	}

	tx := &journal.Transaction{
		ID:          uuid.New(),
		Number:      p.nextNumber,
		Date:        dateOnly(draft.Date),
		Type:        txType,
		Description: draft.Description,
		Reference:   draft.Reference,
		CreatedBy:   draft.CreatedBy,
		CreatedAt:   time.Now().UTC(),
	}
	for _, de := range draft.Entries {
		tx.Entries = append(tx.Entries, journal.Entry{
			ID:            uuid.New(),
			TransactionID: tx.ID,
			AccountID:     de.AccountID,
			Debit:         de.Debit,
			Credit:        de.Credit,
			Description:   de.Description,
		})
	}

	// Durable commit first: the persistence layer guarantees the entries
	// become visible together. The in-memory log only learns about the
	// transaction once the store accepted it.
	if p.repo != nil {
		if err := p.repo.SaveTransaction(ctx, tx); err != nil {
			p.logger.Error("Failed to persist transaction",
				"transaction_id", tx.ID.String(), "number", tx.Number, "error", err)
			return nil, fmt.Errorf("failed to persist transaction %d: %w", tx.Number, err)
		}
	}

	p.log.Append(tx)
	p.nextNumber++

	if p.agg != nil {
		touched := make([]uuid.UUID, 0, len(tx.Entries))
		for _, e := range tx.Entries {
			touched = append(touched, e.AccountID)
		}
		p.agg.Invalidate(touched, tx.Date)
	}

	p.logger.Info("Transaction committed",
		"transaction_id", tx.ID.String(),
		"number", tx.Number,
		"date", tx.Date.Format("2006-01-02"),
		"entries", len(tx.Entries),
	)
	return tx, nil
}

// validate runs the posting pipeline: entry count, account existence and
// active state, single-sidedness, exact balance. Pure checks only.
func (p *Poster) validate(draft *journal.Draft) error {
	if len(draft.Entries) < 2 {
		return journal.ErrTooFewEntries{Count: len(draft.Entries)}
	}
	if draft.Type != "" && !draft.Type.Valid() {
		return journal.ErrInvalidTransactionType
	}

	for i, e := range draft.Entries {
		acc, err := p.chart.Get(e.AccountID)
		if err != nil {
			return journal.ErrUnknownAccount{AccountID: e.AccountID}
		}
		if !acc.IsActive {
			return journal.ErrInactiveAccount{AccountID: e.AccountID}
		}

		if e.Debit.Scale() != money.AmountScale {
			return money.ErrScaleMismatch{Left: e.Debit.Scale(), Right: money.AmountScale}
		}
		if e.Credit.Scale() != money.AmountScale {
			return money.ErrScaleMismatch{Left: e.Credit.Scale(), Right: money.AmountScale}
		}

		debitSet := !e.Debit.IsZero()
		creditSet := !e.Credit.IsZero()
		if debitSet == creditSet {
			return journal.ErrMalformedEntry{Index: i, Reason: "exactly one of debit/credit must be non-zero"}
		}
		if e.Debit.IsNegative() || e.Credit.IsNegative() {
			return journal.ErrMalformedEntry{Index: i, Reason: "amounts must not be negative"}
		}
	}

	// Exact fixed-point comparison at full precision. This is the
	// load-bearing invariant of the whole ledger.
	debits := money.Zero(money.AmountScale)
	credits := money.Zero(money.AmountScale)
	for _, e := range draft.Entries {
		debits, _ = debits.Add(e.Debit)
		credits, _ = credits.Add(e.Credit)
	}
	if !debits.Equal(credits) {
		return journal.ErrUnbalanced{Debits: debits, Credits: credits}
	}

	return nil
}
