package ledger

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openledger-engine/internal/domain/account"
	"github.com/openledger-engine/internal/domain/money"
)

// balanceKey caches one (as-of date, rollup) balance for an account.
type balanceKey struct {
	date   int64
	rollup bool
}

// Aggregator computes point-in-time and period balances from the committed
// log. The memo cache is strictly an optimization: every query is computed
// from the log on a miss, and the engine passes its correctness suite with
// caching disabled. Each query runs under a single log read-lock so it
// observes complete transactions only, even while rolling up a subtree.
type Aggregator struct {
	chart        *account.Chart
	log          *Log
	cacheEnabled bool

	mu           sync.Mutex
	cache        map[uuid.UUID]map[balanceKey]money.Money
	chartVersion uint64
}

// NewAggregator creates an aggregator over the chart and committed log.
func NewAggregator(chart *account.Chart, log *Log, cacheEnabled bool) *Aggregator {
	return &Aggregator{
		chart:        chart,
		log:          log,
		cacheEnabled: cacheEnabled,
		cache:        make(map[uuid.UUID]map[balanceKey]money.Money),
	}
}

// Balance returns the account's balance as of the given date: the signed sum
// of its own entry effects (debit-positive), plus every descendant's balance
// when rollup is set.
func (a *Aggregator) Balance(accountID uuid.UUID, asOf time.Time, rollup bool) (money.Money, error) {
	if _, err := a.chart.Get(accountID); err != nil {
		return money.Money{}, err
	}

	key := balanceKey{date: dateOnly(asOf).Unix(), rollup: rollup}
	if a.cacheEnabled {
		a.mu.Lock()
		// A chart mutation (add, reparent, activation flip) reshapes rollup
		// subtrees, so everything cached against the old shape is dropped.
		if v := a.chart.Version(); v != a.chartVersion {
			a.cache = make(map[uuid.UUID]map[balanceKey]money.Money)
			a.chartVersion = v
		}
		if v, ok := a.cache[accountID][key]; ok {
			a.mu.Unlock()
			return v, nil
		}
		a.mu.Unlock()
	}

	// Remember the log and chart versions before computing so a commit or a
	// reparent that races with this query cannot leave a stale value in the
	// cache.
	chartVersion := a.chart.Version()
	version := a.log.Version()

	a.log.mu.RLock()
	total := a.sumSubtree(accountID, asOf, rollup)
	a.log.mu.RUnlock()

	if a.cacheEnabled && a.log.Version() == version && a.chart.Version() == chartVersion {
		a.mu.Lock()
		if a.chartVersion == chartVersion {
			byKey, ok := a.cache[accountID]
			if !ok {
				byKey = make(map[balanceKey]money.Money)
				a.cache[accountID] = byKey
			}
			byKey[key] = total
		}
		a.mu.Unlock()
	}
	return total, nil
}

// sumSubtree sums effects dated on/before asOf for the account and, with
// rollup, its whole subtree. Callers hold the log read-lock.
func (a *Aggregator) sumSubtree(accountID uuid.UUID, asOf time.Time, rollup bool) money.Money {
	total := a.log.sumEffects(accountID, asOf)
	if !rollup {
		return total
	}
	for _, child := range a.chart.Children(accountID) {
		total, _ = total.Add(a.sumSubtree(child.ID, asOf, true))
	}
	return total
}

// PeriodBalance returns the account's balance over [start, end]. For
// cumulative accounts (asset/liability/equity) it is balance(end) minus
// balance(start − 1 day); for flow accounts (revenue/expense) it sums only
// entries dated inside the period — a flow account has no meaningful balance
// carried into the period. Both branches run on one log snapshot.
func (a *Aggregator) PeriodBalance(accountID uuid.UUID, start, end time.Time, rollup bool) (money.Money, error) {
	acc, err := a.chart.Get(accountID)
	if err != nil {
		return money.Money{}, err
	}

	a.log.mu.RLock()
	defer a.log.mu.RUnlock()

	if acc.Type.IsFlow() {
		return a.sumSubtreeIn(accountID, start, end, rollup), nil
	}

	endBal := a.sumSubtree(accountID, end, rollup)
	openBal := a.sumSubtree(accountID, dateOnly(start).AddDate(0, 0, -1), rollup)
	return endBal.Sub(openBal)
}

// sumSubtreeIn sums effects dated within [start, end] for the account and,
// with rollup, its subtree. Callers hold the log read-lock.
func (a *Aggregator) sumSubtreeIn(accountID uuid.UUID, start, end time.Time, rollup bool) money.Money {
	total := a.log.sumEffectsIn(accountID, start, end)
	if !rollup {
		return total
	}
	for _, child := range a.chart.Children(accountID) {
		total, _ = total.Add(a.sumSubtreeIn(child.ID, start, end, true))
	}
	return total
}

// Movement returns the raw signed entry-effect sum over [start, end]
// regardless of account type. The cash flow statement partitions these.
func (a *Aggregator) Movement(accountID uuid.UUID, start, end time.Time) (money.Money, error) {
	if _, err := a.chart.Get(accountID); err != nil {
		return money.Money{}, err
	}
	return a.log.SumEffectsIn(accountID, start, end), nil
}

// Invalidate drops cached balances for the touched accounts and all of their
// ancestors, for the posting date and every later date. Rolled-up balances
// live on ancestors, which is why the walk goes up the tree.
func (a *Aggregator) Invalidate(accountIDs []uuid.UUID, from time.Time) {
	if !a.cacheEnabled {
		return
	}

	affected := make(map[uuid.UUID]bool)
	for _, id := range accountIDs {
		affected[id] = true
		ancestors, err := a.chart.Ancestors(id)
		if err != nil {
			continue
		}
		for _, anc := range ancestors {
			affected[anc.ID] = true
		}
	}

	cutoff := dateOnly(from).Unix()
	a.mu.Lock()
	defer a.mu.Unlock()
	for id := range affected {
		byKey := a.cache[id]
		for key := range byKey {
			if key.date >= cutoff {
				delete(byKey, key)
			}
		}
	}
}
