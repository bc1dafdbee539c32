// Package ledger owns the in-memory transaction list, its aggregate views and
// the service through which every mutation is persisted and announced.
package ledger

import (
	"errors"
	"fmt"

	"budgetbook/internal/core"
)

var ErrIndexOutOfRange = errors.New("transaction index out of range")

// IndexError reports an update addressed past the end of the ledger.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: index %d, ledger holds %d", ErrIndexOutOfRange, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

// Classifier maps a description to a category label.
type Classifier interface {
	Classify(description string) string
}

// Aggregator is the ordered transaction list. The position of a transaction
// is its index for Update. It is not safe for concurrent use; Service
// provides the locking.
type Aggregator struct {
	classifier Classifier
	txs        []core.Transaction
}

func NewAggregator(c Classifier) *Aggregator {
	return &Aggregator{classifier: c}
}

// Add classifies tx, appends it and returns the stored value.
func (a *Aggregator) Add(tx core.Transaction) core.Transaction {
	tx.Category = a.classifier.Classify(tx.Description)
	a.txs = append(a.txs, tx)
	return tx
}

// Update replaces the transaction at index with tx, reclassified, and
// returns both the previous and the stored value.
func (a *Aggregator) Update(index int, tx core.Transaction) (old, updated core.Transaction, err error) {
	if index < 0 || index >= len(a.txs) {
		return core.Transaction{}, core.Transaction{}, &IndexError{Index: index, Len: len(a.txs)}
	}
	old = a.txs[index]
	tx.Category = a.classifier.Classify(tx.Description)
	a.txs[index] = tx
	return old, tx, nil
}

// Remove deletes the lowest-index transaction matching the given fields,
// with the amount compared within core.AmountTolerance.
func (a *Aggregator) Remove(date, description string, amount float64, typ core.TransactionType) (core.Transaction, bool) {
	for i, tx := range a.txs {
		if tx.Matches(date, description, amount, typ) {
			a.txs = append(a.txs[:i], a.txs[i+1:]...)
			return tx, true
		}
	}
	return core.Transaction{}, false
}

// Replace swaps in txs as loaded from storage. Categories are kept as stored.
func (a *Aggregator) Replace(txs []core.Transaction) {
	a.txs = append([]core.Transaction(nil), txs...)
}

func (a *Aggregator) Len() int {
	return len(a.txs)
}

// Transactions returns a copy of the list in ledger order.
func (a *Aggregator) Transactions() []core.Transaction {
	return append([]core.Transaction{}, a.txs...)
}

// WeeklySpending sums Expense amounts per ISO week label. Transactions whose
// date does not parse, such as undated legacy records, are left out.
func (a *Aggregator) WeeklySpending() map[string]float64 {
	out := make(map[string]float64)
	for _, tx := range a.txs {
		if !tx.IsExpense() {
			continue
		}
		d, err := core.ParseDate(tx.Date)
		if err != nil {
			continue
		}
		out[core.WeekLabel(d)] += tx.Amount
	}
	return out
}

// ExpenseCategories sums Expense amounts per stored category.
func (a *Aggregator) ExpenseCategories() map[string]float64 {
	out := make(map[string]float64)
	for _, tx := range a.txs {
		if tx.IsExpense() {
			out[tx.Category] += tx.Amount
		}
	}
	return out
}

// Summary reduces the list to its totals.
func (a *Aggregator) Summary() core.Summary {
	s := core.Summary{Count: len(a.txs)}
	for _, tx := range a.txs {
		if tx.IsExpense() {
			s.TotalExpense += tx.Amount
		} else {
			s.TotalIncome += tx.Amount
		}
	}
	s.Balance = s.TotalIncome - s.TotalExpense
	s.ByCategory = core.SortedCategories(a.ExpenseCategories())
	s.ByWeek = core.SortedWeeks(a.WeeklySpending())
	return s
}
